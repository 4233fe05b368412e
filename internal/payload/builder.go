// Package payload turns raw notification fields into the canonical push payload.
package payload

import (
	"encoding/json"
	"time"

	"github.com/bark-labs/push-relay/internal/model"
)

// Defaults applied when a request leaves a field empty.
const (
	DefaultTitle = "New Notification"
	DefaultBody  = "This is a push notification!"
	DefaultIcon  = "https://via.placeholder.com/128"
	DefaultTag   = "default"
)

var vibration = []int{100, 50, 100}

// Build resolves every optional field of req. It never fails.
func Build(req model.NotificationRequest) model.Payload {
	return BuildAt(req, time.Now())
}

// BuildAt is Build with an explicit arrival time for the default data block.
func BuildAt(req model.NotificationRequest, now time.Time) model.Payload {
	n := model.Notification{
		Title:   firstNonEmpty(req.Title, DefaultTitle),
		Body:    firstNonEmpty(req.Body, DefaultBody),
		Icon:    firstNonEmpty(req.Icon, DefaultIcon),
		Vibrate: append([]int(nil), vibration...),
		Tag:     firstNonEmpty(req.Tag, DefaultTag),
		Data:    req.Data,
	}
	if n.Data == nil {
		n.Data = map[string]any{
			"dateOfArrival": now.UnixMilli(),
			"url":           req.URL,
		}
	}
	if len(req.Actions) > 0 {
		n.Actions = append([]model.Action(nil), req.Actions...)
	}
	return model.Payload{Notification: n}
}

// Encode serializes a payload into the push message body.
func Encode(p model.Payload) ([]byte, error) {
	return json.Marshal(p)
}

func firstNonEmpty(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
