package payload

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bark-labs/push-relay/internal/model"
)

var arrival = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func TestBuildAtDefaults(t *testing.T) {
	p := BuildAt(model.NotificationRequest{}, arrival)
	n := p.Notification

	assert.Equal(t, DefaultTitle, n.Title)
	assert.Equal(t, DefaultBody, n.Body)
	assert.Equal(t, DefaultIcon, n.Icon)
	assert.Equal(t, DefaultTag, n.Tag)
	assert.Equal(t, []int{100, 50, 100}, n.Vibrate)
	assert.Equal(t, map[string]any{
		"dateOfArrival": arrival.UnixMilli(),
		"url":           "",
	}, n.Data)
	assert.Nil(t, n.Actions)
}

func TestBuildAtKeepsSuppliedFields(t *testing.T) {
	req := model.NotificationRequest{
		Title: "Hi",
		Body:  "there",
		Icon:  "https://cdn.example.com/i.png",
		Tag:   "news",
		Data:  map[string]any{"id": "42"},
		URL:   "https://example.com/ignored-when-data-set",
		Actions: []model.Action{
			{Action: "open", Title: "Open"},
			{Action: "dismiss", Title: "Dismiss"},
		},
	}

	n := BuildAt(req, arrival).Notification

	assert.Equal(t, "Hi", n.Title)
	assert.Equal(t, "there", n.Body)
	assert.Equal(t, "https://cdn.example.com/i.png", n.Icon)
	assert.Equal(t, "news", n.Tag)
	assert.Equal(t, map[string]any{"id": "42"}, n.Data)
	assert.Equal(t, req.Actions, n.Actions)
}

func TestBuildAtDefaultDataCarriesURL(t *testing.T) {
	n := BuildAt(model.NotificationRequest{URL: "https://example.com/a"}, arrival).Notification
	assert.Equal(t, "https://example.com/a", n.Data["url"])
}

func TestBuildAtKeepsEmptyDataObject(t *testing.T) {
	n := BuildAt(model.NotificationRequest{Data: map[string]any{}}, arrival).Notification
	assert.NotNil(t, n.Data)
	assert.Empty(t, n.Data)
}

func TestActionsOnlyWhenNonEmpty(t *testing.T) {
	tests := []struct {
		name    string
		actions []model.Action
		want    bool
	}{
		{name: "absent", actions: nil, want: false},
		{name: "empty", actions: []model.Action{}, want: false},
		{name: "one", actions: []model.Action{{Action: "explore", Title: "View Details"}}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := Encode(BuildAt(model.NotificationRequest{Actions: tt.actions}, arrival))
			require.NoError(t, err)

			var decoded struct {
				Notification map[string]json.RawMessage `json:"notification"`
			}
			require.NoError(t, json.Unmarshal(body, &decoded))
			_, ok := decoded.Notification["actions"]
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestEncodeShape(t *testing.T) {
	body, err := Encode(BuildAt(model.NotificationRequest{Title: "Hi"}, arrival))
	require.NoError(t, err)

	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	n := decoded["notification"]
	for _, key := range []string{"title", "body", "icon", "vibrate", "tag", "data"} {
		assert.Contains(t, n, key)
	}
	assert.Equal(t, "Hi", n["title"])
}

func TestBuildDoesNotAliasInput(t *testing.T) {
	actions := []model.Action{{Action: "a", Title: "A"}}
	p := BuildAt(model.NotificationRequest{Actions: actions}, arrival)
	actions[0].Title = "changed"
	p.Notification.Vibrate[0] = 1

	assert.Equal(t, "A", p.Notification.Actions[0].Title)
	assert.Equal(t, []int{100, 50, 100}, BuildAt(model.NotificationRequest{}, arrival).Notification.Vibrate)
}
