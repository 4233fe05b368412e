package model

// NotificationRequest is the body accepted by the send endpoints. Every field is optional.
type NotificationRequest struct {
	Title   string         `json:"title"`
	Body    string         `json:"body"`
	Icon    string         `json:"icon"`
	Tag     string         `json:"tag"`
	Data    map[string]any `json:"data"`
	Actions []Action       `json:"actions"`
	URL     string         `json:"url"`
}

// Action is a notification button.
type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// Payload is the message body pushed to subscribers; the service worker reads .notification.
type Payload struct {
	Notification Notification `json:"notification"`
}

// Notification holds the showNotification options.
type Notification struct {
	Title   string         `json:"title"`
	Body    string         `json:"body"`
	Icon    string         `json:"icon"`
	Vibrate []int          `json:"vibrate"`
	Tag     string         `json:"tag"`
	Data    map[string]any `json:"data"`
	Actions []Action       `json:"actions,omitempty"`
}
