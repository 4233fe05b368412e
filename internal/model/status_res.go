package model

// StatusRes is the /healthz payload.
type StatusRes struct {
	Status        string `json:"status"`
	Subscriptions int    `json:"subscriptions"`
	VAPID         string `json:"vapid"`
}
