package model

// Subscription is a browser push subscription as produced by PushManager.subscribe().
type Subscription struct {
	Endpoint       string   `json:"endpoint"`
	ExpirationTime *float64 `json:"expirationTime,omitempty"`
	Keys           Keys     `json:"keys"`
}

// Keys is the client key material used to encrypt messages to a subscription.
type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}
