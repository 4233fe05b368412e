package model

import "time"

// KeyPair is the VAPID signing identity, base64url encoded without padding.
type KeyPair struct {
	PublicKey  string    `json:"publicKey"`
	PrivateKey string    `json:"privateKey"`
	CreatedAt  time.Time `json:"createdAt"`
}
