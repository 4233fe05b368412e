package model

import "strings"

const (
	p256dhVisible = 10
	authVisible   = 5
	redactMarker  = "..."
)

// SubscriptionView hides key material when subscriptions leave the process.
type SubscriptionView struct {
	Endpoint string `json:"endpoint"`
	Keys     Keys   `json:"keys"`
}

// Redact converts a subscription into its externally visible form.
func Redact(sub Subscription) SubscriptionView {
	return SubscriptionView{
		Endpoint: sub.Endpoint,
		Keys: Keys{
			P256dh: truncate(sub.Keys.P256dh, p256dhVisible),
			Auth:   truncate(sub.Keys.Auth, authVisible),
		},
	}
}

// RedactEndpoint shortens an endpoint for log output.
func RedactEndpoint(endpoint string) string {
	const visible = 50
	runes := []rune(endpoint)
	if len(runes) <= visible {
		return endpoint
	}
	return string(runes[:visible]) + redactMarker
}

// truncate keeps at most n leading runes. Values not longer than n are cut to half
// so the full secret never shows up in a listing.
func truncate(value string, n int) string {
	runes := []rune(value)
	if len(runes) <= n {
		n = len(runes) / 2
	}
	var b strings.Builder
	b.WriteString(string(runes[:n]))
	b.WriteString(redactMarker)
	return b.String()
}
