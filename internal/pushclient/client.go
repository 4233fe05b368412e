// Package pushclient sends signed, encrypted Web Push messages to push services.
package pushclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/bark-labs/push-relay/internal/model"
)

// KeySource hands out the VAPID identity used to sign requests.
type KeySource interface {
	KeyPair() (model.KeyPair, error)
}

// Options tune every outgoing message.
type Options struct {
	// Subject is the VAPID contact, a mailto: or https: URI.
	Subject string
	// TTL in seconds the push service keeps an undelivered message.
	TTL     int
	Urgency string
	// HTTPClient overrides the transport; tests point it at httptest servers.
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client is a thin wrapper over webpush-go.
type Client struct {
	keys    KeySource
	subject string
	ttl     int
	urgency webpush.Urgency
	http    *http.Client
}

// New creates a push client signing with keys.
func New(keys KeySource, opts Options) (*Client, error) {
	if keys == nil {
		return nil, fmt.Errorf("key source is required")
	}
	subject := strings.TrimSpace(opts.Subject)
	if subject == "" {
		return nil, fmt.Errorf("vapid subject is required")
	}
	urgency, err := parseUrgency(opts.Urgency)
	if err != nil {
		return nil, err
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		keys:    keys,
		subject: subject,
		ttl:     opts.TTL,
		urgency: urgency,
		http:    httpClient,
	}, nil
}

// Send encrypts body for sub and posts it to the subscription endpoint. Any non-2xx
// answer comes back as a *StatusError.
func (c *Client) Send(ctx context.Context, sub model.Subscription, body []byte) error {
	keys, err := c.keys.KeyPair()
	if err != nil {
		return err
	}
	target := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}
	resp, err := webpush.SendNotificationWithContext(ctx, body, target, &webpush.Options{
		HTTPClient:      c.http,
		Subscriber:      c.subscriber(),
		TTL:             c.ttl,
		Urgency:         c.urgency,
		VAPIDPublicKey:  keys.PublicKey,
		VAPIDPrivateKey: keys.PrivateKey,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(detail)),
	}
}

// subscriber strips the mailto: scheme; webpush-go adds it back for plain addresses.
func (c *Client) subscriber() string {
	return strings.TrimPrefix(c.subject, "mailto:")
}

func parseUrgency(raw string) (webpush.Urgency, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "normal":
		return webpush.UrgencyNormal, nil
	case "very-low":
		return webpush.UrgencyVeryLow, nil
	case "low":
		return webpush.UrgencyLow, nil
	case "high":
		return webpush.UrgencyHigh, nil
	default:
		return "", fmt.Errorf("unknown urgency %q", raw)
	}
}
