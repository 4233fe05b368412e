// Package registry keeps the set of push subscriptions in process memory.
package registry

import (
	"strings"
	"sync"

	"github.com/bark-labs/push-relay/internal/model"
)

// Registry is an in-memory, insertion-ordered set of subscriptions keyed by endpoint.
// It is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	subs []model.Subscription
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{}
}

// Add stores sub. A subscription already registered for the same endpoint is
// replaced and the new record moves to the end of the order.
func (r *Registry) Add(sub model.Subscription) error {
	if strings.TrimSpace(sub.Endpoint) == "" {
		return &ValidationError{Field: "endpoint", Message: "subscription object is missing or invalid"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(sub.Endpoint)
	r.subs = append(r.subs, sub)
	return nil
}

// FindByEndpoint returns the subscription registered for endpoint.
func (r *Registry) FindByEndpoint(endpoint string) (model.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexLocked(endpoint); i >= 0 {
		return r.subs[i], nil
	}
	return model.Subscription{}, ErrNotFound
}

// List returns a copy of all subscriptions in insertion order.
func (r *Registry) List() []model.Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Subscription, len(r.subs))
	copy(out, r.subs)
	return out
}

// Views returns the redacted form of every subscription.
func (r *Registry) Views() []model.SubscriptionView {
	subs := r.List()
	views := make([]model.SubscriptionView, 0, len(subs))
	for _, sub := range subs {
		views = append(views, model.Redact(sub))
	}
	return views
}

// Remove deletes the subscription for endpoint and reports whether one existed.
func (r *Registry) Remove(endpoint string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(endpoint)
}

// RemoveAll deletes every listed endpoint and returns how many were present.
func (r *Registry) RemoveAll(endpoints []string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for _, endpoint := range endpoints {
		if r.removeLocked(endpoint) {
			removed++
		}
	}
	return removed
}

// Count returns the number of registered subscriptions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

func (r *Registry) indexLocked(endpoint string) int {
	for i := range r.subs {
		if r.subs[i].Endpoint == endpoint {
			return i
		}
	}
	return -1
}

func (r *Registry) removeLocked(endpoint string) bool {
	i := r.indexLocked(endpoint)
	if i < 0 {
		return false
	}
	r.subs = append(r.subs[:i], r.subs[i+1:]...)
	return true
}
