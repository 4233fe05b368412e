package registry

import "errors"

// ErrNotFound indicates no subscription is registered for the endpoint.
var ErrNotFound = errors.New("subscription not found")

// ValidationError reports a malformed subscription.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
