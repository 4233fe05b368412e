package delivery

import (
	"errors"
	"fmt"
)

var (
	// ErrNoTargets is returned before any attempt when there is nobody to deliver to.
	ErrNoTargets = errors.New("no subscriptions found")
	// ErrGone marks a subscription the push service reported as permanently invalid.
	ErrGone = errors.New("subscription has expired or is no longer valid")
)

// Error is a delivery failure other than a gone subscription.
type Error struct {
	Endpoint string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("deliver to %s: %v", e.Endpoint, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// goneError keeps the push service's answer while matching ErrGone.
type goneError struct {
	endpoint string
	cause    error
}

func (e *goneError) Error() string {
	return fmt.Sprintf("deliver to %s: %v", e.endpoint, ErrGone)
}

func (e *goneError) Is(target error) bool {
	return target == ErrGone
}

func (e *goneError) Unwrap() error {
	return e.cause
}

// isGone looks for an error reporting Gone() == true anywhere in the chain.
func isGone(err error) bool {
	var g interface{ Gone() bool }
	return errors.As(err, &g) && g.Gone()
}
