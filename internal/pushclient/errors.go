package pushclient

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is a non-2xx answer from a push service.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("push service returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("push service returned %d: %s", e.StatusCode, e.Message)
}

// Gone reports whether the push service declared the subscription dead.
func (e *StatusError) Gone() bool {
	return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone
}

// IsStatus returns true if err (or any wrapped error) is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == code
	}
	return false
}
