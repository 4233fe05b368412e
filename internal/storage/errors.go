package storage

import "errors"

// ErrNotFound indicates the requested record (key pair, log entry) is not stored.
var ErrNotFound = errors.New("record not found")
