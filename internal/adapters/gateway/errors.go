package gateway

import "errors"

// Sentinel kinds for gateway errors.
var (
	ErrUnavailable = errors.New("remote store unavailable")
	ErrNotFound    = errors.New("document not found")
)
