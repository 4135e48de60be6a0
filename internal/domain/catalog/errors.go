package catalog

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrNotFound       = errors.New("subject not found")
	ErrInvalidSubject = errors.New("invalid subject")
)
