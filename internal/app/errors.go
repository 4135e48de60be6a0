package app

import "errors"

// Sentinel kinds for session controller errors. Remote failures are always
// wrapped in one of the first two so callers can map them uniformly.
var (
	ErrRemoteRead    = errors.New("remote read failed")
	ErrRemoteWrite   = errors.New("remote write failed")
	ErrEmptyNickname = errors.New("nickname must not be empty")
	ErrNoSession     = errors.New("no user is logged in")
	ErrNotStarted    = errors.New("service not started")
)
