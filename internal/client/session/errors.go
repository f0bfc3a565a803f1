package session

import "errors"

var (
	// ErrNoRefreshToken is returned by Refresh when no refresh token is stored.
	ErrNoRefreshToken = errors.New("no refresh token available")
	// ErrSessionEnded is returned when a refresh completes after the session
	// it belonged to was logged out or replaced.
	ErrSessionEnded = errors.New("session ended during refresh")
)
