package service

import "errors"

var (
	// ErrFetchFailed wraps any failure to download a remote playlist.
	ErrFetchFailed = errors.New("playlist fetch failed")
	// ErrInvalidCode is returned by Login when no account matches the code.
	ErrInvalidCode = errors.New("invalid activation code")
	// ErrInvalid wraps input validation failures.
	ErrInvalid = errors.New("invalid input")
	// ErrNotFound is returned when a catalog entry does not exist.
	ErrNotFound = errors.New("not found")
)
