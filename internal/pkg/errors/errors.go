package errors

import "errors"

var (
	// ErrNotFound is the sentinel for chart, version or container ids that do not resolve.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is the sentinel for malformed or rejected input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrIntegrity is the sentinel for updates that touched an unexpected number of rows.
	ErrIntegrity = errors.New("integrity violation")
)
