package errors

import "errors"

// Common application errors for type-safe error handling.
// These errors can be checked using errors.Is() instead of string comparison.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal server error")
)

// Failure kinds of the metadata pipeline. Only ErrNotFound is surfaced to
// callers; the rest are logged and degrade to a partially empty record.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrDecodeFailure     = errors.New("tag container could not be decoded")
	ErrProviderFailure   = errors.New("geocoding provider failure")
	ErrCacheUnavailable  = errors.New("location cache unavailable")
)
