package model

import "errors"

// Request validation errors. These are returned before any backend is contacted.
var (
	ErrMissingParameter  = errors.New("missing parameter")
	ErrInvalidDateFormat = errors.New("invalid date format")
	ErrInvalidLogLevel   = errors.New("invalid log level")
)

// ErrUnknownSeverity means a stored level code is outside the known severities.
var ErrUnknownSeverity = errors.New("unknown severity")

// ErrMalformedRecord means a stored row or aggregate could not be decoded.
var ErrMalformedRecord = errors.New("malformed stored record")

// ErrBackendUnavailable wraps any connectivity or query failure of a backend store.
var ErrBackendUnavailable = errors.New("backend unavailable")

// IsValidation reports whether err is a client-side request error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingParameter) ||
		errors.Is(err, ErrInvalidDateFormat) ||
		errors.Is(err, ErrInvalidLogLevel)
}
