package query

import (
	"errors"

	"github.com/tinytelemetry/logway/internal/model"
)

// Client-facing messages for request errors.
const (
	MsgMissingWindow = "Must specify min and max in query string."
	MsgInvalidDate   = "Min and max must be ISO 8601 date strings"
	MsgInvalidLevel  = "Must specify logtype as (fatal, error, warn, info, debug, trace)"
	MsgUnavailable   = "Backend unavailable"
)

// IsBadRequest reports whether err was caused by the request rather than a store.
func IsBadRequest(err error) bool {
	return model.IsValidation(err) || errors.Is(err, ErrUnknownBackend)
}

// Message maps err to the text returned to clients. Unknown severities keep
// their diagnostic; backend failure details stay in the server log.
func Message(err error) string {
	switch {
	case errors.Is(err, model.ErrMissingParameter):
		return MsgMissingWindow
	case errors.Is(err, model.ErrInvalidDateFormat):
		return MsgInvalidDate
	case errors.Is(err, model.ErrInvalidLogLevel):
		return MsgInvalidLevel
	case errors.Is(err, model.ErrBackendUnavailable):
		return MsgUnavailable
	default:
		return err.Error()
	}
}
