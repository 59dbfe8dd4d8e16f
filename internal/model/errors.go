package model

import "errors"

var (
	// ErrSourceUnavailable means the upstream transport failed (timeout, non-success status).
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrMalformedPayload means a reachable source returned a payload of unrecognized shape.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrInsufficientData means the series is too short for the configured window.
	ErrInsufficientData = errors.New("insufficient data")
)

// ErrorKind names the taxonomy bucket of a pair-local error.
type ErrorKind string

const (
	KindSourceUnavailable ErrorKind = "source_unavailable"
	KindMalformedPayload  ErrorKind = "malformed_payload"
	KindInsufficientData  ErrorKind = "insufficient_data"
	KindUnknown           ErrorKind = "unknown"
)

// KindOf maps err onto the error taxonomy.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrSourceUnavailable):
		return KindSourceUnavailable
	case errors.Is(err, ErrMalformedPayload):
		return KindMalformedPayload
	case errors.Is(err, ErrInsufficientData):
		return KindInsufficientData
	default:
		return KindUnknown
	}
}
