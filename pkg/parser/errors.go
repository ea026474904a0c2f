package parser

import "errors"

var (
	// ErrUnsupportedFormat is returned when the input format is not supported.
	ErrUnsupportedFormat = errors.New("parser: unsupported format")

	// ErrInvalidXES is returned when the XES structure is malformed.
	ErrInvalidXES = errors.New("parser: invalid XES format")

	// ErrMissingTimestamp is returned when an event has no time:timestamp attribute.
	ErrMissingTimestamp = errors.New("parser: event without timestamp")

	// ErrInvalidTimestamp is returned when timestamp parsing fails.
	ErrInvalidTimestamp = errors.New("parser: invalid timestamp format")

	// ErrContextCanceled is returned when the context is canceled.
	ErrContextCanceled = errors.New("parser: context canceled")
)
