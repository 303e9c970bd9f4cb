package logger

import "errors"

var (
	// ErrInvalidLevel is returned when an unknown logging level is configured.
	ErrInvalidLevel = errors.New("invalid logging level")
	// ErrInvalidEncoding is returned when an unknown log encoding is configured.
	ErrInvalidEncoding = errors.New("invalid log encoding format")
)
