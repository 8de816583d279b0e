package magic

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is the error every ConfigError unwraps to.
var ErrInvalidArgument = errors.New("invalid argument")

// ConfigError reports a matcher that cannot be constructed.
type ConfigError struct {
	// Field names the offending constructor argument: media_type, pattern,
	// mask or offset.
	Field string

	// Message is the human-readable description.
	Message string
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("magic: %s", e.Message)
}

// Unwrap returns ErrInvalidArgument.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidArgument
}

func newConfigError(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// StreamError wraps a read failure of the underlying stream during
// detection. It is never used for "no match".
type StreamError struct {
	// Offset is the stream position at which the failing operation started.
	Offset int64
	Err    error
}

// Error implements the error interface
func (e *StreamError) Error() string {
	return fmt.Sprintf("magic: reading stream at offset %d: %v", e.Offset, e.Err)
}

// Unwrap returns the underlying stream error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// IsConfigError checks if an error is a ConfigError
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsStreamError checks if an error is a StreamError
func IsStreamError(err error) bool {
	var streamErr *StreamError
	return errors.As(err, &streamErr)
}
