package errors

import (
	sterrors "errors"
	"fmt"
)

var (
	ErrServiceRequired   = sterrors.New("webui: service is required")
	ErrHandlerRequired   = sterrors.New("webui: handler function is required")
	ErrConfigRequired    = sterrors.New("webui: configuration is required")
	ErrLoggerRequired    = sterrors.New("webui: logger is required")
	ErrPublisherRequired = sterrors.New("webui: publisher is required")
	ErrTopicRequired     = sterrors.New("webui: topic is required")
	ErrEventRequired     = sterrors.New("webui: event payload is required")
	ErrUnknownTransport  = sterrors.New("webui: unknown tap transport")
)

// ConfigValidationError reports one or more invalid configuration values.
type ConfigValidationError struct {
	Err error
}

func (e ConfigValidationError) Error() string {
	return "webui: invalid configuration: " + e.Err.Error()
}

func (e ConfigValidationError) Unwrap() error {
	return e.Err
}

// NewConfigValidationError wraps err, returning nil when err is nil.
func NewConfigValidationError(err error) error {
	if err == nil {
		return nil
	}
	return ConfigValidationError{Err: err}
}

// DecodeError marks an inbound message that could not be turned into an Event.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid event: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
