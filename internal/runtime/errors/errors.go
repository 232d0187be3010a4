package errors

import (
	sterrors "errors"
	"fmt"
)

var (
	ErrServiceRequired      = sterrors.New("pulsarflow: router service is required")
	ErrHandlerRequired      = sterrors.New("pulsarflow: handler function is required")
	ErrConsumeQueueRequired = sterrors.New("pulsarflow: consume queue is required")
	ErrHandlerNameRequired  = sterrors.New("pulsarflow: handler name is required")
	ErrPublisherRequired    = sterrors.New("pulsarflow: publisher is required")
	ErrSubscriberRequired   = sterrors.New("pulsarflow: subscriber is required")
	ErrTopicRequired        = sterrors.New("pulsarflow: topic is required")
	ErrConfigRequired       = sterrors.New("pulsarflow: configuration is required")
	ErrLoggerRequired       = sterrors.New("pulsarflow: logger is required")
	ErrPayloadRequired      = sterrors.New("pulsarflow: message payload is required")

	// ErrSubscriptionClosed is returned when the broker closes a subscription
	// while the consumer is still expected to receive.
	ErrSubscriptionClosed = sterrors.New("pulsarflow: subscription closed unexpectedly")
)

// ConfigValidationError marks a configuration that failed validation.
type ConfigValidationError struct {
	Err error
}

func (e ConfigValidationError) Error() string {
	return fmt.Sprintf("pulsarflow: invalid configuration: %v", e.Err)
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
