package runtime

import "errors"

// UnprocessableMessageError marks a message that can never be handled, such as
// one arriving on a topic the router cannot attribute to a customer. It is not
// retried and goes to the poison queue when one is configured.
type UnprocessableMessageError struct {
	Payload string
	Err     error
}

// NewUnprocessableMessageError wraps err for the given payload.
func NewUnprocessableMessageError(payload []byte, err error) *UnprocessableMessageError {
	return &UnprocessableMessageError{Payload: string(payload), Err: err}
}

func (e *UnprocessableMessageError) Error() string {
	return "unprocessable message: " + e.Payload + " error: " + e.Err.Error()
}

func (e *UnprocessableMessageError) Unwrap() error {
	return e.Err
}

// IsUnprocessable reports whether err carries an UnprocessableMessageError.
func IsUnprocessable(err error) bool {
	var target *UnprocessableMessageError
	return errors.As(err, &target)
}
