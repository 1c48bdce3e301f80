package orders

import "errors"

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrOrderNotFound     = errors.New("order not found")
)

// ValidationError marks bad input shape (empty items, non-positive total,
// unrecognized status). Handlers map it to a 4xx response.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validation builds a ValidationError with the given message.
func Validation(msg string) error {
	return &ValidationError{Msg: msg}
}
