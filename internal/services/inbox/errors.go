package inbox

import (
	"errors"
	"fmt"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrInvalidInput    = errors.New("invalid input")
)

// NotFoundError reports a missing inbox message
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("message %s not found", e.ID)
}

func (e NotFoundError) Is(target error) bool {
	return target == ErrMessageNotFound
}

// ValidationError carries the operator-facing message for a rejected submission
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

func (e ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}
