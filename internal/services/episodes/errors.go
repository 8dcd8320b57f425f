package episodes

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrEpisodeNotFound  = errors.New("episode not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidField     = errors.New("field cannot be updated")
	ErrAlreadyPublished = errors.New("episode is already published")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s with identifier %s not found", e.Resource, e.ID)
}

func (e NotFoundError) Is(target error) bool {
	return target == ErrEpisodeNotFound
}

// ValidationError carries the operator-facing message for a rejected field
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

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) error {
	return NotFoundError{Resource: resource, ID: id}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return ValidationError{Field: field, Message: message}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return err != nil && errors.Is(err, ErrEpisodeNotFound)
}
