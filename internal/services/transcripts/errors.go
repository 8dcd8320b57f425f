package transcripts

import (
	"errors"
	"fmt"
)

var (
	ErrNodeNotFound    = errors.New("transcript node not found")
	ErrEpisodeNotFound = errors.New("episode not found")
	ErrInvalidField    = errors.New("field cannot be updated")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyTranscript = errors.New("transcript has no segments")
)

// ValidationError carries the operator-facing message for a rejected edit
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

func invalidField(field string) error {
	return fmt.Errorf("%w: %s", ErrInvalidField, field)
}
