package pipeline

import (
	"errors"

	"github.com/ppiankov/candidstance/internal/llm"
)

// IsInputError reports errors caused by the caller's input rather than a collaborator
func IsInputError(err error) bool {
	return errors.Is(err, ErrMissingName) || errors.Is(err, llm.ErrInvalidCandidate)
}
