package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPrompt         = errors.New("prompt is empty")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrGenerationBusy      = errors.New("a generation is already in flight")
)

// ErrorCategory is the coarse user-facing classification of a
// generation failure. Classification from raw provider text is a
// best-effort keyword heuristic, not a contract.
type ErrorCategory string

const (
	CategoryContentPolicy ErrorCategory = "content_policy"
	CategoryQuota         ErrorCategory = "quota"
	CategoryInvalid       ErrorCategory = "invalid"
	CategoryTimeout       ErrorCategory = "timeout"
	CategoryTransport     ErrorCategory = "transport"
	CategoryUnexpected    ErrorCategory = "unexpected"
	CategoryOther         ErrorCategory = "other"
)

// GenerationError carries the classification a failed generation
// surfaces to clients, alongside the underlying cause.
type GenerationError struct {
	Category ErrorCategory
	Status   int    // HTTP status from the provider, 0 when not applicable
	Detail   string // raw provider detail, never shown unmodified
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("generation failed (%s): %s", e.Category, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("generation failed (%s): %v", e.Category, e.Err)
	}
	return fmt.Sprintf("generation failed (%s)", e.Category)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// NewGenerationError builds a categorized failure.
func NewGenerationError(cat ErrorCategory, detail string, err error) *GenerationError {
	return &GenerationError{Category: cat, Detail: detail, Err: err}
}
