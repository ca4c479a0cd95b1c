package checks

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCategory normalizes provider failures into a small taxonomy so the
// runner can log and count them uniformly.
type ErrorCategory string

const (
	// ErrorTimeout indicates the provider took too long to respond.
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorBadData indicates the provider returned invalid or malformed output.
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorDataUnavailable indicates the provider's reference data could not be read.
	ErrorDataUnavailable ErrorCategory = "data_unavailable"

	// ErrorProviderOutage indicates the provider is unreachable.
	ErrorProviderOutage ErrorCategory = "provider_outage"

	// ErrorInternal indicates an unexpected internal error (including panics).
	ErrorInternal ErrorCategory = "internal"
)

// ProviderError wraps a check failure with its normalized category. The runner
// never surfaces these to callers; they only select the fallback path.
type ProviderError struct {
	Category   ErrorCategory
	CheckName  string
	Message    string
	Underlying error
}

func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("check %s [%s]: %s: %v", e.CheckName, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("check %s [%s]: %s", e.CheckName, e.Category, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// NewProviderError creates a categorized provider error.
func NewProviderError(category ErrorCategory, checkName, message string, underlying error) *ProviderError {
	return &ProviderError{
		Category:   category,
		CheckName:  checkName,
		Message:    message,
		Underlying: underlying,
	}
}

// Category extracts the error category, defaulting to internal.
func Category(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	return ErrorInternal
}
