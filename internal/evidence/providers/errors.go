package providers

import (
	"errors"
	"fmt"

	dErrors "trustlessid/pkg/domain-errors"
)

// ErrorCategory is the normalized failure taxonomy for stub providers.
type ErrorCategory string

const (
	// ErrorTimeout indicates the provider took too long to respond
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorBadData indicates the provider returned invalid or malformed data
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorRejected indicates the provider answered with success=false
	ErrorRejected ErrorCategory = "rejected"

	// ErrorProviderOutage indicates the provider is unavailable
	ErrorProviderOutage ErrorCategory = "provider_outage"

	// ErrorAuthentication indicates the call was not authorized
	ErrorAuthentication ErrorCategory = "authentication"

	// ErrorInternal indicates an unexpected internal error
	ErrorInternal ErrorCategory = "internal"
)

// ProviderError wraps provider failures with a normalized category.
type ProviderError struct {
	Category   ErrorCategory
	ProviderID string
	Message    string
	Underlying error
}

func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s [%s]: %s: %v", e.ProviderID, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s [%s]: %s", e.ProviderID, e.Category, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// NewProviderError creates a normalized provider error.
func NewProviderError(category ErrorCategory, providerID, message string, underlying error) *ProviderError {
	return &ProviderError{
		Category:   category,
		ProviderID: providerID,
		Message:    message,
		Underlying: underlying,
	}
}

// GetCategory extracts the error category, defaulting to internal.
func GetCategory(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorInternal
}

// Message returns the provider's client-facing message, or fallback when
// err is not a ProviderError.
func Message(err error, fallback string) string {
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	return fallback
}

// ToDomainError translates a provider failure into a coded error carrying msg.
// Errors that are already coded pass through unchanged.
func ToDomainError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch GetCategory(err) {
	case ErrorTimeout:
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	case ErrorAuthentication:
		return dErrors.Wrap(err, dErrors.CodeUnauthorized, msg)
	case ErrorProviderOutage, ErrorRejected, ErrorBadData:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
