package errors

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	ErrVerification = New(ErrCodeVerification, "webhook verification failed")
	ErrValidation   = New(ErrCodeValidation, "validation error")
	ErrHTTPClient   = New(ErrCodeHTTPClient, "http client error")
	ErrSystem       = New(ErrCodeSystemError, "system error")

	// maps errors to http status codes
	statusCodeMap = map[error]int{
		ErrVerification: http.StatusBadRequest,
		ErrValidation:   http.StatusBadRequest,
		ErrHTTPClient:   http.StatusInternalServerError,
		ErrSystem:       http.StatusInternalServerError,
	}
)

const (
	ErrCodeVerification = "verification_error"
	ErrCodeValidation   = "validation_error"
	ErrCodeHTTPClient   = "http_client_error"
	ErrCodeSystemError  = "system_error"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is matches on code so that wrapped sentinels compare equal
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

// New creates a new InternalError
func New(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsVerification checks if an error is a webhook verification error
func IsVerification(err error) bool {
	return errors.Is(err, ErrVerification)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsHTTPClient checks if an error is an http client error
func IsHTTPClient(err error) bool {
	return errors.Is(err, ErrHTTPClient)
}

func HTTPStatusFromErr(err error) int {
	for e, status := range statusCodeMap {
		if errors.Is(err, e) {
			return status
		}
	}
	return http.StatusInternalServerError
}

// DisplayMessage returns the first non-empty hint attached to err, falling
// back to a generic message
func DisplayMessage(err error) string {
	// GetAllHints is a post-order traversal
	for _, hint := range errors.GetAllHints(err) {
		if hint = strings.TrimSpace(hint); hint != "" {
			return hint
		}
	}
	return "An unexpected error occurred"
}
