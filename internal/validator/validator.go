package validator

import (
	"sync"

	ierr "github.com/flexprice/payment-notifier/internal/errors"
	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// GetValidator returns the shared validator instance
func GetValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
	})
	return validate
}

// ValidateStruct checks the `validate` tags of v. Field failures are
// attached as reportable details keyed by field namespace.
func ValidateStruct(v interface{}, hint string) error {
	if err := GetValidator().Struct(v); err != nil {
		details := make(map[string]any)
		var validateErrs validator.ValidationErrors
		if ierr.As(err, &validateErrs) {
			for _, err := range validateErrs {
				details[err.Namespace()] = err.Tag()
			}
		}
		return ierr.WithError(err).
			WithHint(hint).
			WithReportableDetails(details).
			Mark(ierr.ErrValidation)
	}
	return nil
}
