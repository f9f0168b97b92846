// Package validator provides a thin wrapper around the go-playground/validator
// library, enabling declarative struct validation with standardized error
// formatting. Struct fields are validated via tags (e.g. `validate:"required"`);
// the package is initialized automatically and safe to use directly.
package validator

import (
	"errors"
	"fmt"

	gvalidator "github.com/go-playground/validator/v10"
)

// ErrValidationFailed is returned as the first error in a multi-error chain
// when validation fails, so callers can detect validation failures explicitly
// even when multiple field errors are returned.
var ErrValidationFailed = errors.New("struct validation failed")

// validator is a singleton instance of the go-playground validator,
// initialized automatically on package load.
var validator *gvalidator.Validate

// errStringFormat describes an individual validation error.
//
// Example: "'Account': value '' does not satisfy the 'required' rule"
const errStringFormat = "'%s': value '%v' does not satisfy the '%s' rule"

func init() {
	validator = gvalidator.New(gvalidator.WithRequiredStructEnabled())
}

// formatError transforms a raw validator error into a multi-error chain rooted
// at ErrValidationFailed, one formatted message per failing field. Errors that
// are not validation errors pass through unchanged.
func formatError(err error) error {
	var validationErrors gvalidator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	errs := []error{ErrValidationFailed}
	for _, validationErr := range validationErrors {
		err := fmt.Errorf(errStringFormat,
			validationErr.Field(),
			validationErr.Value(),
			validationErr.Tag(),
		)

		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Validate checks whether the given struct satisfies its validation tags.
// It returns nil if all fields pass, or a combined error that includes
// ErrValidationFailed and one message per failing field.
func Validate(v any) error {
	if err := validator.Struct(v); err != nil {
		return formatError(err)
	}

	return nil
}
