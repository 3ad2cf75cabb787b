package domain

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	if err := validate.RegisterValidation("uuidshape", validateUUIDShape); err != nil {
		panic(fmt.Sprintf("failed to register uuidshape validator: %v", err))
	}
}

func validateUUIDShape(fl validator.FieldLevel) bool {
	return IsUUIDShape(fl.Field().String())
}

// IsUUIDShape reports whether s looks like a UUID: 32 or 36 characters made
// of hex digits and hyphens only. Hyphen positions are not checked.
func IsUUIDShape(s string) bool {
	if len(s) != 32 && len(s) != 36 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F', c == '-':
		default:
			return false
		}
	}
	return true
}

// Validate checks the invariants a proxy must hold before it can be added to
// an aggregate: non-empty server, port in 1..65535 and the protocol specific
// credential rules.
func (p Proxy) Validate() error {
	if p.Payload == nil {
		return errors.New("proxy has no protocol payload")
	}
	if err := validate.Struct(p); err != nil {
		return formatValidationErrors(err)
	}
	if err := validate.Struct(p.Payload); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("proxy validation failed: %w", err)
	}
	errMsgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		errMsgs = append(errMsgs, fmt.Sprintf(
			"field '%s' failed validation: %s",
			fe.Field(),
			fe.Tag(),
		))
	}
	return fmt.Errorf("validation errors: %v", errMsgs)
}
