package httputil

import (
	"github.com/go-playground/validator/v10"

	"github.com/quoteflow/quoteflow-backend/pkg/errors"
)

var validate = validator.New()

// Validate validates a struct using go-playground/validator
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return errors.BadRequest(err.Error())
		}

		details := make(map[string]string, len(validationErrors))
		for _, e := range validationErrors {
			details[e.Field()] = formatValidationError(e)
		}
		return errors.Validation(details)
	}
	return nil
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + e.Param()
	case "alphanum":
		return "must be alphanumeric"
	default:
		return "invalid value"
	}
}
