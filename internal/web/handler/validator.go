package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	// ErrorResponse represents one failed field validation.
	ErrorResponse struct {
		FailedField string `json:"field"`
		Tag         string `json:"tag"`
		Value       any    `json:"value,omitempty"`
	}

	// ValidationError is returned when a request body is malformed or fails validation.
	ValidationError struct {
		Message string
		Fields  []ErrorResponse
	}

	// XValidator validates request bodies.
	XValidator struct {
		validator *validator.Validate
	}
)

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}

	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = "field '" + f.FailedField + "' failed validation tag '" + f.Tag + "'"
	}

	return e.Message + ": " + strings.Join(parts, ", ")
}

// NewValidator creates a validator reporting json field names.
func NewValidator() XValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return XValidator{validator: v}
}

// Validate returns the failed fields of data, if any.
func (v XValidator) Validate(data any) []ErrorResponse {
	var validationErrors validator.ValidationErrors

	if err := v.validator.Struct(data); !errors.As(err, &validationErrors) {
		return nil
	}

	out := make([]ErrorResponse, 0, len(validationErrors))

	for _, err := range validationErrors {
		out = append(out, ErrorResponse{
			FailedField: err.Field(),
			Tag:         err.Tag(),
			Value:       err.Value(),
		})
	}

	return out
}

// Bind parses the request body into out and validates it.
func (v XValidator) Bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return &ValidationError{Message: "invalid request body"}
	}

	if fields := v.Validate(out); len(fields) > 0 {
		return &ValidationError{Message: "validation failed", Fields: fields}
	}

	return nil
}
