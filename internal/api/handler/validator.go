package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/99minutos/backoffice-api/internal/core/domain"
)

// requestValidator plugs go-playground/validator into echo.Echo.Validator.
// Failures name fields by their json key so messages match the payload.
type requestValidator struct {
	validate *validator.Validate
}

func NewValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{validate: v}
}

func (rv *requestValidator) Validate(i any) error {
	err := rv.validate.Struct(i)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		msgs[i] = describe(fe)
	}
	return errors.New(strings.Join(msgs, "; "))
}

// tagMessages maps a validation tag to its message. A second %s receives the
// tag parameter.
var tagMessages = map[string]string{
	"required": "%s is required",
	"email":    "%s must be a valid email",
	"min":      "%s must be at least %s characters",
	"max":      "%s must be at most %s characters",
	"oneof":    "%s must be one of: %s",
}

func describe(fe validator.FieldError) string {
	format, ok := tagMessages[fe.Tag()]
	switch {
	case !ok:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	case strings.Count(format, "%s") == 2:
		return fmt.Sprintf(format, fe.Field(), fe.Param())
	default:
		return fmt.Sprintf(format, fe.Field())
	}
}

func invalidInput(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, msg)
}
