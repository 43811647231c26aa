package models

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Spok95/hackathon-portal/internal/apperr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names so messages match what the transport layer received
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks struct tags and returns an apperr Validation error on failure.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return apperr.FromValidator(err)
	}
	return nil
}
