package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// New returns a validator that reports fields by their json names.
func New() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return validate
}

// Message turns a validation error into one operator-readable line.
func Message(err error) string {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(vErrs))
	for _, vErr := range vErrs {
		switch vErr.Tag() {
		case "required":
			parts = append(parts, vErr.Field()+" value missing")
		case "min", "gte":
			parts = append(parts, fmt.Sprintf("%s must be at least %s", vErr.Field(), vErr.Param()))
		case "max", "lte":
			parts = append(parts, fmt.Sprintf("%s must be at most %s", vErr.Field(), vErr.Param()))
		case "email":
			parts = append(parts, vErr.Field()+" must be a valid email")
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of %s", vErr.Field(), vErr.Param()))
		default:
			parts = append(parts, vErr.Field()+": "+vErr.Tag())
		}
	}
	return strings.Join(parts, "; ")
}
