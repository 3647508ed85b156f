package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/room-reservation/internal/service"
)

// RequestValidator adapts validator/v10 to echo.Validator.  A failed
// "required" rule becomes service.ErrMissingField; any other rule becomes
// service.ErrValidation.
type RequestValidator struct {
	v *validator.Validate
}

// NewValidator returns a validator that reports JSON field names.
func NewValidator() *RequestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &RequestValidator{v: v}
}

func (rv *RequestValidator) Validate(i any) error {
	err := rv.v.Struct(i)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return fmt.Errorf("%w: %v", service.ErrValidation, err)
	}
	kind := service.ErrValidation
	msgs := make([]string, 0, len(fields))
	for _, fe := range fields {
		if fe.Tag() == "required" {
			kind = service.ErrMissingField
			msgs = append(msgs, fe.Field()+" is required")
		} else {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		}
	}
	return fmt.Errorf("%w: %s", kind, strings.Join(msgs, "; "))
}
