package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// validate is shared by every service entry point. Decimal fields are
// validated as their string form through the money and positive tags.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	// money: non-negative with at most two decimal places, the NUMERIC(12,2) columns
	_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		if err != nil || d.IsNegative() {
			return false
		}
		return d.Equal(d.Round(2))
	})
	_ = v.RegisterValidation("positive", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.IsPositive()
	})
	return v
}

// validateStruct runs the struct's validate tags and reports failures as
// ErrValidation.
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return validationError("%v", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe.Field(), fe))
	}
	return validationError("%s", strings.Join(msgs, "; "))
}

func validateID(name string, id int32) error {
	if err := validate.Var(id, "gt=0"); err != nil {
		return validationError("%s must be positive", name)
	}
	return nil
}

func describeFieldError(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "oneof":
		return field + " must be one of [" + fe.Param() + "]"
	case "gt":
		return field + " must be greater than " + fe.Param()
	case "min":
		if fe.Param() == "1" {
			return field + " must not be empty"
		}
		return field + " must be at least " + fe.Param() + " characters"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	case "datetime":
		return field + " must be a date in YYYY-MM-DD format"
	case "positive":
		return field + " must be greater than zero"
	case "money":
		return field + " must be a non-negative amount with at most two decimal places"
	default:
		return field + " failed " + fe.Tag() + " validation"
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
