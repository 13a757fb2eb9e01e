// Package validation checks service input with struct tags and reports
// per-field messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/R3E-Network/bizhub/internal/app/result"
)

// FailureMessage is the summary message of every validation failure.
const FailureMessage = "Os dados informados são inválidos."

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.ToLower(field.Name)
		}
		return name
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || slugPattern.MatchString(s)
	})
	return v
}

// Struct validates s. It returns nil when s is valid and a map keyed by
// the JSON field name otherwise. A non-nil error means s is not a struct.
func Struct(s any) (map[string]string, error) {
	err := validate.Struct(s)
	if err == nil {
		return nil, nil
	}
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return nil, err
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return nil, err
	}
	out := make(map[string]string, len(fields))
	for _, fe := range fields {
		if _, seen := out[fe.Field()]; !seen {
			out[fe.Field()] = Message(fe)
		}
	}
	return out, nil
}

// Check validates s and returns the failure result to hand back when it
// is invalid.
func Check(s any, opts ...result.Option) (result.Result, bool) {
	errs, err := Struct(s)
	if err != nil {
		return result.Failure(fmt.Sprintf("validation: %v", err), opts...), false
	}
	if len(errs) > 0 {
		return result.Validation(FailureMessage, errs, opts...), false
	}
	return result.Result{}, true
}

// Message renders a field error in Portuguese.
func Message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "required_without":
		return fmt.Sprintf("O campo %s é obrigatório.", field)
	case "email":
		return fmt.Sprintf("O campo %s deve ser um endereço de e-mail válido.", field)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("O campo %s não pode ter mais de %s caracteres.", field, fe.Param())
		}
		return fmt.Sprintf("O campo %s não pode ser maior que %s.", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("O campo %s deve ter pelo menos %s caracteres.", field, fe.Param())
		}
		return fmt.Sprintf("O campo %s deve ser pelo menos %s.", field, fe.Param())
	case "gt":
		return fmt.Sprintf("O campo %s deve ser maior que %s.", field, fe.Param())
	case "gte":
		return fmt.Sprintf("O campo %s deve ser maior ou igual a %s.", field, fe.Param())
	case "len":
		return fmt.Sprintf("O campo %s deve ter %s caracteres.", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("O campo %s deve ser um dos valores: %s.", field, fe.Param())
	case "numeric":
		return fmt.Sprintf("O campo %s deve conter apenas números.", field)
	case "slug":
		return fmt.Sprintf("O campo %s deve conter apenas letras minúsculas, números e hífens.", field)
	default:
		return fmt.Sprintf("O campo %s é inválido.", field)
	}
}
