// Package validator wraps go-playground/validator and reports failures by
// their wire names.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator checks request structs against their validate tags.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator whose errors carry json (or form) field names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(wireName)
	return &Validator{v: v}
}

// Struct validates s based on its validation tags.
func (val *Validator) Struct(s any) error {
	return val.v.Struct(s)
}

// FieldErrors flattens validation failures into field -> rule pairs for an
// error response. Returns nil for other errors.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule = fmt.Sprintf("%s=%s", rule, fe.Param())
		}
		out[fe.Field()] = rule
	}
	return out
}

func wireName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		default:
			return name
		}
	}
	return f.Name
}
