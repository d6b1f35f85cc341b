// Package forms parses and validates raw intake form fields.
package forms

import (
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// emailShapeRegex accepts local@domain.tld: no whitespace, exactly one @
// before the domain, and at least one dot after it.
var emailShapeRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.\S+$`)

var validate = newValidator()

// Input carries the raw fields of one submission attempt. Field limits are
// counted in runes, matching the column widths of the submissions table.
type Input struct {
	Name    string `json:"name" form:"name" validate:"required,max=100"`
	Email   string `json:"email" form:"email" validate:"required,max=100,emailshape"`
	Message string `json:"message" form:"message" validate:"omitempty,max=1000"`
}

// FieldError describes a single rejected field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func newValidator() *validator.Validate {
	v := validator.New()

	// Report errors under the form field name, not the Go field name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("form"); name != "" {
			return name
		}
		return fld.Name
	})

	if err := v.RegisterValidation("emailshape", func(fl validator.FieldLevel) bool {
		return emailShapeRegex.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	return v
}

// FromValues builds an Input from decoded form values.
func FromValues(values url.Values) Input {
	in := Input{
		Name:    values.Get("name"),
		Email:   values.Get("email"),
		Message: values.Get("message"),
	}
	in.Normalize()
	return in
}

// Normalize trims surrounding whitespace from every field. Validation and
// persistence both operate on the normalized values.
func (in *Input) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Message = strings.TrimSpace(in.Message)
}

// Validate applies the field rules and collects every violation, one reason
// per field, in declaration order. A nil result means the input is accepted.
// Validation has no side effects; rejected input is never persisted.
func Validate(in Input) []FieldError {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		// Struct values never produce InvalidValidationError; reject outright
		// rather than panic if that ever changes.
		return []FieldError{{Field: "form", Reason: "invalid form data"}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Reason: reason(fe)})
	}
	return out
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fe.Field() + " must be " + fe.Param() + " characters or fewer"
	case "emailshape":
		return "email must look like name@example.com"
	default:
		return fe.Field() + " is invalid"
	}
}
