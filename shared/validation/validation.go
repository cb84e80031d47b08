// Package validation wraps go-playground/validator with English error
// messages keyed by the JSON field names of the request payloads.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

const alphaSpaceTag = "alphaspace"

var alphaSpaceRegex = regexp.MustCompile(`^[a-zA-Z ]*$`)

// Validator validates request payloads.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// Error lists the translated message of every failed field.
type Error struct {
	Fields   map[string]string
	messages []string
}

func (e *Error) Error() string {
	return strings.Join(e.messages, "; ")
}

// New creates a new Validator with the default English translations and the
// alphaspace tag registered.
func New() (*Validator, error) {
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := entranslations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, err
	}

	if err := v.RegisterValidation(alphaSpaceTag, func(fl validator.FieldLevel) bool {
		return alphaSpaceRegex.MatchString(fl.Field().String())
	}); err != nil {
		return nil, err
	}

	if err := v.RegisterTranslation(alphaSpaceTag, trans,
		func(t ut.Translator) error {
			return t.Add(alphaSpaceTag, "{0} may only contain letters and spaces", true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(alphaSpaceTag, fe.Field())
			return msg
		},
	); err != nil {
		return nil, err
	}

	return &Validator{validate: v, trans: trans}, nil
}

// Struct validates s and returns an *Error describing every invalid field.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := &Error{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		msg := fe.Translate(v.trans)
		out.Fields[fe.Field()] = msg
		out.messages = append(out.messages, msg)
	}

	return out
}
