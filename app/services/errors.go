package services

import (
	"errors"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrForbidden          = errors.New("not allowed")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrFollowSelf         = errors.New("cannot follow self")
)

// FormErrors maps a form field to its validation messages.
// The empty field name holds errors that concern the whole form.
type FormErrors map[string][]string

func (e FormErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e FormErrors) Has(field string) bool {
	return len(e[field]) > 0
}

func (e FormErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		label := f
		if label == "" {
			label = "form"
		}
		parts = append(parts, label+": "+strings.Join(e[f], " "))
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// formErrorsFrom converts validator output into per-field messages keyed by
// the json name of each field.
func formErrorsFrom(err error) FormErrors {
	fe := FormErrors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fe.Add("", err.Error())
		return fe
	}
	for _, v := range verrs {
		fe.Add(v.Field(), messageFor(v))
	}
	return fe
}

func messageFor(v validator.FieldError) string {
	switch v.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return "Ensure this value has at least " + v.Param() + " characters."
	case "max":
		return "Ensure this value has at most " + v.Param() + " characters."
	case "eqfield":
		return "The two password fields didn't match."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	case "slug":
		return "Enter a valid slug consisting of letters, numbers, underscores or hyphens."
	default:
		return "Enter a valid value."
	}
}
