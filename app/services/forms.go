package services

import (
	"io"
	"reflect"
	"strings"

	"yatube/app/models"

	"github.com/go-playground/validator/v10"
)

// formValidator has the model validator's custom tags but is its own
// instance, reporting fields by their json names so errors line up with
// the submitted form.
var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := models.NewValidator()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ImageUpload is an image file submitted with a post.
type ImageUpload struct {
	Filename string
	Body     io.Reader
}

// PostForm carries the editable fields of a post.
type PostForm struct {
	Text  string       `json:"text" validate:"required"`
	Group string       `json:"group"`
	Image *ImageUpload `json:"-" validate:"-"`
}

// CommentForm carries the text of a new comment.
type CommentForm struct {
	Text string `json:"text" validate:"required"`
}

// SignupForm carries the fields of a new account.
type SignupForm struct {
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Username  string `json:"username" validate:"required,max=150,username"`
	Email     string `json:"email" validate:"omitempty,email,max=254"`
	Password1 string `json:"password1" validate:"required,min=8"`
	Password2 string `json:"password2" validate:"required,eqfield=Password1"`
}

// LoginForm carries login credentials.
type LoginForm struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func validateForm(form interface{}) error {
	if err := formValidator.Struct(form); err != nil {
		return formErrorsFrom(err)
	}
	return nil
}

func (f *PostForm) normalize() {
	f.Text = strings.TrimSpace(f.Text)
	f.Group = strings.TrimSpace(f.Group)
}
