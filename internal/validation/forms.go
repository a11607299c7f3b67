package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"yatube/internal/models"

	"github.com/go-playground/validator/v10"
)

// NonFieldErrors is the key for errors that belong to the whole form.
const NonFieldErrors = "__all__"

const choiceMessage = "Выберите корректный вариант. Вашего варианта нет среди допустимых значений."

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Обязательное поле."
	case "max":
		return fmt.Sprintf("Убедитесь, что это значение содержит не более %s символов.", fe.Param())
	case "number", "numeric":
		return choiceMessage
	case "eqfield":
		return "Введенные пароли не совпадают."
	default:
		return "Введите правильное значение."
	}
}

// check runs the struct tags and returns the first message per field.
func check(form interface{}) map[string]string {
	errs := map[string]string{}
	err := validate.Struct(form)
	if err == nil {
		return errs
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs[NonFieldErrors] = err.Error()
		return errs
	}
	for _, fe := range verrs {
		if _, seen := errs[fe.Field()]; !seen {
			errs[fe.Field()] = message(fe)
		}
	}
	return errs
}

func result(errs map[string]string) error {
	if len(errs) == 0 {
		return nil
	}
	return models.NewFieldValidationError(errs)
}

// PostForm is submitted by the create and edit pages.
type PostForm struct {
	Text  string `form:"text" validate:"required"`
	Group string `form:"group" validate:"omitempty,number"`

	groupID *uint
}

// Validate trims the input and checks it. Whitespace-only text counts as empty.
// A group value must name a positive id that fits a primary key.
func (f *PostForm) Validate() error {
	f.Text = strings.TrimSpace(f.Text)
	f.Group = strings.TrimSpace(f.Group)
	f.groupID = nil

	errs := check(f)
	if _, failed := errs["group"]; !failed && f.Group != "" {
		id, err := strconv.ParseUint(f.Group, 10, 32)
		if err != nil || id == 0 {
			errs["group"] = choiceMessage
		} else {
			gid := uint(id)
			f.groupID = &gid
		}
	}
	return result(errs)
}

// GroupID returns the chosen group, or nil when none was picked.
// Only meaningful after Validate succeeded.
func (f *PostForm) GroupID() *uint {
	return f.groupID
}

// CommentForm is submitted from the post detail page.
type CommentForm struct {
	Text string `form:"text" validate:"required"`
}

// Validate trims the input and checks it.
func (f *CommentForm) Validate() error {
	f.Text = strings.TrimSpace(f.Text)
	return result(check(f))
}

// SignupForm is submitted by the registration page.
type SignupForm struct {
	FirstName string `form:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" validate:"max=150"`
	Username  string `form:"username" validate:"required"`
	Email     string `form:"email" validate:"required"`
	Password1 string `form:"password1" validate:"required"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`
}

// Validate checks the tags first, then the account rules for fields that passed.
func (f *SignupForm) Validate() error {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))

	errs := check(f)
	rules := []struct {
		field string
		fn    func() error
	}{
		{"username", func() error { return ValidateUsername(f.Username) }},
		{"email", func() error { return ValidateEmail(f.Email) }},
		{"password1", func() error { return ValidatePassword(f.Password1, f.Username) }},
	}
	for _, rule := range rules {
		if _, failed := errs[rule.field]; failed {
			continue
		}
		if err := rule.fn(); err != nil {
			errs[rule.field] = err.Error()
		}
	}
	return result(errs)
}

// LoginForm is submitted by the login page.
type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// Validate trims the username and checks both fields are present.
func (f *LoginForm) Validate() error {
	f.Username = strings.TrimSpace(f.Username)
	return result(check(f))
}
