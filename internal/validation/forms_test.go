package validation

import (
	"testing"

	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertFieldError(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeValidation))
	assert.Contains(t, models.FieldErrors(err), field)
}

func TestPostForm(t *testing.T) {
	tests := []struct {
		name      string
		form      PostForm
		errField  string
		wantGroup *uint
	}{
		{name: "Text only", form: PostForm{Text: "  Тестовый пост  "}},
		{name: "With group", form: PostForm{Text: "post", Group: "7"}, wantGroup: func() *uint { v := uint(7); return &v }()},
		{name: "Empty text", form: PostForm{Text: ""}, errField: "text"},
		{name: "Whitespace text", form: PostForm{Text: " \n\t "}, errField: "text"},
		{name: "Bogus group", form: PostForm{Text: "post", Group: "cats"}, errField: "group"},
		{name: "Zero group", form: PostForm{Text: "post", Group: "0"}, errField: "group"},
		{name: "Oversized group", form: PostForm{Text: "post", Group: "4294967296"}, errField: "group"},
		{name: "Negative group", form: PostForm{Text: "post", Group: "-1"}, errField: "group"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := tt.form
			err := form.Validate()
			if tt.errField != "" {
				assertFieldError(t, err, tt.errField)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantGroup, form.GroupID())
		})
	}

	form := PostForm{Text: "  trimmed  "}
	require.NoError(t, form.Validate())
	assert.Equal(t, "trimmed", form.Text)
}

func TestPostForm_RequiredMessage(t *testing.T) {
	form := PostForm{}
	err := form.Validate()
	require.Error(t, err)
	assert.Equal(t, "Обязательное поле.", models.FieldErrors(err)["text"])
}

func TestCommentForm(t *testing.T) {
	form := CommentForm{Text: "   "}
	assertFieldError(t, form.Validate(), "text")

	form = CommentForm{Text: " nice "}
	require.NoError(t, form.Validate())
	assert.Equal(t, "nice", form.Text)
}

func TestSignupForm(t *testing.T) {
	valid := SignupForm{
		Username:  "leo",
		Email:     "Leo@Example.com",
		Password1: "correct horse",
		Password2: "correct horse",
	}

	t.Run("Valid", func(t *testing.T) {
		form := valid
		require.NoError(t, form.Validate())
		assert.Equal(t, "leo@example.com", form.Email)
	})

	tests := []struct {
		name   string
		mutate func(*SignupForm)
		field  string
	}{
		{"Mismatched passwords", func(f *SignupForm) { f.Password2 = "other horse" }, "password2"},
		{"Weak password", func(f *SignupForm) { f.Password1, f.Password2 = "12345678", "12345678" }, "password1"},
		{"Bad username", func(f *SignupForm) { f.Username = "a b" }, "username"},
		{"Missing username", func(f *SignupForm) { f.Username = "  " }, "username"},
		{"Bad email", func(f *SignupForm) { f.Email = "nope" }, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := valid
			tt.mutate(&form)
			assertFieldError(t, form.Validate(), tt.field)
		})
	}
}

func TestLoginForm(t *testing.T) {
	form := LoginForm{Username: " leo ", Password: ""}
	err := form.Validate()
	assertFieldError(t, err, "password")
	assert.NotContains(t, models.FieldErrors(err), "username")
	assert.Equal(t, "leo", form.Username)
}
