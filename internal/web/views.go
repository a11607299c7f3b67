package web

import (
	"yatube/internal/models"
	"yatube/internal/service"
	"yatube/internal/validation"
)

// Viewer is the signed-in user as the layout sees it; nil when anonymous.
type Viewer struct {
	ID       uint
	Username string
}

// Base carries what every page needs.
type Base struct {
	Viewer *Viewer
	// Flags are evaluated feature flags for the viewer.
	Flags     map[string]bool
	CSRFToken string
}

func (b Base) IsAuthenticated() bool {
	return b.Viewer != nil
}

// Form holds submitted values and per-field errors for re-rendering.
type Form struct {
	Values map[string]string
	Errors map[string]string
}

// NewForm builds a Form from submitted values and a validation error, if any.
func NewForm(values map[string]string, err error) Form {
	f := Form{Values: values, Errors: models.FieldErrors(err)}
	if f.Values == nil {
		f.Values = map[string]string{}
	}
	if f.Errors == nil {
		f.Errors = map[string]string{}
	}
	return f
}

func (f Form) Value(name string) string { return f.Values[name] }
func (f Form) Error(name string) string { return f.Errors[name] }
func (f Form) HasErrors() bool          { return len(f.Errors) > 0 }

// NonFieldError is the error that belongs to the form as a whole.
func (f Form) NonFieldError() string {
	return f.Errors[validation.NonFieldErrors]
}

type IndexPage struct {
	Base
	Page service.PostPage
}

type GroupPage struct {
	Base
	Group *models.Group
	Page  service.PostPage
}

type ProfilePage struct {
	Base
	*service.AuthorFeed
}

type PostDetailPage struct {
	Base
	*service.PostDetail
	Form Form
}

type PostFormPage struct {
	Base
	IsEdit       bool
	PostID       uint
	Form         Form
	Groups       []models.Group
	CurrentImage string
	// ImageEnabled shows the file input.
	ImageEnabled bool
}

// GroupSelected reports whether id is the chosen group.
func (p PostFormPage) GroupSelected(id uint) bool {
	return p.Form.Value("group") == uintString(id)
}

type FollowPage struct {
	Base
	Page service.PostPage
}

type LoginPage struct {
	Base
	Form Form
	Next string
}

type SignupPage struct {
	Base
	Form Form
}

type ErrorPage struct {
	Base
	Path string
}
