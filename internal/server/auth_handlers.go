package server

import (
	"log/slog"

	"yatube/internal/featureflags"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"
	"yatube/internal/web"

	"github.com/gofiber/fiber/v2"
)

var signupFields = []string{"first_name", "last_name", "username", "email"}

// LoginPage handles GET /auth/login/
func (s *Server) LoginPage(c *fiber.Ctx) error {
	return render(c, web.PageLogin, web.LoginPage{
		Base: s.base(c),
		Form: web.NewForm(nil, nil),
		Next: c.Query("next"),
	})
}

// Login handles POST /auth/login/. Bad credentials re-render the form; a
// successful login follows next when it points inside the site.
func (s *Server) Login(c *fiber.Ctx) error {
	values := formValues(c, "username")
	next := c.FormValue("next")

	user, err := s.userService.Authenticate(c.UserContext(), service.LoginInput{
		Username: values["username"],
		Password: c.FormValue("password"),
	})
	if err != nil {
		if models.IsCode(err, models.CodeValidation) {
			return render(c, web.PageLogin, web.LoginPage{
				Base: s.base(c),
				Form: web.NewForm(values, err),
				Next: next,
			})
		}
		return s.fail(c, err)
	}

	if err := s.startSession(c, user); err != nil {
		return err
	}
	return c.Redirect(middleware.SafeNext(next, "/"), fiber.StatusFound)
}

// SignupPage handles GET /auth/signup/
func (s *Server) SignupPage(c *fiber.Ctx) error {
	if !s.enabled(c, featureflags.OpenSignup) {
		return s.notFound(c)
	}
	return render(c, web.PageSignup, web.SignupPage{Base: s.base(c), Form: web.NewForm(nil, nil)})
}

// Signup handles POST /auth/signup/ and signs the new user in.
func (s *Server) Signup(c *fiber.Ctx) error {
	if !s.enabled(c, featureflags.OpenSignup) {
		return s.notFound(c)
	}

	values := formValues(c, signupFields...)
	user, err := s.userService.Signup(c.UserContext(), service.SignupInput{
		FirstName: values["first_name"],
		LastName:  values["last_name"],
		Username:  values["username"],
		Email:     values["email"],
		Password1: c.FormValue("password1"),
		Password2: c.FormValue("password2"),
	})
	if err != nil {
		if models.IsCode(err, models.CodeValidation) {
			return render(c, web.PageSignup, web.SignupPage{Base: s.base(c), Form: web.NewForm(values, err)})
		}
		return s.fail(c, err)
	}

	if err := s.startSession(c, user); err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusFound)
}

// Logout handles GET /auth/logout/. The token is revoked in Redis so a copied
// cookie stops working too.
func (s *Server) Logout(c *fiber.Ctx) error {
	if session := middleware.CurrentSession(c); session != nil {
		if err := s.sessions.Revoke(c.UserContext(), session); err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "Failed to revoke session", slog.String("error", err.Error()))
		}
	}
	s.sessions.ClearCookie(c)
	return c.Redirect("/", fiber.StatusFound)
}

func (s *Server) startSession(c *fiber.Ctx, user *models.User) error {
	token, err := s.sessions.Issue(user.ID, user.Username)
	if err != nil {
		return err
	}
	s.sessions.SetCookie(c, token)
	middleware.Logger.InfoContext(c.UserContext(), "User logged in", slog.Uint64("login_user_id", uint64(user.ID)))
	return nil
}
