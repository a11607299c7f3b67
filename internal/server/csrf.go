package server

import (
	"log/slog"
	"strings"

	"yatube/internal/middleware"
	"yatube/internal/web"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
)

const (
	csrfCookieName = "csrftoken"
	csrfContextKey = "csrf_token"
)

// csrfProtection checks a double-submit token on unsafe methods. Pages read
// the current token from the request locals and embed it in their forms.
func (s *Server) csrfProtection() fiber.Handler {
	return csrf.New(csrf.Config{
		Next:           skipCSRF,
		CookieName:     csrfCookieName,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
		CookieSecure:   s.config.IsProduction(),
		CookieHTTPOnly: true,
		Expiration:     s.config.SessionTTL(),
		Storage:        s.csrfStorage,
		ContextKey:     csrfContextKey,
		Extractor:      csrfTokenFromRequest,
		ErrorHandler:   s.csrfFailure,
	})
}

// skipCSRF leaves probes, metrics and media alone.
func skipCSRF(c *fiber.Ctx) bool {
	p := c.Path()
	return strings.HasPrefix(p, "/health/") || p == "/metrics" || strings.HasPrefix(p, "/media/")
}

// csrfTokenFromRequest takes the hidden form field, falling back to the header
// for scripted clients.
func csrfTokenFromRequest(c *fiber.Ctx) (string, error) {
	if token := c.FormValue(web.CSRFField); token != "" {
		return token, nil
	}
	return csrf.CsrfFromHeader(csrf.HeaderName)(c)
}

// csrfFailure renders the 403 page for a missing or stale token.
func (s *Server) csrfFailure(c *fiber.Ctx, err error) error {
	middleware.Logger.WarnContext(c.UserContext(), "CSRF check failed",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return s.forbidden(c)
}

func (s *Server) forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).Render(web.PageForbidden, web.ErrorPage{
		Base: s.base(c),
		Path: c.Path(),
	})
}

func csrfToken(c *fiber.Ctx) string {
	token, _ := c.Locals(csrfContextKey).(string)
	return token
}
