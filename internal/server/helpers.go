package server

import (
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"yatube/internal/featureflags"
	"yatube/internal/media"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/web"

	"github.com/gofiber/fiber/v2"
)

// parseID extracts a route parameter as a positive uint. A malformed id can
// never name a row, so it is reported as NotFound.
func parseID(c *fiber.Ctx, param, resource string) (uint, error) {
	raw := c.Params(param)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, models.NewNotFoundError(resource, raw)
	}
	return uint(id), nil
}

// viewerID is the signed-in user, or 0.
func viewerID(c *fiber.Ctx) uint {
	id, _ := middleware.CurrentUserID(c)
	return id
}

// base collects the layout data shared by every page.
func (s *Server) base(c *fiber.Ctx) web.Base {
	b := web.Base{Flags: s.featureFlags.Snapshot(viewerID(c)), CSRFToken: csrfToken(c)}
	if session := middleware.CurrentSession(c); session != nil {
		b.Viewer = &web.Viewer{ID: session.UserID, Username: session.Username}
	}
	return b
}

func (s *Server) enabled(c *fiber.Ctx, flag string) bool {
	return s.featureFlags.Enabled(flag, viewerID(c))
}

// render writes a page with status 200.
func render(c *fiber.Ctx, page string, data interface{}) error {
	return c.Status(fiber.StatusOK).Render(page, data)
}

// fail maps service errors onto the shared HTTP outcomes: missing things
// render the 404 page, anonymous callers go to the login page. Anything else
// is left to the error handler.
func (s *Server) fail(c *fiber.Ctx, err error) error {
	switch {
	case models.IsCode(err, models.CodeNotFound):
		return s.notFound(c)
	case models.IsCode(err, models.CodeUnauthorized):
		return c.Redirect(middleware.LoginRedirectURL(c.OriginalURL()), fiber.StatusFound)
	default:
		return err
	}
}

func (s *Server) notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).Render(web.PageNotFound, web.ErrorPage{
		Base: s.base(c),
		Path: c.Path(),
	})
}

// errorHandler renders the 404 and 403 pages for those statuses and the 500
// page for everything unexpected.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch {
		case fe.Code == fiber.StatusNotFound:
			return s.notFound(c)
		case fe.Code == fiber.StatusForbidden:
			return s.forbidden(c)
		case fe.Code < fiber.StatusInternalServerError:
			return c.Status(fe.Code).SendString(fe.Message)
		}
	}

	middleware.Logger.ErrorContext(c.UserContext(), "Unhandled request error",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	c.Status(fiber.StatusInternalServerError)
	if rerr := c.Render(web.PageError, web.ErrorPage{Base: s.base(c), Path: c.Path()}); rerr != nil {
		return c.SendString("Internal Server Error")
	}
	return nil
}

// formValues reads the named fields from a submitted form.
func formValues(c *fiber.Ctx, names ...string) map[string]string {
	values := make(map[string]string, len(names))
	for _, name := range names {
		values[name] = c.FormValue(name)
	}
	return values
}

// readUpload returns the uploaded file in field, or nil when nothing was
// chosen or image uploads are switched off for this user.
func (s *Server) readUpload(c *fiber.Ctx, field string) (*media.Upload, error) {
	if !s.enabled(c, featureflags.ImageUploads) {
		return nil, nil
	}
	fh, err := c.FormFile(field)
	if err != nil || fh.Size == 0 || fh.Filename == "" {
		// Missing file or a plain urlencoded form.
		return nil, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer func() { _ = f.Close() }()

	// One byte past the limit is enough for the store to reject it.
	content, err := io.ReadAll(io.LimitReader(f, s.media.MaxUploadBytes()+1))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &media.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}

func checkbox(c *fiber.Ctx, name string) bool {
	switch strings.ToLower(c.FormValue(name)) {
	case "on", "true", "1":
		return true
	}
	return false
}
