package server

import (
	"yatube/internal/web"

	"github.com/gofiber/fiber/v2"
)

// AboutAuthor handles GET /about/author/
func (s *Server) AboutAuthor(c *fiber.Ctx) error {
	return render(c, web.PageAuthor, s.base(c))
}

// AboutTech handles GET /about/tech/
func (s *Server) AboutTech(c *fiber.Ctx) error {
	return render(c, web.PageTech, s.base(c))
}
