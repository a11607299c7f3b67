package server

import (
	"yatube/internal/web"

	"github.com/gofiber/fiber/v2"
)

// ProfileFollow handles GET /profile/:username/follow
func (s *Server) ProfileFollow(c *fiber.Ctx) error {
	author, err := s.followService.Follow(c.UserContext(), viewerID(c), c.Params("username"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.Redirect(web.ProfileURL(author.Username), fiber.StatusFound)
}

// ProfileUnfollow handles GET /profile/:username/unfollow
func (s *Server) ProfileUnfollow(c *fiber.Ctx) error {
	author, err := s.followService.Unfollow(c.UserContext(), viewerID(c), c.Params("username"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.Redirect(web.ProfileURL(author.Username), fiber.StatusFound)
}
