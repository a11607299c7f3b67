package server

import (
	"yatube/internal/models"
	"yatube/internal/service"
	"yatube/internal/web"

	"github.com/gofiber/fiber/v2"
)

// AddComment handles POST /posts/:id/comment/. A valid comment redirects to
// the post; an empty one re-renders the post with the form error.
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "Post")
	if err != nil {
		return s.fail(c, err)
	}

	values := formValues(c, "text")
	_, err = s.commentService.AddComment(c.UserContext(), service.AddCommentInput{
		UserID: viewerID(c),
		PostID: id,
		Text:   values["text"],
	})
	if err != nil {
		if models.IsCode(err, models.CodeValidation) {
			return s.renderPostDetail(c, id, web.NewForm(values, err))
		}
		return s.fail(c, err)
	}

	return c.Redirect(web.PostURL(id), fiber.StatusFound)
}
