package server

import (
	"strconv"

	"yatube/internal/featureflags"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"
	"yatube/internal/web"

	"github.com/gofiber/fiber/v2"
)

var postFields = []string{"text", "group"}

// postForm renders the page shared by create and edit.
func (s *Server) postForm(c *fiber.Ctx, page web.PostFormPage) error {
	groups, err := s.groupRepo.List(c.UserContext())
	if err != nil {
		return err
	}
	page.Base = s.base(c)
	page.Groups = groups
	page.ImageEnabled = s.enabled(c, featureflags.ImageUploads)
	return render(c, web.PageCreatePost, page)
}

// PostCreatePage handles GET /create/
func (s *Server) PostCreatePage(c *fiber.Ctx) error {
	return s.postForm(c, web.PostFormPage{Form: web.NewForm(nil, nil)})
}

// PostCreate handles POST /create/ and sends the author to their profile.
func (s *Server) PostCreate(c *fiber.Ctx) error {
	values := formValues(c, postFields...)
	upload, err := s.readUpload(c, "image")
	if err != nil {
		return err
	}

	_, err = s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		AuthorID: viewerID(c),
		Text:     values["text"],
		Group:    values["group"],
		Image:    upload,
	})
	if err != nil {
		if models.IsCode(err, models.CodeValidation) {
			return s.postForm(c, web.PostFormPage{Form: web.NewForm(values, err)})
		}
		return s.fail(c, err)
	}

	return c.Redirect(web.ProfileURL(middleware.CurrentSession(c).Username), fiber.StatusFound)
}

// PostEditPage handles GET /posts/:id/edit/. Anyone but the author is sent
// back to the post.
func (s *Server) PostEditPage(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "Post")
	if err != nil {
		return s.fail(c, err)
	}

	post, err := s.postService.GetEditablePost(c.UserContext(), viewerID(c), id)
	if err != nil {
		if models.IsCode(err, models.CodeForbidden) {
			return c.Redirect(web.PostURL(id), fiber.StatusFound)
		}
		return s.fail(c, err)
	}

	values := map[string]string{"text": post.Text, "group": ""}
	if post.GroupID != nil {
		values["group"] = strconv.FormatUint(uint64(*post.GroupID), 10)
	}
	return s.postForm(c, web.PostFormPage{
		IsEdit:       true,
		PostID:       post.ID,
		Form:         web.NewForm(values, nil),
		CurrentImage: post.Image,
	})
}

// PostEdit handles POST /posts/:id/edit/
func (s *Server) PostEdit(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "Post")
	if err != nil {
		return s.fail(c, err)
	}

	values := formValues(c, postFields...)
	upload, err := s.readUpload(c, "image")
	if err != nil {
		return err
	}

	_, err = s.postService.EditPost(c.UserContext(), service.EditPostInput{
		UserID:     viewerID(c),
		PostID:     id,
		Text:       values["text"],
		Group:      values["group"],
		Image:      upload,
		ClearImage: checkbox(c, "image-clear"),
	})
	switch {
	case err == nil:
		return c.Redirect(web.PostURL(id), fiber.StatusFound)
	case models.IsCode(err, models.CodeForbidden):
		return c.Redirect(web.PostURL(id), fiber.StatusFound)
	case models.IsCode(err, models.CodeValidation):
		current := ""
		if post, gerr := s.postService.GetEditablePost(c.UserContext(), viewerID(c), id); gerr == nil {
			current = post.Image
		}
		return s.postForm(c, web.PostFormPage{
			IsEdit:       true,
			PostID:       id,
			Form:         web.NewForm(values, err),
			CurrentImage: current,
		})
	default:
		return s.fail(c, err)
	}
}
