package server

import (
	"yatube/internal/cache"
	"yatube/internal/featureflags"
	"yatube/internal/middleware"
	"yatube/internal/service"
	"yatube/internal/web"

	"github.com/gofiber/fiber/v2"
)

// Index handles GET /. Anonymous renders are served from the page cache
// while it holds them; signed-in users always get a fresh page.
func (s *Server) Index(c *fiber.Ctx) error {
	ctx := c.UserContext()

	cacheable := viewerID(c) == 0 && s.enabled(c, featureflags.IndexCache)
	key := cache.IndexPageKey(string(c.Request().URI().QueryString()))
	if cacheable {
		if body, ok := s.pages.Get(ctx, key); ok {
			middleware.PageCacheRequests.WithLabelValues("hit").Inc()
			c.Set("X-Cache", "HIT")
			c.Type("html", "utf-8")
			return c.Send(body)
		}
		middleware.PageCacheRequests.WithLabelValues("miss").Inc()
	}

	page, err := s.feedService.ListIndex(ctx, c.Query("page"))
	if err != nil {
		return s.fail(c, err)
	}
	data := web.IndexPage{Base: s.base(c), Page: page}
	if !cacheable {
		return render(c, web.PageIndex, data)
	}

	body, err := s.templates.RenderBytes(web.PageIndex, data)
	if err != nil {
		return err
	}
	s.pages.Set(ctx, key, body)
	c.Set("X-Cache", "MISS")
	c.Type("html", "utf-8")
	return c.Send(body)
}

// GroupPosts handles GET /group/:slug/
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	feed, err := s.feedService.ListByGroup(c.UserContext(), c.Params("slug"), c.Query("page"))
	if err != nil {
		return s.fail(c, err)
	}
	return render(c, web.PageGroupList, web.GroupPage{
		Base:  s.base(c),
		Group: feed.Group,
		Page:  feed.Page,
	})
}

// Profile handles GET /profile/:username/
func (s *Server) Profile(c *fiber.Ctx) error {
	feed, err := s.feedService.ListByAuthor(c.UserContext(), service.ListByAuthorInput{
		Username: c.Params("username"),
		Page:     c.Query("page"),
		ViewerID: viewerID(c),
	})
	if err != nil {
		return s.fail(c, err)
	}
	return render(c, web.PageProfile, web.ProfilePage{Base: s.base(c), AuthorFeed: feed})
}

// PostDetail handles GET /posts/:id/
func (s *Server) PostDetail(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "Post")
	if err != nil {
		return s.fail(c, err)
	}
	return s.renderPostDetail(c, id, web.NewForm(nil, nil))
}

// renderPostDetail is shared with the comment handler, which re-renders the
// page with the rejected comment form.
func (s *Server) renderPostDetail(c *fiber.Ctx, postID uint, form web.Form) error {
	detail, err := s.feedService.GetPostDetail(c.UserContext(), postID, viewerID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return render(c, web.PagePostDetail, web.PostDetailPage{
		Base:       s.base(c),
		PostDetail: detail,
		Form:       form,
	})
}

// FollowIndex handles GET /follow/
func (s *Server) FollowIndex(c *fiber.Ctx) error {
	page, err := s.feedService.ListFollowedFeed(c.UserContext(), viewerID(c), c.Query("page"))
	if err != nil {
		return s.fail(c, err)
	}
	return render(c, web.PageFollow, web.FollowPage{Base: s.base(c), Page: page})
}
