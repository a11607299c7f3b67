package server

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddComment(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, "writer")
	reader := env.createUser(t, "reader")
	post := env.createPost(t, author, nil, "Пост для обсуждения")
	path := fmt.Sprintf("/posts/%d/comment/", post.ID)
	detail := fmt.Sprintf("/posts/%d/", post.ID)
	cookie := env.cookieFor(t, reader)

	t.Run("valid comment lands on the post", func(t *testing.T) {
		resp := env.postForm(t, path, url.Values{"text": {"Отличный пост!"}}, cookie)
		require.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, detail, resp.Header.Get(fiber.HeaderLocation))

		var comment models.Comment
		require.NoError(t, env.db.First(&comment).Error)
		assert.Equal(t, "Отличный пост!", comment.Text)
		assert.Equal(t, reader.ID, comment.AuthorID)
		assert.Equal(t, post.ID, comment.PostID)

		assert.Contains(t, readBody(t, env.get(t, detail, "")), "Отличный пост!")
	})

	t.Run("empty comment re-renders the post", func(t *testing.T) {
		resp := env.postForm(t, path, url.Values{"text": {"  "}}, cookie)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := readBody(t, resp)
		assert.Contains(t, body, `class="error"`)
		assert.Contains(t, body, "Пост для обсуждения")
		assert.Equal(t, int64(1), env.count(t, &models.Comment{}))
	})

	t.Run("missing post", func(t *testing.T) {
		resp := env.postForm(t, "/posts/9999/comment/", url.Values{"text": {"Куда?"}}, cookie)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, int64(1), env.count(t, &models.Comment{}))
	})
}
