package service

import (
	"context"
	"testing"

	"yatube/internal/media"
	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_CreatePost_Validation(t *testing.T) {
	t.Parallel()

	created := 0
	repo := noopPostRepo()
	repo.createFn = func(_ context.Context, _ *models.Post) error {
		created++
		return nil
	}
	svc := NewPostService(repo, noopGroupRepo(), nil, nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreatePostInput
		field string
	}{
		{"empty text", CreatePostInput{AuthorID: 1}, "text"},
		{"whitespace only", CreatePostInput{AuthorID: 1, Text: " \n\t "}, "text"},
		{"group not a number", CreatePostInput{AuthorID: 1, Text: "Текст", Group: "cats"}, "group"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePost(ctx, tt.input)
			assertValidationError(t, err)
			assert.Contains(t, models.FieldErrors(err), tt.field)
		})
	}
	assert.Zero(t, created, "invalid forms must not reach the repository")
}

func TestPostService_CreatePost_Success(t *testing.T) {
	t.Parallel()

	var saved *models.Post
	repo := noopPostRepo()
	repo.createFn = func(_ context.Context, p *models.Post) error {
		p.ID = 42
		saved = p
		return nil
	}
	notified := 0
	svc := NewPostService(repo, noopGroupRepo(), nil, func(context.Context) error {
		notified++
		return nil
	})

	post, err := svc.CreatePost(context.Background(), CreatePostInput{AuthorID: 7, Text: "  Тестовый пост  ", Group: "3"})
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, uint(42), post.ID)
	assert.Equal(t, "Тестовый пост", saved.Text)
	assert.Equal(t, uint(7), saved.AuthorID)
	require.NotNil(t, saved.GroupID)
	assert.Equal(t, uint(3), *saved.GroupID)
	assert.Equal(t, 1, notified)
}

func TestPostService_CreatePost_UnknownGroup(t *testing.T) {
	t.Parallel()

	groups := noopGroupRepo()
	groups.getByIDFn = func(_ context.Context, id uint) (*models.Group, error) {
		return nil, models.NewNotFoundError("Group", id)
	}
	svc := NewPostService(noopPostRepo(), groups, nil, nil)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{AuthorID: 1, Text: "x", Group: "99"})
	assertValidationError(t, err)
	assert.Contains(t, models.FieldErrors(err), "group")
}

func TestPostService_CreatePost_Image(t *testing.T) {
	t.Parallel()

	var saved *models.Post
	repo := noopPostRepo()
	repo.createFn = func(_ context.Context, p *models.Post) error {
		saved = p
		return nil
	}
	images := &imageStoreStub{saveFn: func(_ context.Context, in media.Upload) (string, error) {
		assert.Equal(t, "small.gif", in.Filename)
		return "posts/abc.png", nil
	}}
	svc := NewPostService(repo, noopGroupRepo(), images, nil)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{
		AuthorID: 1,
		Text:     "С картинкой",
		Image:    &media.Upload{Filename: "small.gif", Content: []byte("GIF89a")},
	})
	require.NoError(t, err)
	assert.Equal(t, "posts/abc.png", saved.Image)

	t.Run("invalid image keeps form errors", func(t *testing.T) {
		images.saveFn = func(_ context.Context, _ media.Upload) (string, error) {
			return "", models.NewFieldValidationError(map[string]string{"image": "bad"})
		}
		saved = nil
		_, err := svc.CreatePost(context.Background(), CreatePostInput{AuthorID: 1, Text: "x", Image: &media.Upload{}})
		assertValidationError(t, err)
		assert.Nil(t, saved)
	})
}

func TestPostService_CreatePost_RequiresAuthor(t *testing.T) {
	t.Parallel()
	svc := NewPostService(noopPostRepo(), noopGroupRepo(), nil, nil)
	_, err := svc.CreatePost(context.Background(), CreatePostInput{Text: "x"})
	assertAppError(t, err, models.CodeUnauthorized)
}

func TestPostService_EditPost_Ownership(t *testing.T) {
	t.Parallel()

	original := func() *models.Post {
		return &models.Post{ID: 5, AuthorID: 1, Text: "old", Image: "posts/old.jpg"}
	}

	t.Run("non-author is forbidden", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, _ uint) (*models.Post, error) { return original(), nil }
		updated := false
		repo.updateByAuthorFn = func(_ context.Context, _ *models.Post) error {
			updated = true
			return nil
		}
		svc := NewPostService(repo, noopGroupRepo(), nil, nil)

		_, err := svc.EditPost(context.Background(), EditPostInput{UserID: 2, PostID: 5, Text: "hijacked"})
		assertAppError(t, err, models.CodeForbidden)
		assert.False(t, updated)
	})

	t.Run("missing post", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
			return nil, models.NewNotFoundError("Post", id)
		}
		svc := NewPostService(repo, noopGroupRepo(), nil, nil)

		_, err := svc.EditPost(context.Background(), EditPostInput{UserID: 1, PostID: 5, Text: "x"})
		assertNotFoundError(t, err)
	})

	t.Run("author edits in place", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, _ uint) (*models.Post, error) { return original(), nil }
		var saved *models.Post
		repo.updateByAuthorFn = func(_ context.Context, p *models.Post) error {
			saved = p
			return nil
		}
		notified := 0
		svc := NewPostService(repo, noopGroupRepo(), nil, func(context.Context) error {
			notified++
			return assert.AnError
		})

		post, err := svc.EditPost(context.Background(), EditPostInput{UserID: 1, PostID: 5, Text: "new"})
		require.NoError(t, err, "hook failures are logged, not returned")
		require.NotNil(t, saved)
		assert.Equal(t, uint(5), post.ID)
		assert.Equal(t, uint(1), post.AuthorID)
		assert.Equal(t, "new", post.Text)
		assert.Nil(t, post.GroupID)
		assert.Equal(t, "posts/old.jpg", post.Image)
		assert.Equal(t, 1, notified)
	})

	t.Run("empty text leaves the post alone", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, _ uint) (*models.Post, error) { return original(), nil }
		updated := false
		repo.updateByAuthorFn = func(_ context.Context, _ *models.Post) error {
			updated = true
			return nil
		}
		svc := NewPostService(repo, noopGroupRepo(), nil, nil)

		_, err := svc.EditPost(context.Background(), EditPostInput{UserID: 1, PostID: 5, Text: "   "})
		assertValidationError(t, err)
		assert.False(t, updated)
	})

	t.Run("clear image", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, _ uint) (*models.Post, error) { return original(), nil }
		svc := NewPostService(repo, noopGroupRepo(), nil, nil)

		post, err := svc.EditPost(context.Background(), EditPostInput{UserID: 1, PostID: 5, Text: "x", ClearImage: true})
		require.NoError(t, err)
		assert.Empty(t, post.Image)
	})
}

func TestPostService_FailedWriteDiscardsNewImage(t *testing.T) {
	t.Parallel()

	upload := &media.Upload{Filename: "pic.png", Content: []byte("png")}
	saveAs := func(_ context.Context, _ media.Upload) (string, error) { return "posts/new.png", nil }

	t.Run("create", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.createFn = func(_ context.Context, _ *models.Post) error {
			return models.NewInternalError(assert.AnError)
		}
		images := &imageStoreStub{saveFn: saveAs}
		svc := NewPostService(repo, noopGroupRepo(), images, nil)

		_, err := svc.CreatePost(context.Background(), CreatePostInput{AuthorID: 1, Text: "x", Image: upload})
		require.Error(t, err)
		assert.Equal(t, []string{"posts/new.png"}, images.removed)
	})

	t.Run("edit", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, _ uint) (*models.Post, error) {
			return &models.Post{ID: 5, AuthorID: 1, Text: "old", Image: "posts/old.jpg"}, nil
		}
		repo.updateByAuthorFn = func(_ context.Context, _ *models.Post) error {
			return models.NewInternalError(assert.AnError)
		}
		images := &imageStoreStub{saveFn: saveAs}
		svc := NewPostService(repo, noopGroupRepo(), images, nil)

		_, err := svc.EditPost(context.Background(), EditPostInput{UserID: 1, PostID: 5, Text: "x", Image: upload})
		require.Error(t, err)
		assert.Equal(t, []string{"posts/new.png"}, images.removed)
	})

	t.Run("shared file stays", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.createFn = func(_ context.Context, _ *models.Post) error {
			return models.NewInternalError(assert.AnError)
		}
		images := &imageStoreStub{saveFn: saveAs, existing: true}
		svc := NewPostService(repo, noopGroupRepo(), images, nil)

		_, err := svc.CreatePost(context.Background(), CreatePostInput{AuthorID: 1, Text: "x", Image: upload})
		require.Error(t, err)
		assert.Empty(t, images.removed)
	})
}
