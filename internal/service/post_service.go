package service

import (
	"context"
	"log/slog"

	"yatube/internal/media"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
	"yatube/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// ImageStore persists uploaded post images. Put reports whether the file was
// newly written, so a failed post write can take it back with Remove.
type ImageStore interface {
	Put(ctx context.Context, in media.Upload) (name string, created bool, err error)
	Remove(name string) error
}

type PostService struct {
	postRepo       repository.PostRepository
	groupRepo      repository.GroupRepository
	images         ImageStore
	onPostsChanged func(ctx context.Context) error
}

type CreatePostInput struct {
	AuthorID uint
	Text     string
	Group    string
	Image    *media.Upload
}

type EditPostInput struct {
	UserID uint
	PostID uint
	Text   string
	Group  string
	Image  *media.Upload
	// ClearImage drops the current image when no new one is uploaded.
	ClearImage bool
}

// NewPostService wires the post lifecycle. images may be nil when uploads are
// disabled; onPostsChanged runs after every committed create or edit.
func NewPostService(
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	images ImageStore,
	onPostsChanged func(ctx context.Context) error,
) *PostService {
	return &PostService{
		postRepo:       postRepo,
		groupRepo:      groupRepo,
		images:         images,
		onPostsChanged: onPostsChanged,
	}
}

// GetEditablePost loads a post and checks the caller wrote it.
func (s *PostService) GetEditablePost(ctx context.Context, userID, postID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return post, models.NewForbiddenError("Only the author can edit this post")
	}
	return post, nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (_ *models.Post, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "CreatePost",
		attribute.Int64("author.id", int64(in.AuthorID)),
		attribute.Bool("post.has_image", in.Image != nil),
	)
	defer func() { span.End(err) }()

	if in.AuthorID == 0 {
		return nil, models.NewUnauthorizedError("Login required")
	}

	form := validation.PostForm{Text: in.Text, Group: in.Group}
	if err := form.Validate(); err != nil {
		return nil, err
	}
	groupID, err := s.resolveGroup(ctx, form.GroupID())
	if err != nil {
		return nil, err
	}
	upload, err := s.saveImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Text:     form.Text,
		AuthorID: in.AuthorID,
		GroupID:  groupID,
		Image:    upload.name,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		s.discardImage(ctx, upload)
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "Post created", slog.Uint64("post_id", uint64(post.ID)))
	s.changed(ctx)
	return post, nil
}

// EditPost rewrites text, group and image in place. Author and id never change.
func (s *PostService) EditPost(ctx context.Context, in EditPostInput) (_ *models.Post, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "EditPost",
		attribute.Int64("post.id", int64(in.PostID)),
		attribute.Int64("user.id", int64(in.UserID)),
	)
	defer func() { span.End(err) }()

	post, err := s.GetEditablePost(ctx, in.UserID, in.PostID)
	if err != nil {
		return nil, err
	}

	form := validation.PostForm{Text: in.Text, Group: in.Group}
	if err := form.Validate(); err != nil {
		return nil, err
	}
	groupID, err := s.resolveGroup(ctx, form.GroupID())
	if err != nil {
		return nil, err
	}

	image := post.Image
	if in.ClearImage {
		image = ""
	}
	upload, err := s.saveImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}
	if upload.name != "" {
		image = upload.name
	}

	post.Text = form.Text
	post.GroupID = groupID
	post.Image = image
	if groupID == nil {
		post.Group = nil
	}
	if err := s.postRepo.UpdateByAuthor(ctx, post); err != nil {
		s.discardImage(ctx, upload)
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "Post edited", slog.Uint64("post_id", uint64(post.ID)))
	s.changed(ctx)
	return post, nil
}

// resolveGroup turns an unknown group id into a form error on "group".
func (s *PostService) resolveGroup(ctx context.Context, groupID *uint) (*uint, error) {
	if groupID == nil {
		return nil, nil
	}
	if _, err := s.groupRepo.GetByID(ctx, *groupID); err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewFieldValidationError(map[string]string{
				"group": "Выберите корректный вариант. Вашего варианта нет среди допустимых значений.",
			})
		}
		return nil, err
	}
	return groupID, nil
}

type savedImage struct {
	name    string
	created bool
}

func (s *PostService) saveImage(ctx context.Context, upload *media.Upload) (savedImage, error) {
	if upload == nil || s.images == nil {
		return savedImage{}, nil
	}
	name, created, err := s.images.Put(ctx, *upload)
	if err != nil {
		return savedImage{}, err
	}
	return savedImage{name: name, created: created}, nil
}

// discardImage removes a file written for a post that was never stored.
// Files that already existed belong to other posts and stay.
func (s *PostService) discardImage(ctx context.Context, img savedImage) {
	if !img.created {
		return
	}
	if err := s.images.Remove(img.name); err != nil {
		middleware.Logger.WarnContext(ctx, "Failed to remove orphaned image",
			slog.String("image", img.name), slog.String("error", err.Error()))
	}
}

func (s *PostService) changed(ctx context.Context) {
	if s.onPostsChanged == nil {
		return
	}
	if err := s.onPostsChanged(ctx); err != nil {
		middleware.Logger.WarnContext(ctx, "Post change hook failed", slog.String("error", err.Error()))
	}
}
