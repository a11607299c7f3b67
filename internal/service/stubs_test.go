package service

import (
	"context"
	"errors"
	"testing"

	"yatube/internal/media"
	"yatube/internal/models"
	"yatube/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn         func(context.Context, *models.Post) error
	getByIDFn        func(context.Context, uint) (*models.Post, error)
	countFn          func(context.Context, repository.PostFilter) (int64, error)
	listFn           func(context.Context, repository.PostFilter, int, int) ([]*models.Post, error)
	updateByAuthorFn func(context.Context, *models.Post) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) Count(ctx context.Context, filter repository.PostFilter) (int64, error) {
	return s.countFn(ctx, filter)
}
func (s *postRepoStub) List(ctx context.Context, filter repository.PostFilter, limit, offset int) ([]*models.Post, error) {
	return s.listFn(ctx, filter, limit, offset)
}
func (s *postRepoStub) UpdateByAuthor(ctx context.Context, post *models.Post) error {
	return s.updateByAuthorFn(ctx, post)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:         func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn:        func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		countFn:          func(_ context.Context, _ repository.PostFilter) (int64, error) { return 0, nil },
		listFn:           func(_ context.Context, _ repository.PostFilter, _, _ int) ([]*models.Post, error) { return nil, nil },
		updateByAuthorFn: func(_ context.Context, _ *models.Post) error { return nil },
	}
}

// groupRepoStub is a stub for repository.GroupRepository.
type groupRepoStub struct {
	getByIDFn   func(context.Context, uint) (*models.Group, error)
	getBySlugFn func(context.Context, string) (*models.Group, error)
	listFn      func(context.Context) ([]models.Group, error)
	upsertFn    func(context.Context, *models.Group) error
}

func (s *groupRepoStub) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	return s.getByIDFn(ctx, id)
}
func (s *groupRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *groupRepoStub) List(ctx context.Context) ([]models.Group, error) {
	return s.listFn(ctx)
}
func (s *groupRepoStub) Upsert(ctx context.Context, group *models.Group) error {
	return s.upsertFn(ctx, group)
}

func noopGroupRepo() *groupRepoStub {
	return &groupRepoStub{
		getByIDFn:   func(_ context.Context, id uint) (*models.Group, error) { return &models.Group{ID: id}, nil },
		getBySlugFn: func(_ context.Context, slug string) (*models.Group, error) { return &models.Group{ID: 1, Slug: slug}, nil },
		listFn:      func(_ context.Context) ([]models.Group, error) { return nil, nil },
		upsertFn:    func(_ context.Context, _ *models.Group) error { return nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	listFn          func(context.Context, int, int) ([]models.User, error)
	listIDsFn       func(context.Context) ([]uint, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *userRepoStub) ListIDs(ctx context.Context) ([]uint, error) {
	return s.listIDsFn(ctx)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:       func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByUsernameFn: func(_ context.Context, username string) (*models.User, error) { return &models.User{ID: 2, Username: username}, nil },
		createFn:        func(_ context.Context, _ *models.User) error { return nil },
		listFn:          func(_ context.Context, _, _ int) ([]models.User, error) { return nil, nil },
		listIDsFn:       func(_ context.Context) ([]uint, error) { return nil, nil },
	}
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	existsFn         func(context.Context, uint, uint) (bool, error)
	createFn         func(context.Context, uint, uint) (bool, error)
	deleteFn         func(context.Context, uint, uint) (bool, error)
	countFollowersFn func(context.Context, uint) (int64, error)
	countFollowingFn func(context.Context, uint) (int64, error)
}

func (s *followRepoStub) Exists(ctx context.Context, userID, authorID uint) (bool, error) {
	return s.existsFn(ctx, userID, authorID)
}
func (s *followRepoStub) Create(ctx context.Context, userID, authorID uint) (bool, error) {
	return s.createFn(ctx, userID, authorID)
}
func (s *followRepoStub) Delete(ctx context.Context, userID, authorID uint) (bool, error) {
	return s.deleteFn(ctx, userID, authorID)
}
func (s *followRepoStub) CountFollowers(ctx context.Context, authorID uint) (int64, error) {
	return s.countFollowersFn(ctx, authorID)
}
func (s *followRepoStub) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	return s.countFollowingFn(ctx, userID)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		existsFn:         func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		createFn:         func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		deleteFn:         func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		countFollowersFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		countFollowingFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	listByPostFn func(context.Context, uint) ([]*models.Comment, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:     func(_ context.Context, _ *models.Comment) error { return nil },
		listByPostFn: func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
	}
}

// imageStoreStub records saved uploads. Files it "writes" are new unless
// existing is set, and removals are collected in removed.
type imageStoreStub struct {
	saveFn   func(context.Context, media.Upload) (string, error)
	existing bool
	removed  []string
}

func (s *imageStoreStub) Put(ctx context.Context, in media.Upload) (string, bool, error) {
	name, err := s.saveFn(ctx, in)
	if err != nil {
		return "", false, err
	}
	return name, !s.existing, nil
}

func (s *imageStoreStub) Remove(name string) error {
	s.removed = append(s.removed, name)
	return nil
}

func assertAppError(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, "VALIDATION_ERROR")
}

// assertNotFoundError asserts that err is an AppError with code NOT_FOUND.
func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, "NOT_FOUND")
}
