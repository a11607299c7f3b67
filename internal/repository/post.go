package repository

import (
	"context"
	"errors"

	"yatube/internal/models"

	"gorm.io/gorm"
)

// PostFilter narrows a post listing. Zero fields are ignored; all set fields must match.
type PostFilter struct {
	GroupID    uint
	AuthorID   uint
	FollowerID uint
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Count(ctx context.Context, filter PostFilter) (int64, error)
	List(ctx context.Context, filter PostFilter, limit, offset int) ([]*models.Post, error)
	UpdateByAuthor(ctx context.Context, post *models.Post) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Author", "Group").Create(post).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.withRelations(r.db.WithContext(ctx)).First(&post, id).Error; err != nil {
		return nil, notFoundOr(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) Count(ctx context.Context, filter PostFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.Post{}), filter).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// List returns posts newest first; equal timestamps fall back to the higher id.
func (r *postRepository) List(ctx context.Context, filter PostFilter, limit, offset int) ([]*models.Post, error) {
	posts := []*models.Post{}
	err := r.withRelations(r.applyFilter(r.db.WithContext(ctx), filter)).
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// UpdateByAuthor rewrites text, group and image. The author check is part of
// the UPDATE so a concurrent ownership change cannot slip through.
func (r *postRepository) UpdateByAuthor(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).
			Where("id = ? AND author_id = ?", post.ID, post.AuthorID).
			Select("text", "group_id", "image").
			Updates(map[string]interface{}{
				"text":     post.Text,
				"group_id": post.GroupID,
				"image":    post.Image,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Post", post.ID)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").Preload("Group")
}

func (r *postRepository) applyFilter(db *gorm.DB, filter PostFilter) *gorm.DB {
	if filter.GroupID != 0 {
		db = db.Where("posts.group_id = ?", filter.GroupID)
	}
	if filter.AuthorID != 0 {
		db = db.Where("posts.author_id = ?", filter.AuthorID)
	}
	if filter.FollowerID != 0 {
		followed := db.Session(&gorm.Session{NewDB: true}).
			Model(&models.Follow{}).Select("author_id").Where("user_id = ?", filter.FollowerID)
		db = db.Where("posts.author_id IN (?)", followed)
	}
	return db
}
