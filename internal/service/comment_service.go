package service

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/validation"
)

type CommentService struct {
	commentRepo repository.CommentRepository
}

type AddCommentInput struct {
	UserID uint
	PostID uint
	Text   string
}

func NewCommentService(commentRepo repository.CommentRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo}
}

// AddComment appends a comment owned by the caller. The post lookup happens in
// the same transaction as the insert.
func (s *CommentService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("Login required")
	}

	form := validation.CommentForm{Text: in.Text}
	if err := form.Validate(); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Text:     form.Text,
		PostID:   in.PostID,
		AuthorID: in.UserID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}
