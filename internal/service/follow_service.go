package service

import (
	"context"
	"log/slog"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"
)

type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
	}
}

// Follow subscribes userID to the named author. Following yourself or an
// author you already follow is a no-op.
func (s *FollowService) Follow(ctx context.Context, userID uint, username string) (*models.User, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("Login required")
	}
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if author.ID == userID {
		return author, nil
	}

	created, err := s.followRepo.Create(ctx, userID, author.ID)
	if err != nil {
		return nil, err
	}
	if created {
		middleware.Logger.InfoContext(ctx, "Follow created", slog.Uint64("author_id", uint64(author.ID)))
	}
	return author, nil
}

// Unfollow removes the edge. A missing author or a missing edge is NotFound.
func (s *FollowService) Unfollow(ctx context.Context, userID uint, username string) (*models.User, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("Login required")
	}
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	deleted, err := s.followRepo.Delete(ctx, userID, author.ID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, models.NewNotFoundError("Follow", username)
	}
	middleware.Logger.InfoContext(ctx, "Follow removed", slog.Uint64("author_id", uint64(author.ID)))
	return author, nil
}
