package service

import (
	"context"
	"errors"
	"log/slog"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const invalidLoginMessage = "Пожалуйста, введите правильные имя пользователя и пароль. Оба поля могут быть чувствительны к регистру."

type UserService struct {
	userRepo   repository.UserRepository
	bcryptCost int
}

type SignupInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password1 string
	Password2 string
}

type LoginInput struct {
	Username string
	Password string
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{
		userRepo:   userRepo,
		bcryptCost: bcrypt.DefaultCost,
	}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// Signup validates the registration form and stores a bcrypt-hashed account.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	form := validation.SignupForm{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Username:  in.Username,
		Email:     in.Email,
		Password1: in.Password1,
		Password2: in.Password2,
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password1), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:  form.Username,
		Email:     form.Email,
		Password:  string(hash),
		FirstName: form.FirstName,
		LastName:  form.LastName,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "User signed up", slog.Uint64("new_user_id", uint64(user.ID)))
	return user, nil
}

// Authenticate checks credentials. Unknown users and wrong passwords produce
// the same form error.
func (s *UserService) Authenticate(ctx context.Context, in LoginInput) (*models.User, error) {
	form := validation.LoginForm{Username: in.Username, Password: in.Password}
	if err := form.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByUsername(ctx, form.Username)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewValidationError(invalidLoginMessage)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(form.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, models.NewValidationError(invalidLoginMessage)
		}
		return nil, models.NewInternalError(err)
	}
	return user, nil
}
