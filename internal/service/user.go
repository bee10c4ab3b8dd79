package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/filesmanager/filesmanager/internal/model"
	"github.com/filesmanager/filesmanager/internal/repository"
	"github.com/filesmanager/filesmanager/internal/validation"
	"github.com/google/uuid"
)

type UserService struct {
	userRepository repository.UserRepository
	jobs           Enqueuer
}

func NewUserService(userRepository repository.UserRepository, jobs Enqueuer) *UserService {
	return &UserService{
		userRepository: userRepository,
		jobs:           jobs,
	}
}

// Register creates a user and queues the welcome job.
func (s *UserService) Register(ctx context.Context, input validation.UserInput) (*model.User, error) {
	email, err := validation.ValidateUser(input)
	if err != nil {
		return nil, err
	}

	_, err = s.userRepository.ByEmail(ctx, email)
	if err == nil {
		return nil, &validation.Error{Message: validation.MsgEmailAlreadyExist}
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	err = s.userRepository.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		// Lost a race with a concurrent registration
		return nil, &validation.Error{Message: validation.MsgEmailAlreadyExist}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	_, err = s.jobs.Enqueue(ctx, model.QueueUser, model.WelcomeJob{UserID: user.ID})
	if err != nil {
		slog.Error("failed to enqueue welcome job", "error", err, "user_id", user.ID)
	}

	slog.Info("new user created", "user_id", user.ID)
	return user, nil
}

// Me returns the user behind an authenticated request.
func (s *UserService) Me(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	user, err := s.userRepository.ByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUnauthorized
	}
	return user, err
}
