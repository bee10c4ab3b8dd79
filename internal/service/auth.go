package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/filesmanager/filesmanager/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type AuthService struct {
	userRepository  repository.UserRepository
	tokenRepository repository.TokenRepository
}

func NewAuthService(userRepository repository.UserRepository, tokenRepository repository.TokenRepository) *AuthService {
	return &AuthService{
		userRepository:  userRepository,
		tokenRepository: tokenRepository,
	}
}

// Login verifies the credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	user, err := s.userRepository.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", fmt.Errorf("invalid credentials: %w", ErrInvalidCredentials)
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	err = ComparePassword(password, user.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("invalid credentials: %w", ErrInvalidCredentials)
	}

	token, err := s.tokenRepository.Issue(ctx, user.ID)
	if err != nil {
		return "", err
	}

	slog.Info("user connected", "user_id", user.ID)
	return token, nil
}

// Authenticate resolves a session token to its user id.
func (s *AuthService) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}

	userID, err := s.tokenRepository.Resolve(ctx, token)
	if errors.Is(err, repository.ErrTokenNotFound) {
		return "", ErrUnauthorized
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve token: %w", err)
	}

	return userID, nil
}

// Logout revokes a live session token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	userID, err := s.Authenticate(ctx, token)
	if err != nil {
		return err
	}

	err = s.tokenRepository.Revoke(ctx, token)
	if err != nil {
		return err
	}

	slog.Info("user disconnected", "user_id", userID)
	return nil
}

func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
