package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrTokenNotFound = errors.New("token not found")
)

const tokenKeyPrefix = "auth_"

// TokenRepository maps opaque session tokens to user ids. Each call is a
// single redis command, so no locking is needed on this side.
type TokenRepository interface {
	Issue(ctx context.Context, userID string) (string, error)
	Resolve(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
}

type tokenRepository struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewTokenRepository(client redis.Cmdable, ttl time.Duration) TokenRepository {
	return &tokenRepository{client: client, ttl: ttl}
}

func tokenKey(token string) string {
	return tokenKeyPrefix + token
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// Issue stores a fresh token for userID; redis evicts it once the TTL elapses.
func (r *tokenRepository) Issue(ctx context.Context, userID string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	err = r.client.Set(ctx, tokenKey(token), userID, r.ttl).Err()
	if err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}

	return token, nil
}

func (r *tokenRepository) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrTokenNotFound
	}

	userID, err := r.client.Get(ctx, tokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve token: %w", err)
	}

	return userID, nil
}

// Revoke is idempotent: deleting a missing key is not an error.
func (r *tokenRepository) Revoke(ctx context.Context, token string) error {
	err := r.client.Del(ctx, tokenKey(token)).Err()
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}
