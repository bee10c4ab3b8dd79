package service

import (
	"context"
	"fmt"

	"github.com/filesmanager/filesmanager/internal/db"
	"github.com/filesmanager/filesmanager/internal/kv"
	"github.com/filesmanager/filesmanager/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

type Status struct {
	Redis bool `json:"redis"`
	DB    bool `json:"db"`
}

type Stats struct {
	Users int `json:"users"`
	Files int `json:"files"`
}

// AppService reports backend health and record counts.
type AppService struct {
	db             *sqlx.DB
	redis          redis.Cmdable
	userRepository repository.UserRepository
	fileRepository repository.FileRepository
}

func NewAppService(database *sqlx.DB, redisClient redis.Cmdable, userRepository repository.UserRepository, fileRepository repository.FileRepository) *AppService {
	return &AppService{
		db:             database,
		redis:          redisClient,
		userRepository: userRepository,
		fileRepository: fileRepository,
	}
}

func (s *AppService) Status(ctx context.Context) Status {
	return Status{
		Redis: kv.Alive(ctx, s.redis),
		DB:    db.Alive(ctx, s.db),
	}
}

func (s *AppService) Stats(ctx context.Context) (Stats, error) {
	users, err := s.userRepository.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count users: %w", err)
	}

	files, err := s.fileRepository.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count files: %w", err)
	}

	return Stats{Users: users, Files: files}, nil
}
