package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/filesmanager/filesmanager/internal/db"
	"github.com/filesmanager/filesmanager/internal/repository"
	"github.com/filesmanager/filesmanager/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type enqueued struct {
	queue   string
	payload any
}

type fakeJobs struct {
	mu   sync.Mutex
	jobs []enqueued
	err  error
}

func (f *fakeJobs) Enqueue(_ context.Context, name string, payload any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.jobs = append(f.jobs, enqueued{queue: name, payload: payload})
	return "job-id", nil
}

type env struct {
	files   repository.FileRepository
	users   repository.UserRepository
	tokens  repository.TokenRepository
	storage *storage.LocalStorage
	jobs    *fakeJobs
	redis   *miniredis.Miniredis
}

func newEnv(t *testing.T) *env {
	t.Helper()
	database := db.NewTestDB(t)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return &env{
		files:   repository.NewFileRepository(database),
		users:   repository.NewUserRepository(database),
		tokens:  repository.NewTokenRepository(client, 24*time.Hour),
		storage: store,
		jobs:    &fakeJobs{},
		redis:   mr,
	}
}

func (e *env) fileService() *FileService {
	return NewFileService(e.files, e.storage, e.jobs, []int{500, 250, 100})
}
