package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/filesmanager/filesmanager/internal/config"
	"github.com/filesmanager/filesmanager/internal/db"
	"github.com/filesmanager/filesmanager/internal/kv"
	"github.com/filesmanager/filesmanager/internal/queue"
	"github.com/filesmanager/filesmanager/internal/repository"
	"github.com/filesmanager/filesmanager/internal/service"
	"github.com/filesmanager/filesmanager/internal/storage"
	"github.com/filesmanager/filesmanager/internal/worker"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// App holds the connections and services shared by the API server and the
// worker. Both processes build it the same way.
type App struct {
	Cfg     *config.Config
	DB      *sqlx.DB
	Redis   *redis.Client
	Storage storage.Storage
	Queue   *queue.Queue

	UserRepository repository.UserRepository
	FileRepository repository.FileRepository

	AppService  *service.AppService
	AuthService *service.AuthService
	UserService *service.UserService
	FileService *service.FileService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	redisClient, err := kv.Init(ctx, kv.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	// Storage
	fileStorage, err := storage.New(cfg)
	if err != nil {
		_ = database.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return Assemble(cfg, database, redisClient, fileStorage), nil
}

// Assemble wires repositories and services over already open connections.
func Assemble(cfg *config.Config, database *sqlx.DB, redisClient *redis.Client, fileStorage storage.Storage) *App {
	// Repositories
	userRepository := repository.NewUserRepository(database)
	fileRepository := repository.NewFileRepository(database)
	tokenRepository := repository.NewTokenRepository(redisClient, cfg.TokenTTL)

	jobs := queue.New(redisClient, queue.Options{
		MaxAttempts: cfg.QueueMaxAttempts,
		BackoffBase: cfg.QueueBackoffBase,
		BackoffMax:  cfg.QueueBackoffMax,
	})

	// Services
	return &App{
		Cfg:     cfg,
		DB:      database,
		Redis:   redisClient,
		Storage: fileStorage,
		Queue:   jobs,

		UserRepository: userRepository,
		FileRepository: fileRepository,

		AppService:  service.NewAppService(database, redisClient, userRepository, fileRepository),
		AuthService: service.NewAuthService(userRepository, tokenRepository),
		UserService: service.NewUserService(userRepository, jobs),
		FileService: service.NewFileService(fileRepository, fileStorage, jobs, cfg.ThumbnailWidths),
	}
}

// NewConsumer builds the queue consumer with the thumbnail and welcome
// handlers registered.
func (a *App) NewConsumer(logger *slog.Logger) *queue.Consumer {
	consumer := queue.NewConsumer(a.Queue, queue.ConsumerOptions{
		Concurrency:  a.Cfg.WorkerConcurrency,
		PollInterval: a.Cfg.QueuePollInterval,
	}, logger)

	worker.Register(consumer,
		worker.NewThumbnailer(a.FileRepository, a.Storage, a.Cfg.ThumbnailWidths, logger),
		worker.NewWelcomer(a.UserRepository, logger),
	)

	return consumer
}

func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
