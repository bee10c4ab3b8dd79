package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/filesmanager/filesmanager/internal/model"
	"github.com/filesmanager/filesmanager/internal/repository"
	"github.com/google/uuid"
)

type UserLookup interface {
	ByID(ctx context.Context, id string) (*model.User, error)
}

// Welcomer greets newly registered users.
type Welcomer struct {
	users  UserLookup
	logger *slog.Logger
}

func NewWelcomer(users UserLookup, logger *slog.Logger) *Welcomer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Welcomer{users: users, logger: logger}
}

func (w *Welcomer) Handle(ctx context.Context, payload json.RawMessage) error {
	var job model.WelcomeJob
	err := json.Unmarshal(payload, &job)
	if err != nil {
		return fmt.Errorf("invalid welcome job: %w", err)
	}

	_, err = w.Process(ctx, job)
	return err
}

// Process returns the email the welcome was addressed to.
func (w *Welcomer) Process(ctx context.Context, job model.WelcomeJob) (string, error) {
	if job.UserID == "" {
		return "", ErrMissingUserID
	}
	if uuid.Validate(job.UserID) != nil {
		return "", ErrUserNotFound
	}

	user, err := w.users.ByID(ctx, job.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load user: %w", err)
	}

	w.logger.Info(fmt.Sprintf("Welcome %s!", user.Email), "user_id", user.ID)
	return user.Email, nil
}
