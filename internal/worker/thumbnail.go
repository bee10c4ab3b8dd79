package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"
	"github.com/filesmanager/filesmanager/internal/model"
	"github.com/filesmanager/filesmanager/internal/repository"
	"github.com/filesmanager/filesmanager/internal/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Job failure messages, kept identical to what clients of the queue see.
var (
	ErrMissingUserID = errors.New("Missing userId")
	ErrMissingFileID = errors.New("Missing fileId")
	ErrFileNotFound  = errors.New("File not found")
	ErrUserNotFound  = errors.New("User not found")

	ErrNoThumbnails = errors.New("no thumbnail could be written")
)

type FileLookup interface {
	ByOwner(ctx context.Context, q repository.FileByOwner) (*model.File, error)
}

// ThumbnailResult is the outcome of one derivative width.
type ThumbnailResult struct {
	Width int
	Path  string
	Err   error
}

type Thumbnailer struct {
	files   FileLookup
	storage storage.Storage
	widths  []int
	logger  *slog.Logger
}

func NewThumbnailer(files FileLookup, store storage.Storage, widths []int, logger *slog.Logger) *Thumbnailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Thumbnailer{files: files, storage: store, widths: widths, logger: logger}
}

// Handle decodes a queue payload and generates its thumbnails.
func (t *Thumbnailer) Handle(ctx context.Context, payload json.RawMessage) error {
	var job model.ThumbnailJob
	err := json.Unmarshal(payload, &job)
	if err != nil {
		return fmt.Errorf("invalid thumbnail job: %w", err)
	}

	_, err = t.Process(ctx, job)
	return err
}

// Process writes one resized copy of the image per configured width. Each
// width runs in its own goroutine; a failing width is logged and recorded
// without stopping the others. Process returns only after every width has
// finished, and fails with ErrNoThumbnails when none was written so the
// queue retries the job.
func (t *Thumbnailer) Process(ctx context.Context, job model.ThumbnailJob) ([]ThumbnailResult, error) {
	if job.UserID == "" {
		return nil, ErrMissingUserID
	}
	if job.FileID == "" {
		return nil, ErrMissingFileID
	}
	if uuid.Validate(job.FileID) != nil || uuid.Validate(job.UserID) != nil {
		return nil, ErrFileNotFound
	}

	file, err := t.files.ByOwner(ctx, repository.FileByOwner{ID: job.FileID, UserID: job.UserID})
	if errors.Is(err, repository.ErrFileNotFound) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load file: %w", err)
	}
	if file.StoragePath == nil {
		return nil, ErrFileNotFound
	}

	original, err := storage.ReadAll(ctx, t.storage, *file.StoragePath)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read original: %w", err)
	}

	src, formatName, err := image.Decode(bytes.NewReader(original))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	format, err := imaging.FormatFromExtension(formatName)
	if err != nil {
		format = imaging.PNG
	}

	log := t.logger.With("file_id", file.ID, "user_id", file.UserID)
	results := make([]ThumbnailResult, len(t.widths))

	var g errgroup.Group
	g.SetLimit(len(t.widths))
	for i, width := range t.widths {
		g.Go(func() error {
			path := file.ThumbnailPath(width)
			start := time.Now()

			err := t.writeThumbnail(ctx, src, format, width, path)
			results[i] = ThumbnailResult{Width: width, Path: path, Err: err}
			if err != nil {
				log.Error("failed to generate thumbnail", "width", width, "error", err)
				return nil
			}
			log.Debug("thumbnail generated", "width", width, "duration", time.Since(start))
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, r := range results {
		if r.Err == nil {
			return results, nil
		}
		errs = append(errs, r.Err)
	}
	if len(errs) == 0 {
		return results, nil
	}
	return results, fmt.Errorf("%w: %w", ErrNoThumbnails, errors.Join(errs...))
}

// writeThumbnail overwrites any existing derivative, so a redelivered job
// produces the same result.
func (t *Thumbnailer) writeThumbnail(ctx context.Context, src image.Image, format imaging.Format, width int, path string) error {
	dst := imaging.Resize(src, width, 0, imaging.Lanczos)

	var buf bytes.Buffer
	err := imaging.Encode(&buf, dst, format)
	if err != nil {
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	err = t.storage.Save(ctx, path, &buf)
	if err != nil {
		return fmt.Errorf("failed to save thumbnail: %w", err)
	}
	return nil
}
