package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/filesmanager/filesmanager/internal/db"
	"github.com/filesmanager/filesmanager/internal/model"
	"github.com/filesmanager/filesmanager/internal/repository"
	"github.com/filesmanager/filesmanager/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var widths = []int{500, 250, 100}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fixture struct {
	files   repository.FileRepository
	storage storage.Storage
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return fixture{
		files:   repository.NewFileRepository(db.NewTestDB(t)),
		storage: store,
	}
}

func (f fixture) image(t *testing.T, userID string, content []byte) *model.File {
	t.Helper()
	ctx := context.Background()

	key := uuid.NewString()
	require.NoError(t, f.storage.Save(ctx, key, bytes.NewReader(content)))

	file := &model.File{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        "pic.png",
		Type:        model.FileTypeImage,
		ParentID:    model.RootParentID,
		StoragePath: &key,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, f.files.Create(ctx, file))
	return file
}

func TestThumbnailer_WritesAllWidths(t *testing.T) {
	f := newFixture(t)
	userID := uuid.NewString()
	file := f.image(t, userID, pngBytes(t, 800, 400))

	th := NewThumbnailer(f.files, f.storage, widths, nil)
	results, err := th.Process(context.Background(), model.ThumbnailJob{FileID: file.ID, UserID: userID})
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, width := range widths {
		assert.Equal(t, width, results[i].Width)
		require.NoError(t, results[i].Err)

		content, err := storage.ReadAll(context.Background(), f.storage, file.ThumbnailPath(width))
		require.NoError(t, err)

		cfg, format, err := image.DecodeConfig(bytes.NewReader(content))
		require.NoError(t, err)
		assert.Equal(t, "png", format)
		assert.Equal(t, width, cfg.Width)
		assert.Equal(t, width/2, cfg.Height)
	}
}

func TestThumbnailer_RedeliveryOverwrites(t *testing.T) {
	f := newFixture(t)
	userID := uuid.NewString()
	file := f.image(t, userID, pngBytes(t, 600, 600))
	th := NewThumbnailer(f.files, f.storage, widths, nil)
	job := model.ThumbnailJob{FileID: file.ID, UserID: userID}

	_, err := th.Process(context.Background(), job)
	require.NoError(t, err)
	results, err := th.Process(context.Background(), job)
	require.NoError(t, err)

	for _, r := range results {
		assert.NoError(t, r.Err)
	}
}

func TestThumbnailer_JobValidation(t *testing.T) {
	f := newFixture(t)
	th := NewThumbnailer(f.files, f.storage, widths, nil)
	other := f.image(t, uuid.NewString(), pngBytes(t, 10, 10))

	tests := []struct {
		name string
		job  model.ThumbnailJob
		want error
	}{
		{"missing user", model.ThumbnailJob{FileID: other.ID}, ErrMissingUserID},
		{"missing file", model.ThumbnailJob{UserID: other.UserID}, ErrMissingFileID},
		{"invalid ids", model.ThumbnailJob{FileID: "x", UserID: "y"}, ErrFileNotFound},
		{"not owner", model.ThumbnailJob{FileID: other.ID, UserID: uuid.NewString()}, ErrFileNotFound},
		{"unknown file", model.ThumbnailJob{FileID: uuid.NewString(), UserID: other.UserID}, ErrFileNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := th.Process(context.Background(), tc.job)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestThumbnailer_UndecodableImageFails(t *testing.T) {
	f := newFixture(t)
	userID := uuid.NewString()
	file := f.image(t, userID, []byte("not an image"))
	th := NewThumbnailer(f.files, f.storage, widths, nil)

	err := th.Handle(context.Background(), json.RawMessage(`{"fileId":"`+file.ID+`","userId":"`+userID+`"}`))
	assert.Error(t, err)
}

// flakyStorage fails saves whose path ends with one of failSuffixes.
type flakyStorage struct {
	storage.Storage
	failSuffixes []string

	mu    sync.Mutex
	saved []string
}

func (s *flakyStorage) Save(ctx context.Context, path string, content io.Reader) error {
	for _, suffix := range s.failSuffixes {
		if strings.HasSuffix(path, suffix) {
			return errors.New("disk full")
		}
	}
	s.mu.Lock()
	s.saved = append(s.saved, path)
	s.mu.Unlock()
	return s.Storage.Save(ctx, path, content)
}

func TestThumbnailer_WidthFailureIsIsolated(t *testing.T) {
	f := newFixture(t)
	userID := uuid.NewString()
	file := f.image(t, userID, pngBytes(t, 300, 300))

	flaky := &flakyStorage{Storage: f.storage, failSuffixes: []string{"_250"}}
	th := NewThumbnailer(f.files, flaky, widths, nil)

	results, err := th.Process(context.Background(), model.ThumbnailJob{FileID: file.ID, UserID: userID})
	require.NoError(t, err)

	for _, r := range results {
		if r.Width == 250 {
			assert.Error(t, r.Err)
			continue
		}
		assert.NoError(t, r.Err)
		_, err := storage.ReadAll(context.Background(), f.storage, r.Path)
		assert.NoError(t, err)
	}
	assert.Len(t, flaky.saved, 2)
}

func TestThumbnailer_AllWidthsFailedIsRetried(t *testing.T) {
	f := newFixture(t)
	userID := uuid.NewString()
	file := f.image(t, userID, pngBytes(t, 300, 300))

	flaky := &flakyStorage{Storage: f.storage, failSuffixes: []string{"_500", "_250", "_100"}}
	th := NewThumbnailer(f.files, flaky, widths, nil)

	results, err := th.Process(context.Background(), model.ThumbnailJob{FileID: file.ID, UserID: userID})
	require.ErrorIs(t, err, ErrNoThumbnails)
	assert.Contains(t, err.Error(), "disk full")

	require.Len(t, results, len(widths))
	for _, r := range results {
		assert.Error(t, r.Err)
	}
	assert.Empty(t, flaky.saved)

	payload, err := json.Marshal(model.ThumbnailJob{FileID: file.ID, UserID: userID})
	require.NoError(t, err)
	assert.ErrorIs(t, th.Handle(context.Background(), payload), ErrNoThumbnails)
}
