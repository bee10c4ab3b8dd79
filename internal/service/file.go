package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/filesmanager/filesmanager/internal/model"
	"github.com/filesmanager/filesmanager/internal/repository"
	"github.com/filesmanager/filesmanager/internal/storage"
	"github.com/filesmanager/filesmanager/internal/validation"
	"github.com/google/uuid"
)

var (
	ErrUnauthorized       = errors.New("Unauthorized")
	ErrFolderHasNoContent = errors.New("A folder doesn't have content")
	ErrStorageWrite       = errors.New("Cannot write file")
)

// PageSize is the number of files returned per listing page.
const PageSize = 20

// Enqueuer submits background jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, name string, payload any) (string, error)
}

type FileService struct {
	fileRepo        repository.FileRepository
	storage         storage.Storage
	jobs            Enqueuer
	thumbnailWidths []int
}

func NewFileService(fileRepo repository.FileRepository, storage storage.Storage, jobs Enqueuer, thumbnailWidths []int) *FileService {
	return &FileService{
		fileRepo:        fileRepo,
		storage:         storage,
		jobs:            jobs,
		thumbnailWidths: thumbnailWidths,
	}
}

// Content is the raw payload of a file or one of its thumbnails.
type Content struct {
	Name        string
	ContentType string
	Data        []byte
}

// Upload validates the input, stores the content and records the file.
// Images get a thumbnail job once the record exists.
func (s *FileService) Upload(ctx context.Context, userID string, input validation.FileInput) (*model.File, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	params, err := validation.ValidateFile(ctx, input, s.fileRepo)
	if err != nil {
		return nil, err
	}

	file := &model.File{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      params.Name,
		Type:      params.Type,
		IsPublic:  params.IsPublic,
		ParentID:  params.ParentID,
		CreatedAt: time.Now().UTC(),
	}

	if file.IsFolder() {
		err = s.fileRepo.Create(ctx, file)
		if err != nil {
			return nil, fmt.Errorf("failed to create file record: %w", err)
		}
		return file, nil
	}

	data, err := decodeData(params.Data)
	if err != nil {
		return nil, &validation.Error{Message: validation.MsgInvalidData}
	}

	// Storage name is independent of the client supplied name
	storagePath := uuid.New().String()
	err = s.storage.Save(ctx, storagePath, bytes.NewReader(data))
	if err != nil {
		slog.Error("failed to save file content", "error", err, "user_id", userID)
		return nil, fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}
	file.StoragePath = &storagePath

	err = s.fileRepo.Create(ctx, file)
	if err != nil {
		// If DB insert fails, try to cleanup the uploaded file
		delErr := s.storage.Delete(ctx, storagePath)
		if delErr != nil {
			slog.Error("failed to delete file from storage during cleanup", "error", delErr, "path", storagePath)
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	if file.IsImage() {
		_, err = s.jobs.Enqueue(ctx, model.QueueFile, model.ThumbnailJob{FileID: file.ID, UserID: userID})
		if err != nil {
			slog.Error("failed to enqueue thumbnail job", "error", err, "file_id", file.ID)
		}
	}

	return file, nil
}

// decodeData accepts padded and unpadded standard base64.
func decodeData(data string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err == nil {
		return decoded, nil
	}
	return base64.RawStdEncoding.DecodeString(data)
}

// Show returns a file owned by userID.
func (s *FileService) Show(ctx context.Context, userID, fileID string) (*model.File, error) {
	if uuid.Validate(fileID) != nil {
		return nil, repository.ErrFileNotFound
	}
	return s.fileRepo.ByOwner(ctx, repository.FileByOwner{ID: fileID, UserID: userID})
}

// List returns one page of userID's files under parentID. An unparsable
// parent lists the root and a negative page is treated as the first.
func (s *FileService) List(ctx context.Context, userID, parentID string, page int) ([]*model.File, error) {
	parent := model.ParseParentID(parentID)
	if !parent.IsRoot() && uuid.Validate(parent.String()) != nil {
		parent = model.RootParentID
	}
	if page < 0 {
		page = 0
	}

	return s.fileRepo.List(ctx, repository.FileListQuery{
		UserID:   userID,
		ParentID: parent,
		Limit:    PageSize,
		Offset:   page * PageSize,
	})
}

// ParsePage reads a page query value; anything but a non-negative integer is 0.
func ParsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 0 {
		return 0
	}
	return page
}

// SetVisibility publishes or unpublishes a file owned by userID.
func (s *FileService) SetVisibility(ctx context.Context, userID, fileID string, public bool) (*model.File, error) {
	if userID == "" || uuid.Validate(fileID) != nil {
		return nil, ErrUnauthorized
	}

	file, err := s.fileRepo.SetPublic(ctx, repository.FileByOwner{ID: fileID, UserID: userID}, public)
	if err != nil {
		return nil, err
	}

	slog.Info("file visibility changed", "file_id", file.ID, "user_id", userID, "public", public)
	return file, nil
}

// CanRead reports whether requesterID may read the content of file. An
// empty requesterID is an anonymous request.
func CanRead(file *model.File, requesterID string) bool {
	if file.IsPublic {
		return true
	}
	return requesterID != "" && requesterID == file.UserID
}

// ReadContent returns the content of a file, or of its thumbnail when size
// names one of the generated widths. Files the requester may not read are
// reported as not found.
func (s *FileService) ReadContent(ctx context.Context, fileID, requesterID, size string) (*Content, error) {
	if uuid.Validate(fileID) != nil {
		return nil, repository.ErrFileNotFound
	}

	file, err := s.fileRepo.ByID(ctx, fileID)
	if err != nil {
		return nil, err
	}

	if !CanRead(file, requesterID) {
		return nil, repository.ErrFileNotFound
	}

	if file.IsFolder() {
		return nil, ErrFolderHasNoContent
	}
	if file.StoragePath == nil {
		return nil, repository.ErrFileNotFound
	}

	path := *file.StoragePath
	if size != "" {
		width, err := strconv.Atoi(size)
		if err != nil || !s.hasWidth(width) {
			return nil, repository.ErrFileNotFound
		}
		if file.IsImage() {
			path = file.ThumbnailPath(width)
		}
	}

	data, err := storage.ReadAll(ctx, s.storage, path)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, repository.ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}

	return &Content{
		Name:        file.Name,
		ContentType: contentType(file.Name, data),
		Data:        data,
	}, nil
}

func (s *FileService) hasWidth(width int) bool {
	for _, w := range s.thumbnailWidths {
		if w == width {
			return true
		}
	}
	return false
}

func contentType(name string, data []byte) string {
	ct := mime.TypeByExtension(filepath.Ext(name))
	if ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}
