package validation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/filesmanager/filesmanager/internal/model"
	"github.com/filesmanager/filesmanager/internal/repository"
	"github.com/google/uuid"
)

// FileInput is the upload request body as sent by clients.
type FileInput struct {
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	ParentID model.ParentID `json:"parentId"`
	IsPublic bool           `json:"isPublic"`
	Data     string         `json:"data"`
}

// FileParams is a validated upload. Parent is nil for the root.
type FileParams struct {
	Name     string
	Type     string
	ParentID model.ParentID
	Parent   *model.File
	IsPublic bool
	Data     string
}

// ParentLookup finds a candidate parent by id regardless of owner.
type ParentLookup interface {
	ByID(ctx context.Context, id string) (*model.File, error)
}

// ValidateFile runs the upload checks in order and returns the first
// failure as *Error. Lookup failures other than "not found" are returned
// wrapped and are not validation errors.
func ValidateFile(ctx context.Context, input FileInput, lookup ParentLookup) (*FileParams, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, newError(MsgMissingName)
	}

	if !model.IsFileType(input.Type) {
		return nil, newError(MsgMissingType)
	}

	if input.Type != model.FileTypeFolder && input.Data == "" {
		return nil, newError(MsgMissingData)
	}

	params := &FileParams{
		Name:     name,
		Type:     input.Type,
		ParentID: input.ParentID,
		IsPublic: input.IsPublic,
		Data:     input.Data,
	}

	if input.ParentID.IsRoot() {
		return params, nil
	}

	if _, err := uuid.Parse(input.ParentID.String()); err != nil {
		return nil, newError(MsgParentNotFound)
	}

	parent, err := lookup.ByID(ctx, input.ParentID.String())
	if errors.Is(err, repository.ErrFileNotFound) {
		return nil, newError(MsgParentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up parent: %w", err)
	}

	if !parent.IsFolder() {
		return nil, newError(MsgParentNotFolder)
	}

	params.Parent = parent
	return params, nil
}
