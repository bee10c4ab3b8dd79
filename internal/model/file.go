package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

const (
	FileTypeFolder = "folder"
	FileTypeFile   = "file"
	FileTypeImage  = "image"
)

// FileTypes lists the accepted values of File.Type.
var FileTypes = []string{FileTypeFile, FileTypeImage, FileTypeFolder}

func IsFileType(t string) bool {
	for _, ft := range FileTypes {
		if ft == t {
			return true
		}
	}
	return false
}

// ParentID references the folder a file lives in. RootParentID is the only
// representation of "no parent"; every external form is normalized to it.
type ParentID string

const RootParentID ParentID = ""

// ParseParentID normalizes a raw request value ("", "0" or an id).
func ParseParentID(raw string) ParentID {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "0" {
		return RootParentID
	}
	return ParentID(raw)
}

func (p ParentID) IsRoot() bool {
	return p == RootParentID
}

func (p ParentID) String() string {
	return string(p)
}

// MarshalJSON renders the root as the number 0, as clients expect.
func (p ParentID) MarshalJSON() ([]byte, error) {
	if p.IsRoot() {
		return []byte("0"), nil
	}
	return json.Marshal(string(p))
}

// UnmarshalJSON accepts null, numbers and strings.
func (p *ParentID) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*p = RootParentID
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = ParseParentID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if f, err := n.Float64(); err == nil && f == 0 {
		*p = RootParentID
		return nil
	}
	*p = ParentID(n.String())
	return nil
}

type File struct {
	Seq         int64     `db:"seq"` // Insertion order, used for stable pagination
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Name        string    `db:"name"`
	Type        string    `db:"type"`
	IsPublic    bool      `db:"is_public"`
	ParentID    ParentID  `db:"parent_id"`
	StoragePath *string   `db:"storage_path"` // nil for folders
	CreatedAt   time.Time `db:"created_at"`
}

func (f *File) IsFolder() bool {
	return f.Type == FileTypeFolder
}

func (f *File) IsImage() bool {
	return f.Type == FileTypeImage
}

// ThumbnailPath returns the storage path of the derivative at width.
func (f *File) ThumbnailPath(width int) string {
	if f.StoragePath == nil {
		return ""
	}
	return ThumbnailPath(*f.StoragePath, width)
}

func ThumbnailPath(original string, width int) string {
	return original + "_" + strconv.Itoa(width)
}

// FileResponse is the client-facing projection of a File. The storage
// location never leaves the server.
type FileResponse struct {
	ID       string   `json:"id"`
	UserID   string   `json:"userId"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	IsPublic bool     `json:"isPublic"`
	ParentID ParentID `json:"parentId"`
}

func (f *File) Response() FileResponse {
	return FileResponse{
		ID:       f.ID,
		UserID:   f.UserID,
		Name:     f.Name,
		Type:     f.Type,
		IsPublic: f.IsPublic,
		ParentID: f.ParentID,
	}
}

func FileResponses(files []*File) []FileResponse {
	out := make([]FileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, f.Response())
	}
	return out
}
