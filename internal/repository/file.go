package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/filesmanager/filesmanager/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrFileNotFound = errors.New("file not found")
)

// FileByOwner scopes a lookup to one file of one user. A file owned by
// someone else is indistinguishable from a missing one.
type FileByOwner struct {
	ID     string
	UserID string
}

// FileListQuery selects one page of a user's files under a parent.
type FileListQuery struct {
	UserID   string
	ParentID model.ParentID
	Limit    int
	Offset   int
}

type FileRepository interface {
	Create(ctx context.Context, file *model.File) error
	ByID(ctx context.Context, id string) (*model.File, error)
	ByOwner(ctx context.Context, q FileByOwner) (*model.File, error)
	List(ctx context.Context, q FileListQuery) ([]*model.File, error)
	SetPublic(ctx context.Context, q FileByOwner, isPublic bool) (*model.File, error)
	Count(ctx context.Context) (int, error)
}

type fileRepository struct {
	db *sqlx.DB
}

func NewFileRepository(db *sqlx.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Create(ctx context.Context, file *model.File) error {
	query := `INSERT INTO files (id, user_id, name, type, is_public, parent_id, storage_path, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING seq`

	return r.db.QueryRowxContext(ctx, query,
		file.ID,
		file.UserID,
		file.Name,
		file.Type,
		file.IsPublic,
		file.ParentID.String(),
		file.StoragePath,
		file.CreatedAt,
	).Scan(&file.Seq)
}

func (r *fileRepository) ByID(ctx context.Context, id string) (*model.File, error) {
	file := &model.File{}
	query := `SELECT * FROM files WHERE id = $1`

	err := r.db.GetContext(ctx, file, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}

	return file, nil
}

func (r *fileRepository) ByOwner(ctx context.Context, q FileByOwner) (*model.File, error) {
	file := &model.File{}
	query := `SELECT * FROM files WHERE id = $1 AND user_id = $2`

	err := r.db.GetContext(ctx, file, query, q.ID, q.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}

	return file, nil
}

func (r *fileRepository) List(ctx context.Context, q FileListQuery) ([]*model.File, error) {
	files := []*model.File{}
	query := `SELECT * FROM files WHERE user_id = $1 AND parent_id = $2 ORDER BY seq ASC LIMIT $3 OFFSET $4`

	err := r.db.SelectContext(ctx, &files, query, q.UserID, q.ParentID.String(), q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}

	return files, nil
}

// SetPublic flips visibility in a single statement so the check and the
// write cannot interleave with another request.
func (r *fileRepository) SetPublic(ctx context.Context, q FileByOwner, isPublic bool) (*model.File, error) {
	file := &model.File{}
	query := `UPDATE files SET is_public = $1 WHERE id = $2 AND user_id = $3 RETURNING *`

	err := r.db.GetContext(ctx, file, query, isPublic, q.ID, q.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}

	return file, nil
}

func (r *fileRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM files`)
	return n, err
}
