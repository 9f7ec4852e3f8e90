package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Novip1906/tasks-realtime/internal/models"
)

const fileColumns = "id, filename, original_name, mimetype, size, path, task_id, owner_id, created_at"

func scanFile(row scanner) (*models.FileRecord, error) {
	var file models.FileRecord
	err := row.Scan(
		&file.Id,
		&file.Filename,
		&file.OriginalName,
		&file.Mimetype,
		&file.Size,
		&file.StoragePath,
		&file.TaskId,
		&file.OwnerId,
		&file.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	file.CreatedAt = file.CreatedAt.UTC()
	return &file, nil
}

func (s *Storage) CreateFile(ctx context.Context, file *models.FileRecord) error {
	file.CreatedAt = now()

	query := "INSERT INTO files (" + fileColumns + ") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)"
	_, err := s.db.ExecContext(ctx, query,
		file.Id,
		file.Filename,
		file.OriginalName,
		file.Mimetype,
		file.Size,
		file.StoragePath,
		file.TaskId,
		file.OwnerId,
		file.CreatedAt,
	)
	return err
}

func (s *Storage) GetFile(ctx context.Context, ownerId, fileId string) (*models.FileRecord, error) {
	query := "SELECT " + fileColumns + " FROM files WHERE id = $1 AND owner_id = $2"

	file, err := scanFile(s.db.QueryRowContext(ctx, query, fileId, ownerId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

// ListFilesByTask returns the owner's records for a task, newest first.
func (s *Storage) ListFilesByTask(ctx context.Context, ownerId, taskId string) ([]*models.FileRecord, error) {
	query := "SELECT " + fileColumns + " FROM files WHERE task_id = $1 AND owner_id = $2 ORDER BY created_at DESC, id ASC"
	return s.queryFiles(ctx, query, taskId, ownerId)
}

// ListFilesForTask ignores ownership; callers have already checked it through the task.
func (s *Storage) ListFilesForTask(ctx context.Context, taskId string) ([]*models.FileRecord, error) {
	query := "SELECT " + fileColumns + " FROM files WHERE task_id = $1 ORDER BY created_at DESC, id ASC"
	return s.queryFiles(ctx, query, taskId)
}

func (s *Storage) queryFiles(ctx context.Context, query string, args ...any) ([]*models.FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := []*models.FileRecord{}
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return files, nil
}

func (s *Storage) DeleteFile(ctx context.Context, ownerId, fileId string) error {
	query := "DELETE FROM files WHERE id = $1 AND owner_id = $2"
	return s.execOne(ctx, query, ErrFileNotFound, fileId, ownerId)
}

func (s *Storage) DeleteFilesByTask(ctx context.Context, taskId string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM files WHERE task_id = $1", taskId)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
