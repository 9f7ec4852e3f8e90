package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Novip1906/tasks-realtime/internal/contextkeys"
	appErrors "github.com/Novip1906/tasks-realtime/internal/errors"
	"github.com/Novip1906/tasks-realtime/internal/models"
	"github.com/Novip1906/tasks-realtime/pkg/logging"
)

type FilesStorage interface {
	GetTask(ctx context.Context, ownerId, taskId string) (*models.Task, error)
	CreateFile(ctx context.Context, file *models.FileRecord) error
	GetFile(ctx context.Context, ownerId, fileId string) (*models.FileRecord, error)
	ListFilesByTask(ctx context.Context, ownerId, taskId string) ([]*models.FileRecord, error)
	ListFilesForTask(ctx context.Context, taskId string) ([]*models.FileRecord, error)
	DeleteFile(ctx context.Context, ownerId, fileId string) error
	DeleteFilesByTask(ctx context.Context, taskId string) (int64, error)
}

type ArtifactRemover interface {
	Remove(storagePath string) error
}

// FilesService owns attachment records. Every record is bound to one task and
// carries that task's owner.
type FilesService struct {
	db        FilesStorage
	artifacts ArtifactRemover
}

func NewFilesService(db FilesStorage, artifacts ArtifactRemover) *FilesService {
	return &FilesService{db: db, artifacts: artifacts}
}

func (s *FilesService) Save(ctx context.Context, meta models.FileMeta, taskId string, owner *models.Identity) (*models.FileRecord, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	log := contextkeys.GetLogger(ctx).With(slog.String("task_id", taskId))

	if meta.Size <= 0 {
		return nil, appErrors.Validation("file must not be empty")
	}

	if err := s.ensureTaskOwned(ctx, taskId, owner); err != nil {
		return nil, err
	}

	file := &models.FileRecord{
		Id:           uuid.NewString(),
		Filename:     meta.Filename,
		OriginalName: meta.OriginalName,
		Mimetype:     meta.Mimetype,
		Size:         meta.Size,
		StoragePath:  meta.StoragePath,
		TaskId:       taskId,
		OwnerId:      owner.Id,
	}

	if err := s.db.CreateFile(ctx, file); err != nil {
		log.Error("db error", logging.DbErr("CreateFile", err))
		return nil, fmt.Errorf("create file: %w", err)
	}

	log.Info("file saved", slog.String("file_id", file.Id), slog.Int64("size", file.Size))
	return file, nil
}

func (s *FilesService) FindOne(ctx context.Context, fileId string, owner *models.Identity) (*models.FileRecord, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}

	file, err := s.db.GetFile(ctx, owner.Id, fileId)
	if errors.Is(err, appErrors.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		contextkeys.GetLogger(ctx).Error("db error", slog.String("file_id", fileId), logging.DbErr("GetFile", err))
		return nil, fmt.Errorf("get file: %w", err)
	}
	return file, nil
}

func (s *FilesService) ListByTask(ctx context.Context, taskId string, owner *models.Identity) ([]*models.FileRecord, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	if err := s.ensureTaskOwned(ctx, taskId, owner); err != nil {
		return nil, err
	}

	files, err := s.db.ListFilesByTask(ctx, owner.Id, taskId)
	if err != nil {
		contextkeys.GetLogger(ctx).Error("db error", slog.String("task_id", taskId), logging.DbErr("ListFilesByTask", err))
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}

func (s *FilesService) Delete(ctx context.Context, fileId string, owner *models.Identity) error {
	file, err := s.FindOne(ctx, fileId, owner)
	if err != nil {
		return err
	}
	log := contextkeys.GetLogger(ctx).With(slog.String("file_id", fileId))

	s.removeArtifact(log, file)

	if err := s.db.DeleteFile(ctx, owner.Id, fileId); err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return err
		}
		log.Error("db error", logging.DbErr("DeleteFile", err))
		return fmt.Errorf("delete file: %w", err)
	}

	log.Info("file deleted")
	return nil
}

// DeleteAllForTask does not check ownership; the caller verified it through the task.
// Artifact removal failures are logged and skipped, the records are always deleted.
func (s *FilesService) DeleteAllForTask(ctx context.Context, taskId string) error {
	log := contextkeys.GetLogger(ctx).With(slog.String("task_id", taskId))

	files, err := s.db.ListFilesForTask(ctx, taskId)
	if err != nil {
		log.Error("db error", logging.DbErr("ListFilesForTask", err))
		return fmt.Errorf("list task files: %w", err)
	}

	for _, file := range files {
		s.removeArtifact(log, file)
	}

	deleted, err := s.db.DeleteFilesByTask(ctx, taskId)
	if err != nil {
		log.Error("db error", logging.DbErr("DeleteFilesByTask", err))
		return fmt.Errorf("delete task files: %w", err)
	}

	if deleted > 0 {
		log.Info("task files deleted", slog.Int64("count", deleted))
	}
	return nil
}

func (s *FilesService) removeArtifact(log *slog.Logger, file *models.FileRecord) {
	if err := s.artifacts.Remove(file.StoragePath); err != nil {
		log.Error("artifact removal failed",
			slog.String("file_id", file.Id),
			slog.String("path", file.StoragePath),
			logging.Err(fmt.Errorf("%w: %v", appErrors.ErrStorage, err)),
		)
	}
}

func (s *FilesService) ensureTaskOwned(ctx context.Context, taskId string, owner *models.Identity) error {
	_, err := s.db.GetTask(ctx, owner.Id, taskId)
	if errors.Is(err, appErrors.ErrNotFound) {
		return err
	}
	if err != nil {
		contextkeys.GetLogger(ctx).Error("db error", slog.String("task_id", taskId), logging.DbErr("GetTask", err))
		return fmt.Errorf("get task: %w", err)
	}
	return nil
}
