package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Novip1906/tasks-realtime/internal/contextkeys"
	appErrors "github.com/Novip1906/tasks-realtime/internal/errors"
	"github.com/Novip1906/tasks-realtime/internal/models"
	"github.com/Novip1906/tasks-realtime/internal/query"
	"github.com/Novip1906/tasks-realtime/pkg/logging"
)

type TasksStorage interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, ownerId, taskId string) (*models.Task, error)
	ListTasks(ctx context.Context, ownerId string, filter models.TaskFilter) ([]*models.Task, int, error)
	UpdateTask(ctx context.Context, ownerId, taskId string, patch models.TaskPatch) error
	ToggleTaskCompleted(ctx context.Context, ownerId, taskId string) error
	DeleteTask(ctx context.Context, ownerId, taskId string) error
}

type AttachmentCascade interface {
	DeleteAllForTask(ctx context.Context, taskId string) error
}

type Broadcaster interface {
	Dispatch(ctx context.Context, event models.Event)
}

// TasksService coordinates task mutations with the attachment cascade and
// notifies the owner after every committed change.
type TasksService struct {
	db          TasksStorage
	attachments AttachmentCascade
	broadcaster Broadcaster
}

func NewTasksService(db TasksStorage, attachments AttachmentCascade, broadcaster Broadcaster) *TasksService {
	return &TasksService{db: db, attachments: attachments, broadcaster: broadcaster}
}

func (s *TasksService) Create(ctx context.Context, input models.CreateTaskInput, owner *models.Identity) (*models.Task, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	log := contextkeys.GetLogger(ctx)

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	task := &models.Task{
		Id:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		Priority:    priority,
		Completed:   false,
		DueDate:     input.DueDate,
		OwnerId:     owner.Id,
	}

	if err := s.db.CreateTask(ctx, task); err != nil {
		log.Error("db error", logging.DbErr("CreateTask", err))
		return nil, fmt.Errorf("create task: %w", err)
	}

	log.Info("task created", slog.String("task_id", task.Id))

	s.notify(ctx, models.EventTaskCreated, owner.Id, task.Id, task)
	return task, nil
}

func (s *TasksService) FindAll(ctx context.Context, filter models.TaskFilter, owner *models.Identity) (*models.TaskPage, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}

	filter = query.Normalize(filter)
	if err := query.Validate(filter); err != nil {
		return nil, err
	}

	tasks, total, err := s.db.ListTasks(ctx, owner.Id, filter)
	if err != nil {
		contextkeys.GetLogger(ctx).Error("db error", logging.DbErr("ListTasks", err))
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return query.NewPage(tasks, total, filter), nil
}

// FindOne reports a task owned by someone else exactly like a missing one.
func (s *TasksService) FindOne(ctx context.Context, taskId string, owner *models.Identity) (*models.Task, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}

	task, err := s.db.GetTask(ctx, owner.Id, taskId)
	if errors.Is(err, appErrors.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		contextkeys.GetLogger(ctx).Error("db error", slog.String("task_id", taskId), logging.DbErr("GetTask", err))
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

func (s *TasksService) Update(ctx context.Context, taskId string, patch models.TaskPatch, owner *models.Identity) (*models.Task, error) {
	before, err := s.FindOne(ctx, taskId, owner)
	if err != nil {
		return nil, err
	}
	log := contextkeys.GetLogger(ctx).With(slog.String("task_id", taskId))

	if !patch.Empty() {
		if err := s.db.UpdateTask(ctx, owner.Id, taskId, patch); err != nil {
			if errors.Is(err, appErrors.ErrNotFound) {
				return nil, err
			}
			log.Error("db error", logging.DbErr("UpdateTask", err))
			return nil, fmt.Errorf("update task: %w", err)
		}
	}

	task, err := s.FindOne(ctx, taskId, owner)
	if err != nil {
		return nil, err
	}

	log.Info("task updated")

	s.notify(ctx, completionKind(before, task), owner.Id, task.Id, task)
	return task, nil
}

func (s *TasksService) ToggleComplete(ctx context.Context, taskId string, owner *models.Identity) (*models.Task, error) {
	before, err := s.FindOne(ctx, taskId, owner)
	if err != nil {
		return nil, err
	}
	log := contextkeys.GetLogger(ctx).With(slog.String("task_id", taskId))

	if err := s.db.ToggleTaskCompleted(ctx, owner.Id, taskId); err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, err
		}
		log.Error("db error", logging.DbErr("ToggleTaskCompleted", err))
		return nil, fmt.Errorf("toggle task: %w", err)
	}

	task, err := s.FindOne(ctx, taskId, owner)
	if err != nil {
		return nil, err
	}

	log.Info("task completion toggled", slog.Bool("completed", task.Completed))

	s.notify(ctx, completionKind(before, task), owner.Id, task.Id, task)
	return task, nil
}

// Remove deletes attachments before the task itself. Lost artifact bytes are
// tolerated; attachment records pointing at a deleted task are not.
func (s *TasksService) Remove(ctx context.Context, taskId string, owner *models.Identity) error {
	if _, err := s.FindOne(ctx, taskId, owner); err != nil {
		return err
	}
	log := contextkeys.GetLogger(ctx).With(slog.String("task_id", taskId))

	if err := s.attachments.DeleteAllForTask(ctx, taskId); err != nil {
		log.Error("attachment cascade failed", logging.Err(err))
		return fmt.Errorf("delete task attachments: %w", err)
	}

	if err := s.db.DeleteTask(ctx, owner.Id, taskId); err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return err
		}
		log.Error("db error", logging.DbErr("DeleteTask", err))
		return fmt.Errorf("delete task: %w", err)
	}

	log.Info("task deleted")

	s.notify(ctx, models.EventTaskDeleted, owner.Id, taskId, nil)
	return nil
}

func (s *TasksService) notify(ctx context.Context, kind models.EventKind, userId, taskId string, task *models.Task) {
	s.broadcaster.Dispatch(ctx, models.Event{
		Kind:       kind,
		UserId:     userId,
		TaskId:     taskId,
		Task:       task,
		OccurredAt: time.Now().UTC(),
	})
}

// completionKind picks task.completed only for a false to true transition.
func completionKind(before, after *models.Task) models.EventKind {
	if !before.Completed && after.Completed {
		return models.EventTaskCompleted
	}
	return models.EventTaskUpdated
}
