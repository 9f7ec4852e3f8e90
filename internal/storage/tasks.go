package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Novip1906/tasks-realtime/internal/models"
	"github.com/Novip1906/tasks-realtime/internal/query"
)

const taskColumns = "id, title, description, priority, completed, due_date, owner_id, created_at, updated_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*models.Task, error) {
	var (
		task        models.Task
		description sql.NullString
		dueDate     sql.NullTime
		priority    string
	)
	err := row.Scan(
		&task.Id,
		&task.Title,
		&description,
		&priority,
		&task.Completed,
		&dueDate,
		&task.OwnerId,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Priority = models.Priority(priority)
	if description.Valid {
		task.Description = &description.String
	}
	if dueDate.Valid {
		t := dueDate.Time.UTC()
		task.DueDate = &t
	}
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
	return &task, nil
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func utcPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Truncate(time.Microsecond)
}

func (s *Storage) CreateTask(ctx context.Context, task *models.Task) error {
	ts := now()
	task.CreatedAt, task.UpdatedAt = ts, ts

	query := "INSERT INTO tasks (" + taskColumns + ") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)"
	_, err := s.db.ExecContext(ctx, query,
		task.Id,
		task.Title,
		task.Description,
		string(task.Priority),
		task.Completed,
		utcPtr(task.DueDate),
		task.OwnerId,
		task.CreatedAt,
		task.UpdatedAt,
	)
	return err
}

// GetTask returns ErrTaskNotFound both for unknown ids and for tasks owned by someone else.
func (s *Storage) GetTask(ctx context.Context, ownerId, taskId string) (*models.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE id = $1 AND owner_id = $2"

	task, err := scanTask(s.db.QueryRowContext(ctx, query, taskId, ownerId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

// ListTasks returns one page of the owner's tasks and the size of the whole filtered set.
func (s *Storage) ListTasks(ctx context.Context, ownerId string, filter models.TaskFilter) ([]*models.Task, int, error) {
	stmt := query.Build(ownerId, filter)

	var total int
	countQuery := "SELECT COUNT(*) FROM tasks WHERE " + stmt.Where
	if err := s.db.QueryRowContext(ctx, countQuery, stmt.Args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	n := len(stmt.Args)
	listQuery := fmt.Sprintf(
		"SELECT %s FROM tasks WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d",
		taskColumns, stmt.Where, stmt.OrderBy, n+1, n+2,
	)
	args := append(append([]any{}, stmt.Args...), stmt.Limit, stmt.Offset)

	rows, err := s.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0, stmt.Limit)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, task)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// UpdateTask writes only the fields present in the patch.
func (s *Storage) UpdateTask(ctx context.Context, ownerId, taskId string, patch models.TaskPatch) error {
	var (
		sets []string
		args []any
	)
	set := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Description.Set {
		set("description", patch.Description.Value)
	}
	if patch.Priority != nil {
		set("priority", string(*patch.Priority))
	}
	if patch.Completed != nil {
		set("completed", *patch.Completed)
	}
	if patch.DueDate.Set {
		set("due_date", utcPtr(patch.DueDate.Value))
	}
	set("updated_at", now())

	args = append(args, taskId, ownerId)
	query := fmt.Sprintf(
		"UPDATE tasks SET %s WHERE id = $%d AND owner_id = $%d",
		strings.Join(sets, ", "), len(args)-1, len(args),
	)

	return s.execOne(ctx, query, ErrTaskNotFound, args...)
}

func (s *Storage) ToggleTaskCompleted(ctx context.Context, ownerId, taskId string) error {
	query := "UPDATE tasks SET completed = NOT completed, updated_at = $1 WHERE id = $2 AND owner_id = $3"
	return s.execOne(ctx, query, ErrTaskNotFound, now(), taskId, ownerId)
}

func (s *Storage) DeleteTask(ctx context.Context, ownerId, taskId string) error {
	query := "DELETE FROM tasks WHERE id = $1 AND owner_id = $2"
	return s.execOne(ctx, query, ErrTaskNotFound, taskId, ownerId)
}

func (s *Storage) execOne(ctx context.Context, query string, notFound error, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
