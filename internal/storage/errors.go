package storage

import (
	"errors"
	"fmt"

	appErrors "github.com/Novip1906/tasks-realtime/internal/errors"
)

var (
	ErrTaskNotFound  = fmt.Errorf("task %w", appErrors.ErrNotFound)
	ErrFileNotFound  = fmt.Errorf("file %w", appErrors.ErrNotFound)
	ErrUserNotFound  = fmt.Errorf("user %w", appErrors.ErrNotFound)
	ErrEmailTaken    = fmt.Errorf("email: %w", appErrors.ErrUserAlreadyExists)
	ErrUnknownDriver = errors.New("unknown db driver")
)
