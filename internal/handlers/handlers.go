// Package handlers exposes the task, attachment and auth services over HTTP+JSON.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Novip1906/tasks-realtime/internal/config"
	"github.com/Novip1906/tasks-realtime/internal/contextkeys"
	appErrors "github.com/Novip1906/tasks-realtime/internal/errors"
	"github.com/Novip1906/tasks-realtime/internal/models"
	"github.com/Novip1906/tasks-realtime/internal/response"
	"github.com/Novip1906/tasks-realtime/pkg/logging"
)

const (
	msgCreated = "Resource created"
	msgUpdated = "Resource updated"
	msgDeleted = "Resource deleted"
	msgOK      = "Request successful"
)

type TasksService interface {
	Create(ctx context.Context, input models.CreateTaskInput, owner *models.Identity) (*models.Task, error)
	FindAll(ctx context.Context, filter models.TaskFilter, owner *models.Identity) (*models.TaskPage, error)
	FindOne(ctx context.Context, taskId string, owner *models.Identity) (*models.Task, error)
	Update(ctx context.Context, taskId string, patch models.TaskPatch, owner *models.Identity) (*models.Task, error)
	ToggleComplete(ctx context.Context, taskId string, owner *models.Identity) (*models.Task, error)
	Remove(ctx context.Context, taskId string, owner *models.Identity) error
}

type FilesService interface {
	Save(ctx context.Context, meta models.FileMeta, taskId string, owner *models.Identity) (*models.FileRecord, error)
	FindOne(ctx context.Context, fileId string, owner *models.Identity) (*models.FileRecord, error)
	ListByTask(ctx context.Context, taskId string, owner *models.Identity) ([]*models.FileRecord, error)
	Delete(ctx context.Context, fileId string, owner *models.Identity) error
}

type AuthService interface {
	Register(ctx context.Context, email, password, username string) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
}

type ArtifactStore interface {
	Save(name string, r io.Reader, limit int64) (string, int64, error)
	Open(storagePath string) (*os.File, error)
	Remove(storagePath string) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	tasks     TasksService
	files     FilesService
	auth      AuthService
	artifacts ArtifactStore
	db        Pinger
	cfg       *config.Config
	startedAt time.Time
}

func New(cfg *config.Config, tasks TasksService, files FilesService, auth AuthService, artifacts ArtifactStore, db Pinger) *Handler {
	return &Handler{
		tasks:     tasks,
		files:     files,
		auth:      auth,
		artifacts: artifacts,
		db:        db,
		cfg:       cfg,
		startedAt: time.Now(),
	}
}

// Register mounts every route on mux. Task and file routes go through requireAuth.
func (h *Handler) Register(mux *http.ServeMux, requireAuth func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /api/health", h.health)
	mux.HandleFunc("POST /api/auth/register", h.register)
	mux.HandleFunc("POST /api/auth/login", h.login)

	protected := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, requireAuth(fn))
	}

	protected("POST /api/tasks", h.createTask)
	protected("GET /api/tasks", h.listTasks)
	protected("GET /api/tasks/{id}", h.getTask)
	protected("PATCH /api/tasks/{id}", h.updateTask)
	protected("DELETE /api/tasks/{id}", h.deleteTask)
	protected("PATCH /api/tasks/{id}/complete", h.toggleTask)
	protected("GET /api/tasks/{id}/files", h.listTaskFiles)

	protected("POST /api/files/upload/{taskId}", h.uploadFile)
	protected("GET /api/files/{id}", h.downloadFile)
	protected("DELETE /api/files/{id}", h.deleteFile)
}

// fail maps an error kind onto a status and writes the error envelope.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, appErrors.ErrValidation):
		response.Fail(w, r, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, appErrors.ErrUnauthenticated),
		errors.Is(err, appErrors.ErrUnknownUser),
		errors.Is(err, appErrors.ErrWrongPassword):
		response.Fail(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, appErrors.ErrNotFound):
		response.Fail(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, appErrors.ErrUserAlreadyExists):
		response.Fail(w, r, http.StatusConflict, "User with this email already exists")
	default:
		contextkeys.GetLogger(r.Context()).Error("unhandled error", logging.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

func validationMessage(err error) string {
	return strings.TrimPrefix(err.Error(), appErrors.ErrValidation.Error()+": ")
}

func identity(r *http.Request) *models.Identity {
	identity, _ := contextkeys.GetIdentity(r.Context())
	return identity
}

func pathUUID(r *http.Request, name string) (string, error) {
	raw := r.PathValue(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", appErrors.Validation("%s must be a UUID", name)
	}
	return id.String(), nil
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		contextkeys.GetLogger(r.Context()).Debug("bad request body", logging.Err(err))
		return appErrors.Validation("request body must be valid JSON")
	}
	return nil
}
