package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Novip1906/tasks-realtime/internal/models"
	"github.com/Novip1906/tasks-realtime/internal/storage"
)

type fakeStore struct {
	mu    sync.Mutex
	tasks map[string]*models.Task
	files map[string]*models.FileRecord
	users map[string]*models.User

	deleteFilesErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks: map[string]*models.Task{},
		files: map[string]*models.FileRecord{},
		users: map[string]*models.User{},
	}
}

func (s *fakeStore) CreateTask(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	task.CreatedAt, task.UpdatedAt = now, now
	cp := *task
	s.tasks[task.Id] = &cp
	return nil
}

func (s *fakeStore) GetTask(_ context.Context, ownerId, taskId string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskId]
	if !ok || t.OwnerId != ownerId {
		return nil, storage.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *fakeStore) ListTasks(_ context.Context, ownerId string, f models.TaskFilter) ([]*models.Task, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var owned []*models.Task
	for _, t := range s.tasks {
		if t.OwnerId == ownerId {
			cp := *t
			owned = append(owned, &cp)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].Id < owned[j].Id })

	offset := (f.Page - 1) * f.Limit
	if offset > len(owned) {
		offset = len(owned)
	}
	end := min(offset+f.Limit, len(owned))
	return owned[offset:end], len(owned), nil
}

func (s *fakeStore) UpdateTask(_ context.Context, ownerId, taskId string, patch models.TaskPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskId]
	if !ok || t.OwnerId != ownerId {
		return storage.ErrTaskNotFound
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description.Set {
		t.Description = patch.Description.Value
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
	}
	if patch.DueDate.Set {
		t.DueDate = patch.DueDate.Value
	}
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *fakeStore) ToggleTaskCompleted(_ context.Context, ownerId, taskId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskId]
	if !ok || t.OwnerId != ownerId {
		return storage.ErrTaskNotFound
	}
	t.Completed = !t.Completed
	return nil
}

func (s *fakeStore) DeleteTask(_ context.Context, ownerId, taskId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskId]
	if !ok || t.OwnerId != ownerId {
		return storage.ErrTaskNotFound
	}
	delete(s.tasks, taskId)
	return nil
}

func (s *fakeStore) CreateFile(_ context.Context, file *models.FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	file.CreatedAt = time.Now().UTC()
	cp := *file
	s.files[file.Id] = &cp
	return nil
}

func (s *fakeStore) GetFile(_ context.Context, ownerId, fileId string) (*models.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[fileId]
	if !ok || f.OwnerId != ownerId {
		return nil, storage.ErrFileNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *fakeStore) ListFilesByTask(_ context.Context, ownerId, taskId string) ([]*models.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.FileRecord
	for _, f := range s.files {
		if f.TaskId == taskId && f.OwnerId == ownerId {
			cp := *f
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out, nil
}

func (s *fakeStore) ListFilesForTask(_ context.Context, taskId string) ([]*models.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.FileRecord
	for _, f := range s.files {
		if f.TaskId == taskId {
			cp := *f
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out, nil
}

func (s *fakeStore) DeleteFile(_ context.Context, ownerId, fileId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[fileId]
	if !ok || f.OwnerId != ownerId {
		return storage.ErrFileNotFound
	}
	delete(s.files, fileId)
	return nil
}

func (s *fakeStore) DeleteFilesByTask(_ context.Context, taskId string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteFilesErr != nil {
		return 0, s.deleteFilesErr
	}
	var n int64
	for id, f := range s.files {
		if f.TaskId == taskId {
			delete(s.files, id)
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return storage.ErrEmailTaken
		}
	}
	cp := *user
	s.users[user.Id] = &cp
	return nil
}

func (s *fakeStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

type fakeArtifacts struct {
	mu      sync.Mutex
	removed []string
	failOn  map[string]bool
}

func (a *fakeArtifacts) Remove(storagePath string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failOn[storagePath] {
		return errors.New("permission denied")
	}
	a.removed = append(a.removed, storagePath)
	return nil
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []models.Event
}

func (b *recordingBroadcaster) Dispatch(_ context.Context, event models.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBroadcaster) kinds() []models.EventKind {
	b.mu.Lock()
	defer b.mu.Unlock()
	kinds := make([]models.EventKind, 0, len(b.events))
	for _, e := range b.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

type fixture struct {
	store       *fakeStore
	artifacts   *fakeArtifacts
	broadcaster *recordingBroadcaster
	tasks       *TasksService
	files       *FilesService
}

func newFixture() *fixture {
	store := newFakeStore()
	artifacts := &fakeArtifacts{failOn: map[string]bool{}}
	broadcaster := &recordingBroadcaster{}
	files := NewFilesService(store, artifacts)
	return &fixture{
		store:       store,
		artifacts:   artifacts,
		broadcaster: broadcaster,
		tasks:       NewTasksService(store, files, broadcaster),
		files:       files,
	}
}

var (
	alice = &models.Identity{Id: "u-alice", Email: "alice@example.com", Username: "alice"}
	bob   = &models.Identity{Id: "u-bob", Email: "bob@example.com", Username: "bob"}
)
