package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Novip1906/tasks-realtime/internal/config"
)

// Storage owns users, tasks and file records. The SQL is kept to the subset
// understood by both Postgres and SQLite so the same queries back dev and prod.
type Storage struct {
	db  *sql.DB
	log *slog.Logger
}

// New opens the store selected by cfg.Driver: "postgres" or "sqlite".
func New(cfg *config.DB, log *slog.Logger) (*Storage, error) {
	switch cfg.Driver {
	case "postgres":
		return NewPostgresStorage(cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, log)
	case "sqlite", "sqlite3":
		return NewSQLiteStorage(cfg.DSN, log)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
}

func NewPostgresStorage(host, port, user, password, dbname string, log *slog.Logger) (*Storage, error) {
	psqlInfo := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname,
	)
	return open("postgres", psqlInfo, log)
}

func NewSQLiteStorage(dsn string, log *slog.Logger) (*Storage, error) {
	s, err := open("sqlite3", dsn, log)
	if err != nil {
		return nil, err
	}
	// a single connection keeps in-memory databases shared and serializes writers
	s.db.SetMaxOpenConns(1)
	if _, err := s.db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("cannot enable foreign keys: %w", err)
	}
	return s, nil
}

func open(driver, dsn string, log *slog.Logger) (*Storage, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("cannot connect to db: %w", err)
	}

	s := &Storage{db: db, log: log}

	if err := s.init(); err != nil {
		return nil, fmt.Errorf("cannot initialize db schema: %w", err)
	}

	return s, nil
}

func (s *Storage) init() error {
	schema := []string{`
	CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(36) PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		username VARCHAR(255) NOT NULL,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`, `
	CREATE TABLE IF NOT EXISTS tasks (
		id VARCHAR(36) PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		description TEXT,
		priority VARCHAR(16) NOT NULL DEFAULT 'medium',
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		due_date TIMESTAMP,
		owner_id VARCHAR(36) NOT NULL REFERENCES users (id),
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`, `
	CREATE INDEX IF NOT EXISTS tasks_owner_idx ON tasks (owner_id, created_at);`, `
	CREATE TABLE IF NOT EXISTS files (
		id VARCHAR(36) PRIMARY KEY,
		filename VARCHAR(255) NOT NULL,
		original_name VARCHAR(255) NOT NULL,
		mimetype VARCHAR(128) NOT NULL,
		size BIGINT NOT NULL,
		path TEXT NOT NULL,
		task_id VARCHAR(36) NOT NULL REFERENCES tasks (id),
		owner_id VARCHAR(36) NOT NULL REFERENCES users (id),
		created_at TIMESTAMP NOT NULL
	);`, `
	CREATE INDEX IF NOT EXISTS files_task_idx ON files (task_id);`,
	}

	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) Close() error {
	return s.db.Close()
}
