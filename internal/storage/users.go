package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Novip1906/tasks-realtime/internal/models"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const userColumns = "id, email, username, password_hash, created_at, updated_at"

func scanUser(row scanner) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.Id, &user.Email, &user.Username, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return &user, nil
}

func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	ts := now()
	user.CreatedAt, user.UpdatedAt = ts, ts

	query := "INSERT INTO users (" + userColumns + ") VALUES ($1, $2, $3, $4, $5, $6)"
	_, err := s.db.ExecContext(ctx, query,
		user.Id, user.Email, user.Username, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

func (s *Storage) GetUserById(ctx context.Context, userId string) (*models.User, error) {
	return s.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", userId)
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email)
}

func (s *Storage) getUser(ctx context.Context, query string, arg string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
