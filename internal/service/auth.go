package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Novip1906/tasks-realtime/internal/contextkeys"
	appErrors "github.com/Novip1906/tasks-realtime/internal/errors"
	"github.com/Novip1906/tasks-realtime/internal/models"
	"github.com/Novip1906/tasks-realtime/pkg/logging"
)

const (
	bcryptCost     = 8
	minPasswordLen = 6
	minUsernameLen = 2
	maxUsernameLen = 50
)

type UsersStorage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type TokenIssuer interface {
	Issue(user *models.User) (string, error)
}

type AuthService struct {
	db     UsersStorage
	issuer TokenIssuer
}

func NewAuthService(db UsersStorage, issuer TokenIssuer) *AuthService {
	return &AuthService{db: db, issuer: issuer}
}

func (s *AuthService) Register(ctx context.Context, email, password, username string) (*models.User, string, error) {
	log := contextkeys.GetLogger(ctx)

	email = normalizeEmail(email)
	username = strings.TrimSpace(username)
	if err := validateCredentials(email, password); err != nil {
		return nil, "", err
	}
	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return nil, "", appErrors.Validation("username must be %d-%d characters", minUsernameLen, maxUsernameLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		log.Error("hash password", logging.Err(err))
		return nil, "", fmt.Errorf("%w: hash password", appErrors.ErrInternal)
	}

	user := &models.User{
		Id:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
	}

	if err := s.db.CreateUser(ctx, user); err != nil {
		if errors.Is(err, appErrors.ErrUserAlreadyExists) {
			return nil, "", err
		}
		log.Error("db error", logging.DbErr("CreateUser", err))
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.issue(log, user)
	if err != nil {
		return nil, "", err
	}

	log.Info("user registered", slog.String("user_id", user.Id))
	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	log := contextkeys.GetLogger(ctx)

	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, "", err
	}

	user, err := s.db.GetUserByEmail(ctx, email)
	if errors.Is(err, appErrors.ErrNotFound) {
		return nil, "", appErrors.ErrWrongPassword
	}
	if err != nil {
		log.Error("db error", logging.DbErr("GetUserByEmail", err))
		return nil, "", fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Info("wrong password", slog.String("user_id", user.Id))
		return nil, "", appErrors.ErrWrongPassword
	}

	token, err := s.issue(log, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) issue(log *slog.Logger, user *models.User) (string, error) {
	token, err := s.issuer.Issue(user)
	if err != nil {
		log.Error("issue token", logging.Err(err))
		return "", fmt.Errorf("%w: issue token", appErrors.ErrInternal)
	}
	return token, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	if email == "" {
		return appErrors.Validation("email is required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return appErrors.Validation("email must be a valid address")
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return appErrors.Validation("password must be at least %d characters", minPasswordLen)
	}
	return nil
}
