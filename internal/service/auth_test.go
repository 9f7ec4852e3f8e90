package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Novip1906/tasks-realtime/internal/auth"
	appErrors "github.com/Novip1906/tasks-realtime/internal/errors"
)

func newAuthService() *AuthService {
	return NewAuthService(newFakeStore(), auth.NewIssuer("test-secret", time.Hour))
}

func TestRegisterAndLogin(t *testing.T) {
	s := newAuthService()
	ctx := context.Background()

	user, token, err := s.Register(ctx, " Alice@Example.com ", "secret1", "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	logged, token, err := s.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.Id, logged.Id)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := newAuthService()
	ctx := context.Background()

	_, _, err := s.Register(ctx, "alice@example.com", "secret1", "alice")
	require.NoError(t, err)

	_, _, err = s.Register(ctx, "alice@example.com", "secret2", "alice2")
	assert.ErrorIs(t, err, appErrors.ErrUserAlreadyExists)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		username string
	}{
		{"empty email", "", "secret1", "alice"},
		{"bad email", "not-an-email", "secret1", "alice"},
		{"short password", "alice@example.com", "123", "alice"},
		{"short username", "alice@example.com", "secret1", "a"},
	}

	s := newAuthService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := s.Register(context.Background(), tt.email, tt.password, tt.username)
			assert.ErrorIs(t, err, appErrors.ErrValidation)
		})
	}
}

func TestLoginFailures(t *testing.T) {
	s := newAuthService()
	ctx := context.Background()

	_, _, err := s.Register(ctx, "alice@example.com", "secret1", "alice")
	require.NoError(t, err)

	_, _, err = s.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, appErrors.ErrWrongPassword)

	_, _, err = s.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, appErrors.ErrWrongPassword)
}
