package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	appErrors "github.com/Novip1906/tasks-realtime/internal/errors"
	"github.com/Novip1906/tasks-realtime/internal/models"
)

const bearerPrefix = "Bearer "

type UserLookup interface {
	GetUserById(ctx context.Context, userId string) (*models.User, error)
}

// Verifier turns a bearer token into an identity claim for an existing user.
type Verifier struct {
	secret []byte
	users  UserLookup
}

func NewVerifier(secret string, users UserLookup) *Verifier {
	return &Verifier{secret: []byte(secret), users: users}
}

func (v *Verifier) Verify(ctx context.Context, token string) (*models.Identity, error) {
	token = StripBearer(token)
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", appErrors.ErrUnauthenticated)
	}

	claims, err := decodeToken(token, v.secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErrors.ErrUnauthenticated, err)
	}

	user, err := v.users.GetUserById(ctx, claims.Subject)
	if errors.Is(err, appErrors.ErrNotFound) {
		return nil, appErrors.ErrUnknownUser
	}
	if err != nil {
		return nil, err
	}

	return &models.Identity{Id: user.Id, Email: user.Email, Username: user.Username}, nil
}

// ExtractToken picks the first non-empty source: an explicit auth field, a
// query parameter, then an Authorization header (which must use the Bearer scheme).
func ExtractToken(explicit, query, header string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return StripBearer(explicit)
	}
	if query = strings.TrimSpace(query); query != "" {
		return StripBearer(query)
	}
	if strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	}
	return ""
}

func StripBearer(token string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), bearerPrefix))
}
