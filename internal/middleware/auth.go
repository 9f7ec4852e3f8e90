package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Novip1906/tasks-realtime/internal/contextkeys"
	appErrors "github.com/Novip1906/tasks-realtime/internal/errors"
	"github.com/Novip1906/tasks-realtime/internal/models"
	"github.com/Novip1906/tasks-realtime/internal/response"
	"github.com/Novip1906/tasks-realtime/pkg/logging"
)

type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*models.Identity, error)
}

// AuthMiddleware resolves the bearer token into an identity before the route runs.
func AuthMiddleware(verifier IdentityVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := contextkeys.GetLogger(ctx).With(slog.String("middleware", "auth"))

			header := r.Header.Get("Authorization")
			if header == "" {
				log.Debug("authorization header empty")
				response.Fail(w, r, http.StatusUnauthorized, "Authorization header required")
				return
			}

			identity, err := verifier.Verify(ctx, header)
			switch {
			case err == nil:
			case errors.Is(err, appErrors.ErrUnknownUser):
				log.Info("token rejected", logging.Err(err))
				response.Fail(w, r, http.StatusUnauthorized, "User not found")
				return
			case errors.Is(err, appErrors.ErrUnauthenticated):
				log.Info("token rejected", logging.Err(err))
				response.Fail(w, r, http.StatusUnauthorized, "Invalid or expired token")
				return
			default:
				log.Error("identity lookup failed", logging.Err(err))
				response.Fail(w, r, http.StatusInternalServerError, "Internal server error")
				return
			}

			ctx = contextkeys.WithIdentity(ctx, identity)
			ctx = contextkeys.WithLogger(ctx, contextkeys.GetLogger(ctx).With(slog.String("user_id", identity.Id)))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
