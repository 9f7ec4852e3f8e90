package service

import (
	"fmt"

	appErrors "github.com/Novip1906/tasks-realtime/internal/errors"
	"github.com/Novip1906/tasks-realtime/internal/models"
)

// requireOwner is the first check of every owner-scoped operation.
func requireOwner(owner *models.Identity) error {
	if owner == nil || owner.Id == "" {
		return fmt.Errorf("%w: no identity", appErrors.ErrUnauthenticated)
	}
	return nil
}
