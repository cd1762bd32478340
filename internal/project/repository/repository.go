package repository

import (
	"context"

	"construct-authz/core/internal/project/domain"
)

// Repository defines the read surface the core needs over projects.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	// ListActiveIDs returns the ids of all active projects. Used when
	// rebuilding the cache for sees-all roles.
	ListActiveIDs(ctx context.Context) ([]string, error)
}
