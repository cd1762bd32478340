package repository

import (
	"context"

	"construct-authz/core/internal/assignment/domain"
)

// Repository defines persistence for assignments.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Assignment, error)
	// ListActiveByAccount returns all active assignments for the account.
	ListActiveByAccount(ctx context.Context, accountID string) ([]*domain.Assignment, error)
	// ListActiveByProject returns all active assignments on the project.
	ListActiveByProject(ctx context.Context, projectID string) ([]*domain.Assignment, error)
	// ListAccountIDsByProject returns the distinct account ids with any
	// assignment (active or not) on the project. Used to scope cache rebuilds.
	ListAccountIDsByProject(ctx context.Context, projectID string) ([]string, error)
	Create(ctx context.Context, a *domain.Assignment) error
	// Deactivate marks the (project, account, capacity) assignment inactive.
	Deactivate(ctx context.Context, accountID, projectID string, capacity domain.Capacity) error
	// HasActiveWriteCapacity reports whether the account holds any active
	// assignment on the project whose capacity carries write authority.
	HasActiveWriteCapacity(ctx context.Context, accountID, projectID string) (bool, error)
}
