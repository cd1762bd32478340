package repository

import (
	"context"

	"construct-authz/core/internal/account/domain"
	"construct-authz/core/internal/role"
)

// Repository defines persistence for accounts.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
	// UpdateRole sets the account's role and returns the previous role.
	// Returns ("", nil, ...) semantics via (*domain.Account, error): the
	// updated account, or nil if the account does not exist.
	UpdateRole(ctx context.Context, id string, newRole role.Role) (*domain.Account, error)
	// Deactivate soft-deletes the account. Existing references stay intact.
	Deactivate(ctx context.Context, id string) error
}
