package repository

import (
	"context"

	"construct-authz/core/internal/permcache/domain"
)

// Repository defines persistence for the permission cache.
type Repository interface {
	// ReplaceForAccount atomically replaces every record for the account with
	// the given set. Passing an empty set clears the account's rows.
	ReplaceForAccount(ctx context.Context, accountID string, records []*domain.PermissionRecord) error
	ListByAccount(ctx context.Context, accountID string) ([]*domain.PermissionRecord, error)
	// ListAll returns every record. Used to warm the in-memory snapshot at startup.
	ListAll(ctx context.Context) ([]*domain.PermissionRecord, error)
}
