package repository

import (
	"context"

	"construct-authz/core/internal/claims/domain"
)

// Repository defines persistence for the claim store.
type Repository interface {
	// Get returns the claim for the account, or nil if none was ever synced.
	Get(ctx context.Context, accountID string) (*domain.Claim, error)
	// Upsert writes the claim, replacing any previous value for the account.
	Upsert(ctx context.Context, c *domain.Claim) error
}
