// Package claims keeps a query-free copy of each account's role available to
// the policy evaluator. Any rule of the form "check my own role to decide
// access to account rows" reads this store, never the accounts table, which is
// what breaks the self-referential recursion the design exists to prevent.
package claims

import (
	"context"
	"fmt"
	"time"

	"construct-authz/core/internal/claims/domain"
	"construct-authz/core/internal/claims/repository"
	"construct-authz/core/internal/role"
)

// Synchronizer propagates committed role changes into the claim store.
type Synchronizer struct {
	repo repository.Repository
	nowF func() time.Time
}

// NewSynchronizer returns a Synchronizer over the given claim repository.
func NewSynchronizer(repo repository.Repository) *Synchronizer {
	return &Synchronizer{
		repo: repo,
		nowF: func() time.Time { return time.Now().UTC() },
	}
}

// SyncOnRoleChange writes the account's new role into the claim store. Callers
// must invoke it after the role mutation has committed, never before: a claim
// must never get ahead of the committed row a concurrent reader could see.
func (s *Synchronizer) SyncOnRoleChange(ctx context.Context, accountID string, newRole role.Role, active bool) error {
	c := &domain.Claim{
		AccountID: accountID,
		Role:      newRole,
		Active:    active,
		UpdatedAt: s.nowF(),
	}
	if err := s.repo.Upsert(ctx, c); err != nil {
		return fmt.Errorf("sync claim for account %s: %w", accountID, err)
	}
	return nil
}

// Current returns the account's synced claim, or nil if none exists. Callers
// must treat nil and errors as "no capabilities" (fail closed).
func (s *Synchronizer) Current(ctx context.Context, accountID string) (*domain.Claim, error) {
	return s.repo.Get(ctx, accountID)
}
