package repository

import (
	"context"
	"database/sql"
	"errors"

	"construct-authz/core/internal/claims/domain"
	"construct-authz/core/internal/role"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a claim repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the claim for accountID, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) Get(ctx context.Context, accountID string) (*domain.Claim, error) {
	var c domain.Claim
	var roleStr string
	err := r.db.QueryRowContext(ctx,
		`SELECT account_id, role, active, updated_at FROM role_claims WHERE account_id = $1`,
		accountID).Scan(&c.AccountID, &roleStr, &c.Active, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.Role = role.Role(roleStr)
	return &c, nil
}

// Upsert writes the claim, replacing any previous value for the account.
func (r *PostgresRepository) Upsert(ctx context.Context, c *domain.Claim) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO role_claims (account_id, role, active, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (account_id)
		 DO UPDATE SET role = EXCLUDED.role, active = EXCLUDED.active, updated_at = EXCLUDED.updated_at`,
		c.AccountID, string(c.Role), c.Active, c.UpdatedAt)
	return err
}
