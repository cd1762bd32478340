package repository

import (
	"context"
	"database/sql"
	"errors"

	"construct-authz/core/internal/account/domain"
	"construct-authz/core/internal/role"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an account repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, email, name, role, active, created_at, updated_at`

// GetByID returns the account for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// GetByEmail returns the account for email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	return scanAccount(row)
}

// Create persists the account. The account must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, name, role, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.Email, a.Name, string(a.Role), a.Active, a.CreatedAt, a.UpdatedAt)
	return err
}

// UpdateRole sets the account's role and returns the updated account, or nil
// if the account does not exist.
func (r *PostgresRepository) UpdateRole(ctx context.Context, id string, newRole role.Role) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE accounts SET role = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING `+accountColumns, id, string(newRole))
	return scanAccount(row)
}

// Deactivate marks the account inactive. No-op if the account does not exist.
func (r *PostgresRepository) Deactivate(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET active = false, updated_at = now() WHERE id = $1`, id)
	return err
}

func scanAccount(row *sql.Row) (*domain.Account, error) {
	var a domain.Account
	var roleStr string
	err := row.Scan(&a.ID, &a.Email, &a.Name, &roleStr, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a.Role = role.Role(roleStr)
	return &a, nil
}
