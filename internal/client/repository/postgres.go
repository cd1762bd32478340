package repository

import (
	"context"
	"database/sql"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a client-link repository that uses the given db for reads.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ProjectOwnedByAccountClient reports whether the project's client is owned by
// the account.
func (r *PostgresRepository) ProjectOwnedByAccountClient(ctx context.Context, accountID, projectID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM projects p
		 JOIN clients c ON c.id = p.client_id
		 WHERE p.id = $1 AND c.owner_account_id = $2`,
		projectID, accountID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
