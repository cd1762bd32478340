package repository

import (
	"context"
	"database/sql"
	"errors"

	"construct-authz/core/internal/project/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a project repository that uses the given db for reads.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the project for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	var p domain.Project
	var clientID sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, client_id, active, created_at FROM projects WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &clientID, &p.Active, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.ClientID = clientID.String
	return &p, nil
}

// ListActiveIDs returns the ids of all active projects.
func (r *PostgresRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM projects WHERE active ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
