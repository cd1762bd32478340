package repository

import (
	"context"
	"database/sql"
	"errors"

	"construct-authz/core/internal/assignment/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an assignment repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const assignmentColumns = `id, account_id, project_id, capacity, active, created_at, updated_at`

// GetByID returns the assignment for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Assignment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE id = $1`, id)
	a, err := scanAssignment(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// ListActiveByAccount returns all active assignments for the account.
func (r *PostgresRepository) ListActiveByAccount(ctx context.Context, accountID string) ([]*domain.Assignment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+assignmentColumns+` FROM assignments
		 WHERE account_id = $1 AND active ORDER BY created_at`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAssignments(rows)
}

// ListActiveByProject returns all active assignments on the project.
func (r *PostgresRepository) ListActiveByProject(ctx context.Context, projectID string) ([]*domain.Assignment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+assignmentColumns+` FROM assignments
		 WHERE project_id = $1 AND active ORDER BY created_at`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAssignments(rows)
}

// ListAccountIDsByProject returns distinct account ids with any assignment on
// the project, including inactive ones so revocations are re-derived too.
func (r *PostgresRepository) ListAccountIDsByProject(ctx context.Context, projectID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT account_id FROM assignments WHERE project_id = $1`, projectID)
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

// Create persists the assignment. Reactivates the row if an inactive one
// already exists for the same (project, account, capacity).
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Assignment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO assignments (id, account_id, project_id, capacity, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (project_id, account_id, capacity)
		 DO UPDATE SET active = EXCLUDED.active, updated_at = EXCLUDED.updated_at`,
		a.ID, a.AccountID, a.ProjectID, string(a.Capacity), a.Active, a.CreatedAt, a.UpdatedAt)
	return err
}

// Deactivate marks the (project, account, capacity) assignment inactive.
// No-op if there is no such assignment.
func (r *PostgresRepository) Deactivate(ctx context.Context, accountID, projectID string, capacity domain.Capacity) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE assignments SET active = false, updated_at = now()
		 WHERE account_id = $1 AND project_id = $2 AND capacity = $3`,
		accountID, projectID, string(capacity))
	return err
}

// HasActiveWriteCapacity reports whether the account holds any active
// assignment on the project in a capacity with write authority.
func (r *PostgresRepository) HasActiveWriteCapacity(ctx context.Context, accountID, projectID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM assignments
		 WHERE account_id = $1 AND project_id = $2 AND active
		   AND capacity IN ('project_manager', 'site_engineer', 'quantity_surveyor')`,
		accountID, projectID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanAssignment(scan func(...any) error) (*domain.Assignment, error) {
	var a domain.Assignment
	var capacity string
	err := scan(&a.ID, &a.AccountID, &a.ProjectID, &capacity, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Capacity = domain.Capacity(capacity)
	return &a, nil
}

func collectAssignments(rows *sql.Rows) ([]*domain.Assignment, error) {
	var out []*domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
