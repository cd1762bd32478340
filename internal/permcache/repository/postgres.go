package repository

import (
	"context"
	"database/sql"
	"fmt"

	"construct-authz/core/internal/permcache/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a permission cache repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const recordColumns = `account_id, project_id, can_view_project, can_view_scope, can_view_costs, can_view_tasks, rebuilt_at`

// ReplaceForAccount deletes and reinserts the account's records in one
// transaction so readers of the table never observe a partial rebuild.
func (r *PostgresRepository) ReplaceForAccount(ctx context.Context, accountID string, records []*domain.PermissionRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM permission_records WHERE account_id = $1`, accountID); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	for _, rec := range records {
		if rec.AccountID != accountID {
			return fmt.Errorf("record for account %q in rebuild of %q", rec.AccountID, accountID)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO permission_records (`+recordColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			rec.AccountID, rec.ProjectID, rec.CanViewProject, rec.CanViewScope,
			rec.CanViewCosts, rec.CanViewTasks, rec.RebuiltAt); err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
	}
	return tx.Commit()
}

// ListByAccount returns the account's records ordered by project id.
func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.PermissionRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM permission_records
		 WHERE account_id = $1 ORDER BY project_id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

// ListAll returns every record ordered by (account_id, project_id).
func (r *PostgresRepository) ListAll(ctx context.Context) ([]*domain.PermissionRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM permission_records ORDER BY account_id, project_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func collectRecords(rows *sql.Rows) ([]*domain.PermissionRecord, error) {
	var out []*domain.PermissionRecord
	for rows.Next() {
		var rec domain.PermissionRecord
		if err := rows.Scan(&rec.AccountID, &rec.ProjectID, &rec.CanViewProject,
			&rec.CanViewScope, &rec.CanViewCosts, &rec.CanViewTasks, &rec.RebuiltAt); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
