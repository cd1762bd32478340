package repository

import (
	"context"

	"construct-authz/core/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	ListByAccount(ctx context.Context, accountID string, limit, offset int32) ([]*domain.AuditLog, error)
	ListByProject(ctx context.Context, projectID string, limit, offset int32) ([]*domain.AuditLog, error)
}
