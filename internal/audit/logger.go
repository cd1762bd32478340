// Package audit records authorization outcomes and cache events best-effort.
// A failed audit write never fails the caller: a deny must stay a deny even
// when the audit table is down.
package audit

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"construct-authz/core/internal/audit/domain"
	auditrepo "construct-authz/core/internal/audit/repository"
	policydomain "construct-authz/core/internal/policy/domain"
)

// Logger writes audit entries through the repository. A nil *Logger is safe
// to call and records nothing, so wiring audit is optional.
type Logger struct {
	repo auditrepo.Repository
	nowF func() time.Time
}

// NewLogger returns a Logger persisting to repo.
func NewLogger(repo auditrepo.Repository) *Logger {
	return &Logger{
		repo: repo,
		nowF: func() time.Time { return time.Now().UTC() },
	}
}

// LogDecision records a deny or redact verdict. Allows are not recorded.
// Best-effort: errors are logged and not returned.
func (l *Logger) LogDecision(ctx context.Context, accountID string, ref policydomain.ResourceRef, op policydomain.Operation, decision policydomain.Decision) {
	if l == nil || l.repo == nil || decision == policydomain.Allow {
		return
	}
	l.write(ctx, &domain.AuditLog{
		ID:        uuid.New().String(),
		AccountID: accountID,
		ProjectID: ref.ProjectID,
		Action:    "authorize",
		Resource:  FormatResource(ref),
		Outcome:   decision.String(),
		Metadata:  fmt.Sprintf(`{"operation":%q}`, string(op)),
		CreatedAt: l.nowF(),
	})
}

// LogRebuild records the outcome of a cache rebuild for an account.
// Best-effort: errors are logged and not returned.
func (l *Logger) LogRebuild(ctx context.Context, accountID string, err error) {
	if l == nil || l.repo == nil {
		return
	}
	outcome := "completed"
	metadata := ""
	if err != nil {
		outcome = "failed"
		metadata = fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	l.write(ctx, &domain.AuditLog{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Action:    "rebuild",
		Resource:  "permission_records",
		Outcome:   outcome,
		Metadata:  metadata,
		CreatedAt: l.nowF(),
	})
}

func (l *Logger) write(ctx context.Context, entry *domain.AuditLog) {
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to write entry for account %s: %v", entry.AccountID, err)
	}
}

// FormatResource renders a resource reference as "kind:id" for audit rows.
func FormatResource(ref policydomain.ResourceRef) string {
	if ref.ID == "" {
		return string(ref.Kind)
	}
	return string(ref.Kind) + ":" + ref.ID
}
