package audit

import (
	"context"
	"errors"
	"testing"

	"construct-authz/core/internal/audit/domain"
	policydomain "construct-authz/core/internal/policy/domain"
)

type mockRepo struct {
	entries []*domain.AuditLog
	err     error
}

func (m *mockRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockRepo) ListByAccount(ctx context.Context, accountID string, limit, offset int32) ([]*domain.AuditLog, error) {
	return nil, nil
}

func (m *mockRepo) ListByProject(ctx context.Context, projectID string, limit, offset int32) ([]*domain.AuditLog, error) {
	return nil, nil
}

var denyRef = policydomain.ResourceRef{Kind: policydomain.KindScopeItem, ID: "si-1", ProjectID: "p1"}

func TestLogDecision_RecordsDenyAndRedact(t *testing.T) {
	repo := &mockRepo{}
	l := NewLogger(repo)

	l.LogDecision(context.Background(), "acc-1", denyRef, policydomain.OpRead, policydomain.Deny)
	l.LogDecision(context.Background(), "acc-1", denyRef, policydomain.OpRead, policydomain.Redact)

	if len(repo.entries) != 2 {
		t.Fatalf("recorded %d entries, want 2", len(repo.entries))
	}
	e := repo.entries[0]
	if e.Outcome != "deny" || e.Action != "authorize" {
		t.Errorf("entry = %+v", e)
	}
	if e.Resource != "scope_item:si-1" {
		t.Errorf("Resource = %q, want scope_item:si-1", e.Resource)
	}
	if e.ProjectID != "p1" {
		t.Errorf("ProjectID = %q, want p1", e.ProjectID)
	}
	if repo.entries[1].Outcome != "redact" {
		t.Errorf("second outcome = %q, want redact", repo.entries[1].Outcome)
	}
}

func TestLogDecision_SkipsAllows(t *testing.T) {
	repo := &mockRepo{}
	l := NewLogger(repo)

	l.LogDecision(context.Background(), "acc-1", denyRef, policydomain.OpRead, policydomain.Allow)

	if len(repo.entries) != 0 {
		t.Errorf("recorded %d entries for an allow, want 0", len(repo.entries))
	}
}

func TestLogDecision_NilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.LogDecision(context.Background(), "acc-1", denyRef, policydomain.OpRead, policydomain.Deny)
	l.LogRebuild(context.Background(), "acc-1", nil)
}

func TestLogDecision_RepoFailureDoesNotPanic(t *testing.T) {
	l := NewLogger(&mockRepo{err: errors.New("table missing")})
	l.LogDecision(context.Background(), "acc-1", denyRef, policydomain.OpRead, policydomain.Deny)
}

func TestLogRebuild_Outcomes(t *testing.T) {
	repo := &mockRepo{}
	l := NewLogger(repo)

	l.LogRebuild(context.Background(), "acc-1", nil)
	l.LogRebuild(context.Background(), "acc-1", errors.New("derive failed"))

	if len(repo.entries) != 2 {
		t.Fatalf("recorded %d entries, want 2", len(repo.entries))
	}
	if repo.entries[0].Outcome != "completed" {
		t.Errorf("outcome = %q, want completed", repo.entries[0].Outcome)
	}
	if repo.entries[1].Outcome != "failed" || repo.entries[1].Metadata == "" {
		t.Errorf("failed entry = %+v", repo.entries[1])
	}
}

func TestFormatResource(t *testing.T) {
	if got := FormatResource(denyRef); got != "scope_item:si-1" {
		t.Errorf("FormatResource = %q", got)
	}
	bare := policydomain.ResourceRef{Kind: policydomain.KindProject}
	if got := FormatResource(bare); got != "project" {
		t.Errorf("FormatResource without id = %q", got)
	}
}
