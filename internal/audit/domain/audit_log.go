package domain

import "time"

// AuditLog records one authorization outcome or cache event. Denials and
// redactions are written so privilege questions can be answered after the
// fact; plain allows are not, to keep volume bounded.
type AuditLog struct {
	ID        string
	AccountID string
	ProjectID string
	Action    string // e.g. "authorize", "rebuild"
	Resource  string // e.g. "scope_item:42"
	Outcome   string // "deny", "redact", "failed", "completed"
	Metadata  string
	CreatedAt time.Time
}
