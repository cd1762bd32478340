// Package events receives role and assignment mutations from the business
// layer and converges the claim store and permission cache after them. Small
// scopes rebuild inline; project-wide scopes can be deferred over a queue so
// writers are never blocked by mass recomputation.
package events

import (
	"time"

	"construct-authz/core/internal/role"
)

// Type discriminates change events on the wire.
type Type string

const (
	TypeRoleChanged       Type = "role_changed"
	TypeAssignmentChanged Type = "assignment_changed"
)

// ChangeEvent is one committed mutation to an account's role or assignment.
// Events must be emitted after the row commit so consumers only ever read
// committed state.
type ChangeEvent struct {
	Type       Type      `json:"type"`
	AccountID  string    `json:"account_id"`
	ProjectID  string    `json:"project_id,omitempty"`
	OldRole    role.Role `json:"old_role,omitempty"`
	NewRole    role.Role `json:"new_role,omitempty"`
	Active     bool      `json:"active"`
	OccurredAt time.Time `json:"occurred_at"`
}
