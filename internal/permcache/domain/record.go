package domain

import "time"

// PermissionRecord is one row of the derived permission cache: what an account
// may see on one project. It is a materialized function of the account's role
// and its active assignments, never hand-edited. (account, project) is unique.
type PermissionRecord struct {
	AccountID      string
	ProjectID      string
	CanViewProject bool
	CanViewScope   bool
	CanViewCosts   bool
	CanViewTasks   bool
	RebuiltAt      time.Time
}

// Key identifies a record within a snapshot.
type Key struct {
	AccountID string
	ProjectID string
}

// Key returns the snapshot key for the record.
func (r *PermissionRecord) Key() Key {
	return Key{AccountID: r.AccountID, ProjectID: r.ProjectID}
}
