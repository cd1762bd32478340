package domain

import "time"

// Assignment links an account to a project in a given capacity. An account may
// hold several concurrent assignments across projects; (project, account,
// capacity) is unique. Removal deactivates the row rather than deleting it so
// the audit history survives.
type Assignment struct {
	ID        string
	AccountID string
	ProjectID string
	Capacity  Capacity
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Capacity is the function an account serves on a project team.
type Capacity string

const (
	CapacityProjectManager Capacity = "project_manager"
	CapacitySiteEngineer   Capacity = "site_engineer"
	CapacityQuantitySurvey Capacity = "quantity_surveyor"
	CapacityObserver       Capacity = "observer"
)

// CanWrite reports whether the capacity carries write authority on project
// data. Observers and external viewers read only.
func (c Capacity) CanWrite() bool {
	switch c {
	case CapacityProjectManager, CapacitySiteEngineer, CapacityQuantitySurvey:
		return true
	}
	return false
}
