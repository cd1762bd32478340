package domain

import (
	"errors"
	"time"

	"construct-authz/core/internal/role"
)

// Account is a principal that can be authorized. Accounts are never hard
// deleted while referencing data exists; they are deactivated instead.
type Account struct {
	ID        string
	Email     string
	Name      string
	Role      role.Role
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates the account for persistence. Returns an error describing
// the first validation failure.
func (a *Account) Validate() error {
	if a.Email == "" {
		return errors.New("email is required")
	}
	if !a.Role.Valid() {
		return errors.New("unknown role")
	}
	return nil
}
