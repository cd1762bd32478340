package domain

import (
	"time"

	"construct-authz/core/internal/role"
)

// Claim is the side-channel copy of an account's role and active flag, keyed
// by account id. The evaluator reads it instead of the accounts table so that
// protecting account rows never requires querying account rows.
type Claim struct {
	AccountID string
	Role      role.Role
	Active    bool
	UpdatedAt time.Time
}
