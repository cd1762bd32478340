package repository

import "context"

// Repository defines the read surface the core needs over client entities.
// Client-role accounts may only reach projects owned by a client they hold;
// that linkage is rare to change and narrow, so it is checked live rather
// than cached.
type Repository interface {
	// ProjectOwnedByAccountClient reports whether the project is linked to a
	// client entity owned by the account.
	ProjectOwnedByAccountClient(ctx context.Context, accountID, projectID string) (bool, error)
}
