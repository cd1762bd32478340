package interceptors

import (
	"context"

	"construct-authz/core/internal/role"
)

type contextKey struct{ name string }

var (
	accountIDKey = contextKey{"account_id"}
	roleKey      = contextKey{"role"}
	activeKey    = contextKey{"active"}
)

// WithIdentity returns a context carrying the caller's account id and role
// claim. Handlers and guards read these via GetAccountID and GetRole instead
// of touching the accounts table.
func WithIdentity(ctx context.Context, accountID string, r role.Role, active bool) context.Context {
	ctx = context.WithValue(ctx, accountIDKey, accountID)
	ctx = context.WithValue(ctx, roleKey, r)
	ctx = context.WithValue(ctx, activeKey, active)
	return ctx
}

// GetAccountID returns the account_id from context and true if set; otherwise "", false.
func GetAccountID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(accountIDKey).(string)
	return v, ok
}

// GetRole returns the role claim from context and true if set; otherwise "", false.
func GetRole(ctx context.Context) (role.Role, bool) {
	v, ok := ctx.Value(roleKey).(role.Role)
	return v, ok
}

// GetActive returns the active claim from context; false when unset.
func GetActive(ctx context.Context) bool {
	v, ok := ctx.Value(activeKey).(bool)
	return ok && v
}
