// Package guard provides handler-level helpers the business layer calls at
// the top of each RPC. They pull identity from context, route the check
// through the policy evaluator, and translate verdicts into gRPC status
// errors, so endpoints never hand-roll access logic.
package guard

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"construct-authz/core/internal/policy/domain"
	"construct-authz/core/internal/server/interceptors"
)

// Authorizer is the decision point the guards route through. Implemented by
// policy/engine.Authorizer.
type Authorizer interface {
	Authorize(ctx context.Context, accountID string, ref domain.ResourceRef, op domain.Operation, field string) (domain.Decision, error)
}

// RequireRead ensures the caller is authenticated and may read the resource.
// Returns (accountID, redactCosts, nil) on success; redactCosts is true when
// the read must pass through the redaction view. Denials surface as NotFound
// so existence never leaks.
func RequireRead(ctx context.Context, authz Authorizer, ref domain.ResourceRef) (accountID string, redactCosts bool, err error) {
	accountID, err = callerID(ctx)
	if err != nil {
		return "", false, err
	}
	decision, err := authz.Authorize(ctx, accountID, ref, domain.OpRead, "")
	if err != nil {
		return "", false, status.Error(codes.Internal, "authorization unavailable")
	}
	switch decision {
	case domain.Allow:
		return accountID, false, nil
	case domain.Redact:
		return accountID, true, nil
	default:
		return "", false, status.Error(codes.NotFound, "resource not found")
	}
}

// RequireWrite ensures the caller is authenticated and may mutate the
// resource. Denials surface as NotFound, same as reads.
func RequireWrite(ctx context.Context, authz Authorizer, ref domain.ResourceRef) (accountID string, err error) {
	accountID, err = callerID(ctx)
	if err != nil {
		return "", err
	}
	decision, err := authz.Authorize(ctx, accountID, ref, domain.OpWrite, "")
	if err != nil {
		return "", status.Error(codes.Internal, "authorization unavailable")
	}
	if decision != domain.Allow {
		return "", status.Error(codes.NotFound, "resource not found")
	}
	return accountID, nil
}

// RequireCostVisibility reports whether the caller may see the named cost
// field on the resource. Used by list endpoints that project many rows at
// once: ok false means redact, an error means the request itself is denied.
func RequireCostVisibility(ctx context.Context, authz Authorizer, ref domain.ResourceRef, field string) (visible bool, err error) {
	accountID, err := callerID(ctx)
	if err != nil {
		return false, err
	}
	decision, err := authz.Authorize(ctx, accountID, ref, domain.OpRead, field)
	if err != nil {
		return false, status.Error(codes.Internal, "authorization unavailable")
	}
	switch decision {
	case domain.Allow:
		return true, nil
	case domain.Redact:
		return false, nil
	default:
		return false, status.Error(codes.NotFound, "resource not found")
	}
}

func callerID(ctx context.Context) (string, error) {
	accountID, ok := interceptors.GetAccountID(ctx)
	if !ok || accountID == "" {
		return "", status.Error(codes.Unauthenticated, "account context required")
	}
	return accountID, nil
}
