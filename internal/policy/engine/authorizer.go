// Package engine implements the single decision point every data access
// routes through. Verdicts come from the claim store, the permission cache
// snapshot, and the assignment/client-link tables only; the evaluator never
// queries the table it is currently protecting, so no decision can recurse
// into itself.
package engine

import (
	"context"
	"fmt"
	"log"

	claimsdomain "construct-authz/core/internal/claims/domain"
	permdomain "construct-authz/core/internal/permcache/domain"
	"construct-authz/core/internal/policy/domain"
	"construct-authz/core/internal/role"
)

// ClaimReader returns the synced role claim for an account. Implemented by
// claims.Synchronizer.
type ClaimReader interface {
	Current(ctx context.Context, accountID string) (*claimsdomain.Claim, error)
}

// RecordLookup reads the last-published permission cache snapshot. Implemented
// by permcache.Store. Lookups never block on a rebuild in flight.
type RecordLookup interface {
	Lookup(accountID, projectID string) (permdomain.PermissionRecord, bool)
}

// WriteCapacityChecker reports whether an account holds an active assignment
// with write authority on a project. Implemented by the assignment repository.
type WriteCapacityChecker interface {
	HasActiveWriteCapacity(ctx context.Context, accountID, projectID string) (bool, error)
}

// ClientLink reports whether a project belongs to a client entity the account
// owns. Checked live: the linkage is narrow and rarely changes, so it is not
// worth a cache row.
type ClientLink interface {
	ProjectOwnedByAccountClient(ctx context.Context, accountID, projectID string) (bool, error)
}

// Authorizer evaluates access requests. All dependencies are injected so tests
// can stage arbitrary claim and cache states without shared globals.
type Authorizer struct {
	claims     ClaimReader
	records    RecordLookup
	capacities WriteCapacityChecker
	clientLink ClientLink
	rules      *Rules
}

// NewAuthorizer returns an Authorizer over the given stores.
func NewAuthorizer(claims ClaimReader, records RecordLookup, capacities WriteCapacityChecker, clientLink ClientLink, rules *Rules) *Authorizer {
	return &Authorizer{
		claims:     claims,
		records:    records,
		capacities: capacities,
		clientLink: clientLink,
		rules:      rules,
	}
}

// GetCapabilities returns the capability set for the account derived from its
// synced claim. Missing claim, inactive account, or an unreachable claim store
// all yield the empty set; the error is non-nil only for infrastructure
// failures so callers can alert without ever widening access.
func (a *Authorizer) GetCapabilities(ctx context.Context, accountID string) (role.CapabilitySet, error) {
	claim, err := a.claims.Current(ctx, accountID)
	if err != nil {
		return role.CapabilitySet{}, fmt.Errorf("%w: %v", domain.ErrClaimStoreUnavailable, err)
	}
	if claim == nil || !claim.Active {
		return role.CapabilitySet{}, nil
	}
	caps := role.Capabilities(claim.Role)
	if caps.Empty() && !claim.Role.Valid() {
		log.Printf("policy: account %s carries unknown role %q, treating as no capabilities", accountID, claim.Role)
	}
	return caps, nil
}

// Authorize decides the requested operation. Priority order, first match wins:
// sees-all claim allows everything; otherwise the cached record for the
// resource's project gates the operation; client-role accounts fall through to
// the live client-link check; everything else is deny. A named cost field
// turns an allowed read into Redact when the record lacks cost visibility.
//
// The returned error is non-nil only for infrastructure failures; the decision
// is always valid and always Deny alongside an error.
func (a *Authorizer) Authorize(ctx context.Context, accountID string, ref domain.ResourceRef, op domain.Operation, field string) (domain.Decision, error) {
	caps, err := a.GetCapabilities(ctx, accountID)
	if err != nil {
		return domain.Deny, err
	}
	if caps.SeesAllProjects {
		return domain.Allow, nil
	}

	switch ref.Kind {
	case domain.KindAccount, domain.KindAssignment:
		return a.authorizeIdentityKind(accountID, ref, op), nil
	}

	if ref.ProjectID == "" {
		// Unresolvable resources look exactly like denied ones.
		return domain.Deny, nil
	}

	record, ok := a.records.Lookup(accountID, ref.ProjectID)
	if !ok {
		if caps.IsExternalClient {
			return a.authorizeClient(ctx, accountID, ref, op, field)
		}
		return domain.Deny, nil
	}

	required := a.rules.ViewCapability(ref.Kind)
	if required == "" || !recordGrants(record, required) {
		return domain.Deny, nil
	}

	if op.Mutating() {
		canWrite, err := a.capacities.HasActiveWriteCapacity(ctx, accountID, ref.ProjectID)
		if err != nil {
			return domain.Deny, fmt.Errorf("check write capacity: %w", err)
		}
		if !canWrite {
			return domain.Deny, nil
		}
		return domain.Allow, nil
	}

	if field != "" && domain.IsCostField(field) && !record.CanViewCosts {
		return domain.Redact, nil
	}
	return domain.Allow, nil
}

// authorizeIdentityKind gates account and assignment rows using the claim
// alone. By the time we are here the caller is not sees-all, so the only
// grant left is reading your own account row.
func (a *Authorizer) authorizeIdentityKind(accountID string, ref domain.ResourceRef, op domain.Operation) domain.Decision {
	if ref.Kind == domain.KindAccount && ref.ID == accountID && op == domain.OpRead {
		return domain.Allow
	}
	return domain.Deny
}

// authorizeClient handles client-role accounts: read-only access to resources
// in projects owned by a client entity the account holds, with cost fields
// always redacted.
func (a *Authorizer) authorizeClient(ctx context.Context, accountID string, ref domain.ResourceRef, op domain.Operation, field string) (domain.Decision, error) {
	if op.Mutating() {
		return domain.Deny, nil
	}
	owned, err := a.clientLink.ProjectOwnedByAccountClient(ctx, accountID, ref.ProjectID)
	if err != nil {
		return domain.Deny, fmt.Errorf("%w: %v", domain.ErrLinkCheckUnavailable, err)
	}
	if !owned {
		return domain.Deny, nil
	}
	if field != "" && domain.IsCostField(field) {
		return domain.Redact, nil
	}
	return domain.Allow, nil
}

func recordGrants(record permdomain.PermissionRecord, capability string) bool {
	switch capability {
	case "can_view_project":
		return record.CanViewProject
	case "can_view_scope":
		return record.CanViewScope
	case "can_view_costs":
		return record.CanViewCosts
	case "can_view_tasks":
		return record.CanViewTasks
	default:
		return false
	}
}
