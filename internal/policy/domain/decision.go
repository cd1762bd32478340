// Package domain holds the policy evaluator's request and verdict types.
package domain

import "errors"

// Decision is the outcome of an authorization check. The zero value is Deny so
// an unset decision can never widen access.
type Decision int

const (
	// Deny refuses the operation. Callers must surface it exactly like a
	// missing resource so existence never leaks.
	Deny Decision = iota
	// Allow permits the operation unchanged.
	Allow
	// Redact permits the read but requires cost fields to be replaced with
	// the redaction sentinel before the resource leaves the read boundary.
	Redact
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Redact:
		return "redact"
	default:
		return "deny"
	}
}

// Operation is the access being requested.
type Operation string

const (
	OpRead   Operation = "read"
	OpWrite  Operation = "write"
	OpDelete Operation = "delete"
)

// Mutating reports whether the operation changes data.
func (o Operation) Mutating() bool {
	return o == OpWrite || o == OpDelete
}

// ResourceKind is the closed set of protected resource kinds.
type ResourceKind string

const (
	KindProject    ResourceKind = "project"
	KindScopeItem  ResourceKind = "scope_item"
	KindInvoice    ResourceKind = "invoice"
	KindTask       ResourceKind = "task"
	KindDocument   ResourceKind = "document"
	KindAccount    ResourceKind = "account"
	KindAssignment ResourceKind = "assignment"
)

// ResourceRef identifies the target of an authorization check. ProjectID is
// the owning project for project-scoped kinds; it is empty for account and
// assignment kinds, and for resources the caller could not resolve (which the
// evaluator denies without distinguishing from not-found).
type ResourceRef struct {
	Kind      ResourceKind
	ID        string
	ProjectID string
}

// costFields are the monetary field names subject to redaction. One list at
// the policy boundary: endpoints never decide per-field visibility themselves.
var costFields = map[string]bool{
	"unit_price":     true,
	"total_price":    true,
	"budget":         true,
	"amount":         true,
	"cost":           true,
	"contract_value": true,
}

// IsCostField reports whether the named field carries monetary data.
func IsCostField(name string) bool {
	return costFields[name]
}

// ErrClaimStoreUnavailable reports that the claim store could not be reached.
// The decision is still Deny (fail closed); the error is surfaced separately
// so operators can alert on infrastructure rather than on policy outcomes.
var ErrClaimStoreUnavailable = errors.New("claim store unavailable")

// ErrLinkCheckUnavailable reports that the client-link check could not be
// performed. As with the claim store, the decision stays Deny.
var ErrLinkCheckUnavailable = errors.New("client link check unavailable")
