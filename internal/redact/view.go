// Package redact applies cost-field redaction at the read boundary. One
// projection for every cost-bearing resource: endpoints never blank fields
// themselves, so adding a cost field to a resource cannot silently leak.
package redact

import "construct-authz/core/internal/policy/domain"

// Sentinel marks a redacted cost value where a textual representation is
// needed. It is deliberately not zero: "no cost" and "hidden cost" must stay
// distinguishable.
const Sentinel = "redacted"

// CostCarrier is implemented by resource projections that carry monetary
// fields. RedactCosts must null the cost fields and record that redaction
// happened; it must not touch anything else.
type CostCarrier interface {
	RedactCosts()
}

// Apply projects the resource according to the evaluator's verdict. Allow
// passes the resource through, Redact strips costs in place, Deny yields nil
// so a denied read is indistinguishable from a missing resource.
func Apply[T CostCarrier](resource T, verdict domain.Decision) (T, bool) {
	var zero T
	switch verdict {
	case domain.Allow:
		return resource, true
	case domain.Redact:
		resource.RedactCosts()
		return resource, true
	default:
		return zero, false
	}
}

// Money is a nullable monetary value used by resource projections. Redacted
// is true when the value was hidden rather than absent.
type Money struct {
	Value    *float64
	Redacted bool
}

// NewMoney returns a visible Money holding v.
func NewMoney(v float64) Money {
	return Money{Value: &v}
}

// Redact clears the value and marks it redacted.
func (m *Money) Redact() {
	m.Value = nil
	m.Redacted = true
}

// String renders the value, the sentinel when redacted, or "" when absent.
func (m Money) String() string {
	if m.Redacted {
		return Sentinel
	}
	if m.Value == nil {
		return ""
	}
	return formatAmount(*m.Value)
}
