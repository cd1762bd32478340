// Package role defines the closed set of account roles and the static
// capability mapping derived from them. The mapping is a deploy-time table:
// adding or changing a role is a code change, never a data change.
package role

// Role is an account's role. The set is closed; anything outside it resolves
// to an empty capability set.
type Role string

const (
	Management       Role = "management"
	PurchaseManager  Role = "purchase_manager"
	TechnicalLead    Role = "technical_lead"
	ProjectManager   Role = "project_manager"
	Client           Role = "client"
	Admin            Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case Management, PurchaseManager, TechnicalLead, ProjectManager, Client, Admin:
		return true
	}
	return false
}

// CapabilitySet holds the static grants a role carries. The zero value grants
// nothing, so unknown roles fail closed.
type CapabilitySet struct {
	// SeesAllProjects grants visibility into every project without an assignment.
	SeesAllProjects bool
	// SeesCosts grants visibility into monetary fields.
	SeesCosts bool
	// CanApprove grants approval authority on scope items and invoices.
	CanApprove bool
	// IsExternalClient marks the role as an external client, restricted to
	// projects owned by a client entity the account holds.
	IsExternalClient bool
}

// Empty reports whether the set grants nothing.
func (c CapabilitySet) Empty() bool {
	return c == CapabilitySet{}
}

// Capabilities maps a role to its capability set. Pure and total: every known
// role has an explicit arm, and anything else returns the zero set.
func Capabilities(r Role) CapabilitySet {
	switch r {
	case Management:
		return CapabilitySet{SeesAllProjects: true, SeesCosts: true, CanApprove: true}
	case Admin:
		return CapabilitySet{SeesAllProjects: true, SeesCosts: true, CanApprove: true}
	case PurchaseManager:
		return CapabilitySet{SeesCosts: true, CanApprove: true}
	case TechnicalLead:
		return CapabilitySet{}
	case ProjectManager:
		return CapabilitySet{CanApprove: true}
	case Client:
		return CapabilitySet{IsExternalClient: true}
	default:
		return CapabilitySet{}
	}
}
