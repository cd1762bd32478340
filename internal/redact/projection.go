package redact

import "strconv"

// ScopeItemView is the read projection of a scope item. The business layer
// fills it from its own tables and hands it through Apply before returning it
// to any caller.
type ScopeItemView struct {
	ID          string
	ProjectID   string
	Code        string
	Description string
	Quantity    float64
	UnitPrice   Money
	TotalPrice  Money
}

// RedactCosts hides the monetary fields.
func (v *ScopeItemView) RedactCosts() {
	v.UnitPrice.Redact()
	v.TotalPrice.Redact()
}

// InvoiceView is the read projection of an invoice.
type InvoiceView struct {
	ID        string
	ProjectID string
	Number    string
	Status    string
	Amount    Money
}

// RedactCosts hides the monetary fields.
func (v *InvoiceView) RedactCosts() {
	v.Amount.Redact()
}

// ProjectView is the read projection of a project.
type ProjectView struct {
	ID            string
	Name          string
	Status        string
	ContractValue Money
	Budget        Money
}

// RedactCosts hides the monetary fields.
func (v *ProjectView) RedactCosts() {
	v.ContractValue.Redact()
	v.Budget.Redact()
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
