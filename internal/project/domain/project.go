package domain

import "time"

// Project is the business project entity as the authorization core sees it.
// The full schema (numbering, status triggers, documents) is owned by the
// business layer; the core only needs identity and the client link.
type Project struct {
	ID        string
	Name      string
	ClientID  string // empty when the project has no external client
	Active    bool
	CreatedAt time.Time
}
