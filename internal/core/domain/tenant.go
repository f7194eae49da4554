package domain

import "time"

// Tenant is a merchant account. Every resource the API serves is scoped to the
// tenant its API key resolves to. API keys are stored and compared as opaque
// plaintext values: resolution is exact, case-sensitive equality, kept
// compatible with existing provisioned keys.
type Tenant struct {
	ID        string
	Name      string
	APIKey    string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
