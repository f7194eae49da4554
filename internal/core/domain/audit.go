package domain

import "time"

// AuditEntry records one sensitive read for later compliance review. Entries
// are append-only; retention and deletion belong to the surrounding platform.
type AuditEntry struct {
	ID           int64
	TenantID     string
	Action       string
	ResourceType string
	ResourceID   string
	UserAgent    string
	CreatedAt    time.Time
}

type AuditFilter struct {
	TenantID     string
	Action       string
	ResourceType string
	ResourceID   string
	AfterID      int64
	Limit        int
}
