package domain

import (
	"encoding/json"
	"time"
)

// VerificationEvent is the envelope delivered to merchant webhooks after a
// successful verification.
type VerificationEvent struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	TenantID   string          `json:"tenant_id"`
	PaymentID  string          `json:"payment_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// OutboxEvent is a persisted, not-yet-delivered VerificationEvent. Delivery
// state lives with the row so the dispatcher can retry across restarts.
type OutboxEvent struct {
	ID            int64
	EventID       string
	TenantID      string
	Topic         string
	PayloadJSON   json.RawMessage
	Status        string
	Attempts      int
	NextAttemptAt time.Time
	LastError     string
	CreatedAt     time.Time
	DispatchedAt  *time.Time
}
