package domain

import (
	"encoding/json"
	"time"
)

// Transaction statuses written by the payment pipeline. The verification API
// never transitions a transaction; it only reports the stored status.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusExpired   = "expired"
)

// Transaction is a payment record owned by exactly one tenant. Rows are created
// and mutated by the payment-processing pipeline; this service only reads them.
type Transaction struct {
	ID            string
	TenantID      string
	ReferenceID   string
	Amount        float64
	Currency      string
	Status        string
	PaymentMethod string
	CustomerEmail string
	CustomerPhone string
	Description   string
	Metadata      json.RawMessage
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
	ExpiresAt     *time.Time
}

// TransactionView is the public projection returned to merchants. It carries
// exactly the fields below; the owning tenant id never leaves the service.
type TransactionView struct {
	PaymentID     string          `json:"payment_id"`
	ReferenceID   string          `json:"reference_id"`
	Amount        float64         `json:"amount"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	CustomerEmail string          `json:"customer_email"`
	CustomerPhone string          `json:"customer_phone"`
	Description   string          `json:"description"`
	Metadata      json.RawMessage `json:"metadata"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
	CompletedAt   *string         `json:"completed_at,omitempty"`
	ExpiresAt     *string         `json:"expires_at,omitempty"`
}

const timeFormat = "2006-01-02T15:04:05.999999999Z07:00"

// View projects a stored transaction into its public shape.
func (t Transaction) View() TransactionView {
	view := TransactionView{
		PaymentID:     t.ID,
		ReferenceID:   t.ReferenceID,
		Amount:        t.Amount,
		Currency:      t.Currency,
		Status:        t.Status,
		PaymentMethod: t.PaymentMethod,
		CustomerEmail: t.CustomerEmail,
		CustomerPhone: t.CustomerPhone,
		Description:   t.Description,
		Metadata:      t.Metadata,
		CreatedAt:     t.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:     t.UpdatedAt.UTC().Format(timeFormat),
	}
	if len(view.Metadata) == 0 {
		view.Metadata = json.RawMessage("{}")
	}
	if t.CompletedAt != nil {
		s := t.CompletedAt.UTC().Format(timeFormat)
		view.CompletedAt = &s
	}
	if t.ExpiresAt != nil {
		s := t.ExpiresAt.UTC().Format(timeFormat)
		view.ExpiresAt = &s
	}
	return view
}
