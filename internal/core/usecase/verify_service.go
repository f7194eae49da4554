package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/senepay/verifyapi/internal/core/domain"
	"github.com/senepay/verifyapi/internal/core/ports"
)

const (
	auditActionVerify = "verify_payment"
	resourceTypeTxn   = "transaction"
	topicVerified     = "payment.verified"

	defaultLookupTimeout = 5 * time.Second
)

// VerifyRequest carries the caller-supplied inputs of one verification.
// UserAgent feeds the audit trail only; it plays no part in authorization.
type VerifyRequest struct {
	APIKey    string
	PaymentID string
	UserAgent string
}

// VerifyService authenticates a merchant by API key and returns the public
// view of one of its transactions. Each successful call appends an audit entry
// and enqueues a payment.verified event.
type VerifyService struct {
	tenants ports.TenantRepository
	txns    ports.TransactionRepository
	audit   ports.AuditRepository
	outbox  ports.OutboxRepository

	lookupTimeout   time.Duration
	auditFailClosed bool
}

// NewVerifyService wires the service. outbox may be nil to disable event
// emission. A zero or negative lookupTimeout falls back to 5s so a store that
// never answers surfaces as domain.ErrStoreTimeout instead of a hang.
func NewVerifyService(tenants ports.TenantRepository, txns ports.TransactionRepository, audit ports.AuditRepository, outbox ports.OutboxRepository, lookupTimeout time.Duration, auditFailClosed bool) *VerifyService {
	if lookupTimeout <= 0 {
		lookupTimeout = defaultLookupTimeout
	}
	return &VerifyService{
		tenants:         tenants,
		txns:            txns,
		audit:           audit,
		outbox:          outbox,
		lookupTimeout:   lookupTimeout,
		auditFailClosed: auditFailClosed,
	}
}

func (s *VerifyService) Verify(ctx context.Context, req VerifyRequest) (domain.TransactionView, error) {
	tenant, err := s.Authenticate(ctx, req.APIKey)
	if err != nil {
		return domain.TransactionView{}, err
	}

	if req.PaymentID == "" {
		return domain.TransactionView{}, domain.ErrPaymentIDRequired
	}

	txn, err := s.resolveTransaction(ctx, req.PaymentID, tenant.ID)
	if err != nil {
		return domain.TransactionView{}, err
	}

	if err := s.recordAudit(ctx, tenant.ID, txn.ID, req.UserAgent); err != nil {
		return domain.TransactionView{}, err
	}
	s.emitVerified(ctx, tenant.ID, txn)

	return txn.View(), nil
}

// Authenticate resolves the tenant an API key belongs to. An absent key is a
// distinct failure from a key that matches no active tenant. Comparison is
// exact plaintext equality against the stored key, no trimming or case folding.
func (s *VerifyService) Authenticate(ctx context.Context, apiKey string) (domain.Tenant, error) {
	if apiKey == "" {
		return domain.Tenant{}, domain.ErrAPIKeyRequired
	}
	return s.resolveTenant(ctx, apiKey)
}

func (s *VerifyService) resolveTenant(ctx context.Context, apiKey string) (domain.Tenant, error) {
	ctx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	tenant, err := s.tenants.FindByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Tenant{}, domain.ErrInvalidAPIKey
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.Tenant{}, fmt.Errorf("%w: tenant lookup: %v", domain.ErrStoreTimeout, err)
		}
		return domain.Tenant{}, fmt.Errorf("resolve tenant: %w", err)
	}
	if !tenant.Active {
		return domain.Tenant{}, domain.ErrInvalidAPIKey
	}
	return tenant, nil
}

func (s *VerifyService) resolveTransaction(ctx context.Context, id, tenantID string) (domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	// A transaction owned by another tenant and a missing one are the same
	// ErrNotFound here, so the response cannot leak existence.
	txn, err := s.txns.FindByIDAndTenant(ctx, id, tenantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Transaction{}, domain.ErrNotFound
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.Transaction{}, fmt.Errorf("%w: transaction lookup: %v", domain.ErrStoreTimeout, err)
		}
		return domain.Transaction{}, fmt.Errorf("resolve transaction: %w", err)
	}
	return txn, nil
}

func (s *VerifyService) recordAudit(ctx context.Context, tenantID, txnID, userAgent string) error {
	err := s.audit.Append(ctx, domain.AuditEntry{
		TenantID:     tenantID,
		Action:       auditActionVerify,
		ResourceType: resourceTypeTxn,
		ResourceID:   txnID,
		UserAgent:    userAgent,
		CreatedAt:    time.Now().UTC(),
	})
	if err == nil {
		return nil
	}
	if s.auditFailClosed {
		return fmt.Errorf("append audit entry: %w", err)
	}
	// Fail-open: the verification succeeds, but a lost audit entry is a
	// compliance concern, so it must stay visible to operators.
	log.Printf("AUDIT LOSS tenant=%s transaction=%s: %v", tenantID, txnID, err)
	return nil
}

func (s *VerifyService) emitVerified(ctx context.Context, tenantID string, txn domain.Transaction) {
	if s.outbox == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"payment_id": txn.ID,
		"status":     txn.Status,
		"amount":     txn.Amount,
		"currency":   txn.Currency,
	})
	if err != nil {
		log.Printf("encode verification event payload: %v", err)
		return
	}
	event := domain.VerificationEvent{
		EventID:    uuid.NewString(),
		EventType:  topicVerified,
		TenantID:   tenantID,
		PaymentID:  txn.ID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
	if err := s.outbox.Enqueue(ctx, event, topicVerified); err != nil {
		log.Printf("enqueue verification event tenant=%s transaction=%s: %v", tenantID, txn.ID, err)
	}
}
