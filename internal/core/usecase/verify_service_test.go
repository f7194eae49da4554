package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/senepay/verifyapi/internal/core/domain"
)

type stubTenantRepo struct {
	tenants map[string]domain.Tenant
	findErr error
	calls   int
}

func (s *stubTenantRepo) FindByAPIKey(_ context.Context, apiKey string) (domain.Tenant, error) {
	s.calls++
	if s.findErr != nil {
		return domain.Tenant{}, s.findErr
	}
	tenant, ok := s.tenants[apiKey]
	if !ok {
		return domain.Tenant{}, domain.ErrNotFound
	}
	return tenant, nil
}

func (s *stubTenantRepo) Upsert(context.Context, domain.Tenant) error { return nil }

type stubTransactionRepo struct {
	txns    []domain.Transaction
	findErr error
	calls   int
}

func (s *stubTransactionRepo) FindByIDAndTenant(_ context.Context, id, tenantID string) (domain.Transaction, error) {
	s.calls++
	if s.findErr != nil {
		return domain.Transaction{}, s.findErr
	}
	for _, txn := range s.txns {
		if txn.ID == id && txn.TenantID == tenantID {
			return txn, nil
		}
	}
	return domain.Transaction{}, domain.ErrNotFound
}

func (s *stubTransactionRepo) Upsert(context.Context, domain.Transaction) error { return nil }

type stubAuditRepo struct {
	entries   []domain.AuditEntry
	appendErr error
}

func (s *stubAuditRepo) Append(_ context.Context, entry domain.AuditEntry) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubAuditRepo) List(context.Context, domain.AuditFilter) ([]domain.AuditEntry, error) {
	return s.entries, nil
}

type stubOutbox struct {
	enqueued   []domain.VerificationEvent
	enqueueErr error
}

func (s *stubOutbox) Enqueue(_ context.Context, event domain.VerificationEvent, _ string) error {
	if s.enqueueErr != nil {
		return s.enqueueErr
	}
	s.enqueued = append(s.enqueued, event)
	return nil
}

func (s *stubOutbox) FetchPending(context.Context, int) ([]domain.OutboxEvent, error) {
	return nil, nil
}
func (s *stubOutbox) MarkDispatched(context.Context, int64) error { return nil }
func (s *stubOutbox) MarkFailed(context.Context, int64, int, string, string) error {
	return nil
}
func (s *stubOutbox) MarkDead(context.Context, int64, int, string) error { return nil }

type verifyFixture struct {
	tenants *stubTenantRepo
	txns    *stubTransactionRepo
	audit   *stubAuditRepo
	outbox  *stubOutbox
	svc     *VerifyService
}

func newVerifyFixture(auditFailClosed bool) *verifyFixture {
	completed := time.Date(2026, 2, 3, 10, 30, 0, 0, time.UTC)
	f := &verifyFixture{
		tenants: &stubTenantRepo{tenants: map[string]domain.Tenant{
			"k1": {ID: "tenant-1", Name: "Merchant One", APIKey: "k1", Active: true},
			"k2": {ID: "tenant-2", Name: "Merchant Two", APIKey: "k2", Active: true},
			"k3": {ID: "tenant-3", Name: "Closed Shop", APIKey: "k3", Active: false},
		}},
		txns: &stubTransactionRepo{txns: []domain.Transaction{{
			ID:            "tx1",
			TenantID:      "tenant-1",
			ReferenceID:   "ref-001",
			Amount:        5000,
			Currency:      "XOF",
			Status:        domain.StatusCompleted,
			PaymentMethod: "wave",
			CustomerEmail: "aminata@example.sn",
			CustomerPhone: "+221770000001",
			Description:   "Order 42",
			Metadata:      json.RawMessage(`{"order":"42"}`),
			CreatedAt:     completed.Add(-time.Hour),
			UpdatedAt:     completed,
			CompletedAt:   &completed,
		}}},
		audit:  &stubAuditRepo{},
		outbox: &stubOutbox{},
	}
	f.svc = NewVerifyService(f.tenants, f.txns, f.audit, f.outbox, time.Second, auditFailClosed)
	return f
}

func TestVerifyMissingAPIKey(t *testing.T) {
	f := newVerifyFixture(false)

	_, err := f.svc.Verify(context.Background(), VerifyRequest{PaymentID: "tx1"})
	if !errors.Is(err, domain.ErrAPIKeyRequired) {
		t.Fatalf("expected ErrAPIKeyRequired, got %v", err)
	}
	if f.tenants.calls != 0 || f.txns.calls != 0 {
		t.Fatalf("expected no store lookups, got tenants=%d txns=%d", f.tenants.calls, f.txns.calls)
	}
	if len(f.audit.entries) != 0 {
		t.Fatalf("expected no audit entries, got %d", len(f.audit.entries))
	}
}

func TestVerifyUnknownAPIKey(t *testing.T) {
	f := newVerifyFixture(false)

	_, err := f.svc.Verify(context.Background(), VerifyRequest{APIKey: "wrong", PaymentID: "tx1"})
	if !errors.Is(err, domain.ErrInvalidAPIKey) {
		t.Fatalf("expected ErrInvalidAPIKey, got %v", err)
	}
	if len(f.audit.entries) != 0 {
		t.Fatalf("expected no audit entries, got %d", len(f.audit.entries))
	}
}

func TestVerifyInactiveTenantKeyIsInvalid(t *testing.T) {
	f := newVerifyFixture(false)

	_, err := f.svc.Verify(context.Background(), VerifyRequest{APIKey: "k3", PaymentID: "tx1"})
	if !errors.Is(err, domain.ErrInvalidAPIKey) {
		t.Fatalf("expected ErrInvalidAPIKey for inactive tenant, got %v", err)
	}
}

func TestVerifyMissingPaymentID(t *testing.T) {
	f := newVerifyFixture(false)

	_, err := f.svc.Verify(context.Background(), VerifyRequest{APIKey: "k1"})
	if !errors.Is(err, domain.ErrPaymentIDRequired) {
		t.Fatalf("expected ErrPaymentIDRequired, got %v", err)
	}
	if f.txns.calls != 0 {
		t.Fatalf("expected no transaction lookup, got %d", f.txns.calls)
	}
	if len(f.audit.entries) != 0 {
		t.Fatalf("expected no audit entries, got %d", len(f.audit.entries))
	}
}

func TestVerifyForeignTenantLooksMissing(t *testing.T) {
	f := newVerifyFixture(false)

	// tx1 belongs to tenant-1; tenant-2 presents its own valid key.
	foreignErr := func() error {
		_, err := f.svc.Verify(context.Background(), VerifyRequest{APIKey: "k2", PaymentID: "tx1"})
		return err
	}()
	missingErr := func() error {
		_, err := f.svc.Verify(context.Background(), VerifyRequest{APIKey: "k2", PaymentID: "no-such-tx"})
		return err
	}()

	if !errors.Is(foreignErr, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign transaction, got %v", foreignErr)
	}
	if foreignErr.Error() != missingErr.Error() {
		t.Fatalf("foreign and missing transactions must be indistinguishable: %q vs %q", foreignErr, missingErr)
	}
	if len(f.audit.entries) != 0 {
		t.Fatalf("expected no audit entries, got %d", len(f.audit.entries))
	}
}

func TestVerifySuccessReturnsViewAndAudits(t *testing.T) {
	f := newVerifyFixture(false)

	view, err := f.svc.Verify(context.Background(), VerifyRequest{APIKey: "k1", PaymentID: "tx1", UserAgent: "curl/8.0"})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	if view.PaymentID != "tx1" || view.Status != domain.StatusCompleted {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.Amount != 5000 || view.Currency != "XOF" {
		t.Fatalf("unexpected amount/currency: %v %s", view.Amount, view.Currency)
	}
	if view.ReferenceID != "ref-001" || view.PaymentMethod != "wave" {
		t.Fatalf("unexpected reference/method: %s %s", view.ReferenceID, view.PaymentMethod)
	}
	if view.CompletedAt == nil || view.ExpiresAt != nil {
		t.Fatalf("unexpected timestamps: %+v", view)
	}

	if len(f.audit.entries) != 1 {
		t.Fatalf("expected exactly one audit entry, got %d", len(f.audit.entries))
	}
	entry := f.audit.entries[0]
	if entry.Action != "verify_payment" || entry.ResourceType != "transaction" {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}
	if entry.TenantID != "tenant-1" || entry.ResourceID != "tx1" || entry.UserAgent != "curl/8.0" {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}

	if len(f.outbox.enqueued) != 1 {
		t.Fatalf("expected one enqueued event, got %d", len(f.outbox.enqueued))
	}
	event := f.outbox.enqueued[0]
	if event.EventType != "payment.verified" || event.PaymentID != "tx1" || event.TenantID != "tenant-1" {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestVerifyRepeatedCallsAppendAuditEachTime(t *testing.T) {
	f := newVerifyFixture(false)

	for i := 0; i < 3; i++ {
		if _, err := f.svc.Verify(context.Background(), VerifyRequest{APIKey: "k1", PaymentID: "tx1"}); err != nil {
			t.Fatalf("verify %d failed: %v", i, err)
		}
	}
	if len(f.audit.entries) != 3 {
		t.Fatalf("expected 3 audit entries, got %d", len(f.audit.entries))
	}
}

func TestVerifyAuditFailureIsFailOpenByDefault(t *testing.T) {
	f := newVerifyFixture(false)
	f.audit.appendErr = errors.New("disk full")

	view, err := f.svc.Verify(context.Background(), VerifyRequest{APIKey: "k1", PaymentID: "tx1"})
	if err != nil {
		t.Fatalf("expected fail-open success, got %v", err)
	}
	if view.PaymentID != "tx1" {
		t.Fatalf("unexpected view: %+v", view)
	}
}

func TestVerifyAuditFailureAbortsWhenFailClosed(t *testing.T) {
	f := newVerifyFixture(true)
	f.audit.appendErr = errors.New("disk full")

	_, err := f.svc.Verify(context.Background(), VerifyRequest{APIKey: "k1", PaymentID: "tx1"})
	if err == nil {
		t.Fatal("expected error under fail-closed audit policy")
	}
}

func TestVerifyOutboxFailureDoesNotBlockResponse(t *testing.T) {
	f := newVerifyFixture(false)
	f.outbox.enqueueErr = errors.New("outbox unavailable")

	if _, err := f.svc.Verify(context.Background(), VerifyRequest{APIKey: "k1", PaymentID: "tx1"}); err != nil {
		t.Fatalf("expected success despite outbox failure, got %v", err)
	}
}

func TestVerifyTenantLookupTimeout(t *testing.T) {
	f := newVerifyFixture(false)
	f.tenants.findErr = context.DeadlineExceeded

	_, err := f.svc.Verify(context.Background(), VerifyRequest{APIKey: "k1", PaymentID: "tx1"})
	if !errors.Is(err, domain.ErrStoreTimeout) {
		t.Fatalf("expected ErrStoreTimeout, got %v", err)
	}
}

func TestVerifyTransactionLookupTimeout(t *testing.T) {
	f := newVerifyFixture(false)
	f.txns.findErr = context.DeadlineExceeded

	_, err := f.svc.Verify(context.Background(), VerifyRequest{APIKey: "k1", PaymentID: "tx1"})
	if !errors.Is(err, domain.ErrStoreTimeout) {
		t.Fatalf("expected ErrStoreTimeout, got %v", err)
	}
}
