package usecase

import (
	"context"
	"testing"

	"github.com/senepay/verifyapi/internal/core/domain"
)

type recordingAuditRepo struct {
	lastFilter domain.AuditFilter
}

func (r *recordingAuditRepo) Append(context.Context, domain.AuditEntry) error { return nil }

func (r *recordingAuditRepo) List(_ context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, error) {
	r.lastFilter = filter
	return nil, nil
}

func TestAuditServiceRequiresTenant(t *testing.T) {
	svc := NewAuditService(&recordingAuditRepo{})
	if _, err := svc.List(context.Background(), domain.AuditFilter{}); err == nil {
		t.Fatal("expected error for missing tenant id")
	}
}

func TestAuditServiceClampsLimit(t *testing.T) {
	repo := &recordingAuditRepo{}
	svc := NewAuditService(repo)

	if _, err := svc.List(context.Background(), domain.AuditFilter{TenantID: "tenant-1"}); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if repo.lastFilter.Limit != 100 {
		t.Fatalf("expected default limit 100, got %d", repo.lastFilter.Limit)
	}

	if _, err := svc.List(context.Background(), domain.AuditFilter{TenantID: "tenant-1", Limit: 9999}); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if repo.lastFilter.Limit != 1000 {
		t.Fatalf("expected clamped limit 1000, got %d", repo.lastFilter.Limit)
	}
}
