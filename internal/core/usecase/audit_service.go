package usecase

import (
	"context"

	"github.com/senepay/verifyapi/internal/core/domain"
	"github.com/senepay/verifyapi/internal/core/ports"
)

// AuditService serves tenant-scoped reads of the audit trail. The tenant id is
// always the authenticated caller's; filters only narrow within it.
type AuditService struct {
	repo ports.AuditRepository
}

func NewAuditService(repo ports.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

func (s *AuditService) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, error) {
	if filter.TenantID == "" {
		return nil, domain.ErrInvalidAPIKey
	}
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}
	return s.repo.List(ctx, filter)
}
