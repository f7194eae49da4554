package ports

import (
	"context"

	"github.com/senepay/verifyapi/internal/core/domain"
)

type AuditRepository interface {
	Append(ctx context.Context, entry domain.AuditEntry) error
	List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, error)
}
