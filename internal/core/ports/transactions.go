package ports

import (
	"context"

	"github.com/senepay/verifyapi/internal/core/domain"
)

type TransactionRepository interface {
	// FindByIDAndTenant returns the transaction only when both the id and the
	// owning tenant match; any other combination is domain.ErrNotFound.
	FindByIDAndTenant(ctx context.Context, id, tenantID string) (domain.Transaction, error)
	Upsert(ctx context.Context, txn domain.Transaction) error
}
