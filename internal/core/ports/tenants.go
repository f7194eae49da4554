package ports

import (
	"context"

	"github.com/senepay/verifyapi/internal/core/domain"
)

type TenantRepository interface {
	// FindByAPIKey resolves a tenant by exact API key equality. Returns
	// domain.ErrNotFound when no row matches; callers decide what an
	// inactive tenant means.
	FindByAPIKey(ctx context.Context, apiKey string) (domain.Tenant, error)
	Upsert(ctx context.Context, tenant domain.Tenant) error
}
