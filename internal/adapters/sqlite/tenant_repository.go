package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/senepay/verifyapi/internal/adapters/sqlite/gormsqlite"
	"github.com/senepay/verifyapi/internal/core/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type tenantModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	APIKey    string    `gorm:"column:api_key;not null;uniqueIndex"`
	Active    bool      `gorm:"column:active;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (tenantModel) TableName() string {
	return "tenants"
}

type TenantRepository struct {
	db *gormsqlite.DB
}

func NewTenantRepository(db *gormsqlite.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) FindByAPIKey(ctx context.Context, apiKey string) (domain.Tenant, error) {
	var model tenantModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("api_key = ?", apiKey).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Tenant{}, domain.ErrNotFound
		}
		return domain.Tenant{}, fmt.Errorf("find tenant by api key: %w", err)
	}

	return toTenant(model), nil
}

func (r *TenantRepository) Upsert(ctx context.Context, tenant domain.Tenant) error {
	now := time.Now().UTC()
	model := tenantModel{
		ID:        tenant.ID,
		Name:      tenant.Name,
		APIKey:    tenant.APIKey,
		Active:    tenant.Active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if !tenant.CreatedAt.IsZero() {
		model.CreatedAt = tenant.CreatedAt
	}

	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "api_key", "active", "updated_at"}),
		}).Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("upsert tenant: %w", err)
	}
	return nil
}

func toTenant(model tenantModel) domain.Tenant {
	return domain.Tenant{
		ID:        model.ID,
		Name:      model.Name,
		APIKey:    model.APIKey,
		Active:    model.Active,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}
