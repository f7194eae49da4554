package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/senepay/verifyapi/internal/adapters/sqlite/gormsqlite"
	"github.com/senepay/verifyapi/internal/core/domain"
)

type auditModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID     string    `gorm:"column:tenant_id;not null;index"`
	Action       string    `gorm:"column:action;not null"`
	ResourceType string    `gorm:"column:resource_type;not null"`
	ResourceID   string    `gorm:"column:resource_id;not null"`
	UserAgent    string    `gorm:"column:user_agent;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
}

func (auditModel) TableName() string {
	return "audit_logs"
}

type AuditRepository struct {
	db *gormsqlite.DB
}

func NewAuditRepository(db *gormsqlite.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, entry domain.AuditEntry) error {
	model := auditModel{
		TenantID:     entry.TenantID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		UserAgent:    entry.UserAgent,
		CreatedAt:    entry.CreatedAt,
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}

	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, error) {
	var rows []auditModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		query := tx.Model(&auditModel{}).Where("tenant_id = ?", filter.TenantID)
		if filter.Action != "" {
			query = query.Where("action = ?", filter.Action)
		}
		if filter.ResourceType != "" {
			query = query.Where("resource_type = ?", filter.ResourceType)
		}
		if filter.ResourceID != "" {
			query = query.Where("resource_id = ?", filter.ResourceID)
		}
		if filter.AfterID > 0 {
			query = query.Where("id < ?", filter.AfterID)
		}
		return query.Order("id DESC").Limit(filter.Limit).Find(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}

	result := make([]domain.AuditEntry, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.AuditEntry{
			ID:           row.ID,
			TenantID:     row.TenantID,
			Action:       row.Action,
			ResourceType: row.ResourceType,
			ResourceID:   row.ResourceID,
			UserAgent:    row.UserAgent,
			CreatedAt:    row.CreatedAt,
		})
	}
	return result, nil
}
