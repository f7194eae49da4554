package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/senepay/verifyapi/internal/adapters/sqlite/gormsqlite"
	"github.com/senepay/verifyapi/internal/core/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type transactionModel struct {
	ID            string     `gorm:"column:id;primaryKey"`
	TenantID      string     `gorm:"column:tenant_id;not null;index"`
	ReferenceID   string     `gorm:"column:reference_id;not null"`
	Amount        float64    `gorm:"column:amount;not null"`
	Currency      string     `gorm:"column:currency;not null"`
	Status        string     `gorm:"column:status;not null"`
	PaymentMethod string     `gorm:"column:payment_method;not null"`
	CustomerEmail string     `gorm:"column:customer_email;not null"`
	CustomerPhone string     `gorm:"column:customer_phone;not null"`
	Description   string     `gorm:"column:description;not null"`
	Metadata      string     `gorm:"column:metadata;not null"`
	CreatedAt     time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;not null"`
	CompletedAt   *time.Time `gorm:"column:completed_at"`
	ExpiresAt     *time.Time `gorm:"column:expires_at"`
}

func (transactionModel) TableName() string {
	return "transactions"
}

type TransactionRepository struct {
	db *gormsqlite.DB
}

func NewTransactionRepository(db *gormsqlite.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) FindByIDAndTenant(ctx context.Context, id, tenantID string) (domain.Transaction, error) {
	var model transactionModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("id = ? AND tenant_id = ?", id, tenantID).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Transaction{}, domain.ErrNotFound
		}
		return domain.Transaction{}, fmt.Errorf("find transaction: %w", err)
	}

	return toTransaction(model), nil
}

func (r *TransactionRepository) Upsert(ctx context.Context, txn domain.Transaction) error {
	metadata := string(txn.Metadata)
	if metadata == "" {
		metadata = "{}"
	}
	now := time.Now().UTC()
	model := transactionModel{
		ID:            txn.ID,
		TenantID:      txn.TenantID,
		ReferenceID:   txn.ReferenceID,
		Amount:        txn.Amount,
		Currency:      txn.Currency,
		Status:        txn.Status,
		PaymentMethod: txn.PaymentMethod,
		CustomerEmail: txn.CustomerEmail,
		CustomerPhone: txn.CustomerPhone,
		Description:   txn.Description,
		Metadata:      metadata,
		CreatedAt:     now,
		UpdatedAt:     now,
		CompletedAt:   txn.CompletedAt,
		ExpiresAt:     txn.ExpiresAt,
	}
	if !txn.CreatedAt.IsZero() {
		model.CreatedAt = txn.CreatedAt
	}
	if !txn.UpdatedAt.IsZero() {
		model.UpdatedAt = txn.UpdatedAt
	}

	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"tenant_id", "reference_id", "amount", "currency", "status",
				"payment_method", "customer_email", "customer_phone",
				"description", "metadata", "updated_at", "completed_at", "expires_at",
			}),
		}).Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("upsert transaction: %w", err)
	}
	return nil
}

func toTransaction(model transactionModel) domain.Transaction {
	return domain.Transaction{
		ID:            model.ID,
		TenantID:      model.TenantID,
		ReferenceID:   model.ReferenceID,
		Amount:        model.Amount,
		Currency:      model.Currency,
		Status:        model.Status,
		PaymentMethod: model.PaymentMethod,
		CustomerEmail: model.CustomerEmail,
		CustomerPhone: model.CustomerPhone,
		Description:   model.Description,
		Metadata:      json.RawMessage(model.Metadata),
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
		CompletedAt:   model.CompletedAt,
		ExpiresAt:     model.ExpiresAt,
	}
}
