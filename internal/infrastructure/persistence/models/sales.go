package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/royalty"
	"github.com/inkwell/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// TransactionModel is the persistence model for the sales/returns ledger.
// Period and lifetime aggregations run directly against this table, so the
// (tenant_id, title_id, format, occurred_at) index covers the aggregator
// queries of a statement run.
type TransactionModel struct {
	TenantAggregateModel
	TitleID      uuid.UUID              `gorm:"type:uuid;not null;index:idx_txn_title_format_occurred,priority:1"`
	Format       royalty.Format         `gorm:"type:varchar(20);not null;index:idx_txn_title_format_occurred,priority:2"`
	Type         sales.TransactionType  `gorm:"type:varchar(10);not null"`
	Units        int64                  `gorm:"not null"`
	Revenue      decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Channel      string                 `gorm:"type:varchar(100)"`
	OccurredAt   time.Time              `gorm:"not null;index:idx_txn_title_format_occurred,priority:3"`
	ReturnStatus sales.ReturnStatus     `gorm:"type:varchar(10)"`
	ReviewedAt   *time.Time
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "sales_transactions"
}

// ToDomain converts the persistence model to a domain Transaction aggregate
func (m *TransactionModel) ToDomain() *sales.Transaction {
	t := &sales.Transaction{
		TitleID:      m.TitleID,
		Format:       m.Format,
		Type:         m.Type,
		Units:        m.Units,
		Revenue:      m.Revenue,
		Channel:      m.Channel,
		OccurredAt:   m.OccurredAt,
		ReturnStatus: m.ReturnStatus,
		ReviewedAt:   m.ReviewedAt,
	}
	m.PopulateTenantAggregateRoot(&t.TenantAggregateRoot)
	return t
}

// FromDomain populates the persistence model from a domain Transaction
func (m *TransactionModel) FromDomain(t *sales.Transaction) {
	m.FromDomainTenantAggregateRoot(t.TenantAggregateRoot)
	m.TitleID = t.TitleID
	m.Format = t.Format
	m.Type = t.Type
	m.Units = t.Units
	m.Revenue = t.Revenue
	m.Channel = t.Channel
	m.OccurredAt = t.OccurredAt
	m.ReturnStatus = t.ReturnStatus
	m.ReviewedAt = t.ReviewedAt
}

// TransactionModelFromDomain creates a new persistence model from a domain Transaction
func TransactionModelFromDomain(t *sales.Transaction) *TransactionModel {
	m := &TransactionModel{}
	m.FromDomain(t)
	return m
}
