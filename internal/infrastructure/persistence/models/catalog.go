package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// TitleModel is the persistence model for the Title aggregate. Format
// listings and ownership stakes persist as JSONB documents via their
// domain Valuer/Scanner implementations.
type TitleModel struct {
	TenantAggregateModel
	Name       string                   `gorm:"type:varchar(500);not null"`
	Subtitle   string                   `gorm:"type:varchar(500)"`
	Formats    catalog.FormatListings   `gorm:"type:jsonb;not null"`
	Ownerships catalog.AuthorOwnerships `gorm:"type:jsonb;not null"`
	Status     catalog.TitleStatus      `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
}

// TableName returns the table name for GORM
func (TitleModel) TableName() string {
	return "titles"
}

// ToDomain converts the persistence model to a domain Title aggregate
func (m *TitleModel) ToDomain() *catalog.Title {
	t := &catalog.Title{
		Name:       m.Name,
		Subtitle:   m.Subtitle,
		Formats:    m.Formats,
		Ownerships: m.Ownerships,
		Status:     m.Status,
	}
	m.PopulateTenantAggregateRoot(&t.TenantAggregateRoot)
	return t
}

// FromDomain populates the persistence model from a domain Title
func (m *TitleModel) FromDomain(t *catalog.Title) {
	m.FromDomainTenantAggregateRoot(t.TenantAggregateRoot)
	m.Name = t.Name
	m.Subtitle = t.Subtitle
	m.Formats = t.Formats
	m.Ownerships = t.Ownerships
	m.Status = t.Status
}

// TitleModelFromDomain creates a new persistence model from a domain Title
func TitleModelFromDomain(t *catalog.Title) *TitleModel {
	m := &TitleModel{}
	m.FromDomain(t)
	return m
}

// ContractModel is the persistence model for the Contract aggregate
type ContractModel struct {
	TenantAggregateModel
	ContractNumber  string                  `gorm:"type:varchar(100);not null;uniqueIndex:idx_contract_tenant_number,priority:2"`
	TitleID         uuid.UUID               `gorm:"type:uuid;not null;index"`
	AuthorID        uuid.UUID               `gorm:"type:uuid;not null;index"`
	RateSpecs       catalog.FormatRateSpecs `gorm:"type:jsonb;not null"`
	OriginalAdvance decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	RecoupedToDate  decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	Status          catalog.ContractStatus  `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	EffectiveFrom   time.Time               `gorm:"not null"`
	TerminatedAt    *time.Time
}

// TableName returns the table name for GORM
func (ContractModel) TableName() string {
	return "royalty_contracts"
}

// ToDomain converts the persistence model to a domain Contract aggregate
func (m *ContractModel) ToDomain() *catalog.Contract {
	c := &catalog.Contract{
		ContractNumber:  m.ContractNumber,
		TitleID:         m.TitleID,
		AuthorID:        m.AuthorID,
		RateSpecs:       m.RateSpecs,
		OriginalAdvance: m.OriginalAdvance,
		RecoupedToDate:  m.RecoupedToDate,
		Status:          m.Status,
		EffectiveFrom:   m.EffectiveFrom,
		TerminatedAt:    m.TerminatedAt,
	}
	m.PopulateTenantAggregateRoot(&c.TenantAggregateRoot)
	return c
}

// FromDomain populates the persistence model from a domain Contract
func (m *ContractModel) FromDomain(c *catalog.Contract) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.ContractNumber = c.ContractNumber
	m.TitleID = c.TitleID
	m.AuthorID = c.AuthorID
	m.RateSpecs = c.RateSpecs
	m.OriginalAdvance = c.OriginalAdvance
	m.RecoupedToDate = c.RecoupedToDate
	m.Status = c.Status
	m.EffectiveFrom = c.EffectiveFrom
	m.TerminatedAt = c.TerminatedAt
}

// ContractModelFromDomain creates a new persistence model from a domain Contract
func ContractModelFromDomain(c *catalog.Contract) *ContractModel {
	m := &ContractModel{}
	m.FromDomain(c)
	return m
}

// ISBNBlockModel is the persistence model for the ISBNBlock aggregate
type ISBNBlockModel struct {
	TenantAggregateModel
	Prefix         string              `gorm:"type:varchar(12);not null;uniqueIndex:idx_block_tenant_prefix,priority:2"`
	BlockSize      int64               `gorm:"not null"`
	Status         catalog.BlockStatus `gorm:"type:varchar(20);not null;index"`
	GeneratedCount int64               `gorm:"not null;default:0"`
	FailureReason  string              `gorm:"type:text"`
	StartedAt      *time.Time
	CompletedAt    *time.Time
}

// TableName returns the table name for GORM
func (ISBNBlockModel) TableName() string {
	return "isbn_blocks"
}

// ToDomain converts the persistence model to a domain ISBNBlock aggregate
func (m *ISBNBlockModel) ToDomain() *catalog.ISBNBlock {
	b := &catalog.ISBNBlock{
		Prefix:         m.Prefix,
		BlockSize:      m.BlockSize,
		Status:         m.Status,
		GeneratedCount: m.GeneratedCount,
		FailureReason:  m.FailureReason,
		StartedAt:      m.StartedAt,
		CompletedAt:    m.CompletedAt,
	}
	m.PopulateTenantAggregateRoot(&b.TenantAggregateRoot)
	return b
}

// FromDomain populates the persistence model from a domain ISBNBlock
func (m *ISBNBlockModel) FromDomain(b *catalog.ISBNBlock) {
	m.FromDomainTenantAggregateRoot(b.TenantAggregateRoot)
	m.Prefix = b.Prefix
	m.BlockSize = b.BlockSize
	m.Status = b.Status
	m.GeneratedCount = b.GeneratedCount
	m.FailureReason = b.FailureReason
	m.StartedAt = b.StartedAt
	m.CompletedAt = b.CompletedAt
}

// ISBNBlockModelFromDomain creates a new persistence model from a domain ISBNBlock
func ISBNBlockModelFromDomain(b *catalog.ISBNBlock) *ISBNBlockModel {
	m := &ISBNBlockModel{}
	m.FromDomain(b)
	return m
}

// PooledISBNModel is one generated ISBN in a tenant's assignable pool. The
// (block_id, sequence) unique index is what makes SaveGenerated idempotent:
// a resumed generation run that replays a batch upserts instead of
// duplicating rows.
type PooledISBNModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index:idx_pool_tenant_assigned,priority:1"`
	BlockID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_pool_block_sequence,priority:1"`
	ISBN      string    `gorm:"type:varchar(13);not null;uniqueIndex"`
	Sequence  int64     `gorm:"not null;uniqueIndex:idx_pool_block_sequence,priority:2"`
	Assigned  bool      `gorm:"not null;default:false;index:idx_pool_tenant_assigned,priority:2"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PooledISBNModel) TableName() string {
	return "isbn_pool"
}

// ToDomain converts the persistence model to the domain PooledISBN value
func (m *PooledISBNModel) ToDomain() *catalog.PooledISBN {
	return &catalog.PooledISBN{
		ID:       m.ID,
		TenantID: m.TenantID,
		BlockID:  m.BlockID,
		ISBN:     m.ISBN,
		Sequence: m.Sequence,
		Assigned: m.Assigned,
	}
}

// PooledISBNModelFromDomain creates a new persistence model from a domain PooledISBN
func PooledISBNModelFromDomain(p *catalog.PooledISBN) *PooledISBNModel {
	return &PooledISBNModel{
		ID:       p.ID,
		TenantID: p.TenantID,
		BlockID:  p.BlockID,
		ISBN:     p.ISBN,
		Sequence: p.Sequence,
		Assigned: p.Assigned,
	}
}
