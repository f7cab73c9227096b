package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/royalty"
)

// StatementModel is the persistence model for the Statement aggregate. The
// calculations record persists as a single JSONB document; statements are
// append-only, so a correction inserts a new row and flips the original to
// SUPERSEDED.
type StatementModel struct {
	TenantAggregateModel
	StatementNumber string                        `gorm:"type:varchar(100);not null;uniqueIndex:idx_statement_tenant_number,priority:2"`
	AuthorID        uuid.UUID                     `gorm:"type:uuid;not null;index:idx_statement_author_period,priority:1"`
	TitleID         uuid.UUID                     `gorm:"type:uuid;not null;index"`
	ContractID      uuid.UUID                     `gorm:"type:uuid;not null;index"`
	PeriodStart     time.Time                     `gorm:"not null;index:idx_statement_author_period,priority:2"`
	PeriodEnd       time.Time                     `gorm:"not null"`
	Status          royalty.StatementStatus       `gorm:"type:varchar(20);not null;default:'GENERATED';index"`
	Calculations    royalty.StatementCalculations `gorm:"type:jsonb;not null"`
	SupersededBy    *uuid.UUID                    `gorm:"type:uuid"`
	SupersededAt    *time.Time
}

// TableName returns the table name for GORM
func (StatementModel) TableName() string {
	return "royalty_statements"
}

// ToDomain converts the persistence model to a domain Statement aggregate
func (m *StatementModel) ToDomain() *royalty.Statement {
	st := &royalty.Statement{
		StatementNumber: m.StatementNumber,
		AuthorID:        m.AuthorID,
		TitleID:         m.TitleID,
		ContractID:      m.ContractID,
		PeriodStart:     m.PeriodStart,
		PeriodEnd:       m.PeriodEnd,
		Status:          m.Status,
		Calculations:    m.Calculations,
		SupersededBy:    m.SupersededBy,
		SupersededAt:    m.SupersededAt,
	}
	m.PopulateTenantAggregateRoot(&st.TenantAggregateRoot)
	return st
}

// FromDomain populates the persistence model from a domain Statement
func (m *StatementModel) FromDomain(s *royalty.Statement) {
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	m.StatementNumber = s.StatementNumber
	m.AuthorID = s.AuthorID
	m.TitleID = s.TitleID
	m.ContractID = s.ContractID
	m.PeriodStart = s.PeriodStart
	m.PeriodEnd = s.PeriodEnd
	m.Status = s.Status
	m.Calculations = s.Calculations
	m.SupersededBy = s.SupersededBy
	m.SupersededAt = s.SupersededAt
}

// StatementModelFromDomain creates a new persistence model from a domain Statement
func StatementModelFromDomain(s *royalty.Statement) *StatementModel {
	m := &StatementModel{}
	m.FromDomain(s)
	return m
}
