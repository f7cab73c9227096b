package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// StatementSortFields contains allowed sort fields for royalty statements
var StatementSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"updated_at":       true,
	"statement_number": true,
	"period_start":     true,
	"status":           true,
}

// TitleSortFields contains allowed sort fields for titles
var TitleSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"status":     true,
}

// ContractSortFields contains allowed sort fields for contracts
var ContractSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"contract_number": true,
	"effective_from":  true,
	"status":          true,
}

// BlockSortFields contains allowed sort fields for ISBN blocks
var BlockSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"prefix":     true,
	"status":     true,
}

// TransactionSortFields contains allowed sort fields for sales transactions
var TransactionSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"occurred_at": true,
	"format":      true,
	"type":        true,
}

// SubscriptionSortFields contains allowed sort fields for webhook subscriptions
var SubscriptionSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"status":     true,
}

// DeliverySortFields contains allowed sort fields for webhook deliveries
var DeliverySortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"event_type":      true,
	"status":          true,
	"next_attempt_at": true,
}
