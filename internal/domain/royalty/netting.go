package royalty

import (
	"fmt"

	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/inkwell/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PeriodSales is the aggregate of sales for one title/format within a
// statement period.
type PeriodSales struct {
	Units   int64
	Revenue decimal.Decimal
}

// PeriodReturns is the aggregate of approved returns for one title/format
// within a statement period. Returns pending approval are excluded upstream.
type PeriodReturns struct {
	Units   int64
	Revenue decimal.Decimal
}

// NetSales is the result of netting returns against a period's sales.
//
// The raw figures are unclamped and may go negative when returns exceed the
// period's sales; they exist for audit visibility. The net figures are the
// royalty calculation inputs and are clamped at zero. Clamped is set when
// the two disagree.
type NetSales struct {
	RawNetUnits   int64           `json:"raw_net_units"`
	RawNetRevenue decimal.Decimal `json:"raw_net_revenue"`

	NetUnits   int64           `json:"net_units"`
	NetRevenue decimal.Decimal `json:"net_revenue"`

	GrossReturnedUnits   int64           `json:"gross_returned_units"`
	GrossReturnedRevenue decimal.Decimal `json:"gross_returned_revenue"`

	Clamped bool `json:"clamped"`
}

// NetReturns deducts the period's approved returns from its sales aggregate.
// Returned units are deducted dollar-for-dollar at the same unit price basis
// as the original sale, so revenue figures net directly.
func NetReturns(sales PeriodSales, returns PeriodReturns) (NetSales, error) {
	if sales.Units < 0 {
		return NetSales{}, shared.NewValidationError("NEGATIVE_UNITS", fmt.Sprintf("Sales units cannot be negative, got %d", sales.Units))
	}
	if sales.Revenue.IsNegative() {
		return NetSales{}, shared.NewValidationError("NEGATIVE_REVENUE", "Sales revenue cannot be negative")
	}
	if returns.Units < 0 {
		return NetSales{}, shared.NewValidationError("NEGATIVE_RETURNED_UNITS", fmt.Sprintf("Returned units cannot be negative, got %d", returns.Units))
	}
	if returns.Revenue.IsNegative() {
		return NetSales{}, shared.NewValidationError("NEGATIVE_RETURNED_REVENUE", "Returned revenue cannot be negative")
	}

	rawUnits := sales.Units - returns.Units
	rawRevenue := sales.Revenue.Sub(returns.Revenue).Round(valueobject.CurrencyPrecision)

	net := NetSales{
		RawNetUnits:          rawUnits,
		RawNetRevenue:        rawRevenue,
		NetUnits:             rawUnits,
		NetRevenue:           rawRevenue,
		GrossReturnedUnits:   returns.Units,
		GrossReturnedRevenue: returns.Revenue.Round(valueobject.CurrencyPrecision),
	}

	if rawUnits < 0 {
		net.NetUnits = 0
		net.Clamped = true
	}
	if rawRevenue.IsNegative() {
		net.NetRevenue = decimal.Zero
		net.Clamped = true
	}

	return net, nil
}
