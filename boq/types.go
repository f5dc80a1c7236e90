// Package boq implements the bill-of-quantities domain on top of the
// pricing engine: line items, BOQ-level totals, price previews, and
// cost-book backed COGS autofill.
package boq

import (
	"github.com/shopspring/decimal"

	"github.com/aryaintel/pricing-engine/pricing"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type LineID string
type ScenarioID string

// =============================================================================
// LINE - One priced row of a bill of quantities
// =============================================================================

// Category is an enumerated reporting tag on a line. It affects
// interpretation (freight-inclusive vs ex-freight), not computation.
type Category string

const (
	CategoryBulkWithFreight Category = "bulk_with_freight"
	CategoryBulkExFreight   Category = "bulk_ex_freight"
	CategoryFreight         Category = "freight"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryBulkWithFreight, CategoryBulkExFreight, CategoryFreight, "":
		return true
	}
	return false
}

// Line is a BOQ line item. Quantity/price fields may be auto-populated from
// the resolver when a product link and a start period are present, but stay
// independently user-editable afterwards; the link does not enforce price
// consistency after creation.
type Line struct {
	ID         LineID
	ScenarioID ScenarioID
	Section    string
	Category   Category
	ProductID  *pricing.ProductID // optional catalog link
	ItemName   string
	Unit       string
	Quantity   decimal.Decimal // >= 0
	UnitPrice  decimal.Decimal
	UnitCOGS   *decimal.Decimal // nullable; nil values count as 0 in totals
	Frequency  pricing.Frequency
	Months     int            // multiplier count, meaningful only for monthly
	Start      *pricing.Month // optional start period
	PriceTerm  string         // snapshot of the winning entry's price term
	Active     bool
	Notes      string
}

// Valuate computes the line's revenue/COGS/margin triple.
func (l *Line) Valuate() pricing.LineValue {
	return pricing.Valuate(pricing.LineInput{
		Quantity:  l.Quantity,
		UnitPrice: l.UnitPrice,
		UnitCOGS:  l.UnitCOGS,
		Frequency: l.Frequency,
		Months:    l.Months,
	})
}

// Validate rejects malformed lines at the boundary. Numeric coercion never
// happens downstream; a bad line never reaches the valuation engine.
func (l *Line) Validate() error {
	if l.ItemName == "" {
		return &pricing.InvalidInputError{Field: "item_name", Value: "", Reason: "required"}
	}
	if !l.Frequency.Valid() {
		return &pricing.InvalidInputError{Field: "frequency", Value: string(l.Frequency), Reason: "must be once|monthly|per_shipment|per_tonne"}
	}
	if !l.Category.Valid() {
		return &pricing.InvalidInputError{Field: "category", Value: string(l.Category), Reason: "unknown category"}
	}
	if l.Quantity.IsNegative() {
		return &pricing.InvalidInputError{Field: "quantity", Value: l.Quantity.String(), Reason: "must be >= 0"}
	}
	if l.Months < 0 {
		return &pricing.InvalidInputError{Field: "months", Value: "", Reason: "must be >= 0"}
	}
	return nil
}

// Scenario is the business case a BOQ belongs to.
type Scenario struct {
	ID     ScenarioID
	Name   string
	Start  *pricing.Month
	Months int
}
