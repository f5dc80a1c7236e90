/*
Package pricing provides the core BOQ pricing and valuation engine.

PURPOSE:
  This package contains the types and algorithms for resolving product unit
  prices from time-bounded catalogs and valuing bill-of-quantities lines.
  Given a product and a target month it deterministically picks a price
  source, computes a unit price, and derives revenue/cost/margin figures.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: An exact-decimal amount with a currency code
  - Product/PriceEntry/CostEntry: Catalog snapshot types consumed by the resolver
  - Quote: The outcome of a price resolution, tagged with its source
  - Frequency: How a BOQ line's quantity repeats (once, monthly, ...)

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point drift on money
  2. Explicitness: Every resolved price carries a source tag; callers can
     always observe which source won (formulation, price book, manual)
  3. Purity: All computations run over externally supplied snapshots;
     no internal mutable state, no I/O
  4. Type Safety: Strong typing for IDs prevents mixing product/book/line IDs

USAGE:
  resolver := &pricing.Resolver{Products: cat, Prices: cat, Formulations: cat, Index: cat}
  quote, err := resolver.Resolve(ctx, "prod-1", pricing.NewMonth(2025, time.June))

SEE ALSO:
  - resolver.go: Price source precedence and tie-break logic
  - valuation.go: Line revenue/COGS/margin arithmetic
  - period.go: Month and validity-window handling
  - catalog.go: Collaborator interfaces (catalog lookups)
*/
package pricing

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Exact-decimal amount with currency
// =============================================================================

// DefaultCurrency is assumed when neither entry, book, nor product carries one.
const DefaultCurrency = "USD"

type Money struct {
	Amount   decimal.Decimal
	Currency string
}

func NewMoney(amount decimal.Decimal, currency string) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{Amount: amount, Currency: currency}
}

func (m Money) Add(b Money) Money          { return Money{Amount: m.Amount.Add(b.Amount), Currency: m.Currency} }
func (m Money) Mul(s decimal.Decimal) Money { return Money{Amount: m.Amount.Mul(s), Currency: m.Currency} }
func (m Money) IsZero() bool               { return m.Amount.IsZero() }

// RoundCents rounds half-up to 2 decimal places. Resolved unit prices are
// always quantized to cents before they leave the resolver.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ParseDecimal parses a decimal-formatted string crossing the API boundary.
// Malformed input is rejected with InvalidInput, never coerced to zero.
func ParseDecimal(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &InvalidInputError{Field: field, Value: s, Reason: "not a decimal number"}
	}
	return d, nil
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ProductID string
type FamilyID string
type BookID string
type EntryID string
type FormulationID string
type SeriesID string

// =============================================================================
// CATALOG SNAPSHOT TYPES
// =============================================================================

// Product is immutable reference data owned by the catalog.
type Product struct {
	ID       ProductID
	Code     string
	Name     string
	UOM      string
	Currency string    // optional default currency
	FamilyID *FamilyID // optional product family
	Active   bool
}

// PriceEntry is one candidate row from a price book, already filtered to
// is_active=true by the catalog. The resolver performs ranking; the catalog
// only returns candidates.
type PriceEntry struct {
	ID           EntryID
	BookID       BookID
	BookName     string
	IsDefault    bool // the owning book's is_default flag
	Window       Window
	UnitPrice    decimal.Decimal
	Currency     string // entry currency, may be empty
	BookCurrency string // owning book currency
	PriceTerm    string // trade/Incoterm-like qualifier, informational
}

// CostEntry is structurally parallel to PriceEntry but carries a unit cost.
// Used for margin computation, never for sale price.
type CostEntry struct {
	ID           EntryID
	BookID       BookID
	BookName     string
	IsDefault    bool
	Window       Window
	UnitCost     decimal.Decimal
	Currency     string
	BookCurrency string
	CostTerm     string
}

// =============================================================================
// FORMULATION - base price x factor derived pricing
// =============================================================================

// Formulation prices a product as base_price x factor instead of a flat
// book entry. The base price is either stored on the rule or resolved from
// a referenced base product (formulation excluded to prevent cycles).
// When components are present, the factor is derived from index series
// ratios per period; otherwise the static Factor applies.
type Formulation struct {
	ID            FormulationID
	ProductID     ProductID
	BasePrice     *decimal.Decimal // explicit base price, wins over BaseProductID
	BaseProductID *ProductID       // base resolved via price books for the same period
	Currency      string
	Factor        decimal.Decimal // static factor, used when no components
	Components    []FormulationComponent
}

// FormulationComponent contributes weight_pct% of (index(series, month) / base)
// to the period factor.
type FormulationComponent struct {
	SeriesID       SeriesID
	WeightPct      decimal.Decimal
	BaseIndexValue *decimal.Decimal
}

// =============================================================================
// QUOTE - Resolution result, tagged with its source
// =============================================================================

// PriceSource identifies which precedence rung produced a unit price.
type PriceSource string

const (
	SourceFormulation PriceSource = "formulation"
	SourcePriceBook   PriceSource = "product_price_book"
	SourceBOQ         PriceSource = "boq_unit_price"
)

// Quote is the outcome of a price resolution. Exactly one source tag per
// resolution; BasePrice and Factor are set only for formulation quotes.
type Quote struct {
	Source    PriceSource
	UnitPrice decimal.Decimal
	Currency  string
	PriceTerm string // pass-through from the winning price book entry

	// Formulation explanation (audit trail)
	BasePrice *decimal.Decimal
	Factor    *decimal.Decimal
}

// CostQuote is the cost-side analog of Quote.
type CostQuote struct {
	UnitCost decimal.Decimal
	Currency string
	CostTerm string
	BookID   BookID
}

// =============================================================================
// FREQUENCY - Quantity repetition for multiplier purposes
// =============================================================================

type Frequency string

const (
	FreqOnce        Frequency = "once"
	FreqMonthly     Frequency = "monthly"
	FreqPerShipment Frequency = "per_shipment"
	FreqPerTonne    Frequency = "per_tonne"
)

func (f Frequency) Valid() bool {
	switch f {
	case FreqOnce, FreqMonthly, FreqPerShipment, FreqPerTonne:
		return true
	}
	return false
}
