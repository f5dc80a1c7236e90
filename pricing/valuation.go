/*
valuation.go - Line valuation arithmetic

PURPOSE:
  Computes revenue, cost-of-goods, and gross margin for a single priced line.
  All arithmetic runs on decimal.Decimal; repeated computation of the same
  inputs yields bit-identical results.

MULTIPLIER RULE:
  multiplier = months   when frequency == monthly and months > 0
  multiplier = 1        otherwise

  per_shipment and per_tonne are informational tags for reporting; shipment
  and tonnage counts are not tracked as separate fields, so they never alter
  the multiplier here. That simplification is deliberate and covered by tests.

SEE ALSO:
  - boq/valuation.go: BOQ-level aggregation over line values
*/
package pricing

import (
	"github.com/shopspring/decimal"
)

// Multiplier implements the frequency rule above.
func Multiplier(f Frequency, months int) decimal.Decimal {
	if f == FreqMonthly && months > 0 {
		return decimal.NewFromInt(int64(months))
	}
	return decimal.NewFromInt(1)
}

// LineInput is the minimal slice of a BOQ line the valuation needs.
type LineInput struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	UnitCOGS  *decimal.Decimal // nil counts as 0 in cogs, never in revenue
	Frequency Frequency
	Months    int
}

// LineValue is the computed triple for one line.
type LineValue struct {
	Revenue     decimal.Decimal
	COGS        decimal.Decimal
	GrossMargin decimal.Decimal
}

// Valuate computes revenue = qty x price x multiplier,
// cogs = qty x (unit_cogs ?? 0) x multiplier, margin = revenue - cogs.
func Valuate(in LineInput) LineValue {
	mult := Multiplier(in.Frequency, in.Months)

	revenue := in.Quantity.Mul(in.UnitPrice).Mul(mult)

	cogsUnit := decimal.Zero
	if in.UnitCOGS != nil {
		cogsUnit = *in.UnitCOGS
	}
	cogs := in.Quantity.Mul(cogsUnit).Mul(mult)

	return LineValue{
		Revenue:     revenue,
		COGS:        cogs,
		GrossMargin: revenue.Sub(cogs),
	}
}

// Add accumulates another line value element-wise.
func (v LineValue) Add(o LineValue) LineValue {
	return LineValue{
		Revenue:     v.Revenue.Add(o.Revenue),
		COGS:        v.COGS.Add(o.COGS),
		GrossMargin: v.GrossMargin.Add(o.GrossMargin),
	}
}
