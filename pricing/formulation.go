package pricing

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FORMULATION FACTOR - static or index-derived per period
// =============================================================================

var hundred = decimal.NewFromInt(100)

// FactorFor computes the dimensionless multiplier for a period.
//
// Without components the static Factor applies. With components the factor
// is the weighted sum of index ratios:
//
//	factor = sum( weight_pct/100 * index(series, period) / base_index_value )
//
// A nil base index value or a missing index point is a data-quality error;
// the engine never substitutes a default.
func (f *Formulation) FactorFor(ctx context.Context, idx IndexSource, period Month) (decimal.Decimal, error) {
	if len(f.Components) == 0 {
		if f.Factor.IsZero() {
			return decimal.Zero, &FormulationError{
				FormulationID: f.ID,
				ProductID:     f.ProductID,
				Period:        period,
				Reason:        "no components and zero static factor",
			}
		}
		return f.Factor, nil
	}

	if idx == nil {
		return decimal.Zero, &FormulationError{
			FormulationID: f.ID,
			ProductID:     f.ProductID,
			Period:        period,
			Reason:        "index source not configured",
		}
	}

	factor := decimal.Zero
	for _, c := range f.Components {
		if c.BaseIndexValue == nil || c.BaseIndexValue.IsZero() {
			return decimal.Zero, &FormulationError{
				FormulationID: f.ID,
				ProductID:     f.ProductID,
				Period:        period,
				Reason:        "component base index value is not set",
			}
		}
		current, err := idx.IndexValue(ctx, c.SeriesID, period)
		if err != nil {
			return decimal.Zero, &FormulationError{
				FormulationID: f.ID,
				ProductID:     f.ProductID,
				Period:        period,
				Reason:        "index series " + string(c.SeriesID) + " has no point for " + period.String(),
				Err:           err,
			}
		}
		ratio := current.Div(*c.BaseIndexValue)
		weight := c.WeightPct.Div(hundred)
		factor = factor.Add(weight.Mul(ratio))
	}
	return factor, nil
}
