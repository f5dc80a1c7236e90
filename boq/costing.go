package boq

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/aryaintel/pricing-engine/pricing"
)

// =============================================================================
// COGS AUTOFILL - seed unit_cogs from cost books on line creation
// =============================================================================

// AutofillCOGS resolves a unit cost for a freshly created or edited line when
// (and only when) unit_cogs is empty and the line links a product with a
// start period. An existing value is never overwritten, and a missing cost
// entry leaves the field empty rather than failing the save.
//
// Ambiguous cost data still surfaces: overlapping cost windows are a
// data-quality problem the estimator has to fix, not something to paper over.
func AutofillCOGS(ctx context.Context, costs *pricing.CostResolver, line *Line) error {
	if line.UnitCOGS != nil || line.ProductID == nil || line.Start == nil {
		return nil
	}

	quote, err := costs.ResolveCost(ctx, *line.ProductID, *line.Start)
	if err != nil {
		if pricing.IsNoPrice(err) {
			return nil
		}
		return err
	}

	cost := quote.UnitCost
	line.UnitCOGS = &cost
	return nil
}

// SnapshotPriceTerm copies the winning price entry's trade term onto the
// line at create/update time, so the BOQ shows freight-inclusive vs
// ex-freight without re-resolving. Best effort: resolution misses leave the
// field untouched.
func SnapshotPriceTerm(ctx context.Context, resolver *pricing.Resolver, line *Line) {
	if line.ProductID == nil || line.Start == nil || line.PriceTerm != "" {
		return
	}
	quote, err := resolver.Resolve(ctx, *line.ProductID, *line.Start)
	if err != nil {
		return
	}
	line.PriceTerm = quote.PriceTerm
}

// CopyDecimal returns a pointer to a copy of d; helper for nullable money
// fields crossing into Line.
func CopyDecimal(d decimal.Decimal) *decimal.Decimal {
	c := d
	return &c
}
