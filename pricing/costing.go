package pricing

import (
	"context"
)

// =============================================================================
// COST RESOLUTION - cost-book analog of the price resolver
// =============================================================================

// CostResolver resolves unit costs from cost books. Cost books have no
// formulation rung; the precedence is simply best matching entry, with the
// same tie-break policy as price books (default book, latest valid_from,
// then ambiguity error).
type CostResolver struct {
	Products ProductCatalog
	Costs    CostEntrySource
}

// NewCostResolver wires a cost resolver over a catalog implementation.
func NewCostResolver(cat Catalog) *CostResolver {
	return &CostResolver{Products: cat, Costs: cat}
}

// ResolveCost picks the best cost entry for the product at the given month.
// Returns ErrNoPriceAvailable (via NoPriceError) when no entry covers the
// period; callers usually treat that as "leave unit_cogs empty".
func (r *CostResolver) ResolveCost(ctx context.Context, id ProductID, period Month) (CostQuote, error) {
	product, err := r.Products.GetProduct(ctx, id)
	if err != nil {
		return CostQuote{}, err
	}

	entries, err := r.Costs.ListActiveCostEntries(ctx, id, period)
	if err != nil {
		return CostQuote{}, err
	}

	// Rank through the shared price-entry tie-break.
	byID := make(map[EntryID]CostEntry, len(entries))
	candidates := make([]PriceEntry, 0, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
		candidates = append(candidates, PriceEntry{
			ID:        e.ID,
			BookID:    e.BookID,
			IsDefault: e.IsDefault,
			Window:    e.Window,
			UnitPrice: e.UnitCost,
		})
	}

	winner, err := pickPriceEntry(id, period, candidates)
	if err != nil {
		return CostQuote{}, err
	}
	if winner == nil {
		return CostQuote{}, &NoPriceError{ProductID: id, Period: period}
	}

	cost := byID[winner.ID]
	return CostQuote{
		UnitCost: RoundCents(cost.UnitCost),
		Currency: entryCurrency(cost.Currency, cost.BookCurrency, product.Currency),
		CostTerm: cost.CostTerm,
		BookID:   cost.BookID,
	}, nil
}
