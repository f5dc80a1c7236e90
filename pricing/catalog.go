/*
catalog.go - Collaborator interfaces consumed by the resolver

PURPOSE:
  The pricing engine consumes, and does not own, the catalog stores. These
  interfaces are the fixed contracts; any "try alternate endpoint paths"
  tolerance for backend naming drift belongs in a thin adapter outside the
  engine, never here.

CONTRACT NOTES:
  - ListActivePriceEntries returns ALL candidate entries for the product,
    filtered to is_active=true (entry AND owning book). It is NOT responsible
    for ranking them; precedence and tie-break live in resolver.go.
  - GetFormulation returns (nil, nil) when the product has no formulation.
  - A resolution call must see a consistent snapshot of entries; no read may
    observe a half-written entry. That guarantee belongs to implementations.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite catalog
  - pricing/store: in-memory catalog for tests and demos

SEE ALSO:
  - resolver.go: The only consumer of these contracts
  - boq/store.go: The BOQ line store contract (domain side)
*/
package pricing

import (
	"context"

	"github.com/shopspring/decimal"
)

// ProductCatalog looks up immutable product reference data.
type ProductCatalog interface {
	// GetProduct returns the product or ErrProductNotFound.
	GetProduct(ctx context.Context, id ProductID) (*Product, error)
}

// PriceEntrySource returns candidate price book entries for a product whose
// validity window could cover the period. Implementations may over-return
// (the resolver re-checks windows) but must never under-return.
type PriceEntrySource interface {
	ListActivePriceEntries(ctx context.Context, id ProductID, period Month) ([]PriceEntry, error)
}

// CostEntrySource is the cost-book analog of PriceEntrySource.
type CostEntrySource interface {
	ListActiveCostEntries(ctx context.Context, id ProductID, period Month) ([]CostEntry, error)
}

// FormulationSource looks up formula-driven pricing rules by product.
type FormulationSource interface {
	// GetFormulation returns nil (and nil error) when the product's pricing
	// is not formula-based.
	GetFormulation(ctx context.Context, id ProductID) (*Formulation, error)
}

// IndexSource supplies index series values for formulation factors.
type IndexSource interface {
	// IndexValue returns the point for (series, month) or ErrMissingIndexPoint.
	IndexValue(ctx context.Context, id SeriesID, period Month) (decimal.Decimal, error)
}

// Catalog bundles everything the resolver needs. Store implementations
// satisfy this with a single value.
type Catalog interface {
	ProductCatalog
	PriceEntrySource
	CostEntrySource
	FormulationSource
	IndexSource
}
