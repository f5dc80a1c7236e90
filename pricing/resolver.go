/*
resolver.go - Price source resolution with fixed precedence

PURPOSE:
  Given a product and a target month, select the winning price source and
  compute the unit price. Pure read/compute over catalog snapshots; no side
  effects.

PRECEDENCE (highest to lowest, first match wins):
  1. formulation          unit_price = base_price x factor(period)
  2. product_price_book   best active entry whose window contains the period
  3. (caller-side)        the BOQ line's stored unit price; the resolver
                          signals NoPriceAvailable and the preview service
                          supplies the manual fallback, because only it
                          holds the line

TIE-BREAK (within price books):
  a. prefer entries from the book marked is_default
  b. then prefer the latest valid_from (nil sorts earliest)
  c. still ambiguous -> AmbiguousPriceError. Never pick arbitrarily; a
     leftover tie means overlapping windows, which is a data-quality bug
     the estimator must see.

CURRENCY:
  entry currency > book currency > product currency > USD.

SEE ALSO:
  - formulation.go: Factor computation for formula-driven prices
  - catalog.go: The collaborator contracts this resolver reads from
*/
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Resolver selects the best-matching price source for a product and period.
type Resolver struct {
	Products     ProductCatalog
	Prices       PriceEntrySource
	Formulations FormulationSource
	Index        IndexSource
}

// NewResolver wires a resolver over a single catalog implementation.
func NewResolver(cat Catalog) *Resolver {
	return &Resolver{Products: cat, Prices: cat, Formulations: cat, Index: cat}
}

// Resolve picks a price source for the product at the given month.
// Exactly one source tag per resolution. Returns:
//   - ErrProductNotFound when the product id is unknown
//   - ErrAmbiguousPrice when the tie-break is exhausted
//   - ErrNoPriceAvailable when no formulation or book entry covers the period
func (r *Resolver) Resolve(ctx context.Context, id ProductID, period Month) (Quote, error) {
	product, err := r.Products.GetProduct(ctx, id)
	if err != nil {
		return Quote{}, err
	}

	// 1) formulation
	form, err := r.Formulations.GetFormulation(ctx, id)
	if err != nil {
		return Quote{}, err
	}
	if form != nil {
		return r.resolveFormulation(ctx, product, form, period)
	}

	// 2) price book
	quote, err := r.resolveBookPrice(ctx, product, period)
	if err == nil || !IsNoPrice(err) {
		return quote, err
	}

	// 3) manual fallback is the caller's: it owns the BOQ line.
	return Quote{}, &NoPriceError{ProductID: id, Period: period}
}

// IsNoPrice reports whether err is the no-source outcome (as opposed to a
// hard failure like ambiguity or a missing product).
func IsNoPrice(err error) bool {
	if err == nil {
		return false
	}
	var npe *NoPriceError
	return errors.As(err, &npe)
}

// =============================================================================
// PRICE BOOK RANKING
// =============================================================================

func (r *Resolver) resolveBookPrice(ctx context.Context, product *Product, period Month) (Quote, error) {
	entries, err := r.Prices.ListActivePriceEntries(ctx, product.ID, period)
	if err != nil {
		return Quote{}, err
	}

	winner, err := pickPriceEntry(product.ID, period, entries)
	if err != nil {
		return Quote{}, err
	}
	if winner == nil {
		return Quote{}, &NoPriceError{ProductID: product.ID, Period: period}
	}

	return Quote{
		Source:    SourcePriceBook,
		UnitPrice: RoundCents(winner.UnitPrice),
		Currency:  entryCurrency(winner.Currency, winner.BookCurrency, product.Currency),
		PriceTerm: winner.PriceTerm,
	}, nil
}

// pickPriceEntry applies the tie-break over window-matching candidates.
// Returns nil when no candidate matches the period.
func pickPriceEntry(id ProductID, period Month, entries []PriceEntry) (*PriceEntry, error) {
	var matching []PriceEntry
	for _, e := range entries {
		if e.Window.ContainsMonth(period) {
			matching = append(matching, e)
		}
	}
	if len(matching) == 0 {
		return nil, nil
	}

	// a) default book wins
	var defaults []PriceEntry
	for _, e := range matching {
		if e.IsDefault {
			defaults = append(defaults, e)
		}
	}
	if len(defaults) > 0 {
		matching = defaults
	}

	// b) latest valid_from (nil sorts earliest)
	best := latestFrom(matching)
	if len(best) == 1 {
		return &best[0], nil
	}

	// c) leftover tie is a data-quality error
	ambErr := &AmbiguousPriceError{ProductID: id, Period: period}
	for _, e := range best {
		ambErr.EntryIDs = append(ambErr.EntryIDs, e.ID)
		ambErr.BookIDs = append(ambErr.BookIDs, e.BookID)
	}
	return nil, ambErr
}

func latestFrom(entries []PriceEntry) []PriceEntry {
	var best []PriceEntry
	for _, e := range entries {
		if len(best) == 0 {
			best = []PriceEntry{e}
			continue
		}
		switch compareFrom(e.Window, best[0].Window) {
		case +1:
			best = []PriceEntry{e}
		case 0:
			best = append(best, e)
		}
	}
	return best
}

// compareFrom orders validity windows by valid_from; nil is the earliest.
func compareFrom(a, b Window) int {
	switch {
	case a.From == nil && b.From == nil:
		return 0
	case a.From == nil:
		return -1
	case b.From == nil:
		return +1
	case a.From.After(*b.From):
		return +1
	case a.From.Before(*b.From):
		return -1
	default:
		return 0
	}
}

// =============================================================================
// FORMULATION RESOLUTION
// =============================================================================

func (r *Resolver) resolveFormulation(ctx context.Context, product *Product, form *Formulation, period Month) (Quote, error) {
	factor, err := form.FactorFor(ctx, r.Index, period)
	if err != nil {
		return Quote{}, err
	}

	base, baseCurrency, err := r.resolveBase(ctx, product, form, period)
	if err != nil {
		return Quote{}, err
	}

	unitPrice := RoundCents(base.Mul(factor))
	currency := entryCurrency(form.Currency, baseCurrency, product.Currency)

	return Quote{
		Source:    SourceFormulation,
		UnitPrice: unitPrice,
		Currency:  currency,
		BasePrice: &base,
		Factor:    &factor,
	}, nil
}

// resolveBase yields the formulation's base price: explicit when stored on
// the rule, otherwise resolved for the same period via price books on the
// referenced base product. Formulation is excluded from the recursion, so
// formula chains cannot cycle.
func (r *Resolver) resolveBase(ctx context.Context, product *Product, form *Formulation, period Month) (base decimal.Decimal, currency string, err error) {
	if form.BasePrice != nil {
		return *form.BasePrice, form.Currency, nil
	}
	if form.BaseProductID == nil {
		return base, "", &FormulationError{
			FormulationID: form.ID,
			ProductID:     product.ID,
			Period:        period,
			Reason:        "no base price and no base product reference",
		}
	}

	baseProduct, err := r.Products.GetProduct(ctx, *form.BaseProductID)
	if err != nil {
		return base, "", fmt.Errorf("formulation %s base product: %w", form.ID, err)
	}
	quote, err := r.resolveBookPrice(ctx, baseProduct, period)
	if err != nil {
		return base, "", fmt.Errorf("formulation %s base price: %w", form.ID, err)
	}
	return quote.UnitPrice, quote.Currency, nil
}

// entryCurrency applies the currency precedence chain, ending at USD.
func entryCurrency(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return DefaultCurrency
}
