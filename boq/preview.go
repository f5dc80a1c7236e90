/*
preview.go - "What would this line cost in month X" queries

PURPOSE:
  Combines the price resolver and the valuation engine into a single
  explainable, read-only response: which source won, the base price and
  factor when a formulation was used, and the computed line total.

READ-ONLY CONTRACT:
  Preview never mutates the stored line. Applying a previewed price back
  onto the line is a separate, explicit Apply call that performs a
  single-field update and is idempotent.

FALLBACK:
  When the line has no linked product, or no formulation/book entry covers
  the period, the line's own stored unit price is used with source
  boq_unit_price. A missing price there counts as 0 - BOQ lines always
  carry a unit_price field, so this is not a hard failure.

PERIOD vs QUANTITY:
  The period argument affects only the price. Quantity, frequency, and
  months always come from the line itself.

SEE ALSO:
  - pricing/resolver.go: Source precedence
  - pricing/valuation.go: Multiplier and arithmetic rules
*/
package boq

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/aryaintel/pricing-engine/pricing"
)

// Preview is an ephemeral, non-persisted pricing explanation for one line.
type Preview struct {
	LineID     LineID
	ScenarioID ScenarioID
	ItemName   string
	Period     pricing.Month
	Currency   string
	Source     pricing.PriceSource
	UnitPrice  decimal.Decimal
	Quantity   decimal.Decimal
	Multiplier decimal.Decimal
	LineTotal  decimal.Decimal
	PriceTerm  string

	// Set only when Source == formulation.
	BasePrice *decimal.Decimal
	Factor    *decimal.Decimal
}

// PreviewService orchestrates resolver + valuation for preview/apply calls.
type PreviewService struct {
	Resolver *pricing.Resolver
	Lines    LineStore
}

func NewPreviewService(resolver *pricing.Resolver, lines LineStore) *PreviewService {
	return &PreviewService{Resolver: resolver, Lines: lines}
}

// Preview resolves the line's price for the period and computes the line
// total with the line's own quantity/frequency/months. Resolver errors
// propagate verbatim with the line id attached for diagnostics.
func (s *PreviewService) Preview(ctx context.Context, id LineID, period pricing.Month) (*Preview, error) {
	line, err := s.Lines.GetLine(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("preview line %s: %w", id, err)
	}
	return s.previewLine(ctx, line, period)
}

// PreviewInScenario is Preview with scenario ownership enforced: a line that
// exists but belongs to another scenario reads as not found.
func (s *PreviewService) PreviewInScenario(ctx context.Context, scenarioID ScenarioID, id LineID, period pricing.Month) (*Preview, error) {
	line, err := s.Lines.GetLine(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("preview line %s: %w", id, err)
	}
	if line.ScenarioID != scenarioID {
		return nil, fmt.Errorf("preview line %s: not in scenario %s: %w", id, scenarioID, pricing.ErrLineNotFound)
	}
	return s.previewLine(ctx, line, period)
}

func (s *PreviewService) previewLine(ctx context.Context, line *Line, period pricing.Month) (*Preview, error) {
	quote, err := s.resolveQuote(ctx, line, period)
	if err != nil {
		return nil, fmt.Errorf("preview line %s: %w", line.ID, err)
	}

	mult := pricing.Multiplier(line.Frequency, line.Months)
	total := line.Quantity.Mul(quote.UnitPrice).Mul(mult)

	return &Preview{
		LineID:     line.ID,
		ScenarioID: line.ScenarioID,
		ItemName:   line.ItemName,
		Period:     period,
		Currency:   quote.Currency,
		Source:     quote.Source,
		UnitPrice:  quote.UnitPrice,
		Quantity:   line.Quantity,
		Multiplier: mult,
		LineTotal:  total,
		PriceTerm:  quote.PriceTerm,
		BasePrice:  quote.BasePrice,
		Factor:     quote.Factor,
	}, nil
}

// resolveQuote runs the resolver when a product link exists, falling back to
// the line's stored price for the boq_unit_price rung. AmbiguousPrice and
// product-lookup failures are NOT masked by the fallback.
func (s *PreviewService) resolveQuote(ctx context.Context, line *Line, period pricing.Month) (pricing.Quote, error) {
	if line.ProductID != nil {
		quote, err := s.Resolver.Resolve(ctx, *line.ProductID, period)
		if err == nil {
			return quote, nil
		}
		if !pricing.IsNoPrice(err) {
			return pricing.Quote{}, err
		}
	}
	return pricing.Quote{
		Source:    pricing.SourceBOQ,
		UnitPrice: pricing.RoundCents(line.UnitPrice),
		Currency:  pricing.DefaultCurrency,
		PriceTerm: line.PriceTerm,
	}, nil
}

// Apply writes a previewed unit price onto the line. Single-field update;
// applying the same price twice leaves the line unchanged after the second
// call.
func (s *PreviewService) Apply(ctx context.Context, id LineID, unitPrice decimal.Decimal) error {
	line, err := s.Lines.GetLine(ctx, id)
	if err != nil {
		return fmt.Errorf("apply price to line %s: %w", id, err)
	}
	if line.UnitPrice.Equal(unitPrice) {
		return nil
	}
	if err := s.Lines.UpdateLineUnitPrice(ctx, id, unitPrice); err != nil {
		return fmt.Errorf("apply price to line %s: %w", id, err)
	}
	return nil
}
