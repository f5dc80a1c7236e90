/*
errors.go - Centralized error types for the pricing engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The taxonomy follows the surfaces the engine exposes:

  1. NotFound       - product/line/formulation missing; surfaced, not retried
  2. AmbiguousPrice - data-quality conflict; surfaced, never auto-resolved
  3. InvalidInput   - malformed quantity/price/period; rejected before
                      computation, never coerced to a default
  4. NoPriceAvailable - no source produced a usable price; callers holding a
                      BOQ line treat this as "fall back to the stored price"

  No error is retried inside the engine: it is pure computation over
  already-fetched data. Retry/backoff belongs to the I/O layer.

USAGE:
  Callers match with errors.Is:

    if errors.Is(err, pricing.ErrAmbiguousPrice) {
        // render data-integrity message, do not guess a price
    }

SEE ALSO:
  - resolver.go: Produces AmbiguousPriceError / NoPriceError
  - formulation.go: Produces FormulationError
*/
package pricing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrProductNotFound is returned when the referenced product id does not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrLineNotFound is returned when a referenced BOQ line doesn't exist
	// (or is not in the requested scenario).
	ErrLineNotFound = errors.New("boq line not found")

	// ErrScenarioNotFound is returned when a referenced scenario doesn't exist.
	ErrScenarioNotFound = errors.New("scenario not found")

	// ErrAmbiguousPrice is returned when the tie-break is exhausted: two or
	// more candidate entries remain for the same product and period. This is
	// a data integrity signal, not something the resolver masks.
	ErrAmbiguousPrice = errors.New("ambiguous price")

	// ErrNoPriceAvailable is returned when neither formulation nor any price
	// book entry covers the requested period. Callers that hold the BOQ line
	// fall back to its stored unit price.
	ErrNoPriceAvailable = errors.New("no price available")

	// ErrInvalidInput is returned for malformed quantity/price values.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidPeriod is returned for malformed period strings.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrMissingIndexPoint is returned when a formulation component references
	// an index series with no point for the requested month.
	ErrMissingIndexPoint = errors.New("missing index point")
)

// =============================================================================
// STRUCTURED ERRORS - Carry product/line/period context
// =============================================================================

// AmbiguousPriceError reports which entries tied so the caller can render an
// actionable data-quality message.
type AmbiguousPriceError struct {
	ProductID  ProductID
	Period     Month
	EntryIDs   []EntryID
	BookIDs    []BookID
}

func (e *AmbiguousPriceError) Error() string {
	return fmt.Sprintf("ambiguous price for product %s at %s: %d candidate entries after tie-break (books %v)",
		e.ProductID, e.Period, len(e.EntryIDs), e.BookIDs)
}

func (e *AmbiguousPriceError) Unwrap() error { return ErrAmbiguousPrice }

// NoPriceError reports the product and period that found no source.
type NoPriceError struct {
	ProductID ProductID
	Period    Month
}

func (e *NoPriceError) Error() string {
	return fmt.Sprintf("no price available for product %s at %s", e.ProductID, e.Period)
}

func (e *NoPriceError) Unwrap() error { return ErrNoPriceAvailable }

// FormulationError reports why a formula-driven price could not be computed.
// Formulation problems (nil base index, missing components, missing index
// points) are data-quality conflicts, same family as ambiguous prices.
type FormulationError struct {
	FormulationID FormulationID
	ProductID     ProductID
	Period        Month
	Reason        string
	Err           error
}

func (e *FormulationError) Error() string {
	return fmt.Sprintf("formulation %s for product %s at %s: %s",
		e.FormulationID, e.ProductID, e.Period, e.Reason)
}

func (e *FormulationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrAmbiguousPrice
}

// InvalidInputError rejects a malformed boundary value before computation.
type InvalidInputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrLineNotFound) ||
		errors.Is(err, ErrScenarioNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidPeriod)
}

// IsDataConflict returns true for data-quality conflicts the caller must
// surface rather than work around.
func IsDataConflict(err error) bool {
	return errors.Is(err, ErrAmbiguousPrice) ||
		errors.Is(err, ErrMissingIndexPoint)
}
