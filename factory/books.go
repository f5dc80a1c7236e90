/*
Package factory provides JSON to Go book conversion.

PURPOSE:
  Converts JSON price-book and cost-book definitions into validated catalog
  records. This enables book maintenance without code changes - commercial
  teams export books as JSON, and the factory turns them into store-ready
  rows.

WHY JSON?
  - Non-developers can maintain books
  - Easy integration with admin UI import
  - Version control for book definitions
  - Seed data for demo scenarios

JSON SCHEMA:
  {
    "code": "std-2025",
    "name": "Standard 2025",
    "currency": "USD",
    "is_default": true,
    "is_active": true,
    "entries": [
      {
        "product_code": "UREA-46",
        "unit_price": "312.50",
        "valid_from": "2025-01-01",
        "valid_to": "2025-12-31",
        "price_term": "FOB"
      }
    ]
  }

VALIDATION:
  - money values are decimal strings, parsed exactly (never floats)
  - validity windows must not have end before start
  - within one book, entries for the same product must not overlap;
    the resolver assumes at most one match per period, so overlap is
    rejected at import time rather than surfacing later as AmbiguousPrice

SEE ALSO:
  - store/sqlite: ImportPriceBook / ImportCostBook consume these records
  - api/scenarios.go: Demo loaders seed books through this factory
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aryaintel/pricing-engine/pricing"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// BookJSON is the JSON representation of a price or cost book.
type BookJSON struct {
	Code      string      `json:"code"`
	Name      string      `json:"name"`
	Currency  string      `json:"currency"`
	IsDefault bool        `json:"is_default,omitempty"`
	IsActive  *bool       `json:"is_active,omitempty"` // default true
	ValidFrom string      `json:"valid_from,omitempty"`
	ValidTo   string      `json:"valid_to,omitempty"`
	Entries   []EntryJSON `json:"entries"`
}

// EntryJSON is one per-product row of a book.
type EntryJSON struct {
	ProductCode string `json:"product_code"`
	UnitPrice   string `json:"unit_price,omitempty"` // price books
	UnitCost    string `json:"unit_cost,omitempty"`  // cost books
	ValidFrom   string `json:"valid_from,omitempty"`
	ValidTo     string `json:"valid_to,omitempty"`
	PriceTerm   string `json:"price_term,omitempty"`
	IsActive    *bool  `json:"is_active,omitempty"` // default true
	Notes       string `json:"notes,omitempty"`
}

// =============================================================================
// PARSED RECORDS - store-ready, decimal-exact
// =============================================================================

type BookDef struct {
	Code      string
	Name      string
	Currency  string
	IsDefault bool
	IsActive  bool
	Window    pricing.Window
	Entries   []EntryDef
}

type EntryDef struct {
	ProductCode string
	Amount      decimal.Decimal
	Window      pricing.Window
	PriceTerm   string
	IsActive    bool
	Notes       string
}

// Kind selects which amount field an entry must carry.
type Kind int

const (
	PriceBook Kind = iota
	CostBook
)

// =============================================================================
// FACTORY
// =============================================================================

// ParseBook parses and validates a JSON book definition.
func ParseBook(raw []byte, kind Kind) (*BookDef, error) {
	var bj BookJSON
	if err := json.Unmarshal(raw, &bj); err != nil {
		return nil, fmt.Errorf("%w: %v", pricing.ErrInvalidInput, err)
	}
	return buildBook(bj, kind)
}

func buildBook(bj BookJSON, kind Kind) (*BookDef, error) {
	code := strings.TrimSpace(bj.Code)
	if code == "" {
		return nil, &pricing.InvalidInputError{Field: "code", Value: bj.Code, Reason: "required"}
	}
	if strings.TrimSpace(bj.Name) == "" {
		return nil, &pricing.InvalidInputError{Field: "name", Value: bj.Name, Reason: "required"}
	}
	currency := strings.ToUpper(strings.TrimSpace(bj.Currency))
	if len(currency) != 3 {
		return nil, &pricing.InvalidInputError{Field: "currency", Value: bj.Currency, Reason: "must be a 3-letter code (e.g., USD)"}
	}

	window, err := parseWindow("book", bj.ValidFrom, bj.ValidTo)
	if err != nil {
		return nil, err
	}

	def := &BookDef{
		Code:      code,
		Name:      strings.TrimSpace(bj.Name),
		Currency:  currency,
		IsDefault: bj.IsDefault,
		IsActive:  boolOrTrue(bj.IsActive),
		Window:    window,
	}

	for i, ej := range bj.Entries {
		entry, err := buildEntry(ej, kind, i)
		if err != nil {
			return nil, err
		}
		def.Entries = append(def.Entries, *entry)
	}

	if err := checkOverlaps(def.Entries); err != nil {
		return nil, err
	}
	return def, nil
}

func buildEntry(ej EntryJSON, kind Kind, idx int) (*EntryDef, error) {
	if strings.TrimSpace(ej.ProductCode) == "" {
		return nil, &pricing.InvalidInputError{Field: fmt.Sprintf("entries[%d].product_code", idx), Value: "", Reason: "required"}
	}

	field, raw := "unit_price", ej.UnitPrice
	if kind == CostBook {
		field, raw = "unit_cost", ej.UnitCost
	}
	amount, err := pricing.ParseDecimal(fmt.Sprintf("entries[%d].%s", idx, field), raw)
	if err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, &pricing.InvalidInputError{Field: field, Value: raw, Reason: "must be >= 0"}
	}

	window, err := parseWindow(fmt.Sprintf("entries[%d]", idx), ej.ValidFrom, ej.ValidTo)
	if err != nil {
		return nil, err
	}

	return &EntryDef{
		ProductCode: strings.TrimSpace(ej.ProductCode),
		Amount:      amount,
		Window:      window,
		PriceTerm:   strings.TrimSpace(ej.PriceTerm),
		IsActive:    boolOrTrue(ej.IsActive),
		Notes:       ej.Notes,
	}, nil
}

// checkOverlaps enforces the data-quality invariant at import time: within
// one book, active entries for the same product must not have overlapping
// validity windows.
func checkOverlaps(entries []EntryDef) error {
	byProduct := make(map[string][]EntryDef)
	for _, e := range entries {
		if !e.IsActive {
			continue
		}
		byProduct[e.ProductCode] = append(byProduct[e.ProductCode], e)
	}
	for code, group := range byProduct {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if group[i].Window.Overlaps(group[j].Window) {
					return &pricing.InvalidInputError{
						Field:  "entries",
						Value:  code,
						Reason: "overlapping validity windows for the same product within one book",
					}
				}
			}
		}
	}
	return nil
}

func parseWindow(field, from, to string) (pricing.Window, error) {
	var w pricing.Window
	if from != "" {
		t, err := pricing.ParseDate(field+".valid_from", from)
		if err != nil {
			return w, err
		}
		w.From = &t
	}
	if to != "" {
		t, err := pricing.ParseDate(field+".valid_to", to)
		if err != nil {
			return w, err
		}
		w.To = &t
	}
	if err := w.Validate(); err != nil {
		return w, err
	}
	return w, nil
}

func boolOrTrue(b *bool) bool {
	if b == nil {
		return true
	}
	return *b
}

// DatePtr is a seeding convenience for window bounds.
func DatePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}
