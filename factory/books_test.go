package factory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryaintel/pricing-engine/factory"
	"github.com/aryaintel/pricing-engine/pricing"
)

// =============================================================================
// HAPPY PATH
// =============================================================================

func TestParseBook_PriceBook(t *testing.T) {
	// GIVEN: A complete JSON price book with two windowed entries
	// WHEN: Parsing as a price book
	// THEN: All fields land decimal-exact with defaults applied

	raw := []byte(`{
		"code": "std-2026",
		"name": "Standard 2026",
		"currency": "usd",
		"is_default": true,
		"entries": [
			{"product_code": "UREA-46", "unit_price": "312.50", "valid_from": "2026-01-01", "valid_to": "2026-06-30", "price_term": "FOB"},
			{"product_code": "UREA-46", "unit_price": "325.00", "valid_from": "2026-07-01"}
		]
	}`)

	def, err := factory.ParseBook(raw, factory.PriceBook)
	require.NoError(t, err)

	assert.Equal(t, "std-2026", def.Code)
	assert.Equal(t, "Standard 2026", def.Name)
	assert.Equal(t, "USD", def.Currency, "currency is uppercased")
	assert.True(t, def.IsDefault)
	assert.True(t, def.IsActive, "is_active defaults to true")

	require.Len(t, def.Entries, 2)
	assert.Equal(t, "UREA-46", def.Entries[0].ProductCode)
	assert.True(t, def.Entries[0].Amount.Equal(decimal.RequireFromString("312.50")))
	assert.Equal(t, "FOB", def.Entries[0].PriceTerm)
	require.NotNil(t, def.Entries[0].Window.To)
	assert.Equal(t, time.Date(2026, time.June, 30, 0, 0, 0, 0, time.UTC), *def.Entries[0].Window.To)
	assert.Nil(t, def.Entries[1].Window.To, "open-ended window")
}

func TestParseBook_CostBook_ReadsUnitCost(t *testing.T) {
	raw := []byte(`{
		"code": "plant-2026",
		"name": "Plant costs",
		"currency": "USD",
		"entries": [{"product_code": "UREA-46", "unit_cost": "242.00"}]
	}`)

	def, err := factory.ParseBook(raw, factory.CostBook)
	require.NoError(t, err)
	require.Len(t, def.Entries, 1)
	assert.True(t, def.Entries[0].Amount.Equal(decimal.RequireFromString("242.00")))
}

// =============================================================================
// VALIDATION FAILURES
// =============================================================================

func TestParseBook_RejectsMalformedBooks(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `{`},
		{"missing code", `{"name": "X", "currency": "USD"}`},
		{"blank code", `{"code": "  ", "name": "X", "currency": "USD"}`},
		{"missing name", `{"code": "b1", "currency": "USD"}`},
		{"bad currency", `{"code": "b1", "name": "X", "currency": "DOLLARS"}`},
		{"missing product code", `{"code": "b1", "name": "X", "currency": "USD",
			"entries": [{"unit_price": "10"}]}`},
		{"missing amount", `{"code": "b1", "name": "X", "currency": "USD",
			"entries": [{"product_code": "P1"}]}`},
		{"comma decimal", `{"code": "b1", "name": "X", "currency": "USD",
			"entries": [{"product_code": "P1", "unit_price": "12,5"}]}`},
		{"negative amount", `{"code": "b1", "name": "X", "currency": "USD",
			"entries": [{"product_code": "P1", "unit_price": "-1"}]}`},
		{"window end before start", `{"code": "b1", "name": "X", "currency": "USD",
			"entries": [{"product_code": "P1", "unit_price": "10",
				"valid_from": "2026-06-01", "valid_to": "2026-01-01"}]}`},
		{"bad date format", `{"code": "b1", "name": "X", "currency": "USD",
			"entries": [{"product_code": "P1", "unit_price": "10", "valid_from": "01/06/2026"}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := factory.ParseBook([]byte(tc.raw), factory.PriceBook)
			require.Error(t, err)
			assert.True(t, pricing.IsClientError(err), "expected a client error, got %v", err)
		})
	}
}

func TestParseBook_CostBook_IgnoresUnitPriceField(t *testing.T) {
	// A cost book entry carrying only unit_price has no amount.
	raw := []byte(`{
		"code": "plant", "name": "Plant", "currency": "USD",
		"entries": [{"product_code": "P1", "unit_price": "10"}]
	}`)

	_, err := factory.ParseBook(raw, factory.CostBook)
	require.Error(t, err)
	assert.ErrorIs(t, err, pricing.ErrInvalidInput)
}

// =============================================================================
// OVERLAP INVARIANT
// =============================================================================

func TestParseBook_RejectsOverlappingWindowsForSameProduct(t *testing.T) {
	// GIVEN: Two active entries for UREA-46 whose windows share March
	// WHEN: Parsing
	// THEN: Import fails instead of deferring the conflict to resolution time

	raw := []byte(`{
		"code": "b1", "name": "X", "currency": "USD",
		"entries": [
			{"product_code": "UREA-46", "unit_price": "312.50", "valid_from": "2026-01-01", "valid_to": "2026-03-31"},
			{"product_code": "UREA-46", "unit_price": "325.00", "valid_from": "2026-03-01"}
		]
	}`)

	_, err := factory.ParseBook(raw, factory.PriceBook)
	require.Error(t, err)
	assert.ErrorIs(t, err, pricing.ErrInvalidInput)
	assert.Contains(t, err.Error(), "overlap")
}

func TestParseBook_InactiveEntriesExemptFromOverlapCheck(t *testing.T) {
	// Retired rows may overlap their replacement; only active rows conflict.
	raw := []byte(`{
		"code": "b1", "name": "X", "currency": "USD",
		"entries": [
			{"product_code": "UREA-46", "unit_price": "312.50", "is_active": false},
			{"product_code": "UREA-46", "unit_price": "325.00"}
		]
	}`)

	def, err := factory.ParseBook(raw, factory.PriceBook)
	require.NoError(t, err)
	assert.False(t, def.Entries[0].IsActive)
	assert.True(t, def.Entries[1].IsActive)
}

func TestParseBook_DifferentProductsMayOverlap(t *testing.T) {
	raw := []byte(`{
		"code": "b1", "name": "X", "currency": "USD",
		"entries": [
			{"product_code": "UREA-46", "unit_price": "312.50"},
			{"product_code": "NH3", "unit_price": "455.00"}
		]
	}`)

	_, err := factory.ParseBook(raw, factory.PriceBook)
	assert.NoError(t, err)
}
