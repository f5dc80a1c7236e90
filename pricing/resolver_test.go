package pricing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryaintel/pricing-engine/pricing"
	"github.com/aryaintel/pricing-engine/pricing/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newCatalog() *store.Memory {
	return store.NewMemory()
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func datePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func putProduct(cat *store.Memory, id, currency string) {
	cat.PutProduct(pricing.Product{
		ID:       pricing.ProductID(id),
		Code:     id,
		Name:     id,
		Currency: currency,
		Active:   true,
	})
}

func entry(id string, opts pricing.PriceEntry) pricing.PriceEntry {
	opts.ID = pricing.EntryID(id)
	return opts
}

func march2026() pricing.Month {
	return pricing.NewMonth(2026, time.March)
}

// =============================================================================
// PRICE BOOK RESOLUTION
// =============================================================================

func TestResolve_SingleBookEntry_WinsWithRoundedPrice(t *testing.T) {
	// GIVEN: One active entry covering the period, price with 3 decimals
	// WHEN: Resolving
	// THEN: Source is product_price_book and the price is rounded to cents

	cat := newCatalog()
	putProduct(cat, "urea", "USD")
	cat.AddPriceEntry("urea", entry("e1", pricing.PriceEntry{
		BookID:    "std",
		UnitPrice: dec("312.505"),
		Window:    pricing.Window{From: datePtr(2026, time.January, 1), To: datePtr(2026, time.December, 31)},
	}))

	quote, err := pricing.NewResolver(cat).Resolve(context.Background(), "urea", march2026())
	require.NoError(t, err)

	assert.Equal(t, pricing.SourcePriceBook, quote.Source)
	assert.True(t, quote.UnitPrice.Equal(dec("312.51")), "got %s", quote.UnitPrice)
	assert.Equal(t, "USD", quote.Currency)
	assert.Nil(t, quote.BasePrice)
	assert.Nil(t, quote.Factor)
}

func TestResolve_WindowBounds_AreInclusive(t *testing.T) {
	// GIVEN: An entry valid 2026-02-01 .. 2026-03-01
	// WHEN: Resolving the boundary months
	// THEN: Both February and March match, January and April do not

	cat := newCatalog()
	putProduct(cat, "urea", "USD")
	cat.AddPriceEntry("urea", entry("e1", pricing.PriceEntry{
		BookID:    "std",
		UnitPrice: dec("100"),
		Window:    pricing.Window{From: datePtr(2026, time.February, 1), To: datePtr(2026, time.March, 1)},
	}))
	resolver := pricing.NewResolver(cat)

	for _, m := range []time.Month{time.February, time.March} {
		_, err := resolver.Resolve(context.Background(), "urea", pricing.NewMonth(2026, m))
		assert.NoError(t, err, "month %s should be covered", m)
	}
	for _, m := range []time.Month{time.January, time.April} {
		_, err := resolver.Resolve(context.Background(), "urea", pricing.NewMonth(2026, m))
		assert.True(t, pricing.IsNoPrice(err), "month %s should not be covered", m)
	}
}

func TestResolve_NilWindowBounds_AreUnbounded(t *testing.T) {
	// GIVEN: An entry with no valid_from and no valid_to
	// WHEN: Resolving an arbitrary month
	// THEN: The entry matches

	cat := newCatalog()
	putProduct(cat, "urea", "USD")
	cat.AddPriceEntry("urea", entry("e1", pricing.PriceEntry{
		BookID:    "std",
		UnitPrice: dec("100"),
	}))

	quote, err := pricing.NewResolver(cat).Resolve(context.Background(), "urea", pricing.NewMonth(2031, time.December))
	require.NoError(t, err)
	assert.True(t, quote.UnitPrice.Equal(dec("100")))
}

func TestResolve_DefaultBook_BeatsNonDefault(t *testing.T) {
	// GIVEN: Overlapping entries from a default and a non-default book
	// WHEN: Resolving
	// THEN: The default book's entry wins even with an older valid_from

	cat := newCatalog()
	putProduct(cat, "urea", "USD")
	cat.AddPriceEntry("urea", entry("promo", pricing.PriceEntry{
		BookID:    "promo",
		UnitPrice: dec("298.00"),
		Window:    pricing.Window{From: datePtr(2026, time.March, 1)},
	}))
	cat.AddPriceEntry("urea", entry("std", pricing.PriceEntry{
		BookID:    "std",
		IsDefault: true,
		UnitPrice: dec("312.50"),
		Window:    pricing.Window{From: datePtr(2026, time.January, 1)},
	}))

	quote, err := pricing.NewResolver(cat).Resolve(context.Background(), "urea", march2026())
	require.NoError(t, err)
	assert.True(t, quote.UnitPrice.Equal(dec("312.50")))
}

func TestResolve_LatestValidFrom_BreaksTie(t *testing.T) {
	// GIVEN: Two non-default entries, one starting later
	// WHEN: Resolving a month both cover
	// THEN: The later valid_from wins; a nil valid_from sorts earliest

	cat := newCatalog()
	putProduct(cat, "urea", "USD")
	cat.AddPriceEntry("urea", entry("open", pricing.PriceEntry{
		BookID:    "a",
		UnitPrice: dec("290"),
	}))
	cat.AddPriceEntry("urea", entry("newer", pricing.PriceEntry{
		BookID:    "b",
		UnitPrice: dec("305"),
		Window:    pricing.Window{From: datePtr(2026, time.February, 1)},
	}))

	quote, err := pricing.NewResolver(cat).Resolve(context.Background(), "urea", march2026())
	require.NoError(t, err)
	assert.True(t, quote.UnitPrice.Equal(dec("305")))
}

func TestResolve_ExhaustedTieBreak_IsAmbiguous(t *testing.T) {
	// GIVEN: Two default-book entries with identical valid_from
	// WHEN: Resolving
	// THEN: AmbiguousPriceError listing both entries; never an arbitrary pick

	cat := newCatalog()
	putProduct(cat, "urea", "USD")
	for _, id := range []string{"e1", "e2"} {
		cat.AddPriceEntry("urea", entry(id, pricing.PriceEntry{
			BookID:    "std",
			IsDefault: true,
			UnitPrice: dec("100"),
			Window:    pricing.Window{From: datePtr(2026, time.January, 1)},
		}))
	}

	_, err := pricing.NewResolver(cat).Resolve(context.Background(), "urea", march2026())
	require.Error(t, err)
	assert.ErrorIs(t, err, pricing.ErrAmbiguousPrice)
	assert.True(t, pricing.IsDataConflict(err))

	var amb *pricing.AmbiguousPriceError
	require.ErrorAs(t, err, &amb)
	assert.Len(t, amb.EntryIDs, 2)
}

func TestResolve_NoSource_SignalsNoPrice(t *testing.T) {
	// GIVEN: A product with no formulation and no book entries
	// WHEN: Resolving
	// THEN: NoPriceError; the caller holding the line supplies the fallback

	cat := newCatalog()
	putProduct(cat, "urea", "USD")

	_, err := pricing.NewResolver(cat).Resolve(context.Background(), "urea", march2026())
	require.Error(t, err)
	assert.True(t, pricing.IsNoPrice(err))
	assert.ErrorIs(t, err, pricing.ErrNoPriceAvailable)
}

func TestResolve_UnknownProduct_IsNotFound(t *testing.T) {
	cat := newCatalog()

	_, err := pricing.NewResolver(cat).Resolve(context.Background(), "ghost", march2026())
	require.Error(t, err)
	assert.ErrorIs(t, err, pricing.ErrProductNotFound)
	assert.True(t, pricing.IsNotFound(err))
	assert.False(t, pricing.IsNoPrice(err), "missing product is a hard failure, not a fallback signal")
}

// =============================================================================
// CURRENCY PRECEDENCE
// =============================================================================

func TestResolve_CurrencyPrecedence(t *testing.T) {
	// GIVEN: Varying currency fields on entry, book, and product
	// WHEN: Resolving
	// THEN: entry > book > product > USD

	cases := []struct {
		name     string
		entryCur string
		bookCur  string
		prodCur  string
		want     string
	}{
		{"entry wins", "EUR", "TRY", "USD", "EUR"},
		{"book when entry empty", "", "TRY", "USD", "TRY"},
		{"product when both empty", "", "", "SAR", "SAR"},
		{"usd fallback", "", "", "", "USD"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cat := newCatalog()
			putProduct(cat, "p", tc.prodCur)
			cat.AddPriceEntry("p", entry("e1", pricing.PriceEntry{
				BookID:       "b",
				UnitPrice:    dec("10"),
				Currency:     tc.entryCur,
				BookCurrency: tc.bookCur,
			}))

			quote, err := pricing.NewResolver(cat).Resolve(context.Background(), "p", march2026())
			require.NoError(t, err)
			assert.Equal(t, tc.want, quote.Currency)
		})
	}
}

// =============================================================================
// FORMULATION PRECEDENCE
// =============================================================================

func TestResolve_Formulation_BeatsBookEntries(t *testing.T) {
	// GIVEN: A product with both a formulation and a valid book entry
	// WHEN: Resolving
	// THEN: The formulation wins and the quote carries base and factor

	cat := newCatalog()
	putProduct(cat, "urea", "USD")
	cat.AddPriceEntry("urea", entry("e1", pricing.PriceEntry{
		BookID:    "std",
		IsDefault: true,
		UnitPrice: dec("999"),
	}))
	cat.PutFormulation(pricing.Formulation{
		ID:        "f1",
		ProductID: "urea",
		BasePrice: decPtr("50"),
		Factor:    dec("1.2"),
	})

	quote, err := pricing.NewResolver(cat).Resolve(context.Background(), "urea", march2026())
	require.NoError(t, err)

	assert.Equal(t, pricing.SourceFormulation, quote.Source)
	assert.True(t, quote.UnitPrice.Equal(dec("60")), "got %s", quote.UnitPrice)
	require.NotNil(t, quote.BasePrice)
	require.NotNil(t, quote.Factor)
	assert.True(t, quote.BasePrice.Equal(dec("50")))
	assert.True(t, quote.Factor.Equal(dec("1.2")))
}

func TestResolve_Formulation_BaseFromReferencedProduct(t *testing.T) {
	// GIVEN: A formulation with no explicit base price but a base product
	//        priced in a book
	// WHEN: Resolving the formulated product
	// THEN: The base resolves via price books for the same period; the base
	//       product's own formulation (if any) is never consulted

	cat := newCatalog()
	putProduct(cat, "urea", "USD")
	putProduct(cat, "gas", "USD")
	cat.AddPriceEntry("gas", entry("g1", pricing.PriceEntry{
		BookID:    "feed",
		IsDefault: true,
		UnitPrice: dec("50"),
	}))
	base := pricing.ProductID("gas")
	cat.PutFormulation(pricing.Formulation{
		ID:            "f1",
		ProductID:     "urea",
		BaseProductID: &base,
		Factor:        dec("1.5"),
	})

	quote, err := pricing.NewResolver(cat).Resolve(context.Background(), "urea", march2026())
	require.NoError(t, err)
	assert.True(t, quote.UnitPrice.Equal(dec("75")), "got %s", quote.UnitPrice)
}

func TestResolve_Formulation_WithoutAnyBase_Fails(t *testing.T) {
	// GIVEN: A formulation with neither base price nor base product
	// WHEN: Resolving
	// THEN: FormulationError; never silently fall through to book pricing

	cat := newCatalog()
	putProduct(cat, "urea", "USD")
	cat.AddPriceEntry("urea", entry("e1", pricing.PriceEntry{
		BookID: "std", UnitPrice: dec("100"),
	}))
	cat.PutFormulation(pricing.Formulation{
		ID:        "f1",
		ProductID: "urea",
		Factor:    dec("1.1"),
	})

	_, err := pricing.NewResolver(cat).Resolve(context.Background(), "urea", march2026())
	require.Error(t, err)

	var ferr *pricing.FormulationError
	assert.True(t, errors.As(err, &ferr))
}

func TestResolve_Formulation_BaseProductWithoutPrice_Fails(t *testing.T) {
	// GIVEN: A base product with no covering book entry
	// WHEN: Resolving the formulated product
	// THEN: The failure surfaces instead of falling back

	cat := newCatalog()
	putProduct(cat, "urea", "USD")
	putProduct(cat, "gas", "USD")
	base := pricing.ProductID("gas")
	cat.PutFormulation(pricing.Formulation{
		ID:            "f1",
		ProductID:     "urea",
		BaseProductID: &base,
		Factor:        dec("1.5"),
	})

	_, err := pricing.NewResolver(cat).Resolve(context.Background(), "urea", march2026())
	require.Error(t, err)
	assert.ErrorIs(t, err, pricing.ErrNoPriceAvailable)
}

// =============================================================================
// COST RESOLUTION
// =============================================================================

func TestResolveCost_SharesTieBreakWithPrices(t *testing.T) {
	// GIVEN: Overlapping cost entries, one from the default cost book
	// WHEN: Resolving the cost
	// THEN: The default book's entry wins, rounded to cents

	cat := newCatalog()
	putProduct(cat, "urea", "USD")
	cat.AddCostEntry("urea", pricing.CostEntry{
		ID: "c1", BookID: "plant", IsDefault: true,
		UnitCost: dec("242.005"),
	})
	cat.AddCostEntry("urea", pricing.CostEntry{
		ID: "c2", BookID: "alt",
		UnitCost: dec("200"),
	})

	quote, err := pricing.NewCostResolver(cat).ResolveCost(context.Background(), "urea", march2026())
	require.NoError(t, err)
	assert.True(t, quote.UnitCost.Equal(dec("242.01")), "got %s", quote.UnitCost)
	assert.Equal(t, pricing.BookID("plant"), quote.BookID)
}

func TestResolveCost_NoEntry_SignalsNoPrice(t *testing.T) {
	cat := newCatalog()
	putProduct(cat, "urea", "USD")

	_, err := pricing.NewCostResolver(cat).ResolveCost(context.Background(), "urea", march2026())
	require.Error(t, err)
	assert.True(t, pricing.IsNoPrice(err))
}
