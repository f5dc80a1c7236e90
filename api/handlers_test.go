/*
handlers_test.go - HTTP-level tests for the pricing API

Tests drive the real router against an in-memory SQLite store, covering:
- Catalog and book lifecycle (products, books, entries, JSON import)
- Price resolution endpoint with the full error-status mapping
- BOQ line lifecycle, preview, apply-price, and totals
- Demo scenario loading
*/
package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryaintel/pricing-engine/api"
	"github.com/aryaintel/pricing-engine/store/sqlite"
)

// =============================================================================
// TEST HARNESS
// =============================================================================

type harness struct {
	t      *testing.T
	server *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := httptest.NewServer(api.NewRouter(api.NewHandler(store)))
	t.Cleanup(srv.Close)
	return &harness{t: t, server: srv}
}

// do sends a request with a JSON body and decodes the JSON response into out
// (out may be nil for status-only checks).
func (h *harness) do(method, path string, body, out any) int {
	h.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, h.server.URL+path, &buf)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(h.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (h *harness) createProduct(code, name string) string {
	h.t.Helper()
	var product map[string]any
	status := h.do("POST", "/api/products", map[string]any{
		"code": code, "name": name, "uom": "t", "currency": "USD",
	}, &product)
	require.Equal(h.t, http.StatusCreated, status)
	return product["id"].(string)
}

func (h *harness) importPriceBook(book map[string]any) string {
	h.t.Helper()
	var created map[string]any
	status := h.do("POST", "/api/price-books/import", book, &created)
	require.Equal(h.t, http.StatusCreated, status, "import failed: %v", created)
	return created["id"].(string)
}

func (h *harness) createScenario(name, start string) string {
	h.t.Helper()
	var scenario map[string]any
	status := h.do("POST", "/api/scenarios", map[string]any{
		"name": name, "start": start, "months": 12,
	}, &scenario)
	require.Equal(h.t, http.StatusCreated, status)
	return scenario["id"].(string)
}

// =============================================================================
// CATALOG
// =============================================================================

func TestProductLifecycle(t *testing.T) {
	h := newHarness(t)

	// Create, fetch, search, deactivate
	id := h.createProduct("UREA-46", "Granular Urea 46%N")

	var product map[string]any
	require.Equal(t, http.StatusOK, h.do("GET", "/api/products/"+id, nil, &product))
	assert.Equal(t, "UREA-46", product["code"])
	assert.Equal(t, true, product["is_active"])

	var found []map[string]any
	require.Equal(t, http.StatusOK, h.do("GET", "/api/products?q=urea", nil, &found))
	assert.Len(t, found, 1)

	require.Equal(t, http.StatusNoContent, h.do("DELETE", "/api/products/"+id, nil, nil))

	var activeOnly []map[string]any
	require.Equal(t, http.StatusOK, h.do("GET", "/api/products?active_only=true", nil, &activeOnly))
	assert.Empty(t, activeOnly, "deactivation is a soft delete")

	var all []map[string]any
	require.Equal(t, http.StatusOK, h.do("GET", "/api/products", nil, &all))
	assert.Len(t, all, 1, "the row itself survives")
}

func TestSaveProduct_ValidationFailures(t *testing.T) {
	h := newHarness(t)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing code", map[string]any{"name": "X"}},
		{"missing name", map[string]any{"code": "X"}},
		{"lowercase currency", map[string]any{"code": "X", "name": "X", "currency": "usd"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, h.do("POST", "/api/products", tc.body, nil))
		})
	}
}

func TestGetProduct_UnknownID_Is404(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, http.StatusNotFound, h.do("GET", "/api/products/ghost", nil, nil))
}

// =============================================================================
// BOOKS AND IMPORT
// =============================================================================

func TestBookImport_AndEntryListing(t *testing.T) {
	h := newHarness(t)
	h.createProduct("UREA-46", "Urea")

	bookID := h.importPriceBook(map[string]any{
		"code": "std-2026", "name": "Standard 2026", "currency": "USD",
		"is_default": true,
		"entries": []map[string]any{
			{"product_code": "UREA-46", "unit_price": "312.50", "valid_from": "2026-01-01", "price_term": "FOB"},
		},
	})

	var entries []map[string]any
	require.Equal(t, http.StatusOK, h.do("GET", "/api/price-books/"+bookID+"/entries", nil, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "312.5", entries[0]["unit_price"])
	assert.Equal(t, "FOB", entries[0]["price_term"])
}

func TestBookImport_UnknownProductCode_Is404(t *testing.T) {
	h := newHarness(t)

	status := h.do("POST", "/api/price-books/import", map[string]any{
		"code": "b1", "name": "X", "currency": "USD",
		"entries": []map[string]any{{"product_code": "GHOST", "unit_price": "10"}},
	}, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestBookImport_OverlappingEntries_Is400(t *testing.T) {
	h := newHarness(t)
	h.createProduct("UREA-46", "Urea")

	status := h.do("POST", "/api/price-books/import", map[string]any{
		"code": "b1", "name": "X", "currency": "USD",
		"entries": []map[string]any{
			{"product_code": "UREA-46", "unit_price": "312.50", "valid_from": "2026-01-01", "valid_to": "2026-03-31"},
			{"product_code": "UREA-46", "unit_price": "325.00", "valid_from": "2026-03-01"},
		},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSaveEntry_NegativePrice_Is400(t *testing.T) {
	h := newHarness(t)
	productID := h.createProduct("UREA-46", "Urea")

	var book map[string]any
	require.Equal(t, http.StatusCreated, h.do("POST", "/api/price-books", map[string]any{
		"code": "std", "name": "Std", "currency": "USD",
	}, &book))

	status := h.do("POST", "/api/price-books/"+book["id"].(string)+"/entries", map[string]any{
		"product_id": productID, "unit_price": "-1",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

// =============================================================================
// PRICE RESOLUTION ENDPOINT
// =============================================================================

func TestResolveProductPrice_StatusMapping(t *testing.T) {
	h := newHarness(t)
	productID := h.createProduct("UREA-46", "Urea")
	h.importPriceBook(map[string]any{
		"code": "std-2026", "name": "Standard 2026", "currency": "USD",
		"is_default": true,
		"entries": []map[string]any{
			{"product_code": "UREA-46", "unit_price": "312.505", "valid_from": "2026-01-01", "valid_to": "2026-12-31"},
		},
	})

	t.Run("resolved price is rounded to cents", func(t *testing.T) {
		var quote map[string]any
		status := h.do("GET", "/api/products/"+productID+"/price?period=2026-03", nil, &quote)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "312.51", quote["unit_price"])
		assert.Equal(t, "product_price_book", quote["source"])
		assert.Equal(t, "USD", quote["currency"])
	})

	t.Run("no coverage for period is 422", func(t *testing.T) {
		status := h.do("GET", "/api/products/"+productID+"/price?period=2027-01", nil, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, status)
	})

	t.Run("unknown product is 404", func(t *testing.T) {
		status := h.do("GET", "/api/products/ghost/price?period=2026-03", nil, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("missing period is 400", func(t *testing.T) {
		status := h.do("GET", "/api/products/"+productID+"/price", nil, nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("malformed period is 400", func(t *testing.T) {
		status := h.do("GET", "/api/products/"+productID+"/price?period=03-2026", nil, nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestResolveProductPrice_AmbiguousData_Is409(t *testing.T) {
	// Two default books, same window, same valid_from: tie-break exhausts.
	h := newHarness(t)
	productID := h.createProduct("UREA-46", "Urea")
	for i := 0; i < 2; i++ {
		h.importPriceBook(map[string]any{
			"code": fmt.Sprintf("dup-%d", i), "name": "Dup", "currency": "USD",
			"is_default": true,
			"entries": []map[string]any{
				{"product_code": "UREA-46", "unit_price": "312.50", "valid_from": "2026-01-01"},
			},
		})
	}

	status := h.do("GET", "/api/products/"+productID+"/price?period=2026-03", nil, nil)
	assert.Equal(t, http.StatusConflict, status)
}

// =============================================================================
// SCENARIOS AND BOQ LINES
// =============================================================================

func TestLineLifecycle_PreviewAndApply(t *testing.T) {
	h := newHarness(t)
	productID := h.createProduct("UREA-46", "Urea")
	h.importPriceBook(map[string]any{
		"code": "std-2026", "name": "Standard 2026", "currency": "USD",
		"is_default": true,
		"entries": []map[string]any{
			{"product_code": "UREA-46", "unit_price": "100.00", "valid_from": "2026-01-01", "price_term": "FOB"},
		},
	})
	scenarioID := h.createScenario("West Terminal", "2026-03")

	// Create a monthly line linked to the product
	var line map[string]any
	status := h.do("POST", "/api/scenarios/"+scenarioID+"/boq", map[string]any{
		"item_name": "Urea supply", "product_id": productID,
		"quantity": "10", "unit_price": "1",
		"frequency": "monthly", "months": 3,
	}, &line)
	require.Equal(t, http.StatusCreated, status)
	lineID := line["id"].(string)
	assert.Equal(t, "2026-03", line["start"], "line inherits the scenario start")
	assert.Equal(t, "FOB", line["price_term"], "price term snapshot on create")

	// Preview explains the book price without touching the line
	var preview map[string]any
	status = h.do("GET", "/api/scenarios/"+scenarioID+"/boq/"+lineID+"/preview?period=2026-03", nil, &preview)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "product_price_book", preview["source"])
	assert.Equal(t, "100", preview["unit_price"])
	assert.Equal(t, "3", preview["multiplier"])
	assert.Equal(t, "3000", preview["line_total"])

	var unchanged []map[string]any
	require.Equal(t, http.StatusOK, h.do("GET", "/api/scenarios/"+scenarioID+"/boq", nil, &unchanged))
	require.Len(t, unchanged, 1)
	assert.Equal(t, "1", unchanged[0]["unit_price"], "preview is read-only")

	// Apply writes the previewed price back
	var applied map[string]any
	status = h.do("POST", "/api/scenarios/"+scenarioID+"/boq/"+lineID+"/apply-price",
		map[string]any{"unit_price": "100"}, &applied)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "100", applied["unit_price"])

	// Update and delete
	var updated map[string]any
	status = h.do("PUT", "/api/scenarios/"+scenarioID+"/boq/"+lineID, map[string]any{
		"item_name": "Urea supply (revised)", "product_id": productID,
		"quantity": "12", "unit_price": "100",
		"frequency": "monthly", "months": 3,
	}, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "12", updated["quantity"])

	require.Equal(t, http.StatusNoContent,
		h.do("DELETE", "/api/scenarios/"+scenarioID+"/boq/"+lineID, nil, nil))
	assert.Equal(t, http.StatusNotFound,
		h.do("GET", "/api/scenarios/"+scenarioID+"/boq/"+lineID+"/preview?period=2026-03", nil, nil))
}

func TestCreateLine_Validation(t *testing.T) {
	h := newHarness(t)
	scenarioID := h.createScenario("S", "2026-01")

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing item name", map[string]any{"quantity": "1"}},
		{"bad frequency", map[string]any{"item_name": "X", "frequency": "weekly"}},
		{"bad category", map[string]any{"item_name": "X", "category": "bulk"}},
		{"negative quantity", map[string]any{"item_name": "X", "quantity": "-1"}},
		{"comma decimal", map[string]any{"item_name": "X", "quantity": "12,5"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest,
				h.do("POST", "/api/scenarios/"+scenarioID+"/boq", tc.body, nil))
		})
	}

	t.Run("unknown scenario is 404", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound,
			h.do("POST", "/api/scenarios/ghost/boq", map[string]any{"item_name": "X"}, nil))
	})
}

func TestLine_ScenarioOwnership(t *testing.T) {
	// Lines are only addressable through their own scenario.
	h := newHarness(t)
	s1 := h.createScenario("S1", "2026-01")
	s2 := h.createScenario("S2", "2026-01")

	var line map[string]any
	status := h.do("POST", "/api/scenarios/"+s1+"/boq", map[string]any{
		"item_name": "Haulage", "quantity": "4", "unit_price": "25",
	}, &line)
	require.Equal(t, http.StatusCreated, status)
	lineID := line["id"].(string)

	assert.Equal(t, http.StatusNotFound,
		h.do("GET", "/api/scenarios/"+s2+"/boq/"+lineID+"/preview?period=2026-01", nil, nil))
	assert.Equal(t, http.StatusNotFound,
		h.do("POST", "/api/scenarios/"+s2+"/boq/"+lineID+"/apply-price", map[string]any{"unit_price": "1"}, nil))
	assert.Equal(t, http.StatusNotFound,
		h.do("PUT", "/api/scenarios/"+s2+"/boq/"+lineID, map[string]any{"item_name": "X"}, nil))
}

func TestGetTotals_ActiveOnlyToggle(t *testing.T) {
	h := newHarness(t)
	scenarioID := h.createScenario("S", "2026-01")

	post := func(body map[string]any) {
		require.Equal(t, http.StatusCreated, h.do("POST", "/api/scenarios/"+scenarioID+"/boq", body, nil))
	}
	post(map[string]any{
		"item_name": "Supply", "quantity": "10", "unit_price": "100",
		"unit_cogs": "60", "frequency": "monthly", "months": 3,
	})
	post(map[string]any{
		"item_name": "Retired fee", "quantity": "1", "unit_price": "500",
		"is_active": false,
	})

	var all map[string]any
	require.Equal(t, http.StatusOK, h.do("GET", "/api/scenarios/"+scenarioID+"/boq/totals", nil, &all))
	assert.Equal(t, "3500", all["revenue"], "inactive lines count by default")
	assert.Equal(t, "1800", all["cogs"])
	assert.Equal(t, "1700", all["gross_margin"])
	assert.Equal(t, float64(2), all["lines"])

	var active map[string]any
	require.Equal(t, http.StatusOK, h.do("GET", "/api/scenarios/"+scenarioID+"/boq/totals?active_only=true", nil, &active))
	assert.Equal(t, "3000", active["revenue"])
	assert.Equal(t, float64(1), active["lines"])
}

func TestListLines_ActiveFilter(t *testing.T) {
	h := newHarness(t)
	scenarioID := h.createScenario("S", "2026-01")

	for _, active := range []bool{true, false} {
		require.Equal(t, http.StatusCreated, h.do("POST", "/api/scenarios/"+scenarioID+"/boq", map[string]any{
			"item_name": "L", "quantity": "1", "unit_price": "1", "is_active": active,
		}, nil))
	}

	var lines []map[string]any
	require.Equal(t, http.StatusOK, h.do("GET", "/api/scenarios/"+scenarioID+"/boq", nil, &lines))
	assert.Len(t, lines, 2)

	require.Equal(t, http.StatusOK, h.do("GET", "/api/scenarios/"+scenarioID+"/boq?active=true", nil, &lines))
	assert.Len(t, lines, 1)

	require.Equal(t, http.StatusOK, h.do("GET", "/api/scenarios/"+scenarioID+"/boq?active=false", nil, &lines))
	assert.Len(t, lines, 1)
}

func TestCreateLine_CostBookAutofill(t *testing.T) {
	// A linked line without unit_cogs picks it up from the default cost book.
	h := newHarness(t)
	productID := h.createProduct("UREA-46", "Urea")

	var book map[string]any
	require.Equal(t, http.StatusCreated, h.do("POST", "/api/cost-books/import", map[string]any{
		"code": "plant-2026", "name": "Plant costs", "currency": "USD",
		"is_default": true,
		"entries": []map[string]any{
			{"product_code": "UREA-46", "unit_cost": "242.00", "valid_from": "2026-01-01"},
		},
	}, &book))

	scenarioID := h.createScenario("S", "2026-03")
	var line map[string]any
	status := h.do("POST", "/api/scenarios/"+scenarioID+"/boq", map[string]any{
		"item_name": "Urea supply", "product_id": productID,
		"quantity": "10", "unit_price": "300",
	}, &line)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "242", line["unit_cogs"])
}

// =============================================================================
// DEMO SCENARIOS
// =============================================================================

func TestDemoScenarios_ListAndLoad(t *testing.T) {
	h := newHarness(t)

	var catalog []map[string]any
	require.Equal(t, http.StatusOK, h.do("GET", "/api/demo/scenarios", nil, &catalog))
	require.NotEmpty(t, catalog)

	var loaded map[string]any
	status := h.do("POST", "/api/demo/scenarios/load",
		map[string]any{"scenario_id": catalog[0]["id"]}, &loaded)
	require.Equal(t, http.StatusOK, status)

	var scenarios []map[string]any
	require.Equal(t, http.StatusOK, h.do("GET", "/api/scenarios", nil, &scenarios))
	assert.NotEmpty(t, scenarios, "demo load seeds at least one scenario")

	var current map[string]any
	require.Equal(t, http.StatusOK, h.do("GET", "/api/demo/scenarios/current", nil, &current))
	assert.Equal(t, catalog[0]["id"], current["id"])

	t.Run("unknown demo id is 400", func(t *testing.T) {
		status := h.do("POST", "/api/demo/scenarios/load", map[string]any{"scenario_id": "ghost"}, nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestResetDatabase_ClearsEverything(t *testing.T) {
	h := newHarness(t)
	h.createProduct("UREA-46", "Urea")

	require.Equal(t, http.StatusOK, h.do("POST", "/api/reset", nil, nil))

	var products []map[string]any
	require.Equal(t, http.StatusOK, h.do("GET", "/api/products", nil, &products))
	assert.Empty(t, products)
}
