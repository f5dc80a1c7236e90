/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built datasets that populate the database with realistic
	data for testing and demos. Each loader creates products, books,
	formulations, and BOQ lines that demonstrate specific features.

AVAILABLE SCENARIOS:

	book-pricing:       Default + seasonal price books, tie-break in action
	formulated-pricing: Index-linked formulation (base price x escalation)
	manual-boq:         Unlinked lines priced from their own unit_price

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create products
 3. Import books through the JSON factory
 4. Create scenario and BOQ lines
 5. Optionally add index series and formulations

USAGE VIA API:

	POST /api/demo/scenarios/load
	{"scenario_id": "book-pricing"}

ADDING NEW SCENARIOS:
 1. Add to 'demoScenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, h)
 3. Add case to LoadDemoScenario handler

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: LoadDemoScenario handler
  - factory/books.go: JSON book definitions used for seeding
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aryaintel/pricing-engine/boq"
	"github.com/aryaintel/pricing-engine/factory"
	"github.com/aryaintel/pricing-engine/pricing"
	"github.com/aryaintel/pricing-engine/store/sqlite"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var demoScenarios = []DemoScenarioDTO{
	{
		ID:          "book-pricing",
		Name:        "Book Pricing",
		Description: "Default and seasonal price books with COGS autofill",
		Category:    "books",
	},
	{
		ID:          "formulated-pricing",
		Name:        "Formulated Pricing",
		Description: "Index-linked formulation: base price x weighted escalation",
		Category:    "formulations",
	},
	{
		ID:          "manual-boq",
		Name:        "Manual BOQ",
		Description: "Unlinked service lines priced from their own unit prices",
		Category:    "boq",
	},
}

// ListDemoScenarios returns available demo datasets.
func (h *Handler) ListDemoScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, demoScenarios)
}

// GetCurrentDemoScenario returns the currently loaded dataset, if any.
func (h *Handler) GetCurrentDemoScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range demoScenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadDemoScenario resets the database and loads the selected dataset.
func (h *Handler) LoadDemoScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "book-pricing":
		err = loadBookPricingScenario(ctx, h.Store)
	case "formulated-pricing":
		err = loadFormulatedPricingScenario(ctx, h.Store)
	case "manual-boq":
		err = loadManualBOQScenario(ctx, h.Store)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario_id": req.ScenarioID})
}

// =============================================================================
// LOADERS
// =============================================================================

// loadBookPricingScenario seeds two price books (one default, one seasonal
// promo) and a cost book, then a scenario whose lines exercise book
// resolution, tie-breaking, and COGS autofill.
func loadBookPricingScenario(ctx context.Context, st *sqlite.Store) error {
	urea, err := st.SaveProduct(ctx, sqlite.ProductRecord{
		Code: "UREA-46", Name: "Urea 46% Granular", UOM: "t", Currency: "USD", Active: true,
	})
	if err != nil {
		return err
	}
	ammonia, err := st.SaveProduct(ctx, sqlite.ProductRecord{
		Code: "NH3", Name: "Anhydrous Ammonia", UOM: "t", Currency: "USD", Active: true,
	})
	if err != nil {
		return err
	}

	priceBook := []byte(`{
		"code": "std-2026",
		"name": "Standard 2026",
		"currency": "USD",
		"is_default": true,
		"entries": [
			{"product_code": "UREA-46", "unit_price": "312.50", "valid_from": "2026-01-01", "valid_to": "2026-12-31", "price_term": "FOB"},
			{"product_code": "NH3", "unit_price": "455.00", "valid_from": "2026-01-01", "valid_to": "2026-12-31", "price_term": "CFR"}
		]
	}`)
	if err := importBookJSON(ctx, st, priceBook, factory.PriceBook); err != nil {
		return err
	}

	// Non-default promo book overlapping Q2; the default book still wins.
	promoBook := []byte(`{
		"code": "promo-q2-2026",
		"name": "Q2 Promo 2026",
		"currency": "USD",
		"entries": [
			{"product_code": "UREA-46", "unit_price": "298.00", "valid_from": "2026-04-01", "valid_to": "2026-06-30", "price_term": "FOB"}
		]
	}`)
	if err := importBookJSON(ctx, st, promoBook, factory.PriceBook); err != nil {
		return err
	}

	costBook := []byte(`{
		"code": "plant-cost-2026",
		"name": "Plant Cost 2026",
		"currency": "USD",
		"is_default": true,
		"entries": [
			{"product_code": "UREA-46", "unit_cost": "242.00", "valid_from": "2026-01-01", "valid_to": "2026-12-31"},
			{"product_code": "NH3", "unit_cost": "381.25", "valid_from": "2026-01-01", "valid_to": "2026-12-31"}
		]
	}`)
	if err := importBookJSON(ctx, st, costBook, factory.CostBook); err != nil {
		return err
	}

	start := pricing.NewMonth(2026, time.March)
	scenario, err := st.SaveScenario(ctx, sqlite.ScenarioRecord{
		Name: "West Terminal Supply", Start: &start, Months: 12,
	})
	if err != nil {
		return err
	}

	ureaID := pricing.ProductID(urea.ID)
	nh3ID := pricing.ProductID(ammonia.ID)
	lines := []boq.Line{
		{
			ScenarioID: boq.ScenarioID(scenario.ID),
			Section:    "Bulk Supply",
			Category:   boq.CategoryBulkWithFreight,
			ProductID:  &ureaID,
			ItemName:   "Urea monthly supply",
			Unit:       "t",
			Quantity:   decimal.NewFromInt(500),
			UnitPrice:  decimal.RequireFromString("312.50"),
			UnitCOGS:   decPtr("242.00"),
			Frequency:  pricing.FreqMonthly,
			Months:     12,
			Start:      &start,
			PriceTerm:  "FOB",
			Active:     true,
		},
		{
			ScenarioID: boq.ScenarioID(scenario.ID),
			Section:    "Bulk Supply",
			Category:   boq.CategoryBulkExFreight,
			ProductID:  &nh3ID,
			ItemName:   "Ammonia spot cargo",
			Unit:       "t",
			Quantity:   decimal.NewFromInt(1200),
			UnitPrice:  decimal.RequireFromString("455.00"),
			UnitCOGS:   decPtr("381.25"),
			Frequency:  pricing.FreqOnce,
			Start:      &start,
			PriceTerm:  "CFR",
			Active:     true,
		},
	}
	for _, l := range lines {
		if _, err := st.SaveLine(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

// loadFormulatedPricingScenario seeds an index-linked formulation: the
// finished product's price is a base product's book price scaled by a
// weighted index escalation.
func loadFormulatedPricingScenario(ctx context.Context, st *sqlite.Store) error {
	gas, err := st.SaveProduct(ctx, sqlite.ProductRecord{
		Code: "NATGAS", Name: "Natural Gas Feedstock", UOM: "MMBtu", Currency: "USD", Active: true,
	})
	if err != nil {
		return err
	}
	urea, err := st.SaveProduct(ctx, sqlite.ProductRecord{
		Code: "UREA-46", Name: "Urea 46% Granular", UOM: "t", Currency: "USD", Active: true,
	})
	if err != nil {
		return err
	}

	baseBook := []byte(`{
		"code": "feedstock-2026",
		"name": "Feedstock 2026",
		"currency": "USD",
		"is_default": true,
		"entries": [
			{"product_code": "NATGAS", "unit_price": "50.00", "valid_from": "2026-01-01"}
		]
	}`)
	if err := importBookJSON(ctx, st, baseBook, factory.PriceBook); err != nil {
		return err
	}

	series, err := st.SaveSeries(ctx, sqlite.SeriesRecord{
		Code: "HH-GAS", Name: "Henry Hub Gas Index", Unit: "USD/MMBtu",
	})
	if err != nil {
		return err
	}
	points := map[pricing.Month]string{
		pricing.NewMonth(2026, time.January):  "100",
		pricing.NewMonth(2026, time.February): "105",
		pricing.NewMonth(2026, time.March):    "110",
	}
	for period, value := range points {
		err := st.UpsertIndexPoint(ctx, sqlite.IndexPointRecord{
			SeriesID: series.ID,
			Period:   period,
			Value:    decimal.RequireFromString(value),
		})
		if err != nil {
			return err
		}
	}

	// factor(month) = 1.20 x index(month)/100; March resolves to 1.32.
	gasID := gas.ID
	_, err = st.SaveFormulation(ctx, sqlite.FormulationRecord{
		ProductID:     urea.ID,
		BaseProductID: &gasID,
		Currency:      "USD",
		Components: []sqlite.ComponentRecord{
			{
				SeriesID:       series.ID,
				WeightPct:      decimal.RequireFromString("120"),
				BaseIndexValue: decPtr("100"),
			},
		},
	})
	if err != nil {
		return err
	}

	start := pricing.NewMonth(2026, time.March)
	scenario, err := st.SaveScenario(ctx, sqlite.ScenarioRecord{
		Name: "Formulated Urea Offtake", Start: &start, Months: 6,
	})
	if err != nil {
		return err
	}

	ureaID := pricing.ProductID(urea.ID)
	_, err = st.SaveLine(ctx, boq.Line{
		ScenarioID: boq.ScenarioID(scenario.ID),
		Section:    "Offtake",
		Category:   boq.CategoryBulkExFreight,
		ProductID:  &ureaID,
		ItemName:   "Urea formulated offtake",
		Unit:       "t",
		Quantity:   decimal.NewFromInt(300),
		UnitPrice:  decimal.Zero,
		Frequency:  pricing.FreqMonthly,
		Months:     6,
		Start:      &start,
		Active:     true,
	})
	return err
}

// loadManualBOQScenario seeds lines with no product link at all; every
// preview resolves to the boq_unit_price source.
func loadManualBOQScenario(ctx context.Context, st *sqlite.Store) error {
	start := pricing.NewMonth(2026, time.January)
	scenario, err := st.SaveScenario(ctx, sqlite.ScenarioRecord{
		Name: "Site Services", Start: &start, Months: 12,
	})
	if err != nil {
		return err
	}

	lines := []boq.Line{
		{
			ScenarioID: boq.ScenarioID(scenario.ID),
			Section:    "Logistics",
			Category:   boq.CategoryFreight,
			ItemName:   "Inland haulage",
			Unit:       "trip",
			Quantity:   decimal.NewFromInt(4),
			UnitPrice:  decimal.NewFromInt(25),
			Frequency:  pricing.FreqPerShipment,
			Start:      &start,
			Active:     true,
		},
		{
			ScenarioID: boq.ScenarioID(scenario.ID),
			Section:    "Site",
			ItemName:   "Weighbridge operation",
			Unit:       "month",
			Quantity:   decimal.NewFromInt(1),
			UnitPrice:  decimal.RequireFromString("1850.00"),
			UnitCOGS:   decPtr("1100.00"),
			Frequency:  pricing.FreqMonthly,
			Months:     12,
			Start:      &start,
			Active:     true,
		},
		{
			ScenarioID: boq.ScenarioID(scenario.ID),
			Section:    "Site",
			ItemName:   "Decommissioned conveyor (excluded)",
			Unit:       "ls",
			Quantity:   decimal.NewFromInt(1),
			UnitPrice:  decimal.RequireFromString("9500.00"),
			Frequency:  pricing.FreqOnce,
			Start:      &start,
			Active:     false,
		},
	}
	for _, l := range lines {
		if _, err := st.SaveLine(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// SEEDING HELPERS
// =============================================================================

func importBookJSON(ctx context.Context, st *sqlite.Store, raw []byte, kind factory.Kind) error {
	def, err := factory.ParseBook(raw, kind)
	if err != nil {
		return err
	}
	if kind == factory.PriceBook {
		_, err = st.ImportPriceBook(ctx, def)
	} else {
		_, err = st.ImportCostBook(ctx, def)
	}
	return err
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
