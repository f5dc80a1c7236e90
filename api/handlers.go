/*
handlers.go - HTTP API handlers for the BOQ pricing engine

PURPOSE:
  Exposes the pricing and BOQ valuation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Catalog:
    GET/POST   /api/families                 Product families
    GET/POST   /api/products                 Products (q= search, active_only=)
    GET        /api/products/{id}            Product details
    GET        /api/products/{id}/price      Resolve a price for ?period=YYYY-MM

  Books:
    GET/POST   /api/price-books              Books
    POST       /api/price-books/import       JSON book import via factory
    GET/POST   /api/price-books/{id}/entries Entries
    (cost-books mirror the same shape)

  Formulations and index data:
    GET/POST   /api/formulations
    GET/POST   /api/index-series, /api/index-series/{id}/points

  Scenarios and BOQ:
    GET/POST   /api/scenarios
    GET/POST   /api/scenarios/{id}/boq       Lines
    GET        /api/scenarios/{id}/boq/totals          ?active_only=true
    GET        /api/scenarios/{id}/boq/{lineID}/preview ?period=YYYY-MM
    POST       /api/scenarios/{id}/boq/{lineID}/apply-price

  Demo:
    GET  /api/demo/scenarios, POST /api/demo/scenarios/load, POST /api/reset

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (go-playground/validator on request DTOs)
  3. Call domain logic (resolver, preview service, stores)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (ambiguous price data)
  - 422: Well-formed request, unpriceable data (no price available)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/aryaintel/pricing-engine/boq"
	"github.com/aryaintel/pricing-engine/factory"
	"github.com/aryaintel/pricing-engine/pricing"
	"github.com/aryaintel/pricing-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Resolver *pricing.Resolver
	Costs    *pricing.CostResolver
	Previews *boq.PreviewService

	validate *validator.Validate

	// Track currently loaded demo scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store and wires the
// resolver stack on top of it.
func NewHandler(store *sqlite.Store) *Handler {
	resolver := pricing.NewResolver(store)
	return &Handler{
		Store:    store,
		Resolver: resolver,
		Costs:    pricing.NewCostResolver(store),
		Previews: boq.NewPreviewService(resolver, store),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain error categories onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	var npe *pricing.NoPriceError
	switch {
	case pricing.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case pricing.IsDataConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case errors.As(err, &npe):
		writeError(w, http.StatusUnprocessableEntity, message, err)
	case pricing.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

// decodeAndValidate reads the JSON body into dst and runs struct validation.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// periodParam parses the required ?period=YYYY-MM query parameter.
func periodParam(w http.ResponseWriter, r *http.Request) (pricing.Month, bool) {
	raw := r.URL.Query().Get("period")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "Missing required query parameter: period", nil)
		return pricing.Month{}, false
	}
	m, err := pricing.ParseMonth(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period, want YYYY-MM", err)
		return pricing.Month{}, false
	}
	return m, true
}

func optionalDecimal(field, raw string, fallback decimal.Decimal) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	return pricing.ParseDecimal(field, raw)
}

func optionalDecimalPtr(field string, raw *string) (*decimal.Decimal, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	d, err := pricing.ParseDecimal(field, *raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func optionalMonthPtr(raw string) (*pricing.Month, error) {
	if raw == "" {
		return nil, nil
	}
	m, err := pricing.ParseMonth(raw)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func boolOrDefault(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// =============================================================================
// PRODUCT FAMILY HANDLERS
// =============================================================================

func (h *Handler) ListFamilies(w http.ResponseWriter, r *http.Request) {
	families, err := h.Store.ListFamilies(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list families", err)
		return
	}
	dtos := make([]FamilyDTO, len(families))
	for i, f := range families {
		dtos[i] = toFamilyDTO(f)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) SaveFamily(w http.ResponseWriter, r *http.Request) {
	var req SaveFamilyRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	rec, err := h.Store.SaveFamily(r.Context(), sqlite.FamilyRecord{
		ID:     req.ID,
		Name:   strings.TrimSpace(req.Name),
		Active: boolOrDefault(req.Active, true),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save family", err)
		return
	}
	writeJSON(w, http.StatusCreated, toFamilyDTO(rec))
}

func (h *Handler) DeleteFamily(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteFamily(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete family", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PRODUCT HANDLERS
// =============================================================================

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	activeOnly := r.URL.Query().Get("active_only") == "true"
	products, err := h.Store.ListProducts(r.Context(), q, activeOnly)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list products", err)
		return
	}
	dtos := make([]ProductDTO, len(products))
	for i, p := range products {
		dtos[i] = toProductDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) SaveProduct(w http.ResponseWriter, r *http.Request) {
	var req SaveProductRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	rec, err := h.Store.SaveProduct(r.Context(), sqlite.ProductRecord{
		ID:       req.ID,
		Code:     strings.TrimSpace(req.Code),
		Name:     strings.TrimSpace(req.Name),
		UOM:      req.UOM,
		Currency: req.Currency,
		FamilyID: req.FamilyID,
		Active:   boolOrDefault(req.Active, true),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save product", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(rec))
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Store.GetProductRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get product", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(*rec))
}

func (h *Handler) DeactivateProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeactivateProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to deactivate product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResolveProductPrice answers "what would this product cost in month X"
// without any BOQ line involved.
// GET /api/products/{id}/price?period=YYYY-MM
func (h *Handler) ResolveProductPrice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	period, ok := periodParam(w, r)
	if !ok {
		return
	}
	quote, err := h.Resolver.Resolve(r.Context(), pricing.ProductID(id), period)
	if err != nil {
		writeDomainError(w, "Failed to resolve price", err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteDTO(id, period, quote))
}

// ResolveProductCost is the cost-side analog of ResolveProductPrice.
// GET /api/products/{id}/cost?period=YYYY-MM
func (h *Handler) ResolveProductCost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	period, ok := periodParam(w, r)
	if !ok {
		return
	}
	quote, err := h.Costs.ResolveCost(r.Context(), pricing.ProductID(id), period)
	if err != nil {
		writeDomainError(w, "Failed to resolve cost", err)
		return
	}
	writeJSON(w, http.StatusOK, toCostQuoteDTO(id, period, quote))
}

// =============================================================================
// BOOK HANDLERS - price and cost books share shapes
// =============================================================================

type bookSaver func(ctx context.Context, b sqlite.BookRecord) (sqlite.BookRecord, error)

func (h *Handler) ListPriceBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.Store.ListPriceBooks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list price books", err)
		return
	}
	writeBooks(w, books)
}

func (h *Handler) ListCostBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.Store.ListCostBooks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list cost books", err)
		return
	}
	writeBooks(w, books)
}

func writeBooks(w http.ResponseWriter, books []sqlite.BookRecord) {
	dtos := make([]BookDTO, len(books))
	for i, b := range books {
		dtos[i] = toBookDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) SavePriceBook(w http.ResponseWriter, r *http.Request) {
	h.saveBook(w, r, h.Store.SavePriceBook)
}

func (h *Handler) SaveCostBook(w http.ResponseWriter, r *http.Request) {
	h.saveBook(w, r, h.Store.SaveCostBook)
}

func (h *Handler) saveBook(w http.ResponseWriter, r *http.Request, save bookSaver) {
	var req SaveBookRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	rec := sqlite.BookRecord{
		ID:        req.ID,
		Code:      strings.TrimSpace(req.Code),
		Name:      strings.TrimSpace(req.Name),
		Currency:  req.Currency,
		IsDefault: req.IsDefault,
		Active:    boolOrDefault(req.Active, true),
	}
	if req.ValidFrom != "" {
		t, err := pricing.ParseDate("valid_from", req.ValidFrom)
		if err != nil {
			writeDomainError(w, "Invalid valid_from", err)
			return
		}
		rec.ValidFrom = &t
	}
	if req.ValidTo != "" {
		t, err := pricing.ParseDate("valid_to", req.ValidTo)
		if err != nil {
			writeDomainError(w, "Invalid valid_to", err)
			return
		}
		rec.ValidTo = &t
	}
	rec, err := save(r.Context(), rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save book", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookDTO(rec))
}

func (h *Handler) DeletePriceBook(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeletePriceBook(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete price book", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteCostBook(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteCostBook(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete cost book", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportPriceBook accepts a factory JSON book definition and inserts the
// book plus entries atomically.
// POST /api/price-books/import
func (h *Handler) ImportPriceBook(w http.ResponseWriter, r *http.Request) {
	h.importBook(w, r, factory.PriceBook)
}

func (h *Handler) ImportCostBook(w http.ResponseWriter, r *http.Request) {
	h.importBook(w, r, factory.CostBook)
}

func (h *Handler) importBook(w http.ResponseWriter, r *http.Request, kind factory.Kind) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}
	def, err := factory.ParseBook(raw, kind)
	if err != nil {
		writeDomainError(w, "Invalid book definition", err)
		return
	}

	var rec sqlite.BookRecord
	if kind == factory.PriceBook {
		rec, err = h.Store.ImportPriceBook(r.Context(), def)
	} else {
		rec, err = h.Store.ImportCostBook(r.Context(), def)
	}
	if err != nil {
		writeDomainError(w, "Failed to import book", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookDTO(rec))
}

// =============================================================================
// BOOK ENTRY HANDLERS
// =============================================================================

func (h *Handler) ListPriceEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.ListPriceEntries(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list entries", err)
		return
	}
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toPriceEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) SavePriceEntry(w http.ResponseWriter, r *http.Request) {
	var req SaveEntryRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	amount, err := pricing.ParseDecimal("unit_price", req.UnitPrice)
	if err != nil {
		writeDomainError(w, "Invalid unit_price", err)
		return
	}
	if amount.IsNegative() {
		writeError(w, http.StatusBadRequest, "unit_price must be >= 0", nil)
		return
	}
	rec := sqlite.PriceEntryRecord{
		ID:        req.ID,
		BookID:    chi.URLParam(r, "id"),
		ProductID: req.ProductID,
		UnitPrice: amount,
		Currency:  req.Currency,
		PriceTerm: req.PriceTerm,
		Active:    boolOrDefault(req.Active, true),
		Notes:     req.Notes,
	}
	if rec.ValidFrom, rec.ValidTo, err = parseEntryWindow(req.ValidFrom, req.ValidTo); err != nil {
		writeDomainError(w, "Invalid validity window", err)
		return
	}
	rec, err = h.Store.SavePriceEntry(r.Context(), rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPriceEntryDTO(rec))
}

func (h *Handler) DeletePriceEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeletePriceEntry(r.Context(), chi.URLParam(r, "entryID")); err != nil {
		writeDomainError(w, "Failed to delete entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListCostEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.ListCostEntries(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list entries", err)
		return
	}
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toCostEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) SaveCostEntry(w http.ResponseWriter, r *http.Request) {
	var req SaveEntryRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	amount, err := pricing.ParseDecimal("unit_cost", req.UnitCost)
	if err != nil {
		writeDomainError(w, "Invalid unit_cost", err)
		return
	}
	if amount.IsNegative() {
		writeError(w, http.StatusBadRequest, "unit_cost must be >= 0", nil)
		return
	}
	rec := sqlite.CostEntryRecord{
		ID:        req.ID,
		BookID:    chi.URLParam(r, "id"),
		ProductID: req.ProductID,
		UnitCost:  amount,
		Currency:  req.Currency,
		CostTerm:  req.PriceTerm,
		Active:    boolOrDefault(req.Active, true),
		Notes:     req.Notes,
	}
	if rec.ValidFrom, rec.ValidTo, err = parseEntryWindow(req.ValidFrom, req.ValidTo); err != nil {
		writeDomainError(w, "Invalid validity window", err)
		return
	}
	rec, err = h.Store.SaveCostEntry(r.Context(), rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCostEntryDTO(rec))
}

func (h *Handler) DeleteCostEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteCostEntry(r.Context(), chi.URLParam(r, "entryID")); err != nil {
		writeDomainError(w, "Failed to delete entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseEntryWindow(fromRaw, toRaw string) (from, to *time.Time, err error) {
	var w pricing.Window
	if fromRaw != "" {
		t, err := pricing.ParseDate("valid_from", fromRaw)
		if err != nil {
			return nil, nil, err
		}
		w.From = &t
	}
	if toRaw != "" {
		t, err := pricing.ParseDate("valid_to", toRaw)
		if err != nil {
			return nil, nil, err
		}
		w.To = &t
	}
	if err := w.Validate(); err != nil {
		return nil, nil, err
	}
	return w.From, w.To, nil
}

// =============================================================================
// FORMULATION HANDLERS
// =============================================================================

func (h *Handler) ListFormulations(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Store.ListFormulations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list formulations", err)
		return
	}
	dtos := make([]FormulationDTO, len(recs))
	for i, f := range recs {
		dtos[i] = toFormulationDTO(f)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetFormulation(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Store.GetFormulationByProduct(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get formulation", err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "No formulation for product", nil)
		return
	}
	writeJSON(w, http.StatusOK, toFormulationDTO(*rec))
}

func (h *Handler) SaveFormulation(w http.ResponseWriter, r *http.Request) {
	var req SaveFormulationRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	rec := sqlite.FormulationRecord{
		ID:            req.ID,
		ProductID:     req.ProductID,
		BaseProductID: req.BaseProductID,
		Currency:      req.Currency,
	}
	var err error
	if rec.BasePrice, err = optionalDecimalPtr("base_price", req.BasePrice); err != nil {
		writeDomainError(w, "Invalid base_price", err)
		return
	}
	if rec.Factor, err = optionalDecimal("factor", req.Factor, decimal.Zero); err != nil {
		writeDomainError(w, "Invalid factor", err)
		return
	}
	if rec.BasePrice == nil && req.BaseProductID == nil {
		writeError(w, http.StatusBadRequest, "Formulation needs base_price or base_product_id", nil)
		return
	}
	for _, c := range req.Components {
		weight, err := pricing.ParseDecimal("weight_pct", c.WeightPct)
		if err != nil {
			writeDomainError(w, "Invalid weight_pct", err)
			return
		}
		base, err := optionalDecimalPtr("base_index_value", c.BaseIndexValue)
		if err != nil {
			writeDomainError(w, "Invalid base_index_value", err)
			return
		}
		rec.Components = append(rec.Components, sqlite.ComponentRecord{
			SeriesID:       c.SeriesID,
			WeightPct:      weight,
			BaseIndexValue: base,
		})
	}

	rec, err = h.Store.SaveFormulation(r.Context(), rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save formulation", err)
		return
	}
	writeJSON(w, http.StatusCreated, toFormulationDTO(rec))
}

func (h *Handler) DeleteFormulation(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteFormulation(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete formulation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// INDEX SERIES HANDLERS
// =============================================================================

func (h *Handler) ListSeries(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Store.ListSeries(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list index series", err)
		return
	}
	dtos := make([]SeriesDTO, len(recs))
	for i, s := range recs {
		dtos[i] = toSeriesDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) SaveSeries(w http.ResponseWriter, r *http.Request) {
	var req SaveSeriesRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	rec, err := h.Store.SaveSeries(r.Context(), sqlite.SeriesRecord{
		ID:   req.ID,
		Code: strings.TrimSpace(req.Code),
		Name: strings.TrimSpace(req.Name),
		Unit: req.Unit,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save index series", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSeriesDTO(rec))
}

func (h *Handler) ListIndexPoints(w http.ResponseWriter, r *http.Request) {
	points, err := h.Store.ListIndexPoints(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list index points", err)
		return
	}
	dtos := make([]IndexPointDTO, len(points))
	for i, p := range points {
		dtos[i] = toIndexPointDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) UpsertIndexPoint(w http.ResponseWriter, r *http.Request) {
	var req UpsertPointRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	period, err := pricing.ParseMonth(req.Period)
	if err != nil {
		writeDomainError(w, "Invalid period, want YYYY-MM", err)
		return
	}
	value, err := pricing.ParseDecimal("value", req.Value)
	if err != nil {
		writeDomainError(w, "Invalid value", err)
		return
	}
	point := sqlite.IndexPointRecord{
		SeriesID: chi.URLParam(r, "id"),
		Period:   period,
		Value:    value,
	}
	if err := h.Store.UpsertIndexPoint(r.Context(), point); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save index point", err)
		return
	}
	writeJSON(w, http.StatusCreated, toIndexPointDTO(point))
}

func (h *Handler) DeleteIndexPoint(w http.ResponseWriter, r *http.Request) {
	period, err := pricing.ParseMonth(chi.URLParam(r, "period"))
	if err != nil {
		writeDomainError(w, "Invalid period, want YYYY-MM", err)
		return
	}
	if err := h.Store.DeleteIndexPoint(r.Context(), chi.URLParam(r, "id"), period); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete index point", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Store.ListScenarios(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list scenarios", err)
		return
	}
	dtos := make([]ScenarioDTO, len(recs))
	for i, s := range recs {
		dtos[i] = toScenarioDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) SaveScenario(w http.ResponseWriter, r *http.Request) {
	var req SaveScenarioRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	start, err := optionalMonthPtr(req.Start)
	if err != nil {
		writeDomainError(w, "Invalid start, want YYYY-MM", err)
		return
	}
	rec, err := h.Store.SaveScenario(r.Context(), sqlite.ScenarioRecord{
		ID:     req.ID,
		Name:   strings.TrimSpace(req.Name),
		Start:  start,
		Months: req.Months,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save scenario", err)
		return
	}
	writeJSON(w, http.StatusCreated, toScenarioDTO(rec))
}

func (h *Handler) GetScenario(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Store.GetScenario(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, toScenarioDTO(*rec))
}

// =============================================================================
// BOQ LINE HANDLERS
// =============================================================================

func (h *Handler) ListLines(w http.ResponseWriter, r *http.Request) {
	scenarioID := chi.URLParam(r, "id")
	if _, err := h.Store.GetScenario(r.Context(), scenarioID); err != nil {
		writeDomainError(w, "Failed to get scenario", err)
		return
	}

	filter := sqlite.FilterAll
	switch r.URL.Query().Get("active") {
	case "true":
		filter = sqlite.FilterActive
	case "false":
		filter = sqlite.FilterInactive
	}
	lines, err := h.Store.ListLines(r.Context(), scenarioID, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list lines", err)
		return
	}
	dtos := make([]LineDTO, len(lines))
	for i, l := range lines {
		dtos[i] = toLineDTO(l)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateLine persists a new BOQ line. COGS autofill and price-term snapshot
// run on create only when the corresponding fields are empty.
func (h *Handler) CreateLine(w http.ResponseWriter, r *http.Request) {
	h.saveLine(w, r, "")
}

// UpdateLine replaces an existing line's fields.
func (h *Handler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	lineID := chi.URLParam(r, "lineID")
	existing, err := h.Store.GetLine(r.Context(), boq.LineID(lineID))
	if err != nil {
		writeDomainError(w, "Failed to get line", err)
		return
	}
	if string(existing.ScenarioID) != chi.URLParam(r, "id") {
		writeError(w, http.StatusNotFound, "Line not in scenario", pricing.ErrLineNotFound)
		return
	}
	h.saveLine(w, r, boq.LineID(lineID))
}

func (h *Handler) saveLine(w http.ResponseWriter, r *http.Request, lineID boq.LineID) {
	scenarioID := chi.URLParam(r, "id")
	scenario, err := h.Store.GetScenario(r.Context(), scenarioID)
	if err != nil {
		writeDomainError(w, "Failed to get scenario", err)
		return
	}

	var req SaveLineRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	line := boq.Line{
		ID:         lineID,
		ScenarioID: boq.ScenarioID(scenarioID),
		Section:    req.Section,
		Category:   boq.Category(req.Category),
		ItemName:   strings.TrimSpace(req.ItemName),
		Unit:       req.Unit,
		Frequency:  pricing.Frequency(req.Frequency),
		Months:     req.Months,
		PriceTerm:  req.PriceTerm,
		Active:     boolOrDefault(req.Active, true),
		Notes:      req.Notes,
	}
	if line.Frequency == "" {
		line.Frequency = pricing.FreqOnce
	}
	if req.ProductID != nil {
		pid := pricing.ProductID(*req.ProductID)
		line.ProductID = &pid
	}
	if line.Quantity, err = optionalDecimal("quantity", req.Quantity, decimal.Zero); err != nil {
		writeDomainError(w, "Invalid quantity", err)
		return
	}
	if line.UnitPrice, err = optionalDecimal("unit_price", req.UnitPrice, decimal.Zero); err != nil {
		writeDomainError(w, "Invalid unit_price", err)
		return
	}
	if line.UnitCOGS, err = optionalDecimalPtr("unit_cogs", req.UnitCOGS); err != nil {
		writeDomainError(w, "Invalid unit_cogs", err)
		return
	}
	if line.Start, err = optionalMonthPtr(req.Start); err != nil {
		writeDomainError(w, "Invalid start, want YYYY-MM", err)
		return
	}
	// Lines inherit the scenario's start when they carry none of their own.
	if line.Start == nil {
		line.Start = scenario.Start
	}

	if err := line.Validate(); err != nil {
		writeDomainError(w, "Invalid line", err)
		return
	}

	if err := boq.AutofillCOGS(r.Context(), h.Costs, &line); err != nil {
		writeDomainError(w, "Failed to autofill COGS", err)
		return
	}
	boq.SnapshotPriceTerm(r.Context(), h.Resolver, &line)

	line, err = h.Store.SaveLine(r.Context(), line)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save line", err)
		return
	}
	status := http.StatusCreated
	if lineID != "" {
		status = http.StatusOK
	}
	writeJSON(w, status, toLineDTO(line))
}

func (h *Handler) DeleteLine(w http.ResponseWriter, r *http.Request) {
	err := h.Store.DeleteLine(r.Context(), chi.URLParam(r, "id"), boq.LineID(chi.URLParam(r, "lineID")))
	if err != nil {
		writeDomainError(w, "Failed to delete line", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTotals aggregates revenue, COGS, and gross margin across the scenario.
// Inactive lines are included unless ?active_only=true.
// GET /api/scenarios/{id}/boq/totals
func (h *Handler) GetTotals(w http.ResponseWriter, r *http.Request) {
	scenarioID := chi.URLParam(r, "id")
	if _, err := h.Store.GetScenario(r.Context(), scenarioID); err != nil {
		writeDomainError(w, "Failed to get scenario", err)
		return
	}

	lines, err := h.Store.ListLines(r.Context(), scenarioID, sqlite.FilterAll)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list lines", err)
		return
	}

	activeOnly := r.URL.Query().Get("active_only") == "true"
	totals := boq.Totals(lines, boq.TotalsOptions{ActiveOnly: activeOnly})

	counted := len(lines)
	if activeOnly {
		counted = 0
		for _, l := range lines {
			if l.Active {
				counted++
			}
		}
	}

	writeJSON(w, http.StatusOK, TotalsDTO{
		ScenarioID:  scenarioID,
		Lines:       counted,
		ActiveOnly:  activeOnly,
		Revenue:     totals.Revenue.String(),
		COGS:        totals.COGS.String(),
		GrossMargin: totals.GrossMargin.String(),
	})
}

// PreviewLine explains the line's price for the given period without
// mutating the line.
// GET /api/scenarios/{id}/boq/{lineID}/preview?period=YYYY-MM
func (h *Handler) PreviewLine(w http.ResponseWriter, r *http.Request) {
	scenarioID := boq.ScenarioID(chi.URLParam(r, "id"))
	lineID := boq.LineID(chi.URLParam(r, "lineID"))
	period, ok := periodParam(w, r)
	if !ok {
		return
	}
	preview, err := h.Previews.PreviewInScenario(r.Context(), scenarioID, lineID, period)
	if err != nil {
		writeDomainError(w, "Failed to preview line", err)
		return
	}
	writeJSON(w, http.StatusOK, toPreviewDTO(preview))
}

// ApplyPrice writes a previewed unit price onto the line. Idempotent.
// POST /api/scenarios/{id}/boq/{lineID}/apply-price
func (h *Handler) ApplyPrice(w http.ResponseWriter, r *http.Request) {
	scenarioID := chi.URLParam(r, "id")
	lineID := boq.LineID(chi.URLParam(r, "lineID"))

	var req ApplyPriceRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	price, err := pricing.ParseDecimal("unit_price", req.UnitPrice)
	if err != nil {
		writeDomainError(w, "Invalid unit_price", err)
		return
	}

	line, err := h.Store.GetLine(r.Context(), lineID)
	if err != nil {
		writeDomainError(w, "Failed to get line", err)
		return
	}
	if string(line.ScenarioID) != scenarioID {
		writeError(w, http.StatusNotFound, "Line not in scenario", pricing.ErrLineNotFound)
		return
	}

	if err := h.Previews.Apply(r.Context(), lineID, price); err != nil {
		writeDomainError(w, "Failed to apply price", err)
		return
	}
	line, err = h.Store.GetLine(r.Context(), lineID)
	if err != nil {
		writeDomainError(w, "Failed to reload line", err)
		return
	}
	writeJSON(w, http.StatusOK, toLineDTO(*line))
}

// ResetDatabase clears all data (dev only).
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
