/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY AND PERIODS:
  Monetary values and quantities are decimal STRINGS on the wire
  ("312.50", never 312.5 as a JSON number) and are parsed exactly at this
  boundary. Periods are "YYYY-MM" strings.

VALIDATION:
  Request types carry go-playground/validator struct tags; structural
  checks (required, oneof) happen here, domain checks (windows, overlap,
  decimal parsing) happen in the domain packages.

SEE ALSO:
  - handlers.go: Uses these types
  - pricing/types.go: Domain model these map from
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/aryaintel/pricing-engine/boq"
	"github.com/aryaintel/pricing-engine/pricing"
	"github.com/aryaintel/pricing-engine/store/sqlite"
)

// =============================================================================
// CATALOG TYPES
// =============================================================================

// FamilyDTO represents a product family in API responses.
type FamilyDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"is_active"`
}

// SaveFamilyRequest creates or updates a product family.
type SaveFamilyRequest struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name" validate:"required"`
	Active *bool  `json:"is_active,omitempty"`
}

// ProductDTO represents a product in API responses.
type ProductDTO struct {
	ID       string  `json:"id"`
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	UOM      string  `json:"uom,omitempty"`
	Currency string  `json:"currency,omitempty"`
	FamilyID *string `json:"family_id,omitempty"`
	Active   bool    `json:"is_active"`
}

// SaveProductRequest creates or updates a product.
type SaveProductRequest struct {
	ID       string  `json:"id,omitempty"`
	Code     string  `json:"code" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	UOM      string  `json:"uom,omitempty"`
	Currency string  `json:"currency,omitempty" validate:"omitempty,len=3,uppercase"`
	FamilyID *string `json:"family_id,omitempty"`
	Active   *bool   `json:"is_active,omitempty"`
}

// =============================================================================
// BOOK TYPES
// =============================================================================

// BookDTO represents a price or cost book.
type BookDTO struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Currency  string `json:"currency"`
	IsDefault bool   `json:"is_default"`
	Active    bool   `json:"is_active"`
	ValidFrom string `json:"valid_from,omitempty"`
	ValidTo   string `json:"valid_to,omitempty"`
}

// SaveBookRequest creates or updates a book.
type SaveBookRequest struct {
	ID        string `json:"id,omitempty"`
	Code      string `json:"code" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Currency  string `json:"currency" validate:"required,len=3,uppercase"`
	IsDefault bool   `json:"is_default,omitempty"`
	Active    *bool  `json:"is_active,omitempty"`
	ValidFrom string `json:"valid_from,omitempty"`
	ValidTo   string `json:"valid_to,omitempty"`
}

// EntryDTO represents one book row. UnitPrice is set for price books,
// UnitCost for cost books.
type EntryDTO struct {
	ID        string `json:"id"`
	BookID    string `json:"book_id"`
	ProductID string `json:"product_id"`
	UnitPrice string `json:"unit_price,omitempty"`
	UnitCost  string `json:"unit_cost,omitempty"`
	Currency  string `json:"currency,omitempty"`
	ValidFrom string `json:"valid_from,omitempty"`
	ValidTo   string `json:"valid_to,omitempty"`
	PriceTerm string `json:"price_term,omitempty"`
	Active    bool   `json:"is_active"`
	Notes     string `json:"notes,omitempty"`
}

// SaveEntryRequest creates or updates one book row.
type SaveEntryRequest struct {
	ID        string `json:"id,omitempty"`
	ProductID string `json:"product_id" validate:"required"`
	UnitPrice string `json:"unit_price,omitempty"`
	UnitCost  string `json:"unit_cost,omitempty"`
	Currency  string `json:"currency,omitempty" validate:"omitempty,len=3,uppercase"`
	ValidFrom string `json:"valid_from,omitempty"`
	ValidTo   string `json:"valid_to,omitempty"`
	PriceTerm string `json:"price_term,omitempty"`
	Active    *bool  `json:"is_active,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// =============================================================================
// FORMULATION TYPES
// =============================================================================

type ComponentDTO struct {
	SeriesID       string  `json:"series_id" validate:"required"`
	WeightPct      string  `json:"weight_pct" validate:"required"`
	BaseIndexValue *string `json:"base_index_value,omitempty"`
}

type FormulationDTO struct {
	ID            string         `json:"id"`
	ProductID     string         `json:"product_id"`
	BasePrice     *string        `json:"base_price,omitempty"`
	BaseProductID *string        `json:"base_product_id,omitempty"`
	Currency      string         `json:"currency,omitempty"`
	Factor        string         `json:"factor"`
	Components    []ComponentDTO `json:"components,omitempty"`
}

type SaveFormulationRequest struct {
	ID            string         `json:"id,omitempty"`
	ProductID     string         `json:"product_id" validate:"required"`
	BasePrice     *string        `json:"base_price,omitempty"`
	BaseProductID *string        `json:"base_product_id,omitempty"`
	Currency      string         `json:"currency,omitempty" validate:"omitempty,len=3,uppercase"`
	Factor        string         `json:"factor,omitempty"`
	Components    []ComponentDTO `json:"components,omitempty" validate:"dive"`
}

// =============================================================================
// INDEX SERIES TYPES
// =============================================================================

type SeriesDTO struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
	Unit string `json:"unit,omitempty"`
}

type SaveSeriesRequest struct {
	ID   string `json:"id,omitempty"`
	Code string `json:"code" validate:"required"`
	Name string `json:"name" validate:"required"`
	Unit string `json:"unit,omitempty"`
}

type IndexPointDTO struct {
	SeriesID string `json:"series_id"`
	Period   string `json:"period"`
	Value    string `json:"value"`
}

type UpsertPointRequest struct {
	Period string `json:"period" validate:"required"`
	Value  string `json:"value" validate:"required"`
}

// =============================================================================
// SCENARIO / BOQ LINE TYPES
// =============================================================================

type ScenarioDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Start  string `json:"start,omitempty"`
	Months int    `json:"months"`
}

type SaveScenarioRequest struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name" validate:"required"`
	Start  string `json:"start,omitempty"`
	Months int    `json:"months,omitempty" validate:"gte=0"`
}

// LineDTO represents one BOQ line in API responses.
type LineDTO struct {
	ID         string  `json:"id"`
	ScenarioID string  `json:"scenario_id"`
	Section    string  `json:"section,omitempty"`
	Category   string  `json:"category,omitempty"`
	ProductID  *string `json:"product_id,omitempty"`
	ItemName   string  `json:"item_name"`
	Unit       string  `json:"unit,omitempty"`
	Quantity   string  `json:"quantity"`
	UnitPrice  string  `json:"unit_price"`
	UnitCOGS   *string `json:"unit_cogs,omitempty"`
	Frequency  string  `json:"frequency"`
	Months     int     `json:"months"`
	Start      string  `json:"start,omitempty"`
	PriceTerm  string  `json:"price_term,omitempty"`
	Active     bool    `json:"is_active"`
	Notes      string  `json:"notes,omitempty"`
}

// SaveLineRequest creates or updates one BOQ line.
type SaveLineRequest struct {
	Section   string  `json:"section,omitempty"`
	Category  string  `json:"category,omitempty" validate:"omitempty,oneof=bulk_with_freight bulk_ex_freight freight"`
	ProductID *string `json:"product_id,omitempty"`
	ItemName  string  `json:"item_name" validate:"required"`
	Unit      string  `json:"unit,omitempty"`
	Quantity  string  `json:"quantity,omitempty"`
	UnitPrice string  `json:"unit_price,omitempty"`
	UnitCOGS  *string `json:"unit_cogs,omitempty"`
	Frequency string  `json:"frequency,omitempty" validate:"omitempty,oneof=once monthly per_shipment per_tonne"`
	Months    int     `json:"months,omitempty" validate:"gte=0"`
	Start     string  `json:"start,omitempty"`
	PriceTerm string  `json:"price_term,omitempty"`
	Active    *bool   `json:"is_active,omitempty"`
	Notes     string  `json:"notes,omitempty"`
}

// =============================================================================
// PRICING TYPES
// =============================================================================

// QuoteDTO is a resolved price for a product and period.
type QuoteDTO struct {
	ProductID string  `json:"product_id"`
	Period    string  `json:"period"`
	Source    string  `json:"source"`
	UnitPrice string  `json:"unit_price"`
	Currency  string  `json:"currency"`
	PriceTerm string  `json:"price_term,omitempty"`
	BasePrice *string `json:"base_price,omitempty"`
	Factor    *string `json:"factor,omitempty"`
}

// CostQuoteDTO is a resolved unit cost for a product and period.
type CostQuoteDTO struct {
	ProductID string `json:"product_id"`
	Period    string `json:"period"`
	UnitCost  string `json:"unit_cost"`
	Currency  string `json:"currency"`
	CostTerm  string `json:"cost_term,omitempty"`
	BookID    string `json:"book_id"`
}

// PreviewDTO explains one line's price for one period.
type PreviewDTO struct {
	LineID     string  `json:"line_id"`
	ScenarioID string  `json:"scenario_id"`
	ItemName   string  `json:"item_name"`
	Period     string  `json:"period"`
	Currency   string  `json:"currency"`
	Source     string  `json:"source"`
	UnitPrice  string  `json:"unit_price"`
	Quantity   string  `json:"quantity"`
	Multiplier string  `json:"multiplier"`
	LineTotal  string  `json:"line_total"`
	PriceTerm  string  `json:"price_term,omitempty"`
	BasePrice  *string `json:"base_price,omitempty"`
	Factor     *string `json:"factor,omitempty"`
}

// ApplyPriceRequest writes a previewed price onto the line.
type ApplyPriceRequest struct {
	UnitPrice string `json:"unit_price" validate:"required"`
}

// TotalsDTO aggregates revenue, COGS, and margin across a scenario's lines.
type TotalsDTO struct {
	ScenarioID  string `json:"scenario_id"`
	Lines       int    `json:"lines"`
	ActiveOnly  bool   `json:"active_only"`
	Revenue     string `json:"revenue"`
	COGS        string `json:"cogs"`
	GrossMargin string `json:"gross_margin"`
}

// DemoScenarioDTO describes a loadable demo dataset.
type DemoScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest selects a demo dataset to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toFamilyDTO(f sqlite.FamilyRecord) FamilyDTO {
	return FamilyDTO{ID: f.ID, Name: f.Name, Active: f.Active}
}

func toProductDTO(p sqlite.ProductRecord) ProductDTO {
	return ProductDTO{
		ID:       p.ID,
		Code:     p.Code,
		Name:     p.Name,
		UOM:      p.UOM,
		Currency: p.Currency,
		FamilyID: p.FamilyID,
		Active:   p.Active,
	}
}

func toBookDTO(b sqlite.BookRecord) BookDTO {
	dto := BookDTO{
		ID:        b.ID,
		Code:      b.Code,
		Name:      b.Name,
		Currency:  b.Currency,
		IsDefault: b.IsDefault,
		Active:    b.Active,
	}
	if b.ValidFrom != nil {
		dto.ValidFrom = b.ValidFrom.Format("2006-01-02")
	}
	if b.ValidTo != nil {
		dto.ValidTo = b.ValidTo.Format("2006-01-02")
	}
	return dto
}

func toPriceEntryDTO(e sqlite.PriceEntryRecord) EntryDTO {
	dto := EntryDTO{
		ID:        e.ID,
		BookID:    e.BookID,
		ProductID: e.ProductID,
		UnitPrice: e.UnitPrice.String(),
		Currency:  e.Currency,
		PriceTerm: e.PriceTerm,
		Active:    e.Active,
		Notes:     e.Notes,
	}
	if e.ValidFrom != nil {
		dto.ValidFrom = e.ValidFrom.Format("2006-01-02")
	}
	if e.ValidTo != nil {
		dto.ValidTo = e.ValidTo.Format("2006-01-02")
	}
	return dto
}

func toCostEntryDTO(e sqlite.CostEntryRecord) EntryDTO {
	dto := EntryDTO{
		ID:        e.ID,
		BookID:    e.BookID,
		ProductID: e.ProductID,
		UnitCost:  e.UnitCost.String(),
		Currency:  e.Currency,
		PriceTerm: e.CostTerm,
		Active:    e.Active,
		Notes:     e.Notes,
	}
	if e.ValidFrom != nil {
		dto.ValidFrom = e.ValidFrom.Format("2006-01-02")
	}
	if e.ValidTo != nil {
		dto.ValidTo = e.ValidTo.Format("2006-01-02")
	}
	return dto
}

func toFormulationDTO(f sqlite.FormulationRecord) FormulationDTO {
	dto := FormulationDTO{
		ID:            f.ID,
		ProductID:     f.ProductID,
		BaseProductID: f.BaseProductID,
		Currency:      f.Currency,
		Factor:        f.Factor.String(),
	}
	dto.BasePrice = decPtrToStr(f.BasePrice)
	for _, c := range f.Components {
		dto.Components = append(dto.Components, ComponentDTO{
			SeriesID:       c.SeriesID,
			WeightPct:      c.WeightPct.String(),
			BaseIndexValue: decPtrToStr(c.BaseIndexValue),
		})
	}
	return dto
}

func toSeriesDTO(r sqlite.SeriesRecord) SeriesDTO {
	return SeriesDTO{ID: r.ID, Code: r.Code, Name: r.Name, Unit: r.Unit}
}

func toIndexPointDTO(p sqlite.IndexPointRecord) IndexPointDTO {
	return IndexPointDTO{
		SeriesID: p.SeriesID,
		Period:   p.Period.String(),
		Value:    p.Value.String(),
	}
}

func toScenarioDTO(r sqlite.ScenarioRecord) ScenarioDTO {
	dto := ScenarioDTO{ID: r.ID, Name: r.Name, Months: r.Months}
	if r.Start != nil {
		dto.Start = r.Start.String()
	}
	return dto
}

func toLineDTO(l boq.Line) LineDTO {
	dto := LineDTO{
		ID:         string(l.ID),
		ScenarioID: string(l.ScenarioID),
		Section:    l.Section,
		Category:   string(l.Category),
		ItemName:   l.ItemName,
		Unit:       l.Unit,
		Quantity:   l.Quantity.String(),
		UnitPrice:  l.UnitPrice.String(),
		UnitCOGS:   decPtrToStr(l.UnitCOGS),
		Frequency:  string(l.Frequency),
		Months:     l.Months,
		PriceTerm:  l.PriceTerm,
		Active:     l.Active,
		Notes:      l.Notes,
	}
	if l.ProductID != nil {
		p := string(*l.ProductID)
		dto.ProductID = &p
	}
	if l.Start != nil {
		dto.Start = l.Start.String()
	}
	return dto
}

func toQuoteDTO(productID string, period pricing.Month, q pricing.Quote) QuoteDTO {
	return QuoteDTO{
		ProductID: productID,
		Period:    period.String(),
		Source:    string(q.Source),
		UnitPrice: q.UnitPrice.String(),
		Currency:  q.Currency,
		PriceTerm: q.PriceTerm,
		BasePrice: decPtrToStr(q.BasePrice),
		Factor:    decPtrToStr(q.Factor),
	}
}

func toCostQuoteDTO(productID string, period pricing.Month, q pricing.CostQuote) CostQuoteDTO {
	return CostQuoteDTO{
		ProductID: productID,
		Period:    period.String(),
		UnitCost:  q.UnitCost.String(),
		Currency:  q.Currency,
		CostTerm:  q.CostTerm,
		BookID:    string(q.BookID),
	}
}

func toPreviewDTO(p *boq.Preview) PreviewDTO {
	return PreviewDTO{
		LineID:     string(p.LineID),
		ScenarioID: string(p.ScenarioID),
		ItemName:   p.ItemName,
		Period:     p.Period.String(),
		Currency:   p.Currency,
		Source:     string(p.Source),
		UnitPrice:  p.UnitPrice.String(),
		Quantity:   p.Quantity.String(),
		Multiplier: p.Multiplier.String(),
		LineTotal:  p.LineTotal.String(),
		PriceTerm:  p.PriceTerm,
		BasePrice:  decPtrToStr(p.BasePrice),
		Factor:     decPtrToStr(p.Factor),
	}
}

func decPtrToStr(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
