// Package store provides an in-memory pricing.Catalog implementation
// (for testing/dev). The production catalog lives in store/sqlite.
package store

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/aryaintel/pricing-engine/pricing"
)

// =============================================================================
// MEMORY CATALOG - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	products     map[pricing.ProductID]pricing.Product
	priceEntries map[pricing.ProductID][]pricing.PriceEntry
	costEntries  map[pricing.ProductID][]pricing.CostEntry
	formulations map[pricing.ProductID]pricing.Formulation
	indexPoints  map[indexKey]decimal.Decimal
}

type indexKey struct {
	Series pricing.SeriesID
	Period pricing.Month
}

func NewMemory() *Memory {
	return &Memory{
		products:     make(map[pricing.ProductID]pricing.Product),
		priceEntries: make(map[pricing.ProductID][]pricing.PriceEntry),
		costEntries:  make(map[pricing.ProductID][]pricing.CostEntry),
		formulations: make(map[pricing.ProductID]pricing.Formulation),
		indexPoints:  make(map[indexKey]decimal.Decimal),
	}
}

// -----------------------------------------------------------------------------
// Setters (test/demo seeding)
// -----------------------------------------------------------------------------

func (m *Memory) PutProduct(p pricing.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

func (m *Memory) AddPriceEntry(productID pricing.ProductID, e pricing.PriceEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.priceEntries[productID] = append(m.priceEntries[productID], e)
}

func (m *Memory) AddCostEntry(productID pricing.ProductID, e pricing.CostEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.costEntries[productID] = append(m.costEntries[productID], e)
}

func (m *Memory) PutFormulation(f pricing.Formulation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.formulations[f.ProductID] = f
}

func (m *Memory) PutIndexPoint(series pricing.SeriesID, period pricing.Month, value decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexPoints[indexKey{Series: series, Period: period}] = value
}

// -----------------------------------------------------------------------------
// pricing.Catalog
// -----------------------------------------------------------------------------

func (m *Memory) GetProduct(_ context.Context, id pricing.ProductID) (*pricing.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, pricing.ErrProductNotFound
	}
	return &p, nil
}

func (m *Memory) ListActivePriceEntries(_ context.Context, id pricing.ProductID, _ pricing.Month) ([]pricing.PriceEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := m.priceEntries[id]
	result := make([]pricing.PriceEntry, len(entries))
	copy(result, entries)
	return result, nil
}

func (m *Memory) ListActiveCostEntries(_ context.Context, id pricing.ProductID, _ pricing.Month) ([]pricing.CostEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := m.costEntries[id]
	result := make([]pricing.CostEntry, len(entries))
	copy(result, entries)
	return result, nil
}

func (m *Memory) GetFormulation(_ context.Context, id pricing.ProductID) (*pricing.Formulation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.formulations[id]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

func (m *Memory) IndexValue(_ context.Context, id pricing.SeriesID, period pricing.Month) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.indexPoints[indexKey{Series: id, Period: period}]
	if !ok {
		return decimal.Zero, pricing.ErrMissingIndexPoint
	}
	return v, nil
}

var _ pricing.Catalog = (*Memory)(nil)
