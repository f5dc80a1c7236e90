package boq

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/aryaintel/pricing-engine/pricing"
)

// =============================================================================
// LINE STORE - Persistence contract for BOQ lines
// =============================================================================

// LineStore is the collaborator contract for BOQ line persistence. Concurrent
// edits to the same line's price fields resolve last-write-wins at the
// storage layer; the engine does not serialize them.
type LineStore interface {
	// GetLine returns the line or pricing.ErrLineNotFound.
	GetLine(ctx context.Context, id LineID) (*Line, error)

	// UpdateLineUnitPrice performs the single-field price update used by
	// Apply. Re-applying the same price must be a no-op in effect.
	UpdateLineUnitPrice(ctx context.Context, id LineID, price decimal.Decimal) error
}

// =============================================================================
// MEMORY LINE STORE - In-memory implementation (for testing/dev)
// =============================================================================

type MemoryLineStore struct {
	mu    sync.RWMutex
	lines map[LineID]Line
}

func NewMemoryLineStore() *MemoryLineStore {
	return &MemoryLineStore{lines: make(map[LineID]Line)}
}

func (m *MemoryLineStore) PutLine(l Line) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines[l.ID] = l
}

func (m *MemoryLineStore) GetLine(_ context.Context, id LineID) (*Line, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.lines[id]
	if !ok {
		return nil, pricing.ErrLineNotFound
	}
	return &l, nil
}

func (m *MemoryLineStore) UpdateLineUnitPrice(_ context.Context, id LineID, price decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lines[id]
	if !ok {
		return pricing.ErrLineNotFound
	}
	l.UnitPrice = price
	m.lines[id] = l
	return nil
}

var _ LineStore = (*MemoryLineStore)(nil)
