package pricing

import (
	"fmt"
	"time"
)

// =============================================================================
// MONTH - The pricing period (a calendar month)
// =============================================================================

// Month is the unit of price resolution. Periods cross the API boundary as
// "YYYY-MM" strings and are anchored to day 1 UTC for window comparison,
// e.g. "2025-03" compares as 2025-03-01.
type Month struct {
	Year  int
	Month time.Month
}

func NewMonth(year int, month time.Month) Month {
	return Month{Year: year, Month: month}
}

// ParseMonth parses a "YYYY-MM" string. Anything else is InvalidPeriod.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q (want YYYY-MM)", ErrInvalidPeriod, s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// Date returns the month anchored to day 1 UTC.
func (m Month) Date() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m Month) IsZero() bool { return m.Year == 0 && m.Month == 0 }

func (m Month) AddMonths(n int) Month {
	t := m.Date().AddDate(0, n, 0)
	return Month{Year: t.Year(), Month: t.Month()}
}

// Index returns a total ordering key (months since year 0).
func (m Month) Index() int { return m.Year*12 + int(m.Month) - 1 }

func (m Month) Before(other Month) bool { return m.Index() < other.Index() }
func (m Month) After(other Month) bool  { return m.Index() > other.Index() }

// MonthsBetween returns the inclusive month count from a to b (1 when equal).
// Returns 0 when b precedes a.
func MonthsBetween(a, b Month) int {
	n := b.Index() - a.Index() + 1
	if n < 0 {
		return 0
	}
	return n
}

// =============================================================================
// WINDOW - Validity window [valid_from, valid_to]
// =============================================================================

// Window is an inclusive date range. A nil bound is unbounded in that
// direction. A period P matches when valid_from <= P <= valid_to.
type Window struct {
	From *time.Time
	To   *time.Time
}

// Contains reports whether the window covers the given date.
func (w Window) Contains(d time.Time) bool {
	if w.From != nil && d.Before(dayStart(*w.From)) {
		return false
	}
	if w.To != nil && d.After(dayStart(*w.To)) {
		return false
	}
	return true
}

// ContainsMonth is Contains against the month's day-1 anchor.
func (w Window) ContainsMonth(m Month) bool {
	return w.Contains(m.Date())
}

// Overlaps reports whether two windows share at least one day. Used for the
// data-quality invariant: within one book, entries for the same product must
// not overlap while both active.
func (w Window) Overlaps(other Window) bool {
	if w.To != nil && other.From != nil && dayStart(*w.To).Before(dayStart(*other.From)) {
		return false
	}
	if other.To != nil && w.From != nil && dayStart(*other.To).Before(dayStart(*w.From)) {
		return false
	}
	return true
}

// Validate rejects windows with end before start.
func (w Window) Validate() error {
	if w.From != nil && w.To != nil && dayStart(*w.To).Before(dayStart(*w.From)) {
		return fmt.Errorf("%w: valid_to before valid_from", ErrInvalidInput)
	}
	return nil
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a "YYYY-MM-DD" boundary string into a window bound.
func ParseDate(field, s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, &InvalidInputError{Field: field, Value: s, Reason: "not a YYYY-MM-DD date"}
	}
	return t, nil
}
