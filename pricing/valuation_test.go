package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aryaintel/pricing-engine/pricing"
)

// =============================================================================
// MULTIPLIER RULE
// =============================================================================

func TestMultiplier_MonthlyWithMonths_IsMonths(t *testing.T) {
	assert.True(t, pricing.Multiplier(pricing.FreqMonthly, 12).Equal(dec("12")))
	assert.True(t, pricing.Multiplier(pricing.FreqMonthly, 1).Equal(dec("1")))
}

func TestMultiplier_EverythingElse_IsOne(t *testing.T) {
	// months only matters for monthly; zero or missing months means 1
	cases := []struct {
		freq   pricing.Frequency
		months int
	}{
		{pricing.FreqOnce, 0},
		{pricing.FreqOnce, 12},
		{pricing.FreqMonthly, 0},
		{pricing.FreqPerShipment, 6},
		{pricing.FreqPerTonne, 6},
	}
	for _, tc := range cases {
		got := pricing.Multiplier(tc.freq, tc.months)
		assert.True(t, got.Equal(dec("1")), "%s months=%d got %s", tc.freq, tc.months, got)
	}
}

// =============================================================================
// LINE VALUATION
// =============================================================================

func TestValuate_MonthlyLine_ExactArithmetic(t *testing.T) {
	// GIVEN: 10 units at 100.00, COGS 60.00, monthly for 3 months
	// WHEN: Valuating
	// THEN: revenue 3000, cogs 1800, margin 1200, all exact

	v := pricing.Valuate(pricing.LineInput{
		Quantity:  dec("10"),
		UnitPrice: dec("100.00"),
		UnitCOGS:  decPtr("60.00"),
		Frequency: pricing.FreqMonthly,
		Months:    3,
	})

	assert.True(t, v.Revenue.Equal(dec("3000")), "revenue %s", v.Revenue)
	assert.True(t, v.COGS.Equal(dec("1800")), "cogs %s", v.COGS)
	assert.True(t, v.GrossMargin.Equal(dec("1200")), "margin %s", v.GrossMargin)
}

func TestValuate_NilCOGS_CountsAsZeroCost(t *testing.T) {
	// Nil unit_cogs zeroes the cost side only; revenue is untouched.
	v := pricing.Valuate(pricing.LineInput{
		Quantity:  dec("4"),
		UnitPrice: dec("25"),
		Frequency: pricing.FreqOnce,
	})

	assert.True(t, v.Revenue.Equal(dec("100")))
	assert.True(t, v.COGS.IsZero())
	assert.True(t, v.GrossMargin.Equal(dec("100")))
}

func TestValuate_FractionalQuantities_NoFloatDrift(t *testing.T) {
	// GIVEN: Quantities and prices that are classic float troublemakers
	// WHEN: Valuating twice
	// THEN: Results are exact and identical

	in := pricing.LineInput{
		Quantity:  dec("0.1"),
		UnitPrice: dec("0.3"),
		UnitCOGS:  decPtr("0.2"),
		Frequency: pricing.FreqMonthly,
		Months:    3,
	}
	a := pricing.Valuate(in)
	b := pricing.Valuate(in)

	assert.True(t, a.Revenue.Equal(dec("0.09")), "revenue %s", a.Revenue)
	assert.True(t, a.COGS.Equal(dec("0.06")), "cogs %s", a.COGS)
	assert.True(t, a.Revenue.Equal(b.Revenue))
	assert.True(t, a.GrossMargin.Equal(b.GrossMargin))
}

func TestValuate_MarginIdentity(t *testing.T) {
	// margin == revenue - cogs holds for every input combination tried
	inputs := []pricing.LineInput{
		{Quantity: dec("500"), UnitPrice: dec("312.50"), UnitCOGS: decPtr("242.00"), Frequency: pricing.FreqMonthly, Months: 12},
		{Quantity: dec("0"), UnitPrice: dec("99.99"), Frequency: pricing.FreqOnce},
		{Quantity: dec("1200"), UnitPrice: dec("455.00"), UnitCOGS: decPtr("381.25"), Frequency: pricing.FreqPerTonne},
	}
	for _, in := range inputs {
		v := pricing.Valuate(in)
		assert.True(t, v.GrossMargin.Equal(v.Revenue.Sub(v.COGS)))
	}
}

func TestLineValue_Add_IsElementWise(t *testing.T) {
	a := pricing.LineValue{Revenue: dec("100"), COGS: dec("40"), GrossMargin: dec("60")}
	b := pricing.LineValue{Revenue: dec("50"), COGS: dec("10"), GrossMargin: dec("40")}

	sum := a.Add(b)
	assert.True(t, sum.Revenue.Equal(dec("150")))
	assert.True(t, sum.COGS.Equal(dec("50")))
	assert.True(t, sum.GrossMargin.Equal(dec("100")))
}
