package calculation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmartAdjustDecemberProfitTake(t *testing.T) {
	assets := testAssets()
	prices := testPrices(100, 50)
	december := time.Date(2020, 12, 1, 0, 0, 0, 0, time.UTC)

	state := testState(december, 10, 20, 500, prices)
	state = state.WithMemory(smartAdjustMemory{
		Year:           2020,
		YearStartValue: d(800),
		YearInflow:     decimal.Zero,
	})

	next := transitionSmartAdjust(state, prices, assets, d(100), false)

	// DCA first: QLD 20 -> 20.8 units, December inflow 40 counts against the
	// gain. Leveraged value 1040 vs baseline 840 leaves a 200 gain, a third of
	// which is sold: 66.67 of QLD, 4/3 units.
	assertDecimalNear(t, 19.466667, next.Holdings["QLD"], 1e-6)
	assertDecimalNear(t, 586.666667, next.Cash, 1e-6)
	// Growth leg is plain DCA, untouched by the adjustment.
	assertDecimalNear(t, 10.4, next.Holdings["QQQ"], 1e-9)

	memory := smartAdjustMemoryOf(next)
	assertDecimalNear(t, 40, memory.YearInflow, 1e-9)
}

func TestSmartAdjustDecemberDipBuy(t *testing.T) {
	assets := testAssets()
	prices := testPrices(100, 50)
	december := time.Date(2020, 12, 1, 0, 0, 0, 0, time.UTC)

	state := testState(december, 10, 20, 500, prices)
	state = state.WithMemory(smartAdjustMemory{
		Year:           2020,
		YearStartValue: d(2000),
		YearInflow:     decimal.Zero,
	})

	next := transitionSmartAdjust(state, prices, assets, d(100), false)

	// Down year: deploy 2% of the post-DCA total (2600) into QLD.
	assertDecimalNear(t, 21.84, next.Holdings["QLD"], 1e-9)
	assertDecimalNear(t, 468, next.Cash, 1e-9)
}

func TestSmartAdjustDipBuyCappedAtCash(t *testing.T) {
	assets := testAssets()
	prices := testPrices(100, 50)
	december := time.Date(2020, 12, 1, 0, 0, 0, 0, time.UTC)

	state := testState(december, 10, 20, 10, prices)
	state = state.WithMemory(smartAdjustMemory{
		Year:           2020,
		YearStartValue: d(2000),
		YearInflow:     decimal.Zero,
	})

	next := transitionSmartAdjust(state, prices, assets, decimal.Zero, false)

	// 2% of 2010 would be 40.20, but only 10 of cash is available.
	assert.True(t, next.Cash.IsZero(), "dip buy spends to exactly zero, got %s", next.Cash)
	assertDecimalNear(t, 20.2, next.Holdings["QLD"], 1e-9)
}

func TestSmartAdjustYearRollover(t *testing.T) {
	assets := testAssets()
	prices := testPrices(100, 50)
	january := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	state := testState(january, 10, 20, 500, prices)
	state = state.WithMemory(smartAdjustMemory{
		Year:           2020,
		YearStartValue: d(123),
		YearInflow:     d(456),
	})

	next := transitionSmartAdjust(state, prices, assets, d(100), false)

	memory := smartAdjustMemoryOf(next)
	require.Equal(t, 2021, memory.Year)
	// Baseline is the leveraged value before January's contribution.
	assertDecimalNear(t, 1000, memory.YearStartValue, 1e-9)
	assertDecimalNear(t, 40, memory.YearInflow, 1e-9)
}

func TestSmartAdjustFirstMonth(t *testing.T) {
	assets := testAssets()
	prices := testPrices(100, 50)
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	state := testState(start, 10, 20, 500, prices)
	next := transitionSmartAdjust(state, prices, assets, d(100), true)

	// Month 0 only seeds the memory; no contribution, no adjustment.
	assert.True(t, next.Holdings["QLD"].Equal(state.Holdings["QLD"]))
	assert.True(t, next.Cash.Equal(state.Cash))

	memory := smartAdjustMemoryOf(next)
	assert.Equal(t, 2020, memory.Year)
	assert.True(t, memory.YearInflow.IsZero())
}
