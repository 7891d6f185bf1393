package calculation

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbt/portfolio-backtester/internal/domain"
)

func engineConfig(capital, contribution, yield float64) *domain.Configuration {
	return &domain.Configuration{
		Assets: domain.AssetConfig{
			GrowthTicker:    "QQQ",
			LeveragedTicker: "QLD",
			GrowthWeight:    d(0.4),
			LeveragedWeight: d(0.4),
			CashWeight:      d(0.2),
			CashYieldAnnual: d(yield),
		},
		Simulation: domain.SimulationInput{
			InitialCapital:      d(capital),
			MonthlyContribution: d(contribution),
			PriceHistoryPath:    "unused.json",
			FillPolicy:          domain.FillPolicyForward,
		},
	}
}

func monthlyRows(start time.Time, qqq, qld []float64) []domain.PriceRow {
	rows := make([]domain.PriceRow, len(qqq))
	for i := range qqq {
		rows[i] = domain.PriceRow{
			Date:   start.AddDate(0, i, 0),
			Prices: domain.PriceMap{"QQQ": d(qqq[i]), "QLD": d(qld[i])},
		}
	}
	return rows
}

func flatSeries(value float64, months int) []float64 {
	series := make([]float64, months)
	for i := range series {
		series[i] = value
	}
	return series
}

func TestEngineDCATwoYearAccounting(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := monthlyRows(start, flatSeries(100, 24), flatSeries(50, 24))
	config := engineConfig(100000, 1000, 0)

	strat, err := StrategyByName(StrategyDCAMonthly)
	require.NoError(t, err)

	result, err := NewSimulationEngine().Run(context.Background(), rows, strat, config)
	require.NoError(t, err)

	// One recorded state per price row.
	require.Equal(t, 24, result.Months())

	// 23 contribution months follow the initial allocation.
	assertDecimalNear(t, 123000, result.TotalInvested, 1e-9)
	require.Len(t, result.CashFlows, 25)
	assert.True(t, result.CashFlows[0].Amount.Equal(d(-100000)))
	for _, cf := range result.CashFlows[1:24] {
		assert.True(t, cf.Amount.Equal(d(-1000)))
	}
	finalFlow := result.CashFlows[24]
	assert.True(t, finalFlow.Amount.IsPositive())
	assert.True(t, finalFlow.Amount.Equal(result.FinalBalance()))

	// Flat prices and zero yield: the portfolio is worth exactly what went in.
	assertDecimalNear(t, 123000, result.FinalBalance(), 1e-9)
	assertDecimalNear(t, 123000, result.Metrics[domain.MetricFinalBalance], 1e-9)

	// Every month stays solvent.
	for _, state := range result.History {
		assert.False(t, state.Cash.IsNegative())
		for ticker, units := range state.Holdings {
			assert.False(t, units.IsNegative(), "units of %s", ticker)
		}
	}
}

func TestEngineDCACashExceedsDeposits(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	qqq := make([]float64, 24)
	qld := make([]float64, 24)
	qqq[0], qld[0] = 100, 50
	for i := 1; i < 24; i++ {
		qqq[i], qld[i] = qqq[i-1], qld[i-1]
		if i%2 == 1 {
			qqq[i] *= 1.02
			qld[i] *= 1.04
		}
	}
	rows := monthlyRows(start, qqq, qld)
	config := engineConfig(10000, 100, 0.04)

	strat, err := StrategyByName(StrategyDCAMonthly)
	require.NoError(t, err)

	result, err := NewSimulationEngine().Run(context.Background(), rows, strat, config)
	require.NoError(t, err)

	// Cash only ever receives its 20% slice of each deposit plus interest, so
	// the final balance must strictly exceed the 2000 + 23*20 deposited.
	deposited := d(2460)
	finalCash := result.History[23].Cash
	assert.True(t, finalCash.GreaterThan(deposited),
		"final cash %s must exceed deposits %s", finalCash, deposited)
	for _, state := range result.History {
		assert.False(t, state.Cash.IsNegative(), "cash at %s", state.Date.Format("2006-01"))
	}
}

func TestEngineLumpSumFrozenUnits(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := monthlyRows(start,
		[]float64{100, 120, 90, 140, 80, 160},
		[]float64{50, 70, 30, 90, 20, 100})
	config := engineConfig(100000, 1000, 0.04)

	strat, err := StrategyByName(StrategyLumpSum)
	require.NoError(t, err)

	result, err := NewSimulationEngine().Run(context.Background(), rows, strat, config)
	require.NoError(t, err)

	// Unit counts never move after the initial allocation.
	first := result.History[0]
	for _, state := range result.History[1:] {
		for ticker := range first.Holdings {
			assert.True(t, state.Holdings[ticker].Equal(first.Holdings[ticker]),
				"units of %s changed at %s", ticker, state.Date.Format("2006-01"))
		}
	}

	// Ledger is initial outlay plus final value only; the contribution is
	// never drawn.
	require.Len(t, result.CashFlows, 2)
	assert.True(t, result.TotalInvested.Equal(d(100000)))

	// Cash compounds at the monthly-equivalent rate, nothing else touches it.
	monthly := monthlyRateFromAnnual(d(0.04))
	expected := d(20000)
	for range result.History[1:] {
		expected = expected.Add(expected.Mul(monthly))
	}
	assertDecimalNear(t, mustFloat(expected), result.History[5].Cash, 1e-6)
}

func mustFloat(value decimal.Decimal) float64 {
	f, _ := value.Float64()
	return f
}

func TestEngineJanuaryRebalanceHitsTargets(t *testing.T) {
	start := time.Date(2020, 10, 1, 0, 0, 0, 0, time.UTC)
	rows := monthlyRows(start,
		[]float64{100, 110, 120, 130, 140, 150},
		[]float64{50, 45, 40, 35, 30, 25})
	config := engineConfig(100000, 1000, 0)

	strat, err := StrategyByName(StrategyDCAYearlyRebalance)
	require.NoError(t, err)

	result, err := NewSimulationEngine().Run(context.Background(), rows, strat, config)
	require.NoError(t, err)

	// Index 3 is January 2021: weights must be back on target.
	january := result.History[3]
	require.Equal(t, time.January, january.Date.Month())
	prices := rows[3].Prices
	for _, ticker := range config.Assets.RiskyTickers() {
		weight := january.Holdings[ticker].Mul(prices[ticker]).Div(january.TotalValue)
		assertDecimalNear(t, 0.4, weight, 1e-6, "weight of %s after rebalance", ticker)
	}
	assertDecimalNear(t, 0.2, january.Cash.Div(january.TotalValue), 1e-6)
}

func TestEngineFillPolicies(t *testing.T) {
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := monthlyRows(start,
		[]float64{100, 105, 110, 115},
		[]float64{50, 52, 54, 56})
	// March has no QLD close.
	delete(rows[2].Prices, "QLD")

	config := engineConfig(100000, 1000, 0)
	strat, err := StrategyByName(StrategyDCAMonthly)
	require.NoError(t, err)

	t.Run("forward fill trades at the last known price", func(t *testing.T) {
		engine := NewSimulationEngine()
		result, err := engine.Run(context.Background(), rows, strat, config)
		require.NoError(t, err)

		// All three contribution months invested.
		assert.True(t, result.TotalInvested.Equal(d(103000)))
		require.Len(t, result.CashFlows, 5)

		// March bought QLD at February's 52.
		boughtUnits := result.History[2].Holdings["QLD"].Sub(result.History[1].Holdings["QLD"])
		assertDecimalNear(t, 400.0/52, boughtUnits, 1e-9)
	})

	t.Run("skip trading freezes the month", func(t *testing.T) {
		engine := NewSimulationEngine()
		engine.FillPolicy = domain.FillPolicySkipTrading
		result, err := engine.Run(context.Background(), rows, strat, config)
		require.NoError(t, err)

		// March draws no contribution and trades nothing.
		assert.True(t, result.TotalInvested.Equal(d(102000)))
		require.Len(t, result.CashFlows, 4)
		assert.True(t, result.History[2].Holdings["QLD"].Equal(result.History[1].Holdings["QLD"]))
		assert.True(t, result.History[2].Cash.Equal(result.History[1].Cash), "zero yield, untouched cash")
	})
}

func TestEngineMetricsReport(t *testing.T) {
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	qqq := make([]float64, 36)
	qld := make([]float64, 36)
	for i := range qqq {
		qqq[i] = 100 + float64(i)*2
		if i%2 == 0 {
			qqq[i] -= 3
		}
		qld[i] = 50 + float64(i)
		if i%3 == 0 {
			qld[i] -= 4
		}
	}
	rows := monthlyRows(start, qqq, qld)
	config := engineConfig(100000, 1000, 0.04)

	strat, err := StrategyByName(StrategyDCAMonthly)
	require.NoError(t, err)

	result, err := NewSimulationEngine().Run(context.Background(), rows, strat, config)
	require.NoError(t, err)

	assert.Empty(t, result.MetricErrors)
	for _, key := range []string{
		domain.MetricFinalBalance, domain.MetricTotalInvested, domain.MetricCAGR,
		domain.MetricIRR, domain.MetricMaxDrawdown, domain.MetricVolatility,
		domain.MetricSharpeRatio,
	} {
		_, ok := result.Metrics[key]
		assert.True(t, ok, "metric %s missing", key)
	}

	assert.True(t, result.Metrics[domain.MetricVolatility].IsPositive())
	assert.False(t, result.Metrics[domain.MetricMaxDrawdown].IsPositive())
	assert.NotEmpty(t, result.RunID)
}

func TestEngineSharpeErrorOnFlatSeries(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := monthlyRows(start, flatSeries(100, 12), flatSeries(50, 12))
	config := engineConfig(100000, 0, 0)

	strat, err := StrategyByName(StrategyLumpSum)
	require.NoError(t, err)

	result, err := NewSimulationEngine().Run(context.Background(), rows, strat, config)
	require.NoError(t, err)

	// A perfectly flat run has zero volatility: Sharpe lands in the error map,
	// the remaining metrics stay usable.
	assert.Contains(t, result.MetricErrors, domain.MetricSharpeRatio)
	assert.True(t, result.Metrics[domain.MetricVolatility].IsZero())
	assertDecimalNear(t, 0, result.Metrics[domain.MetricCAGR], 1e-9)
}

func TestEngineRejectsBadInput(t *testing.T) {
	strat, err := StrategyByName(StrategyDCAMonthly)
	require.NoError(t, err)
	engine := NewSimulationEngine()

	t.Run("empty price series", func(t *testing.T) {
		_, err := engine.Run(context.Background(), nil, strat, engineConfig(100000, 1000, 0))
		assert.Error(t, err)
	})

	t.Run("weights do not sum to one", func(t *testing.T) {
		config := engineConfig(100000, 1000, 0)
		config.Assets.CashWeight = d(0.5)
		rows := monthlyRows(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), flatSeries(100, 2), flatSeries(50, 2))
		_, err := engine.Run(context.Background(), rows, strat, config)
		assert.Error(t, err)
	})

	t.Run("missing first price", func(t *testing.T) {
		rows := monthlyRows(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), flatSeries(100, 2), flatSeries(50, 2))
		delete(rows[0].Prices, "QLD")
		_, err := engine.Run(context.Background(), rows, strat, engineConfig(100000, 1000, 0))
		assert.Error(t, err)
	})
}

func TestEngineRunAll(t *testing.T) {
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	qqq := make([]float64, 30)
	qld := make([]float64, 30)
	for i := range qqq {
		qqq[i] = 100 * (1 + 0.01*float64(i))
		qld[i] = 50 * (1 + 0.015*float64(i))
	}
	rows := monthlyRows(start, qqq, qld)
	config := engineConfig(100000, 1000, 0.04)

	results, err := NewSimulationEngine().RunAll(context.Background(), rows, config)
	require.NoError(t, err)
	require.Len(t, results, 4)

	seen := make(map[string]bool)
	runIDs := make(map[string]bool)
	for _, result := range results {
		seen[result.StrategyName] = true
		runIDs[result.RunID] = true
		assert.Equal(t, 30, result.Months())
	}
	assert.Len(t, seen, 4)
	assert.Len(t, runIDs, 4, "run identifiers must be distinct")

	// Lump Sum never draws the contribution; the DCA variants all do.
	byName := make(map[string]domain.SimulationResult, len(results))
	for _, result := range results {
		byName[result.StrategyName] = result
	}
	assert.True(t, byName[StrategyLumpSum].TotalInvested.Equal(d(100000)))
	assert.True(t, byName[StrategyDCAMonthly].TotalInvested.Equal(d(129000)))
}
