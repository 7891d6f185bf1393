package calculation

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/pbt/portfolio-backtester/internal/domain"
	"github.com/pbt/portfolio-backtester/pkg/dateutil"
	"github.com/pbt/portfolio-backtester/pkg/id"
)

// SimulationEngine drives the monthly iteration for one strategy: interest
// accrual on the prior month's cash, one strategy transition, history
// accumulation, and the metrics report at the end.
type SimulationEngine struct {
	FillPolicy domain.FillPolicy
	IRR        IRRParams
	Logger     Logger
}

// NewSimulationEngine creates an engine with forward-fill for missing prices
// and the default IRR solver parameters.
func NewSimulationEngine() *SimulationEngine {
	return &SimulationEngine{
		FillPolicy: domain.FillPolicyForward,
		IRR:        DefaultIRRParams(),
		Logger:     NopLogger{},
	}
}

// SetLogger sets the engine logger. A nil logger restores the no-op default.
func (se *SimulationEngine) SetLogger(l Logger) {
	if l == nil {
		se.Logger = NopLogger{}
		return
	}
	se.Logger = l
}

// Run simulates one strategy over the aligned monthly price series and
// returns its complete result. The price series and configuration are
// read-only inputs; every produced state is a fresh snapshot.
func (se *SimulationEngine) Run(ctx context.Context, rows []domain.PriceRow, strat Strategy, config *domain.Configuration) (*domain.SimulationResult, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no price rows to simulate")
	}
	if err := config.Assets.ValidateWeights(); err != nil {
		return nil, fmt.Errorf("configuration rejected: %w", err)
	}

	assets := &config.Assets
	contribution := config.Simulation.MonthlyContribution

	lastKnown, err := resolveFirstPrices(rows[0], assets)
	if err != nil {
		return nil, err
	}

	state, err := initializeState(rows[0], config.Simulation.InitialCapital, assets, lastKnown)
	if err != nil {
		return nil, err
	}

	monthlyRate := monthlyRateFromAnnual(assets.CashYieldAnnual)

	history := make([]domain.PortfolioState, 0, len(rows))
	cashFlows := []domain.CashFlow{{Date: rows[0].Date, Amount: config.Simulation.InitialCapital.Neg()}}
	totalInvested := config.Simulation.InitialCapital

	for i, row := range rows {
		prices, missing := se.resolvePrices(row, assets, lastKnown)
		firstMonth := i == 0

		// Interest accrues on the balance as of the start of the month,
		// before this month's contribution or trades.
		if !firstMonth {
			state = state.WithCash(state.Cash.Add(state.Cash.Mul(monthlyRate)))
		}

		state = state.WithDate(row.Date)
		switch {
		case firstMonth:
			state = strat.Transition(state, prices, assets, decimal.Zero, true)
		case missing && se.FillPolicy == domain.FillPolicySkipTrading:
			se.Logger.Debugf("%s: skipping trades for %s, missing price", strat.Name, row.Date.Format("2006-01"))
			state = state.Revalued(prices)
		default:
			state = strat.Transition(state, prices, assets, contribution, false)
			if strat.DrawsContribution && contribution.IsPositive() {
				cashFlows = append(cashFlows, domain.CashFlow{Date: row.Date, Amount: contribution.Neg()})
				totalInvested = totalInvested.Add(contribution)
			}
		}

		state = state.Revalued(prices)
		history = append(history, state)
	}

	finalState := history[len(history)-1]
	cashFlows = append(cashFlows, domain.CashFlow{Date: finalState.Date, Amount: finalState.TotalValue})

	metrics, metricErrors := se.calculateMetrics(strat.Name, history, cashFlows, assets.CashYieldAnnual, totalInvested)

	return &domain.SimulationResult{
		RunID:         id.New(),
		StrategyName:  strat.Name,
		History:       history,
		CashFlows:     cashFlows,
		TotalInvested: totalInvested,
		Metrics:       metrics,
		MetricErrors:  metricErrors,
	}, nil
}

// RunAll simulates every built-in strategy against the same read-only price
// series. The runs share no mutable state, so they execute concurrently.
func (se *SimulationEngine) RunAll(ctx context.Context, rows []domain.PriceRow, config *domain.Configuration) ([]domain.SimulationResult, error) {
	strategies := AllStrategies()
	results := make([]*domain.SimulationResult, len(strategies))
	errs := make([]error, len(strategies))

	var wg sync.WaitGroup
	for i, strat := range strategies {
		wg.Add(1)
		go func(i int, strat Strategy) {
			defer wg.Done()
			results[i], errs[i] = se.Run(ctx, rows, strat, config)
		}(i, strat)
	}
	wg.Wait()

	out := make([]domain.SimulationResult, 0, len(strategies))
	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", strategies[i].Name, err)
		}
		out = append(out, *results[i])
	}
	return out, nil
}

// initializeState allocates the initial capital by target weights at the
// first month's prices.
func initializeState(first domain.PriceRow, capital decimal.Decimal, assets *domain.AssetConfig, prices domain.PriceMap) (domain.PortfolioState, error) {
	if capital.LessThanOrEqual(decimal.Zero) {
		return domain.PortfolioState{}, fmt.Errorf("initial capital must be positive, got %s", capital.String())
	}

	holdings := make(map[string]decimal.Decimal, 2)
	for _, ticker := range assets.RiskyTickers() {
		price := prices[ticker]
		weight := assets.TargetWeight(ticker)
		if weight.IsZero() {
			holdings[ticker] = decimal.Zero
			continue
		}
		if !price.IsPositive() {
			return domain.PortfolioState{}, fmt.Errorf("no usable price for %s at %s", ticker, first.Date.Format("2006-01"))
		}
		holdings[ticker] = capital.Mul(weight).Div(price)
	}

	cash := capital.Mul(assets.CashWeight)
	return domain.PortfolioState{
		Date:       first.Date,
		Holdings:   holdings,
		Cash:       cash,
		TotalValue: domain.TotalValueAt(holdings, cash, prices),
	}, nil
}

// resolveFirstPrices requires a positive price for both risky assets at
// month 0; there is nothing to fill from yet.
func resolveFirstPrices(first domain.PriceRow, assets *domain.AssetConfig) (domain.PriceMap, error) {
	prices := make(domain.PriceMap, 2)
	for _, ticker := range assets.RiskyTickers() {
		price, ok := first.Prices[ticker]
		if !ok || !price.IsPositive() {
			return nil, fmt.Errorf("price series for %s has no usable value at first month %s", ticker, first.Date.Format("2006-01"))
		}
		prices[ticker] = price
	}
	return prices, nil
}

// resolvePrices returns the effective prices for a month, updating lastKnown
// in place. Missing or non-positive entries fall back to the most recent
// known price; the second return reports whether any fallback happened.
func (se *SimulationEngine) resolvePrices(row domain.PriceRow, assets *domain.AssetConfig, lastKnown domain.PriceMap) (domain.PriceMap, bool) {
	prices := make(domain.PriceMap, 2)
	missing := false
	for _, ticker := range assets.RiskyTickers() {
		price, ok := row.Prices[ticker]
		if ok && price.IsPositive() {
			prices[ticker] = price
			lastKnown[ticker] = price
			continue
		}
		missing = true
		prices[ticker] = lastKnown[ticker]
	}
	return prices, missing
}

// monthlyRateFromAnnual converts an annual yield fraction to the equivalent
// compounding monthly rate, (1+y)^(1/12) - 1.
func monthlyRateFromAnnual(annualYield decimal.Decimal) decimal.Decimal {
	yield, _ := annualYield.Float64()
	return decimal.NewFromFloat(math.Pow(1+yield, 1.0/12) - 1)
}

// calculateMetrics builds the metrics report for a finished history and
// cash-flow ledger. Numeric failures are recorded per metric so the rest of
// the report stays usable.
func (se *SimulationEngine) calculateMetrics(strategyName string, history []domain.PortfolioState, cashFlows []domain.CashFlow, riskFreeRate, totalInvested decimal.Decimal) (map[string]decimal.Decimal, map[string]string) {
	metrics := make(map[string]decimal.Decimal)
	metricErrors := make(map[string]string)
	fail := func(key string, err error) {
		se.Logger.Warnf("%s: %s not computed: %v", strategyName, key, err)
		metricErrors[key] = err.Error()
	}

	values := make([]decimal.Decimal, len(history))
	for i, state := range history {
		values[i] = state.TotalValue
	}

	metrics[domain.MetricFinalBalance] = values[len(values)-1]
	metrics[domain.MetricTotalInvested] = totalInvested
	metrics[domain.MetricMaxDrawdown] = CalculateMaxDrawdown(values)

	monthlyReturns := CalculateMonthlyReturns(values)
	volatility := CalculateVolatility(monthlyReturns)
	metrics[domain.MetricVolatility] = volatility

	years := dateutil.YearsBetween(history[0].Date, history[len(history)-1].Date)
	cagr, cagrErr := CalculateCAGR(values[0], values[len(values)-1], years)
	if cagrErr != nil {
		fail(domain.MetricCAGR, cagrErr)
		fail(domain.MetricSharpeRatio, fmt.Errorf("cagr unavailable: %w", cagrErr))
	} else {
		metrics[domain.MetricCAGR] = cagr
		if sharpe, err := CalculateSharpeRatio(cagr, riskFreeRate, volatility); err != nil {
			fail(domain.MetricSharpeRatio, err)
		} else {
			metrics[domain.MetricSharpeRatio] = sharpe
		}
	}

	if irr, err := CalculateIRR(cashFlows, se.IRR); err != nil {
		fail(domain.MetricIRR, err)
	} else {
		metrics[domain.MetricIRR] = irr
	}

	return metrics, metricErrors
}
