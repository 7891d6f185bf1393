package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceMap holds one month's closing price per asset ticker.
type PriceMap map[string]decimal.Decimal

// PriceRow is a single date-aligned row of the market price series.
type PriceRow struct {
	Date   time.Time `json:"date"`
	Prices PriceMap  `json:"prices"`
}

// CashFlow is a dated, signed amount in the external cash-flow ledger.
// Outflows (invested capital) are negative, inflows positive.
type CashFlow struct {
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// PortfolioState is an immutable snapshot of the portfolio for one simulated
// month. States are never mutated after creation; every transition builds a
// new value, so the engine's history slice is a reliable audit trail.
//
// Memory is strategy-private bookkeeping carried across months. It is owned
// exclusively by the strategy that wrote it; the engine passes it through
// unexamined.
type PortfolioState struct {
	Date       time.Time                  `json:"date"`
	Holdings   map[string]decimal.Decimal `json:"holdings"`
	Cash       decimal.Decimal            `json:"cash"`
	TotalValue decimal.Decimal            `json:"total_value"`
	Memory     any                        `json:"-"`
}

// TotalValueAt computes holdings priced at the given closing prices plus cash.
// Total value is always derived this way, never carried forward stale.
func TotalValueAt(holdings map[string]decimal.Decimal, cash decimal.Decimal, prices PriceMap) decimal.Decimal {
	total := cash
	for ticker, units := range holdings {
		total = total.Add(units.Mul(prices[ticker]))
	}
	return total
}

// HoldingsCopy returns a fresh copy of the holdings map so a transition can
// build a new state without aliasing the prior snapshot.
func (ps PortfolioState) HoldingsCopy() map[string]decimal.Decimal {
	holdings := make(map[string]decimal.Decimal, len(ps.Holdings))
	for ticker, units := range ps.Holdings {
		holdings[ticker] = units
	}
	return holdings
}

// WithDate returns a copy of the state stamped with a new date.
func (ps PortfolioState) WithDate(date time.Time) PortfolioState {
	ps.Date = date
	return ps
}

// WithCash returns a copy of the state with a replaced cash balance.
func (ps PortfolioState) WithCash(cash decimal.Decimal) PortfolioState {
	ps.Cash = cash
	return ps
}

// WithMemory returns a copy of the state carrying new strategy memory.
func (ps PortfolioState) WithMemory(memory any) PortfolioState {
	ps.Memory = memory
	return ps
}

// Revalued returns a copy of the state with TotalValue recomputed from the
// current holdings and cash at the given prices.
func (ps PortfolioState) Revalued(prices PriceMap) PortfolioState {
	ps.TotalValue = TotalValueAt(ps.Holdings, ps.Cash, prices)
	return ps
}

// Metric keys present in SimulationResult.Metrics.
const (
	MetricFinalBalance  = "final_balance"
	MetricTotalInvested = "total_invested"
	MetricCAGR          = "cagr"
	MetricIRR           = "irr"
	MetricMaxDrawdown   = "max_drawdown"
	MetricVolatility    = "volatility"
	MetricSharpeRatio   = "sharpe_ratio"
)

// SimulationResult is the complete, immutable outcome of one strategy run.
//
// Metrics holds every statistic that computed cleanly. A numeric failure
// (e.g. the IRR solver not converging) lands in MetricErrors under the same
// key instead, so one strategy's bad arithmetic never hides the others'
// results.
type SimulationResult struct {
	RunID         string                     `json:"run_id"`
	StrategyName  string                     `json:"strategy_name"`
	History       []PortfolioState           `json:"history"`
	CashFlows     []CashFlow                 `json:"cash_flows"`
	TotalInvested decimal.Decimal            `json:"total_invested"`
	Metrics       map[string]decimal.Decimal `json:"metrics"`
	MetricErrors  map[string]string          `json:"metric_errors,omitempty"`
}

// FinalBalance returns the last recorded total value, or zero for an empty run.
func (sr *SimulationResult) FinalBalance() decimal.Decimal {
	if len(sr.History) == 0 {
		return decimal.Zero
	}
	return sr.History[len(sr.History)-1].TotalValue
}

// Months returns the number of simulated months.
func (sr *SimulationResult) Months() int { return len(sr.History) }
