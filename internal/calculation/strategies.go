package calculation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/pbt/portfolio-backtester/internal/domain"
)

// TransitionFunc maps (prior state, current prices, allocation, contribution
// amount, first-month flag) to a new state. Transitions are pure: they never
// mutate the prior snapshot, any sale is capped at held units, and any
// purchase is capped by available cash.
type TransitionFunc func(state domain.PortfolioState, prices domain.PriceMap, assets *domain.AssetConfig, contribution decimal.Decimal, firstMonth bool) domain.PortfolioState

// Strategy pairs a transition with its display name. DrawsContribution tells
// the engine whether the monthly contribution enters the cash-flow ledger for
// this strategy.
type Strategy struct {
	Name              string
	Transition        TransitionFunc
	DrawsContribution bool
}

// Canonical strategy names. The set is closed; selection happens once by
// name at the composition boundary.
const (
	StrategyLumpSum            = "Lump Sum"
	StrategyDCAMonthly         = "DCA Monthly"
	StrategyDCAYearlyRebalance = "DCA + Yearly Rebalance"
	StrategyDCASmartAdjust     = "DCA + Smart Adjust"
)

// AllStrategies returns the four built-in strategies in comparison order.
func AllStrategies() []Strategy {
	return []Strategy{
		{Name: StrategyLumpSum, Transition: transitionLumpSum, DrawsContribution: false},
		{Name: StrategyDCAMonthly, Transition: transitionDCAMonthly, DrawsContribution: true},
		{Name: StrategyDCAYearlyRebalance, Transition: transitionDCAYearlyRebalance, DrawsContribution: true},
		{Name: StrategyDCASmartAdjust, Transition: transitionSmartAdjust, DrawsContribution: true},
	}
}

// StrategyByName resolves a strategy from the closed variant set.
func StrategyByName(name string) (Strategy, error) {
	for _, s := range AllStrategies() {
		if s.Name == name {
			return s, nil
		}
	}
	return Strategy{}, fmt.Errorf("unknown strategy %q", name)
}

// transitionLumpSum holds the month-0 allocation forever: no contributions,
// no trading. Interest has already been applied upstream by the engine.
func transitionLumpSum(state domain.PortfolioState, prices domain.PriceMap, _ *domain.AssetConfig, _ decimal.Decimal, _ bool) domain.PortfolioState {
	return state.Revalued(prices)
}

// transitionDCAMonthly allocates the fixed monthly contribution by target
// weights. It never sells; holdings drift with price movement between
// contributions.
func transitionDCAMonthly(state domain.PortfolioState, prices domain.PriceMap, assets *domain.AssetConfig, contribution decimal.Decimal, firstMonth bool) domain.PortfolioState {
	if firstMonth || contribution.LessThanOrEqual(decimal.Zero) {
		return state.Revalued(prices)
	}

	holdings, cash := buyByWeights(state, prices, assets, contribution)
	state.Holdings = holdings
	return state.WithCash(cash).Revalued(prices)
}

// transitionDCAYearlyRebalance buys like DCA Monthly every month and, each
// January after inception, trades every holding back to its target value.
func transitionDCAYearlyRebalance(state domain.PortfolioState, prices domain.PriceMap, assets *domain.AssetConfig, contribution decimal.Decimal, firstMonth bool) domain.PortfolioState {
	state = transitionDCAMonthly(state, prices, assets, contribution, firstMonth)

	if firstMonth || state.Date.Month() != 1 {
		return state
	}
	return rebalanceToTargets(state, prices, assets)
}

// rebalanceToTargets sets each holding to exactly its target dollar value at
// current prices and the cash balance to its target weight of total value.
// A holding without a usable price is left untouched.
func rebalanceToTargets(state domain.PortfolioState, prices domain.PriceMap, assets *domain.AssetConfig) domain.PortfolioState {
	total := domain.TotalValueAt(state.Holdings, state.Cash, prices)

	holdings := state.HoldingsCopy()
	for _, ticker := range assets.RiskyTickers() {
		price := prices[ticker]
		if !price.IsPositive() {
			continue
		}
		holdings[ticker] = total.Mul(assets.TargetWeight(ticker)).Div(price)
	}

	state.Holdings = holdings
	return state.WithCash(total.Mul(assets.CashWeight)).Revalued(prices)
}

// buyByWeights splits a fresh cash amount across the two risky assets and
// cash per the target weights, returning the new holdings map and cash
// balance. New money only; nothing is ever sold here.
func buyByWeights(state domain.PortfolioState, prices domain.PriceMap, assets *domain.AssetConfig, amount decimal.Decimal) (map[string]decimal.Decimal, decimal.Decimal) {
	holdings := state.HoldingsCopy()
	for _, ticker := range assets.RiskyTickers() {
		price := prices[ticker]
		if !price.IsPositive() {
			continue
		}
		slice := amount.Mul(assets.TargetWeight(ticker))
		holdings[ticker] = holdings[ticker].Add(slice.Div(price))
	}
	return holdings, state.Cash.Add(amount.Mul(assets.CashWeight))
}
