package calculation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pbt/portfolio-backtester/internal/domain"
)

// smartAdjustMemory is the strategy-private bookkeeping for the Smart Adjust
// policy. A typed struct instead of a key-value bag so no other strategy can
// collide with these fields. The engine carries it through the state
// unexamined.
type smartAdjustMemory struct {
	Year           int
	YearStartValue decimal.Decimal // leveraged-asset value at the year's first month, pre-DCA
	YearInflow     decimal.Decimal // contributions routed into the leveraged asset this year
}

var (
	profitTakeDivisor = decimal.NewFromInt(3)
	dipBuyFraction    = decimal.NewFromFloat(0.02)
)

// transitionSmartAdjust buys like DCA Monthly every month and applies an
// asymmetric year-boundary adjustment to the leveraged asset:
//
//   - January records the leveraged value at that instant and resets the
//     inflow accumulator, independent of any adjustment just performed.
//   - December computes annualGain = currentLeveragedValue - (yearStartValue
//     + yearInflow). A positive gain sells one third of it into cash; a flat
//     or negative year buys the leveraged asset with 2% of total portfolio
//     value, spending at most the available cash.
//
// The monthly contribution is applied before the December decision, so the
// December inflow counts toward yearInflow in the gain computation.
func transitionSmartAdjust(state domain.PortfolioState, prices domain.PriceMap, assets *domain.AssetConfig, contribution decimal.Decimal, firstMonth bool) domain.PortfolioState {
	leveraged := assets.LeveragedTicker
	levPrice := prices[leveraged]

	memory := smartAdjustMemoryOf(state)
	if memory.Year != state.Date.Year() {
		memory = smartAdjustMemory{
			Year:           state.Date.Year(),
			YearStartValue: state.Holdings[leveraged].Mul(levPrice),
			YearInflow:     decimal.Zero,
		}
	}

	holdings := state.HoldingsCopy()
	cash := state.Cash
	if !firstMonth && contribution.GreaterThan(decimal.Zero) {
		holdings, cash = buyByWeights(state, prices, assets, contribution)
		if levPrice.IsPositive() {
			memory.YearInflow = memory.YearInflow.Add(contribution.Mul(assets.LeveragedWeight))
		}
	}

	if !firstMonth && state.Date.Month() == time.December && levPrice.IsPositive() {
		currentLevValue := holdings[leveraged].Mul(levPrice)
		annualGain := currentLevValue.Sub(memory.YearStartValue.Add(memory.YearInflow))

		if annualGain.IsPositive() {
			// Profit: sell one third of the gain into cash, capped at held units.
			unitsToSell := annualGain.Div(profitTakeDivisor).Div(levPrice)
			if unitsToSell.GreaterThan(holdings[leveraged]) {
				unitsToSell = holdings[leveraged]
			}
			holdings[leveraged] = holdings[leveraged].Sub(unitsToSell)
			cash = cash.Add(unitsToSell.Mul(levPrice))
		} else {
			// Flat or down year: deploy 2% of the portfolio from cash, never
			// more than the cash on hand.
			total := domain.TotalValueAt(holdings, cash, prices)
			buyAmount := total.Mul(dipBuyFraction)
			if buyAmount.GreaterThan(cash) {
				buyAmount = cash
			}
			if buyAmount.IsPositive() {
				holdings[leveraged] = holdings[leveraged].Add(buyAmount.Div(levPrice))
				cash = cash.Sub(buyAmount)
			}
		}
	}

	state.Holdings = holdings
	return state.WithCash(cash).WithMemory(memory).Revalued(prices)
}

// smartAdjustMemoryOf extracts the typed memory from a state, returning the
// zero value when the strategy has not written one yet.
func smartAdjustMemoryOf(state domain.PortfolioState) smartAdjustMemory {
	if memory, ok := state.Memory.(smartAdjustMemory); ok {
		return memory
	}
	return smartAdjustMemory{}
}
