package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// weightTolerance is the slack allowed when checking that the three target
// weights sum to 1.0.
var weightTolerance = decimal.NewFromFloat(1e-6)

// FillPolicy selects how the engine treats a month with a missing price for
// one of the risky assets. It is a configuration-time decision applied
// consistently for the whole run, never a per-row choice.
type FillPolicy string

const (
	// FillPolicyForward reuses the most recent known price for the missing asset.
	FillPolicyForward FillPolicy = "forward_fill"
	// FillPolicySkipTrading skips the strategy transition for that month while
	// still accruing cash interest.
	FillPolicySkipTrading FillPolicy = "skip_trading"
)

// AssetConfig describes the target allocation and the cash instrument.
// Weights are fractions of total portfolio value and must sum to 1.0 with the
// cash weight; they are validated up front and never renormalized mid-run.
type AssetConfig struct {
	GrowthTicker    string          `yaml:"growth_ticker" json:"growth_ticker"`
	LeveragedTicker string          `yaml:"leveraged_ticker" json:"leveraged_ticker"`
	GrowthWeight    decimal.Decimal `yaml:"growth_weight" json:"growth_weight"`
	LeveragedWeight decimal.Decimal `yaml:"leveraged_weight" json:"leveraged_weight"`
	CashWeight      decimal.Decimal `yaml:"cash_weight" json:"cash_weight"`
	CashYieldAnnual decimal.Decimal `yaml:"cash_yield_annual" json:"cash_yield_annual"`
}

// RiskyTickers returns the two risky asset identifiers in a fixed order.
func (ac *AssetConfig) RiskyTickers() []string {
	return []string{ac.GrowthTicker, ac.LeveragedTicker}
}

// TargetWeight returns the configured weight for a risky ticker, zero for
// anything else.
func (ac *AssetConfig) TargetWeight(ticker string) decimal.Decimal {
	switch ticker {
	case ac.GrowthTicker:
		return ac.GrowthWeight
	case ac.LeveragedTicker:
		return ac.LeveragedWeight
	}
	return decimal.Zero
}

// ValidateWeights rejects an allocation whose weights are negative or do not
// sum to 1.0, and a negative cash yield. The engine relies on this running
// before any simulation starts and never renormalizes mid-run.
func (ac *AssetConfig) ValidateWeights() error {
	for _, w := range []struct {
		name   string
		weight decimal.Decimal
	}{
		{"growth_weight", ac.GrowthWeight},
		{"leveraged_weight", ac.LeveragedWeight},
		{"cash_weight", ac.CashWeight},
	} {
		if w.weight.IsNegative() {
			return fmt.Errorf("%s cannot be negative, got %s", w.name, w.weight.String())
		}
	}

	sum := ac.GrowthWeight.Add(ac.LeveragedWeight).Add(ac.CashWeight)
	if sum.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(weightTolerance) {
		return fmt.Errorf("asset weights must sum to 1.0, got %s", sum.String())
	}

	if ac.CashYieldAnnual.IsNegative() {
		return fmt.Errorf("cash yield cannot be negative, got %s", ac.CashYieldAnnual.String())
	}
	return nil
}

// SimulationInput carries the run parameters that are not part of the
// allocation itself.
type SimulationInput struct {
	InitialCapital      decimal.Decimal `yaml:"initial_capital" json:"initial_capital"`
	MonthlyContribution decimal.Decimal `yaml:"monthly_contribution" json:"monthly_contribution"`
	PriceHistoryPath    string          `yaml:"price_history_path" json:"price_history_path"`
	FillPolicy          FillPolicy      `yaml:"fill_policy" json:"fill_policy"`
}

// Configuration is the complete, immutable input for a backtest run.
type Configuration struct {
	Assets     AssetConfig     `yaml:"assets" json:"assets"`
	Simulation SimulationInput `yaml:"simulation" json:"simulation"`
}
