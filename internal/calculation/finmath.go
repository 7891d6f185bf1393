package calculation

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/pbt/portfolio-backtester/internal/domain"
	"github.com/pbt/portfolio-backtester/pkg/dateutil"
)

// Sentinel errors for numeric failures. Callers record these per metric
// instead of aborting the whole run.
var (
	ErrCAGRUndefined     = errors.New("cagr undefined: start value and years must be positive")
	ErrZeroVolatility    = errors.New("sharpe ratio undefined: annualized volatility is zero")
	ErrIRRNoSignChange   = errors.New("irr: cash flows never change sign, no root exists")
	ErrIRRZeroDerivative = errors.New("irr: derivative near zero at iterate")
	ErrIRRNoConvergence  = errors.New("irr: exceeded iteration limit without converging")
)

// CalculateCAGR returns the compound annual growth rate as a fraction
// (0.10 means 10% per year). It fails when startValue or years is
// non-positive; a non-positive end value is reported as a total loss.
func CalculateCAGR(startValue, endValue decimal.Decimal, years float64) (decimal.Decimal, error) {
	if startValue.LessThanOrEqual(decimal.Zero) || years <= 0 {
		return decimal.Zero, ErrCAGRUndefined
	}
	if endValue.LessThanOrEqual(decimal.Zero) {
		return decimal.NewFromInt(-1), nil
	}

	ratio, _ := endValue.Div(startValue).Float64()
	return decimal.NewFromFloat(math.Pow(ratio, 1/years) - 1), nil
}

// CalculateMaxDrawdown returns the maximum relative decline from any running
// peak to a later trough, as a non-positive fraction. A non-decreasing series
// yields zero.
func CalculateMaxDrawdown(values []decimal.Decimal) decimal.Decimal {
	if len(values) < 2 {
		return decimal.Zero
	}

	maxDrawdown := decimal.Zero
	peak := values[0]
	for _, value := range values {
		if value.GreaterThan(peak) {
			peak = value
		}
		if peak.IsPositive() {
			drawdown := value.Sub(peak).Div(peak)
			if drawdown.LessThan(maxDrawdown) {
				maxDrawdown = drawdown
			}
		}
	}
	return maxDrawdown
}

// CalculateMonthlyReturns derives month-over-month fractional returns from a
// total-value series. Months following a non-positive value are skipped.
func CalculateMonthlyReturns(values []decimal.Decimal) []decimal.Decimal {
	if len(values) < 2 {
		return nil
	}

	returns := make([]decimal.Decimal, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1].IsPositive() {
			returns = append(returns, values[i].Div(values[i-1]).Sub(decimal.NewFromInt(1)))
		}
	}
	return returns
}

// CalculateVolatility annualizes the sample standard deviation of monthly
// returns by multiplying by sqrt(12). Fewer than two returns yield zero.
func CalculateVolatility(monthlyReturns []decimal.Decimal) decimal.Decimal {
	n := len(monthlyReturns)
	if n < 2 {
		return decimal.Zero
	}

	var sum decimal.Decimal
	for _, r := range monthlyReturns {
		sum = sum.Add(r)
	}
	mean := sum.Div(decimal.NewFromInt(int64(n)))

	var varianceSum decimal.Decimal
	for _, r := range monthlyReturns {
		diff := r.Sub(mean)
		varianceSum = varianceSum.Add(diff.Mul(diff))
	}
	variance, _ := varianceSum.Div(decimal.NewFromInt(int64(n - 1))).Float64()

	return decimal.NewFromFloat(math.Sqrt(variance) * math.Sqrt(12))
}

// CalculateSharpeRatio returns excess CAGR over the risk-free rate per unit
// of annualized volatility. Zero volatility is an explicit error, never a
// silent infinity.
func CalculateSharpeRatio(cagr, riskFreeRate, annualizedVol decimal.Decimal) (decimal.Decimal, error) {
	if annualizedVol.IsZero() {
		return decimal.Zero, ErrZeroVolatility
	}
	return cagr.Sub(riskFreeRate).Div(annualizedVol), nil
}

// IRRParams bounds the Newton-Raphson iteration. The iteration cap is the
// solver's own bounded-time guarantee, independent of the caller.
type IRRParams struct {
	MaxIterations int
	Tolerance     float64
}

// DefaultIRRParams returns the solver parameters used for metric reports.
func DefaultIRRParams() IRRParams {
	return IRRParams{MaxIterations: 100, Tolerance: 1e-7}
}

// CalculateIRR solves for the annual rate r making the net present value of
// the dated cash flows zero, via Newton-Raphson with an analytically computed
// derivative. The result is a fraction per year.
//
// It fails explicitly when the flows never change sign (no root), when the
// derivative collapses at an iterate, or when the iteration cap is reached
// before successive rate deltas fall under the tolerance.
func CalculateIRR(flows []domain.CashFlow, params IRRParams) (decimal.Decimal, error) {
	if len(flows) < 2 {
		return decimal.Zero, fmt.Errorf("irr: need at least 2 cash flows, got %d", len(flows))
	}
	if params.MaxIterations <= 0 || params.Tolerance <= 0 {
		return decimal.Zero, fmt.Errorf("irr: invalid solver parameters %+v", params)
	}

	sorted := append([]domain.CashFlow(nil), flows...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	base := sorted[0].Date

	type timedFlow struct {
		years  float64
		amount float64
	}
	timed := make([]timedFlow, len(sorted))
	hasPositive, hasNegative := false, false
	totalInvested, totalReturned := 0.0, 0.0
	for i, cf := range sorted {
		amount, _ := cf.Amount.Float64()
		timed[i] = timedFlow{years: dateutil.YearsBetween(base, cf.Date), amount: amount}
		if amount > 0 {
			hasPositive = true
			totalReturned += amount
		}
		if amount < 0 {
			hasNegative = true
			totalInvested += -amount
		}
	}
	if !hasPositive || !hasNegative {
		return decimal.Zero, ErrIRRNoSignChange
	}

	npv := func(rate float64) float64 {
		total := 0.0
		for _, tf := range timed {
			total += tf.amount / math.Pow(1+rate, tf.years)
		}
		return total
	}
	npvDerivative := func(rate float64) float64 {
		total := 0.0
		for _, tf := range timed {
			if tf.years != 0 {
				total -= tf.years * tf.amount / math.Pow(1+rate, tf.years+1)
			}
		}
		return total
	}

	// Seed from the annualized simple return over the flow span.
	rate := 0.1
	yearsSpan := timed[len(timed)-1].years
	if yearsSpan <= 0 {
		yearsSpan = 1
	}
	if totalInvested > 0 {
		simpleReturn := totalReturned/totalInvested - 1
		if simpleReturn > -1 {
			rate = math.Pow(1+simpleReturn, 1/yearsSpan) - 1
		}
	}

	for i := 0; i < params.MaxIterations; i++ {
		value := npv(rate)
		if math.Abs(value) < params.Tolerance {
			return decimal.NewFromFloat(rate), nil
		}

		derivative := npvDerivative(rate)
		if math.Abs(derivative) < 1e-10 {
			return decimal.Zero, ErrIRRZeroDerivative
		}

		newRate := rate - value/derivative
		// Keep the iterate in the domain of (1+r)^t.
		if newRate < -0.99 {
			newRate = -0.99
		} else if newRate > 10 {
			newRate = 10
		}

		if math.Abs(newRate-rate) < params.Tolerance {
			return decimal.NewFromFloat(newRate), nil
		}
		rate = newRate
	}

	return decimal.Zero, ErrIRRNoConvergence
}
