package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/pbt/portfolio-backtester/internal/domain"
)

// ConsoleFormatter renders a plain-text comparison table, one row per
// strategy. Metrics that failed numerically show "n/a"; the reasons are
// listed under the table.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }
func (c ConsoleFormatter) Ext() string  { return "txt" }

func (c ConsoleFormatter) Format(results []domain.SimulationResult) ([]byte, error) {
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "STRATEGY COMPARISON (%d months)\n", months(results))
	fmt.Fprintln(buf)

	w := tabwriter.NewWriter(buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Strategy\tFinal Balance\tInvested\tCAGR\tIRR\tMax DD\tVolatility\tSharpe")
	for i := range results {
		r := &results[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.StrategyName,
			FormatCurrency(r.FinalBalance()),
			FormatCurrency(r.TotalInvested),
			percentCell(r, domain.MetricCAGR),
			percentCell(r, domain.MetricIRR),
			percentCell(r, domain.MetricMaxDrawdown),
			percentCell(r, domain.MetricVolatility),
			ratioCell(r, domain.MetricSharpeRatio),
		)
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}

	for i := range results {
		r := &results[i]
		for key, reason := range r.MetricErrors {
			fmt.Fprintf(buf, "\nnote: %s / %s: %s", r.StrategyName, key, reason)
		}
	}
	fmt.Fprintln(buf)
	return buf.Bytes(), nil
}

func percentCell(r *domain.SimulationResult, key string) string {
	if v, ok := r.Metrics[key]; ok {
		return FormatPercentage(v)
	}
	return "n/a"
}

func ratioCell(r *domain.SimulationResult, key string) string {
	if v, ok := r.Metrics[key]; ok {
		return FormatRatio(v)
	}
	return "n/a"
}

func months(results []domain.SimulationResult) int {
	if len(results) == 0 {
		return 0
	}
	return results[0].Months()
}

// metricOrZero is shared by the CSV and chart formatters, which need a value
// for every column even when a metric failed.
func metricOrZero(r *domain.SimulationResult, key string) decimal.Decimal {
	if v, ok := r.Metrics[key]; ok {
		return v
	}
	return decimal.Zero
}
