package output

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"

	"github.com/pbt/portfolio-backtester/internal/domain"
)

// CSVSummarizer implements the simple summary CSV output (one row per strategy).
type CSVSummarizer struct{}

func (c CSVSummarizer) Name() string { return "csv" }
func (c CSVSummarizer) Ext() string  { return "csv" }

func (c CSVSummarizer) Format(results []domain.SimulationResult) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"Strategy", "RunID", "Months", "FinalBalance", "TotalInvested", "CAGR", "IRR", "MaxDrawdown", "Volatility", "SharpeRatio"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	sorted := append([]domain.SimulationResult(nil), results...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StrategyName < sorted[j].StrategyName })
	for i := range sorted {
		r := &sorted[i]
		row := []string{
			r.StrategyName,
			r.RunID,
			strconv.Itoa(r.Months()),
			r.FinalBalance().StringFixed(2),
			r.TotalInvested.StringFixed(2),
			metricOrZero(r, domain.MetricCAGR).StringFixed(6),
			metricOrZero(r, domain.MetricIRR).StringFixed(6),
			metricOrZero(r, domain.MetricMaxDrawdown).StringFixed(6),
			metricOrZero(r, domain.MetricVolatility).StringFixed(6),
			metricOrZero(r, domain.MetricSharpeRatio).StringFixed(4),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
