package output

import (
	"fmt"

	charts "github.com/vicanso/go-charts/v2"

	"github.com/pbt/portfolio-backtester/internal/domain"
)

// ChartFormatter renders the portfolio growth curves of all strategies into
// a single PNG line chart.
type ChartFormatter struct{}

func (cf ChartFormatter) Name() string { return "chart" }
func (cf ChartFormatter) Ext() string  { return "png" }

func (cf ChartFormatter) Format(results []domain.SimulationResult) ([]byte, error) {
	if len(results) == 0 || results[0].Months() == 0 {
		return nil, fmt.Errorf("no history to chart")
	}

	names := make([]string, len(results))
	values := make([][]float64, len(results))
	for i := range results {
		r := &results[i]
		names[i] = r.StrategyName
		series := make([]float64, len(r.History))
		for j, state := range r.History {
			v, _ := state.TotalValue.Float64()
			series[j] = v
		}
		values[i] = series
	}

	xLabels := make([]string, len(results[0].History))
	for i, state := range results[0].History {
		xLabels[i] = state.Date.Format("Jan '06")
	}

	splitNum := 6
	if len(xLabels) <= 30 {
		splitNum = len(xLabels) / 3
		if splitNum < 3 {
			splitNum = 3
		}
	}

	p, err := charts.LineRender(
		values,
		charts.TitleTextOptionFunc("Portfolio Growth"),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        xLabels,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names}),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(600),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	return buf, nil
}
