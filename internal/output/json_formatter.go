package output

import (
	"encoding/json"

	"github.com/pbt/portfolio-backtester/internal/domain"
)

// JSONFormatter serializes the full results (histories included) as
// pretty-printed JSON for downstream presentation layers.
type JSONFormatter struct{}

func (j JSONFormatter) Name() string { return "json" }
func (j JSONFormatter) Ext() string  { return "json" }

func (j JSONFormatter) Format(results []domain.SimulationResult) ([]byte, error) {
	return json.MarshalIndent(results, "", "  ")
}
