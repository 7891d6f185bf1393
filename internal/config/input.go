package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/pbt/portfolio-backtester/internal/domain"
)

// InputParser handles parsing of input configuration files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads configuration from a YAML file
func (ip *InputParser) LoadFromFile(filename string) (*domain.Configuration, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var config domain.Configuration
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if config.Simulation.FillPolicy == "" {
		config.Simulation.FillPolicy = domain.FillPolicyForward
	}

	if err := ip.ValidateConfiguration(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// ValidateConfiguration validates the loaded configuration. Everything here
// is checked before any simulation starts; a failure is fatal to the run.
func (ip *InputParser) ValidateConfiguration(config *domain.Configuration) error {
	if err := ip.validateAssets(&config.Assets); err != nil {
		return fmt.Errorf("assets validation failed: %w", err)
	}
	if err := ip.validateSimulation(&config.Simulation); err != nil {
		return fmt.Errorf("simulation validation failed: %w", err)
	}
	return nil
}

// validateAssets validates tickers and the target allocation
func (ip *InputParser) validateAssets(assets *domain.AssetConfig) error {
	if assets.GrowthTicker == "" {
		return fmt.Errorf("growth ticker is required")
	}
	if assets.LeveragedTicker == "" {
		return fmt.Errorf("leveraged ticker is required")
	}
	if assets.GrowthTicker == assets.LeveragedTicker {
		return fmt.Errorf("growth and leveraged tickers must differ, both are %q", assets.GrowthTicker)
	}

	return assets.ValidateWeights()
}

// validateSimulation validates run parameters
func (ip *InputParser) validateSimulation(sim *domain.SimulationInput) error {
	if sim.InitialCapital.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("initial capital must be positive")
	}
	if sim.MonthlyContribution.IsNegative() {
		return fmt.Errorf("monthly contribution cannot be negative")
	}
	if sim.PriceHistoryPath == "" {
		return fmt.Errorf("price history path is required")
	}

	switch sim.FillPolicy {
	case domain.FillPolicyForward, domain.FillPolicySkipTrading:
	default:
		return fmt.Errorf("fill policy must be %q or %q, got %q",
			domain.FillPolicyForward, domain.FillPolicySkipTrading, sim.FillPolicy)
	}
	return nil
}

// CreateExampleConfiguration creates an example configuration
func (ip *InputParser) CreateExampleConfiguration() *domain.Configuration {
	return &domain.Configuration{
		Assets: domain.AssetConfig{
			GrowthTicker:    "QQQ",
			LeveragedTicker: "QLD",
			GrowthWeight:    decimal.NewFromFloat(0.4),
			LeveragedWeight: decimal.NewFromFloat(0.4),
			CashWeight:      decimal.NewFromFloat(0.2),
			CashYieldAnnual: decimal.NewFromFloat(0.04),
		},
		Simulation: domain.SimulationInput{
			InitialCapital:      decimal.NewFromInt(100000),
			MonthlyContribution: decimal.NewFromInt(1000),
			PriceHistoryPath:    "data/price_history.json",
			FillPolicy:          domain.FillPolicyForward,
		},
	}
}
