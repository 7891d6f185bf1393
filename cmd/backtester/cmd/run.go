package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pbt/portfolio-backtester/internal/calculation"
	"github.com/pbt/portfolio-backtester/internal/config"
	"github.com/pbt/portfolio-backtester/internal/marketdata"
	"github.com/pbt/portfolio-backtester/internal/output"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run all four strategies and report comparative metrics",
	Long: `Run loads the configuration and price history, simulates every strategy
against the same series, and emits the results in one or more formats.

Example:
  backtester run --config backtest.yaml --format console,csv`,
	RunE: runBacktest,
}

var (
	runConfigPath string
	runFormats    string
	runDebug      bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to YAML configuration (required)")
	runCmd.Flags().StringVarP(&runFormats, "format", "f", "console", "comma-separated output formats ("+strings.Join(output.AvailableFormatterNames(), ", ")+")")
	runCmd.Flags().BoolVar(&runDebug, "debug", false, "enable debug logging")

	runCmd.MarkFlagRequired("config")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	parser := config.NewInputParser()
	cfg, err := parser.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	rows, err := marketdata.LoadJSON(cfg.Simulation.PriceHistoryPath, cfg.Assets.GrowthTicker, cfg.Assets.LeveragedTicker)
	if err != nil {
		return fmt.Errorf("load prices: %w", err)
	}

	logger := calculation.WriterLogger{W: os.Stderr, Debug: runDebug}
	logger.Infof("loaded %d months of data (%s to %s)",
		len(rows), rows[0].Date.Format("2006-01"), rows[len(rows)-1].Date.Format("2006-01"))

	engine := calculation.NewSimulationEngine()
	engine.FillPolicy = cfg.Simulation.FillPolicy
	engine.SetLogger(logger)

	results, err := engine.RunAll(context.Background(), rows, cfg)
	if err != nil {
		return fmt.Errorf("simulation: %w", err)
	}

	for _, name := range strings.Split(runFormats, ",") {
		formatter := output.GetFormatterByName(name)
		if formatter == nil {
			return fmt.Errorf("unknown format %q (available: %s)", name, strings.Join(output.AvailableFormatterNames(), ", "))
		}

		if formatter.Name() == "console" {
			data, err := formatter.Format(results)
			if err != nil {
				return fmt.Errorf("format %s: %w", formatter.Name(), err)
			}
			fmt.Print(string(data))
			continue
		}

		filename, err := output.WriteFormatted(formatter, results)
		if err != nil {
			return fmt.Errorf("format %s: %w", formatter.Name(), err)
		}
		logger.Infof("wrote %s", filename)
	}

	return nil
}
