package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "backtester",
	Short: "Compare capital-allocation strategies against historical monthly prices",
	Long: `Backtester simulates four capital-allocation strategies over historical
monthly price series for two risky assets plus an interest-bearing cash
instrument, and reports comparative performance statistics.

Strategies:
  - Lump Sum:               one-time investment at month 0, hold forever
  - DCA Monthly:            fixed monthly contribution by target weights
  - DCA + Yearly Rebalance: monthly DCA plus January rebalancing to targets
  - DCA + Smart Adjust:     monthly DCA plus year-end profit-taking / dip-buying

Metrics: final balance, total invested, CAGR, IRR, max drawdown,
annualized volatility and Sharpe ratio.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
