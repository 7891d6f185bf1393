package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pbt/portfolio-backtester/internal/config"
)

var exampleConfigCmd = &cobra.Command{
	Use:   "example-config",
	Short: "Print an example YAML configuration to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		example := config.NewInputParser().CreateExampleConfiguration()
		data, err := yaml.Marshal(example)
		if err != nil {
			return fmt.Errorf("marshal example config: %w", err)
		}
		fmt.Print(string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exampleConfigCmd)
}
