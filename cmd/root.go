package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ipwboot/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ipwboot",
	Short: "Bootstrap inverse-probability-weighted treatment effect estimation",
	Long: "Estimates an average treatment effect from observational CSV data by " +
		"fitting a logistic propensity model, weighting by inverse treatment " +
		"probability, and fitting a weighted outcome regression, bootstrapped " +
		"over resamples to approximate the sampling distribution.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
