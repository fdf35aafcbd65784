package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/immo-dpe/dpe-search/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "dpe-search",
	Short: "Geo-filtered search over the ADEME DPE open data",
	Long:  "Geocodes French places, pulls matching DPE/GES diagnostics from the ADEME listing, filters them by radius and rating, and optionally attaches DVF property sales.",
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
