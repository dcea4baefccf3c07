package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ETFAdvisor/pkg/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "etf-advisor",
	Short: "Taiwan ETF scoring and allocation service",
	Long: `etf-advisor scores tracked Taiwan ETFs, classifies the market regime
and proposes a capped allocation for a cash amount.

  etf-advisor serve                            # HTTP API, scheduler, consumer
  etf-advisor recommend --cash 100000 --top 5  # one-shot recommendation
  etf-advisor ingest                           # one bar ingest run`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")
	rootCmd.AddCommand(serveCmd, recommendCmd, ingestCmd)
}

func loadConfig() (*config.Config, error) {
	// a missing .env file is fine
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("dotenv: %v", err)
	}
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
