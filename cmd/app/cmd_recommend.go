package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ETFAdvisor/internal/di"
	"ETFAdvisor/internal/usecase"
	xhttp "ETFAdvisor/pkg/http"
)

var (
	recCash    float64
	recTop     int
	recRisk    string
	recSymbols string
	recTimeout time.Duration
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Print one recommendation as JSON",
	Long: `Scores the universe with live Yahoo data and prints the allocation.

Examples:
  etf-advisor recommend --cash 250000 --top 4 --risk low
  etf-advisor recommend --cash 50000 --symbols 0050,0056,00878`,
	RunE: runRecommend,
}

func init() {
	recommendCmd.Flags().Float64Var(&recCash, "cash", float64(usecase.QuickCash), "cash to allocate (TWD)")
	recommendCmd.Flags().IntVar(&recTop, "top", usecase.QuickTop, "maximum number of positions, 0 for no limit")
	recommendCmd.Flags().StringVar(&recRisk, "risk", "medium", "risk tolerance: low, medium, high")
	recommendCmd.Flags().StringVar(&recSymbols, "symbols", "", "comma separated symbols to restrict the universe")
	recommendCmd.Flags().DurationVar(&recTimeout, "timeout", time.Minute, "overall timeout")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rec, cleanup, err := di.InitializeRecommender(cfg)
	if err != nil {
		return fmt.Errorf("recommender initialization failed: %w", err)
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), recTimeout)
	defer cancel()
	res, err := rec.Recommend(ctx, usecase.RecommendParams{
		Cash:          recCash,
		Top:           recTop,
		RiskTolerance: recRisk,
		Symbols:       xhttp.ParseSymbols(recSymbols),
	})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
