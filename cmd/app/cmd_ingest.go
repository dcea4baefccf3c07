package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ETFAdvisor/internal/di"
)

var ingestTimeout time.Duration

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one bar ingest into the configured backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ingest, cleanup, err := di.InitializeIngest(cfg)
		if err != nil {
			return fmt.Errorf("ingest initialization failed: %w", err)
		}
		defer cleanup()

		ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
		defer cancel()
		report, err := ingest.Run(ctx)
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(report)
	},
}

func init() {
	ingestCmd.Flags().DurationVar(&ingestTimeout, "timeout", 5*time.Minute, "overall timeout")
}
