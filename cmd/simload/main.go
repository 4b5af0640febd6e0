// Command simload seeds a synthetic contractor pool against a running
// dispatch server, floods it with recommendation requests, and verifies
// ordering determinism and rationale invariants.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldwise/dispatch/internal/simload"
	"github.com/fieldwise/dispatch/pkg/logger"
)

func main() {
	cfg := simload.DefaultConfig()

	root := &cobra.Command{
		Use:           "simload",
		Short:         "Load-simulate a dispatch server and verify its responses",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(); err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			stats, err := simload.Run(ctx, cfg)
			if err != nil {
				return err
			}
			fmt.Printf("seeded %d contractors, %d jobs; %d requests (%d failed, %d empty) in %s\n",
				stats.ContractorsSeeded, stats.JobsCreated,
				stats.RequestsIssued, stats.RequestsFailed, stats.EmptyResults,
				stats.Duration.Round(time.Millisecond))
			return nil
		},
	}

	flags := root.Flags()
	flags.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "base URL of the dispatch server")
	flags.IntVar(&cfg.Contractors, "contractors", cfg.Contractors, "number of contractors to seed")
	flags.IntVar(&cfg.Jobs, "jobs", cfg.Jobs, "number of jobs to create")
	flags.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent request workers")
	flags.IntVar(&cfg.MaxResults, "max-results", cfg.MaxResults, "max results per request")
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-request timeout")
	flags.Int64Var(&cfg.Seed, "seed", cfg.Seed, "RNG seed; fixed seeds reproduce a run")
	flags.BoolVar(&cfg.Verify, "verify", cfg.Verify, "re-issue sampled requests to check determinism")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "simload:", err)
		os.Exit(1)
	}
}
