package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fractracker/complaints/internal/app"
	"github.com/fractracker/complaints/internal/config"
	"github.com/fractracker/complaints/internal/fractracker"
	"github.com/fractracker/complaints/internal/service"
)

func newRunCmd() *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch reports for a date range and submit them",
		Long: `Runs one submission batch. Dates use MM-DD-YYYY; when either is
omitted the batch covers yesterday through today.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := fractracker.ParseRange(start, end, time.Now())
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := app.NewLogger(cfg, "fractracker-submit")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.Batch.Execute(ctx, r)
			if err != nil {
				return err
			}
			return printOutcome(cmd, out)
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first report date (MM-DD-YYYY)")
	cmd.Flags().StringVar(&end, "end", "", "last report date (MM-DD-YYYY)")
	return cmd
}

func printOutcome(cmd *cobra.Command, out service.Outcome) error {
	if out.Status == service.OutcomeNoReports {
		fmt.Fprintln(cmd.OutOrStdout(), "No reports found in timespan.")
		return nil
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
