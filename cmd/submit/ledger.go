package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fractracker/complaints/internal/app"
	"github.com/fractracker/complaints/internal/config"
	"github.com/fractracker/complaints/internal/ledger"
	"github.com/fractracker/complaints/internal/models"
)

func newLedgerCmd() *cobra.Command {
	var f ledger.Filter
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Print submission ledger records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a, err := app.New(cmd.Context(), cfg, app.NewLogger(cfg, "fractracker-submit"))
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.Ledger.Load(cmd.Context())
			if err != nil {
				return err
			}
			return writeRecords(cmd.OutOrStdout(), snap.Find(f))
		},
	}
	cmd.Flags().StringVar(&f.Status, "status", "", "submitted or not_submitted")
	cmd.Flags().StringVar(&f.State, "state", "", "state name")
	cmd.Flags().StringVar(&f.ReportID, "report", "", "report id")
	return cmd
}

func writeRecords(w io.Writer, records []models.SubmissionRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATE\tAGENCY\tTYPE\tSTATUS\tTIME\tREASON")
	for _, r := range records {
		at := ""
		if r.SubmissionTime != nil {
			at = r.SubmissionTime.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, deref(r.State), r.Agency, r.SubmissionType, r.Status, at, deref(r.StatusReason))
	}
	return tw.Flush()
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
