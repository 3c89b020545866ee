package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "submit",
		Short:        "Route FracTracker reports to state environmental agencies",
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(), newLedgerCmd())
	return root
}
