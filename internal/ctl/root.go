// Package ctl implements gmctl, the operator CLI: offline inspection of a
// database directory and load generation against a running server.
package ctl

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

// NewRootCmd builds the command tree. Each call returns a fresh tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gmctl",
		Short:         "Operator tool for the gmstats greeting statistics server",
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.PersistentFlags().StringP("config", "c", "", "gmctl config file (default $GMCTL_CONFIG or ./gmctl.yaml)")
	root.PersistentFlags().StringP("output", "o", "", "output format: table or yaml (default table on a terminal)")
	root.PersistentFlags().String("db", "", "database directory for offline commands")

	root.AddCommand(newStatsCmd(), newTopCmd(), newKeysCmd(), newBenchCmd())
	return root
}

// Execute runs gmctl and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
