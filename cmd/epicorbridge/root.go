package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/epicorbridge/pkg/cli"
)

var (
	// Global flags
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "epicorbridge",
	Short: "Epicorbridge - API gateway for Epicor ERP",
	Long: `Epicorbridge exposes Epicor BAQ queries and function library entries
over a small authenticated HTTP API.

It keeps a single shared integration session with the ERP, validates and
renews it in the background, and forwards caller requests under it:
  - Catalogued BAQ queries with required parameter checks
  - Function calls with selector-based routing
  - Prometheus metrics, health probes and an optional audit trail`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with a code derived from the
// returned error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
}
