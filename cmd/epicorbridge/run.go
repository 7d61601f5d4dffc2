package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/epicorbridge/pkg/catalog"
	"mercator-hq/epicorbridge/pkg/cli"
	"mercator-hq/epicorbridge/pkg/config"
	"mercator-hq/epicorbridge/pkg/telemetry/logging"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the gateway server",
	Long: `Start the Epicorbridge gateway with the specified configuration.

The gateway logs in to Epicor with the integration account, keeps the
session valid in the background and serves the /api/v1 routes.

Examples:
  # Start with default config
  epicorbridge run

  # Start with custom config
  epicorbridge run --config /etc/epicorbridge/config.yaml

  # Override listen address
  epicorbridge run --listen 0.0.0.0:9090

  # Validate config and catalog without starting the server
  epicorbridge run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd.Context(), cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		if _, err := logging.ParseLevel(runFlags.logLevel); err != nil {
			return cli.NewConfigError("--log-level", err.Error())
		}
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	logger, err := logging.New(logging.ConfigFrom(cfg.Telemetry.Logging))
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		cat, err := catalog.FromConfig(cfg)
		if err != nil {
			return cli.NewConfigError("gateway.catalog_path", err.Error())
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "✓ Configuration valid")
		fmt.Fprintf(out, "✓ Catalog valid (%d queries, %d functions)\n", len(cat.Queries), len(cat.Functions))
		return nil
	}

	printBanner(cmd, cfg)

	a, err := newApp(cfg, logger)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

	if err := a.run(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✓ Server stopped")
	return nil
}

func printBanner(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	scheme := "http"
	if cfg.Server.TLS.Enabled {
		scheme = "https"
	}
	fmt.Fprintf(out, "Epicorbridge v%s\n", Version)
	fmt.Fprintf(out, "Loading configuration from: %s\n", cfgFile)
	fmt.Fprintf(out, "✓ Epicor host: %s (company %s)\n", cfg.Epicor.Host, cfg.Epicor.Company)
	fmt.Fprintf(out, "✓ Listening on %s\n", cfg.Server.ListenAddress)
	fmt.Fprintf(out, "✓ Health endpoint: %s://%s/health\n", scheme, cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Fprintf(out, "✓ Metrics endpoint: %s://%s%s\n", scheme, cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	if cfg.Audit.Enabled {
		fmt.Fprintf(out, "✓ Audit trail: %s\n", cfg.Audit.SQLitePath)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")
}
