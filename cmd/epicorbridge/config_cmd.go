package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/epicorbridge/pkg/catalog"
	"mercator-hq/epicorbridge/pkg/cli"
	"mercator-hq/epicorbridge/pkg/config"
	"mercator-hq/epicorbridge/pkg/security/secrets"
)

var configValidateFlags struct {
	catalogFile string
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect gateway configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load the configuration file with environment overrides applied and
report every validation error. Secret references in credential fields
are resolved, and the catalog file named by gateway.catalog_path is
loaded and validated as well.

Examples:
  # Validate config.yaml in the working directory
  epicorbridge config validate

  # Validate a standalone catalog file only
  epicorbridge config validate --catalog catalog.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configValidateFlags.catalogFile != "" {
			return validateCatalogFile(cmd.OutOrStdout(), configValidateFlags.catalogFile)
		}
		return validateConfigFile(cmd.OutOrStdout(), cfgFile)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)

	configValidateCmd.Flags().StringVar(&configValidateFlags.catalogFile, "catalog", "", "validate a standalone catalog file instead")
}

// loadConfig loads path with environment overrides and resolves secret
// references.
func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, err
	}
	if err := secrets.FromConfig(cfg.Secrets, slog.Default()).ResolveConfig(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to resolve secrets: %w", err)
	}
	return cfg, nil
}

func validateConfigFile(out io.Writer, path string) error {
	cfg, err := loadConfig(context.Background(), path)
	if err != nil {
		return reportConfigErrors(out, path, err)
	}

	cat, err := catalog.FromConfig(cfg)
	if err != nil {
		return reportConfigErrors(out, cfg.Gateway.CatalogPath, err)
	}

	fmt.Fprintf(out, "✓ Configuration valid: %s\n", path)
	fmt.Fprintf(out, "✓ Catalog: %d queries, %d functions\n", len(cat.Queries), len(cat.Functions))
	return nil
}

func validateCatalogFile(out io.Writer, path string) error {
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return reportConfigErrors(out, path, err)
	}
	fmt.Fprintf(out, "✓ Catalog valid: %s (%d queries, %d functions)\n", path, len(cat.Queries), len(cat.Functions))
	return nil
}

// reportConfigErrors lists every field error and returns the first as the
// command error so the exit code reflects a configuration problem.
func reportConfigErrors(out io.Writer, path string, err error) error {
	errs := cli.ConfigErrors(err)
	fmt.Fprintf(out, "✗ %s is invalid (%d errors)\n", path, len(errs))
	for _, e := range errs {
		fmt.Fprintf(out, "  - %s\n", e.Error())
	}
	return errs[0]
}
