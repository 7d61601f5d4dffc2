package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/epicorbridge/pkg/cli"
	"mercator-hq/epicorbridge/pkg/config"
	"mercator-hq/epicorbridge/pkg/epicor"
	"mercator-hq/epicorbridge/pkg/session"
)

var sessionCheckFlags struct {
	keep   bool
	output string
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage the Epicor integration session",
}

var sessionCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Log in once with the integration account",
	Long: `Run one validate-or-login round trip against Epicor using the configured
integration account and report the outcome. The session is logged out
afterwards unless --keep is given, so the check does not hold a license.

Examples:
  epicorbridge session check
  epicorbridge session check --output json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseOutputFormat(sessionCheckFlags.output)
		if err != nil {
			return err
		}
		ctx, stop := cli.SetupSignalHandler(context.Background())
		defer stop()

		cfg, err := loadConfig(ctx, cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		res, err := checkSession(ctx, cfg, sessionCheckFlags.keep, slog.Default())
		if ferr := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), res); ferr != nil {
			return ferr
		}
		if err != nil {
			return cli.NewCommandError("session check", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionCheckCmd)

	sessionCheckCmd.Flags().BoolVar(&sessionCheckFlags.keep, "keep", false, "do not log out after the check")
	sessionCheckCmd.Flags().StringVarP(&sessionCheckFlags.output, "output", "o", "text", "output format: text, json")
}

// sessionCheckResult is the outcome of `session check`.
type sessionCheckResult struct {
	Host       string  `json:"host"`
	OK         bool    `json:"ok"`
	Error      string  `json:"error,omitempty"`
	DurationMS float64 `json:"duration_ms"`
	LoggedOut  bool    `json:"logged_out"`
}

func (r sessionCheckResult) String() string {
	if !r.OK {
		return fmt.Sprintf("✗ %s: %s (%.0fms)", r.Host, r.Error, r.DurationMS)
	}
	s := fmt.Sprintf("✓ %s: session obtained (%.0fms)", r.Host, r.DurationMS)
	if r.LoggedOut {
		s += "\n✓ session logged out"
	}
	return s
}

func checkSession(ctx context.Context, cfg *config.Config, keep bool, logger *slog.Logger) (sessionCheckResult, error) {
	client := epicor.NewClient(epicor.ClientConfigFromConfig(cfg.Epicor), logger)
	defer client.CloseIdleConnections()

	manager := session.NewManager(epicor.CredentialsFromConfig(cfg.Epicor), client, session.NewStore(), session.Options{
		RenewalTimeout: cfg.Session.RenewalTimeout,
		Logger:         logger,
	})

	res := sessionCheckResult{Host: cfg.Epicor.Host}
	start := time.Now()
	err := manager.RenewOrValidate(ctx)
	res.DurationMS = float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		res.Error = err.Error()
		return res, err
	}
	res.OK = true

	if keep {
		return res, nil
	}
	if err := manager.Logout(ctx); err != nil {
		return res, fmt.Errorf("logout failed: %w", err)
	}
	res.LoggedOut = true
	return res, nil
}

