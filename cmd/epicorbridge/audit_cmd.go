package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/epicorbridge/pkg/audit"
	"mercator-hq/epicorbridge/pkg/cli"
	"mercator-hq/epicorbridge/pkg/config"
)

var auditListFlags struct {
	operation string
	category  string
	since     time.Duration
	limit     int
	output    string
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit trail",
	Long: `Query and prune the SQLite audit trail written by a running gateway.

Examples:
  # Last 20 operations
  epicorbridge audit list --limit 20

  # Upstream failures during the last hour as CSV
  epicorbridge audit list --category upstream_error --since 1h --output csv

  # Apply the retention policy now
  epicorbridge audit prune`,
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit entries, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseOutputFormat(auditListFlags.output)
		if err != nil {
			return err
		}
		cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		filter := audit.Filter{
			Operation: auditListFlags.operation,
			Category:  auditListFlags.category,
			Limit:     auditListFlags.limit,
		}
		if auditListFlags.since > 0 {
			filter.Since = time.Now().Add(-auditListFlags.since)
		}

		if err := listAudit(cmd.Context(), cmd.OutOrStdout(), cfg.Audit.SQLitePath, filter, format); err != nil {
			return cli.NewCommandError("audit list", err)
		}
		return nil
	},
}

var auditPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete entries older than audit.retention_days",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		n, err := pruneAudit(cmd.Context(), cfg.Audit)
		if err != nil {
			return cli.NewCommandError("audit prune", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %d entries older than %d days\n", n, cfg.Audit.RetentionDays)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditListCmd, auditPruneCmd)

	auditListCmd.Flags().StringVar(&auditListFlags.operation, "operation", "", "filter by operation kind (query, function)")
	auditListCmd.Flags().StringVar(&auditListFlags.category, "category", "", "filter by result category")
	auditListCmd.Flags().DurationVar(&auditListFlags.since, "since", 0, "only entries newer than this (e.g. 1h)")
	auditListCmd.Flags().IntVar(&auditListFlags.limit, "limit", 100, "maximum number of entries")
	auditListCmd.Flags().StringVarP(&auditListFlags.output, "output", "o", "text", "output format: text, json, csv")
}

// auditRow is the JSON shape of one listed entry.
type auditRow struct {
	ID             string    `json:"id"`
	RequestID      string    `json:"request_id"`
	Operation      string    `json:"operation"`
	Target         string    `json:"target"`
	Category       string    `json:"category"`
	UpstreamStatus int       `json:"upstream_status"`
	DurationMS     float64   `json:"duration_ms"`
	Timestamp      time.Time `json:"timestamp"`
}

// auditTable renders entries through the cli formatters.
type auditTable []auditRow

func (t auditTable) Header() []string {
	return []string{"timestamp", "request_id", "operation", "target", "category", "upstream_status", "duration_ms", "id"}
}

func (t auditTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		rows = append(rows, []string{
			r.Timestamp.Format(time.RFC3339),
			r.RequestID,
			r.Operation,
			r.Target,
			r.Category,
			strconv.Itoa(r.UpstreamStatus),
			strconv.FormatFloat(r.DurationMS, 'f', 1, 64),
			r.ID,
		})
	}
	return rows
}

func listAudit(ctx context.Context, out io.Writer, path string, filter audit.Filter, format cli.OutputFormat) error {
	store, err := audit.Open(path, auditBusyTimeout)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(ctx, filter)
	if err != nil {
		return err
	}

	table := make(auditTable, 0, len(entries))
	for _, e := range entries {
		table = append(table, auditRow{
			ID:             e.ID,
			RequestID:      e.RequestID,
			Operation:      e.Operation,
			Target:         e.Target,
			Category:       e.Category,
			UpstreamStatus: e.UpstreamStatus,
			DurationMS:     float64(e.Duration.Microseconds()) / 1000,
			Timestamp:      e.Timestamp,
		})
	}

	return cli.NewFormatter(format).FormatTo(out, table)
}

func pruneAudit(ctx context.Context, cfg config.AuditConfig) (int64, error) {
	store, err := audit.Open(cfg.SQLitePath, auditBusyTimeout)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	return audit.NewPruner(store, cfg.RetentionDays, slog.Default()).Prune(ctx)
}
