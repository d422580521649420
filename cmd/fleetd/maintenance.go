package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"robot-fleet-backend/internal/db"
)

var (
	cleanupDays    int
	cleanupMetrics []string

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			gormDB, err := db.Open(&cfg.Database)
			if err != nil {
				return err
			}
			defer closeDB(gormDB)
			return db.Migrate(gormDB, logger)
		},
	}

	cleanupCmd = &cobra.Command{
		Use:   "cleanup-telemetry",
		Short: "Delete telemetry older than the retention window",
		RunE:  runCleanup,
	}
)

func init() {
	cleanupCmd.Flags().IntVar(&cleanupDays, "days", -1, "days of telemetry to keep (default: fleet.telemetry_retention_days)")
	cleanupCmd.Flags().StringSliceVar(&cleanupMetrics, "metric", nil, "only delete these metric names (repeatable)")

	rootCmd.AddCommand(migrateCmd, cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	svc, gormDB, err := newService()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer closeDB(gormDB)

	var days *int
	if cmd.Flags().Changed("days") {
		days = &cleanupDays
	}

	n, err := svc.CleanupOldTelemetry(context.Background(), days, cleanupMetrics)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d telemetry points\n", n)
	return nil
}
