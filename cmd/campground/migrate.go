package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/campground/internal/config"
	"github.com/example/campground/internal/persistence/sqlite"
	"github.com/example/campground/internal/persistence/sqlite/migration"
)

func newMigrateCmd(c *cli) *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQLite schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := c.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if cfg.Storage != config.StorageSQLite {
				return errors.New("migrate requires CAMPGROUND_STORAGE=sqlite")
			}

			storage, err := sqlite.Open(sqlite.Config{
				Path:        cfg.SQLitePath,
				BusyTimeout: cfg.SQLiteBusyTimeout,
				Location:    cfg.Location(),
				Logger:      logger,
			})
			if err != nil {
				return err
			}
			defer storage.Close()

			if !statusOnly {
				if err := storage.Migrate(cmd.Context()); err != nil {
					return err
				}
			}
			status, err := storage.MigrationStatus(cmd.Context())
			if err != nil {
				return err
			}
			printMigrationStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "report the migration state without applying anything")
	return cmd
}

func printMigrationStatus(w io.Writer, status migration.Status) {
	current := status.CurrentVersion
	if current == "" {
		current = "none"
	}
	fmt.Fprintf(w, "current version: %s\n", current)
	for _, applied := range status.Applied {
		fmt.Fprintf(w, "applied  %s  %s\n", applied.Version, applied.AppliedAt.UTC().Format(time.RFC3339))
	}
	for _, pending := range status.Pending {
		fmt.Fprintf(w, "pending  %s  %s\n", pending.Version, pending.Description)
	}
}
