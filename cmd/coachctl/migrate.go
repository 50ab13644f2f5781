package main

import (
	"context"
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"

	"github.com/johnquangdev/sales-mentor/internal/infrastructure/database"
	"github.com/johnquangdev/sales-mentor/pkg/config"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the embedded schema migrations",
	}

	cmd.AddCommand(newMigrateDirectionCmd("up", "Apply pending migrations", migrate.Up))
	cmd.AddCommand(newMigrateDirectionCmd("down", "Roll back applied migrations", migrate.Down))
	cmd.AddCommand(newMigrateStatusCmd())
	return cmd
}

func newMigrateDirectionCmd(use, short string, direction migrate.MigrationDirection) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if direction == migrate.Down && limit == 0 {
				limit = 1
			}
			return runMigrate(cmd, direction, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "max", 0, "maximum number of migrations to run (0 = all up, 1 down)")
	return cmd
}

func runMigrate(cmd *cobra.Command, direction migrate.MigrationDirection, limit int) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.NewPostgresDB(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer database.CloseDB(db)

	n, err := database.Migrate(db, direction, limit)
	if err != nil {
		return err
	}

	verb := "Applied"
	if direction == migrate.Down {
		verb = "Rolled back"
	}
	fmt.Fprintf(out, "✅ %s %d migration(s)\n", verb, n)
	return nil
}

func newMigrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List embedded migrations and whether they are applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			db, err := database.NewPostgresDB(context.Background(), cfg)
			if err != nil {
				return err
			}
			defer database.CloseDB(db)

			applied, err := database.AppliedMigrations(db)
			if err != nil {
				return err
			}
			found, err := database.MigrationSource().FindMigrations()
			if err != nil {
				return fmt.Errorf("read migrations: %w", err)
			}
			printMigrationStatus(cmd, found, applied)
			return nil
		},
	}
}

func printMigrationStatus(cmd *cobra.Command, found []*migrate.Migration, applied map[string]bool) {
	out := cmd.OutOrStdout()
	for _, m := range found {
		state := "pending"
		if applied[m.Id] {
			state = "applied"
		}
		fmt.Fprintf(out, "%-8s %s\n", state, m.Id)
	}
}
