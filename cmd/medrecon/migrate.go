package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"medrecon/internal/config"
)

func migrateCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "db/migrations", "path to migrations directory")

	open := func() (*migrate.Migrate, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		m, err := migrate.New("file://"+dir, cfg.DB.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to create migrate instance: %w", err)
		}
		return m, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()
			if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return fmt.Errorf("migration up failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied successfully")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Revert all migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()
			if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return fmt.Errorf("migration down failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations reverted successfully")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "steps N",
		Short: "Apply (N > 0) or revert (N < 0) N migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid steps argument: %w", err)
			}
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()
			if err := m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return fmt.Errorf("migration steps failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration steps\n", n)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()
			version, dirty, err := m.Version()
			if err != nil {
				return fmt.Errorf("failed to get version: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version: %d, dirty: %v\n", version, dirty)
			return nil
		},
	})

	return cmd
}
