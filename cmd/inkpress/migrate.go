// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package main

import (
	"log/slog"
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/inkpress/inkpress/internal/config"
	"github.com/inkpress/inkpress/internal/store"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				url, err := databaseURL(cmd)
				if err != nil {
					return err
				}
				if err := migrateUp(url); err != nil {
					return err
				}
				cmd.Println("Migrations applied")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations, dropping all tables and data",
			RunE: func(cmd *cobra.Command, _ []string) error {
				url, err := databaseURL(cmd)
				if err != nil {
					return err
				}
				return withMigrator(url, func(m *store.Migrator) error {
					if err := m.Down(); err != nil {
						return err
					}
					cmd.Println("Migrations rolled back")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show the current migration version",
			RunE: func(cmd *cobra.Command, _ []string) error {
				url, err := databaseURL(cmd)
				if err != nil {
					return err
				}
				return withMigrator(url, func(m *store.Migrator) error {
					version, dirty, err := m.Version()
					if err != nil {
						return err
					}
					cmd.Printf("version: %d dirty: %t\n", version, dirty)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Set the recorded version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return oops.Code("INVALID_VERSION").Wrap(err)
				}
				url, err := databaseURL(cmd)
				if err != nil {
					return err
				}
				return withMigrator(url, func(m *store.Migrator) error {
					if err := m.Force(version); err != nil {
						return err
					}
					cmd.Printf("forced version to %d\n", version)
					return nil
				})
			},
		},
	)

	return cmd
}

// databaseURL resolves the connection URL from the config chain.
func databaseURL(cmd *cobra.Command) (string, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return "", err
	}
	if cfg.Database.URL == "" {
		return "", oops.Code("CONFIG_INVALID").Errorf("database.url is required")
	}
	return cfg.Database.URL, nil
}

func withMigrator(url string, fn func(*store.Migrator) error) error {
	m, err := store.NewMigrator(url)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			slog.Warn("error closing migrator", "error", closeErr)
		}
	}()
	return fn(m)
}

func migrateUp(url string) error {
	return withMigrator(url, func(m *store.Migrator) error {
		return m.Up()
	})
}
