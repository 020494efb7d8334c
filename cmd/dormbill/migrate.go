package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bher20/dormbill/internal/migrate"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate.Up(cmd.Context(), a.cfg.DBDriver, a.cfg.DBDSN)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate.Down(cmd.Context(), a.cfg.DBDriver, a.cfg.DBDSN)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show migration status",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := migrate.Status(cmd.Context(), a.cfg.DBDriver, a.cfg.DBDSN); err != nil {
					return err
				}
				v, err := migrate.Version(cmd.Context(), a.cfg.DBDriver, a.cfg.DBDSN)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d\n", v)
				return nil
			},
		},
	)
	return cmd
}
