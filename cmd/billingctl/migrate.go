package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/xtm888/medflow-clinic-sub000/internal/infrastructure/postgres"
)

func newMigrateCmd(app *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migraciones del esquema (embebidas en el binario)",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Aplica todas las migraciones pendientes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := postgres.RunMigrations(app.cfg.DB.ConnectionString()); err != nil {
				return err
			}
			app.log.Info().Msg("migraciones aplicadas")
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Revierte migraciones",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := postgres.RollbackMigration(app.cfg.DB.ConnectionString(), steps); err != nil {
				return err
			}
			app.log.Info().Int("steps", steps).Msg("migraciones revertidas")
			fmt.Fprintf(cmd.OutOrStdout(), "revertidas %d\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "cantidad de migraciones a revertir")

	status := &cobra.Command{
		Use:   "status",
		Short: "Versión actual del esquema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			version, dirty, err := postgres.MigrationStatus(app.cfg.DB.ConnectionString())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
			return nil
		},
	}

	force := &cobra.Command{
		Use:   "force VERSION",
		Short: "Fija la versión sin ejecutar migraciones (limpia el estado dirty)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("versión inválida %q", args[0])
			}
			if err := postgres.ForceMigrationVersion(app.cfg.DB.ConnectionString(), version); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version=%d\n", version)
			return nil
		},
	}

	cmd.AddCommand(up, down, status, force)
	return cmd
}
