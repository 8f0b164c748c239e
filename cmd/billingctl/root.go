package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/xtm888/medflow-clinic-sub000/internal/application/reporting"
	"github.com/xtm888/medflow-clinic-sub000/internal/infrastructure/postgres"
	"github.com/xtm888/medflow-clinic-sub000/pkg/clock"
	"github.com/xtm888/medflow-clinic-sub000/pkg/config"
	"github.com/xtm888/medflow-clinic-sub000/pkg/logger"
)

// cliApp dependencias compartidas por los subcomandos. Los campos ya fijados
// (por ejemplo en pruebas) no se recargan.
type cliApp struct {
	cfg *config.Config
	log *logger.Logger
	// openAging construye el reporte de antigüedad; por defecto sobre PostgreSQL.
	openAging func(ctx context.Context) (*reporting.AgingUseCase, func(), error)
}

func newRootCmd(app *cliApp) *cobra.Command {
	var logLevel string
	cmd := &cobra.Command{
		Use:           "billingctl",
		Short:         "Operación del motor de convenciones: migraciones, reportes y tokens",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.init(logLevel)
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "nivel de log (debug, info, warn, error)")

	cmd.AddCommand(newMigrateCmd(app), newReportCmd(app), newTokenCmd(app))
	return cmd
}

func (a *cliApp) init(logLevel string) error {
	if a.cfg == nil {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	if a.log == nil {
		a.log = logger.New(logger.Config{Env: a.cfg.App.Env, Level: logLevel, Service: "billingctl"})
	}
	if a.openAging == nil {
		a.openAging = a.postgresAging
	}
	return nil
}

func (a *cliApp) postgresAging(ctx context.Context) (*reporting.AgingUseCase, func(), error) {
	pool, err := postgres.NewPool(ctx, a.cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	uc := reporting.NewAgingUseCase(
		postgres.NewCompanyRepository(pool),
		postgres.NewInvoiceRepository(pool),
		clock.System{},
		reporting.Settings{Currency: a.cfg.Billing.ClinicCurrency, StatementDueDays: a.cfg.Billing.StatementDueDays},
	)
	return uc, pool.Close, nil
}
