package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/xtm888/medflow-clinic-sub000/internal/application/billing"
	"github.com/xtm888/medflow-clinic-sub000/internal/application/reporting"
	"github.com/xtm888/medflow-clinic-sub000/internal/application/usecase"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/repository"
	inframetrics "github.com/xtm888/medflow-clinic-sub000/internal/infrastructure/metrics"
	infrapdf "github.com/xtm888/medflow-clinic-sub000/internal/infrastructure/pdf"
	"github.com/xtm888/medflow-clinic-sub000/internal/infrastructure/postgres"
	infraredis "github.com/xtm888/medflow-clinic-sub000/internal/infrastructure/redis"
	httpRouter "github.com/xtm888/medflow-clinic-sub000/internal/interfaces/http"
	"github.com/xtm888/medflow-clinic-sub000/pkg/clock"
	"github.com/xtm888/medflow-clinic-sub000/pkg/config"
	"github.com/xtm888/medflow-clinic-sub000/pkg/currency"
	"github.com/xtm888/medflow-clinic-sub000/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   "info",
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("currency", cfg.Billing.ClinicCurrency).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET requerido")
	}

	ctx := context.Background()
	if cfg.DB.AutoMigrations {
		if err := postgres.RunMigrations(cfg.DB.ConnectionString()); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		log.Info().Msg("migraciones aplicadas")
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// ── Repositorios ─────────────────────────────────────────────────────────
	var companyRepo repository.CompanyRepository = postgres.NewCompanyRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	patientRepo := postgres.NewPatientRepository(pool)
	approvalRepo := postgres.NewApprovalRepository(pool)
	feeRepo := postgres.NewFeeScheduleRepository(pool)
	var txRunner billing.BillingTxRunner = postgres.NewTxRunner(pool)

	// Caché Redis de convenciones: lectura directa; los pagos invalidan tras el commit.
	if cfg.Redis.Enabled() {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		cached := infraredis.NewCachedCompanyRepository(
			companyRepo,
			infraredis.NewClientStore(rdb),
			time.Duration(cfg.Redis.TTLSeconds)*time.Second,
			log.Component("company_cache").Zerolog(),
		)
		companyRepo = cached
		txRunner = infraredis.NewInvalidatingTxRunner(txRunner, cached)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("caché de convenciones activa")
	}

	// ── Métricas ─────────────────────────────────────────────────────────────
	var metrics billing.Metrics = billing.NopMetrics{}
	registry := prometheus.NewRegistry()
	if cfg.Metrics.Enabled {
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = inframetrics.NewBillingMetrics(registry, "medflow")
	}

	// ── Casos de uso ─────────────────────────────────────────────────────────
	clk := clock.System{}
	converter := currency.NewFixedRate(cfg.Billing.ReferenceCurrency, map[string]decimal.Decimal{
		cfg.Billing.ClinicCurrency: cfg.Billing.USDRate,
	})
	billingSettings := billing.Settings{ClinicCurrency: cfg.Billing.ClinicCurrency}
	reportSettings := reporting.Settings{
		Currency:         cfg.Billing.ClinicCurrency,
		StatementDueDays: cfg.Billing.StatementDueDays,
	}

	usage := billing.NewUsageTracker(invoiceRepo)
	coverageUC := billing.NewCoverageUseCase(companyRepo, patientRepo, feeRepo, usage, converter, clk, metrics, billingSettings)
	approvalUC := billing.NewApprovalUseCase(txRunner, companyRepo, patientRepo, approvalRepo, converter, clk, metrics, log, billingSettings)
	invoiceUC := billing.NewInvoiceUseCase(txRunner, coverageUC, approvalUC, log)
	paymentUC := billing.NewPaymentUseCase(txRunner, clk, metrics, log, billingSettings)

	// PDF: relevés y bordereaux en francés
	renderer := infrapdf.NewMarotoRenderer(cfg.App.Name, "fr")
	statementUC := reporting.NewStatementUseCase(companyRepo, invoiceRepo, renderer, clk, reportSettings)
	batchUC := reporting.NewBatchInvoiceUseCase(companyRepo, invoiceRepo, renderer, clk, reportSettings)
	agingUC := reporting.NewAgingUseCase(companyRepo, invoiceRepo, clk, reportSettings)
	dashboardUC := reporting.NewDashboardUseCase(companyRepo, invoiceRepo, clk, reportSettings)
	conventionUC := usecase.NewConventionUseCase(companyRepo, clk, cfg.Billing.ClinicCurrency)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	deps := httpRouter.RouterDeps{
		ConventionUC: conventionUC,
		CoverageUC:   coverageUC,
		ApprovalUC:   approvalUC,
		InvoiceUC:    invoiceUC,
		PaymentUC:    paymentUC,
		StatementUC:  statementUC,
		BatchUC:      batchUC,
		AgingUC:      agingUC,
		DashboardUC:  dashboardUC,
		ServiceName:  cfg.App.Name,
		JWTSecret:    cfg.JWT.Secret,
	}
	if cfg.Metrics.Enabled {
		deps.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}
	httpRouter.Router(app, deps)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
