package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/xtm888/medflow-clinic-sub000/internal/application/billing"
	"github.com/xtm888/medflow-clinic-sub000/internal/application/reporting"
	"github.com/xtm888/medflow-clinic-sub000/internal/application/usecase"
	"github.com/xtm888/medflow-clinic-sub000/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ConventionUC *usecase.ConventionUseCase
	CoverageUC   *billing.CoverageUseCase
	ApprovalUC   *billing.ApprovalUseCase
	InvoiceUC    *billing.InvoiceUseCase
	PaymentUC    *billing.PaymentUseCase
	StatementUC  *reporting.StatementUseCase
	BatchUC      *reporting.BatchInvoiceUseCase
	AgingUC      *reporting.AgingUseCase
	DashboardUC  *reporting.DashboardUseCase
	// MetricsHandler expone /metrics si no es nil.
	MetricsHandler nethttp.Handler
	ServiceName    string
	JWTSecret      string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})
	if deps.MetricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.MetricsHandler))
	}

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	anyRole := RequireRole(jwt.RoleAdmin, jwt.RoleBilling, jwt.RoleAuditor)
	billers := RequireRole(jwt.RoleAdmin, jwt.RoleBilling)
	admins := RequireRole(jwt.RoleAdmin)

	conventionHandler := NewConventionHandler(deps.ConventionUC)
	billingHandler := NewBillingHandler(deps.CoverageUC, deps.ApprovalUC, deps.InvoiceUC, deps.PaymentUC)
	reportHandler := NewReportHandler(deps.StatementUC, deps.BatchUC, deps.AgingUC, deps.DashboardUC)

	// Convenciones
	conventions := api.Group("/conventions")
	conventions.Post("/", admins, conventionHandler.Create)
	conventions.Get("/", anyRole, conventionHandler.List)
	conventions.Get("/:id", anyRole, conventionHandler.GetByID)

	// Cobertura y aprobaciones
	conventions.Get("/:id/coverage", billers, billingHandler.ResolveCoverage)
	conventions.Post("/:id/coverage/preview", billers, billingHandler.PreviewCoverage)
	conventions.Post("/:id/approvals/gate", billers, billingHandler.GateApproval)

	// Facturas y pagos
	conventions.Post("/:id/invoices", billers, billingHandler.CreateInvoice)
	conventions.Post("/:id/payments", billers, billingHandler.AllocatePayment)
	api.Post("/invoices/:id/approvals/recalculate", billers, billingHandler.RecalculateInvoice)

	// Reportes
	conventions.Get("/:id/statement", anyRole, reportHandler.Statement)
	conventions.Post("/:id/batch-invoices", billers, reportHandler.BatchInvoice)
	reports := api.Group("/reports", anyRole)
	reports.Get("/aging", reportHandler.Aging)
	reports.Get("/dashboard", reportHandler.Dashboard)
}
