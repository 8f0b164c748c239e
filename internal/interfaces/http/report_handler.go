package http

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/xtm888/medflow-clinic-sub000/internal/application/dto"
	"github.com/xtm888/medflow-clinic-sub000/internal/application/reporting"
)

// ReportHandler estados de cuenta, bordereaux, antigüedad de saldos y tablero financiero.
type ReportHandler struct {
	statements *reporting.StatementUseCase
	batches    *reporting.BatchInvoiceUseCase
	aging      *reporting.AgingUseCase
	dashboard  *reporting.DashboardUseCase
}

// NewReportHandler construye el handler.
func NewReportHandler(
	statements *reporting.StatementUseCase,
	batches *reporting.BatchInvoiceUseCase,
	aging *reporting.AgingUseCase,
	dashboard *reporting.DashboardUseCase,
) *ReportHandler {
	return &ReportHandler{statements: statements, batches: batches, aging: aging, dashboard: dashboard}
}

func wantsPDF(c *fiber.Ctx) bool {
	return strings.EqualFold(c.Query("format"), "pdf")
}

func sendPDF(c *fiber.Ctx, filename string, pdf []byte) error {
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", filename))
	return c.Send(pdf)
}

// Statement estado de cuenta de la convención.
// GET /api/conventions/:id/statement?from=&to=[&format=pdf]
func (h *ReportHandler) Statement(c *fiber.Ctx) error {
	companyID := c.Params("id")
	in := dto.StatementRequest{From: c.Query("from"), To: c.Query("to")}
	if wantsPDF(c) {
		pdf, err := h.statements.StatementPDF(c.Context(), companyID, in)
		if err != nil {
			return respondError(c, err)
		}
		return sendPDF(c, "releve-"+companyID+".pdf", pdf)
	}
	out, err := h.statements.BuildStatement(c.Context(), companyID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// BatchInvoice bordereau de las facturas pendientes de la convención.
// POST /api/conventions/:id/batch-invoices[?format=pdf]
func (h *ReportHandler) BatchInvoice(c *fiber.Ctx) error {
	companyID := c.Params("id")
	var in dto.BatchInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if wantsPDF(c) {
		pdf, err := h.batches.BatchInvoicePDF(c.Context(), companyID, in)
		if err != nil {
			return respondError(c, err)
		}
		return sendPDF(c, "bordereau-"+companyID+".pdf", pdf)
	}
	out, err := h.batches.BuildBatchInvoice(c.Context(), companyID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Aging GET /api/reports/aging?as_of=YYYY-MM-DD
func (h *ReportHandler) Aging(c *fiber.Ctx) error {
	out, err := h.aging.BuildAgingReport(c.Context(), c.Query("as_of"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Dashboard tablero financiero anual por convención padre.
// GET /api/reports/dashboard?year=&include_sub_companies=
func (h *ReportHandler) Dashboard(c *fiber.Ctx) error {
	year := 0
	if raw := strings.TrimSpace(c.Query("year")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return badQuery(c, "year debe ser un entero")
		}
		year = v
	}
	includeSub := true
	if raw := strings.TrimSpace(c.Query("include_sub_companies")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return badQuery(c, "include_sub_companies debe ser true o false")
		}
		includeSub = v
	}
	out, err := h.dashboard.BuildFinancialDashboard(c.Context(), year, includeSub)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
