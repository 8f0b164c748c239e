package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/xtm888/medflow-clinic-sub000/internal/application/billing"
	"github.com/xtm888/medflow-clinic-sub000/internal/application/dto"
)

// BillingHandler endpoints de cobertura, aprobaciones, facturas de convención e imputación de pagos.
type BillingHandler struct {
	coverage  *billing.CoverageUseCase
	approvals *billing.ApprovalUseCase
	invoices  *billing.InvoiceUseCase
	payments  *billing.PaymentUseCase
}

// NewBillingHandler construye el handler.
func NewBillingHandler(
	coverage *billing.CoverageUseCase,
	approvals *billing.ApprovalUseCase,
	invoices *billing.InvoiceUseCase,
	payments *billing.PaymentUseCase,
) *BillingHandler {
	return &BillingHandler{coverage: coverage, approvals: approvals, invoices: invoices, payments: payments}
}

// ResolveCoverage regla de cobertura efectiva para una categoría.
// GET /api/conventions/:id/coverage?category=&patient_override=
func (h *BillingHandler) ResolveCoverage(c *fiber.Ctx) error {
	var override *decimal.Decimal
	if raw := strings.TrimSpace(c.Query("patient_override")); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return badQuery(c, "patient_override debe ser numérico")
		}
		override = &v
	}
	out, err := h.coverage.ResolveCoverage(c.Context(), c.Params("id"), c.Query("category"), override)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// PreviewCoverage reparto convención/paciente sin persistir.
// POST /api/conventions/:id/coverage/preview
//
// Las advertencias no son errores: la respuesta es 200 con can_proceed=false
// cuando alguna advertencia es bloqueante.
func (h *BillingHandler) PreviewCoverage(c *fiber.Ctx) error {
	var in dto.CoveragePreviewRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.coverage.PreviewCoverage(c.Context(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GateApproval POST /api/conventions/:id/approvals/gate
func (h *BillingHandler) GateApproval(c *fiber.Ctx) error {
	var in dto.ApprovalGateRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.approvals.GateApproval(c.Context(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// RecalculateInvoice vuelve a aplicar el control de aprobación a cada línea de la factura.
// POST /api/invoices/:id/approvals/recalculate
func (h *BillingHandler) RecalculateInvoice(c *fiber.Ctx) error {
	out, err := h.approvals.RecalculateInvoice(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// CreateInvoice POST /api/conventions/:id/invoices
func (h *BillingHandler) CreateInvoice(c *fiber.Ctx) error {
	var in dto.CreateConventionInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.invoices.CreateConventionInvoice(c.Context(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// AllocatePayment imputa un pago de la convención a sus facturas pendientes.
// POST /api/conventions/:id/payments
func (h *BillingHandler) AllocatePayment(c *fiber.Ctx) error {
	var in dto.AllocatePaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.payments.AllocatePayment(c.Context(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
