package dto

import (
	"github.com/shopspring/decimal"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/coverage"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
)

// CoverageRuleResponse respuesta de GET /api/conventions/:id/coverage.
type CoverageRuleResponse struct {
	Category              string           `json:"category"`
	CoveragePercentage    decimal.Decimal  `json:"coverage_percentage"`
	Source                string           `json:"source"` // category | patient | default
	MaxAmountPerItem      *decimal.Decimal `json:"max_amount_per_item,omitempty"`
	MaxPerCategoryPerYear *decimal.Decimal `json:"max_per_category_per_year,omitempty"`
	NotCovered            bool             `json:"not_covered"`
	RequiresApproval      bool             `json:"requires_approval"`
}

// BillableItemRequest ítem candidato a facturar.
// Un precio unitario en cero se toma del tarifario vigente de la convención.
type BillableItemRequest struct {
	Code        string          `json:"code"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CoveragePreviewRequest body para POST /api/conventions/:id/coverage/preview.
type CoveragePreviewRequest struct {
	PatientID string                `json:"patient_id"`
	Date      string                `json:"date,omitempty"` // YYYY-MM-DD; vacío = hoy
	Items     []BillableItemRequest `json:"items"`
}

// ItemPreviewDTO reparto calculado de un ítem.
type ItemPreviewDTO struct {
	Code               string             `json:"code"`
	Description        string             `json:"description,omitempty"`
	Category           string             `json:"category"`
	Quantity           decimal.Decimal    `json:"quantity"`
	UnitPrice          decimal.Decimal    `json:"unit_price"`
	ItemTotal          decimal.Decimal    `json:"item_total"`
	Discount           decimal.Decimal    `json:"discount"`
	NetTotal           decimal.Decimal    `json:"net_total"`
	CoveragePercentage decimal.Decimal    `json:"coverage_percentage"`
	CoverageSource     string             `json:"coverage_source"`
	CompanyShare       decimal.Decimal    `json:"company_share"`
	PatientShare       decimal.Decimal    `json:"patient_share"`
	NotCovered         bool               `json:"not_covered"`
	RequiresApproval   bool               `json:"requires_approval"`
	AutoApproved       bool               `json:"auto_approved"`
	Warnings           []coverage.Warning `json:"warnings,omitempty"`
}

// CoverageSummaryDTO totales del cálculo.
type CoverageSummaryDTO struct {
	TotalAmount       decimal.Decimal `json:"total_amount"`
	TotalDiscount     decimal.Decimal `json:"total_discount"`
	NetAmount         decimal.Decimal `json:"net_amount"`
	TotalCompanyShare decimal.Decimal `json:"total_company_share"`
	TotalPatientShare decimal.Decimal `json:"total_patient_share"`
	EffectiveCoverage decimal.Decimal `json:"effective_coverage"`
	VisitCapApplied   bool            `json:"visit_cap_applied"`
	VisitCapExcess    decimal.Decimal `json:"visit_cap_excess"`
	Currency          string          `json:"currency"`
}

// CoveragePreviewResponse vista previa; no se persiste.
type CoveragePreviewResponse struct {
	CompanyID  string                     `json:"company_id"`
	PatientID  string                     `json:"patient_id"`
	Items      []ItemPreviewDTO           `json:"item_previews"`
	Summary    CoverageSummaryDTO         `json:"summary"`
	YTDUsage   map[string]decimal.Decimal `json:"ytd_usage"`
	Warnings   []coverage.Warning         `json:"warnings"`
	CanProceed bool                       `json:"can_proceed"`
}

// ApprovalGateRequest body para POST /api/conventions/:id/approvals/gate.
type ApprovalGateRequest struct {
	PatientID string          `json:"patient_id"`
	Code      string          `json:"code"`
	Category  string          `json:"category"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Currency  string          `json:"currency,omitempty"`
}

// ApprovalGateResponse resultado del control de aprobación.
type ApprovalGateResponse struct {
	RequiresApproval bool   `json:"requires_approval"`
	CategoryLevel    bool   `json:"category_level"`
	AutoApproved     bool   `json:"auto_approved"`
	HasApproval      bool   `json:"has_approval"`
	ApprovalID       string `json:"approval_id,omitempty"`
	ApprovalStatus   string `json:"approval_status"`
}

// CreateConventionInvoiceRequest body para POST /api/conventions/:id/invoices.
type CreateConventionInvoiceRequest struct {
	PatientID     string                `json:"patient_id"`
	InvoiceNumber string                `json:"invoice_number,omitempty"`
	Date          string                `json:"date,omitempty"`
	Status        string                `json:"status,omitempty"` // draft | issued (por defecto issued)
	Items         []BillableItemRequest `json:"items"`
}

// InvoiceResponse factura de convención.
type InvoiceResponse struct {
	ID                 string                   `json:"id"`
	InvoiceNumber      string                   `json:"invoice_number"`
	PatientID          string                   `json:"patient_id"`
	PatientName        string                   `json:"patient_name,omitempty"`
	CompanyID          string                   `json:"company_id,omitempty"`
	Status             string                   `json:"status"`
	ConventionStatus   string                   `json:"convention_status,omitempty"`
	DateIssued         string                   `json:"date_issued"`
	Total              decimal.Decimal          `json:"total"`
	CompanyShare       decimal.Decimal          `json:"company_share"`
	PatientShare       decimal.Decimal          `json:"patient_share"`
	CoveragePercentage decimal.Decimal          `json:"coverage_percentage"`
	PaidAmount         decimal.Decimal          `json:"paid_amount"`
	Items              []InvoiceItemResponseDTO `json:"items"`
	Warnings           []coverage.Warning       `json:"warnings,omitempty"`
	Version            int                      `json:"version"`
}

// InvoiceItemResponseDTO línea de factura con su estado de aprobación.
type InvoiceItemResponseDTO struct {
	Code               string          `json:"code"`
	Category           string          `json:"category"`
	Quantity           decimal.Decimal `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	Total              decimal.Decimal `json:"total"`
	CoveragePercentage decimal.Decimal `json:"coverage_percentage"`
	CompanyShare       decimal.Decimal `json:"company_share"`
	PatientShare       decimal.Decimal `json:"patient_share"`
	ApprovalRequired   bool            `json:"approval_required"`
	HasApproval        bool            `json:"has_approval"`
	ApprovalStatus     string          `json:"approval_status"`
}

// InvoiceFromEntity mapea la factura a la respuesta.
func InvoiceFromEntity(inv *entity.Invoice, warnings []coverage.Warning) InvoiceResponse {
	out := InvoiceResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		PatientID:     inv.PatientID,
		PatientName:   inv.PatientName,
		Status:        string(inv.Status),
		DateIssued:    inv.DateIssued.Format(DateLayout),
		Total:         inv.AmountDue(),
		Items:         make([]InvoiceItemResponseDTO, 0, len(inv.Items)),
		Warnings:      warnings,
		Version:       inv.Version,
	}
	if cb := inv.CompanyBilling; cb != nil {
		out.CompanyID = cb.CompanyID
		out.ConventionStatus = string(cb.Status)
		out.CompanyShare = cb.CompanyShare
		out.PatientShare = cb.PatientShare
		out.CoveragePercentage = cb.CoveragePercentage
		out.PaidAmount = cb.PaidAmount
	}
	for _, it := range inv.Items {
		out.Items = append(out.Items, InvoiceItemResponseDTO{
			Code:               it.Code,
			Category:           it.Category,
			Quantity:           it.Quantity,
			UnitPrice:          it.UnitPrice,
			Total:              it.Total,
			CoveragePercentage: it.CoveragePercentage,
			CompanyShare:       it.CompanyShare,
			PatientShare:       it.PatientShare,
			ApprovalRequired:   it.ApprovalRequired,
			HasApproval:        it.HasApproval,
			ApprovalStatus:     it.ApprovalStatus,
		})
	}
	return out
}
