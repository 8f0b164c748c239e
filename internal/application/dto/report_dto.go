package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/aging"
)

// Tipos de movimiento del estado de cuenta.
const (
	StatementDebit  = "debit"
	StatementCredit = "credit"
)

// StatementEntryDTO movimiento del estado de cuenta.
type StatementEntryDTO struct {
	Date          time.Time       `json:"date"`
	Type          string          `json:"type"` // debit | credit
	InvoiceID     string          `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	PatientName   string          `json:"patient_name,omitempty"`
	Reference     string          `json:"reference,omitempty"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	Balance       decimal.Decimal `json:"balance"` // saldo acumulado
}

// StatementTotalsDTO totales del estado de cuenta.
type StatementTotalsDTO struct {
	Debit   decimal.Decimal `json:"debit"`
	Credit  decimal.Decimal `json:"credit"`
	Balance decimal.Decimal `json:"balance"`
}

// StatementResponse estado de cuenta de una convención.
type StatementResponse struct {
	CompanyID   string              `json:"company_id"`
	CompanyName string              `json:"company_name"`
	From        *time.Time          `json:"from,omitempty"`
	To          *time.Time          `json:"to,omitempty"`
	GeneratedAt time.Time           `json:"generated_at"`
	DueDate     time.Time           `json:"due_date"` // fecha límite de pago del saldo
	Currency    string              `json:"currency"`
	Entries     []StatementEntryDTO `json:"entries"`
	Totals      StatementTotalsDTO  `json:"totals"`
}

// StatementRequest rango opcional del estado de cuenta (YYYY-MM-DD, ambos inclusive).
type StatementRequest struct {
	From string `query:"from"`
	To   string `query:"to"`
}

// Agrupaciones del bordereau.
const (
	GroupByPatient = "patient"
	GroupByMonth   = "month"
)

// BatchInvoiceRequest body para POST /api/conventions/:id/batch-invoices.
type BatchInvoiceRequest struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	GroupBy string `json:"group_by"` // patient | month
}

// BatchInvoiceLineDTO factura incluida en un grupo.
type BatchInvoiceLineDTO struct {
	InvoiceID     string          `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	PatientName   string          `json:"patient_name"`
	DateIssued    time.Time       `json:"date_issued"`
	Total         decimal.Decimal `json:"total"`
	CompanyShare  decimal.Decimal `json:"company_share"`
	PatientShare  decimal.Decimal `json:"patient_share"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
}

// BatchInvoiceGroupDTO grupo del bordereau (por paciente o por mes).
type BatchInvoiceGroupDTO struct {
	Key          string                `json:"key"`
	Label        string                `json:"label"`
	Invoices     []BatchInvoiceLineDTO `json:"invoices"`
	InvoiceCount int                   `json:"invoice_count"`
	Total        decimal.Decimal       `json:"total"`
	CompanyShare decimal.Decimal       `json:"company_share"`
	PatientShare decimal.Decimal       `json:"patient_share"`
}

// BatchSummaryDTO totales del bordereau.
type BatchSummaryDTO struct {
	InvoiceCount int             `json:"invoice_count"`
	GroupCount   int             `json:"group_count"`
	Total        decimal.Decimal `json:"total"`
	CompanyShare decimal.Decimal `json:"company_share"`
	PatientShare decimal.Decimal `json:"patient_share"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	CompanyDue   decimal.Decimal `json:"company_due"`
}

// BatchInvoiceResponse bordereau.
type BatchInvoiceResponse struct {
	BatchReference string                 `json:"batch_reference"`
	CompanyID      string                 `json:"company_id"`
	CompanyName    string                 `json:"company_name"`
	GroupBy        string                 `json:"group_by"`
	From           *time.Time             `json:"from,omitempty"`
	To             *time.Time             `json:"to,omitempty"`
	GeneratedAt    time.Time              `json:"generated_at"`
	Currency       string                 `json:"currency"`
	Groups         []BatchInvoiceGroupDTO `json:"groups"`
	Summary        BatchSummaryDTO        `json:"summary"`
}

// AgingInvoiceDTO factura pendiente clasificada.
type AgingInvoiceDTO struct {
	InvoiceID     string          `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	DateIssued    time.Time       `json:"date_issued"`
	AgeDays       int             `json:"age_days"`
	Bucket        aging.Bucket    `json:"bucket"`
	Outstanding   decimal.Decimal `json:"outstanding"`
}

// AgingCompanyDTO antigüedad de saldos de una convención.
type AgingCompanyDTO struct {
	CompanyID   string            `json:"company_id"`
	CompanyName string            `json:"company_name"`
	Totals      aging.Totals      `json:"totals"`
	Invoices    []AgingInvoiceDTO `json:"invoices,omitempty"`
}

// AgingReportResponse reporte de antigüedad de saldos.
type AgingReportResponse struct {
	AsOf        time.Time         `json:"as_of"`
	Currency    string            `json:"currency"`
	PerCompany  []AgingCompanyDTO `json:"per_company"`
	GrandTotals aging.Totals      `json:"grand_totals"`
}

// DashboardCompanyDTO cifras del año de una empresa.
type DashboardCompanyDTO struct {
	CompanyID    string          `json:"company_id"`
	CompanyName  string          `json:"company_name"`
	InvoiceCount int             `json:"invoice_count"`
	Billed       decimal.Decimal `json:"billed"`
	Paid         decimal.Decimal `json:"paid"`
	Outstanding  decimal.Decimal `json:"outstanding"`
	Aging        aging.Totals    `json:"aging"`
}

// DashboardParentDTO convención padre con sus sub-empresas agregadas.
type DashboardParentDTO struct {
	DashboardCompanyDTO
	SubCompanies []DashboardCompanyDTO `json:"sub_companies,omitempty"`
	// Consolidated incluye la propia convención y, si se pidió, sus sub-empresas.
	Consolidated DashboardCompanyDTO `json:"consolidated"`
}

// DashboardTotalsDTO totales generales del tablero.
type DashboardTotalsDTO struct {
	InvoiceCount int             `json:"invoice_count"`
	Billed       decimal.Decimal `json:"billed"`
	Paid         decimal.Decimal `json:"paid"`
	Outstanding  decimal.Decimal `json:"outstanding"`
	Aging        aging.Totals    `json:"aging"`
}

// FinancialDashboardResponse tablero financiero jerárquico.
type FinancialDashboardResponse struct {
	Year                int                  `json:"year"`
	IncludeSubCompanies bool                 `json:"include_sub_companies"`
	Currency            string               `json:"currency"`
	PerParent           []DashboardParentDTO `json:"per_parent_convention"`
	GrandTotals         DashboardTotalsDTO   `json:"grand_totals"`
}
