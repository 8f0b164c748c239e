package entity

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus estado general de la factura.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusIssued    InvoiceStatus = "issued"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPartial   InvoiceStatus = "partial"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
	InvoiceStatusVoided    InvoiceStatus = "voided"
)

// IsTerminal indica estados excluidos de antigüedad y estados de cuenta.
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusCancelled || s == InvoiceStatusVoided
}

// IsPayable indica si la factura puede recibir pagos de la convención.
func (s InvoiceStatus) IsPayable() bool {
	switch s {
	case InvoiceStatusIssued, InvoiceStatusSent, InvoiceStatusPartial, InvoiceStatusOverdue:
		return true
	}
	return false
}

// PayableInvoiceStatuses estados elegibles para la imputación automática (más antigua primero).
var PayableInvoiceStatuses = []InvoiceStatus{
	InvoiceStatusIssued, InvoiceStatusSent, InvoiceStatusPartial, InvoiceStatusOverdue,
}

// ConventionStatus estado de facturación a la convención (companyInvoiceStatus).
// pending -> sent -> paid; partial desde sent; overdue desde sent/partial (calculado fuera).
type ConventionStatus string

const (
	ConventionStatusPending   ConventionStatus = "pending"
	ConventionStatusSent      ConventionStatus = "sent"
	ConventionStatusPartial   ConventionStatus = "partial"
	ConventionStatusPaid      ConventionStatus = "paid"
	ConventionStatusOverdue   ConventionStatus = "overdue"
	ConventionStatusCancelled ConventionStatus = "cancelled"
)

// ApprovalStatus estado de aprobación de una línea.
const (
	ApprovalStatusNotRequired = "not_required"
	ApprovalStatusMissing     = "missing"
	ApprovalStatusApproved    = "approved"
)

// Pagadores.
const (
	PayerCompany = "company"
	PayerPatient = "patient"
)

// InvoiceItem línea facturable con su reparto convención/paciente.
type InvoiceItem struct {
	Code               string          `json:"code"`
	Description        string          `json:"description,omitempty"`
	Category           string          `json:"category"`
	Quantity           decimal.Decimal `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	Discount           decimal.Decimal `json:"discount"`
	Total              decimal.Decimal `json:"total"` // neto de descuento
	CoveragePercentage decimal.Decimal `json:"coverage_percentage"`
	// EligibleCompanyShare parte convención calculada (topes aplicados) antes del control de aprobación.
	EligibleCompanyShare decimal.Decimal `json:"eligible_company_share"`
	CompanyShare         decimal.Decimal `json:"company_share"`
	PatientShare         decimal.Decimal `json:"patient_share"`
	ApprovalRequired     bool            `json:"approval_required"`
	HasApproval          bool            `json:"has_approval"`
	ApprovalStatus       string          `json:"approval_status"`
	ApprovalID           string          `json:"approval_id,omitempty"`
}

// PaymentAllocation imputación de un pago a una línea.
type PaymentAllocation struct {
	ItemCode string          `json:"item_code"`
	Amount   decimal.Decimal `json:"amount"`
}

// Payment pago registrado en la factura.
type Payment struct {
	ID          string              `json:"id"`
	Amount      decimal.Decimal     `json:"amount"`
	Currency    string              `json:"currency"`
	Method      string              `json:"method"`
	Date        time.Time           `json:"date"`
	Reference   string              `json:"reference,omitempty"`
	Notes       string              `json:"notes,omitempty"`
	Payer       string              `json:"payer"`
	Allocations []PaymentAllocation `json:"allocations,omitempty"`
}

// CompanyBilling bloque de facturación a la convención.
type CompanyBilling struct {
	CompanyID          string
	CompanyName        string
	CompanyShare       decimal.Decimal
	PatientShare       decimal.Decimal
	CoveragePercentage decimal.Decimal
	PaidAmount         decimal.Decimal
	Status             ConventionStatus
	BatchReference     string
	// VisitCapExcess parte de las líneas que el tope por visita trasladó al paciente.
	VisitCapExcess decimal.Decimal
}

// Invoice factura de paciente, opcionalmente facturada en parte a una convención.
// Version se incrementa en cada escritura (control optimista de concurrencia).
type Invoice struct {
	ID             string
	InvoiceNumber  string
	PatientID      string
	PatientName    string
	Items          []InvoiceItem
	CompanyBilling *CompanyBilling
	Payments       []Payment
	Total          decimal.Decimal
	Status         InvoiceStatus
	DateIssued     time.Time
	DueDate        *time.Time
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsConvention indica si la factura tiene parte a cargo de una convención.
func (i *Invoice) IsConvention() bool {
	return i.CompanyBilling != nil && i.CompanyBilling.CompanyID != ""
}

// CompanyDue saldo pendiente a cargo de la convención (companyShare − paidAmount).
func (i *Invoice) CompanyDue() decimal.Decimal {
	if !i.IsConvention() {
		return decimal.Zero
	}
	return i.CompanyBilling.CompanyShare.Sub(i.CompanyBilling.PaidAmount)
}

// TotalPaid suma de todos los pagos registrados.
func (i *Invoice) TotalPaid() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range i.Payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// AmountDue monto total exigible de la factura.
func (i *Invoice) AmountDue() decimal.Decimal {
	if i.Total.IsPositive() {
		return i.Total
	}
	sum := decimal.Zero
	for _, it := range i.Items {
		sum = sum.Add(it.Total)
	}
	return sum
}

// RecalculateStatus recalcula el estado comparando pagos acumulados contra el monto exigible
// (paid si ≥, partial si 0 < pagado < exigible). Sin pagos el estado no cambia.
func (i *Invoice) RecalculateStatus() {
	if i.Status.IsTerminal() {
		return
	}
	paid := i.TotalPaid()
	switch {
	case paid.IsPositive() && paid.GreaterThanOrEqual(i.AmountDue()):
		i.Status = InvoiceStatusPaid
	case paid.IsPositive():
		i.Status = InvoiceStatusPartial
	}
	if i.IsConvention() {
		i.recalculateConventionStatus()
	}
}

func (i *Invoice) recalculateConventionStatus() {
	cb := i.CompanyBilling
	if cb.Status == ConventionStatusCancelled {
		return
	}
	switch {
	case cb.PaidAmount.IsPositive() && cb.PaidAmount.GreaterThanOrEqual(cb.CompanyShare):
		cb.Status = ConventionStatusPaid
	case cb.PaidAmount.IsPositive():
		cb.Status = ConventionStatusPartial
	}
}

// ApplyCompanyPayment registra un pago de la convención, incrementa paidAmount y recalcula estados.
// El pago se imputa a las líneas en orden, hasta su parte convención.
func (i *Invoice) ApplyCompanyPayment(p Payment) {
	p.Payer = PayerCompany
	remaining := p.Amount
	alreadyPaid := i.CompanyBilling.PaidAmount
	for _, it := range i.Items {
		if !remaining.IsPositive() {
			break
		}
		share := it.CompanyShare
		// Consumir primero lo ya pagado en pagos anteriores.
		if alreadyPaid.GreaterThanOrEqual(share) {
			alreadyPaid = alreadyPaid.Sub(share)
			continue
		}
		open := share.Sub(alreadyPaid)
		alreadyPaid = decimal.Zero
		amt := decimal.Min(open, remaining)
		p.Allocations = append(p.Allocations, PaymentAllocation{ItemCode: it.Code, Amount: amt})
		remaining = remaining.Sub(amt)
	}
	i.Payments = append(i.Payments, p)
	i.CompanyBilling.PaidAmount = i.CompanyBilling.PaidAmount.Add(p.Amount)
	i.RecalculateStatus()
}

// RecalculateCompanyBilling recalcula los totales convención/paciente a partir de las líneas.
// Con maxPerVisit el total convención se limita al tope y el excedente pasa al paciente,
// sin redistribuir por línea.
func (i *Invoice) RecalculateCompanyBilling(maxPerVisit *decimal.Decimal) {
	if !i.IsConvention() {
		return
	}
	company, total := decimal.Zero, decimal.Zero
	for _, it := range i.Items {
		company = company.Add(it.CompanyShare)
		total = total.Add(it.Total)
	}
	i.CompanyBilling.VisitCapExcess = decimal.Zero
	if maxPerVisit != nil && company.GreaterThan(*maxPerVisit) {
		i.CompanyBilling.VisitCapExcess = company.Sub(*maxPerVisit)
		company = *maxPerVisit
	}
	i.CompanyBilling.CompanyShare = company
	i.CompanyBilling.PatientShare = total.Sub(company)
	if total.IsPositive() {
		i.CompanyBilling.CoveragePercentage = company.Div(total).Mul(decimal.NewFromInt(100)).Round(2)
	} else {
		i.CompanyBilling.CoveragePercentage = decimal.Zero
	}
}

// CompanyShareByCategory parte convención realmente adeudada por categoría (clave en minúsculas).
// Si el tope por visita recortó el total, el recorte se reparte a prorrata entre categorías;
// la última categoría en orden alfabético absorbe el redondeo para que la suma sea CompanyShare.
func (i *Invoice) CompanyShareByCategory() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	if !i.IsConvention() {
		return out
	}
	lines := decimal.Zero
	for _, it := range i.Items {
		key := strings.ToLower(strings.TrimSpace(it.Category))
		out[key] = out[key].Add(it.CompanyShare)
		lines = lines.Add(it.CompanyShare)
	}
	excess := i.CompanyBilling.VisitCapExcess
	if !excess.IsPositive() || !lines.IsPositive() {
		return out
	}

	owed := decimal.Max(lines.Sub(excess), decimal.Zero)
	keys := make([]string, 0, len(out))
	for k := range out {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	assigned := decimal.Zero
	for n, k := range keys {
		if n == len(keys)-1 {
			out[k] = owed.Sub(assigned)
			break
		}
		share := out[k].Mul(owed).Div(lines).Round(0)
		out[k] = share
		assigned = assigned.Add(share)
	}
	return out
}
