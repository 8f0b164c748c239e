package dto

import (
	"github.com/shopspring/decimal"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
)

// AllocatePaymentRequest body para POST /api/conventions/:id/payments.
// Sin invoice_ids se imputa a las facturas pendientes de la más antigua a la más reciente.
type AllocatePaymentRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Method     string          `json:"method"`
	Reference  string          `json:"reference,omitempty"`
	Notes      string          `json:"notes,omitempty"`
	Date       string          `json:"date,omitempty"`
	InvoiceIDs []string        `json:"invoice_ids,omitempty"`
}

// PaymentAllocationDTO imputación a una factura.
type PaymentAllocationDTO struct {
	InvoiceID     string          `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Allocated     decimal.Decimal `json:"allocated"`
	DueBefore     decimal.Decimal `json:"due_before"`
	DueAfter      decimal.Decimal `json:"due_after"`
	Status        string          `json:"status"`
	PaymentID     string          `json:"payment_id"`
}

// AllocatePaymentResponse resultado de la imputación.
type AllocatePaymentResponse struct {
	CompanyID      string                 `json:"company_id"`
	Amount         decimal.Decimal        `json:"amount"`
	Currency       string                 `json:"currency"`
	Allocations    []PaymentAllocationDTO `json:"allocations"`
	TotalAllocated decimal.Decimal        `json:"total_allocated"`
	Unallocated    decimal.Decimal        `json:"unallocated"`
	NewBalance     entity.CompanyBalance  `json:"new_balance"`
}
