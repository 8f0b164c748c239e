// Package payment planifica la imputación de un pago de convención sobre facturas pendientes.
// El plan es determinista: el mismo monto y las mismas facturas producen siempre el mismo reparto.
package payment

import (
	"github.com/shopspring/decimal"
)

// Candidate factura candidata, ya en el orden de imputación.
type Candidate struct {
	InvoiceID     string
	InvoiceNumber string
	CompanyDue    decimal.Decimal // companyShare − paidAmount
}

// Allocation monto imputado a una factura.
type Allocation struct {
	InvoiceID       string
	InvoiceNumber   string
	AllocatedAmount decimal.Decimal
	BalanceBefore   decimal.Decimal
	BalanceAfter    decimal.Decimal
}

// Result resultado del plan. TotalAllocated + Unallocated == monto del pago.
type Result struct {
	Allocations    []Allocation
	TotalAllocated decimal.Decimal
	Unallocated    decimal.Decimal
}

// Plan reparte amount sobre las candidatas en el orden recibido. Las facturas sin saldo se
// omiten; el sobrante no es un error y se devuelve en Unallocated.
func Plan(amount decimal.Decimal, candidates []Candidate) Result {
	res := Result{TotalAllocated: decimal.Zero}
	remaining := amount
	for _, c := range candidates {
		if !remaining.IsPositive() {
			break
		}
		if !c.CompanyDue.IsPositive() {
			continue
		}
		allocated := decimal.Min(remaining, c.CompanyDue)
		res.Allocations = append(res.Allocations, Allocation{
			InvoiceID:       c.InvoiceID,
			InvoiceNumber:   c.InvoiceNumber,
			AllocatedAmount: allocated,
			BalanceBefore:   c.CompanyDue,
			BalanceAfter:    c.CompanyDue.Sub(allocated),
		})
		res.TotalAllocated = res.TotalAllocated.Add(allocated)
		remaining = remaining.Sub(allocated)
	}
	res.Unallocated = remaining
	return res
}
