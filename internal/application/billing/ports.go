package billing

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/coverage"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/repository"
)

// BillingTxRunner ejecuta una función dentro de una transacción con los repos de convenciones y facturas.
// Si fn devuelve error se hace rollback de todas las escrituras.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(
		companyRepo repository.CompanyRepository,
		invoiceRepo repository.InvoiceRepository,
	) error) error
}

// Metrics registra métricas del motor. La implementación vive en infrastructure/metrics.
type Metrics interface {
	ObserveCoverage(canProceed bool, warnings []coverage.Warning)
	ObserveApprovalGate(status string)
	ObservePayment(allocated, unallocated decimal.Decimal, invoices int)
	ObserveConflict(operation string)
}

// NopMetrics no registra nada.
type NopMetrics struct{}

func (NopMetrics) ObserveCoverage(bool, []coverage.Warning)             {}
func (NopMetrics) ObserveApprovalGate(string)                           {}
func (NopMetrics) ObservePayment(decimal.Decimal, decimal.Decimal, int) {}
func (NopMetrics) ObserveConflict(string)                               {}

// Settings parámetros de facturación de la clínica.
type Settings struct {
	ClinicCurrency string // moneda de los precios (ej. CDF)
}
