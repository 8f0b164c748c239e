package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/repository"
)

// UsageTracker consulta el consumo anual de la convención por categoría.
type UsageTracker struct {
	invoiceRepo repository.InvoiceRepository
}

// NewUsageTracker construye el tracker.
func NewUsageTracker(invoiceRepo repository.InvoiceRepository) *UsageTracker {
	return &UsageTracker{invoiceRepo: invoiceRepo}
}

// YearToDate devuelve la parte convención ya facturada por categoría en el año calendario
// (1 de enero a 31 de diciembre inclusive) para el paciente y la convención.
func (t *UsageTracker) YearToDate(ctx context.Context, patientID, companyID string, year int) (map[string]decimal.Decimal, error) {
	if patientID == "" || companyID == "" || year <= 0 {
		return nil, domain.ErrInvalidInput
	}
	from, to := YearRange(year)
	usage, err := t.invoiceRepo.CategoryUsage(ctx, patientID, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("consumo anual: %w", err)
	}
	if usage == nil {
		usage = map[string]decimal.Decimal{}
	}
	return usage, nil
}

// YearRange primer y último instante del año calendario en UTC.
func YearRange(year int) (time.Time, time.Time) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 23, 59, 59, 999999999, time.UTC)
	return from, to
}
