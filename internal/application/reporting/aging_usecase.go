package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xtm888/medflow-clinic-sub000/internal/application/dto"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/aging"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/repository"
	"github.com/xtm888/medflow-clinic-sub000/pkg/clock"
)

// AgingUseCase antigüedad de saldos de todas las convenciones.
type AgingUseCase struct {
	companyRepo repository.CompanyRepository
	invoiceRepo repository.InvoiceRepository
	clock       clock.Clock
	settings    Settings
}

// NewAgingUseCase construye el caso de uso.
func NewAgingUseCase(companyRepo repository.CompanyRepository, invoiceRepo repository.InvoiceRepository, clk clock.Clock, settings Settings) *AgingUseCase {
	return &AgingUseCase{companyRepo: companyRepo, invoiceRepo: invoiceRepo, clock: clk, settings: settings}
}

// BuildAgingReport clasifica el saldo convención (companyShare − paidAmount) de cada factura
// pendiente emitida hasta la fecha de corte. asOf vacío = hoy.
func (uc *AgingUseCase) BuildAgingReport(ctx context.Context, asOfStr string) (*dto.AgingReportResponse, error) {
	_, asOfPtr, err := dateRange("", asOfStr)
	if err != nil {
		return nil, err
	}
	asOf := uc.clock.Now()
	if asOfPtr != nil {
		asOf = *asOfPtr
	}
	invoices, err := uc.invoiceRepo.ListConvention(ctx, repository.InvoiceFilter{To: &asOf})
	if err != nil {
		return nil, fmt.Errorf("facturas de convención: %w", err)
	}

	perCompany := make(map[string]*dto.AgingCompanyDTO)
	for _, inv := range invoices {
		outstanding, ok := outstandingOf(inv)
		if !ok {
			continue
		}
		cb := inv.CompanyBilling
		row, exists := perCompany[cb.CompanyID]
		if !exists {
			row = &dto.AgingCompanyDTO{CompanyID: cb.CompanyID, CompanyName: cb.CompanyName}
			perCompany[cb.CompanyID] = row
		}
		days := aging.AgeInDays(inv.DateIssued, asOf)
		bucket := aging.Classify(days)
		row.Totals.Add(bucket, outstanding)
		row.Invoices = append(row.Invoices, dto.AgingInvoiceDTO{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			DateIssued:    inv.DateIssued,
			AgeDays:       days,
			Bucket:        bucket,
			Outstanding:   outstanding,
		})
	}

	out := &dto.AgingReportResponse{
		AsOf:       asOf,
		Currency:   uc.settings.Currency,
		PerCompany: make([]dto.AgingCompanyDTO, 0, len(perCompany)),
	}
	for _, row := range perCompany {
		if company, err := uc.companyRepo.GetByID(ctx, row.CompanyID); err != nil {
			return nil, fmt.Errorf("obtener convención: %w", err)
		} else if company != nil {
			row.CompanyName = company.Name
		}
		out.GrandTotals.Merge(row.Totals)
		out.PerCompany = append(out.PerCompany, *row)
	}
	sort.Slice(out.PerCompany, func(i, j int) bool {
		a, b := out.PerCompany[i], out.PerCompany[j]
		if !a.Totals.Total.Equal(b.Totals.Total) {
			return a.Totals.Total.GreaterThan(b.Totals.Total)
		}
		return a.CompanyID < b.CompanyID
	})
	return out, nil
}

// outstandingOf saldo convención de una factura emitida, no pagada ni anulada.
func outstandingOf(inv *entity.Invoice) (outstanding decimal.Decimal, ok bool) {
	if !posted(inv) || inv.Status == entity.InvoiceStatusPaid || inv.CompanyBilling.Status == entity.ConventionStatusPaid {
		return outstanding, false
	}
	due := inv.CompanyDue()
	if !due.IsPositive() {
		return outstanding, false
	}
	return due, true
}

// agingAsOf fecha de corte del tablero: fin del año pedido o hoy si el año está en curso.
func agingAsOf(year int, now time.Time) time.Time {
	end := dto.EndOfDay(time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC))
	if now.Before(end) {
		return now
	}
	return end
}
