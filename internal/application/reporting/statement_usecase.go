package reporting

import (
	"context"
	"fmt"
	"sort"

	"github.com/xtm888/medflow-clinic-sub000/internal/application/dto"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/repository"
	"github.com/xtm888/medflow-clinic-sub000/pkg/clock"
)

// StatementUseCase estado de cuenta de una convención.
type StatementUseCase struct {
	companyRepo repository.CompanyRepository
	invoiceRepo repository.InvoiceRepository
	renderer    Renderer
	clock       clock.Clock
	settings    Settings
}

// NewStatementUseCase construye el caso de uso. renderer puede ser nil si no se exporta PDF.
func NewStatementUseCase(companyRepo repository.CompanyRepository, invoiceRepo repository.InvoiceRepository, renderer Renderer, clk clock.Clock, settings Settings) *StatementUseCase {
	return &StatementUseCase{
		companyRepo: companyRepo,
		invoiceRepo: invoiceRepo,
		renderer:    renderer,
		clock:       clk,
		settings:    settings,
	}
}

// BuildStatement lista en orden cronológico la parte convención de cada factura (débito) y
// los pagos de la convención (crédito) dentro del rango. Saldo = Σdébitos − Σcréditos.
func (uc *StatementUseCase) BuildStatement(ctx context.Context, companyID string, in dto.StatementRequest) (*dto.StatementResponse, error) {
	from, to, err := dateRange(in.From, in.To)
	if err != nil {
		return nil, err
	}
	company, err := loadCompany(ctx, uc.companyRepo, companyID)
	if err != nil {
		return nil, err
	}
	// Los pagos del rango pueden corresponder a facturas emitidas antes: se leen todas.
	invoices, err := uc.invoiceRepo.ListConvention(ctx, repository.InvoiceFilter{CompanyIDs: []string{company.ID}})
	if err != nil {
		return nil, fmt.Errorf("facturas de la convención: %w", err)
	}

	// ── 1. Movimientos ───────────────────────────────────────────────────────
	entries := make([]dto.StatementEntryDTO, 0, len(invoices))
	for _, inv := range invoices {
		if !posted(inv) {
			continue
		}
		if inRange(inv.DateIssued, from, to) {
			entries = append(entries, dto.StatementEntryDTO{
				Date:          inv.DateIssued,
				Type:          dto.StatementDebit,
				InvoiceID:     inv.ID,
				InvoiceNumber: inv.InvoiceNumber,
				PatientName:   inv.PatientName,
				Debit:         inv.CompanyBilling.CompanyShare,
			})
		}
		for _, p := range inv.Payments {
			if p.Payer != entity.PayerCompany || !inRange(p.Date, from, to) {
				continue
			}
			entries = append(entries, dto.StatementEntryDTO{
				Date:          p.Date,
				Type:          dto.StatementCredit,
				InvoiceID:     inv.ID,
				InvoiceNumber: inv.InvoiceNumber,
				PatientName:   inv.PatientName,
				Reference:     p.Reference,
				Credit:        p.Amount,
			})
		}
	}
	// Mismo día: débitos antes que créditos.
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Type != b.Type {
			return a.Type == dto.StatementDebit
		}
		return a.InvoiceNumber < b.InvoiceNumber
	})

	// ── 2. Saldo acumulado y totales ─────────────────────────────────────────
	var totals dto.StatementTotalsDTO
	for i := range entries {
		totals.Debit = totals.Debit.Add(entries[i].Debit)
		totals.Credit = totals.Credit.Add(entries[i].Credit)
		entries[i].Balance = totals.Debit.Sub(totals.Credit)
	}
	totals.Balance = totals.Debit.Sub(totals.Credit)

	now := uc.clock.Now()
	return &dto.StatementResponse{
		CompanyID:   company.ID,
		CompanyName: company.Name,
		From:        from,
		To:          to,
		GeneratedAt: now,
		DueDate:     now.AddDate(0, 0, uc.settings.StatementDueDays),
		Currency:    uc.settings.Currency,
		Entries:     entries,
		Totals:      totals,
	}, nil
}

// StatementPDF genera el estado de cuenta y lo renderiza en PDF.
func (uc *StatementUseCase) StatementPDF(ctx context.Context, companyID string, in dto.StatementRequest) ([]byte, error) {
	if uc.renderer == nil {
		return nil, fmt.Errorf("%w: exportación PDF no disponible", domain.ErrInvalidInput)
	}
	st, err := uc.BuildStatement(ctx, companyID, in)
	if err != nil {
		return nil, err
	}
	return uc.renderer.RenderStatement(st)
}
