package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xtm888/medflow-clinic-sub000/internal/application/dto"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/aging"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/repository"
	"github.com/xtm888/medflow-clinic-sub000/pkg/clock"
)

const dashboardParallelism = 4 // convenciones padre calculadas en paralelo

// DashboardUseCase tablero financiero por convención padre.
//
// Fuente de datos: repositorios de convenciones y facturas (solo lectura).
type DashboardUseCase struct {
	companyRepo repository.CompanyRepository
	invoiceRepo repository.InvoiceRepository
	clock       clock.Clock
	settings    Settings
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(companyRepo repository.CompanyRepository, invoiceRepo repository.InvoiceRepository, clk clock.Clock, settings Settings) *DashboardUseCase {
	return &DashboardUseCase{companyRepo: companyRepo, invoiceRepo: invoiceRepo, clock: clk, settings: settings}
}

// BuildFinancialDashboard agrega facturado, pagado, pendiente y antigüedad del año para cada
// convención padre y, si se pide, sus sub-empresas. Orden: pendiente consolidado descendente.
// year 0 = año en curso.
func (uc *DashboardUseCase) BuildFinancialDashboard(ctx context.Context, year int, includeSubCompanies bool) (*dto.FinancialDashboardResponse, error) {
	now := uc.clock.Now()
	if year == 0 {
		year = now.Year()
	}
	if year < 2000 || year > 9999 {
		return nil, fmt.Errorf("%w: año %d", domain.ErrInvalidInput, year)
	}
	parents, err := uc.companyRepo.ListParents(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard: convenciones padre: %w", err)
	}
	asOf := agingAsOf(year, now)

	// ── Una goroutine por convención padre ───────────────────────────────────
	rows := make([]dto.DashboardParentDTO, len(parents))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(dashboardParallelism)
	for i, parent := range parents {
		g.Go(func() error {
			row, err := uc.parentRow(gCtx, parent, year, asOf, includeSubCompanies)
			if err != nil {
				return fmt.Errorf("dashboard: convención %s: %w", parent.ID, err)
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Consolidated, rows[j].Consolidated
		if !a.Outstanding.Equal(b.Outstanding) {
			return a.Outstanding.GreaterThan(b.Outstanding)
		}
		return a.CompanyName < b.CompanyName
	})

	out := &dto.FinancialDashboardResponse{
		Year:                year,
		IncludeSubCompanies: includeSubCompanies,
		Currency:            uc.settings.Currency,
		PerParent:           rows,
	}
	for _, r := range rows {
		c := r.Consolidated
		out.GrandTotals.InvoiceCount += c.InvoiceCount
		out.GrandTotals.Billed = out.GrandTotals.Billed.Add(c.Billed)
		out.GrandTotals.Paid = out.GrandTotals.Paid.Add(c.Paid)
		out.GrandTotals.Outstanding = out.GrandTotals.Outstanding.Add(c.Outstanding)
		out.GrandTotals.Aging.Merge(c.Aging)
	}
	return out, nil
}

func (uc *DashboardUseCase) parentRow(ctx context.Context, parent *entity.Company, year int, asOf time.Time, includeSub bool) (dto.DashboardParentDTO, error) {
	own, err := uc.companyFigures(ctx, parent, year, asOf)
	if err != nil {
		return dto.DashboardParentDTO{}, err
	}
	row := dto.DashboardParentDTO{DashboardCompanyDTO: own, Consolidated: own}
	if !includeSub {
		return row, nil
	}
	children, err := uc.companyRepo.ListChildren(ctx, parent.ID)
	if err != nil {
		return dto.DashboardParentDTO{}, fmt.Errorf("sub-empresas: %w", err)
	}
	for _, child := range children {
		figs, err := uc.companyFigures(ctx, child, year, asOf)
		if err != nil {
			return dto.DashboardParentDTO{}, err
		}
		row.SubCompanies = append(row.SubCompanies, figs)
		c := &row.Consolidated
		c.InvoiceCount += figs.InvoiceCount
		c.Billed = c.Billed.Add(figs.Billed)
		c.Paid = c.Paid.Add(figs.Paid)
		c.Outstanding = c.Outstanding.Add(figs.Outstanding)
		c.Aging.Merge(figs.Aging)
	}
	return row, nil
}

// companyFigures cifras del año de una empresa: facturado = Σ companyShare, pagado = Σ paidAmount,
// pendiente = Σ saldo convención de las facturas no pagadas.
func (uc *DashboardUseCase) companyFigures(ctx context.Context, company *entity.Company, year int, asOf time.Time) (dto.DashboardCompanyDTO, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := dto.EndOfDay(time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC))
	invoices, err := uc.invoiceRepo.ListConvention(ctx, repository.InvoiceFilter{
		CompanyIDs: []string{company.ID},
		From:       &from,
		To:         &to,
	})
	if err != nil {
		return dto.DashboardCompanyDTO{}, fmt.Errorf("facturas: %w", err)
	}
	out := dto.DashboardCompanyDTO{
		CompanyID:   company.ID,
		CompanyName: company.Name,
	}
	for _, inv := range invoices {
		if !posted(inv) {
			continue
		}
		out.InvoiceCount++
		out.Billed = out.Billed.Add(inv.CompanyBilling.CompanyShare)
		out.Paid = out.Paid.Add(inv.CompanyBilling.PaidAmount)
		if due, ok := outstandingOf(inv); ok {
			out.Outstanding = out.Outstanding.Add(due)
			out.Aging.Add(aging.Classify(aging.AgeInDays(inv.DateIssued, asOf)), due)
		}
	}
	return out, nil
}
