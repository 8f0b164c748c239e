package reporting

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/xtm888/medflow-clinic-sub000/internal/application/dto"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/repository"
	"github.com/xtm888/medflow-clinic-sub000/pkg/clock"
)

// BatchInvoiceUseCase bordereau: facturas pendientes de la convención agrupadas por paciente o mes.
type BatchInvoiceUseCase struct {
	companyRepo repository.CompanyRepository
	invoiceRepo repository.InvoiceRepository
	renderer    Renderer
	clock       clock.Clock
	settings    Settings
}

// NewBatchInvoiceUseCase construye el caso de uso.
func NewBatchInvoiceUseCase(companyRepo repository.CompanyRepository, invoiceRepo repository.InvoiceRepository, renderer Renderer, clk clock.Clock, settings Settings) *BatchInvoiceUseCase {
	return &BatchInvoiceUseCase{
		companyRepo: companyRepo,
		invoiceRepo: invoiceRepo,
		renderer:    renderer,
		clock:       clk,
		settings:    settings,
	}
}

// BuildBatchInvoice agrupa las facturas no pagadas del rango. La referencia
// BATCH-{companyId}-{YYYYMMDD} usa la fecha de generación, no la de las facturas.
// Sin facturas devuelve domain.ErrInvalidInput envolviendo domain.ErrEmptySelection.
func (uc *BatchInvoiceUseCase) BuildBatchInvoice(ctx context.Context, companyID string, in dto.BatchInvoiceRequest) (*dto.BatchInvoiceResponse, error) {
	groupBy := strings.ToLower(strings.TrimSpace(in.GroupBy))
	if groupBy == "" {
		groupBy = dto.GroupByPatient
	}
	if groupBy != dto.GroupByPatient && groupBy != dto.GroupByMonth {
		return nil, fmt.Errorf("%w: group_by debe ser patient o month", domain.ErrInvalidInput)
	}
	from, to, err := dateRange(in.From, in.To)
	if err != nil {
		return nil, err
	}
	company, err := loadCompany(ctx, uc.companyRepo, companyID)
	if err != nil {
		return nil, err
	}
	invoices, err := uc.invoiceRepo.ListConvention(ctx, repository.InvoiceFilter{
		CompanyIDs: []string{company.ID},
		From:       from,
		To:         to,
	})
	if err != nil {
		return nil, fmt.Errorf("facturas de la convención: %w", err)
	}

	// ── 1. Selección y agrupación ────────────────────────────────────────────
	groups := make(map[string]*dto.BatchInvoiceGroupDTO)
	var summary dto.BatchSummaryDTO
	for _, inv := range invoices {
		if !unpaid(inv) {
			continue
		}
		key, label := groupKey(inv, groupBy)
		g, ok := groups[key]
		if !ok {
			g = &dto.BatchInvoiceGroupDTO{Key: key, Label: label}
			groups[key] = g
		}
		cb := inv.CompanyBilling
		total := cb.CompanyShare.Add(cb.PatientShare)
		g.Invoices = append(g.Invoices, dto.BatchInvoiceLineDTO{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			PatientName:   inv.PatientName,
			DateIssued:    inv.DateIssued,
			Total:         total,
			CompanyShare:  cb.CompanyShare,
			PatientShare:  cb.PatientShare,
			PaidAmount:    cb.PaidAmount,
		})
		g.InvoiceCount++
		g.Total = g.Total.Add(total)
		g.CompanyShare = g.CompanyShare.Add(cb.CompanyShare)
		g.PatientShare = g.PatientShare.Add(cb.PatientShare)

		summary.InvoiceCount++
		summary.Total = summary.Total.Add(total)
		summary.CompanyShare = summary.CompanyShare.Add(cb.CompanyShare)
		summary.PatientShare = summary.PatientShare.Add(cb.PatientShare)
		summary.PaidAmount = summary.PaidAmount.Add(cb.PaidAmount)
		summary.CompanyDue = summary.CompanyDue.Add(inv.CompanyDue())
	}
	if summary.InvoiceCount == 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, domain.ErrEmptySelection)
	}

	// ── 2. Orden determinista de los grupos ──────────────────────────────────
	out := make([]dto.BatchInvoiceGroupDTO, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if groupBy == dto.GroupByPatient && out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].Key < out[j].Key
	})
	summary.GroupCount = len(out)

	now := uc.clock.Now()
	return &dto.BatchInvoiceResponse{
		BatchReference: fmt.Sprintf("BATCH-%s-%s", company.ID, now.Format("20060102")),
		CompanyID:      company.ID,
		CompanyName:    company.Name,
		GroupBy:        groupBy,
		From:           from,
		To:             to,
		GeneratedAt:    now,
		Currency:       uc.settings.Currency,
		Groups:         out,
		Summary:        summary,
	}, nil
}

// BatchInvoicePDF genera el bordereau y lo renderiza en PDF.
func (uc *BatchInvoiceUseCase) BatchInvoicePDF(ctx context.Context, companyID string, in dto.BatchInvoiceRequest) ([]byte, error) {
	if uc.renderer == nil {
		return nil, fmt.Errorf("%w: exportación PDF no disponible", domain.ErrInvalidInput)
	}
	batch, err := uc.BuildBatchInvoice(ctx, companyID, in)
	if err != nil {
		return nil, err
	}
	return uc.renderer.RenderBatchInvoice(batch)
}

// unpaid facturas pendientes o parcialmente pagadas por la convención.
func unpaid(inv *entity.Invoice) bool {
	if !posted(inv) {
		return false
	}
	return inv.CompanyBilling.Status != entity.ConventionStatusPaid && inv.Status != entity.InvoiceStatusPaid
}

func groupKey(inv *entity.Invoice, groupBy string) (string, string) {
	if groupBy == dto.GroupByMonth {
		return inv.DateIssued.Format("2006-01"), monthLabel(inv.DateIssued.Month(), inv.DateIssued.Year())
	}
	label := inv.PatientName
	if label == "" {
		label = inv.PatientID
	}
	return inv.PatientID, label
}
