package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xtm888/medflow-clinic-sub000/internal/application/dto"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/coverage"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/repository"
	"github.com/xtm888/medflow-clinic-sub000/pkg/logger"
)

// InvoiceUseCase crea facturas de convención. El reparto se recalcula en el momento de facturar
// (nunca se reutiliza una vista previa) y cada línea pasa por el control de aprobación.
type InvoiceUseCase struct {
	txRunner  BillingTxRunner
	coverage  *CoverageUseCase
	approvals *ApprovalUseCase
	log       *logger.Logger
}

// NewInvoiceUseCase construye el caso de uso.
func NewInvoiceUseCase(txRunner BillingTxRunner, coverageUC *CoverageUseCase, approvalUC *ApprovalUseCase, log *logger.Logger) *InvoiceUseCase {
	return &InvoiceUseCase{
		txRunner:  txRunner,
		coverage:  coverageUC,
		approvals: approvalUC,
		log:       log.Component("invoices"),
	}
}

// CreateConventionInvoice valora los ítems, aplica el control de aprobación y guarda la factura.
// Una convención con advertencias bloqueantes (contrato inactivo o vencido) no se factura.
func (uc *InvoiceUseCase) CreateConventionInvoice(ctx context.Context, companyID string, in dto.CreateConventionInvoiceRequest) (*dto.InvoiceResponse, error) {
	status := entity.InvoiceStatus(strings.TrimSpace(in.Status))
	switch status {
	case "":
		status = entity.InvoiceStatusIssued
	case entity.InvoiceStatusDraft, entity.InvoiceStatusIssued:
	default:
		return nil, fmt.Errorf("%w: estado inicial %q", domain.ErrInvalidInput, in.Status)
	}
	at, err := uc.coverage.valuationDate(in.Date)
	if err != nil {
		return nil, err
	}
	company, err := loadCompany(ctx, uc.coverage.companyRepo, companyID)
	if err != nil {
		return nil, err
	}
	patient, err := loadPatient(ctx, uc.coverage.patientRepo, in.PatientID)
	if err != nil {
		return nil, err
	}

	// ── 1. Cálculo de cobertura con las reglas vigentes ──────────────────────
	calc, err := uc.coverage.calculate(ctx, company, patient, in.Items, at)
	if err != nil {
		return nil, err
	}
	uc.coverage.metrics.ObserveCoverage(calc.result.CanProceed, calc.result.Warnings)
	if !calc.result.CanProceed {
		return nil, fmt.Errorf("%w: la convención no admite facturación", domain.ErrInvalidInput)
	}

	// ── 2. Líneas con control de aprobación ──────────────────────────────────
	items := make([]entity.InvoiceItem, 0, len(calc.result.Items))
	for _, r := range calc.result.Items {
		it := entity.InvoiceItem{
			Code:                 r.Code,
			Description:          r.Description,
			Category:             r.Category,
			Quantity:             r.Quantity,
			UnitPrice:            r.UnitPrice,
			Discount:             r.Discount,
			Total:                r.NetTotal,
			CoveragePercentage:   r.CoveragePercentage,
			EligibleCompanyShare: r.CompanyShare,
		}
		dec, err := uc.approvals.decide(ctx, company, patient.ID, r.Code, r.Category, r.UnitPrice, uc.coverage.settings.ClinicCurrency)
		if err != nil {
			return nil, err
		}
		coverage.ApplyGate(&it, dec)
		items = append(items, it)
	}

	number := strings.TrimSpace(in.InvoiceNumber)
	if number == "" {
		number = fmt.Sprintf("FAC-%s-%s", at.Format("20060102"), strings.ToUpper(uuid.NewString()[:8]))
	}
	now := uc.coverage.clock.Now()
	inv := &entity.Invoice{
		ID:            uuid.NewString(),
		InvoiceNumber: number,
		PatientID:     patient.ID,
		PatientName:   patient.FullName(),
		Items:         items,
		CompanyBilling: &entity.CompanyBilling{
			CompanyID:   company.ID,
			CompanyName: company.Name,
			Status:      entity.ConventionStatusPending,
		},
		Status:     status,
		DateIssued: at,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	inv.RecalculateCompanyBilling(company.DefaultCoverage.MaxPerVisit)
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Total)
	}
	inv.Total = total

	// ── 3. Persistir factura y saldo de la convención en una transacción ─────
	err = uc.txRunner.RunBilling(ctx, func(companyRepo repository.CompanyRepository, invoiceRepo repository.InvoiceRepository) error {
		if err := invoiceRepo.Create(ctx, inv); err != nil {
			return err
		}
		if inv.Status.IsPayable() && inv.CompanyBilling.CompanyShare.IsPositive() {
			if _, err := companyRepo.AdjustBalance(ctx, company.ID, inv.CompanyBilling.CompanyShare, decimal.Zero); err != nil {
				return fmt.Errorf("ajustar saldo: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("invoice_id", inv.ID).
		Str("company_id", company.ID).
		Str("company_share", inv.CompanyBilling.CompanyShare.String()).
		Msg("factura de convención creada")

	out := dto.InvoiceFromEntity(inv, calc.result.Warnings)
	return &out, nil
}
