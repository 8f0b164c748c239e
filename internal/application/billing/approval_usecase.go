package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xtm888/medflow-clinic-sub000/internal/application/dto"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/coverage"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/repository"
	"github.com/xtm888/medflow-clinic-sub000/pkg/clock"
	"github.com/xtm888/medflow-clinic-sub000/pkg/logger"
)

// ApprovalUseCase control de aprobación previa (délibération) de actos.
// Una aprobación faltante nunca es un error: la parte convención queda en cero.
type ApprovalUseCase struct {
	txRunner     BillingTxRunner
	companyRepo  repository.CompanyRepository
	patientRepo  repository.PatientRepository
	approvalRepo repository.ApprovalRepository
	converter    coverage.Converter
	clock        clock.Clock
	metrics      Metrics
	log          *logger.Logger
	settings     Settings
}

// NewApprovalUseCase construye el caso de uso.
func NewApprovalUseCase(
	txRunner BillingTxRunner,
	companyRepo repository.CompanyRepository,
	patientRepo repository.PatientRepository,
	approvalRepo repository.ApprovalRepository,
	converter coverage.Converter,
	clk clock.Clock,
	metrics Metrics,
	log *logger.Logger,
	settings Settings,
) *ApprovalUseCase {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &ApprovalUseCase{
		txRunner:     txRunner,
		companyRepo:  companyRepo,
		patientRepo:  patientRepo,
		approvalRepo: approvalRepo,
		converter:    converter,
		clock:        clk,
		metrics:      metrics,
		log:          log.Component("approvals"),
		settings:     settings,
	}
}

// GateApproval indica si el acto requiere aprobación y si el paciente tiene una vigente.
func (uc *ApprovalUseCase) GateApproval(ctx context.Context, companyID string, in dto.ApprovalGateRequest) (*dto.ApprovalGateResponse, error) {
	if strings.TrimSpace(in.Code) == "" || in.UnitPrice.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	company, err := loadCompany(ctx, uc.companyRepo, companyID)
	if err != nil {
		return nil, err
	}
	patient, err := loadPatient(ctx, uc.patientRepo, in.PatientID)
	if err != nil {
		return nil, err
	}
	currency := in.Currency
	if currency == "" {
		currency = uc.settings.ClinicCurrency
	}

	dec, err := uc.decide(ctx, company, patient.ID, in.Code, in.Category, in.UnitPrice, currency)
	if err != nil {
		return nil, err
	}
	return &dto.ApprovalGateResponse{
		RequiresApproval: dec.Required,
		CategoryLevel:    dec.CategoryLevel,
		AutoApproved:     dec.AutoApproved,
		HasApproval:      dec.HasApproval,
		ApprovalID:       dec.ApprovalID,
		ApprovalStatus:   dec.ApprovalStatus,
	}, nil
}

// RecalculateInvoice vuelve a pasar todas las líneas de una factura por el control de aprobación,
// recalcula los totales de la convención y persiste con control de versión.
// Devuelve domain.ErrStateConflict si la factura cambió durante el recálculo.
func (uc *ApprovalUseCase) RecalculateInvoice(ctx context.Context, invoiceID string) (*dto.InvoiceResponse, error) {
	if strings.TrimSpace(invoiceID) == "" {
		return nil, domain.ErrInvalidInput
	}
	var out dto.InvoiceResponse
	err := uc.txRunner.RunBilling(ctx, func(companyRepo repository.CompanyRepository, invoiceRepo repository.InvoiceRepository) error {
		// ── 1. Cargar factura y convención ───────────────────────────────────
		inv, err := invoiceRepo.GetByID(ctx, invoiceID)
		if err != nil {
			return fmt.Errorf("obtener factura: %w", err)
		}
		if inv == nil {
			return domain.ErrNotFound
		}
		if !inv.IsConvention() {
			return fmt.Errorf("%w: la factura no tiene parte convención", domain.ErrInvalidInput)
		}
		if inv.Status.IsTerminal() {
			return fmt.Errorf("%w: factura en estado %s", domain.ErrInvalidInput, inv.Status)
		}
		company, err := loadCompany(ctx, companyRepo, inv.CompanyBilling.CompanyID)
		if err != nil {
			return err
		}

		// ── 2. Control de aprobación por línea (fail-closed) ─────────────────
		before := inv.CompanyBilling.CompanyShare
		for i := range inv.Items {
			it := &inv.Items[i]
			dec, err := uc.decide(ctx, company, inv.PatientID, it.Code, it.Category, it.UnitPrice, uc.settings.ClinicCurrency)
			if err != nil {
				return err
			}
			coverage.ApplyGate(it, dec)
		}
		inv.RecalculateCompanyBilling(company.DefaultCoverage.MaxPerVisit)
		inv.RecalculateStatus()
		inv.UpdatedAt = uc.clock.Now()

		// ── 3. Persistir con control de versión y ajustar el saldo ───────────
		if err := invoiceRepo.Update(ctx, inv); err != nil {
			return err
		}
		if delta := inv.CompanyBilling.CompanyShare.Sub(before); !delta.IsZero() && inv.Status.IsPayable() {
			if _, err := companyRepo.AdjustBalance(ctx, company.ID, delta, decimal.Zero); err != nil {
				return fmt.Errorf("ajustar saldo: %w", err)
			}
		}
		out = dto.InvoiceFromEntity(inv, nil)
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrStateConflict) {
			uc.metrics.ObserveConflict("approval_recalculate")
		}
		return nil, err
	}
	uc.log.Info().
		Str("invoice_id", out.ID).
		Str("company_share", out.CompanyShare.String()).
		Int("version", out.Version).
		Msg("aprobaciones recalculadas")
	return &out, nil
}

// decide busca la aprobación vigente y aplica el control.
func (uc *ApprovalUseCase) decide(ctx context.Context, company *entity.Company, patientID, code, category string, price decimal.Decimal, currency string) (coverage.Decision, error) {
	now := uc.clock.Now()
	in := coverage.ApprovalInput{ActCode: code, Category: category, Price: price, PriceCurrency: currency}
	req := coverage.RequirementFor(company, in, uc.converter)

	var approval *entity.Approval
	if req.Required {
		a, err := uc.approvalRepo.FindValid(ctx, patientID, company.ID, code, now)
		if err != nil {
			return coverage.Decision{}, fmt.Errorf("buscar aprobación: %w", err)
		}
		approval = a
	}
	dec := coverage.Decide(req, approval, now)
	uc.metrics.ObserveApprovalGate(dec.ApprovalStatus)
	return dec, nil
}
