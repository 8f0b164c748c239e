package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/xtm888/medflow-clinic-sub000/internal/application/dto"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/payment"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/repository"
	"github.com/xtm888/medflow-clinic-sub000/pkg/clock"
	"github.com/xtm888/medflow-clinic-sub000/pkg/logger"
)

// PaymentUseCase imputa pagos de convenciones sobre sus facturas pendientes.
type PaymentUseCase struct {
	txRunner BillingTxRunner
	clock    clock.Clock
	metrics  Metrics
	log      *logger.Logger
	settings Settings
}

// NewPaymentUseCase construye el caso de uso.
func NewPaymentUseCase(txRunner BillingTxRunner, clk clock.Clock, metrics Metrics, log *logger.Logger, settings Settings) *PaymentUseCase {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &PaymentUseCase{
		txRunner: txRunner,
		clock:    clk,
		metrics:  metrics,
		log:      log.Component("payments"),
		settings: settings,
	}
}

// AllocatePayment reparte el pago sobre las facturas indicadas (en ese orden) o, sin lista,
// sobre las facturas pendientes de la convención de la más antigua a la más reciente.
//
// Todo ocurre en una transacción: cada factura se escribe con control de versión y, si alguna
// cambió desde la lectura, se devuelve domain.ErrStateConflict sin aplicar nada. Las facturas
// inexistentes o ajenas de la lista se omiten y su parte queda en el sobrante.
func (uc *PaymentUseCase) AllocatePayment(ctx context.Context, companyID string, in dto.AllocatePaymentRequest) (*dto.AllocatePaymentResponse, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: el monto debe ser positivo", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.Method) == "" {
		return nil, fmt.Errorf("%w: método de pago requerido", domain.ErrInvalidInput)
	}
	paidAt := uc.clock.Now()
	if d, err := dto.ParseDate(in.Date); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	} else if d != nil {
		paidAt = *d
	}
	currency := in.Currency
	if currency == "" {
		currency = uc.settings.ClinicCurrency
	}

	out := &dto.AllocatePaymentResponse{
		CompanyID: companyID,
		Amount:    in.Amount,
		Currency:  currency,
	}
	err := uc.txRunner.RunBilling(ctx, func(companyRepo repository.CompanyRepository, invoiceRepo repository.InvoiceRepository) error {
		// ── 1. Convención y facturas candidatas ───────────────────────────────
		if _, err := loadCompany(ctx, companyRepo, companyID); err != nil {
			return err
		}
		invoices, err := uc.candidates(ctx, invoiceRepo, companyID, in.InvoiceIDs)
		if err != nil {
			return err
		}
		byID := make(map[string]*entity.Invoice, len(invoices))
		candidates := make([]payment.Candidate, 0, len(invoices))
		for _, inv := range invoices {
			byID[inv.ID] = inv
			candidates = append(candidates, payment.Candidate{
				InvoiceID:     inv.ID,
				InvoiceNumber: inv.InvoiceNumber,
				CompanyDue:    inv.CompanyDue(),
			})
		}

		// ── 2. Plan determinista e imputación por factura ─────────────────────
		plan := payment.Plan(in.Amount, candidates)
		for _, a := range plan.Allocations {
			inv := byID[a.InvoiceID]
			p := entity.Payment{
				ID:        uuid.NewString(),
				Amount:    a.AllocatedAmount,
				Currency:  currency,
				Method:    in.Method,
				Date:      paidAt,
				Reference: in.Reference,
				Notes:     in.Notes,
			}
			inv.ApplyCompanyPayment(p)
			inv.UpdatedAt = uc.clock.Now()
			if err := invoiceRepo.Update(ctx, inv); err != nil {
				return fmt.Errorf("factura %s: %w", inv.InvoiceNumber, err)
			}
			out.Allocations = append(out.Allocations, dto.PaymentAllocationDTO{
				InvoiceID:     inv.ID,
				InvoiceNumber: inv.InvoiceNumber,
				Allocated:     a.AllocatedAmount,
				DueBefore:     a.BalanceBefore,
				DueAfter:      a.BalanceAfter,
				Status:        string(inv.Status),
				PaymentID:     p.ID,
			})
		}
		out.TotalAllocated = plan.TotalAllocated
		out.Unallocated = plan.Unallocated

		// ── 3. Saldo corriente de la convención ──────────────────────────────
		balance, err := companyRepo.AdjustBalance(ctx, companyID, plan.TotalAllocated.Neg(), plan.TotalAllocated)
		if err != nil {
			return fmt.Errorf("ajustar saldo: %w", err)
		}
		out.NewBalance = balance
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrStateConflict) {
			uc.metrics.ObserveConflict("payment_allocation")
			uc.log.Warn().Str("company_id", companyID).Msg("imputación en conflicto, reintentar con lectura nueva")
		}
		return nil, err
	}
	if out.Allocations == nil {
		out.Allocations = []dto.PaymentAllocationDTO{}
	}

	uc.metrics.ObservePayment(out.TotalAllocated, out.Unallocated, len(out.Allocations))
	uc.log.Info().
		Str("company_id", companyID).
		Str("amount", in.Amount.String()).
		Str("allocated", out.TotalAllocated.String()).
		Str("unallocated", out.Unallocated.String()).
		Int("invoices", len(out.Allocations)).
		Msg("pago de convención imputado")
	return out, nil
}

// candidates facturas a imputar en orden. Con lista explícita se respeta su orden, se ignoran
// duplicados y se omiten las que no existen, son de otra convención o no admiten pagos.
func (uc *PaymentUseCase) candidates(ctx context.Context, invoiceRepo repository.InvoiceRepository, companyID string, ids []string) ([]*entity.Invoice, error) {
	if len(ids) == 0 {
		list, err := invoiceRepo.ListPayableByCompany(ctx, companyID)
		if err != nil {
			return nil, fmt.Errorf("facturas pendientes: %w", err)
		}
		return list, nil
	}
	seen := make(map[string]bool, len(ids))
	out := make([]*entity.Invoice, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		inv, err := invoiceRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("obtener factura %s: %w", id, err)
		}
		if inv == nil || !inv.IsConvention() || inv.CompanyBilling.CompanyID != companyID || !inv.Status.IsPayable() {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}
