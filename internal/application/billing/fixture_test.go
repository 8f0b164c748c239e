package billing_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/xtm888/medflow-clinic-sub000/internal/application/billing"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/coverage"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
	"github.com/xtm888/medflow-clinic-sub000/internal/infrastructure/memory"
	"github.com/xtm888/medflow-clinic-sub000/pkg/clock"
	"github.com/xtm888/medflow-clinic-sub000/pkg/currency"
	"github.com/xtm888/medflow-clinic-sub000/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func dp(v int64) *decimal.Decimal {
	x := decimal.NewFromInt(v)
	return &x
}

// recordingMetrics cuenta las observaciones de los casos de uso.
type recordingMetrics struct {
	mu        sync.Mutex
	conflicts map[string]int
	gates     map[string]int
	payments  int
	previews  int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{conflicts: map[string]int{}, gates: map[string]int{}}
}

func (m *recordingMetrics) ObserveCoverage(bool, []coverage.Warning) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.previews++
}

func (m *recordingMetrics) ObserveApprovalGate(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gates[status]++
}

func (m *recordingMetrics) ObservePayment(decimal.Decimal, decimal.Decimal, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments++
}

func (m *recordingMetrics) ObserveConflict(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts[op]++
}

// env casos de uso armados sobre el almacén en memoria.
type env struct {
	store     *memory.Store
	clock     *clock.Fake
	metrics   *recordingMetrics
	coverage  *billing.CoverageUseCase
	approvals *billing.ApprovalUseCase
	invoices  *billing.InvoiceUseCase
	payments  *billing.PaymentUseCase
}

func newEnv(t *testing.T) *env {
	return newEnvWithTx(t, nil)
}

// newEnvWithTx permite reemplazar el TxRunner (nil = el propio almacén).
func newEnvWithTx(t *testing.T, wrap func(*memory.Store) billing.BillingTxRunner) *env {
	t.Helper()
	store := memory.NewStore()
	var tx billing.BillingTxRunner = store
	if wrap != nil {
		tx = wrap(store)
	}
	clk := clock.NewFake(testNow)
	metrics := newRecordingMetrics()
	log := logger.NewNop()
	settings := billing.Settings{ClinicCurrency: "CDF"}
	conv := currency.NewFixedRate("USD", map[string]decimal.Decimal{"CDF": d(2800)})

	usage := billing.NewUsageTracker(store.Invoices())
	coverageUC := billing.NewCoverageUseCase(store.Companies(), store.Patients(), store.FeeSchedules(), usage, conv, clk, metrics, settings)
	approvalUC := billing.NewApprovalUseCase(tx, store.Companies(), store.Patients(), store.Approvals(), conv, clk, metrics, log, settings)
	return &env{
		store:     store,
		clock:     clk,
		metrics:   metrics,
		coverage:  coverageUC,
		approvals: approvalUC,
		invoices:  billing.NewInvoiceUseCase(tx, coverageUC, approvalUC, log),
		payments:  billing.NewPaymentUseCase(tx, clk, metrics, log, settings),
	}
}

// company registra una convención activa con 80% por defecto.
func (e *env) company(t *testing.T, mutate func(*entity.Company)) *entity.Company {
	t.Helper()
	c := &entity.Company{
		ID:             "c-1",
		Code:           "ACME",
		Name:           "ACME SARL",
		ContractStatus: entity.ContractStatusActive,
		DefaultCoverage: entity.DefaultCoverage{
			Percentage: d(80),
			Currency:   "CDF",
		},
	}
	if mutate != nil {
		mutate(c)
	}
	require.NoError(t, e.store.Companies().Create(context.Background(), c))
	return c
}

func (e *env) patient(t *testing.T, id, companyID string) *entity.Patient {
	t.Helper()
	p := &entity.Patient{
		ID:        id,
		FirstName: "Marie",
		LastName:  "Kabila",
		Convention: &entity.PatientConvention{
			CompanyID: companyID,
			Active:    true,
		},
	}
	require.NoError(t, e.store.Patients().Create(context.Background(), p))
	return p
}

// invoice registra una factura de convención ya emitida con un único ítem.
// patientPaid simula que el paciente ya pagó su parte.
func (e *env) invoice(t *testing.T, id string, issued time.Time, total, companyShare int64, patientPaid bool) *entity.Invoice {
	t.Helper()
	inv := &entity.Invoice{
		ID:            id,
		InvoiceNumber: "F-" + id,
		PatientID:     "p-1",
		Items: []entity.InvoiceItem{{
			Code: "CON-01", Category: "consultation",
			Quantity: d(1), UnitPrice: d(total), Total: d(total),
			EligibleCompanyShare: d(companyShare), CompanyShare: d(companyShare), PatientShare: d(total - companyShare),
		}},
		CompanyBilling: &entity.CompanyBilling{CompanyID: "c-1", CompanyName: "ACME SARL", Status: entity.ConventionStatusSent},
		Total:          d(total),
		Status:         entity.InvoiceStatusIssued,
		DateIssued:     issued,
	}
	inv.RecalculateCompanyBilling(nil)
	if patientPaid && total > companyShare {
		inv.Payments = append(inv.Payments, entity.Payment{ID: "pp-" + id, Amount: d(total - companyShare), Payer: entity.PayerPatient, Method: "cash"})
		inv.RecalculateStatus()
	}
	ctx := context.Background()
	require.NoError(t, e.store.Invoices().Create(ctx, inv))
	_, err := e.store.Companies().AdjustBalance(ctx, "c-1", d(companyShare), decimal.Zero)
	require.NoError(t, err)
	return inv
}
