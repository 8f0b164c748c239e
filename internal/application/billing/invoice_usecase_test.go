package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtm888/medflow-clinic-sub000/internal/application/dto"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/coverage"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/repository"
)

func echoRequiresApproval(c *entity.Company) {
	c.ActsRequiringApproval = []entity.ActApproval{{ActCode: "ECHO-01", RequiresApproval: true}}
}

func TestCreateConventionInvoice_MissingApprovalZeroesCompanyShare(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.company(t, echoRequiresApproval)
	e.patient(t, "p-1", "c-1")

	res, err := e.invoices.CreateConventionInvoice(ctx, "c-1", dto.CreateConventionInvoiceRequest{
		PatientID: "p-1",
		Items: []dto.BillableItemRequest{
			{Code: "ECHO-01", Category: "imaging", Quantity: d(1), UnitPrice: d(100000)},
			{Code: "CON-01", Category: "consultation", Quantity: d(1), UnitPrice: d(20000)},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)

	assert.Equal(t, entity.ApprovalStatusMissing, res.Items[0].ApprovalStatus)
	assert.True(t, res.Items[0].CompanyShare.IsZero())
	assert.True(t, res.Items[0].PatientShare.Equal(d(100000)))
	assert.Equal(t, entity.ApprovalStatusNotRequired, res.Items[1].ApprovalStatus)
	assert.True(t, res.CompanyShare.Equal(d(16000)))
	assert.True(t, res.PatientShare.Equal(d(104000)))
	assert.Equal(t, string(entity.InvoiceStatusIssued), res.Status)
	assert.Equal(t, 1, res.Version)
	assert.Equal(t, 1, e.metrics.gates[entity.ApprovalStatusMissing])

	company, _ := e.store.Companies().GetByID(ctx, "c-1")
	assert.True(t, company.Balance.Outstanding.Equal(d(16000)))
}

func TestRecalculateInvoice_RestoresShareOnceApproved(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.company(t, echoRequiresApproval)
	e.patient(t, "p-1", "c-1")

	res, err := e.invoices.CreateConventionInvoice(ctx, "c-1", dto.CreateConventionInvoiceRequest{
		PatientID: "p-1",
		Items:     []dto.BillableItemRequest{{Code: "ECHO-01", Category: "imaging", Quantity: d(1), UnitPrice: d(100000)}},
	})
	require.NoError(t, err)
	assert.True(t, res.CompanyShare.IsZero())

	until := testNow.AddDate(0, 1, 0)
	require.NoError(t, e.store.Approvals().Create(ctx, &entity.Approval{
		PatientID: "p-1", CompanyID: "c-1", ActCode: "echo-01",
		Status: entity.ApprovalApproved, ValidUntil: &until,
	}))

	updated, err := e.approvals.RecalculateInvoice(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, updated.CompanyShare.Equal(d(80000)))
	assert.True(t, updated.Items[0].HasApproval)
	assert.Equal(t, 2, updated.Version)

	company, _ := e.store.Companies().GetByID(ctx, "c-1")
	assert.True(t, company.Balance.Outstanding.Equal(d(80000)))

	// Vencida la aprobación, el recálculo vuelve a dejar la parte en cero.
	e.clock.Set(until.AddDate(0, 0, 1))
	updated, err = e.approvals.RecalculateInvoice(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, updated.CompanyShare.IsZero())
	assert.Equal(t, entity.ApprovalStatusMissing, updated.Items[0].ApprovalStatus)

	company, _ = e.store.Companies().GetByID(ctx, "c-1")
	assert.True(t, company.Balance.Outstanding.IsZero())
}

func TestRecalculateInvoice_Errors(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.company(t, nil)

	_, err := e.approvals.RecalculateInvoice(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = e.approvals.RecalculateInvoice(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	inv := e.invoice(t, "inv-1", testNow, 1000, 800, false)
	inv.Status = entity.InvoiceStatusCancelled
	require.NoError(t, e.store.Invoices().Update(ctx, inv))
	_, err = e.approvals.RecalculateInvoice(ctx, "inv-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateConventionInvoice_BlockedContract(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	end := testNow.AddDate(0, 0, -1)
	e.company(t, func(c *entity.Company) { c.ContractEndDate = &end })
	e.patient(t, "p-1", "c-1")

	_, err := e.invoices.CreateConventionInvoice(ctx, "c-1", dto.CreateConventionInvoiceRequest{
		PatientID: "p-1",
		Items:     []dto.BillableItemRequest{{Code: "CON-01", Category: "consultation", Quantity: d(1), UnitPrice: d(20000)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	list, err := e.store.Invoices().ListConvention(ctx, repository.InvoiceFilter{CompanyIDs: []string{"c-1"}})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateConventionInvoice_DraftDoesNotTouchBalance(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.company(t, func(c *entity.Company) { c.DefaultCoverage.MaxPerVisit = dp(10000) })
	e.patient(t, "p-1", "c-1")

	res, err := e.invoices.CreateConventionInvoice(ctx, "c-1", dto.CreateConventionInvoiceRequest{
		PatientID:     "p-1",
		InvoiceNumber: "FAC-0001",
		Date:          "2025-06-01",
		Status:        "draft",
		Items:         []dto.BillableItemRequest{{Code: "CON-01", Category: "consultation", Quantity: d(1), UnitPrice: d(20000)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "FAC-0001", res.InvoiceNumber)
	assert.Equal(t, "2025-06-01", res.DateIssued)
	assert.True(t, res.CompanyShare.Equal(d(10000)), "tope por visita")

	company, _ := e.store.Companies().GetByID(ctx, "c-1")
	assert.True(t, company.Balance.Outstanding.IsZero())

	_, err = e.invoices.CreateConventionInvoice(ctx, "c-1", dto.CreateConventionInvoiceRequest{
		PatientID: "p-1",
		Status:    "paid",
		Items:     []dto.BillableItemRequest{{Code: "CON-01", Category: "consultation", Quantity: d(1), UnitPrice: d(20000)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGateApproval(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.company(t, func(c *entity.Company) {
		echoRequiresApproval(c)
		c.ApprovalRules.AutoApproveUnderAmount = dp(50)
		c.ApprovalRules.AutoApproveUnderCurrency = "USD"
	})
	e.patient(t, "p-1", "c-1")

	// 100000 CDF ≈ 35.7 USD: bajo el umbral.
	res, err := e.approvals.GateApproval(ctx, "c-1", dto.ApprovalGateRequest{PatientID: "p-1", Code: "ECHO-01", Category: "imaging", UnitPrice: d(100000)})
	require.NoError(t, err)
	assert.False(t, res.RequiresApproval)
	assert.True(t, res.AutoApproved)
	assert.Equal(t, entity.ApprovalStatusNotRequired, res.ApprovalStatus)

	res, err = e.approvals.GateApproval(ctx, "c-1", dto.ApprovalGateRequest{PatientID: "p-1", Code: "ECHO-01", Category: "imaging", UnitPrice: d(500000)})
	require.NoError(t, err)
	assert.True(t, res.RequiresApproval)
	assert.False(t, res.HasApproval)
	assert.Equal(t, entity.ApprovalStatusMissing, res.ApprovalStatus)

	_, err = e.approvals.GateApproval(ctx, "c-1", dto.ApprovalGateRequest{PatientID: "p-1", Category: "imaging"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateConventionInvoice_TracksAnnualCapAcrossInvoices(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.company(t, opticalCap)
	e.patient(t, "p-1", "c-1")
	req := dto.CreateConventionInvoiceRequest{
		PatientID: "p-1",
		Items:     []dto.BillableItemRequest{{Code: "OPT-1", Category: "optical", Quantity: d(1), UnitPrice: d(75000)}},
	}

	first, err := e.invoices.CreateConventionInvoice(ctx, "c-1", req)
	require.NoError(t, err)
	assert.True(t, first.CompanyShare.Equal(d(60000)))

	e.clock.Advance(24 * time.Hour)
	second, err := e.invoices.CreateConventionInvoice(ctx, "c-1", req)
	require.NoError(t, err)
	assert.True(t, second.CompanyShare.Equal(d(40000)))

	third, err := e.invoices.CreateConventionInvoice(ctx, "c-1", req)
	require.NoError(t, err)
	assert.True(t, third.CompanyShare.IsZero())
}

func TestCreateConventionInvoice_VisitCapLimitsAnnualUsage(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.company(t, func(c *entity.Company) {
		c.DefaultCoverage.MaxPerVisit = dp(10000)
		c.CoveredCategories = []entity.CategoryCoverage{{Category: "optical", MaxPerCategory: dp(30000)}}
	})
	e.patient(t, "p-1", "c-1")

	first, err := e.invoices.CreateConventionInvoice(ctx, "c-1", dto.CreateConventionInvoiceRequest{
		PatientID: "p-1",
		Items: []dto.BillableItemRequest{
			{Code: "OPT-1", Category: "optical", Quantity: d(1), UnitPrice: d(10000)},
			{Code: "OPT-2", Category: "optical", Quantity: d(1), UnitPrice: d(10000)},
		},
	})
	require.NoError(t, err)
	// 2 × 8000 por línea, limitado a 10000 por visita.
	assert.True(t, first.CompanyShare.Equal(d(10000)), "companyShare = %s", first.CompanyShare)

	e.clock.Advance(24 * time.Hour)
	res, err := e.coverage.PreviewCoverage(ctx, "c-1", dto.CoveragePreviewRequest{
		PatientID: "p-1",
		Items:     []dto.BillableItemRequest{{Code: "OPT-3", Category: "optical", Quantity: d(1), UnitPrice: d(8000)}},
	})
	require.NoError(t, err)

	// Solo cuenta lo que la convención adeuda: quedan 20000 del tope anual.
	assert.True(t, res.YTDUsage["optical"].Equal(d(10000)), "ytd = %s", res.YTDUsage["optical"])
	require.Len(t, res.Items, 1)
	assert.True(t, res.Items[0].CompanyShare.Equal(d(6400)))
	for _, w := range res.Warnings {
		assert.NotEqual(t, coverage.WarnAnnualCapPartial, w.Code)
		assert.NotEqual(t, coverage.WarnAnnualCapExhausted, w.Code)
	}
}
