package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtm888/medflow-clinic-sub000/internal/application/billing"
	"github.com/xtm888/medflow-clinic-sub000/internal/application/dto"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/coverage"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
)

func opticalCap(c *entity.Company) {
	c.CoveredCategories = []entity.CategoryCoverage{
		{Category: "optical", MaxPerCategory: dp(100000)},
	}
}

func TestPreviewCoverage_SeedsYearToDateUsage(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.company(t, opticalCap)
	e.patient(t, "p-1", "c-1")

	// Consumo previo del año: 90000 en óptica. Una factura del año anterior no cuenta.
	prior := &entity.Invoice{
		ID: "prior", InvoiceNumber: "F-prior", PatientID: "p-1",
		Items:          []entity.InvoiceItem{{Code: "OPT-1", Category: "optical", Total: d(112500), CompanyShare: d(90000)}},
		CompanyBilling: &entity.CompanyBilling{CompanyID: "c-1"},
		Status:         entity.InvoiceStatusIssued,
		DateIssued:     time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	lastYear := &entity.Invoice{
		ID: "old", InvoiceNumber: "F-old", PatientID: "p-1",
		Items:          []entity.InvoiceItem{{Code: "OPT-1", Category: "optical", Total: d(50000), CompanyShare: d(40000)}},
		CompanyBilling: &entity.CompanyBilling{CompanyID: "c-1"},
		Status:         entity.InvoiceStatusIssued,
		DateIssued:     time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, e.store.Invoices().Create(ctx, prior))
	require.NoError(t, e.store.Invoices().Create(ctx, lastYear))

	res, err := e.coverage.PreviewCoverage(ctx, "c-1", dto.CoveragePreviewRequest{
		PatientID: "p-1",
		Items: []dto.BillableItemRequest{
			{Code: "OPT-2", Category: "optical", Quantity: d(1), UnitPrice: d(50000)},
		},
	})
	require.NoError(t, err)

	assert.True(t, res.YTDUsage["optical"].Equal(d(90000)))
	require.Len(t, res.Items, 1)
	assert.True(t, res.Items[0].CompanyShare.Equal(d(10000)))
	assert.True(t, res.Items[0].PatientShare.Equal(d(40000)))
	assert.True(t, res.CanProceed)
	assert.Equal(t, "CDF", res.Summary.Currency)

	var partial bool
	for _, w := range res.Warnings {
		if w.Code == coverage.WarnAnnualCapPartial {
			partial = true
		}
	}
	assert.True(t, partial)

	// La vista previa no persiste nada.
	usage, err := billing.NewUsageTracker(e.store.Invoices()).YearToDate(ctx, "p-1", "c-1", 2025)
	require.NoError(t, err)
	assert.True(t, usage["optical"].Equal(d(90000)))
}

func TestPreviewCoverage_PricesFromFeeSchedule(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.company(t, nil)
	e.patient(t, "p-1", "c-1")
	require.NoError(t, e.store.FeeSchedules().Create(ctx, &entity.ConventionFeeSchedule{
		CompanyID:     "c-1",
		EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Items:         []entity.FeeScheduleItem{{Code: "CON-01", Category: "consultation", Price: d(25000), Currency: "CDF"}},
	}))

	res, err := e.coverage.PreviewCoverage(ctx, "c-1", dto.CoveragePreviewRequest{
		PatientID: "p-1",
		Items:     []dto.BillableItemRequest{{Code: "con-01", Quantity: d(2)}},
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "consultation", res.Items[0].Category)
	assert.True(t, res.Items[0].ItemTotal.Equal(d(50000)))
	assert.True(t, res.Summary.TotalCompanyShare.Equal(d(40000)))

	_, err = e.coverage.PreviewCoverage(ctx, "c-1", dto.CoveragePreviewRequest{
		PatientID: "p-1",
		Items:     []dto.BillableItemRequest{{Code: "XYZ", Quantity: d(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPreviewCoverage_Errors(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.company(t, nil)
	e.patient(t, "p-1", "c-1")
	items := []dto.BillableItemRequest{{Code: "CON-01", Category: "consultation", Quantity: d(1), UnitPrice: d(1000)}}

	_, err := e.coverage.PreviewCoverage(ctx, "nope", dto.CoveragePreviewRequest{PatientID: "p-1", Items: items})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = e.coverage.PreviewCoverage(ctx, "c-1", dto.CoveragePreviewRequest{PatientID: "ghost", Items: items})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = e.coverage.PreviewCoverage(ctx, "c-1", dto.CoveragePreviewRequest{PatientID: "p-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.coverage.PreviewCoverage(ctx, "c-1", dto.CoveragePreviewRequest{PatientID: "p-1", Date: "15/06/2025", Items: items})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.coverage.PreviewCoverage(ctx, "c-1", dto.CoveragePreviewRequest{
		PatientID: "p-1",
		Items:     []dto.BillableItemRequest{{Code: "CON-01", Category: "consultation", Quantity: d(0), UnitPrice: d(1000)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPreviewCoverage_PatientOverride(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.company(t, nil)
	p := &entity.Patient{ID: "p-9", FirstName: "Jean", Convention: &entity.PatientConvention{CompanyID: "c-1", CoveragePercentage: dp(50)}}
	require.NoError(t, e.store.Patients().Create(ctx, p))

	res, err := e.coverage.PreviewCoverage(ctx, "c-1", dto.CoveragePreviewRequest{
		PatientID: "p-9",
		Items:     []dto.BillableItemRequest{{Code: "LAB-1", Category: "laboratory", Quantity: d(1), UnitPrice: d(10000)}},
	})
	require.NoError(t, err)
	assert.Equal(t, coverage.SourcePatient, res.Items[0].CoverageSource)
	assert.True(t, res.Items[0].CompanyShare.Equal(d(5000)))
}

func TestResolveCoverage(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.company(t, func(c *entity.Company) {
		c.CoveredCategories = []entity.CategoryCoverage{{Category: "surgery", CoveragePercentage: dp(60), RequiresApproval: true}}
	})

	rule, err := e.coverage.ResolveCoverage(ctx, "c-1", "Surgery", dp(90))
	require.NoError(t, err)
	assert.True(t, rule.CoveragePercentage.Equal(d(60)))
	assert.True(t, rule.RequiresApproval)

	rule, err = e.coverage.ResolveCoverage(ctx, "c-1", "pharmacy", nil)
	require.NoError(t, err)
	assert.True(t, rule.CoveragePercentage.Equal(d(80)))
	assert.Equal(t, coverage.SourceDefault, rule.Source)

	_, err = e.coverage.ResolveCoverage(ctx, "c-1", "", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
