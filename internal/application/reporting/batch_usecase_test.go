package reporting_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtm888/medflow-clinic-sub000/internal/application/dto"
	"github.com/xtm888/medflow-clinic-sub000/internal/application/reporting"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
)

func batchFixture(t *testing.T) *fixture {
	f := newFixture(t)
	f.company(t, "c-1", "ACME SARL", "", false)
	f.invoice(t, seed{id: "A", companyID: "c-1", issued: day(2025, 3, 5), companyShare: 10000, patientShare: 2500})
	f.invoice(t, seed{id: "B", companyID: "c-1", patientID: "p-2", patientName: "Jean Mbala", issued: day(2025, 3, 20), companyShare: 6000})
	f.invoice(t, seed{id: "C", companyID: "c-1", issued: day(2025, 4, 2), companyShare: 4000,
		payments: []entity.Payment{companyPayment(day(2025, 4, 20), 1000, "VIR-1")}})
	f.invoice(t, seed{id: "D", companyID: "c-1", patientID: "p-2", patientName: "Jean Mbala", issued: day(2025, 4, 10), companyShare: 5000,
		payments: []entity.Payment{companyPayment(day(2025, 4, 30), 5000, "VIR-2")}})
	f.invoice(t, seed{id: "E", companyID: "c-1", issued: day(2025, 4, 11), companyShare: 700, status: entity.InvoiceStatusCancelled})
	f.invoice(t, seed{id: "F", companyID: "c-1", issued: day(2025, 4, 12), companyShare: 800, status: entity.InvoiceStatusDraft})
	return f
}

func TestBuildBatchInvoice_GroupByPatient(t *testing.T) {
	f := batchFixture(t)
	uc := reporting.NewBatchInvoiceUseCase(f.store.Companies(), f.store.Invoices(), nil, f.clock, settings)

	batch, err := uc.BuildBatchInvoice(context.Background(), "c-1", dto.BatchInvoiceRequest{GroupBy: "patient"})
	require.NoError(t, err)

	assert.Equal(t, "BATCH-c-1-20250615", batch.BatchReference)
	require.Len(t, batch.Groups, 2)
	assert.Equal(t, "Jean Mbala", batch.Groups[0].Label)
	assert.Equal(t, 1, batch.Groups[0].InvoiceCount)
	assert.True(t, batch.Groups[0].CompanyShare.Equal(d(6000)))
	assert.Equal(t, "Marie Kabila", batch.Groups[1].Label)
	assert.Equal(t, 2, batch.Groups[1].InvoiceCount)
	assert.True(t, batch.Groups[1].CompanyShare.Equal(d(14000)))
	assert.True(t, batch.Groups[1].PatientShare.Equal(d(2500)))

	s := batch.Summary
	assert.Equal(t, 3, s.InvoiceCount)
	assert.Equal(t, 2, s.GroupCount)
	assert.True(t, s.Total.Equal(d(22500)))
	assert.True(t, s.CompanyShare.Equal(d(20000)))
	assert.True(t, s.PaidAmount.Equal(d(1000)))
	assert.True(t, s.CompanyDue.Equal(d(19000)))
}

func TestBuildBatchInvoice_GroupByMonth(t *testing.T) {
	f := batchFixture(t)
	uc := reporting.NewBatchInvoiceUseCase(f.store.Companies(), f.store.Invoices(), nil, f.clock, settings)

	batch, err := uc.BuildBatchInvoice(context.Background(), "c-1", dto.BatchInvoiceRequest{GroupBy: "month"})
	require.NoError(t, err)

	require.Len(t, batch.Groups, 2)
	assert.Equal(t, "2025-03", batch.Groups[0].Key)
	assert.Equal(t, "Mars 2025", batch.Groups[0].Label)
	assert.True(t, batch.Groups[0].CompanyShare.Equal(d(16000)))
	assert.Equal(t, "2025-04", batch.Groups[1].Key)
	assert.True(t, batch.Groups[1].CompanyShare.Equal(d(4000)))
}

func TestBuildBatchInvoice_ReferenceUsesGenerationDate(t *testing.T) {
	f := batchFixture(t)
	uc := reporting.NewBatchInvoiceUseCase(f.store.Companies(), f.store.Invoices(), nil, f.clock, settings)
	req := dto.BatchInvoiceRequest{From: "2025-04-01", To: "2025-04-30"}

	first, err := uc.BuildBatchInvoice(context.Background(), "c-1", req)
	require.NoError(t, err)
	second, err := uc.BuildBatchInvoice(context.Background(), "c-1", req)
	require.NoError(t, err)

	assert.Equal(t, first.BatchReference, second.BatchReference)
	assert.Equal(t, dto.GroupByPatient, first.GroupBy)
	assert.Equal(t, 1, first.Summary.InvoiceCount)
}

func TestBuildBatchInvoice_Errors(t *testing.T) {
	f := batchFixture(t)
	uc := reporting.NewBatchInvoiceUseCase(f.store.Companies(), f.store.Invoices(), nil, f.clock, settings)
	ctx := context.Background()

	_, err := uc.BuildBatchInvoice(ctx, "c-1", dto.BatchInvoiceRequest{From: "2024-01-01", To: "2024-12-31"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorIs(t, err, domain.ErrEmptySelection)

	_, err = uc.BuildBatchInvoice(ctx, "c-1", dto.BatchInvoiceRequest{GroupBy: "week"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.BuildBatchInvoice(ctx, "nope", dto.BatchInvoiceRequest{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBatchInvoicePDF_UsesRenderer(t *testing.T) {
	f := batchFixture(t)
	r := &fakeRenderer{}
	uc := reporting.NewBatchInvoiceUseCase(f.store.Companies(), f.store.Invoices(), r, f.clock, settings)

	pdf, err := uc.BatchInvoicePDF(context.Background(), "c-1", dto.BatchInvoiceRequest{})
	require.NoError(t, err)
	assert.Equal(t, "%PDF-batch", string(pdf))
	require.NotNil(t, r.batch)
	assert.Equal(t, "BATCH-c-1-20250615", r.batch.BatchReference)
}
