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

// fakeRenderer registra lo que se le pidió renderizar.
type fakeRenderer struct {
	statement *dto.StatementResponse
	batch     *dto.BatchInvoiceResponse
}

func (r *fakeRenderer) RenderStatement(st *dto.StatementResponse) ([]byte, error) {
	r.statement = st
	return []byte("%PDF-statement"), nil
}

func (r *fakeRenderer) RenderBatchInvoice(b *dto.BatchInvoiceResponse) ([]byte, error) {
	r.batch = b
	return []byte("%PDF-batch"), nil
}

func statementFixture(t *testing.T) *fixture {
	f := newFixture(t)
	f.company(t, "c-1", "ACME SARL", "", false)
	f.company(t, "c-2", "Beta", "", false)
	f.invoice(t, seed{id: "A", companyID: "c-1", issued: day(2025, 3, 1), companyShare: 10000, patientShare: 2500,
		payments: []entity.Payment{companyPayment(day(2025, 4, 10), 4000, "VIR-1")}})
	f.invoice(t, seed{id: "B", companyID: "c-1", issued: day(2025, 5, 2), companyShare: 8000})
	f.invoice(t, seed{id: "C", companyID: "c-1", issued: day(2025, 5, 3), companyShare: 5000, status: entity.InvoiceStatusCancelled})
	f.invoice(t, seed{id: "D", companyID: "c-1", issued: day(2025, 1, 15), companyShare: 3000,
		payments: []entity.Payment{companyPayment(day(2025, 5, 5), 3000, "VIR-2")}})
	f.invoice(t, seed{id: "E", companyID: "c-2", issued: day(2025, 2, 1), companyShare: 900})
	return f
}

func TestBuildStatement_ChronologicalWithRunningBalance(t *testing.T) {
	f := statementFixture(t)
	uc := reporting.NewStatementUseCase(f.store.Companies(), f.store.Invoices(), nil, f.clock, settings)

	st, err := uc.BuildStatement(context.Background(), "c-1", dto.StatementRequest{})
	require.NoError(t, err)

	require.Len(t, st.Entries, 5)
	want := []struct {
		typ     string
		invoice string
		balance int64
	}{
		{dto.StatementDebit, "F-D", 3000},
		{dto.StatementDebit, "F-A", 13000},
		{dto.StatementCredit, "F-A", 9000},
		{dto.StatementDebit, "F-B", 17000},
		{dto.StatementCredit, "F-D", 14000},
	}
	for i, w := range want {
		assert.Equal(t, w.typ, st.Entries[i].Type, "entrada %d", i)
		assert.Equal(t, w.invoice, st.Entries[i].InvoiceNumber, "entrada %d", i)
		assert.True(t, st.Entries[i].Balance.Equal(d(w.balance)), "entrada %d saldo %s", i, st.Entries[i].Balance)
	}
	assert.Equal(t, "VIR-1", st.Entries[2].Reference)
	assert.True(t, st.Totals.Debit.Equal(d(21000)))
	assert.True(t, st.Totals.Credit.Equal(d(7000)))
	assert.True(t, st.Totals.Balance.Equal(d(14000)))
	assert.Equal(t, "ACME SARL", st.CompanyName)
	assert.Equal(t, testNow.AddDate(0, 0, 30), st.DueDate)
}

func TestBuildStatement_DateRange(t *testing.T) {
	f := statementFixture(t)
	uc := reporting.NewStatementUseCase(f.store.Companies(), f.store.Invoices(), nil, f.clock, settings)
	ctx := context.Background()

	st, err := uc.BuildStatement(ctx, "c-1", dto.StatementRequest{From: "2025-04-01", To: "2025-05-04"})
	require.NoError(t, err)
	require.Len(t, st.Entries, 2)
	assert.True(t, st.Totals.Debit.Equal(d(8000)))
	assert.True(t, st.Totals.Credit.Equal(d(4000)))
	assert.True(t, st.Totals.Balance.Equal(d(4000)))

	// El límite superior incluye todo el día.
	st, err = uc.BuildStatement(ctx, "c-1", dto.StatementRequest{From: "2025-05-05", To: "2025-05-05"})
	require.NoError(t, err)
	require.Len(t, st.Entries, 1)
	assert.Equal(t, dto.StatementCredit, st.Entries[0].Type)
	// Sin saldo inicial: el saldo acumulado parte de cero en el rango.
	assert.True(t, st.Entries[0].Balance.Equal(st.Entries[0].Credit.Neg()))
	assert.True(t, st.Totals.Debit.IsZero())
}

func TestBuildStatement_Errors(t *testing.T) {
	f := statementFixture(t)
	uc := reporting.NewStatementUseCase(f.store.Companies(), f.store.Invoices(), nil, f.clock, settings)
	ctx := context.Background()

	_, err := uc.BuildStatement(ctx, "nope", dto.StatementRequest{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.BuildStatement(ctx, "c-1", dto.StatementRequest{From: "2025-06-01", To: "2025-05-01"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.BuildStatement(ctx, "c-1", dto.StatementRequest{From: "01/05/2025"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.StatementPDF(ctx, "c-1", dto.StatementRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStatementPDF_UsesRenderer(t *testing.T) {
	f := statementFixture(t)
	r := &fakeRenderer{}
	uc := reporting.NewStatementUseCase(f.store.Companies(), f.store.Invoices(), r, f.clock, settings)

	pdf, err := uc.StatementPDF(context.Background(), "c-1", dto.StatementRequest{})
	require.NoError(t, err)
	assert.Equal(t, "%PDF-statement", string(pdf))
	require.NotNil(t, r.statement)
	assert.Len(t, r.statement.Entries, 5)
}
