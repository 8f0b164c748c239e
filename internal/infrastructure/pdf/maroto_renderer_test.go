package pdf_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtm888/medflow-clinic-sub000/internal/application/dto"
	"github.com/xtm888/medflow-clinic-sub000/internal/infrastructure/pdf"
)

func TestRenderStatement_ProducesPDF(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	st := &dto.StatementResponse{
		CompanyID:   "c-1",
		CompanyName: "ACME Mining",
		From:        &from,
		GeneratedAt: time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC),
		DueDate:     time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC),
		Currency:    "CDF",
		Entries: []dto.StatementEntryDTO{
			{Date: from, Type: dto.StatementDebit, InvoiceNumber: "F-001", PatientName: "Marie Kabila", Debit: decimal.NewFromInt(10000), Balance: decimal.NewFromInt(10000)},
			{Date: from.AddDate(0, 1, 0), Type: dto.StatementCredit, InvoiceNumber: "F-001", Reference: "VIR-7", Credit: decimal.NewFromInt(4000), Balance: decimal.NewFromInt(6000)},
		},
		Totals: dto.StatementTotalsDTO{Debit: decimal.NewFromInt(10000), Credit: decimal.NewFromInt(4000), Balance: decimal.NewFromInt(6000)},
	}

	out, err := pdf.NewMarotoRenderer("Clinique MedFlow", "fr-CD").RenderStatement(st)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderBatchInvoice_ProducesPDF(t *testing.T) {
	b := &dto.BatchInvoiceResponse{
		BatchReference: "BATCH-c-1-20250615",
		CompanyName:    "ACME Mining",
		GroupBy:        dto.GroupByPatient,
		GeneratedAt:    time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC),
		Currency:       "CDF",
		Groups: []dto.BatchInvoiceGroupDTO{{
			Key: "p-1", Label: "Marie Kabila", InvoiceCount: 1,
			Invoices: []dto.BatchInvoiceLineDTO{{
				InvoiceNumber: "F-001", PatientName: "Marie Kabila",
				DateIssued:   time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
				Total:        decimal.NewFromInt(12500),
				CompanyShare: decimal.NewFromInt(10000),
			}},
			CompanyShare: decimal.NewFromInt(10000),
		}},
		Summary: dto.BatchSummaryDTO{InvoiceCount: 1, GroupCount: 1, CompanyShare: decimal.NewFromInt(10000), CompanyDue: decimal.NewFromInt(10000)},
	}

	out, err := pdf.NewMarotoRenderer("Clinique MedFlow", "fr-CD").RenderBatchInvoice(b)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
