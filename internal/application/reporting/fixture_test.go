package reporting_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/xtm888/medflow-clinic-sub000/internal/application/reporting"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
	"github.com/xtm888/medflow-clinic-sub000/internal/infrastructure/memory"
	"github.com/xtm888/medflow-clinic-sub000/pkg/clock"
)

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func day(y int, m time.Month, dd int) time.Time { return time.Date(y, m, dd, 9, 0, 0, 0, time.UTC) }

var settings = reporting.Settings{Currency: "CDF", StatementDueDays: 30}

type fixture struct {
	store *memory.Store
	clock *clock.Fake
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{store: memory.NewStore(), clock: clock.NewFake(testNow)}
}

func (f *fixture) company(t *testing.T, id, name, parentID string, isParent bool) {
	t.Helper()
	c := &entity.Company{ID: id, Code: id, Name: name, ContractStatus: entity.ContractStatusActive, IsParentConvention: isParent}
	if parentID != "" {
		c.ParentConventionID = &parentID
	}
	require.NoError(t, f.store.Companies().Create(context.Background(), c))
}

// seed describe una factura de prueba con un único ítem.
type seed struct {
	id           string
	companyID    string
	patientID    string
	patientName  string
	issued       time.Time
	companyShare int64
	patientShare int64
	status       entity.InvoiceStatus // vacío = issued
	payments     []entity.Payment     // pagos de la convención
}

func (f *fixture) invoice(t *testing.T, s seed) *entity.Invoice {
	t.Helper()
	if s.status == "" {
		s.status = entity.InvoiceStatusIssued
	}
	if s.patientID == "" {
		s.patientID = "p-1"
		s.patientName = "Marie Kabila"
	}
	total := s.companyShare + s.patientShare
	inv := &entity.Invoice{
		ID:            s.id,
		InvoiceNumber: "F-" + s.id,
		PatientID:     s.patientID,
		PatientName:   s.patientName,
		Items: []entity.InvoiceItem{{
			Code: "CON-01", Category: "consultation", Quantity: d(1), UnitPrice: d(total), Total: d(total),
			EligibleCompanyShare: d(s.companyShare), CompanyShare: d(s.companyShare), PatientShare: d(s.patientShare),
		}},
		CompanyBilling: &entity.CompanyBilling{CompanyID: s.companyID, CompanyName: s.companyID, Status: entity.ConventionStatusSent},
		Total:          d(total),
		Status:         s.status,
		DateIssued:     s.issued,
	}
	inv.RecalculateCompanyBilling(nil)
	for _, p := range s.payments {
		if p.Method == "" {
			p.Method = "transfer"
		}
		inv.ApplyCompanyPayment(p)
	}
	if s.status.IsTerminal() || s.status == entity.InvoiceStatusDraft {
		inv.Status = s.status
	}
	require.NoError(t, f.store.Invoices().Create(context.Background(), inv))
	return inv
}

func companyPayment(date time.Time, amount int64, ref string) entity.Payment {
	return entity.Payment{ID: ref, Amount: d(amount), Date: date, Reference: ref}
}
