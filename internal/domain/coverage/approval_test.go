package coverage_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/xtm888/medflow-clinic-sub000/internal/domain/coverage"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
)

// fixedRate convierte CDF→USD a 2800 CDF por USD.
type fixedRate struct{ fail bool }

func (f fixedRate) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if f.fail {
		return decimal.Zero, errors.New("tasa no disponible")
	}
	if from == to {
		return amount, nil
	}
	if from == "CDF" && to == "USD" {
		return amount.Div(d(2800)), nil
	}
	return decimal.Zero, errors.New("par no soportado")
}

func approvalCompany() *entity.Company {
	c := baseCompany()
	c.CoveredCategories = []entity.CategoryCoverage{
		{Category: "surgery", RequiresApproval: true},
	}
	c.ActsRequiringApproval = []entity.ActApproval{
		{ActCode: "ECHO-01", RequiresApproval: true},
		{ActCode: "CHI-99", RequiresApproval: true},
	}
	c.ApprovalRules.AutoApproveUnderAmount = dp(50)
	c.ApprovalRules.AutoApproveUnderCurrency = "USD"
	return c
}

func TestRequirementFor(t *testing.T) {
	tests := []struct {
		name         string
		in           coverage.ApprovalInput
		conv         coverage.Converter
		wantRequired bool
		wantAuto     bool
	}{
		{
			name:         "acto bajo umbral se auto-aprueba",
			in:           coverage.ApprovalInput{ActCode: "echo-01", Category: "imaging", Price: d(100000), PriceCurrency: "CDF"}, // ≈35.7 USD
			conv:         fixedRate{},
			wantRequired: false, wantAuto: true,
		},
		{
			name:         "acto sobre umbral requiere aprobación",
			in:           coverage.ApprovalInput{ActCode: "ECHO-01", Category: "imaging", Price: d(280000), PriceCurrency: "CDF"}, // 100 USD
			conv:         fixedRate{},
			wantRequired: true,
		},
		{
			name:         "categoría obligatoria gana sobre auto-aprobación",
			in:           coverage.ApprovalInput{ActCode: "CHI-99", Category: "Surgery", Price: d(1000), PriceCurrency: "CDF"},
			conv:         fixedRate{},
			wantRequired: true,
		},
		{
			name:         "sin conversión no hay auto-aprobación",
			in:           coverage.ApprovalInput{ActCode: "ECHO-01", Category: "imaging", Price: d(1000), PriceCurrency: "CDF"},
			conv:         fixedRate{fail: true},
			wantRequired: true,
		},
		{
			name:         "acto sin exigencia",
			in:           coverage.ApprovalInput{ActCode: "CON-01", Category: "consultation", Price: d(1000000), PriceCurrency: "CDF"},
			wantRequired: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := coverage.RequirementFor(approvalCompany(), tt.in, tt.conv)
			assert.Equal(t, tt.wantRequired, req.Required)
			assert.Equal(t, tt.wantAuto, req.AutoApproved)
		})
	}
}

func TestDecide_OnlyApprovedAndValid(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	req := coverage.Requirement{Required: true, ActLevel: true}

	tests := []struct {
		name       string
		approval   *entity.Approval
		wantHas    bool
		wantStatus string
	}{
		{"sin registro", nil, false, entity.ApprovalStatusMissing},
		{"pendiente", &entity.Approval{ID: "a1", Status: entity.ApprovalPending}, false, entity.ApprovalStatusMissing},
		{"rechazada", &entity.Approval{ID: "a1", Status: entity.ApprovalRejected}, false, entity.ApprovalStatusMissing},
		{"vencida", &entity.Approval{ID: "a1", Status: entity.ApprovalApproved, ValidUntil: &yesterday}, false, entity.ApprovalStatusMissing},
		{"vence hoy", &entity.Approval{ID: "a1", Status: entity.ApprovalApproved, ValidUntil: &today}, true, entity.ApprovalStatusApproved},
		{"sin vencimiento", &entity.Approval{ID: "a1", Status: entity.ApprovalApproved}, true, entity.ApprovalStatusApproved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := coverage.Decide(req, tt.approval, now)
			assert.Equal(t, tt.wantHas, dec.HasApproval)
			assert.Equal(t, tt.wantStatus, dec.ApprovalStatus)
		})
	}

	notRequired := coverage.Decide(coverage.Requirement{}, nil, now)
	assert.Equal(t, entity.ApprovalStatusNotRequired, notRequired.ApprovalStatus)
}

func TestApplyGate_FailClosed(t *testing.T) {
	it := &entity.InvoiceItem{
		Code:                 "CHI-99",
		Total:                d(100000),
		EligibleCompanyShare: d(80000),
		CompanyShare:         d(80000), // valor previo almacenado
		PatientShare:         d(20000),
	}

	coverage.ApplyGate(it, coverage.Decision{Requirement: coverage.Requirement{Required: true}, ApprovalStatus: entity.ApprovalStatusMissing})

	assert.True(t, it.CompanyShare.IsZero())
	assert.True(t, it.PatientShare.Equal(d(100000)))
	assert.Equal(t, entity.ApprovalStatusMissing, it.ApprovalStatus)

	// Una vez aprobada se restituye la parte elegible.
	coverage.ApplyGate(it, coverage.Decision{
		Requirement:    coverage.Requirement{Required: true},
		HasApproval:    true,
		ApprovalID:     "a-1",
		ApprovalStatus: entity.ApprovalStatusApproved,
	})

	assert.True(t, it.CompanyShare.Equal(d(80000)))
	assert.True(t, it.PatientShare.Equal(d(20000)))
	assert.Equal(t, "a-1", it.ApprovalID)
}

func TestRequirementAndDecision_CategoryLevelWithRecord(t *testing.T) {
	company := approvalCompany()
	approval := &entity.Approval{ID: "a-9", PatientID: "p-1", CompanyID: company.ID, ActCode: "chi-99", Status: entity.ApprovalApproved}

	req := coverage.RequirementFor(company, coverage.ApprovalInput{ActCode: "CHI-99", Category: "surgery", Price: d(500000)}, fixedRate{})
	dec := coverage.Decide(req, approval, testNow)

	assert.True(t, dec.Required)
	assert.True(t, dec.CategoryLevel)
	assert.True(t, dec.HasApproval)
	assert.Equal(t, entity.ApprovalStatusApproved, dec.ApprovalStatus)
}
