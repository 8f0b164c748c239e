package coverage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xtm888/medflow-clinic-sub000/internal/domain/coverage"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
)

func TestResolve_Precedence(t *testing.T) {
	company := baseCompany()
	company.CoveredCategories = []entity.CategoryCoverage{
		{Category: "optical", CoveragePercentage: dp(60), MaxAmount: dp(20000), MaxPerCategory: dp(100000)},
		{Category: "dental", RequiresApproval: true}, // sin porcentaje propio
	}

	tests := []struct {
		name       string
		category   string
		override   int64
		hasOver    bool
		wantPct    int64
		wantSource string
	}{
		{"default", "consultation", 0, false, 80, coverage.SourceDefault},
		{"override paciente", "consultation", 90, true, 90, coverage.SourcePatient},
		{"categoría gana al paciente", "OPTICAL", 90, true, 60, coverage.SourceCategory},
		{"categoría sin porcentaje usa paciente", "dental", 95, true, 95, coverage.SourcePatient},
		{"categoría sin porcentaje usa default", "dental", 0, false, 80, coverage.SourceDefault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var over = dp(tt.override)
			if !tt.hasOver {
				over = nil
			}
			rule := coverage.Resolve(company, tt.category, over)
			assert.True(t, rule.CoveragePercentage.Equal(d(tt.wantPct)), "pct = %s", rule.CoveragePercentage)
			assert.Equal(t, tt.wantSource, rule.Source)
		})
	}

	rule := coverage.Resolve(company, "optical", nil)
	assert.True(t, rule.MaxAmountPerItem.Equal(d(20000)))
	assert.True(t, rule.MaxPerCategoryPerYear.Equal(d(100000)))
	assert.True(t, coverage.Resolve(company, "dental", nil).RequiresApproval)
}

func TestResolve_NoSideEffects(t *testing.T) {
	company := baseCompany()
	company.CoveredCategories = []entity.CategoryCoverage{{Category: "optical", CoveragePercentage: dp(60)}}

	_ = coverage.Resolve(company, "optical", dp(99))

	assert.True(t, company.CoveredCategories[0].CoveragePercentage.Equal(d(60)))
	assert.True(t, company.DefaultCoverage.Percentage.Equal(d(80)))
}
