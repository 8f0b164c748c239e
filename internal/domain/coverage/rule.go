// Package coverage contiene el motor de cobertura de convenciones: resolución de reglas por
// categoría, cálculo del reparto convención/paciente y control de aprobación previa.
// Es lógica pura de dominio: no accede a persistencia ni guarda estado entre llamadas.
package coverage

import (
	"github.com/shopspring/decimal"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
)

// Origen del porcentaje de cobertura aplicado.
const (
	SourceCategory = "category"
	SourcePatient  = "patient"
	SourceDefault  = "default"
)

var hundred = decimal.NewFromInt(100)

// Rule reglas efectivas de una categoría para una convención.
type Rule struct {
	CoveragePercentage    decimal.Decimal
	Source                string
	MaxAmountPerItem      *decimal.Decimal
	MaxPerCategoryPerYear *decimal.Decimal
	NotCovered            bool
	RequiresApproval      bool
	AdditionalDiscount    decimal.Decimal
}

// Resolve devuelve la regla aplicable a una categoría.
//
// Orden de resolución del porcentaje:
//  1. override explícito de la categoría (coveredCategories)
//  2. override propio del paciente (convention.coveragePercentage)
//  3. cobertura por defecto de la empresa
//
// El override del paciente nunca reemplaza un override explícito de categoría.
func Resolve(company *entity.Company, category string, patientOverride *decimal.Decimal) Rule {
	rule := Rule{
		CoveragePercentage: company.DefaultCoverage.Percentage,
		Source:             SourceDefault,
	}
	if patientOverride != nil {
		rule.CoveragePercentage = *patientOverride
		rule.Source = SourcePatient
	}
	cat := company.CategorySettings(category)
	if cat == nil {
		return rule
	}
	if cat.CoveragePercentage != nil {
		rule.CoveragePercentage = *cat.CoveragePercentage
		rule.Source = SourceCategory
	}
	rule.MaxAmountPerItem = cat.MaxAmount
	rule.MaxPerCategoryPerYear = cat.MaxPerCategory
	rule.NotCovered = cat.NotCovered
	rule.RequiresApproval = cat.RequiresApproval
	rule.AdditionalDiscount = cat.AdditionalDiscount
	return rule
}

// discountFor devuelve el porcentaje de descuento aplicable: el global tiene prioridad salvo que
// la categoría esté excluida; si no, el descuento adicional de la categoría.
func discountFor(company *entity.Company, category string, rule Rule) decimal.Decimal {
	global := company.ApprovalRules.GlobalDiscount
	if global.Percentage.IsPositive() && !containsFold(global.ExcludeCategories, category) {
		return global.Percentage
	}
	if rule.AdditionalDiscount.IsPositive() {
		return rule.AdditionalDiscount
	}
	return decimal.Zero
}
