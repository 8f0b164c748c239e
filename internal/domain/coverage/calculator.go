package coverage

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
)

// Item ítem candidato a facturar.
type Item struct {
	Code        string
	Description string
	Category    string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// ItemResult reparto calculado de un ítem.
type ItemResult struct {
	Item
	ItemTotal          decimal.Decimal // cantidad × precio unitario
	Discount           decimal.Decimal
	NetTotal           decimal.Decimal // ItemTotal − Discount; base de la cobertura
	CoveragePercentage decimal.Decimal
	CoverageSource     string
	CompanyShare       decimal.Decimal
	PatientShare       decimal.Decimal
	NotCovered         bool
	Approval           Requirement
	Warnings           []Warning
}

// Summary totales del cálculo.
type Summary struct {
	TotalAmount       decimal.Decimal // suma de ItemTotal
	TotalDiscount     decimal.Decimal
	NetAmount         decimal.Decimal // suma de NetTotal
	TotalCompanyShare decimal.Decimal
	TotalPatientShare decimal.Decimal
	EffectiveCoverage decimal.Decimal // porcentaje: TotalCompanyShare / NetAmount × 100
	VisitCapApplied   bool
	VisitCapExcess    decimal.Decimal
}

// Result resultado completo del cálculo de cobertura.
type Result struct {
	Items      []ItemResult
	Summary    Summary
	Warnings   []Warning
	CanProceed bool
}

// Input parámetros del cálculo. Usage es el acumulador anual por categoría: se siembra con el
// consumo histórico y Calculate lo incrementa con cada ítem del lote.
type Input struct {
	Company         *entity.Company
	PatientOverride *decimal.Decimal
	EnrolledAt      *time.Time
	Items           []Item
	Usage           *CategoryUsage
	At              time.Time
	PriceCurrency   string
	Converter       Converter
}

// Calculate aplica las reglas de cobertura a los ítems en el orden recibido.
// No tiene efectos fuera del acumulador Usage recibido.
func Calculate(in Input) Result {
	company := in.Company
	usage := in.Usage
	if usage == nil {
		usage = NewCategoryUsage(nil)
	}
	res := Result{Items: make([]ItemResult, 0, len(in.Items))}
	res.Warnings = append(res.Warnings, contractWarnings(company, in.EnrolledAt, in.At)...)

	sum := Summary{}
	for _, item := range in.Items {
		ir := calculateItem(company, in, item, usage)
		res.Items = append(res.Items, ir)
		res.Warnings = append(res.Warnings, ir.Warnings...)

		sum.TotalAmount = sum.TotalAmount.Add(ir.ItemTotal)
		sum.TotalDiscount = sum.TotalDiscount.Add(ir.Discount)
		sum.NetAmount = sum.NetAmount.Add(ir.NetTotal)
		sum.TotalCompanyShare = sum.TotalCompanyShare.Add(ir.CompanyShare)
		sum.TotalPatientShare = sum.TotalPatientShare.Add(ir.PatientShare)
	}

	// Tope por visita: se ajusta el agregado, sin redistribuir por ítem.
	if maxVisit := company.DefaultCoverage.MaxPerVisit; maxVisit != nil && sum.TotalCompanyShare.GreaterThan(*maxVisit) {
		excess := sum.TotalCompanyShare.Sub(*maxVisit)
		sum.TotalCompanyShare = *maxVisit
		sum.TotalPatientShare = sum.TotalPatientShare.Add(excess)
		sum.VisitCapApplied = true
		sum.VisitCapExcess = excess
		res.Warnings = append(res.Warnings, Warning{
			Code:     WarnVisitCap,
			Message:  fmt.Sprintf("Plafond par visite appliqué (max %s)", maxVisit.String()),
			Severity: SeverityWarning,
		})
	}

	if sum.NetAmount.IsPositive() {
		sum.EffectiveCoverage = sum.TotalCompanyShare.Div(sum.NetAmount).Mul(hundred).Round(2)
	}
	res.Summary = sum
	res.CanProceed = CanProceed(res.Warnings)
	return res
}

func calculateItem(company *entity.Company, in Input, item Item, usage *CategoryUsage) ItemResult {
	rule := Resolve(company, item.Category, in.PatientOverride)
	ir := ItemResult{
		Item:               item,
		ItemTotal:          item.Quantity.Mul(item.UnitPrice),
		CoveragePercentage: rule.CoveragePercentage,
		CoverageSource:     rule.Source,
	}

	// Descuento: reduce el precio para ambos pagadores antes de aplicar la cobertura.
	ir.NetTotal = ir.ItemTotal
	if pct := discountFor(company, item.Category, rule); pct.IsPositive() {
		ir.Discount = ir.ItemTotal.Mul(pct).Div(hundred).Round(0)
		ir.NetTotal = ir.ItemTotal.Sub(ir.Discount)
		ir.Warnings = append(ir.Warnings, info(WarnDiscountApplied, item.Code,
			fmt.Sprintf("Remise de %s%% appliquée", pct.String())))
	}

	share := ir.NetTotal.Mul(rule.CoveragePercentage).Div(hundred).Round(0)

	if rule.NotCovered {
		share = decimal.Zero
		ir.NotCovered = true
		ir.Warnings = append(ir.Warnings, itemWarning(WarnNotCovered, item.Code,
			fmt.Sprintf("Catégorie %s non couverte par la convention", item.Category)))
	}

	if max := rule.MaxAmountPerItem; max != nil && share.GreaterThan(*max) {
		share = *max
		ir.Warnings = append(ir.Warnings, itemWarning(WarnItemCap, item.Code,
			fmt.Sprintf("Plafond par acte appliqué (max %s)", max.String())))
	}

	if capYear := rule.MaxPerCategoryPerYear; capYear != nil && !rule.NotCovered {
		remaining := capYear.Sub(usage.Consumed(item.Category))
		switch {
		case !remaining.IsPositive():
			ir.Warnings = append(ir.Warnings, itemWarning(WarnAnnualCapExhausted, item.Code,
				fmt.Sprintf("Plafond annuel épuisé pour %s", item.Category)))
			share = decimal.Zero
		case share.GreaterThan(remaining):
			share = remaining
			ir.Warnings = append(ir.Warnings, itemWarning(WarnAnnualCapPartial, item.Code,
				fmt.Sprintf("Plafond annuel partiellement épuisé (reste %s)", remaining.String())))
		}
		usage.Add(item.Category, share)
	}

	ir.Approval = RequirementFor(company, ApprovalInput{
		ActCode:       item.Code,
		Category:      item.Category,
		Price:         item.UnitPrice,
		PriceCurrency: in.PriceCurrency,
	}, in.Converter)
	if ir.Approval.Required {
		ir.Warnings = append(ir.Warnings, itemWarning(WarnApprovalRequired, item.Code,
			fmt.Sprintf("Approbation préalable requise pour %s", item.Code)))
	}

	ir.CompanyShare = share
	ir.PatientShare = ir.NetTotal.Sub(share)
	return ir
}

// contractWarnings advertencias bloqueantes de contrato y aviso de período de carencia.
func contractWarnings(company *entity.Company, enrolledAt *time.Time, at time.Time) []Warning {
	var out []Warning
	if !company.IsContractActive() {
		out = append(out, blocking(WarnContractInactive,
			fmt.Sprintf("Convention non active (statut: %s)", company.ContractStatus)))
	}
	if company.IsContractExpired(at) {
		out = append(out, blocking(WarnContractExpired,
			fmt.Sprintf("Contrat expiré le %s", company.ContractEndDate.Format("02/01/2006"))))
	}
	if days := company.DefaultCoverage.WaitingPeriodDays; days > 0 && enrolledAt != nil {
		if at.Before(enrolledAt.AddDate(0, 0, days)) {
			out = append(out, Warning{
				Code:     WarnWaitingPeriod,
				Message:  fmt.Sprintf("Période de carence en cours (%d jours)", days),
				Severity: SeverityWarning,
			})
		}
	}
	return out
}
