package coverage

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
)

// DefaultAutoApproveCurrency moneda de referencia del umbral de auto-aprobación si la convención no la fija.
const DefaultAutoApproveCurrency = "USD"

// Converter convierte montos entre monedas con una tasa fija.
type Converter interface {
	Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}

// ApprovalInput datos del acto a evaluar.
type ApprovalInput struct {
	ActCode       string
	Category      string
	Price         decimal.Decimal // precio unitario del acto
	PriceCurrency string
}

// Requirement resultado de evaluar si un acto necesita aprobación previa.
type Requirement struct {
	Required      bool
	CategoryLevel bool // la categoría exige aprobación (obligatoria, sin auto-aprobación)
	ActLevel      bool // el código de acto exige aprobación
	AutoApproved  bool // exigida por el acto pero bajo el umbral de auto-aprobación
}

// RequirementFor determina si el acto requiere aprobación.
//
// La exigencia por categoría siempre gana: el umbral de auto-aprobación solo levanta una
// exigencia que proviene exclusivamente del código de acto.
func RequirementFor(company *entity.Company, in ApprovalInput, conv Converter) Requirement {
	var req Requirement
	if cat := company.CategorySettings(in.Category); cat != nil && cat.RequiresApproval {
		req.CategoryLevel = true
	}
	if act := company.ActSettings(in.ActCode); act != nil && act.RequiresApproval {
		req.ActLevel = true
	}
	req.Required = req.CategoryLevel || req.ActLevel
	if !req.Required || req.CategoryLevel {
		return req
	}
	threshold := company.ApprovalRules.AutoApproveUnderAmount
	if threshold == nil || !threshold.IsPositive() {
		return req
	}
	if underThreshold(in, *threshold, company.ApprovalRules.AutoApproveUnderCurrency, conv) {
		req.Required = false
		req.AutoApproved = true
	}
	return req
}

// underThreshold convierte el precio a la moneda del umbral. Si la conversión falla no se auto-aprueba.
func underThreshold(in ApprovalInput, threshold decimal.Decimal, thresholdCurrency string, conv Converter) bool {
	if thresholdCurrency == "" {
		thresholdCurrency = DefaultAutoApproveCurrency
	}
	price := in.Price
	if in.PriceCurrency != "" && in.PriceCurrency != thresholdCurrency {
		if conv == nil {
			return false
		}
		converted, err := conv.Convert(in.Price, in.PriceCurrency, thresholdCurrency)
		if err != nil {
			return false
		}
		price = converted
	}
	return price.LessThan(threshold)
}

// Decision resultado final del control de aprobación para una línea.
type Decision struct {
	Requirement
	HasApproval    bool
	ApprovalID     string
	ApprovalStatus string
}

// Decide cruza la exigencia con la aprobación encontrada (puede ser nil).
// Solo cuenta una aprobación en estado approved y vigente en la fecha dada.
func Decide(req Requirement, approval *entity.Approval, at time.Time) Decision {
	d := Decision{Requirement: req}
	if approval != nil && approval.IsValidOn(at) {
		d.HasApproval = true
		d.ApprovalID = approval.ID
	}
	switch {
	case !req.Required:
		d.ApprovalStatus = entity.ApprovalStatusNotRequired
	case d.HasApproval:
		d.ApprovalStatus = entity.ApprovalStatusApproved
	default:
		d.ApprovalStatus = entity.ApprovalStatusMissing
	}
	return d
}

// ApplyGate fija el estado de aprobación de la línea y recalcula su reparto.
// Si la aprobación es requerida y falta, la parte convención queda en cero sin importar
// el valor almacenado antes; en otro caso vuelve a la parte elegible calculada.
func ApplyGate(item *entity.InvoiceItem, d Decision) {
	item.ApprovalRequired = d.Required
	item.HasApproval = d.HasApproval
	item.ApprovalStatus = d.ApprovalStatus
	item.ApprovalID = d.ApprovalID
	if d.Required && !d.HasApproval {
		item.CompanyShare = decimal.Zero
	} else {
		item.CompanyShare = decimal.Min(item.EligibleCompanyShare, item.Total)
	}
	item.PatientShare = item.Total.Sub(item.CompanyShare)
}
