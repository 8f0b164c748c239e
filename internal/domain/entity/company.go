package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Estados del contrato de convención.
const (
	ContractStatusActive     = "active"
	ContractStatusSuspended  = "suspended"
	ContractStatusTerminated = "terminated"
	ContractStatusExpired    = "expired"
)

// Tipos de empresa conveniada.
const (
	CompanyTypeEmployer = "employer"
	CompanyTypeInsurer  = "insurer"
	CompanyTypeNGO      = "ngo"
	CompanyTypeOther    = "other"
)

// DefaultCoverage cobertura por defecto de la convención.
type DefaultCoverage struct {
	Percentage        decimal.Decimal  `json:"percentage"`
	Currency          string           `json:"currency"`
	MaxPerVisit       *decimal.Decimal `json:"max_per_visit,omitempty"` // nil = sin tope por visita
	WaitingPeriodDays int              `json:"waiting_period_days"`
}

// CategoryCoverage override de cobertura para una categoría de servicio.
type CategoryCoverage struct {
	Category           string           `json:"category"`
	CoveragePercentage *decimal.Decimal `json:"coverage_percentage,omitempty"` // nil = usar el porcentaje por defecto
	MaxAmount          *decimal.Decimal `json:"max_amount,omitempty"`          // tope por ítem
	MaxPerCategory     *decimal.Decimal `json:"max_per_category,omitempty"`    // tope anual por categoría
	NotCovered         bool             `json:"not_covered"`
	RequiresApproval   bool             `json:"requires_approval"`
	AdditionalDiscount decimal.Decimal  `json:"additional_discount"`
}

// ActApproval override a nivel de código de acto.
type ActApproval struct {
	ActCode          string `json:"act_code"`
	RequiresApproval bool   `json:"requires_approval"`
	Reason           string `json:"reason,omitempty"`
}

// GlobalDiscount descuento global de la convención (prioritario sobre el de categoría).
type GlobalDiscount struct {
	Percentage        decimal.Decimal `json:"percentage"`
	ExcludeCategories []string        `json:"exclude_categories,omitempty"`
}

// ApprovalRules reglas de aprobación previa (délibération).
type ApprovalRules struct {
	AutoApproveUnderAmount   *decimal.Decimal `json:"auto_approve_under_amount,omitempty"`
	AutoApproveUnderCurrency string           `json:"auto_approve_under_currency,omitempty"`
	GlobalDiscount           GlobalDiscount   `json:"global_discount"`
}

// CompanyBalance saldo corriente de la convención.
type CompanyBalance struct {
	Outstanding decimal.Decimal `json:"outstanding"`
	Paid        decimal.Decimal `json:"paid"`
}

// Company representa una empresa o aseguradora conveniada (convención).
// Una empresa es padre (IsParentConvention), hija (ParentConventionID != nil) o independiente;
// nunca padre e hija a la vez.
type Company struct {
	ID                    string
	Code                  string // código corto usado en referencias de bordereau
	Name                  string
	Type                  string
	ContractStatus        string
	ContractEndDate       *time.Time
	IsParentConvention    bool
	ParentConventionID    *string
	DefaultCoverage       DefaultCoverage
	CoveredCategories     []CategoryCoverage
	ActsRequiringApproval []ActApproval
	ApprovalRules         ApprovalRules
	Balance               CompanyBalance
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// ValidateHierarchy verifica el invariante padre/hija (árbol de profundidad 1).
func (c *Company) ValidateHierarchy() bool {
	if c.IsParentConvention && c.ParentConventionID != nil {
		return false
	}
	if c.ParentConventionID != nil && *c.ParentConventionID == c.ID {
		return false
	}
	return true
}

// Reference devuelve el identificador usado en documentos externos (Code o ID).
func (c *Company) Reference() string {
	if c.Code != "" {
		return c.Code
	}
	return c.ID
}

// CategorySettings devuelve el override de la categoría (comparación sin mayúsculas) o nil.
func (c *Company) CategorySettings(category string) *CategoryCoverage {
	for i := range c.CoveredCategories {
		if strings.EqualFold(c.CoveredCategories[i].Category, category) {
			return &c.CoveredCategories[i]
		}
	}
	return nil
}

// ActSettings devuelve el override del código de acto (comparación sin mayúsculas) o nil.
func (c *Company) ActSettings(actCode string) *ActApproval {
	code := strings.TrimSpace(actCode)
	for i := range c.ActsRequiringApproval {
		if strings.EqualFold(strings.TrimSpace(c.ActsRequiringApproval[i].ActCode), code) {
			return &c.ActsRequiringApproval[i]
		}
	}
	return nil
}

// IsContractActive indica si el estado del contrato permite facturar a la convención.
func (c *Company) IsContractActive() bool {
	return c.ContractStatus == "" || c.ContractStatus == ContractStatusActive
}

// IsContractExpired indica si la fecha de fin del contrato ya pasó en la fecha dada.
func (c *Company) IsContractExpired(at time.Time) bool {
	if c.ContractEndDate == nil {
		return false
	}
	end := time.Date(c.ContractEndDate.Year(), c.ContractEndDate.Month(), c.ContractEndDate.Day(), 23, 59, 59, 0, c.ContractEndDate.Location())
	return at.After(end)
}
