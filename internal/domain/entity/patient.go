package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PatientConvention afiliación del paciente a una convención.
type PatientConvention struct {
	CompanyID          string
	MemberNumber       string
	CoveragePercentage *decimal.Decimal // override propio del paciente; nil = sin override
	EnrolledAt         *time.Time
	Active             bool
}

// Patient datos mínimos del paciente que consume el motor de convenciones.
type Patient struct {
	ID          string
	PatientCode string
	FirstName   string
	LastName    string
	Convention  *PatientConvention
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FullName nombre completo para reportes.
func (p *Patient) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// CoverageOverride devuelve el porcentaje propio del paciente si está afiliado a la convención dada.
func (p *Patient) CoverageOverride(companyID string) *decimal.Decimal {
	if p == nil || p.Convention == nil || p.Convention.CompanyID != companyID {
		return nil
	}
	return p.Convention.CoveragePercentage
}
