package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FeeScheduleItem precio convenido de un acto.
type FeeScheduleItem struct {
	Code     string          `json:"code"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

// ConventionFeeSchedule tarifario propio de una convención que reemplaza al tarifario estándar
// dentro de su rango de vigencia.
type ConventionFeeSchedule struct {
	ID            string
	CompanyID     string
	Name          string
	EffectiveFrom time.Time
	EffectiveTo   *time.Time // nil = vigencia abierta
	Items         []FeeScheduleItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsEffective indica si el tarifario está vigente en la fecha dada.
func (s *ConventionFeeSchedule) IsEffective(at time.Time) bool {
	if at.Before(s.EffectiveFrom) {
		return false
	}
	return s.EffectiveTo == nil || !at.After(*s.EffectiveTo)
}

// PriceFor busca el precio convenido de un código (sin mayúsculas).
func (s *ConventionFeeSchedule) PriceFor(code string) (FeeScheduleItem, bool) {
	for _, it := range s.Items {
		if strings.EqualFold(it.Code, code) {
			return it, true
		}
	}
	return FeeScheduleItem{}, false
}
