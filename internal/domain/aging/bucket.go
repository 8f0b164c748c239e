// Package aging clasifica saldos pendientes por antigüedad desde la fecha de emisión.
package aging

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bucket tramo de antigüedad.
type Bucket string

const (
	BucketCurrent Bucket = "current" // < 30 días
	Bucket30      Bucket = "30"      // 30–59 días
	Bucket60      Bucket = "60"      // 60–89 días
	Bucket90Plus  Bucket = "90+"     // ≥ 90 días
)

// Buckets orden de presentación.
var Buckets = []Bucket{BucketCurrent, Bucket30, Bucket60, Bucket90Plus}

// AgeInDays días calendario entre la emisión y la fecha de corte. Se comparan fechas, no horas.
func AgeInDays(issued, asOf time.Time) int {
	from := time.Date(issued.Year(), issued.Month(), issued.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// Classify devuelve el tramo para una antigüedad. Una antigüedad negativa (emisión posterior
// al corte) cuenta como corriente.
func Classify(days int) Bucket {
	switch {
	case days >= 90:
		return Bucket90Plus
	case days >= 60:
		return Bucket60
	case days >= 30:
		return Bucket30
	default:
		return BucketCurrent
	}
}

// Totals montos por tramo.
type Totals struct {
	Current  decimal.Decimal `json:"current"`
	Days30   decimal.Decimal `json:"days_30"`
	Days60   decimal.Decimal `json:"days_60"`
	Days90   decimal.Decimal `json:"days_90_plus"`
	Total    decimal.Decimal `json:"total"`
	Invoices int             `json:"invoice_count"`
}

// Add suma un monto al tramo indicado.
func (t *Totals) Add(b Bucket, amount decimal.Decimal) {
	switch b {
	case BucketCurrent:
		t.Current = t.Current.Add(amount)
	case Bucket30:
		t.Days30 = t.Days30.Add(amount)
	case Bucket60:
		t.Days60 = t.Days60.Add(amount)
	case Bucket90Plus:
		t.Days90 = t.Days90.Add(amount)
	}
	t.Total = t.Total.Add(amount)
	t.Invoices++
}

// Merge acumula otros totales.
func (t *Totals) Merge(o Totals) {
	t.Current = t.Current.Add(o.Current)
	t.Days30 = t.Days30.Add(o.Days30)
	t.Days60 = t.Days60.Add(o.Days60)
	t.Days90 = t.Days90.Add(o.Days90)
	t.Total = t.Total.Add(o.Total)
	t.Invoices += o.Invoices
}
