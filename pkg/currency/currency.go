// Package currency conversión a tasa fija y formato de montos por idioma.
package currency

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// ErrUnknownCurrency la moneda no tiene tasa configurada.
var ErrUnknownCurrency = errors.New("moneda sin tasa configurada")

// FixedRate convierte montos con tasas fijas expresadas como unidades de cada moneda
// por una unidad de la moneda de referencia. No es un servicio de cambio.
type FixedRate struct {
	reference string
	rates     map[string]decimal.Decimal
}

// NewFixedRate construye el conversor. La moneda de referencia vale 1.
// Ejemplo: NewFixedRate("USD", map[string]decimal.Decimal{"CDF": 2800}).
func NewFixedRate(reference string, rates map[string]decimal.Decimal) *FixedRate {
	ref := normalize(reference)
	r := &FixedRate{reference: ref, rates: map[string]decimal.Decimal{ref: decimal.NewFromInt(1)}}
	for code, rate := range rates {
		if rate.IsPositive() {
			r.rates[normalize(code)] = rate
		}
	}
	return r
}

// Reference moneda de referencia.
func (r *FixedRate) Reference() string { return r.reference }

// Convert convierte amount de from a to.
func (r *FixedRate) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	from, to = normalize(from), normalize(to)
	if from == to {
		return amount, nil
	}
	fromRate, ok := r.rates[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownCurrency, from)
	}
	toRate, ok := r.rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownCurrency, to)
	}
	return amount.Div(fromRate).Mul(toRate), nil
}

// Formatter formatea montos según el idioma de la clínica (separador de miles y decimales).
type Formatter struct {
	printer *message.Printer
}

// NewFormatter crea un formateador para la etiqueta BCP 47 dada (ej. "fr-CD").
// Una etiqueta inválida usa francés.
func NewFormatter(tag string) *Formatter {
	lang, err := language.Parse(tag)
	if err != nil {
		lang = language.French
	}
	return &Formatter{printer: message.NewPrinter(lang)}
}

// Format devuelve el monto con agrupación de miles seguido del código ISO.
func (f *Formatter) Format(amount decimal.Decimal, code string) string {
	label := normalize(code)
	if unit, err := currency.ParseISO(label); err == nil {
		label = unit.String()
	}
	return f.printer.Sprintf("%v %s", number.Decimal(amount.InexactFloat64(), number.MaxFractionDigits(2)), label)
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
