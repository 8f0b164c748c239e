package coverage

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CategoryUsage acumulador explícito del consumo anual por categoría.
// Se siembra con el consumo histórico del año y se incrementa a medida que se valoran
// los ítems de un mismo lote; no se comparte entre peticiones.
type CategoryUsage struct {
	consumed map[string]decimal.Decimal
}

// NewCategoryUsage crea el acumulador a partir del consumo histórico (puede ser nil).
func NewCategoryUsage(seed map[string]decimal.Decimal) *CategoryUsage {
	u := &CategoryUsage{consumed: make(map[string]decimal.Decimal, len(seed))}
	for cat, amt := range seed {
		u.Add(cat, amt)
	}
	return u
}

// Consumed monto convención ya consumido en la categoría.
func (u *CategoryUsage) Consumed(category string) decimal.Decimal {
	return u.consumed[normalizeCategory(category)]
}

// Add suma un monto consumido a la categoría.
func (u *CategoryUsage) Add(category string, amount decimal.Decimal) {
	key := normalizeCategory(category)
	u.consumed[key] = u.consumed[key].Add(amount)
}

// Snapshot copia del estado actual.
func (u *CategoryUsage) Snapshot() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(u.consumed))
	for k, v := range u.consumed {
		out[k] = v
	}
	return out
}

func normalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}
