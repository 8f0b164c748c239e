package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
)

// InvoiceFilter filtros de consulta de facturas de convención.
type InvoiceFilter struct {
	CompanyIDs []string // vacío = todas las convenciones
	Statuses   []entity.InvoiceStatus
	From       *time.Time // dateIssued ≥ From
	To         *time.Time // dateIssued ≤ To
}

// InvoiceRepository define el puerto de persistencia para Invoice.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	// GetByID devuelve nil, nil si la factura no existe.
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	// ListPayableByCompany facturas de la convención en estado issued/sent/partial/overdue,
	// ordenadas por fecha de emisión ascendente (desempate por número).
	ListPayableByCompany(ctx context.Context, companyID string) ([]*entity.Invoice, error)
	// ListConvention facturas con parte convención que cumplen el filtro, por fecha de emisión ascendente.
	ListConvention(ctx context.Context, filter InvoiceFilter) ([]*entity.Invoice, error)
	// Update escribe la factura solo si su versión almacenada sigue siendo invoice.Version.
	// Si cambió devuelve domain.ErrStateConflict; si no, incrementa invoice.Version.
	Update(ctx context.Context, invoice *entity.Invoice) error
	// CategoryUsage suma la parte convención facturada por categoría para un paciente y una
	// convención en el rango [from, to] (facturas no anuladas).
	CategoryUsage(ctx context.Context, patientID, companyID string, from, to time.Time) (map[string]decimal.Decimal, error)
}
