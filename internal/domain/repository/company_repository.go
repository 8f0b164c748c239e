package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
)

// CompanyRepository define el puerto de persistencia para Company (convención).
// La implementación vive en infrastructure. GetByID devuelve nil, nil si no existe.
type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	GetByID(ctx context.Context, id string) (*entity.Company, error)
	Update(ctx context.Context, company *entity.Company) error
	List(ctx context.Context, limit, offset int) ([]*entity.Company, error)
	// ListParents devuelve las convenciones marcadas como padre.
	ListParents(ctx context.Context) ([]*entity.Company, error)
	// ListChildren devuelve las sub-empresas de una convención padre.
	ListChildren(ctx context.Context, parentID string) ([]*entity.Company, error)
	// AdjustBalance suma los deltas al saldo corriente de forma atómica (outstanding nunca baja de cero)
	// y devuelve el saldo resultante. Devuelve domain.ErrNotFound si la empresa no existe.
	AdjustBalance(ctx context.Context, id string, outstandingDelta, paidDelta decimal.Decimal) (entity.CompanyBalance, error)
}
