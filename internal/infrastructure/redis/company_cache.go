package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/xtm888/medflow-clinic-sub000/internal/application/billing"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/repository"
)

var (
	_ repository.CompanyRepository = (*CachedCompanyRepository)(nil)
	_ billing.BillingTxRunner      = (*InvalidatingTxRunner)(nil)
)

const keyPrefix = "medflow:company:"

// CachedCompanyRepository cachea GetByID; las escrituras invalidan la clave.
// Un fallo de Redis nunca falla la operación: se registra y se consulta el repo subyacente.
type CachedCompanyRepository struct {
	repository.CompanyRepository
	store Store
	ttl   time.Duration
	log   zerolog.Logger
}

func NewCachedCompanyRepository(inner repository.CompanyRepository, store Store, ttl time.Duration, log zerolog.Logger) *CachedCompanyRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedCompanyRepository{CompanyRepository: inner, store: store, ttl: ttl, log: log}
}

func (r *CachedCompanyRepository) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	key := keyPrefix + id
	data, err := r.store.Get(ctx, key)
	switch {
	case err == nil:
		var c entity.Company
		if jsonErr := json.Unmarshal(data, &c); jsonErr == nil {
			return &c, nil
		}
		r.log.Warn().Str("company_id", id).Msg("entrada de caché corrupta, se descarta")
	case !errors.Is(err, ErrCacheMiss):
		r.log.Warn().Err(err).Str("company_id", id).Msg("caché no disponible")
	}

	c, err := r.CompanyRepository.GetByID(ctx, id)
	if err != nil || c == nil {
		return c, err
	}
	if raw, err := json.Marshal(c); err == nil {
		if err := r.store.Set(ctx, key, raw, r.ttl); err != nil {
			r.log.Warn().Err(err).Str("company_id", id).Msg("no se pudo guardar en caché")
		}
	}
	return c, nil
}

func (r *CachedCompanyRepository) Create(ctx context.Context, company *entity.Company) error {
	if err := r.CompanyRepository.Create(ctx, company); err != nil {
		return err
	}
	r.Invalidate(ctx, company.ID)
	return nil
}

func (r *CachedCompanyRepository) Update(ctx context.Context, company *entity.Company) error {
	if err := r.CompanyRepository.Update(ctx, company); err != nil {
		return err
	}
	r.Invalidate(ctx, company.ID)
	return nil
}

func (r *CachedCompanyRepository) AdjustBalance(ctx context.Context, id string, outstandingDelta, paidDelta decimal.Decimal) (entity.CompanyBalance, error) {
	b, err := r.CompanyRepository.AdjustBalance(ctx, id, outstandingDelta, paidDelta)
	if err != nil {
		return b, err
	}
	r.Invalidate(ctx, id)
	return b, nil
}

// Invalidate borra las entradas de las convenciones dadas.
func (r *CachedCompanyRepository) Invalidate(ctx context.Context, ids ...string) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyPrefix + id
	}
	if err := r.store.Del(ctx, keys...); err != nil {
		r.log.Warn().Err(err).Strs("company_ids", ids).Msg("no se pudo invalidar la caché")
	}
}

// InvalidatingTxRunner envuelve un BillingTxRunner e invalida, tras el commit, las
// convenciones cuyo saldo o datos cambiaron dentro de la transacción.
type InvalidatingTxRunner struct {
	inner billing.BillingTxRunner
	cache *CachedCompanyRepository
}

func NewInvalidatingTxRunner(inner billing.BillingTxRunner, cache *CachedCompanyRepository) *InvalidatingTxRunner {
	return &InvalidatingTxRunner{inner: inner, cache: cache}
}

func (r *InvalidatingTxRunner) RunBilling(ctx context.Context, fn func(
	companyRepo repository.CompanyRepository,
	invoiceRepo repository.InvoiceRepository,
) error) error {
	var touched []string
	err := r.inner.RunBilling(ctx, func(companyRepo repository.CompanyRepository, invoiceRepo repository.InvoiceRepository) error {
		return fn(&touchRecorder{CompanyRepository: companyRepo, touched: &touched}, invoiceRepo)
	})
	if err != nil {
		return err
	}
	r.cache.Invalidate(ctx, touched...)
	return nil
}

// touchRecorder anota los IDs escritos dentro de la transacción.
type touchRecorder struct {
	repository.CompanyRepository
	touched *[]string
}

func (t *touchRecorder) Update(ctx context.Context, company *entity.Company) error {
	*t.touched = append(*t.touched, company.ID)
	return t.CompanyRepository.Update(ctx, company)
}

func (t *touchRecorder) AdjustBalance(ctx context.Context, id string, outstandingDelta, paidDelta decimal.Decimal) (entity.CompanyBalance, error) {
	*t.touched = append(*t.touched, id)
	return t.CompanyRepository.AdjustBalance(ctx, id, outstandingDelta, paidDelta)
}
