package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/repository"
)

var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo convenciones en memoria.
type CompanyRepo struct {
	s *Store
}

func (r *CompanyRepo) Create(_ context.Context, company *entity.Company) error {
	if company.ID == "" {
		company.ID = uuid.NewString()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.companies[company.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, c := range r.s.companies {
		if company.Code != "" && c.Code == company.Code {
			return domain.ErrDuplicate
		}
	}
	r.s.companies[company.ID] = cloneCompany(company)
	return nil
}

func (r *CompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return cloneCompany(r.s.companies[id]), nil
}

func (r *CompanyRepo) Update(_ context.Context, company *entity.Company) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.companies[company.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.companies[company.ID] = cloneCompany(company)
	return nil
}

func (r *CompanyRepo) List(_ context.Context, limit, offset int) ([]*entity.Company, error) {
	all := r.sorted(func(*entity.Company) bool { return true })
	if offset >= len(all) {
		return []*entity.Company{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

func (r *CompanyRepo) ListParents(_ context.Context) ([]*entity.Company, error) {
	return r.sorted(func(c *entity.Company) bool { return c.IsParentConvention }), nil
}

func (r *CompanyRepo) ListChildren(_ context.Context, parentID string) ([]*entity.Company, error) {
	return r.sorted(func(c *entity.Company) bool {
		return c.ParentConventionID != nil && *c.ParentConventionID == parentID
	}), nil
}

func (r *CompanyRepo) AdjustBalance(_ context.Context, id string, outstandingDelta, paidDelta decimal.Decimal) (entity.CompanyBalance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.companies[id]
	if !ok {
		return entity.CompanyBalance{}, domain.ErrNotFound
	}
	c.Balance.Outstanding = decimal.Max(decimal.Zero, c.Balance.Outstanding.Add(outstandingDelta))
	c.Balance.Paid = c.Balance.Paid.Add(paidDelta)
	return c.Balance, nil
}

// sorted convenciones filtradas, por nombre y luego ID.
func (r *CompanyRepo) sorted(keep func(*entity.Company) bool) []*entity.Company {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Company, 0, len(r.s.companies))
	for _, c := range r.s.companies {
		if keep(c) {
			out = append(out, cloneCompany(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}
