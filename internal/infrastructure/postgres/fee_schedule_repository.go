package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/repository"
)

var _ repository.FeeScheduleRepository = (*FeeScheduleRepo)(nil)

// FeeScheduleRepo tarifarios de convención; las líneas se guardan como JSONB.
type FeeScheduleRepo struct {
	q Querier
}

func NewFeeScheduleRepository(q Querier) *FeeScheduleRepo {
	return &FeeScheduleRepo{q: q}
}

// GetActive devuelve el tarifario vigente en at con inicio de vigencia más reciente.
func (r *FeeScheduleRepo) GetActive(ctx context.Context, companyID string, at time.Time) (*entity.ConventionFeeSchedule, error) {
	const query = `
		SELECT id, company_id, name, effective_from, effective_to, items, created_at, updated_at
		  FROM convention_fee_schedules
		 WHERE company_id = $1
		   AND effective_from <= $2
		   AND (effective_to IS NULL OR effective_to >= $2)
		 ORDER BY effective_from DESC
		 LIMIT 1`
	var (
		s     entity.ConventionFeeSchedule
		items []byte
	)
	err := r.q.QueryRow(ctx, query, companyID, at).Scan(
		&s.ID, &s.CompanyID, &s.Name, &s.EffectiveFrom, &s.EffectiveTo, &items, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active fee schedule: %w", err)
	}
	if err := fromJSONB(items, &s.Items); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *FeeScheduleRepo) Create(ctx context.Context, s *entity.ConventionFeeSchedule) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	items, err := toJSONB(s.Items)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO convention_fee_schedules (id, company_id, name, effective_from, effective_to, items, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.q.Exec(ctx, query,
		s.ID, s.CompanyID, s.Name, s.EffectiveFrom, s.EffectiveTo, items, s.CreatedAt, s.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert fee schedule: %w", err)
	}
	return nil
}
