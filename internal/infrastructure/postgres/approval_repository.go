package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/repository"
)

var _ repository.ApprovalRepository = (*ApprovalRepo)(nil)

// ApprovalRepo aprobaciones previas (délibérations) registradas por el flujo externo.
type ApprovalRepo struct {
	q Querier
}

func NewApprovalRepository(q Querier) *ApprovalRepo {
	return &ApprovalRepo{q: q}
}

// FindValid devuelve la aprobación vigente con vencimiento más lejano; las que no vencen van primero.
func (r *ApprovalRepo) FindValid(ctx context.Context, patientID, companyID, actCode string, at time.Time) (*entity.Approval, error) {
	const query = `
		SELECT id, patient_id, company_id, act_code, status, valid_until, created_at, updated_at
		  FROM approvals
		 WHERE patient_id = $1
		   AND company_id = $2
		   AND lower(trim(act_code)) = lower(trim($3))
		   AND status = 'approved'
		   AND (valid_until IS NULL OR valid_until >= $4::date)
		 ORDER BY valid_until DESC NULLS FIRST, id
		 LIMIT 1`
	var a entity.Approval
	err := r.q.QueryRow(ctx, query, patientID, companyID, actCode, at.Format("2006-01-02")).Scan(
		&a.ID, &a.PatientID, &a.CompanyID, &a.ActCode, &a.Status, &a.ValidUntil, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find approval: %w", err)
	}
	return &a, nil
}

func (r *ApprovalRepo) Create(ctx context.Context, a *entity.Approval) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	const query = `
		INSERT INTO approvals (id, patient_id, company_id, act_code, status, valid_until, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.q.Exec(ctx, query,
		a.ID, a.PatientID, a.CompanyID, a.ActCode, a.Status, dateOnly(a.ValidUntil), a.CreatedAt, a.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert approval: %w", err)
	}
	return nil
}
