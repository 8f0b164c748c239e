package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/repository"
)

var _ repository.PatientRepository = (*PatientRepo)(nil)

// PatientRepo lectura de pacientes y su afiliación a convención.
type PatientRepo struct {
	q Querier
}

func NewPatientRepository(q Querier) *PatientRepo {
	return &PatientRepo{q: q}
}

func (r *PatientRepo) GetByID(ctx context.Context, id string) (*entity.Patient, error) {
	const query = `
		SELECT id, patient_code, first_name, last_name,
		       convention_company_id, member_number, coverage_percentage, enrolled_at, convention_active,
		       created_at, updated_at
		  FROM patients WHERE id = $1`
	var (
		p         entity.Patient
		companyID *string
		member    *string
		coverage  decimal.NullDecimal
		enrolled  *time.Time
		active    bool
	)
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.PatientCode, &p.FirstName, &p.LastName,
		&companyID, &member, &coverage, &enrolled, &active,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}
	if companyID != nil {
		p.Convention = &entity.PatientConvention{
			CompanyID:    *companyID,
			MemberNumber: derefString(member),
			EnrolledAt:   enrolled,
			Active:       active,
		}
		if coverage.Valid {
			p.Convention.CoveragePercentage = &coverage.Decimal
		}
	}
	return &p, nil
}

func (r *PatientRepo) Create(ctx context.Context, p *entity.Patient) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	var (
		companyID, member *string
		coverage          decimal.NullDecimal
		enrolled          *time.Time
		active            bool
	)
	if c := p.Convention; c != nil {
		companyID = nullIfEmpty(c.CompanyID)
		member = nullIfEmpty(c.MemberNumber)
		if c.CoveragePercentage != nil {
			coverage = decimal.NewNullDecimal(*c.CoveragePercentage)
		}
		enrolled = dateOnly(c.EnrolledAt)
		active = c.Active
	}
	const query = `
		INSERT INTO patients (id, patient_code, first_name, last_name,
		                      convention_company_id, member_number, coverage_percentage, enrolled_at, convention_active,
		                      created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.PatientCode, p.FirstName, p.LastName,
		companyID, member, coverage, enrolled, active,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: paciente %s", domain.ErrDuplicate, p.ID)
		}
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}
