package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xtm888/medflow-clinic-sub000/internal/application/dto"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/repository"
	"github.com/xtm888/medflow-clinic-sub000/pkg/clock"
)

var hundred = decimal.NewFromInt(100)

// ConventionUseCase administración de convenciones (empresas y aseguradoras).
type ConventionUseCase struct {
	repo           repository.CompanyRepository
	clock          clock.Clock
	clinicCurrency string
}

// NewConventionUseCase construye el caso de uso con el puerto de persistencia.
func NewConventionUseCase(repo repository.CompanyRepository, clk clock.Clock, clinicCurrency string) *ConventionUseCase {
	return &ConventionUseCase{repo: repo, clock: clk, clinicCurrency: clinicCurrency}
}

// Create crea una convención. Devuelve domain.ErrDuplicate si el código ya existe y
// domain.ErrHierarchy si viola la jerarquía padre/hija.
func (uc *ConventionUseCase) Create(ctx context.Context, in dto.CreateConventionRequest) (*dto.ConventionResponse, error) {
	if err := validateConvention(in); err != nil {
		return nil, err
	}
	endDate, err := dto.ParseDate(in.ContractEndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	now := uc.clock.Now()
	company := &entity.Company{
		ID:                    uuid.New().String(),
		Code:                  strings.ToUpper(strings.TrimSpace(in.Code)),
		Name:                  strings.TrimSpace(in.Name),
		Type:                  in.Type,
		ContractStatus:        in.ContractStatus,
		ContractEndDate:       endDate,
		IsParentConvention:    in.IsParentConvention,
		ParentConventionID:    in.ParentConventionID,
		DefaultCoverage:       in.DefaultCoverage,
		CoveredCategories:     in.CoveredCategories,
		ActsRequiringApproval: in.ActsRequiringApproval,
		ApprovalRules:         in.ApprovalRules,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if company.Type == "" {
		company.Type = entity.CompanyTypeOther
	}
	if company.ContractStatus == "" {
		company.ContractStatus = entity.ContractStatusActive
	}
	if company.DefaultCoverage.Currency == "" {
		company.DefaultCoverage.Currency = uc.clinicCurrency
	}
	if company.ParentConventionID != nil && strings.TrimSpace(*company.ParentConventionID) == "" {
		company.ParentConventionID = nil
	}

	// ── Jerarquía: árbol de profundidad 1 ────────────────────────────────────
	if !company.ValidateHierarchy() {
		return nil, domain.ErrHierarchy
	}
	if company.ParentConventionID != nil {
		parent, err := uc.repo.GetByID(ctx, *company.ParentConventionID)
		if err != nil {
			return nil, fmt.Errorf("obtener convención padre: %w", err)
		}
		if parent == nil || !parent.IsParentConvention {
			return nil, fmt.Errorf("%w: la convención padre no existe o no es padre", domain.ErrHierarchy)
		}
	}

	if err := uc.repo.Create(ctx, company); err != nil {
		return nil, err
	}
	out := dto.ConventionFromEntity(company)
	return &out, nil
}

// GetByID obtiene una convención por ID.
func (uc *ConventionUseCase) GetByID(ctx context.Context, id string) (*dto.ConventionResponse, error) {
	company, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	out := dto.ConventionFromEntity(company)
	return &out, nil
}

// List lista convenciones con paginación.
func (uc *ConventionUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.ConventionListResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ConventionResponse, 0, len(list))
	for _, c := range list {
		items = append(items, dto.ConventionFromEntity(c))
	}
	return &dto.ConventionListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

func validateConvention(in dto.CreateConventionRequest) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name requerido", domain.ErrInvalidInput)
	}
	switch in.Type {
	case "", entity.CompanyTypeEmployer, entity.CompanyTypeInsurer, entity.CompanyTypeNGO, entity.CompanyTypeOther:
	default:
		return fmt.Errorf("%w: type %q", domain.ErrInvalidInput, in.Type)
	}
	switch in.ContractStatus {
	case "", entity.ContractStatusActive, entity.ContractStatusSuspended, entity.ContractStatusTerminated, entity.ContractStatusExpired:
	default:
		return fmt.Errorf("%w: contract_status %q", domain.ErrInvalidInput, in.ContractStatus)
	}
	if !isPercentage(in.DefaultCoverage.Percentage) {
		return fmt.Errorf("%w: default_coverage.percentage fuera de 0–100", domain.ErrInvalidInput)
	}
	if in.DefaultCoverage.MaxPerVisit != nil && in.DefaultCoverage.MaxPerVisit.IsNegative() {
		return fmt.Errorf("%w: max_per_visit negativo", domain.ErrInvalidInput)
	}
	if in.DefaultCoverage.WaitingPeriodDays < 0 {
		return fmt.Errorf("%w: waiting_period_days negativo", domain.ErrInvalidInput)
	}
	if !isPercentage(in.ApprovalRules.GlobalDiscount.Percentage) {
		return fmt.Errorf("%w: global_discount fuera de 0–100", domain.ErrInvalidInput)
	}
	seen := make(map[string]bool, len(in.CoveredCategories))
	for _, cat := range in.CoveredCategories {
		key := strings.ToLower(strings.TrimSpace(cat.Category))
		if key == "" || seen[key] {
			return fmt.Errorf("%w: categoría vacía o repetida %q", domain.ErrInvalidInput, cat.Category)
		}
		seen[key] = true
		if cat.CoveragePercentage != nil && !isPercentage(*cat.CoveragePercentage) {
			return fmt.Errorf("%w: cobertura de %s fuera de 0–100", domain.ErrInvalidInput, cat.Category)
		}
		if !isPercentage(cat.AdditionalDiscount) {
			return fmt.Errorf("%w: descuento de %s fuera de 0–100", domain.ErrInvalidInput, cat.Category)
		}
	}
	for _, act := range in.ActsRequiringApproval {
		if strings.TrimSpace(act.ActCode) == "" {
			return fmt.Errorf("%w: act_code vacío", domain.ErrInvalidInput)
		}
	}
	return nil
}

func isPercentage(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(hundred)
}
