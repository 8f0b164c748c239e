package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xtm888/medflow-clinic-sub000/internal/application/dto"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/coverage"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/repository"
	"github.com/xtm888/medflow-clinic-sub000/pkg/clock"
)

// CoverageUseCase resuelve reglas de cobertura y calcula vistas previas del reparto.
// Es de solo lectura: nunca persiste el resultado.
type CoverageUseCase struct {
	companyRepo repository.CompanyRepository
	patientRepo repository.PatientRepository
	feeRepo     repository.FeeScheduleRepository
	usage       *UsageTracker
	converter   coverage.Converter
	clock       clock.Clock
	metrics     Metrics
	settings    Settings
}

// NewCoverageUseCase construye el caso de uso.
func NewCoverageUseCase(
	companyRepo repository.CompanyRepository,
	patientRepo repository.PatientRepository,
	feeRepo repository.FeeScheduleRepository,
	usage *UsageTracker,
	converter coverage.Converter,
	clk clock.Clock,
	metrics Metrics,
	settings Settings,
) *CoverageUseCase {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &CoverageUseCase{
		companyRepo: companyRepo,
		patientRepo: patientRepo,
		feeRepo:     feeRepo,
		usage:       usage,
		converter:   converter,
		clock:       clk,
		metrics:     metrics,
		settings:    settings,
	}
}

// ResolveCoverage devuelve la regla aplicable a una categoría.
func (uc *CoverageUseCase) ResolveCoverage(ctx context.Context, companyID, category string, patientOverride *decimal.Decimal) (*dto.CoverageRuleResponse, error) {
	if strings.TrimSpace(category) == "" {
		return nil, domain.ErrInvalidInput
	}
	company, err := loadCompany(ctx, uc.companyRepo, companyID)
	if err != nil {
		return nil, err
	}
	rule := coverage.Resolve(company, category, patientOverride)
	return &dto.CoverageRuleResponse{
		Category:              category,
		CoveragePercentage:    rule.CoveragePercentage,
		Source:                rule.Source,
		MaxAmountPerItem:      rule.MaxAmountPerItem,
		MaxPerCategoryPerYear: rule.MaxPerCategoryPerYear,
		NotCovered:            rule.NotCovered,
		RequiresApproval:      rule.RequiresApproval,
	}, nil
}

// PreviewCoverage calcula el reparto convención/paciente de los ítems sin persistir nada.
// Los topes anuales se siembran con el consumo del año de la fecha de valoración.
func (uc *CoverageUseCase) PreviewCoverage(ctx context.Context, companyID string, in dto.CoveragePreviewRequest) (*dto.CoveragePreviewResponse, error) {
	at, err := uc.valuationDate(in.Date)
	if err != nil {
		return nil, err
	}
	company, err := loadCompany(ctx, uc.companyRepo, companyID)
	if err != nil {
		return nil, err
	}
	patient, err := loadPatient(ctx, uc.patientRepo, in.PatientID)
	if err != nil {
		return nil, err
	}

	calc, err := uc.calculate(ctx, company, patient, in.Items, at)
	if err != nil {
		return nil, err
	}
	uc.metrics.ObserveCoverage(calc.result.CanProceed, calc.result.Warnings)

	out := &dto.CoveragePreviewResponse{
		CompanyID:  company.ID,
		PatientID:  patient.ID,
		Items:      make([]dto.ItemPreviewDTO, 0, len(calc.result.Items)),
		YTDUsage:   calc.ytd,
		Warnings:   calc.result.Warnings,
		CanProceed: calc.result.CanProceed,
	}
	if out.Warnings == nil {
		out.Warnings = []coverage.Warning{}
	}
	for _, it := range calc.result.Items {
		out.Items = append(out.Items, dto.ItemPreviewDTO{
			Code:               it.Code,
			Description:        it.Description,
			Category:           it.Category,
			Quantity:           it.Quantity,
			UnitPrice:          it.UnitPrice,
			ItemTotal:          it.ItemTotal,
			Discount:           it.Discount,
			NetTotal:           it.NetTotal,
			CoveragePercentage: it.CoveragePercentage,
			CoverageSource:     it.CoverageSource,
			CompanyShare:       it.CompanyShare,
			PatientShare:       it.PatientShare,
			NotCovered:         it.NotCovered,
			RequiresApproval:   it.Approval.Required,
			AutoApproved:       it.Approval.AutoApproved,
			Warnings:           it.Warnings,
		})
	}
	s := calc.result.Summary
	out.Summary = dto.CoverageSummaryDTO{
		TotalAmount:       s.TotalAmount,
		TotalDiscount:     s.TotalDiscount,
		NetAmount:         s.NetAmount,
		TotalCompanyShare: s.TotalCompanyShare,
		TotalPatientShare: s.TotalPatientShare,
		EffectiveCoverage: s.EffectiveCoverage,
		VisitCapApplied:   s.VisitCapApplied,
		VisitCapExcess:    s.VisitCapExcess,
		Currency:          uc.settings.ClinicCurrency,
	}
	return out, nil
}

// calculation resultado interno compartido por la vista previa y la facturación.
type calculation struct {
	result coverage.Result
	ytd    map[string]decimal.Decimal
}

// calculate valora los ítems, completa precios desde el tarifario de la convención y aplica
// el motor de cobertura con un acumulador sembrado con el consumo del año.
func (uc *CoverageUseCase) calculate(ctx context.Context, company *entity.Company, patient *entity.Patient, reqItems []dto.BillableItemRequest, at time.Time) (*calculation, error) {
	items, err := uc.priceItems(ctx, company.ID, reqItems, at)
	if err != nil {
		return nil, err
	}
	ytd, err := uc.usage.YearToDate(ctx, patient.ID, company.ID, at.Year())
	if err != nil {
		return nil, err
	}

	in := coverage.Input{
		Company:         company,
		PatientOverride: patient.CoverageOverride(company.ID),
		Items:           items,
		Usage:           coverage.NewCategoryUsage(ytd),
		At:              at,
		PriceCurrency:   uc.settings.ClinicCurrency,
		Converter:       uc.converter,
	}
	if patient.Convention != nil && patient.Convention.CompanyID == company.ID {
		in.EnrolledAt = patient.Convention.EnrolledAt
	}
	return &calculation{result: coverage.Calculate(in), ytd: ytd}, nil
}

// priceItems valida los ítems y toma del tarifario vigente el precio de los que llegan en cero.
func (uc *CoverageUseCase) priceItems(ctx context.Context, companyID string, reqItems []dto.BillableItemRequest, at time.Time) ([]coverage.Item, error) {
	if len(reqItems) == 0 {
		return nil, fmt.Errorf("%w: sin ítems", domain.ErrInvalidInput)
	}
	var schedule *entity.ConventionFeeSchedule
	scheduleLoaded := false

	items := make([]coverage.Item, 0, len(reqItems))
	for _, r := range reqItems {
		if strings.TrimSpace(r.Code) == "" || !r.Quantity.IsPositive() || r.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: ítem %q inválido", domain.ErrInvalidInput, r.Code)
		}
		it := coverage.Item{
			Code:        r.Code,
			Description: r.Description,
			Category:    r.Category,
			Quantity:    r.Quantity,
			UnitPrice:   r.UnitPrice,
		}
		if it.UnitPrice.IsZero() {
			if !scheduleLoaded {
				s, err := uc.feeRepo.GetActive(ctx, companyID, at)
				if err != nil {
					return nil, fmt.Errorf("tarifario de convención: %w", err)
				}
				schedule, scheduleLoaded = s, true
			}
			if schedule == nil {
				return nil, fmt.Errorf("%w: ítem %q sin precio", domain.ErrInvalidInput, r.Code)
			}
			fee, ok := schedule.PriceFor(r.Code)
			if !ok {
				return nil, fmt.Errorf("%w: ítem %q sin precio en el tarifario", domain.ErrInvalidInput, r.Code)
			}
			it.UnitPrice = fee.Price
			if it.Category == "" {
				it.Category = fee.Category
			}
		}
		if strings.TrimSpace(it.Category) == "" {
			return nil, fmt.Errorf("%w: ítem %q sin categoría", domain.ErrInvalidInput, r.Code)
		}
		items = append(items, it)
	}
	return items, nil
}

func (uc *CoverageUseCase) valuationDate(s string) (time.Time, error) {
	d, err := dto.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if d == nil {
		return uc.clock.Now(), nil
	}
	return *d, nil
}

func loadCompany(ctx context.Context, repo repository.CompanyRepository, id string) (*entity.Company, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrInvalidInput
	}
	company, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener convención: %w", err)
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	return company, nil
}

func loadPatient(ctx context.Context, repo repository.PatientRepository, id string) (*entity.Patient, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: patient_id requerido", domain.ErrInvalidInput)
	}
	patient, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener paciente: %w", err)
	}
	if patient == nil {
		return nil, domain.ErrNotFound
	}
	return patient, nil
}
