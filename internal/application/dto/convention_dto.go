package dto

import (
	"time"

	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
)

// CreateConventionRequest body para POST /api/conventions.
type CreateConventionRequest struct {
	Code                  string                    `json:"code"`
	Name                  string                    `json:"name"`
	Type                  string                    `json:"type"`
	ContractStatus        string                    `json:"contract_status"`
	ContractEndDate       string                    `json:"contract_end_date,omitempty"` // YYYY-MM-DD
	IsParentConvention    bool                      `json:"is_parent_convention"`
	ParentConventionID    *string                   `json:"parent_convention_id,omitempty"`
	DefaultCoverage       entity.DefaultCoverage    `json:"default_coverage"`
	CoveredCategories     []entity.CategoryCoverage `json:"covered_categories,omitempty"`
	ActsRequiringApproval []entity.ActApproval      `json:"acts_requiring_approval,omitempty"`
	ApprovalRules         entity.ApprovalRules      `json:"approval_rules"`
}

// ConventionResponse convención en respuestas.
type ConventionResponse struct {
	ID                    string                    `json:"id"`
	Code                  string                    `json:"code"`
	Name                  string                    `json:"name"`
	Type                  string                    `json:"type"`
	ContractStatus        string                    `json:"contract_status"`
	ContractEndDate       *time.Time                `json:"contract_end_date,omitempty"`
	IsParentConvention    bool                      `json:"is_parent_convention"`
	ParentConventionID    *string                   `json:"parent_convention_id,omitempty"`
	DefaultCoverage       entity.DefaultCoverage    `json:"default_coverage"`
	CoveredCategories     []entity.CategoryCoverage `json:"covered_categories"`
	ActsRequiringApproval []entity.ActApproval      `json:"acts_requiring_approval"`
	ApprovalRules         entity.ApprovalRules      `json:"approval_rules"`
	Balance               entity.CompanyBalance     `json:"balance"`
	CreatedAt             time.Time                 `json:"created_at"`
	UpdatedAt             time.Time                 `json:"updated_at"`
}

// ConventionListResponse lista paginada de convenciones.
type ConventionListResponse struct {
	Items []ConventionResponse `json:"items"`
	Page  PageResponse         `json:"page"`
}

// ConventionFromEntity mapea la entidad a la respuesta.
func ConventionFromEntity(c *entity.Company) ConventionResponse {
	return ConventionResponse{
		ID:                    c.ID,
		Code:                  c.Code,
		Name:                  c.Name,
		Type:                  c.Type,
		ContractStatus:        c.ContractStatus,
		ContractEndDate:       c.ContractEndDate,
		IsParentConvention:    c.IsParentConvention,
		ParentConventionID:    c.ParentConventionID,
		DefaultCoverage:       c.DefaultCoverage,
		CoveredCategories:     c.CoveredCategories,
		ActsRequiringApproval: c.ActsRequiringApproval,
		ApprovalRules:         c.ApprovalRules,
		Balance:               c.Balance,
		CreatedAt:             c.CreatedAt,
		UpdatedAt:             c.UpdatedAt,
	}
}
