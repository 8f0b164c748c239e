package entity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
)

func TestValidateHierarchy(t *testing.T) {
	parentID := "c-parent"
	self := "c-1"
	tests := []struct {
		name    string
		company entity.Company
		want    bool
	}{
		{"independiente", entity.Company{ID: "c-1"}, true},
		{"padre", entity.Company{ID: "c-1", IsParentConvention: true}, true},
		{"hija", entity.Company{ID: "c-1", ParentConventionID: &parentID}, true},
		{"padre e hija a la vez", entity.Company{ID: "c-1", IsParentConvention: true, ParentConventionID: &parentID}, false},
		{"hija de sí misma", entity.Company{ID: "c-1", ParentConventionID: &self}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.company.ValidateHierarchy())
		})
	}
}

func TestCategoryAndActSettings_SinMayusculas(t *testing.T) {
	c := entity.Company{
		CoveredCategories:     []entity.CategoryCoverage{{Category: "Surgery", RequiresApproval: true}},
		ActsRequiringApproval: []entity.ActApproval{{ActCode: " ECHO-01 ", RequiresApproval: true}},
	}

	cat := c.CategorySettings("surgery")
	if assert.NotNil(t, cat) {
		assert.True(t, cat.RequiresApproval)
	}
	assert.Nil(t, c.CategorySettings("pharmacy"))
	assert.NotNil(t, c.ActSettings("echo-01"))
	assert.Nil(t, c.ActSettings("ECHO-02"))
}

func TestContractExpiry_IncluyeElUltimoDia(t *testing.T) {
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	c := entity.Company{ContractStatus: entity.ContractStatusActive, ContractEndDate: &end}

	assert.False(t, c.IsContractExpired(time.Date(2025, 6, 30, 18, 0, 0, 0, time.UTC)))
	assert.True(t, c.IsContractExpired(time.Date(2025, 7, 1, 0, 0, 1, 0, time.UTC)))
	assert.True(t, c.IsContractActive())

	c.ContractStatus = entity.ContractStatusSuspended
	assert.False(t, c.IsContractActive())
}

func TestReference(t *testing.T) {
	assert.Equal(t, "ACME", (&entity.Company{ID: "c-1", Code: "ACME"}).Reference())
	assert.Equal(t, "c-1", (&entity.Company{ID: "c-1"}).Reference())
}
