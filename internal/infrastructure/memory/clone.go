package memory

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
)

func cloneDec(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneCompany(c *entity.Company) *entity.Company {
	if c == nil {
		return nil
	}
	out := *c
	out.ContractEndDate = cloneTime(c.ContractEndDate)
	out.ParentConventionID = cloneString(c.ParentConventionID)
	out.DefaultCoverage.MaxPerVisit = cloneDec(c.DefaultCoverage.MaxPerVisit)
	out.ApprovalRules.AutoApproveUnderAmount = cloneDec(c.ApprovalRules.AutoApproveUnderAmount)
	out.ApprovalRules.GlobalDiscount.ExcludeCategories = append([]string(nil), c.ApprovalRules.GlobalDiscount.ExcludeCategories...)
	out.ActsRequiringApproval = append([]entity.ActApproval(nil), c.ActsRequiringApproval...)
	out.CoveredCategories = nil
	for _, cat := range c.CoveredCategories {
		cat.CoveragePercentage = cloneDec(cat.CoveragePercentage)
		cat.MaxAmount = cloneDec(cat.MaxAmount)
		cat.MaxPerCategory = cloneDec(cat.MaxPerCategory)
		out.CoveredCategories = append(out.CoveredCategories, cat)
	}
	return &out
}

func cloneInvoice(inv *entity.Invoice) *entity.Invoice {
	if inv == nil {
		return nil
	}
	out := *inv
	out.DueDate = cloneTime(inv.DueDate)
	out.Items = append([]entity.InvoiceItem(nil), inv.Items...)
	out.Payments = nil
	for _, p := range inv.Payments {
		p.Allocations = append([]entity.PaymentAllocation(nil), p.Allocations...)
		out.Payments = append(out.Payments, p)
	}
	if inv.CompanyBilling != nil {
		cb := *inv.CompanyBilling
		out.CompanyBilling = &cb
	}
	return &out
}

func clonePatient(p *entity.Patient) *entity.Patient {
	if p == nil {
		return nil
	}
	out := *p
	if p.Convention != nil {
		conv := *p.Convention
		conv.CoveragePercentage = cloneDec(p.Convention.CoveragePercentage)
		conv.EnrolledAt = cloneTime(p.Convention.EnrolledAt)
		out.Convention = &conv
	}
	return &out
}

func cloneApproval(a *entity.Approval) *entity.Approval {
	out := *a
	out.ValidUntil = cloneTime(a.ValidUntil)
	return &out
}

func cloneSchedule(s *entity.ConventionFeeSchedule) *entity.ConventionFeeSchedule {
	out := *s
	out.EffectiveTo = cloneTime(s.EffectiveTo)
	out.Items = append([]entity.FeeScheduleItem(nil), s.Items...)
	return &out
}
