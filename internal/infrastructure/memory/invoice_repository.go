package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo facturas en memoria con control optimista por versión.
type InvoiceRepo struct {
	s *Store
}

func (r *InvoiceRepo) Create(_ context.Context, invoice *entity.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.NewString()
	}
	if invoice.Version == 0 {
		invoice.Version = 1
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.invoices[invoice.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, inv := range r.s.invoices {
		if invoice.InvoiceNumber != "" && inv.InvoiceNumber == invoice.InvoiceNumber {
			return domain.ErrDuplicate
		}
	}
	r.s.invoices[invoice.ID] = cloneInvoice(invoice)
	return nil
}

func (r *InvoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return cloneInvoice(r.s.invoices[id]), nil
}

func (r *InvoiceRepo) ListPayableByCompany(_ context.Context, companyID string) ([]*entity.Invoice, error) {
	return r.list(func(inv *entity.Invoice) bool {
		return inv.CompanyBilling.CompanyID == companyID && inv.Status.IsPayable()
	}), nil
}

func (r *InvoiceRepo) ListConvention(_ context.Context, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	return r.list(func(inv *entity.Invoice) bool {
		if len(f.CompanyIDs) > 0 && !contains(f.CompanyIDs, inv.CompanyBilling.CompanyID) {
			return false
		}
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, inv.Status) {
			return false
		}
		if f.From != nil && inv.DateIssued.Before(*f.From) {
			return false
		}
		if f.To != nil && inv.DateIssued.After(*f.To) {
			return false
		}
		return true
	}), nil
}

// Update reemplaza la factura solo si la versión almacenada coincide.
func (r *InvoiceRepo) Update(_ context.Context, invoice *entity.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.invoices[invoice.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != invoice.Version {
		return domain.ErrStateConflict
	}
	invoice.Version++
	r.s.invoices[invoice.ID] = cloneInvoice(invoice)
	return nil
}

func (r *InvoiceRepo) CategoryUsage(_ context.Context, patientID, companyID string, from, to time.Time) (map[string]decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	usage := make(map[string]decimal.Decimal)
	for _, inv := range r.s.invoices {
		if !inv.IsConvention() || inv.CompanyBilling.CompanyID != companyID || inv.PatientID != patientID {
			continue
		}
		if inv.Status == entity.InvoiceStatusDraft || inv.Status.IsTerminal() {
			continue
		}
		if inv.DateIssued.Before(from) || inv.DateIssued.After(to) {
			continue
		}
		for category, share := range inv.CompanyShareByCategory() {
			usage[category] = usage[category].Add(share)
		}
	}
	return usage, nil
}

// list facturas de convención filtradas, por fecha de emisión, número e ID.
func (r *InvoiceRepo) list(keep func(*entity.Invoice) bool) []*entity.Invoice {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Invoice, 0)
	for _, inv := range r.s.invoices {
		if inv.IsConvention() && keep(inv) {
			out = append(out, cloneInvoice(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.DateIssued.Equal(b.DateIssued) {
			return a.DateIssued.Before(b.DateIssued)
		}
		if a.InvoiceNumber != b.InvoiceNumber {
			return a.InvoiceNumber < b.InvoiceNumber
		}
		return a.ID < b.ID
	})
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsStatus(list []entity.InvoiceStatus, s entity.InvoiceStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
