// Package memory implementa los puertos de persistencia en memoria del proceso.
// Sirve como doble de pruebas y para ejecutar la API sin base de datos.
package memory

import (
	"context"
	"sync"

	"github.com/xtm888/medflow-clinic-sub000/internal/application/billing"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/repository"
)

var _ billing.BillingTxRunner = (*Store)(nil)

// Store datos compartidos por todos los repositorios en memoria.
// Las entidades se copian al entrar y al salir: nadie retiene punteros internos.
type Store struct {
	mu        sync.RWMutex
	txMu      sync.Mutex
	companies map[string]*entity.Company
	invoices  map[string]*entity.Invoice
	patients  map[string]*entity.Patient
	approvals []*entity.Approval
	schedules []*entity.ConventionFeeSchedule
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		companies: make(map[string]*entity.Company),
		invoices:  make(map[string]*entity.Invoice),
		patients:  make(map[string]*entity.Patient),
	}
}

func (s *Store) Companies() *CompanyRepo        { return &CompanyRepo{s: s} }
func (s *Store) Invoices() *InvoiceRepo         { return &InvoiceRepo{s: s} }
func (s *Store) Patients() *PatientRepo         { return &PatientRepo{s: s} }
func (s *Store) Approvals() *ApprovalRepo       { return &ApprovalRepo{s: s} }
func (s *Store) FeeSchedules() *FeeScheduleRepo { return &FeeScheduleRepo{s: s} }

// RunBilling serializa las transacciones y, si fn falla, restaura convenciones y facturas
// al estado previo.
func (s *Store) RunBilling(ctx context.Context, fn func(
	companyRepo repository.CompanyRepository,
	invoiceRepo repository.InvoiceRepository,
) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	companies, invoices := s.snapshot()
	if err := fn(s.Companies(), s.Invoices()); err != nil {
		s.restore(companies, invoices)
		return err
	}
	return nil
}

func (s *Store) snapshot() (map[string]*entity.Company, map[string]*entity.Invoice) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	companies := make(map[string]*entity.Company, len(s.companies))
	for id, c := range s.companies {
		companies[id] = cloneCompany(c)
	}
	invoices := make(map[string]*entity.Invoice, len(s.invoices))
	for id, inv := range s.invoices {
		invoices[id] = cloneInvoice(inv)
	}
	return companies, invoices
}

func (s *Store) restore(companies map[string]*entity.Company, invoices map[string]*entity.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies = companies
	s.invoices = invoices
}
