package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/repository"
)

var (
	_ repository.PatientRepository     = (*PatientRepo)(nil)
	_ repository.ApprovalRepository    = (*ApprovalRepo)(nil)
	_ repository.FeeScheduleRepository = (*FeeScheduleRepo)(nil)
)

// PatientRepo pacientes en memoria.
type PatientRepo struct {
	s *Store
}

func (r *PatientRepo) GetByID(_ context.Context, id string) (*entity.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return clonePatient(r.s.patients[id]), nil
}

func (r *PatientRepo) Create(_ context.Context, patient *entity.Patient) error {
	if patient.ID == "" {
		patient.ID = uuid.NewString()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.patients[patient.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.patients[patient.ID] = clonePatient(patient)
	return nil
}

// ApprovalRepo aprobaciones en memoria.
type ApprovalRepo struct {
	s *Store
}

// FindValid devuelve la aprobación vigente con vencimiento más lejano (sin vencimiento primero).
func (r *ApprovalRepo) FindValid(_ context.Context, patientID, companyID, actCode string, at time.Time) (*entity.Approval, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var best *entity.Approval
	for _, a := range r.s.approvals {
		if !a.Matches(patientID, companyID, actCode) || !a.IsValidOn(at) {
			continue
		}
		if best == nil || laterExpiry(a, best) {
			best = a
		}
	}
	if best == nil {
		return nil, nil
	}
	return cloneApproval(best), nil
}

func (r *ApprovalRepo) Create(_ context.Context, approval *entity.Approval) error {
	if approval.ID == "" {
		approval.ID = uuid.NewString()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.approvals = append(r.s.approvals, cloneApproval(approval))
	return nil
}

func laterExpiry(a, b *entity.Approval) bool {
	switch {
	case b.ValidUntil == nil:
		return false
	case a.ValidUntil == nil:
		return true
	default:
		return a.ValidUntil.After(*b.ValidUntil)
	}
}

// FeeScheduleRepo tarifarios en memoria.
type FeeScheduleRepo struct {
	s *Store
}

// GetActive devuelve el tarifario vigente con inicio de vigencia más reciente.
func (r *FeeScheduleRepo) GetActive(_ context.Context, companyID string, at time.Time) (*entity.ConventionFeeSchedule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var active []*entity.ConventionFeeSchedule
	for _, s := range r.s.schedules {
		if s.CompanyID == companyID && s.IsEffective(at) {
			active = append(active, s)
		}
	}
	if len(active) == 0 {
		return nil, nil
	}
	sort.Slice(active, func(i, j int) bool { return active[i].EffectiveFrom.After(active[j].EffectiveFrom) })
	return cloneSchedule(active[0]), nil
}

func (r *FeeScheduleRepo) Create(_ context.Context, schedule *entity.ConventionFeeSchedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.schedules = append(r.s.schedules, cloneSchedule(schedule))
	return nil
}
