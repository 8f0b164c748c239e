package repository

import (
	"context"

	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
)

// PatientRepository puerto de lectura de pacientes. GetByID devuelve nil, nil si no existe.
type PatientRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Patient, error)
	Create(ctx context.Context, patient *entity.Patient) error
}
