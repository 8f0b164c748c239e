package repository

import (
	"context"
	"time"

	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
)

// ApprovalRepository puerto de lectura de aprobaciones previas.
type ApprovalRepository interface {
	// FindValid devuelve una aprobación approved y vigente en la fecha dada para
	// (paciente, convención, acto), o nil, nil si no hay ninguna.
	FindValid(ctx context.Context, patientID, companyID, actCode string, at time.Time) (*entity.Approval, error)
	Create(ctx context.Context, approval *entity.Approval) error
}
