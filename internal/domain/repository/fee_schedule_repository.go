package repository

import (
	"context"
	"time"

	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
)

// FeeScheduleRepository puerto de tarifarios de convención.
type FeeScheduleRepository interface {
	// GetActive devuelve el tarifario vigente de la convención en la fecha dada, o nil, nil.
	GetActive(ctx context.Context, companyID string, at time.Time) (*entity.ConventionFeeSchedule, error)
	Create(ctx context.Context, schedule *entity.ConventionFeeSchedule) error
}
