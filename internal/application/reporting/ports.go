// Package reporting contiene los reportes de convenciones: estado de cuenta, bordereau,
// antigüedad de saldos y el tablero financiero jerárquico.
//
// Todos los casos de uso son de solo lectura.
package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/xtm888/medflow-clinic-sub000/internal/application/dto"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/repository"
)

// Renderer genera el PDF de un reporte. La implementación vive en infrastructure/pdf.
type Renderer interface {
	RenderStatement(st *dto.StatementResponse) ([]byte, error)
	RenderBatchInvoice(batch *dto.BatchInvoiceResponse) ([]byte, error)
}

// Settings parámetros de los reportes.
type Settings struct {
	Currency         string
	StatementDueDays int // días para pagar el saldo del estado de cuenta
}

// dateRange interpreta un rango YYYY-MM-DD; el límite superior incluye todo el día.
func dateRange(fromStr, toStr string) (*time.Time, *time.Time, error) {
	from, err := dto.ParseDate(fromStr)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	to, err := dto.ParseDate(toStr)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if to != nil {
		end := dto.EndOfDay(*to)
		to = &end
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, nil, fmt.Errorf("%w: from posterior a to", domain.ErrInvalidInput)
	}
	return from, to, nil
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

// posted indica si la factura cuenta para los reportes: emitida y no anulada.
func posted(inv *entity.Invoice) bool {
	return inv.IsConvention() && inv.Status != entity.InvoiceStatusDraft && !inv.Status.IsTerminal() &&
		inv.CompanyBilling.Status != entity.ConventionStatusCancelled
}

func loadCompany(ctx context.Context, repo repository.CompanyRepository, id string) (*entity.Company, error) {
	if id == "" {
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
