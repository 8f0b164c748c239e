package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
// Líneas y pagos viven en columnas JSONB; la columna version implementa el control optimista.
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `
	id, invoice_number, patient_id, patient_name, items, payments, total, status,
	date_issued, due_date, version,
	company_id, company_name, company_share, patient_share, coverage_percentage,
	paid_amount, convention_status, batch_reference, visit_cap_excess,
	created_at, updated_at`

// Create persiste la factura con su bloque de convención.
func (r *InvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	if invoice.Version == 0 {
		invoice.Version = 1
	}
	now := time.Now().UTC()
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = now
	}
	invoice.UpdatedAt = now

	args, err := invoiceArgs(invoice)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: factura %s", domain.ErrDuplicate, invoice.InvoiceNumber)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// GetByID obtiene una factura. Devuelve nil, nil si no existe.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	row := r.q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

func (r *InvoiceRepo) ListPayableByCompany(ctx context.Context, companyID string) ([]*entity.Invoice, error) {
	return r.ListConvention(ctx, repository.InvoiceFilter{
		CompanyIDs: []string{companyID},
		Statuses:   entity.PayableInvoiceStatuses,
	})
}

// ListConvention arma el WHERE según los filtros presentes.
func (r *InvoiceRepo) ListConvention(ctx context.Context, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	where := []string{"company_id IS NOT NULL"}
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if len(f.CompanyIDs) > 0 {
		where = append(where, "company_id = ANY("+next(f.CompanyIDs)+")")
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		where = append(where, "status = ANY("+next(statuses)+")")
	}
	if f.From != nil {
		where = append(where, "date_issued >= "+next(*f.From))
	}
	if f.To != nil {
		where = append(where, "date_issued <= "+next(*f.To))
	}
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY date_issued, invoice_number, id`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list convention invoices: %w", err)
	}
	defer rows.Close()

	list := make([]*entity.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

// Update escribe la factura si la versión almacenada coincide con invoice.Version.
// Cero filas afectadas significa versión cambiada (ErrStateConflict) o factura inexistente.
func (r *InvoiceRepo) Update(ctx context.Context, invoice *entity.Invoice) error {
	invoice.UpdatedAt = time.Now().UTC()
	args, err := invoiceArgs(invoice)
	if err != nil {
		return err
	}
	query := `
		UPDATE invoices
		SET invoice_number = $2, patient_id = $3, patient_name = $4, items = $5, payments = $6,
		    total = $7, status = $8, date_issued = $9, due_date = $10, version = version + 1,
		    company_id = $12, company_name = $13, company_share = $14, patient_share = $15,
		    coverage_percentage = $16, paid_amount = $17, convention_status = $18,
		    batch_reference = $19, visit_cap_excess = $20, updated_at = $21
		WHERE id = $1 AND version = $11`
	cmd, err := r.q.Exec(ctx, query, append(args[:20], invoice.UpdatedAt)...)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM invoices WHERE id = $1)`, invoice.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check invoice: %w", err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return fmt.Errorf("%w: factura %s", domain.ErrStateConflict, invoice.InvoiceNumber)
	}
	invoice.Version++
	return nil
}

// CategoryUsage suma por categoría la parte convención adeudada de cada factura del período,
// con el recorte del tope por visita ya repartido (Invoice.CompanyShareByCategory).
func (r *InvoiceRepo) CategoryUsage(ctx context.Context, patientID, companyID string, from, to time.Time) (map[string]decimal.Decimal, error) {
	const query = `
		SELECT items, company_share, visit_cap_excess
		  FROM invoices
		 WHERE patient_id = $1
		   AND company_id = $2
		   AND date_issued BETWEEN $3 AND $4
		   AND status NOT IN ('draft', 'cancelled', 'voided')`
	rows, err := r.q.Query(ctx, query, patientID, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("category usage: %w", err)
	}
	defer rows.Close()

	usage := make(map[string]decimal.Decimal)
	for rows.Next() {
		var items []byte
		inv := entity.Invoice{CompanyBilling: &entity.CompanyBilling{CompanyID: companyID}}
		if err := rows.Scan(&items, &inv.CompanyBilling.CompanyShare, &inv.CompanyBilling.VisitCapExcess); err != nil {
			return nil, fmt.Errorf("scan category usage: %w", err)
		}
		if err := fromJSONB(items, &inv.Items); err != nil {
			return nil, err
		}
		for category, share := range inv.CompanyShareByCategory() {
			usage[category] = usage[category].Add(share)
		}
	}
	return usage, rows.Err()
}

// invoiceArgs argumentos posicionales en el orden de invoiceColumns.
func invoiceArgs(inv *entity.Invoice) ([]any, error) {
	items, err := toJSONB(inv.Items)
	if err != nil {
		return nil, err
	}
	payments, err := toJSONB(inv.Payments)
	if err != nil {
		return nil, err
	}
	var (
		companyID, companyName, convStatus, batchRef *string
		companyShare, patientShare, coverage, paid   decimal.Decimal
		capExcess                                    decimal.Decimal
	)
	if cb := inv.CompanyBilling; cb != nil {
		companyID = nullIfEmpty(cb.CompanyID)
		companyName = nullIfEmpty(cb.CompanyName)
		convStatus = nullIfEmpty(string(cb.Status))
		batchRef = nullIfEmpty(cb.BatchReference)
		companyShare, patientShare = cb.CompanyShare, cb.PatientShare
		coverage, paid = cb.CoveragePercentage, cb.PaidAmount
		capExcess = cb.VisitCapExcess
	}
	return []any{
		inv.ID, inv.InvoiceNumber, inv.PatientID, inv.PatientName, items, payments, inv.Total, string(inv.Status),
		inv.DateIssued, inv.DueDate, inv.Version,
		companyID, companyName, companyShare, patientShare, coverage,
		paid, convStatus, batchRef, capExcess,
		inv.CreatedAt, inv.UpdatedAt,
	}, nil
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var (
		inv                                          entity.Invoice
		status                                       string
		items, payments                              []byte
		companyID, companyName, convStatus, batchRef *string
		cb                                           entity.CompanyBilling
	)
	err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.PatientID, &inv.PatientName, &items, &payments, &inv.Total, &status,
		&inv.DateIssued, &inv.DueDate, &inv.Version,
		&companyID, &companyName, &cb.CompanyShare, &cb.PatientShare, &cb.CoveragePercentage,
		&cb.PaidAmount, &convStatus, &batchRef, &cb.VisitCapExcess,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.Status = entity.InvoiceStatus(status)
	if err := fromJSONB(items, &inv.Items); err != nil {
		return nil, err
	}
	if err := fromJSONB(payments, &inv.Payments); err != nil {
		return nil, err
	}
	if companyID != nil {
		cb.CompanyID = *companyID
		cb.CompanyName = derefString(companyName)
		cb.Status = entity.ConventionStatus(derefString(convStatus))
		cb.BatchReference = derefString(batchRef)
		inv.CompanyBilling = &cb
	}
	return &inv, nil
}
