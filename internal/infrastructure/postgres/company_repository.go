package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/entity"
	"github.com/xtm888/medflow-clinic-sub000/internal/domain/repository"
)

// Asegura que CompanyRepo implementa repository.CompanyRepository.
var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo implementación del puerto CompanyRepository sobre PostgreSQL.
// Las reglas de cobertura se guardan como JSONB en la misma fila.
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

const companyColumns = `
	id, code, name, type, contract_status, contract_end_date,
	is_parent_convention, parent_convention_id,
	default_coverage, covered_categories, acts_requiring_approval, approval_rules,
	balance_outstanding, balance_paid, created_at, updated_at`

// Create persiste una nueva convención. La restricción padre/hija también la valida la tabla.
func (r *CompanyRepo) Create(ctx context.Context, company *entity.Company) error {
	if company.ID == "" {
		company.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if company.CreatedAt.IsZero() {
		company.CreatedAt = now
	}
	company.UpdatedAt = now

	args, err := companyArgs(company)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO companies (` + companyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: convención %s", domain.ErrDuplicate, company.Reference())
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

// GetByID obtiene una convención por ID. Devuelve nil, nil si no existe.
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	row := r.q.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
	c, err := scanCompany(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

// Update reescribe los datos de la convención. El saldo solo cambia vía AdjustBalance.
func (r *CompanyRepo) Update(ctx context.Context, company *entity.Company) error {
	company.UpdatedAt = time.Now().UTC()
	args, err := companyArgs(company)
	if err != nil {
		return err
	}
	query := `
		UPDATE companies
		SET code = $2, name = $3, type = $4, contract_status = $5, contract_end_date = $6,
		    is_parent_convention = $7, parent_convention_id = $8,
		    default_coverage = $9, covered_categories = $10, acts_requiring_approval = $11,
		    approval_rules = $12, updated_at = $13
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, append(args[:12], company.UpdatedAt)...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: convención %s", domain.ErrDuplicate, company.Reference())
		}
		return fmt.Errorf("update company: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List devuelve convenciones con paginación, ordenadas por nombre.
func (r *CompanyRepo) List(ctx context.Context, limit, offset int) ([]*entity.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies ORDER BY name, id LIMIT $1 OFFSET $2`
	return r.query(ctx, query, limit, offset)
}

func (r *CompanyRepo) ListParents(ctx context.Context) ([]*entity.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE is_parent_convention ORDER BY name, id`
	return r.query(ctx, query)
}

func (r *CompanyRepo) ListChildren(ctx context.Context, parentID string) ([]*entity.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE parent_convention_id = $1 ORDER BY name, id`
	return r.query(ctx, query, parentID)
}

// AdjustBalance aplica los deltas en una sola sentencia; outstanding nunca baja de cero.
func (r *CompanyRepo) AdjustBalance(ctx context.Context, id string, outstandingDelta, paidDelta decimal.Decimal) (entity.CompanyBalance, error) {
	const query = `
		UPDATE companies
		SET balance_outstanding = GREATEST(0, balance_outstanding + $2),
		    balance_paid        = balance_paid + $3,
		    updated_at          = now()
		WHERE id = $1
		RETURNING balance_outstanding, balance_paid`
	var b entity.CompanyBalance
	if err := r.q.QueryRow(ctx, query, id, outstandingDelta, paidDelta).Scan(&b.Outstanding, &b.Paid); err != nil {
		if isNoRows(err) {
			return entity.CompanyBalance{}, domain.ErrNotFound
		}
		return entity.CompanyBalance{}, fmt.Errorf("adjust company balance: %w", err)
	}
	return b, nil
}

func (r *CompanyRepo) query(ctx context.Context, query string, args ...any) ([]*entity.Company, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	list := make([]*entity.Company, 0)
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// companyArgs argumentos posicionales en el orden de companyColumns.
func companyArgs(c *entity.Company) ([]any, error) {
	def, err := toJSONB(c.DefaultCoverage)
	if err != nil {
		return nil, err
	}
	cats, err := toJSONB(c.CoveredCategories)
	if err != nil {
		return nil, err
	}
	acts, err := toJSONB(c.ActsRequiringApproval)
	if err != nil {
		return nil, err
	}
	rules, err := toJSONB(c.ApprovalRules)
	if err != nil {
		return nil, err
	}
	return []any{
		c.ID, nullIfEmpty(c.Code), c.Name, c.Type, c.ContractStatus, dateOnly(c.ContractEndDate),
		c.IsParentConvention, c.ParentConventionID,
		def, cats, acts, rules,
		c.Balance.Outstanding, c.Balance.Paid, c.CreatedAt, c.UpdatedAt,
	}, nil
}

func scanCompany(row pgx.Row) (*entity.Company, error) {
	var (
		c                      entity.Company
		code                   *string
		def, cats, acts, rules []byte
	)
	err := row.Scan(
		&c.ID, &code, &c.Name, &c.Type, &c.ContractStatus, &c.ContractEndDate,
		&c.IsParentConvention, &c.ParentConventionID,
		&def, &cats, &acts, &rules,
		&c.Balance.Outstanding, &c.Balance.Paid, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Code = derefString(code)
	if err := fromJSONB(def, &c.DefaultCoverage); err != nil {
		return nil, err
	}
	if err := fromJSONB(cats, &c.CoveredCategories); err != nil {
		return nil, err
	}
	if err := fromJSONB(acts, &c.ActsRequiringApproval); err != nil {
		return nil, err
	}
	if err := fromJSONB(rules, &c.ApprovalRules); err != nil {
		return nil, err
	}
	return &c, nil
}
