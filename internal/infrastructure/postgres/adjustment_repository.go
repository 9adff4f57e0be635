package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.AdjustmentRepository = (*AdjustmentRepo)(nil)

const adjustmentColumns = `id, tenant_id, number, product_id, variant_id, location_id, direction, quantity, reason_code, description, balance_before, balance_after, adjustment_date, created_by, created_at`

// AdjustmentRepo implementación de AdjustmentRepository sobre PostgreSQL
// (usable con pool o tx). La tabla lleva unique (tenant_id, number): dos ajustes
// concurrentes del mismo mes no pueden quedar con el mismo consecutivo.
type AdjustmentRepo struct {
	q Querier
}

// NewAdjustmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAdjustmentRepository(q Querier) *AdjustmentRepo {
	return &AdjustmentRepo{q: q}
}

// Create persiste la cabecera de un ajuste. Devuelve domain.ErrDuplicate si el
// consecutivo ya fue tomado por otra transacción (el usecase reintenta).
func (r *AdjustmentRepo) Create(ctx context.Context, a *entity.AdjustmentRecord) error {
	query := `
		INSERT INTO stock_adjustments (` + adjustmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		a.ID, a.TenantID, a.Number, nullable(a.ProductID), nullable(a.VariantID),
		a.LocationID, a.Direction, a.Quantity, a.ReasonCode, a.Description,
		a.BalanceBefore, a.BalanceAfter, a.AdjustmentDate, nullable(a.CreatedBy), a.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create adjustment: %w", domain.ErrDuplicate)
		}
		return fmt.Errorf("create adjustment: %w", err)
	}
	return nil
}

// GetByID obtiene un ajuste del tenant. nil si no existe.
func (r *AdjustmentRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.AdjustmentRecord, error) {
	query := `SELECT ` + adjustmentColumns + ` FROM stock_adjustments WHERE tenant_id = $1 AND id = $2`
	a, err := scanAdjustment(r.q.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get adjustment: %w", err)
	}
	return a, nil
}

// MaxNumberForPrefix devuelve el mayor consecutivo existente con el prefijo
// ADJ-YYYYMM- del tenant, o "" si el mes aún no tiene ajustes. El sufijo es de
// ancho fijo (4 dígitos), así que el orden lexicográfico coincide con el numérico.
func (r *AdjustmentRepo) MaxNumberForPrefix(ctx context.Context, tenantID, prefix string) (string, error) {
	query := `
		SELECT number FROM stock_adjustments
		WHERE tenant_id = $1 AND number LIKE $2 || '%'
		ORDER BY number DESC
		LIMIT 1`
	var number string
	err := r.q.QueryRow(ctx, query, tenantID, prefix).Scan(&number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("max adjustment number: %w", err)
	}
	return number, nil
}

// ListByTenant lista ajustes del tenant, más recientes primero.
func (r *AdjustmentRepo) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*entity.AdjustmentRecord, error) {
	query := `
		SELECT ` + adjustmentColumns + ` FROM stock_adjustments
		WHERE tenant_id = $1
		ORDER BY created_at DESC, number DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}
	defer rows.Close()
	var list []*entity.AdjustmentRecord
	for rows.Next() {
		a, err := scanAdjustment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan adjustment: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func scanAdjustment(row pgx.Row) (*entity.AdjustmentRecord, error) {
	var a entity.AdjustmentRecord
	var productID, variantID, createdBy *string
	err := row.Scan(
		&a.ID, &a.TenantID, &a.Number, &productID, &variantID,
		&a.LocationID, &a.Direction, &a.Quantity, &a.ReasonCode, &a.Description,
		&a.BalanceBefore, &a.BalanceAfter, &a.AdjustmentDate, &createdBy, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.ProductID = deref(productID)
	a.VariantID = deref(variantID)
	a.CreatedBy = deref(createdBy)
	return &a, nil
}
