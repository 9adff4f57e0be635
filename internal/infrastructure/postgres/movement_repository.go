package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/domain/stock"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, tenant_id, product_id, variant_id, location_id, type, quantity, balance_before, balance_after, reason, document_type, document_id, created_by, created_at`

// MovementRepo implementación del log de movimientos sobre PostgreSQL
// (usable con pool o tx). La tabla es append-only: no hay UPDATE ni DELETE.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create anexa un movimiento al log.
func (r *MovementRepo) Create(ctx context.Context, m *entity.MovementEntry) error {
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.TenantID, nullable(m.ProductID), nullable(m.VariantID), m.LocationID,
		m.Type, m.Quantity, m.BalanceBefore, m.BalanceAfter,
		nullable(m.Reason), nullable(m.DocumentType), nullable(m.DocumentID),
		nullable(m.CreatedBy), m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

// LastByField devuelve el movimiento más reciente de la clave que afectó el
// campo indicado (reserved o available). nil si no hay historial.
func (r *MovementRepo) LastByField(ctx context.Context, tenantID string, item stock.ItemRef, locationID string, reservedSide bool) (*entity.MovementEntry, error) {
	types := `('ENTRY','EXIT','ADJUSTMENT','SALE','TRANSFER_OUT','TRANSFER_IN')`
	if reservedSide {
		types = `('RESERVE','RELEASE')`
	}
	cond, arg := itemFilter(item, 3)
	query := fmt.Sprintf(`
		SELECT %s FROM stock_movements
		WHERE tenant_id = $1 AND location_id = $2 AND %s AND type IN %s
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, movementColumns, cond, types)
	m, err := scanMovement(r.q.QueryRow(ctx, query, tenantID, locationID, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("last movement: %w", err)
	}
	return m, nil
}

// List devuelve movimientos del tenant con filtros combinables, más recientes primero.
func (r *MovementRepo) List(ctx context.Context, tenantID string, f repository.MovementFilter, limit, offset int) ([]*entity.MovementEntry, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE tenant_id = $1`
	args := []any{tenantID}
	pos := 2
	if f.Item != nil {
		cond, arg := itemFilter(*f.Item, pos)
		query += " AND " + cond
		args = append(args, arg)
		pos++
	}
	if f.LocationID != "" {
		query += fmt.Sprintf(" AND location_id = $%d", pos)
		args = append(args, f.LocationID)
		pos++
	}
	if f.DocumentType != "" {
		query += fmt.Sprintf(" AND document_type = $%d", pos)
		args = append(args, f.DocumentType)
		pos++
	}
	if f.DocumentID != "" {
		query += fmt.Sprintf(" AND document_id = $%d", pos)
		args = append(args, f.DocumentID)
		pos++
	}
	if f.CreatedBy != "" {
		query += fmt.Sprintf(" AND created_by = $%d", pos)
		args = append(args, f.CreatedBy)
		pos++
	}
	if f.From != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *f.From)
		pos++
	}
	if f.To != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *f.To)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.MovementEntry
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.MovementEntry, error) {
	var m entity.MovementEntry
	var productID, variantID, reason, docType, docID, createdBy *string
	err := row.Scan(
		&m.ID, &m.TenantID, &productID, &variantID, &m.LocationID,
		&m.Type, &m.Quantity, &m.BalanceBefore, &m.BalanceAfter,
		&reason, &docType, &docID, &createdBy, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.ProductID = deref(productID)
	m.VariantID = deref(variantID)
	m.Reason = deref(reason)
	m.DocumentType = deref(docType)
	m.DocumentID = deref(docID)
	m.CreatedBy = deref(createdBy)
	return &m, nil
}
