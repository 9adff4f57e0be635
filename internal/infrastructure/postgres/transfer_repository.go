package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

const transferColumns = `id, tenant_id, product_id, variant_id, from_location_id, to_location_id, quantity, reason, status, created_by, created_at`

// TransferRepo implementación de TransferRepository sobre PostgreSQL (usable con pool o tx).
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

// Create persiste la cabecera de un traslado.
func (r *TransferRepo) Create(ctx context.Context, t *entity.TransferRecord) error {
	query := `
		INSERT INTO stock_transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.TenantID, nullable(t.ProductID), nullable(t.VariantID),
		t.FromLocationID, t.ToLocationID, t.Quantity,
		nullable(t.Reason), t.Status, nullable(t.CreatedBy), t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create transfer: %w", err)
	}
	return nil
}

// GetByID obtiene un traslado del tenant. nil si no existe.
func (r *TransferRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.TransferRecord, error) {
	query := `SELECT ` + transferColumns + ` FROM stock_transfers WHERE tenant_id = $1 AND id = $2`
	t, err := scanTransfer(r.q.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	return t, nil
}

// ListByTenant lista traslados del tenant, más recientes primero.
func (r *TransferRepo) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*entity.TransferRecord, error) {
	query := `
		SELECT ` + transferColumns + ` FROM stock_transfers
		WHERE tenant_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()
	var list []*entity.TransferRecord
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func scanTransfer(row pgx.Row) (*entity.TransferRecord, error) {
	var t entity.TransferRecord
	var productID, variantID, reason, createdBy *string
	err := row.Scan(
		&t.ID, &t.TenantID, &productID, &variantID,
		&t.FromLocationID, &t.ToLocationID, &t.Quantity,
		&reason, &t.Status, &createdBy, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.ProductID = deref(productID)
	t.VariantID = deref(variantID)
	t.Reason = deref(reason)
	t.CreatedBy = deref(createdBy)
	return &t, nil
}
