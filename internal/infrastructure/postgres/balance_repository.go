package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/domain/stock"
)

var _ repository.BalanceRepository = (*BalanceRepo)(nil)

const balanceColumns = `tenant_id, location_id, product_id, variant_id, available, reserved, minimum, maximum, created_at, updated_at`

// BalanceRepo implementación de BalanceRepository sobre PostgreSQL (usable con pool o tx).
type BalanceRepo struct {
	q Querier
}

// NewBalanceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBalanceRepository(q Querier) *BalanceRepo {
	return &BalanceRepo{q: q}
}

// itemFilter devuelve la condición SQL del lado definido del ítem (producto o variante).
func itemFilter(item stock.ItemRef, pos int) (string, any) {
	if item.IsVariant() {
		return fmt.Sprintf("variant_id = $%d", pos), item.VariantID
	}
	return fmt.Sprintf("product_id = $%d", pos), item.ProductID
}

func scanBalance(row pgx.Row) (*entity.BalanceRecord, error) {
	var b entity.BalanceRecord
	var productID, variantID *string
	err := row.Scan(
		&b.TenantID, &b.LocationID, &productID, &variantID,
		&b.Available, &b.Reserved, &b.Minimum, &b.Maximum,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if productID != nil {
		b.ProductID = *productID
	}
	if variantID != nil {
		b.VariantID = *variantID
	}
	return &b, nil
}

// Get obtiene la fila de saldo de una clave. nil si no existe.
func (r *BalanceRepo) Get(ctx context.Context, tenantID string, item stock.ItemRef, locationID string) (*entity.BalanceRecord, error) {
	return r.getWhere(ctx, tenantID, item, locationID, "")
}

// GetForUpdate obtiene la fila de saldo y la bloquea (SELECT FOR UPDATE) hasta
// el commit de la transacción. nil si no existe.
func (r *BalanceRepo) GetForUpdate(ctx context.Context, tenantID string, item stock.ItemRef, locationID string) (*entity.BalanceRecord, error) {
	return r.getWhere(ctx, tenantID, item, locationID, " FOR UPDATE")
}

func (r *BalanceRepo) getWhere(ctx context.Context, tenantID string, item stock.ItemRef, locationID, suffix string) (*entity.BalanceRecord, error) {
	cond, arg := itemFilter(item, 3)
	query := fmt.Sprintf(`
		SELECT %s FROM stock_balances
		WHERE tenant_id = $1 AND location_id = $2 AND %s%s`, balanceColumns, cond, suffix)
	b, err := scanBalance(r.q.QueryRow(ctx, query, tenantID, locationID, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return b, nil
}

// CreateIfAbsent inserta la fila de saldo en cero si la clave no existía
// (ON CONFLICT DO NOTHING). Concurrente-seguro: la primera tx gana y el resto
// bloquea en el GetForUpdate posterior.
func (r *BalanceRepo) CreateIfAbsent(ctx context.Context, tenantID string, item stock.ItemRef, locationID string) error {
	var productID, variantID *string
	if item.IsVariant() {
		variantID = &item.VariantID
	} else {
		productID = &item.ProductID
	}
	query := `
		INSERT INTO stock_balances (tenant_id, location_id, product_id, variant_id, available, reserved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, 0, now(), now())
		ON CONFLICT DO NOTHING`
	if _, err := r.q.Exec(ctx, query, tenantID, locationID, productID, variantID); err != nil {
		return fmt.Errorf("create balance: %w", err)
	}
	return nil
}

// UpdateQuantities persiste available/reserved de una fila ya bloqueada por la tx.
func (r *BalanceRepo) UpdateQuantities(ctx context.Context, balance *entity.BalanceRecord) error {
	item := stock.ItemRef{ProductID: balance.ProductID, VariantID: balance.VariantID}
	cond, arg := itemFilter(item, 3)
	query := fmt.Sprintf(`
		UPDATE stock_balances
		SET available = $4, reserved = $5, updated_at = $6
		WHERE tenant_id = $1 AND location_id = $2 AND %s`, cond)
	tag, err := r.q.Exec(ctx, query,
		balance.TenantID, balance.LocationID, arg,
		balance.Available, balance.Reserved, balance.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update balance: %w", domain.ErrNotFound)
	}
	return nil
}

// SetThresholds actualiza mínimo/máximo de la clave (nil limpia el umbral).
func (r *BalanceRepo) SetThresholds(ctx context.Context, tenantID string, item stock.ItemRef, locationID string, minimum, maximum *decimal.Decimal) error {
	cond, arg := itemFilter(item, 3)
	query := fmt.Sprintf(`
		UPDATE stock_balances
		SET minimum = $4, maximum = $5, updated_at = now()
		WHERE tenant_id = $1 AND location_id = $2 AND %s`, cond)
	tag, err := r.q.Exec(ctx, query, tenantID, locationID, arg, minimum, maximum)
	if err != nil {
		return fmt.Errorf("set thresholds: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set thresholds: %w", domain.ErrNotFound)
	}
	return nil
}

// ListByItem devuelve todas las filas de saldo de una clave a través de bodegas.
func (r *BalanceRepo) ListByItem(ctx context.Context, tenantID string, item stock.ItemRef) ([]*entity.BalanceRecord, error) {
	cond, arg := itemFilter(item, 2)
	query := fmt.Sprintf(`
		SELECT %s FROM stock_balances
		WHERE tenant_id = $1 AND %s
		ORDER BY location_id`, balanceColumns, cond)
	return r.list(ctx, query, tenantID, arg)
}

// ListBelowMinimum filas con mínimo definido > 0 y forSale < minimum.
func (r *BalanceRepo) ListBelowMinimum(ctx context.Context, tenantID string, limit, offset int) ([]*entity.BalanceRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM stock_balances
		WHERE tenant_id = $1 AND minimum IS NOT NULL AND minimum > 0
		  AND (available - reserved) < minimum
		ORDER BY (available - reserved) / minimum ASC
		LIMIT $2 OFFSET $3`, balanceColumns)
	return r.list(ctx, query, tenantID, limit, offset)
}

// ListOutOfStock filas con available en cero.
func (r *BalanceRepo) ListOutOfStock(ctx context.Context, tenantID string, limit, offset int) ([]*entity.BalanceRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM stock_balances
		WHERE tenant_id = $1 AND available = 0
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3`, balanceColumns)
	return r.list(ctx, query, tenantID, limit, offset)
}

// ListAboveMaximum filas con available por encima del máximo configurado.
func (r *BalanceRepo) ListAboveMaximum(ctx context.Context, tenantID string, limit, offset int) ([]*entity.BalanceRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM stock_balances
		WHERE tenant_id = $1 AND maximum IS NOT NULL AND available > maximum
		ORDER BY available - maximum DESC
		LIMIT $2 OFFSET $3`, balanceColumns)
	return r.list(ctx, query, tenantID, limit, offset)
}

func (r *BalanceRepo) list(ctx context.Context, query string, args ...any) ([]*entity.BalanceRecord, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	defer rows.Close()
	var list []*entity.BalanceRecord
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}
