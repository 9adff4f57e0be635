package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/stock"
)

// BalanceRepository define el puerto de persistencia para la fila de saldo.
// Get y GetForUpdate devuelven nil (sin error) cuando la fila no existe:
// las operaciones deciden entre auto-crear o fallar con NotFound.
// Toda mutación de cantidades pasa por las operaciones del ledger; el repositorio
// no expone un "setQuantity" público fuera de ellas.
type BalanceRepository interface {
	Get(ctx context.Context, tenantID string, item stock.ItemRef, locationID string) (*entity.BalanceRecord, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) hasta el commit de la tx.
	GetForUpdate(ctx context.Context, tenantID string, item stock.ItemRef, locationID string) (*entity.BalanceRecord, error)
	// CreateIfAbsent inserta la fila en cero si no existe (ON CONFLICT DO NOTHING).
	CreateIfAbsent(ctx context.Context, tenantID string, item stock.ItemRef, locationID string) error
	// UpdateQuantities persiste available/reserved de una fila ya bloqueada.
	UpdateQuantities(ctx context.Context, balance *entity.BalanceRecord) error
	// SetThresholds actualiza mínimo/máximo (nil = sin umbral).
	SetThresholds(ctx context.Context, tenantID string, item stock.ItemRef, locationID string, minimum, maximum *decimal.Decimal) error

	ListByItem(ctx context.Context, tenantID string, item stock.ItemRef) ([]*entity.BalanceRecord, error)
	// ListBelowMinimum filtra filas con minimum definido > 0 y forSale < minimum.
	ListBelowMinimum(ctx context.Context, tenantID string, limit, offset int) ([]*entity.BalanceRecord, error)
	ListOutOfStock(ctx context.Context, tenantID string, limit, offset int) ([]*entity.BalanceRecord, error)
	ListAboveMaximum(ctx context.Context, tenantID string, limit, offset int) ([]*entity.BalanceRecord, error)
}
