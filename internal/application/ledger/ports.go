package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/domain/stock"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios
// atados a esa tx. Garantiza atomicidad para el motor de ledger: o se aplican la
// mutación de saldo y su movimiento juntos, o ninguno.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		balances repository.BalanceRepository,
		movements repository.MovementRepository,
		transfers repository.TransferRepository,
		adjustments repository.AdjustmentRepository,
	) error) error
}

// Clock fuente de tiempo inyectable (determinismo en tests).
type Clock interface {
	Now() time.Time
}

// SystemClock implementación de Clock sobre time.Now.
type SystemClock struct{}

// Now devuelve la hora actual del sistema.
func (SystemClock) Now() time.Time { return time.Now() }

// BalanceChangedEvent notificación de cambio de saldo para consumidores downstream.
// Entrega at-least-once; el fallo de un consumidor nunca revierte la mutación.
type BalanceChangedEvent struct {
	TenantID     string
	Item         stock.ItemRef
	LocationID   string
	MovementType string
	Available    decimal.Decimal
	Reserved     decimal.Decimal
	ForSale      decimal.Decimal
	OccurredAt   time.Time
}

// BalanceNotifier punto de notificación fire-and-forget tras un commit exitoso.
type BalanceNotifier interface {
	BalanceChanged(ctx context.Context, event BalanceChangedEvent)
}
