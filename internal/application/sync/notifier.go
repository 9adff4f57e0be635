package sync

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

// FanoutNotifier reparte el evento a varios consumidores. Ninguno puede
// revertir la mutación del ledger: los fallos se quedan en cada consumidor.
type FanoutNotifier struct {
	consumers []ledger.BalanceNotifier
}

// NewFanoutNotifier construye el compuesto.
func NewFanoutNotifier(consumers ...ledger.BalanceNotifier) *FanoutNotifier {
	return &FanoutNotifier{consumers: consumers}
}

// BalanceChanged notifica a todos los consumidores registrados.
func (n *FanoutNotifier) BalanceChanged(ctx context.Context, event ledger.BalanceChangedEvent) {
	for _, c := range n.consumers {
		c.BalanceChanged(ctx, event)
	}
}

// SyncEnqueuer encola una tarea de push de stock al marketplace por cada cambio
// de saldo. Fire-and-forget: un fallo al encolar se loguea y se descarta
// (el drenador reconstruye la cantidad desde el ledger en cada intento,
// así que un evento perdido se recupera con el siguiente cambio de la clave).
type SyncEnqueuer struct {
	queueRepo repository.SyncQueueRepository
	log       *logger.Logger
}

// NewSyncEnqueuer construye el consumidor de encolado.
func NewSyncEnqueuer(queueRepo repository.SyncQueueRepository, log *logger.Logger) *SyncEnqueuer {
	return &SyncEnqueuer{queueRepo: queueRepo, log: log}
}

// BalanceChanged encola la tarea MARKETPLACE_STOCK para la clave afectada.
func (n *SyncEnqueuer) BalanceChanged(ctx context.Context, event ledger.BalanceChangedEvent) {
	task := &entity.SyncTask{
		ID:            uuid.New().String(),
		TenantID:      event.TenantID,
		Type:          entity.SyncTaskMarketplaceStock,
		ProductID:     event.Item.ProductID,
		VariantID:     event.Item.VariantID,
		Status:        entity.SyncTaskStatusPending,
		NextAttemptAt: event.OccurredAt,
		CreatedAt:     event.OccurredAt,
		UpdatedAt:     event.OccurredAt,
	}
	if err := n.queueRepo.Enqueue(ctx, task); err != nil {
		n.log.Error().Err(err).
			Str("tenant_id", event.TenantID).
			Str("item", event.Item.Key()).
			Msg("encolar tarea de sincronización")
	}
}

// StockAlertLogger consumidor de alertas: loguea en WARN cuando una clave se
// queda sin vendible tras un movimiento.
type StockAlertLogger struct {
	log *logger.Logger
}

// NewStockAlertLogger construye el consumidor de alertas.
func NewStockAlertLogger(log *logger.Logger) *StockAlertLogger {
	return &StockAlertLogger{log: log}
}

// BalanceChanged emite la alerta si forSale quedó en cero o negativo.
func (n *StockAlertLogger) BalanceChanged(_ context.Context, event ledger.BalanceChangedEvent) {
	if event.ForSale.GreaterThan(decimal.Zero) {
		return
	}
	n.log.Warn().
		Str("tenant_id", event.TenantID).
		Str("item", event.Item.Key()).
		Str("location_id", event.LocationID).
		Str("movement_type", event.MovementType).
		Str("for_sale", event.ForSale.String()).
		Msg("clave sin stock vendible")
}
