package sync

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/domain/stock"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

// DrainSyncQueueUseCase drena la cola de sincronización: por cada tarea vencida
// recalcula la cantidad publicable desde el ledger (sum forSale recortada a >= 0)
// y la publica en el canal externo. At-least-once: la tarea solo se marca DONE
// tras publicar; un fallo programa el reintento con backoff exponencial.
type DrainSyncQueueUseCase struct {
	queueRepo repository.SyncQueueRepository
	queries   *ledger.StockQueryUseCase
	publisher MarketplacePublisher
	clock     ledger.Clock
	log       *logger.Logger

	batchSize   int
	baseBackoff time.Duration
	maxAttempts int
}

// NewDrainSyncQueueUseCase construye el drenador. batchSize <= 0 usa 50,
// baseBackoff <= 0 usa 30s, maxAttempts <= 0 usa 8.
func NewDrainSyncQueueUseCase(
	queueRepo repository.SyncQueueRepository,
	queries *ledger.StockQueryUseCase,
	publisher MarketplacePublisher,
	clock ledger.Clock,
	log *logger.Logger,
	batchSize int,
	baseBackoff time.Duration,
	maxAttempts int,
) *DrainSyncQueueUseCase {
	if batchSize <= 0 {
		batchSize = 50
	}
	if baseBackoff <= 0 {
		baseBackoff = 30 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 8
	}
	return &DrainSyncQueueUseCase{
		queueRepo:   queueRepo,
		queries:     queries,
		publisher:   publisher,
		clock:       clock,
		log:         log,
		batchSize:   batchSize,
		baseBackoff: baseBackoff,
		maxAttempts: maxAttempts,
	}
}

// Drain procesa un lote de tareas vencidas. Devuelve cuántas publicó y cuántas
// fallaron; pensado para invocarse periódicamente (ticker o cron externo).
func (uc *DrainSyncQueueUseCase) Drain(ctx context.Context) (published, failed int, err error) {
	now := uc.clock.Now()
	tasks, err := uc.queueRepo.DuePending(ctx, now, uc.batchSize)
	if err != nil {
		return 0, 0, err
	}
	for _, task := range tasks {
		if err := uc.process(ctx, task); err != nil {
			failed++
			uc.fail(ctx, task, err)
			continue
		}
		published++
		if err := uc.queueRepo.MarkDone(ctx, task.ID); err != nil {
			uc.log.Error().Err(err).Str("task_id", task.ID).Msg("marcar tarea completada")
		}
	}
	return published, failed, nil
}

func (uc *DrainSyncQueueUseCase) process(ctx context.Context, task *entity.SyncTask) error {
	item := stock.ItemRef{ProductID: task.ProductID, VariantID: task.VariantID}
	qty, err := uc.queries.PublishableQuantity(ctx, task.TenantID, item)
	if err != nil {
		return err
	}
	return uc.publisher.PublishStock(ctx, task.TenantID, item, qty)
}

func (uc *DrainSyncQueueUseCase) fail(ctx context.Context, task *entity.SyncTask, cause error) {
	attempts := task.Attempts + 1
	var next time.Time
	if attempts >= uc.maxAttempts {
		// Se deja FAILED con next_attempt_at lejano; un operador decide.
		next = uc.clock.Now().Add(24 * time.Hour)
	} else {
		// Backoff exponencial: base * 2^(attempts-1).
		next = uc.clock.Now().Add(uc.baseBackoff << (attempts - 1))
	}
	uc.log.Warn().Err(cause).
		Str("task_id", task.ID).
		Int("attempts", attempts).
		Time("next_attempt_at", next).
		Msg("publicación de stock fallida, reintento programado")
	if err := uc.queueRepo.MarkFailed(ctx, task.ID, cause.Error(), next); err != nil {
		uc.log.Error().Err(err).Str("task_id", task.ID).Msg("marcar tarea fallida")
	}
}
