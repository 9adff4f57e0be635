package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.SyncQueueRepository = (*SyncQueueRepo)(nil)

const syncTaskColumns = `id, tenant_id, type, product_id, variant_id, status, attempts, last_error, next_attempt_at, created_at, updated_at`

// SyncQueueRepo implementación de la cola de sincronización sobre PostgreSQL.
type SyncQueueRepo struct {
	q Querier
}

// NewSyncQueueRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSyncQueueRepository(q Querier) *SyncQueueRepo {
	return &SyncQueueRepo{q: q}
}

// Enqueue inserta una tarea pendiente.
func (r *SyncQueueRepo) Enqueue(ctx context.Context, t *entity.SyncTask) error {
	query := `
		INSERT INTO sync_tasks (` + syncTaskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.TenantID, t.Type, nullable(t.ProductID), nullable(t.VariantID),
		t.Status, t.Attempts, nullable(t.LastError), t.NextAttemptAt,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("enqueue sync task: %w", err)
	}
	return nil
}

// DuePending devuelve tareas PENDING/FAILED vencidas, más antiguas primero.
// Un solo drenador por despliegue; si llega a haber varios, duplicar un push
// es inofensivo (la cantidad se recalcula desde el ledger en cada intento).
func (r *SyncQueueRepo) DuePending(ctx context.Context, now time.Time, limit int) ([]*entity.SyncTask, error) {
	query := `
		SELECT ` + syncTaskColumns + ` FROM sync_tasks
		WHERE status IN ('PENDING', 'FAILED') AND next_attempt_at <= $1
		ORDER BY next_attempt_at ASC
		LIMIT $2`
	rows, err := r.q.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("due sync tasks: %w", err)
	}
	defer rows.Close()
	var list []*entity.SyncTask
	for rows.Next() {
		t, err := scanSyncTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sync task: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// MarkDone marca una tarea como publicada.
func (r *SyncQueueRepo) MarkDone(ctx context.Context, id string) error {
	query := `UPDATE sync_tasks SET status = 'DONE', updated_at = now() WHERE id = $1`
	if _, err := r.q.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("mark sync task done: %w", err)
	}
	return nil
}

// MarkFailed registra el fallo e incrementa attempts programando el reintento.
func (r *SyncQueueRepo) MarkFailed(ctx context.Context, id, lastError string, nextAttemptAt time.Time) error {
	query := `
		UPDATE sync_tasks
		SET status = 'FAILED', attempts = attempts + 1, last_error = $2,
		    next_attempt_at = $3, updated_at = now()
		WHERE id = $1`
	if _, err := r.q.Exec(ctx, query, id, lastError, nextAttemptAt); err != nil {
		return fmt.Errorf("mark sync task failed: %w", err)
	}
	return nil
}

func scanSyncTask(row pgx.Row) (*entity.SyncTask, error) {
	var t entity.SyncTask
	var productID, variantID, lastError *string
	err := row.Scan(
		&t.ID, &t.TenantID, &t.Type, &productID, &variantID,
		&t.Status, &t.Attempts, &lastError, &t.NextAttemptAt,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.ProductID = deref(productID)
	t.VariantID = deref(variantID)
	t.LastError = deref(lastError)
	return &t, nil
}
