package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// SyncQueueRepository define el puerto de la cola de sincronización downstream.
// Enqueue se invoca fuera de la tx del ledger (fire-and-forget, at-least-once);
// el drenador consume con DuePending y marca resultado por tarea.
type SyncQueueRepository interface {
	Enqueue(ctx context.Context, task *entity.SyncTask) error
	// DuePending devuelve tareas PENDING/FAILED cuyo next_attempt_at ya venció,
	// más antiguas primero.
	DuePending(ctx context.Context, now time.Time, limit int) ([]*entity.SyncTask, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, lastError string, nextAttemptAt time.Time) error
}
