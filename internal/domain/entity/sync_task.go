package entity

import "time"

// Tipos y estados de tareas de sincronización downstream.
// El ledger encola con semántica at-least-once; el drenador las procesa
// periódicamente y nunca bloquea ni revierte la mutación de saldo que las originó.
const (
	SyncTaskMarketplaceStock = "MARKETPLACE_STOCK" // push de disponibilidad a marketplaces

	SyncTaskStatusPending = "PENDING"
	SyncTaskStatusDone    = "DONE"
	SyncTaskStatusFailed  = "FAILED"
)

// SyncTask es una tarea pendiente de publicación hacia un canal externo.
// Attempts y NextAttemptAt implementan el reintento con backoff.
type SyncTask struct {
	ID            string
	TenantID      string
	Type          string
	ProductID     string
	VariantID     string
	Status        string
	Attempts      int
	LastError     string
	NextAttemptAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
