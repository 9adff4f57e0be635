package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/stock"
)

// MovementFilter filtros combinables para el historial de movimientos.
// Campos vacíos/nil no filtran.
type MovementFilter struct {
	Item         *stock.ItemRef
	LocationID   string
	DocumentType string
	DocumentID   string
	CreatedBy    string
	From         *time.Time
	To           *time.Time
}

// MovementRepository define el puerto del log de movimientos (append-only).
// Las entradas nunca se actualizan ni se borran.
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.MovementEntry) error
	// LastByField devuelve el movimiento más reciente de la clave que afectó
	// reserved (reservedSide=true) o available. nil si no hay historial.
	LastByField(ctx context.Context, tenantID string, item stock.ItemRef, locationID string, reservedSide bool) (*entity.MovementEntry, error)
	// List devuelve movimientos del tenant, más recientes primero.
	List(ctx context.Context, tenantID string, filter MovementFilter, limit, offset int) ([]*entity.MovementEntry, error)
}
