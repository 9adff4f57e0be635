package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// LocationRepository define el puerto de persistencia para bodegas/sucursales.
// El motor de ledger solo consume GetByID (existencia + política de stock negativo).
type LocationRepository interface {
	Create(ctx context.Context, location *entity.Location) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Location, error)
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Location, error)
}
