package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// TransferRepository define el puerto de persistencia para cabeceras de traslado.
type TransferRepository interface {
	Create(ctx context.Context, transfer *entity.TransferRecord) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.TransferRecord, error)
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*entity.TransferRecord, error)
}
