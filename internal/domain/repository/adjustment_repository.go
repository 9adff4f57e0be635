package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// AdjustmentRepository define el puerto de persistencia para ajustes manuales.
// Create debe ejecutarse en la misma tx que el cálculo del consecutivo; la tabla
// lleva unique (tenant_id, number) y el usecase reintenta ante 23505.
type AdjustmentRepository interface {
	Create(ctx context.Context, adjustment *entity.AdjustmentRecord) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.AdjustmentRecord, error)
	// MaxNumberForPrefix devuelve el mayor number existente con el prefijo
	// ADJ-YYYYMM- del tenant, o "" si no hay ninguno en el mes.
	MaxNumberForPrefix(ctx context.Context, tenantID, prefix string) (string, error)
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*entity.AdjustmentRecord, error)
}
