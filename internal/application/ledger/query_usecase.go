package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/domain/stock"
)

// StockQueryUseCase superficie de consulta de solo lectura sobre el ledger:
// saldos por clave, alertas, historial de movimientos y verificación de
// consistencia. Opera sobre repositorios atados al pool (sin transacción).
type StockQueryUseCase struct {
	balanceRepo    repository.BalanceRepository
	movementRepo   repository.MovementRepository
	criticalFactor decimal.Decimal
}

// NewStockQueryUseCase construye el caso de uso. criticalFactor en cero usa el
// valor por defecto (0.5).
func NewStockQueryUseCase(
	balanceRepo repository.BalanceRepository,
	movementRepo repository.MovementRepository,
	criticalFactor decimal.Decimal,
) *StockQueryUseCase {
	if criticalFactor.LessThanOrEqual(decimal.Zero) {
		criticalFactor = stock.DefaultCriticalFactor
	}
	return &StockQueryUseCase{
		balanceRepo:    balanceRepo,
		movementRepo:   movementRepo,
		criticalFactor: criticalFactor,
	}
}

// BalancesByItem devuelve el desglose por bodega y los totales agregados de una clave.
func (uc *StockQueryUseCase) BalancesByItem(ctx context.Context, tenantID string, item stock.ItemRef) (*dto.BalanceSummaryDTO, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	rows, err := uc.balanceRepo.ListByItem(ctx, tenantID, item)
	if err != nil {
		return nil, err
	}
	summary := &dto.BalanceSummaryDTO{
		ProductID: item.ProductID,
		VariantID: item.VariantID,
		Locations: make([]dto.BalanceDTO, 0, len(rows)),
	}
	for _, b := range rows {
		summary.TotalAvailable = summary.TotalAvailable.Add(b.Available)
		summary.TotalReserved = summary.TotalReserved.Add(b.Reserved)
		summary.TotalForSale = summary.TotalForSale.Add(b.ForSale())
		summary.Locations = append(summary.Locations, dto.BalanceDTO{
			LocationID: b.LocationID,
			Available:  b.Available,
			Reserved:   b.Reserved,
			ForSale:    b.ForSale(),
			Minimum:    b.Minimum,
			Maximum:    b.Maximum,
			UpdatedAt:  b.UpdatedAt,
		})
	}
	return summary, nil
}

// PublishableQuantity calcula la cantidad a publicar en canales externos:
// suma de forSale en todas las bodegas, recortada a >= 0.
func (uc *StockQueryUseCase) PublishableQuantity(ctx context.Context, tenantID string, item stock.ItemRef) (decimal.Decimal, error) {
	summary, err := uc.BalancesByItem(ctx, tenantID, item)
	if err != nil {
		return decimal.Zero, err
	}
	if summary.TotalForSale.IsNegative() {
		return decimal.Zero, nil
	}
	return summary.TotalForSale, nil
}

// LowStock devuelve las claves con forSale bajo mínimo, clasificadas
// CRITICAL (forSale < factor*minimum) o LOW.
func (uc *StockQueryUseCase) LowStock(ctx context.Context, tenantID string, limit, offset int) ([]dto.LowStockAlertDTO, error) {
	rows, err := uc.balanceRepo.ListBelowMinimum(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	alerts := make([]dto.LowStockAlertDTO, 0, len(rows))
	for _, b := range rows {
		if b.Minimum == nil {
			continue
		}
		alerts = append(alerts, dto.LowStockAlertDTO{
			ProductID:  b.ProductID,
			VariantID:  b.VariantID,
			LocationID: b.LocationID,
			ForSale:    b.ForSale(),
			Minimum:    *b.Minimum,
			Severity:   stock.ClassifySeverity(b.ForSale(), *b.Minimum, uc.criticalFactor),
		})
	}
	return alerts, nil
}

// OutOfStock devuelve las claves con available en cero.
func (uc *StockQueryUseCase) OutOfStock(ctx context.Context, tenantID string, limit, offset int) ([]dto.StockAlertDTO, error) {
	rows, err := uc.balanceRepo.ListOutOfStock(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	return toStockAlerts(rows), nil
}

// AboveMaximum devuelve las claves con available por encima del máximo configurado.
func (uc *StockQueryUseCase) AboveMaximum(ctx context.Context, tenantID string, limit, offset int) ([]dto.StockAlertDTO, error) {
	rows, err := uc.balanceRepo.ListAboveMaximum(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	return toStockAlerts(rows), nil
}

// Movements devuelve el historial filtrado, más recientes primero.
func (uc *StockQueryUseCase) Movements(ctx context.Context, tenantID string, filter repository.MovementFilter, limit, offset int) ([]dto.MovementDTO, error) {
	if filter.Item != nil {
		if err := filter.Item.Validate(); err != nil {
			return nil, err
		}
	}
	rows, err := uc.movementRepo.List(ctx, tenantID, filter, limit, offset)
	if err != nil {
		return nil, err
	}
	list := make([]dto.MovementDTO, 0, len(rows))
	for _, m := range rows {
		list = append(list, dto.MovementDTO{
			ID:            m.ID,
			ProductID:     m.ProductID,
			VariantID:     m.VariantID,
			LocationID:    m.LocationID,
			Type:          m.Type,
			Quantity:      m.Quantity,
			BalanceBefore: m.BalanceBefore,
			BalanceAfter:  m.BalanceAfter,
			Reason:        m.Reason,
			DocumentType:  m.DocumentType,
			DocumentID:    m.DocumentID,
			CreatedBy:     m.CreatedBy,
			CreatedAt:     m.CreatedAt,
		})
	}
	return list, nil
}

// CheckConsistency compara el balanceAfter del movimiento más reciente de cada
// campo contra la fila de saldo viva. Sin historial, el saldo del ledger es cero.
func (uc *StockQueryUseCase) CheckConsistency(ctx context.Context, tenantID string, item stock.ItemRef, locationID string) ([]dto.ConsistencyCheckDTO, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	bal, err := uc.balanceRepo.Get(ctx, tenantID, item, locationID)
	if err != nil {
		return nil, err
	}
	if bal == nil {
		return nil, domain.ErrNotFound
	}

	checks := make([]dto.ConsistencyCheckDTO, 0, 2)
	for _, field := range []struct {
		name     string
		reserved bool
		live     decimal.Decimal
	}{
		{"available", false, bal.Available},
		{"reserved", true, bal.Reserved},
	} {
		last, err := uc.movementRepo.LastByField(ctx, tenantID, item, locationID, field.reserved)
		if err != nil {
			return nil, err
		}
		ledgerBalance := decimal.Zero
		if last != nil {
			ledgerBalance = last.BalanceAfter
		}
		checks = append(checks, dto.ConsistencyCheckDTO{
			LocationID:    locationID,
			Field:         field.name,
			LedgerBalance: ledgerBalance,
			LiveBalance:   field.live,
			Consistent:    ledgerBalance.Equal(field.live),
		})
	}
	return checks, nil
}

func toStockAlerts(rows []*entity.BalanceRecord) []dto.StockAlertDTO {
	alerts := make([]dto.StockAlertDTO, 0, len(rows))
	for _, b := range rows {
		alerts = append(alerts, dto.StockAlertDTO{
			ProductID:  b.ProductID,
			VariantID:  b.VariantID,
			LocationID: b.LocationID,
			Available:  b.Available,
			Maximum:    b.Maximum,
		})
	}
	return alerts
}
