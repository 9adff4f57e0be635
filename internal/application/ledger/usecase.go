package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/domain/stock"
)

// StockLedgerUseCase ejecuta las operaciones del ledger de stock
// (Receive, Issue, Reserve, Release, Fulfill) de forma transaccional con
// bloqueo de fila (SELECT FOR UPDATE) y Commit/Rollback. Es el único mutador
// permitido de BalanceRecord; cada operación anexa un MovementEntry por campo
// afectado con su saldo antes/después (Fulfill toca ambos campos y anexa dos).
type StockLedgerUseCase struct {
	txRunner     TxRunner
	locationRepo repository.LocationRepository
	clock        Clock
	notifier     BalanceNotifier
}

// NewStockLedgerUseCase construye el caso de uso. notifier puede ser nil.
func NewStockLedgerUseCase(
	txRunner TxRunner,
	locationRepo repository.LocationRepository,
	clock Clock,
	notifier BalanceNotifier,
) *StockLedgerUseCase {
	return &StockLedgerUseCase{
		txRunner:     txRunner,
		locationRepo: locationRepo,
		clock:        clock,
		notifier:     notifier,
	}
}

// OperationInput entrada común de las operaciones del ledger.
// TenantID siempre explícito: el motor no lee contexto ambiente.
type OperationInput struct {
	TenantID     string
	UserID       string
	Item         stock.ItemRef
	LocationID   string
	Quantity     decimal.Decimal
	Reason       string
	DocumentType string
	DocumentID   string
}

// validate verifica tenant, regla XOR del ítem, cantidad positiva y existencia de la bodega.
func (uc *StockLedgerUseCase) validate(ctx context.Context, in OperationInput) (*entity.Location, error) {
	if in.TenantID == "" || in.LocationID == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := in.Item.Validate(); err != nil {
		return nil, err
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidQuantity
	}
	loc, err := uc.locationRepo.GetByID(ctx, in.TenantID, in.LocationID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, domain.ErrNotFound
	}
	return loc, nil
}

// Receive registra una entrada de stock (recepción). Crea la fila de saldo en
// cero si la clave nunca se había movido.
func (uc *StockLedgerUseCase) Receive(ctx context.Context, in OperationInput) (*entity.MovementEntry, error) {
	if _, err := uc.validate(ctx, in); err != nil {
		return nil, err
	}
	now := uc.clock.Now()

	var mov *entity.MovementEntry
	var evt BalanceChangedEvent
	err := uc.txRunner.Run(ctx, func(
		balances repository.BalanceRepository,
		movements repository.MovementRepository,
		_ repository.TransferRepository,
		_ repository.AdjustmentRepository,
	) error {
		bal, err := lockOrCreate(ctx, balances, in.TenantID, in.Item, in.LocationID)
		if err != nil {
			return err
		}
		before := bal.Available
		bal.Available = bal.Available.Add(in.Quantity)
		bal.UpdatedAt = now
		if err := balances.UpdateQuantities(ctx, bal); err != nil {
			return err
		}
		mov = newMovement(in, entity.MovementTypeENTRY, in.Quantity, before, bal.Available, now)
		evt = balanceEvent(in, entity.MovementTypeENTRY, bal, now)
		return movements.Create(ctx, mov)
	})
	if err != nil {
		return nil, err
	}
	uc.notify(ctx, evt)
	return mov, nil
}

// Issue registra una salida directa de stock. La clave debe tener historial
// (no se puede sacar lo que nunca entró). Si la bodega no permite stock
// negativo exige available - qty >= reserved: una salida directa no puede
// comerse unidades retenidas por una reserva vigente (eso es Fulfill).
func (uc *StockLedgerUseCase) Issue(ctx context.Context, in OperationInput) (*entity.MovementEntry, error) {
	loc, err := uc.validate(ctx, in)
	if err != nil {
		return nil, err
	}
	now := uc.clock.Now()

	var mov *entity.MovementEntry
	var evt BalanceChangedEvent
	err = uc.txRunner.Run(ctx, func(
		balances repository.BalanceRepository,
		movements repository.MovementRepository,
		_ repository.TransferRepository,
		_ repository.AdjustmentRepository,
	) error {
		bal, err := balances.GetForUpdate(ctx, in.TenantID, in.Item, in.LocationID)
		if err != nil {
			return err
		}
		if bal == nil {
			return domain.ErrNotFound
		}
		newAvailable := bal.Available.Sub(in.Quantity)
		if newAvailable.LessThan(bal.Reserved) && !loc.AllowsNegativeStock {
			return domain.ErrInsufficientStock
		}
		before := bal.Available
		bal.Available = newAvailable
		bal.UpdatedAt = now
		if err := balances.UpdateQuantities(ctx, bal); err != nil {
			return err
		}
		mov = newMovement(in, entity.MovementTypeEXIT, in.Quantity.Neg(), before, bal.Available, now)
		evt = balanceEvent(in, entity.MovementTypeEXIT, bal, now)
		return movements.Create(ctx, mov)
	})
	if err != nil {
		return nil, err
	}
	uc.notify(ctx, evt)
	return mov, nil
}

// Reserve retiene cantidad contra un fulfillment futuro: sube reserved sin
// tocar available. Exige forSale >= qty.
func (uc *StockLedgerUseCase) Reserve(ctx context.Context, in OperationInput) (*entity.MovementEntry, error) {
	if _, err := uc.validate(ctx, in); err != nil {
		return nil, err
	}
	now := uc.clock.Now()

	var mov *entity.MovementEntry
	var evt BalanceChangedEvent
	err := uc.txRunner.Run(ctx, func(
		balances repository.BalanceRepository,
		movements repository.MovementRepository,
		_ repository.TransferRepository,
		_ repository.AdjustmentRepository,
	) error {
		bal, err := lockOrCreate(ctx, balances, in.TenantID, in.Item, in.LocationID)
		if err != nil {
			return err
		}
		if bal.ForSale().LessThan(in.Quantity) {
			return domain.ErrInsufficientStock
		}
		before := bal.Reserved
		bal.Reserved = bal.Reserved.Add(in.Quantity)
		bal.UpdatedAt = now
		if err := balances.UpdateQuantities(ctx, bal); err != nil {
			return err
		}
		mov = newMovement(in, entity.MovementTypeRESERVE, in.Quantity, before, bal.Reserved, now)
		evt = balanceEvent(in, entity.MovementTypeRESERVE, bal, now)
		return movements.Create(ctx, mov)
	})
	if err != nil {
		return nil, err
	}
	uc.notify(ctx, evt)
	return mov, nil
}

// Release libera una reserva. Idempotente por recorte: liberar más de lo
// reservado deja reserved en cero, nunca negativo ni error.
func (uc *StockLedgerUseCase) Release(ctx context.Context, in OperationInput) (*entity.MovementEntry, error) {
	if _, err := uc.validate(ctx, in); err != nil {
		return nil, err
	}
	now := uc.clock.Now()

	var mov *entity.MovementEntry
	var evt BalanceChangedEvent
	err := uc.txRunner.Run(ctx, func(
		balances repository.BalanceRepository,
		movements repository.MovementRepository,
		_ repository.TransferRepository,
		_ repository.AdjustmentRepository,
	) error {
		bal, err := balances.GetForUpdate(ctx, in.TenantID, in.Item, in.LocationID)
		if err != nil {
			return err
		}
		if bal == nil {
			return domain.ErrNotFound
		}
		released := in.Quantity
		if released.GreaterThan(bal.Reserved) {
			released = bal.Reserved
		}
		before := bal.Reserved
		bal.Reserved = bal.Reserved.Sub(released)
		bal.UpdatedAt = now
		if err := balances.UpdateQuantities(ctx, bal); err != nil {
			return err
		}
		mov = newMovement(in, entity.MovementTypeRELEASE, released.Neg(), before, bal.Reserved, now)
		evt = balanceEvent(in, entity.MovementTypeRELEASE, bal, now)
		return movements.Create(ctx, mov)
	})
	if err != nil {
		return nil, err
	}
	uc.notify(ctx, evt)
	return mov, nil
}

// Fulfill convierte una reserva en salida real: available y reserved bajan
// juntos. Exige suficiente en ambas dimensiones. Como toca los dos campos,
// anexa dos movimientos con el mismo documento: SALE (available) y RELEASE
// (reserved), cada uno con el before/after de su campo — así la cadena de
// auditoría de reserved queda cerrada y no solo la de available.
func (uc *StockLedgerUseCase) Fulfill(ctx context.Context, in OperationInput) (*entity.MovementEntry, error) {
	if _, err := uc.validate(ctx, in); err != nil {
		return nil, err
	}
	now := uc.clock.Now()

	var mov *entity.MovementEntry
	var evt BalanceChangedEvent
	err := uc.txRunner.Run(ctx, func(
		balances repository.BalanceRepository,
		movements repository.MovementRepository,
		_ repository.TransferRepository,
		_ repository.AdjustmentRepository,
	) error {
		bal, err := balances.GetForUpdate(ctx, in.TenantID, in.Item, in.LocationID)
		if err != nil {
			return err
		}
		if bal == nil {
			return domain.ErrNotFound
		}
		if bal.Available.LessThan(in.Quantity) || bal.Reserved.LessThan(in.Quantity) {
			return domain.ErrInsufficientStock
		}
		beforeAvailable := bal.Available
		beforeReserved := bal.Reserved
		bal.Available = bal.Available.Sub(in.Quantity)
		bal.Reserved = bal.Reserved.Sub(in.Quantity)
		bal.UpdatedAt = now
		if err := balances.UpdateQuantities(ctx, bal); err != nil {
			return err
		}
		mov = newMovement(in, entity.MovementTypeSALE, in.Quantity.Neg(), beforeAvailable, bal.Available, now)
		if err := movements.Create(ctx, mov); err != nil {
			return err
		}
		relMov := newMovement(in, entity.MovementTypeRELEASE, in.Quantity.Neg(), beforeReserved, bal.Reserved, now)
		evt = balanceEvent(in, entity.MovementTypeSALE, bal, now)
		return movements.Create(ctx, relMov)
	})
	if err != nil {
		return nil, err
	}
	uc.notify(ctx, evt)
	return mov, nil
}

// ThresholdInput entrada para fijar umbrales de reposición de una clave.
type ThresholdInput struct {
	TenantID   string
	Item       stock.ItemRef
	LocationID string
	Minimum    *decimal.Decimal
	Maximum    *decimal.Decimal
}

// SetThresholds fija mínimo/máximo de una clave en una bodega; nil limpia el
// umbral. Crea la fila de saldo en cero si la clave no tenía historial.
func (uc *StockLedgerUseCase) SetThresholds(ctx context.Context, in ThresholdInput) error {
	if in.TenantID == "" || in.LocationID == "" {
		return domain.ErrInvalidInput
	}
	if err := in.Item.Validate(); err != nil {
		return err
	}
	if in.Minimum != nil && in.Minimum.IsNegative() {
		return domain.ErrInvalidQuantity
	}
	if in.Maximum != nil && in.Maximum.IsNegative() {
		return domain.ErrInvalidQuantity
	}
	if in.Minimum != nil && in.Maximum != nil && in.Maximum.LessThan(*in.Minimum) {
		return domain.ErrInvalidInput
	}
	loc, err := uc.locationRepo.GetByID(ctx, in.TenantID, in.LocationID)
	if err != nil {
		return err
	}
	if loc == nil {
		return domain.ErrNotFound
	}
	return uc.txRunner.Run(ctx, func(
		balances repository.BalanceRepository,
		_ repository.MovementRepository,
		_ repository.TransferRepository,
		_ repository.AdjustmentRepository,
	) error {
		if _, err := lockOrCreate(ctx, balances, in.TenantID, in.Item, in.LocationID); err != nil {
			return err
		}
		return balances.SetThresholds(ctx, in.TenantID, in.Item, in.LocationID, in.Minimum, in.Maximum)
	})
}

func (uc *StockLedgerUseCase) notify(ctx context.Context, evt BalanceChangedEvent) {
	if uc.notifier == nil {
		return
	}
	uc.notifier.BalanceChanged(ctx, evt)
}

// lockOrCreate bloquea la fila de saldo, creándola en cero si la clave no
// tenía historial (auto-vivificación de Receive/Reserve/Adjust).
func lockOrCreate(
	ctx context.Context,
	balances repository.BalanceRepository,
	tenantID string, item stock.ItemRef, locationID string,
) (*entity.BalanceRecord, error) {
	bal, err := balances.GetForUpdate(ctx, tenantID, item, locationID)
	if err != nil {
		return nil, err
	}
	if bal != nil {
		return bal, nil
	}
	if err := balances.CreateIfAbsent(ctx, tenantID, item, locationID); err != nil {
		return nil, err
	}
	// Segunda pasada: la fila ya existe (insertada aquí o por una tx concurrente).
	bal, err = balances.GetForUpdate(ctx, tenantID, item, locationID)
	if err != nil {
		return nil, err
	}
	if bal == nil {
		return nil, domain.ErrConcurrencyConflict
	}
	return bal, nil
}

func newMovement(in OperationInput, movType string, signedQty, before, after decimal.Decimal, now time.Time) *entity.MovementEntry {
	return &entity.MovementEntry{
		ID:            uuid.New().String(),
		TenantID:      in.TenantID,
		ProductID:     in.Item.ProductID,
		VariantID:     in.Item.VariantID,
		LocationID:    in.LocationID,
		Type:          movType,
		Quantity:      signedQty,
		BalanceBefore: before,
		BalanceAfter:  after,
		Reason:        in.Reason,
		DocumentType:  in.DocumentType,
		DocumentID:    in.DocumentID,
		CreatedBy:     in.UserID,
		CreatedAt:     now,
	}
}

func balanceEvent(in OperationInput, movType string, bal *entity.BalanceRecord, now time.Time) BalanceChangedEvent {
	return BalanceChangedEvent{
		TenantID:     in.TenantID,
		Item:         in.Item,
		LocationID:   in.LocationID,
		MovementType: movType,
		Available:    bal.Available,
		Reserved:     bal.Reserved,
		ForSale:      bal.ForSale(),
		OccurredAt:   now,
	}
}
