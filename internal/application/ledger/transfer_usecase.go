package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/domain/stock"
)

// TransferStockUseCase ejecuta traslados entre bodegas: salida en origen más
// entrada en destino dentro de una sola transacción, con cabecera TransferRecord
// y dos MovementEntry (TRANSFER_OUT/TRANSFER_IN) enlazados por el id del traslado.
// Nunca es observable un traslado a medias: cualquier fallo revierte ambos lados.
type TransferStockUseCase struct {
	txRunner     TxRunner
	locationRepo repository.LocationRepository
	clock        Clock
	notifier     BalanceNotifier
}

// NewTransferStockUseCase construye el caso de uso. notifier puede ser nil.
func NewTransferStockUseCase(
	txRunner TxRunner,
	locationRepo repository.LocationRepository,
	clock Clock,
	notifier BalanceNotifier,
) *TransferStockUseCase {
	return &TransferStockUseCase{
		txRunner:     txRunner,
		locationRepo: locationRepo,
		clock:        clock,
		notifier:     notifier,
	}
}

// TransferInput entrada para un traslado entre bodegas.
type TransferInput struct {
	TenantID       string
	UserID         string
	Item           stock.ItemRef
	FromLocationID string
	ToLocationID   string
	Quantity       decimal.Decimal
	Reason         string
}

// Transfer valida, bloquea las dos filas de saldo en orden determinista de
// bodega (evita deadlock entre traslados cruzados), descuenta en origen,
// suma en destino y persiste cabecera + dos movimientos.
func (uc *TransferStockUseCase) Transfer(ctx context.Context, in TransferInput) (*entity.TransferRecord, error) {
	if in.TenantID == "" || in.FromLocationID == "" || in.ToLocationID == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.FromLocationID == in.ToLocationID {
		return nil, domain.ErrInvalidInput
	}
	if err := in.Item.Validate(); err != nil {
		return nil, err
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidQuantity
	}
	fromLoc, err := uc.locationRepo.GetByID(ctx, in.TenantID, in.FromLocationID)
	if err != nil {
		return nil, err
	}
	toLoc, err := uc.locationRepo.GetByID(ctx, in.TenantID, in.ToLocationID)
	if err != nil {
		return nil, err
	}
	if fromLoc == nil || toLoc == nil {
		return nil, domain.ErrNotFound
	}

	now := uc.clock.Now()
	transfer := &entity.TransferRecord{
		ID:             uuid.New().String(),
		TenantID:       in.TenantID,
		ProductID:      in.Item.ProductID,
		VariantID:      in.Item.VariantID,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Quantity:       in.Quantity,
		Reason:         in.Reason,
		Status:         entity.TransferStatusCompleted,
		CreatedBy:      in.UserID,
		CreatedAt:      now,
	}

	var evtOut, evtIn BalanceChangedEvent
	err = uc.txRunner.Run(ctx, func(
		balances repository.BalanceRepository,
		movements repository.MovementRepository,
		transfers repository.TransferRepository,
		_ repository.AdjustmentRepository,
	) error {
		// Orden de bloqueo determinista por id de bodega, sin importar cuál
		// es origen y cuál destino.
		first, second := in.FromLocationID, in.ToLocationID
		if second < first {
			first, second = second, first
		}
		locked := make(map[string]*entity.BalanceRecord, 2)
		for _, locID := range []string{first, second} {
			bal, err := lockOrCreate(ctx, balances, in.TenantID, in.Item, locID)
			if err != nil {
				return err
			}
			locked[locID] = bal
		}
		origin := locked[in.FromLocationID]
		dest := locked[in.ToLocationID]

		if origin.Available.LessThan(in.Quantity) {
			return domain.ErrInsufficientStock
		}

		originBefore := origin.Available
		destBefore := dest.Available
		origin.Available = origin.Available.Sub(in.Quantity)
		dest.Available = dest.Available.Add(in.Quantity)
		origin.UpdatedAt = now
		dest.UpdatedAt = now
		if err := balances.UpdateQuantities(ctx, origin); err != nil {
			return err
		}
		if err := balances.UpdateQuantities(ctx, dest); err != nil {
			return err
		}
		if err := transfers.Create(ctx, transfer); err != nil {
			return err
		}

		outIn := OperationInput{
			TenantID: in.TenantID, UserID: in.UserID, Item: in.Item,
			LocationID: in.FromLocationID, Reason: in.Reason,
			DocumentType: entity.DocumentTypeTransfer, DocumentID: transfer.ID,
		}
		inIn := outIn
		inIn.LocationID = in.ToLocationID

		outMov := newMovement(outIn, entity.MovementTypeTRANSFEROUT, in.Quantity.Neg(), originBefore, origin.Available, now)
		if err := movements.Create(ctx, outMov); err != nil {
			return err
		}
		inMov := newMovement(inIn, entity.MovementTypeTRANSFERIN, in.Quantity, destBefore, dest.Available, now)
		if err := movements.Create(ctx, inMov); err != nil {
			return err
		}

		evtOut = balanceEvent(outIn, entity.MovementTypeTRANSFEROUT, origin, now)
		evtIn = balanceEvent(inIn, entity.MovementTypeTRANSFERIN, dest, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if uc.notifier != nil {
		uc.notifier.BalanceChanged(ctx, evtOut)
		uc.notifier.BalanceChanged(ctx, evtIn)
	}
	return transfer, nil
}
