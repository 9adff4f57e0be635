package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/domain/stock"
)

// adjustmentNumberPrefix formatea el prefijo de consecutivo ADJ-YYYYMM- para un instante.
func adjustmentNumberPrefix(t time.Time) string {
	return fmt.Sprintf("ADJ-%s-", t.Format("200601"))
}

// nextAdjustmentNumber deriva el siguiente consecutivo a partir del mayor
// existente en el mes. La secuencia reinicia implícitamente cada mes porque
// cambia el prefijo.
func nextAdjustmentNumber(prefix, maxExisting string) string {
	seq := 1
	if maxExisting != "" {
		if n, err := strconv.Atoi(strings.TrimPrefix(maxExisting, prefix)); err == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s%04d", prefix, seq)
}

// AdjustStockUseCase ejecuta ajustes manuales de stock: fija available al valor
// contado, numera el ajuste (ADJ-YYYYMM-NNNN por tenant+mes) dentro de la misma
// transacción y anexa el movimiento ADJUSTMENT emparejado.
// La carrera del consecutivo (leer-máximo-e-incrementar concurrente) se resuelve
// con unique (tenant_id, number) y reintento acotado de toda la transacción.
type AdjustStockUseCase struct {
	txRunner     TxRunner
	locationRepo repository.LocationRepository
	clock        Clock
	notifier     BalanceNotifier
	maxAttempts  int
}

// NewAdjustStockUseCase construye el caso de uso. maxAttempts <= 0 usa 3.
func NewAdjustStockUseCase(
	txRunner TxRunner,
	locationRepo repository.LocationRepository,
	clock Clock,
	notifier BalanceNotifier,
	maxAttempts int,
) *AdjustStockUseCase {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &AdjustStockUseCase{
		txRunner:     txRunner,
		locationRepo: locationRepo,
		clock:        clock,
		notifier:     notifier,
		maxAttempts:  maxAttempts,
	}
}

// AdjustmentInput entrada de un ajuste manual. NewQuantity es el valor contado
// al que debe quedar available (>= 0); la magnitud del movimiento se deriva.
type AdjustmentInput struct {
	TenantID    string
	UserID      string
	Item        stock.ItemRef
	LocationID  string
	NewQuantity decimal.Decimal
	ReasonCode  string
	Description string
}

// Adjust fija available := NewQuantity con bloqueo de fila, numera y persiste
// la cabecera AdjustmentRecord más su MovementEntry ADJUSTMENT (delta firmado).
func (uc *AdjustStockUseCase) Adjust(ctx context.Context, in AdjustmentInput) (*entity.AdjustmentRecord, error) {
	if in.TenantID == "" || in.LocationID == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := in.Item.Validate(); err != nil {
		return nil, err
	}
	if in.NewQuantity.IsNegative() {
		return nil, domain.ErrInvalidQuantity
	}
	if !entity.ValidAdjustmentReason(in.ReasonCode) {
		return nil, domain.ErrInvalidInput
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Description)) < 10 {
		return nil, domain.ErrInvalidInput
	}
	loc, err := uc.locationRepo.GetByID(ctx, in.TenantID, in.LocationID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, domain.ErrNotFound
	}

	// Reintento acotado: otra tx pudo tomar el mismo consecutivo entre el
	// max-leído y el insert (23505 → ErrDuplicate del repositorio).
	for attempt := 0; attempt < uc.maxAttempts; attempt++ {
		adj, evt, err := uc.adjustOnce(ctx, in)
		if err == nil {
			uc.notify(ctx, evt)
			return adj, nil
		}
		if !errors.Is(err, domain.ErrDuplicate) {
			return nil, err
		}
	}
	return nil, domain.ErrConcurrencyConflict
}

func (uc *AdjustStockUseCase) adjustOnce(ctx context.Context, in AdjustmentInput) (*entity.AdjustmentRecord, BalanceChangedEvent, error) {
	now := uc.clock.Now()
	var adj *entity.AdjustmentRecord
	var evt BalanceChangedEvent
	err := uc.txRunner.Run(ctx, func(
		balances repository.BalanceRepository,
		movements repository.MovementRepository,
		_ repository.TransferRepository,
		adjustments repository.AdjustmentRepository,
	) error {
		bal, err := lockOrCreate(ctx, balances, in.TenantID, in.Item, in.LocationID)
		if err != nil {
			return err
		}
		before := bal.Available
		delta := in.NewQuantity.Sub(before)
		if delta.IsZero() {
			// Nada que corregir: el conteo coincide con el saldo vivo.
			return domain.ErrInvalidInput
		}
		direction := entity.AdjustmentIncrease
		if delta.IsNegative() {
			direction = entity.AdjustmentDecrease
		}

		prefix := adjustmentNumberPrefix(now)
		maxNumber, err := adjustments.MaxNumberForPrefix(ctx, in.TenantID, prefix)
		if err != nil {
			return err
		}

		bal.Available = in.NewQuantity
		bal.UpdatedAt = now
		if err := balances.UpdateQuantities(ctx, bal); err != nil {
			return err
		}

		adj = &entity.AdjustmentRecord{
			ID:             uuid.New().String(),
			TenantID:       in.TenantID,
			Number:         nextAdjustmentNumber(prefix, maxNumber),
			ProductID:      in.Item.ProductID,
			VariantID:      in.Item.VariantID,
			LocationID:     in.LocationID,
			Direction:      direction,
			Quantity:       delta.Abs(),
			ReasonCode:     in.ReasonCode,
			Description:    in.Description,
			BalanceBefore:  before,
			BalanceAfter:   bal.Available,
			AdjustmentDate: now,
			CreatedBy:      in.UserID,
			CreatedAt:      now,
		}
		if err := adjustments.Create(ctx, adj); err != nil {
			return err
		}

		movIn := OperationInput{
			TenantID: in.TenantID, UserID: in.UserID, Item: in.Item,
			LocationID: in.LocationID, Reason: in.Description,
			DocumentType: entity.DocumentTypeAdjustment, DocumentID: adj.ID,
		}
		mov := newMovement(movIn, entity.MovementTypeADJUSTMENT, delta, before, bal.Available, now)
		if err := movements.Create(ctx, mov); err != nil {
			return err
		}
		evt = balanceEvent(movIn, entity.MovementTypeADJUSTMENT, bal, now)
		return nil
	})
	if err != nil {
		return nil, BalanceChangedEvent{}, err
	}
	return adj, evt, nil
}

func (uc *AdjustStockUseCase) notify(ctx context.Context, evt BalanceChangedEvent) {
	if uc.notifier == nil {
		return
	}
	uc.notifier.BalanceChanged(ctx, evt)
}
