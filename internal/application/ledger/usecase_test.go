package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/stock"
)

const (
	tenantA  = "tenant-a"
	userA    = "user-a"
	locMain  = "loc-main"
	locOther = "loc-other"
	productA = "prod-a"
	variantA = "var-a"
)

var testTime = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

type ledgerFixture struct {
	store    *memStore
	uc       *ledger.StockLedgerUseCase
	notifier *recordingNotifier
	clock    fixedClock
}

func newLedgerFixture() *ledgerFixture {
	store := newMemStore()
	store.addLocation(tenantA, locMain, false)
	store.addLocation(tenantA, locOther, false)
	notifier := &recordingNotifier{}
	clock := fixedClock{t: testTime}
	uc := ledger.NewStockLedgerUseCase(
		&memTxRunner{store: store},
		&memLocationRepo{s: store},
		clock,
		notifier,
	)
	return &ledgerFixture{store: store, uc: uc, notifier: notifier, clock: clock}
}

func opInput(qty string) ledger.OperationInput {
	return ledger.OperationInput{
		TenantID:   tenantA,
		UserID:     userA,
		Item:       stock.ItemRef{ProductID: productA},
		LocationID: locMain,
		Quantity:   d(qty),
	}
}

func (f *ledgerFixture) balance(t *testing.T, item stock.ItemRef, locationID string) *entity.BalanceRecord {
	t.Helper()
	b, ok := f.store.balances[balKey(tenantA, item, locationID)]
	require.True(t, ok, "debe existir la fila de saldo")
	return b
}

// ──────────────────────────────────────────────────────────────────────────────
// Receive
// ──────────────────────────────────────────────────────────────────────────────

// Una recepción sobre una clave sin historial crea la fila en cero y la sube.
func TestReceive_AutoCreaSaldo(t *testing.T) {
	f := newLedgerFixture()

	mov, err := f.uc.Receive(context.Background(), opInput("100"))
	require.NoError(t, err)

	bal := f.balance(t, stock.ItemRef{ProductID: productA}, locMain)
	assert.True(t, bal.Available.Equal(d("100")), "available debe quedar en 100")
	assert.True(t, bal.Reserved.IsZero())

	assert.Equal(t, entity.MovementTypeENTRY, mov.Type)
	assert.True(t, mov.Quantity.Equal(d("100")), "cantidad firmada positiva")
	assert.True(t, mov.BalanceBefore.IsZero())
	assert.True(t, mov.BalanceAfter.Equal(d("100")))
	assert.Equal(t, testTime, mov.CreatedAt)

	events := f.notifier.all()
	require.Len(t, events, 1)
	assert.Equal(t, entity.MovementTypeENTRY, events[0].MovementType)
	assert.True(t, events[0].ForSale.Equal(d("100")))
}

// Cantidades fraccionadas (kg, metros) se manejan con precisión decimal exacta.
func TestReceive_CantidadFraccionada(t *testing.T) {
	f := newLedgerFixture()

	_, err := f.uc.Receive(context.Background(), opInput("0.75"))
	require.NoError(t, err)
	_, err = f.uc.Receive(context.Background(), opInput("0.25"))
	require.NoError(t, err)

	bal := f.balance(t, stock.ItemRef{ProductID: productA}, locMain)
	assert.True(t, bal.Available.Equal(d("1")), "0.75 + 0.25 debe dar exactamente 1")
}

// ──────────────────────────────────────────────────────────────────────────────
// Validaciones comunes
// ──────────────────────────────────────────────────────────────────────────────

func TestOperaciones_ValidanEntrada(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	t.Run("producto y variante a la vez viola XOR", func(t *testing.T) {
		in := opInput("10")
		in.Item = stock.ItemRef{ProductID: productA, VariantID: variantA}
		_, err := f.uc.Receive(ctx, in)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("ni producto ni variante viola XOR", func(t *testing.T) {
		in := opInput("10")
		in.Item = stock.ItemRef{}
		_, err := f.uc.Receive(ctx, in)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("cantidad cero", func(t *testing.T) {
		_, err := f.uc.Receive(ctx, opInput("0"))
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	})

	t.Run("cantidad negativa", func(t *testing.T) {
		_, err := f.uc.Issue(ctx, opInput("-5"))
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	})

	t.Run("bodega inexistente", func(t *testing.T) {
		in := opInput("10")
		in.LocationID = "loc-fantasma"
		_, err := f.uc.Receive(ctx, in)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("tenant vacío", func(t *testing.T) {
		in := opInput("10")
		in.TenantID = ""
		_, err := f.uc.Receive(ctx, in)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Issue
// ──────────────────────────────────────────────────────────────────────────────

// Una salida sobre una clave sin historial falla: no se puede sacar lo que nunca entró.
func TestIssue_SinHistorial_NotFound(t *testing.T) {
	f := newLedgerFixture()

	_, err := f.uc.Issue(context.Background(), opInput("5"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIssue_StockInsuficiente(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	_, err := f.uc.Receive(ctx, opInput("10"))
	require.NoError(t, err)

	_, err = f.uc.Issue(ctx, opInput("11"))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// El rechazo no deja rastro: ni saldo alterado ni movimiento.
	bal := f.balance(t, stock.ItemRef{ProductID: productA}, locMain)
	assert.True(t, bal.Available.Equal(d("10")))
	assert.Len(t, f.store.movements, 1, "solo el ENTRY inicial")
}

// Bodegas con venta bajo pedido permiten que available quede negativo.
func TestIssue_BodegaPermiteNegativo(t *testing.T) {
	f := newLedgerFixture()
	f.store.addLocation(tenantA, "loc-neg", true)
	ctx := context.Background()

	in := opInput("10")
	in.LocationID = "loc-neg"
	_, err := f.uc.Receive(ctx, in)
	require.NoError(t, err)

	out := opInput("15")
	out.LocationID = "loc-neg"
	mov, err := f.uc.Issue(ctx, out)
	require.NoError(t, err)

	assert.True(t, mov.BalanceAfter.Equal(d("-5")), "available puede quedar en -5")
	assert.True(t, mov.Quantity.Equal(d("-15")), "cantidad firmada negativa en salidas")
}

// Una salida directa no puede comerse unidades retenidas por una reserva:
// con 10 disponibles y 8 reservados solo hay 2 vendibles para Issue.
func TestIssue_NoConsumeLoReservado(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	_, err := f.uc.Receive(ctx, opInput("10"))
	require.NoError(t, err)
	_, err = f.uc.Reserve(ctx, opInput("8"))
	require.NoError(t, err)

	_, err = f.uc.Issue(ctx, opInput("5"))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	bal := f.balance(t, stock.ItemRef{ProductID: productA}, locMain)
	assert.True(t, bal.Available.Equal(d("10")), "el rechazo no altera el saldo")
	assert.True(t, bal.Reserved.Equal(d("8")))

	// Lo vendible sí puede salir; reserved <= available se sostiene al límite.
	mov, err := f.uc.Issue(ctx, opInput("2"))
	require.NoError(t, err)
	assert.True(t, mov.BalanceAfter.Equal(d("8")))
	assert.True(t, f.balance(t, stock.ItemRef{ProductID: productA}, locMain).Reserved.Equal(d("8")))
}

// ──────────────────────────────────────────────────────────────────────────────
// Reserve / Release / Fulfill — ciclo completo de una venta
// ──────────────────────────────────────────────────────────────────────────────

// Recibir 100, reservar 30 y despachar 30: cuatro movimientos encadenados con
// before/after coherentes por campo, y el saldo final 70/0. Fulfill deja dos
// filas porque toca ambos campos: sin la fila reserved la cadena de auditoría
// de ese campo quedaría colgada en el RESERVE.
func TestCicloVenta_ReceiveReserveFulfill(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	in := opInput("30")
	in.DocumentType = "ORDER"
	in.DocumentID = "order-7"

	_, err := f.uc.Receive(ctx, opInput("100"))
	require.NoError(t, err)
	_, err = f.uc.Reserve(ctx, opInput("30"))
	require.NoError(t, err)
	_, err = f.uc.Fulfill(ctx, in)
	require.NoError(t, err)

	bal := f.balance(t, stock.ItemRef{ProductID: productA}, locMain)
	assert.True(t, bal.Available.Equal(d("70")))
	assert.True(t, bal.Reserved.IsZero())

	require.Len(t, f.store.movements, 4)
	entry, reserve, sale, release := f.store.movements[0], f.store.movements[1], f.store.movements[2], f.store.movements[3]

	assert.Equal(t, entity.MovementTypeENTRY, entry.Type)
	assert.True(t, entry.BalanceBefore.IsZero())
	assert.True(t, entry.BalanceAfter.Equal(d("100")))

	// RESERVE registra before/after del campo reserved, no de available.
	assert.Equal(t, entity.MovementTypeRESERVE, reserve.Type)
	assert.True(t, reserve.BalanceBefore.IsZero())
	assert.True(t, reserve.BalanceAfter.Equal(d("30")))

	// SALE registra before/after de available.
	assert.Equal(t, entity.MovementTypeSALE, sale.Type)
	assert.True(t, sale.Quantity.Equal(d("-30")))
	assert.True(t, sale.BalanceBefore.Equal(d("100")))
	assert.True(t, sale.BalanceAfter.Equal(d("70")))

	// La contraparte reserved del fulfill: misma referencia documental que el SALE.
	assert.Equal(t, entity.MovementTypeRELEASE, release.Type)
	assert.True(t, release.Quantity.Equal(d("-30")))
	assert.True(t, release.BalanceBefore.Equal(d("30")))
	assert.True(t, release.BalanceAfter.IsZero())
	assert.Equal(t, "ORDER", release.DocumentType)
	assert.Equal(t, "order-7", release.DocumentID)
	assert.Equal(t, sale.DocumentID, release.DocumentID)
}

// Reservar más de lo vendible (available - reserved) se rechaza aunque available alcance.
func TestReserve_ExcedeVendible(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	_, err := f.uc.Receive(ctx, opInput("50"))
	require.NoError(t, err)
	_, err = f.uc.Reserve(ctx, opInput("40"))
	require.NoError(t, err)

	// forSale = 50 - 40 = 10 < 20
	_, err = f.uc.Reserve(ctx, opInput("20"))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

// Reserve sobre clave sin historial auto-crea la fila (y falla por vendible cero).
func TestReserve_SinHistorial_AutoCrea(t *testing.T) {
	f := newLedgerFixture()

	_, err := f.uc.Reserve(context.Background(), opInput("1"))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

// Liberar más de lo reservado recorta a cero: reintentos de release son inocuos.
func TestRelease_RecortaACero(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	_, err := f.uc.Receive(ctx, opInput("100"))
	require.NoError(t, err)
	_, err = f.uc.Reserve(ctx, opInput("30"))
	require.NoError(t, err)

	mov, err := f.uc.Release(ctx, opInput("50"))
	require.NoError(t, err)

	bal := f.balance(t, stock.ItemRef{ProductID: productA}, locMain)
	assert.True(t, bal.Reserved.IsZero(), "reserved nunca queda negativo")
	assert.True(t, mov.Quantity.Equal(d("-30")), "el movimiento registra lo realmente liberado")

	// Segundo release sobre reserva ya liberada: no-op contable.
	mov2, err := f.uc.Release(ctx, opInput("50"))
	require.NoError(t, err)
	assert.True(t, mov2.Quantity.IsZero())
	assert.True(t, f.balance(t, stock.ItemRef{ProductID: productA}, locMain).Reserved.IsZero())
}

// Fulfill exige cobertura en ambas dimensiones: available y reserved.
func TestFulfill_RequiereAmbasDimensiones(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	_, err := f.uc.Receive(ctx, opInput("10"))
	require.NoError(t, err)
	_, err = f.uc.Reserve(ctx, opInput("5"))
	require.NoError(t, err)

	// reserved=5 < 8 aunque available=10 alcanza
	_, err = f.uc.Fulfill(ctx, opInput("8"))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

// ──────────────────────────────────────────────────────────────────────────────
// Umbrales
// ──────────────────────────────────────────────────────────────────────────────

func TestSetThresholds(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	min, max := d("5"), d("50")

	err := f.uc.SetThresholds(ctx, ledger.ThresholdInput{
		TenantID:   tenantA,
		Item:       stock.ItemRef{ProductID: productA},
		LocationID: locMain,
		Minimum:    &min,
		Maximum:    &max,
	})
	require.NoError(t, err)

	bal := f.balance(t, stock.ItemRef{ProductID: productA}, locMain)
	require.NotNil(t, bal.Minimum)
	assert.True(t, bal.Minimum.Equal(d("5")))
	require.NotNil(t, bal.Maximum)
	assert.True(t, bal.Maximum.Equal(d("50")))
}

func TestSetThresholds_Invalidos(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	neg := d("-1")
	err := f.uc.SetThresholds(ctx, ledger.ThresholdInput{
		TenantID:   tenantA,
		Item:       stock.ItemRef{ProductID: productA},
		LocationID: locMain,
		Minimum:    &neg,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	min, max := d("10"), d("5")
	err = f.uc.SetThresholds(ctx, ledger.ThresholdInput{
		TenantID:   tenantA,
		Item:       stock.ItemRef{ProductID: productA},
		LocationID: locMain,
		Minimum:    &min,
		Maximum:    &max,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia
// ──────────────────────────────────────────────────────────────────────────────

// N+1 salidas concurrentes de 1 unidad contra available=N: exactamente una debe
// fallar por stock insuficiente y el saldo final es cero, nunca negativo.
func TestIssue_ConcurrenciaNoSobrevende(t *testing.T) {
	const n = 20
	f := newLedgerFixture()
	ctx := context.Background()

	_, err := f.uc.Receive(ctx, opInput(decimal.NewFromInt(n).String()))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, n+1)
	for i := 0; i < n+1; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.Issue(ctx, opInput("1"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var failures int
	for err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
			failures++
		}
	}
	assert.Equal(t, 1, failures, "exactamente una salida debe rechazarse")

	bal := f.balance(t, stock.ItemRef{ProductID: productA}, locMain)
	assert.True(t, bal.Available.IsZero())
	assert.Len(t, f.store.movements, 1+n, "un ENTRY + n EXIT")
}

// ──────────────────────────────────────────────────────────────────────────────
// Atomicidad
// ──────────────────────────────────────────────────────────────────────────────

// Si el movimiento no puede persistirse, la mutación de saldo se revierte:
// nunca hay saldo sin su entrada en el log.
func TestReceive_RollbackSiFallaMovimiento(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	_, err := f.uc.Receive(ctx, opInput("10"))
	require.NoError(t, err)

	f.store.failMovementCreate = errors.New("disco lleno")
	_, err = f.uc.Receive(ctx, opInput("5"))
	require.Error(t, err)

	bal := f.balance(t, stock.ItemRef{ProductID: productA}, locMain)
	assert.True(t, bal.Available.Equal(d("10")), "el saldo no debe reflejar la tx fallida")
	assert.Len(t, f.store.movements, 1)
}
