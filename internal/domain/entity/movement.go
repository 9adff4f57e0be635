package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock.
const (
	MovementTypeENTRY       = "ENTRY"        // entrada (recepción)
	MovementTypeEXIT        = "EXIT"         // salida directa
	MovementTypeADJUSTMENT  = "ADJUSTMENT"   // ajuste manual (conteo físico)
	MovementTypeRESERVE     = "RESERVE"      // reserva (afecta reserved)
	MovementTypeRELEASE     = "RELEASE"      // liberación de reserva (afecta reserved)
	MovementTypeSALE        = "SALE"         // venta: consume reserva y descuenta available
	MovementTypeTRANSFEROUT = "TRANSFER_OUT" // salida por traslado
	MovementTypeTRANSFERIN  = "TRANSFER_IN"  // entrada por traslado
)

// MovementEntry es el registro de auditoría inmutable de un evento que afectó un saldo.
// BalanceBefore/BalanceAfter corresponden al campo que el tipo afecta:
// reserved para RESERVE/RELEASE, available para el resto.
// BalanceAfter - BalanceBefore siempre es igual al efecto firmado de la entrada.
type MovementEntry struct {
	ID            string
	TenantID      string
	ProductID     string
	VariantID     string
	LocationID    string
	Type          string
	Quantity      decimal.Decimal // firmada: negativa en salidas, positiva en entradas
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Reason        string
	DocumentType  string // referencia al documento de negocio origen (opcional)
	DocumentID    string
	CreatedBy     string // UserID; vacío en acciones del sistema
	CreatedAt     time.Time
}

// AffectsReserved indica si el tipo de movimiento impacta reserved en lugar de available.
func AffectsReserved(movementType string) bool {
	return movementType == MovementTypeRESERVE || movementType == MovementTypeRELEASE
}
