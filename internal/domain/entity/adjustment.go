package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dirección de un ajuste manual.
const (
	AdjustmentIncrease = "INCREASE"
	AdjustmentDecrease = "DECREASE"
)

// Códigos de motivo de ajuste (enumerados).
const (
	AdjustmentReasonCount      = "PHYSICAL_COUNT" // conteo físico
	AdjustmentReasonDamage     = "DAMAGE"         // mercancía dañada
	AdjustmentReasonLoss       = "LOSS"           // pérdida / robo
	AdjustmentReasonExpiry     = "EXPIRY"         // vencimiento
	AdjustmentReasonReturn     = "RETURN"         // devolución a proveedor
	AdjustmentReasonCorrection = "CORRECTION"     // corrección de captura
)

// DocumentTypeAdjustment es el document_type del movimiento ADJUSTMENT asociado.
const DocumentTypeAdjustment = "ADJUSTMENT"

// ValidAdjustmentReason indica si el código de motivo pertenece al catálogo.
func ValidAdjustmentReason(code string) bool {
	switch code {
	case AdjustmentReasonCount, AdjustmentReasonDamage, AdjustmentReasonLoss,
		AdjustmentReasonExpiry, AdjustmentReasonReturn, AdjustmentReasonCorrection:
		return true
	}
	return false
}

// AdjustmentRecord es la cabecera inmutable de una corrección manual de stock.
// Number tiene formato ADJ-YYYYMM-NNNN, secuencia por tenant+mes.
// Siempre va emparejada con exactamente un MovementEntry de tipo ADJUSTMENT.
type AdjustmentRecord struct {
	ID             string
	TenantID       string
	Number         string
	ProductID      string
	VariantID      string
	LocationID     string
	Direction      string          // INCREASE | DECREASE
	Quantity       decimal.Decimal // magnitud, siempre > 0
	ReasonCode     string
	Description    string // texto libre, mínimo 10 caracteres
	BalanceBefore  decimal.Decimal
	BalanceAfter   decimal.Decimal
	AdjustmentDate time.Time
	CreatedBy      string
	CreatedAt      time.Time
}
