package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceRecord es la fila autoritativa de saldo por (tenant, bodega, producto o variante).
// Exactamente uno de ProductID/VariantID está definido (vacío = no aplica).
// Solo las operaciones del ledger la mutan; se crea perezosamente en la primera escritura.
type BalanceRecord struct {
	TenantID   string
	LocationID string
	ProductID  string
	VariantID  string
	Available  decimal.Decimal
	Reserved   decimal.Decimal
	Minimum    *decimal.Decimal
	Maximum    *decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ForSale devuelve la cantidad vendible ahora mismo (derivada, no se persiste).
func (b *BalanceRecord) ForSale() decimal.Decimal {
	return b.Available.Sub(b.Reserved)
}
