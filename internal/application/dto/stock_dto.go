package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationRequest body para las operaciones del ledger
// (receive, issue, reserve, release, fulfill). product_id XOR variant_id.
type OperationRequest struct {
	ProductID    string          `json:"product_id,omitempty"`
	VariantID    string          `json:"variant_id,omitempty"`
	LocationID   string          `json:"location_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	Reason       string          `json:"reason,omitempty"`
	DocumentType string          `json:"document_type,omitempty"`
	DocumentID   string          `json:"document_id,omitempty"`
}

// TransferRequest body para POST /api/stock/transfers.
type TransferRequest struct {
	ProductID      string          `json:"product_id,omitempty"`
	VariantID      string          `json:"variant_id,omitempty"`
	FromLocationID string          `json:"from_location_id"`
	ToLocationID   string          `json:"to_location_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	Reason         string          `json:"reason,omitempty"`
}

// AdjustmentRequest body para POST /api/stock/adjustments.
// new_quantity es el valor contado al que debe quedar available.
type AdjustmentRequest struct {
	ProductID   string          `json:"product_id,omitempty"`
	VariantID   string          `json:"variant_id,omitempty"`
	LocationID  string          `json:"location_id"`
	NewQuantity decimal.Decimal `json:"new_quantity"`
	ReasonCode  string          `json:"reason_code"`
	Description string          `json:"description"`
}

// TransferDTO cabecera de traslado en respuestas.
type TransferDTO struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"product_id,omitempty"`
	VariantID      string          `json:"variant_id,omitempty"`
	FromLocationID string          `json:"from_location_id"`
	ToLocationID   string          `json:"to_location_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	Reason         string          `json:"reason,omitempty"`
	Status         string          `json:"status"`
	CreatedBy      string          `json:"created_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// AdjustmentDTO cabecera de ajuste en respuestas.
type AdjustmentDTO struct {
	ID            string          `json:"id"`
	Number        string          `json:"number"`
	ProductID     string          `json:"product_id,omitempty"`
	VariantID     string          `json:"variant_id,omitempty"`
	LocationID    string          `json:"location_id"`
	Direction     string          `json:"direction"`
	Quantity      decimal.Decimal `json:"quantity"`
	ReasonCode    string          `json:"reason_code"`
	Description   string          `json:"description"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	CreatedBy     string          `json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// BalanceDTO saldo de una clave en una bodega.
type BalanceDTO struct {
	LocationID string           `json:"location_id"`
	Available  decimal.Decimal  `json:"available"`
	Reserved   decimal.Decimal  `json:"reserved"`
	ForSale    decimal.Decimal  `json:"for_sale"`
	Minimum    *decimal.Decimal `json:"minimum,omitempty"`
	Maximum    *decimal.Decimal `json:"maximum,omitempty"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// BalanceSummaryDTO agregado de una clave a través de todas sus bodegas.
type BalanceSummaryDTO struct {
	ProductID      string          `json:"product_id,omitempty"`
	VariantID      string          `json:"variant_id,omitempty"`
	TotalAvailable decimal.Decimal `json:"total_available"`
	TotalReserved  decimal.Decimal `json:"total_reserved"`
	TotalForSale   decimal.Decimal `json:"total_for_sale"`
	Locations      []BalanceDTO    `json:"locations"`
}

// LowStockAlertDTO alerta de saldo vendible bajo mínimo.
type LowStockAlertDTO struct {
	ProductID  string          `json:"product_id,omitempty"`
	VariantID  string          `json:"variant_id,omitempty"`
	LocationID string          `json:"location_id"`
	ForSale    decimal.Decimal `json:"for_sale"`
	Minimum    decimal.Decimal `json:"minimum"`
	Severity   string          `json:"severity"` // CRITICAL | LOW
}

// StockAlertDTO alerta de agotado o sobre-stock.
type StockAlertDTO struct {
	ProductID  string           `json:"product_id,omitempty"`
	VariantID  string           `json:"variant_id,omitempty"`
	LocationID string           `json:"location_id"`
	Available  decimal.Decimal  `json:"available"`
	Maximum    *decimal.Decimal `json:"maximum,omitempty"`
}

// MovementDTO una entrada del log de movimientos.
type MovementDTO struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"product_id,omitempty"`
	VariantID     string          `json:"variant_id,omitempty"`
	LocationID    string          `json:"location_id"`
	Type          string          `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Reason        string          `json:"reason,omitempty"`
	DocumentType  string          `json:"document_type,omitempty"`
	DocumentID    string          `json:"document_id,omitempty"`
	CreatedBy     string          `json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ConsistencyCheckDTO resultado de la verificación saldo-vivo vs último movimiento.
// Una discrepancia indica bug o escritura fuera de banda; se reporta, no se corrige.
type ConsistencyCheckDTO struct {
	LocationID    string          `json:"location_id"`
	Field         string          `json:"field"` // available | reserved
	LedgerBalance decimal.Decimal `json:"ledger_balance"`
	LiveBalance   decimal.Decimal `json:"live_balance"`
	Consistent    bool            `json:"consistent"`
}
