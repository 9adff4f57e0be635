package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de TransferRecord. Los traslados son síncronos y atómicos:
// se crean ya ejecutados, sin estado en vuelo.
const (
	TransferStatusCompleted = "COMPLETED"
)

// DocumentTypeTransfer es el document_type que llevan los dos movimientos de un traslado.
const DocumentTypeTransfer = "TRANSFER"

// TransferRecord es la cabecera de un traslado entre bodegas.
// Inmutable después de creada; sus dos MovementEntry (TRANSFER_OUT/TRANSFER_IN)
// la referencian por DocumentID.
type TransferRecord struct {
	ID             string
	TenantID       string
	ProductID      string
	VariantID      string
	FromLocationID string
	ToLocationID   string
	Quantity       decimal.Decimal
	Reason         string
	Status         string
	CreatedBy      string
	CreatedAt      time.Time
}
