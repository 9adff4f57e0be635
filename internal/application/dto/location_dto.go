package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateLocationRequest body para crear una bodega/tienda.
type CreateLocationRequest struct {
	Name                string `json:"name" validate:"required"`
	Address             string `json:"address,omitempty"`
	AllowsNegativeStock bool   `json:"allows_negative_stock"`
}

// LocationResponse bodega en respuestas.
type LocationResponse struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Address             string    `json:"address,omitempty"`
	AllowsNegativeStock bool      `json:"allows_negative_stock"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// LocationListResponse listado paginado de bodegas.
type LocationListResponse struct {
	Items []LocationResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// ThresholdRequest body para fijar mínimo/máximo de una clave en una bodega.
// Un campo nulo limpia el umbral correspondiente.
type ThresholdRequest struct {
	ProductID  string           `json:"product_id,omitempty"`
	VariantID  string           `json:"variant_id,omitempty"`
	LocationID string           `json:"location_id"`
	Minimum    *decimal.Decimal `json:"minimum,omitempty"`
	Maximum    *decimal.Decimal `json:"maximum,omitempty"`
}
