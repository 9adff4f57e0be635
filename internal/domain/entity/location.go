package entity

import "time"

// Location representa una bodega, tienda o sucursal donde se almacena stock (multi-bodega).
// AllowsNegativeStock es política de negocio por bodega: habilita salidas que dejen
// available por debajo de cero (ej. venta bajo pedido).
type Location struct {
	ID                  string
	TenantID            string
	Name                string
	Address             string
	AllowsNegativeStock bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
