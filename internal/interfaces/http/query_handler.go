package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/domain/stock"
)

// QueryHandler maneja la superficie de consulta del ledger (protegido).
type QueryHandler struct {
	queries *ledger.StockQueryUseCase
}

// NewQueryHandler construye el handler.
func NewQueryHandler(queries *ledger.StockQueryUseCase) *QueryHandler {
	return &QueryHandler{queries: queries}
}

// itemFromQuery arma el ItemRef desde los query params product_id/variant_id.
func itemFromQuery(c *fiber.Ctx) stock.ItemRef {
	return stock.ItemRef{
		ProductID: c.Query("product_id"),
		VariantID: c.Query("variant_id"),
	}
}

// Balances godoc
// @Summary      Saldos de una clave por bodega + totales
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "Producto simple (XOR variant_id)"
// @Param        variant_id  query  string  false  "Variante (XOR product_id)"
// @Success      200  {object}  dto.BalanceSummaryDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/balances [get]
func (h *QueryHandler) Balances(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	summary, err := h.queries.BalancesByItem(c.Context(), tenantID, itemFromQuery(c))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(summary)
}

// Publishable godoc
// @Summary      Cantidad publicable en marketplace (suma de forSale, recortada a >= 0)
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "Producto simple (XOR variant_id)"
// @Param        variant_id  query  string  false  "Variante (XOR product_id)"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/publishable [get]
func (h *QueryHandler) Publishable(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	qty, err := h.queries.PublishableQuantity(c.Context(), tenantID, itemFromQuery(c))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(fiber.Map{"quantity": qty})
}

// LowStock godoc
// @Summary      Alertas de saldo vendible bajo mínimo (CRITICAL/LOW)
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Máximo de filas (default 20)"
// @Param        offset  query  int  false  "Desplazamiento"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/stock/alerts/low-stock [get]
func (h *QueryHandler) LowStock(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	page := pageFromQuery(c)
	alerts, err := h.queries.LowStock(c.Context(), tenantID, page.Limit, page.Offset)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(alerts), "alerts": alerts})
}

// OutOfStock godoc
// @Summary      Claves con available en cero exacto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Máximo de filas (default 20)"
// @Param        offset  query  int  false  "Desplazamiento"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/stock/alerts/out-of-stock [get]
func (h *QueryHandler) OutOfStock(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	page := pageFromQuery(c)
	alerts, err := h.queries.OutOfStock(c.Context(), tenantID, page.Limit, page.Offset)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(alerts), "alerts": alerts})
}

// AboveMaximum godoc
// @Summary      Claves con available por encima del máximo configurado
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Máximo de filas (default 20)"
// @Param        offset  query  int  false  "Desplazamiento"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/stock/alerts/above-maximum [get]
func (h *QueryHandler) AboveMaximum(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	page := pageFromQuery(c)
	alerts, err := h.queries.AboveMaximum(c.Context(), tenantID, page.Limit, page.Offset)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(alerts), "alerts": alerts})
}

// Movements godoc
// @Summary      Historial de movimientos con filtros combinables
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id     query  string  false  "Filtrar por producto"
// @Param        variant_id     query  string  false  "Filtrar por variante"
// @Param        location_id    query  string  false  "Filtrar por bodega"
// @Param        document_type  query  string  false  "Filtrar por tipo de documento origen"
// @Param        document_id    query  string  false  "Filtrar por documento origen"
// @Param        created_by     query  string  false  "Filtrar por usuario"
// @Param        from           query  string  false  "Desde (RFC3339)"
// @Param        to             query  string  false  "Hasta (RFC3339)"
// @Param        limit          query  int     false  "Máximo de filas (default 20)"
// @Param        offset         query  int     false  "Desplazamiento"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/movements [get]
func (h *QueryHandler) Movements(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	filter := repository.MovementFilter{
		LocationID:   c.Query("location_id"),
		DocumentType: c.Query("document_type"),
		DocumentID:   c.Query("document_id"),
		CreatedBy:    c.Query("created_by"),
	}
	if item := itemFromQuery(c); item.ProductID != "" || item.VariantID != "" {
		filter.Item = &item
	}
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from debe ser RFC3339"})
		}
		filter.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to debe ser RFC3339"})
		}
		filter.To = &t
	}
	page := pageFromQuery(c)
	movements, err := h.queries.Movements(c.Context(), tenantID, filter, page.Limit, page.Offset)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(fiber.Map{
		"total":     len(movements),
		"movements": movements,
		"page":      dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// Consistency godoc
// @Summary      Verificar saldo vivo vs último movimiento de la clave
// @Description  Compara available y reserved contra el balance_after del último
//
//	movimiento de cada campo. Reporta discrepancias, no las corrige.
//
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id   query  string  false  "Producto simple (XOR variant_id)"
// @Param        variant_id   query  string  false  "Variante (XOR product_id)"
// @Param        location_id  query  string  true   "Bodega"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/consistency [get]
func (h *QueryHandler) Consistency(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	checks, err := h.queries.CheckConsistency(c.Context(), tenantID, itemFromQuery(c), c.Query("location_id"))
	if err != nil {
		return respondDomainError(c, err)
	}
	consistent := true
	for _, chk := range checks {
		if !chk.Consistent {
			consistent = false
			break
		}
	}
	return c.JSON(fiber.Map{"consistent": consistent, "checks": checks})
}

// pageFromQuery lee limit/offset con los defaults de PageRequest.
func pageFromQuery(c *fiber.Ctx) dto.PageRequest {
	page := dto.PageRequest{
		Limit:  c.QueryInt("limit"),
		Offset: c.QueryInt("offset"),
	}
	page.DefaultPage()
	if page.Limit > 100 {
		page.Limit = 100
	}
	return page
}
