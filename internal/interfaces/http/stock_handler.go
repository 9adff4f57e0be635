package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/stock"
)

// StockHandler maneja las operaciones del ledger de stock (protegido).
type StockHandler struct {
	ledger *ledger.StockLedgerUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *ledger.StockLedgerUseCase) *StockHandler {
	return &StockHandler{ledger: uc}
}

type ledgerOperation func(c *fiber.Ctx, in ledger.OperationInput) (*entity.MovementEntry, error)

// handleOperation factoriza el pipeline común de las cinco operaciones:
// auth, parseo del body, invocación y mapeo de errores.
func (h *StockHandler) handleOperation(c *fiber.Ctx, op ledgerOperation) error {
	tenantID := GetTenantID(c)
	userID := GetUserID(c)
	if tenantID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.OperationRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	mov, err := op(c, ledger.OperationInput{
		TenantID:     tenantID,
		UserID:       userID,
		Item:         stock.ItemRef{ProductID: in.ProductID, VariantID: in.VariantID},
		LocationID:   in.LocationID,
		Quantity:     in.Quantity,
		Reason:       in.Reason,
		DocumentType: in.DocumentType,
		DocumentID:   in.DocumentID,
	})
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementDTO(mov))
}

// Receive godoc
// @Summary      Registrar entrada de stock (recepción)
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OperationRequest  true  "product_id XOR variant_id, location_id, quantity > 0"
// @Success      201   {object}  dto.MovementDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/receive [post]
func (h *StockHandler) Receive(c *fiber.Ctx) error {
	return h.handleOperation(c, func(c *fiber.Ctx, in ledger.OperationInput) (*entity.MovementEntry, error) {
		return h.ledger.Receive(c.Context(), in)
	})
}

// Issue godoc
// @Summary      Registrar salida directa de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OperationRequest  true  "product_id XOR variant_id, location_id, quantity > 0"
// @Success      201   {object}  dto.MovementDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/issue [post]
func (h *StockHandler) Issue(c *fiber.Ctx) error {
	return h.handleOperation(c, func(c *fiber.Ctx, in ledger.OperationInput) (*entity.MovementEntry, error) {
		return h.ledger.Issue(c.Context(), in)
	})
}

// Reserve godoc
// @Summary      Reservar stock contra un fulfillment futuro
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OperationRequest  true  "product_id XOR variant_id, location_id, quantity > 0"
// @Success      201   {object}  dto.MovementDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/reserve [post]
func (h *StockHandler) Reserve(c *fiber.Ctx) error {
	return h.handleOperation(c, func(c *fiber.Ctx, in ledger.OperationInput) (*entity.MovementEntry, error) {
		return h.ledger.Reserve(c.Context(), in)
	})
}

// Release godoc
// @Summary      Liberar una reserva (idempotente por recorte)
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OperationRequest  true  "product_id XOR variant_id, location_id, quantity > 0"
// @Success      201   {object}  dto.MovementDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/release [post]
func (h *StockHandler) Release(c *fiber.Ctx) error {
	return h.handleOperation(c, func(c *fiber.Ctx, in ledger.OperationInput) (*entity.MovementEntry, error) {
		return h.ledger.Release(c.Context(), in)
	})
}

// Fulfill godoc
// @Summary      Consumir una reserva (venta despachada)
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OperationRequest  true  "product_id XOR variant_id, location_id, quantity > 0"
// @Success      201   {object}  dto.MovementDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/fulfill [post]
func (h *StockHandler) Fulfill(c *fiber.Ctx) error {
	return h.handleOperation(c, func(c *fiber.Ctx, in ledger.OperationInput) (*entity.MovementEntry, error) {
		return h.ledger.Fulfill(c.Context(), in)
	})
}

// SetThresholds godoc
// @Summary      Fijar mínimo/máximo de una clave en una bodega
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ThresholdRequest  true  "product_id XOR variant_id, location_id, minimum/maximum (nulo limpia)"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/thresholds [put]
func (h *StockHandler) SetThresholds(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ThresholdRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	err := h.ledger.SetThresholds(c.Context(), ledger.ThresholdInput{
		TenantID:   tenantID,
		Item:       stock.ItemRef{ProductID: in.ProductID, VariantID: in.VariantID},
		LocationID: in.LocationID,
		Minimum:    in.Minimum,
		Maximum:    in.Maximum,
	})
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(fiber.Map{"message": "umbrales actualizados"})
}

func toMovementDTO(m *entity.MovementEntry) dto.MovementDTO {
	return dto.MovementDTO{
		ID:            m.ID,
		ProductID:     m.ProductID,
		VariantID:     m.VariantID,
		LocationID:    m.LocationID,
		Type:          m.Type,
		Quantity:      m.Quantity,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		Reason:        m.Reason,
		DocumentType:  m.DocumentType,
		DocumentID:    m.DocumentID,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
	}
}
