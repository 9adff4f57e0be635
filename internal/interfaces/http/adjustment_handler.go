package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/stock"
)

// AdjustmentHandler maneja los ajustes manuales de stock (protegido).
type AdjustmentHandler struct {
	uc *ledger.AdjustStockUseCase
}

// NewAdjustmentHandler construye el handler.
func NewAdjustmentHandler(uc *ledger.AdjustStockUseCase) *AdjustmentHandler {
	return &AdjustmentHandler{uc: uc}
}

// Create godoc
// @Summary      Ajustar stock al valor contado
// @Description  Fija available al valor contado (new_quantity) y numera el
//
//	ajuste como ADJ-YYYYMM-NNNN, secuencia por tenant y mes.
//
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustmentRequest  true  "product_id XOR variant_id, location_id, new_quantity >= 0, reason_code, description >= 10 caracteres"
// @Success      201   {object}  dto.AdjustmentDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/adjustments [post]
func (h *AdjustmentHandler) Create(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	userID := GetUserID(c)
	if tenantID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.AdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	adj, err := h.uc.Adjust(c.Context(), ledger.AdjustmentInput{
		TenantID:    tenantID,
		UserID:      userID,
		Item:        stock.ItemRef{ProductID: in.ProductID, VariantID: in.VariantID},
		LocationID:  in.LocationID,
		NewQuantity: in.NewQuantity,
		ReasonCode:  in.ReasonCode,
		Description: in.Description,
	})
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toAdjustmentDTO(adj))
}

func toAdjustmentDTO(a *entity.AdjustmentRecord) dto.AdjustmentDTO {
	return dto.AdjustmentDTO{
		ID:            a.ID,
		Number:        a.Number,
		ProductID:     a.ProductID,
		VariantID:     a.VariantID,
		LocationID:    a.LocationID,
		Direction:     a.Direction,
		Quantity:      a.Quantity,
		ReasonCode:    a.ReasonCode,
		Description:   a.Description,
		BalanceBefore: a.BalanceBefore,
		BalanceAfter:  a.BalanceAfter,
		CreatedBy:     a.CreatedBy,
		CreatedAt:     a.CreatedAt,
	}
}
