package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

// BatchHandler ingresos de bodega (lotes) y su on-hand derivado.
type BatchHandler struct {
	uc *inventory.BatchUseCase
}

// NewBatchHandler construye el handler.
func NewBatchHandler(uc *inventory.BatchUseCase) *BatchHandler {
	return &BatchHandler{uc: uc}
}

// RegisterIntake godoc
// @Summary      Registrar ingreso de mercancía (lote)
// @Description  La cantidad y el costo del lote quedan fijos; los cambios posteriores son ajustes.
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.IntakeRequest  true  "product_id, warehouse_id, quantity, unit_cost"
// @Success      201   {object}  dto.BatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/batches [post]
func (h *BatchHandler) RegisterIntake(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.IntakeRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	batch, err := h.uc.RegisterIntake(c.Context(), actor, inventory.IntakeInput{
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		Quantity:    in.Quantity,
		UnitCost:    in.UnitCost,
		Reference:   in.Reference,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToBatchResponse(batch))
}

// GetByID godoc
// @Summary      Obtener lote
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.BatchResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/batches/{id} [get]
func (h *BatchHandler) GetByID(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	batch, err := h.uc.Get(c.Context(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToBatchResponse(batch))
}

// OnHand godoc
// @Summary      On-hand derivado de un lote
// @Description  intake - trasladado - merma + correcciones, calculado desde los movimientos.
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.BatchStockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/stock [get]
func (h *BatchHandler) OnHand(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	st, err := h.uc.OnHand(c.Context(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.BatchStockResponse{
		Batch:       dto.ToBatchResponse(st.Batch),
		Transferred: st.Transferred,
		Shrinkage:   st.Shrinkage,
		Corrections: st.Corrections,
		OnHand:      st.OnHand,
	})
}

// ListByProduct godoc
// @Summary      Lotes de un producto
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        id         path   string  true   "ID del producto"
// @Param        warehouse  query  string  false  "Filtrar por bodega"
// @Success      200  {array}   dto.BatchResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/batches [get]
func (h *BatchHandler) ListByProduct(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	batches, err := h.uc.ListByProduct(c.Context(), actor, c.Params("id"), c.Query("warehouse"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.BatchResponse, 0, len(batches))
	for _, b := range batches {
		out = append(out, dto.ToBatchResponse(b))
	}
	return c.JSON(out)
}
