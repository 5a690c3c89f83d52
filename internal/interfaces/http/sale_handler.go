package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

// SaleHandler cierre de ventas y devoluciones.
type SaleHandler struct {
	uc *inventory.SaleCompletionUseCase
}

// NewSaleHandler construye el handler.
func NewSaleHandler(uc *inventory.SaleCompletionUseCase) *SaleHandler {
	return &SaleHandler{uc: uc}
}

// Complete godoc
// @Summary      Completar venta
// @Description  Consume todas las reservas y registra el pago en una sola transacción.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CompleteSaleRequest  true  "sale_id, payment_ref, payment_status, reservation_ids, force"
// @Success      200   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "RESERVATION_EXPIRED o STOCK_UNAVAILABLE"
// @Router       /api/sales/complete [post]
func (h *SaleHandler) Complete(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.CompleteSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.uc.Complete(c.Context(), actor, inventory.CompleteSaleInput{
		SaleID:         in.SaleID,
		PaymentRef:     in.PaymentRef,
		PaymentStatus:  in.PaymentStatus,
		ReservationIDs: in.ReservationIDs,
		Force:          in.Force,
	})
	if err != nil {
		return writeError(c, err)
	}
	out := dto.SaleResponse{SaleID: res.SaleID, Items: make([]dto.SaleItemResponse, 0, len(res.Items))}
	for _, it := range res.Items {
		out.Items = append(out.Items, dto.ToSaleItemResponse(it))
	}
	if res.Payment != nil {
		out.PaymentRef = res.Payment.PaymentRef
		out.PaymentStatus = res.Payment.PaymentStatus
	}
	return c.JSON(out)
}

// Return godoc
// @Summary      Registrar devolución
// @Description  Crea un ajuste CUSTOMER_RETURN en estado PENDING; el ítem vendido no se edita.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReturnRequest  true  "sale_item_id, quantity, reason"
// @Success      201   {object}  dto.AdjustmentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/sales/returns [post]
func (h *SaleHandler) Return(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.ReturnRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	adj, err := h.uc.Return(c.Context(), actor, inventory.ReturnInput{
		SaleItemID: in.SaleItemID,
		Quantity:   in.Quantity,
		Reason:     in.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToAdjustmentResponse(adj))
}
