package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

// ReservationHandler retenciones de carrito contra la asignación de una tienda.
type ReservationHandler struct {
	manager *inventory.ReservationManager
}

// NewReservationHandler construye el handler.
func NewReservationHandler(manager *inventory.ReservationManager) *ReservationHandler {
	return &ReservationHandler{manager: manager}
}

// Acquire godoc
// @Summary      Reservar stock para un carrito
// @Tags         reservations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AcquireReservationRequest  true  "product_id, storefront_id, quantity, cart_ref, ttl_seconds"
// @Success      201   {object}  dto.ReservationResponse
// @Failure      400   {object}  dto.ErrorResponse  "VALIDATION o INSUFFICIENT_STOCK con desglose"
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/reservations [post]
func (h *ReservationHandler) Acquire(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.AcquireReservationRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.manager.Acquire(c.Context(), actor, inventory.AcquireInput{
		ProductID:    in.ProductID,
		StorefrontID: in.StorefrontID,
		Quantity:     in.Quantity,
		CartRef:      in.CartRef,
		TTL:          time.Duration(in.TTLSeconds) * time.Second,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToReservationResponse(res))
}

// Release godoc
// @Summary      Liberar reserva (idempotente)
// @Tags         reservations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la reserva"
// @Success      200  {object}  dto.ReservationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reservations/{id}/release [post]
func (h *ReservationHandler) Release(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	res, err := h.manager.Release(c.Context(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToReservationResponse(res))
}

// Consume godoc
// @Summary      Consumir reserva (venta de un ítem)
// @Tags         reservations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                          true  "ID de la reserva"
// @Param        body  body  dto.ConsumeReservationRequest  true  "sale_id"
// @Success      200   {object}  dto.SaleItemResponse
// @Failure      409   {object}  dto.ErrorResponse  "RESERVATION_EXPIRED"
// @Router       /api/reservations/{id}/consume [post]
func (h *ReservationHandler) Consume(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.ConsumeReservationRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	item, err := h.manager.Consume(c.Context(), actor, c.Params("id"), in.SaleID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToSaleItemResponse(item))
}

// ReleaseCart godoc
// @Summary      Liberar todas las reservas activas de un carrito
// @Tags         reservations
// @Security     Bearer
// @Produce      json
// @Param        cart_ref  path  string  true  "Referencia del carrito"
// @Success      200  {object}  dto.ReleaseCartResponse
// @Router       /api/carts/{cart_ref}/release [post]
func (h *ReservationHandler) ReleaseCart(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	cartRef := c.Params("cart_ref")
	n, err := h.manager.ReleaseCart(c.Context(), actor, cartRef)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ReleaseCartResponse{CartRef: cartRef, Released: n})
}
