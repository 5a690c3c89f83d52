package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// TransferHandler solicitudes de traslado bodega -> tienda.
type TransferHandler struct {
	workflow *inventory.TransferWorkflow
}

// NewTransferHandler construye el handler.
func NewTransferHandler(workflow *inventory.TransferWorkflow) *TransferHandler {
	return &TransferHandler{workflow: workflow}
}

// Create godoc
// @Summary      Crear solicitud de traslado (NEW)
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransferRequest  true  "storefront_id, lines"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/transfer-requests [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.CreateTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	lines := make([]inventory.TransferLineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, inventory.TransferLineInput{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	req, err := h.workflow.Create(c.Context(), actor, inventory.TransferInput{
		StorefrontID: in.StorefrontID,
		Lines:        lines,
		Note:         in.Note,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToTransferResponse(req, nil))
}

// GetByID godoc
// @Summary      Obtener solicitud de traslado con sus movimientos
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfer-requests/{id} [get]
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	req, movements, err := h.workflow.Get(c.Context(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToTransferResponse(req, movements))
}

// Assign godoc
// @Summary      Asignar solicitud a un bodeguero
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID de la solicitud"
// @Param        body  body  dto.AssignTransferRequest  true  "assignee"
// @Success      200   {object}  dto.TransferResponse
// @Failure      409   {object}  dto.ErrorResponse  "INVALID_TRANSITION"
// @Router       /api/transfer-requests/{id}/assign [post]
func (h *TransferHandler) Assign(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.AssignTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	req, err := h.workflow.Assign(c.Context(), actor, c.Params("id"), in.Assignee)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToTransferResponse(req, nil))
}

// Fulfill godoc
// @Summary      Surtir solicitud desde lotes
// @Description  Mueve stock de los lotes indicados a la asignación de la tienda. Sin stock suficiente en un lote responde 400 con el desglose.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID de la solicitud"
// @Param        body  body  dto.FulfillTransferRequest  true  "items"
// @Success      200   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse  "INSUFFICIENT_STOCK"
// @Failure      409   {object}  dto.ErrorResponse  "INVALID_TRANSITION"
// @Router       /api/transfer-requests/{id}/fulfill [post]
func (h *TransferHandler) Fulfill(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.FulfillTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	items := make([]entity.FulfillItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, entity.FulfillItem{ProductID: it.ProductID, BatchID: it.BatchID, Quantity: it.Quantity})
	}
	req, err := h.workflow.Fulfill(c.Context(), actor, c.Params("id"), items)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToTransferResponse(req, nil))
}

// Cancel godoc
// @Summary      Cancelar solicitud
// @Description  Revierte los movimientos ya surtidos; falla si dejaría reservas activas sin respaldo.
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.TransferResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfer-requests/{id}/cancel [post]
func (h *TransferHandler) Cancel(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	req, err := h.workflow.Cancel(c.Context(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToTransferResponse(req, nil))
}

// Override godoc
// @Summary      Forzar estado de una solicitud (admin)
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "ID de la solicitud"
// @Param        body  body  dto.OverrideTransferRequest  true  "status, allow_terminal_exit"
// @Success      200   {object}  dto.TransferResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfer-requests/{id}/override [post]
func (h *TransferHandler) Override(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.OverrideTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	req, err := h.workflow.Override(c.Context(), actor, c.Params("id"), strings.ToUpper(in.Status), in.AllowTerminalExit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToTransferResponse(req, nil))
}
