package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// AdjustmentHandler ajustes de stock con aprobación.
type AdjustmentHandler struct {
	ledger *inventory.AdjustmentLedger
}

// NewAdjustmentHandler construye el handler.
func NewAdjustmentHandler(ledger *inventory.AdjustmentLedger) *AdjustmentHandler {
	return &AdjustmentHandler{ledger: ledger}
}

// Create godoc
// @Summary      Registrar ajuste (PENDING)
// @Description  El signo se deriva del tipo: merma resta, restaurativo suma.
// @Tags         adjustments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateAdjustmentRequest  true  "target_type BATCH|ALLOCATION, type, quantity, reason"
// @Success      201   {object}  dto.AdjustmentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/adjustments [post]
func (h *AdjustmentHandler) Create(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.CreateAdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	adj, err := h.ledger.Create(c.Context(), actor, inventory.AdjustmentInput{
		Target: entity.AdjustmentTarget{
			Kind:         strings.ToUpper(strings.TrimSpace(in.TargetType)),
			BatchID:      in.BatchID,
			ProductID:    in.ProductID,
			StorefrontID: in.StorefrontID,
		},
		Type:     entity.AdjustmentType(strings.ToUpper(strings.TrimSpace(in.Type))),
		Quantity: in.Quantity,
		Reason:   in.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToAdjustmentResponse(adj))
}

// List godoc
// @Summary      Listar ajustes
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        status   query  string  false  "PENDING | REJECTED | COMPLETED"
// @Param        product  query  string  false  "ID del producto"
// @Param        limit    query  int     false  "Límite (default 20)"
// @Param        offset   query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.AdjustmentListResponse
// @Router       /api/adjustments [get]
func (h *AdjustmentHandler) List(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var q dto.ListQuery
	if err := c.QueryParser(&q); err != nil {
		return invalidBody(c)
	}
	q = q.Normalize()
	list, err := h.ledger.List(c.Context(), actor, repository.AdjustmentFilter{
		ProductID: q.Product,
		Status:    q.Status,
		Limit:     q.Limit,
		Offset:    q.Offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	out := dto.AdjustmentListResponse{
		Items: make([]dto.AdjustmentResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset, Returned: len(list)},
	}
	for _, a := range list {
		out.Items = append(out.Items, dto.ToAdjustmentResponse(a))
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener ajuste
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ajuste"
// @Success      200  {object}  dto.AdjustmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/adjustments/{id} [get]
func (h *AdjustmentHandler) GetByID(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	adj, err := h.ledger.Get(c.Context(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToAdjustmentResponse(adj))
}

// Approve godoc
// @Summary      Aprobar ajuste
// @Description  Aplica el delta de forma atómica. Si dejaría stock negativo o por debajo de lo reservado responde 400 con el desglose.
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ajuste"
// @Success      200  {object}  dto.ApprovalResponse
// @Failure      400  {object}  dto.ErrorResponse  "NEGATIVE_STOCK"
// @Failure      409  {object}  dto.ErrorResponse  "INVALID_TRANSITION"
// @Router       /api/adjustments/{id}/approve [post]
func (h *AdjustmentHandler) Approve(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	res, err := h.ledger.Approve(c.Context(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ApprovalResponse{
		Adjustment:   dto.ToAdjustmentResponse(res.Adjustment),
		AppliedDelta: res.AppliedDelta,
		OnHandBefore: res.OnHandBefore,
		OnHandAfter:  res.OnHandAfter,
	})
}

// Reject godoc
// @Summary      Rechazar ajuste
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ajuste"
// @Success      200  {object}  dto.AdjustmentResponse
// @Failure      409  {object}  dto.ErrorResponse  "INVALID_TRANSITION"
// @Router       /api/adjustments/{id}/reject [post]
func (h *AdjustmentHandler) Reject(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	adj, err := h.ledger.Reject(c.Context(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToAdjustmentResponse(adj))
}
