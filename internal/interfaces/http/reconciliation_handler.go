package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

// ReconciliationHandler conciliación de stock por producto (solo lectura).
type ReconciliationHandler struct {
	calc *inventory.ReconciliationCalculator
}

// NewReconciliationHandler construye el handler.
func NewReconciliationHandler(calc *inventory.ReconciliationCalculator) *ReconciliationHandler {
	return &ReconciliationHandler{calc: calc}
}

// Compute godoc
// @Summary      Conciliación de un producto
// @Description  Recalcula el on-hand esperado desde todos los movimientos y reporta el delta contra el ingreso.
// @Description  Un delta distinto de cero se reporta como dato (mismatch=true), no como error.
// @Tags         reconciliation
// @Security     Bearer
// @Produce      json
// @Param        id         path   string  true   "ID del producto"
// @Param        batch      query  string  false  "Limitar a un lote"
// @Param        warehouse  query  string  false  "Limitar a una bodega"
// @Success      200  {object}  entity.Reconciliation
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/reconciliation [get]
func (h *ReconciliationHandler) Compute(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return unauthorized(c)
	}
	rec, err := h.calc.Compute(c.Context(), actor, c.Params("id"), c.Query("batch"), c.Query("warehouse"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(rec)
}
