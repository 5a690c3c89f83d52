package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Batches        *inventory.BatchUseCase
	Reservations   *inventory.ReservationManager
	Sales          *inventory.SaleCompletionUseCase
	Adjustments    *inventory.AdjustmentLedger
	Transfers      *inventory.TransferWorkflow
	Reconciliation *inventory.ReconciliationCalculator
	JWTSecret      string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	anyRole := RequireRole(entity.RoleAdmin, entity.RoleBodeguero, entity.RoleVendedor)
	warehouse := RequireRole(entity.RoleAdmin, entity.RoleBodeguero)
	storefront := RequireRole(entity.RoleAdmin, entity.RoleVendedor)
	admin := RequireRole(entity.RoleAdmin)

	// Lotes (ingresos de bodega)
	batchHandler := NewBatchHandler(deps.Batches)
	batches := api.Group("/batches")
	batches.Post("/", warehouse, batchHandler.RegisterIntake)
	batches.Get("/:id", anyRole, batchHandler.GetByID)
	batches.Get("/:id/stock", anyRole, batchHandler.OnHand)

	// Productos: vistas por producto
	reconHandler := NewReconciliationHandler(deps.Reconciliation)
	products := api.Group("/products")
	products.Get("/:id/batches", anyRole, batchHandler.ListByProduct)
	products.Get("/:id/reconciliation", warehouse, reconHandler.Compute)

	// Reservas de carrito
	reservationHandler := NewReservationHandler(deps.Reservations)
	reservations := api.Group("/reservations", storefront)
	reservations.Post("/", reservationHandler.Acquire)
	reservations.Post("/:id/release", reservationHandler.Release)
	reservations.Post("/:id/consume", reservationHandler.Consume)
	api.Post("/carts/:cart_ref/release", storefront, reservationHandler.ReleaseCart)

	// Ventas
	saleHandler := NewSaleHandler(deps.Sales)
	sales := api.Group("/sales", storefront)
	sales.Post("/complete", saleHandler.Complete)
	sales.Post("/returns", saleHandler.Return)

	// Ajustes: cualquiera registra, solo admin decide
	adjustmentHandler := NewAdjustmentHandler(deps.Adjustments)
	adjustments := api.Group("/adjustments")
	adjustments.Post("/", anyRole, adjustmentHandler.Create)
	adjustments.Get("/", anyRole, adjustmentHandler.List)
	adjustments.Get("/:id", anyRole, adjustmentHandler.GetByID)
	adjustments.Post("/:id/approve", admin, adjustmentHandler.Approve)
	adjustments.Post("/:id/reject", admin, adjustmentHandler.Reject)

	// Traslados bodega -> tienda
	transferHandler := NewTransferHandler(deps.Transfers)
	transfers := api.Group("/transfer-requests")
	transfers.Post("/", storefront, transferHandler.Create)
	transfers.Get("/:id", anyRole, transferHandler.GetByID)
	transfers.Post("/:id/assign", warehouse, transferHandler.Assign)
	transfers.Post("/:id/fulfill", warehouse, transferHandler.Fulfill)
	transfers.Post("/:id/cancel", anyRole, transferHandler.Cancel)
	transfers.Post("/:id/override", admin, transferHandler.Override)
}
