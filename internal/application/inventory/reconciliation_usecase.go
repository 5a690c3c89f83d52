package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

// ReconciliationCalculator recalcula el on-hand esperado desde todos los movimientos y reporta
// la divergencia contra el ingreso registrado. Solo lectura.
type ReconciliationCalculator struct {
	engine
}

// NewReconciliationCalculator construye el calculador.
func NewReconciliationCalculator(tx TxRunner, opts Options) *ReconciliationCalculator {
	return &ReconciliationCalculator{engine: newEngine(tx, opts, "reconciliation")}
}

// Compute lee todas las sumas en una misma instantánea y arma el resultado con as_of.
// Un delta distinto de cero es un dato, nunca un error.
func (c *ReconciliationCalculator) Compute(ctx context.Context, actor entity.Actor, productID, batchID, warehouseID string) (*entity.Reconciliation, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	if err := required("product_id", productID); err != nil {
		return nil, err
	}
	scope := entity.ReconciliationScope{
		BusinessID:  actor.BusinessID,
		ProductID:   productID,
		BatchID:     batchID,
		WarehouseID: warehouseID,
	}

	var result entity.Reconciliation
	err := c.read(ctx, "inventory.Reconcile", actor, func(ctx context.Context, r Repos) error {
		asOf := c.clock()
		totals, err := r.Ledger.Totals(ctx, scope)
		if err != nil {
			return err
		}
		result = inventory.Reconcile(scope, *totals, asOf)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Mismatch {
		c.log.Tenant(actor.BusinessID).Warn().Str("product_id", productID).
			Int64("delta", result.Delta).Int64("intake", result.Intake).Msg("conciliación con diferencia")
	}
	return &result, nil
}
