package sqlstore

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.LedgerReader = (*LedgerReader)(nil)

// LedgerReader sumas de conciliación. Las cifras de bodega (ingreso, traslados, ajustes de lote)
// respetan el alcance de lote/bodega; las de tienda son del producto completo, salvo lo vendido,
// que se acota por la procedencia del ítem cuando hay alcance. Con alcance, las cifras de tienda
// son informativas y no entran en el delta.
type LedgerReader struct{ base }

// batchScope subconsulta de ids de lote dentro del alcance.
func batchScope(s entity.ReconciliationScope) (string, []any) {
	query := `SELECT id FROM stock_batches WHERE business_id = ? AND product_id = ?`
	args := []any{s.BusinessID, s.ProductID}
	if s.BatchID != "" {
		query += ` AND id = ?`
		args = append(args, s.BatchID)
	}
	if s.WarehouseID != "" {
		query += ` AND warehouse_id = ?`
		args = append(args, s.WarehouseID)
	}
	return query, args
}

// Totals lee todas las sumas. Llamar dentro de RunReadOnly.
func (r *LedgerReader) Totals(ctx context.Context, s entity.ReconciliationScope) (*entity.LedgerTotals, error) {
	t := &entity.LedgerTotals{IntakeValue: decimal.Zero}
	scopeSQL, scopeArgs := batchScope(s)
	scoped := s.Narrowed()

	var batches []struct {
		IntakeQuantity int64           `db:"intake_quantity"`
		UnitCost       decimal.Decimal `db:"unit_cost"`
	}
	err := r.sel(ctx, &batches, `SELECT intake_quantity, unit_cost FROM stock_batches WHERE id IN (`+scopeSQL+`)`, scopeArgs...)
	if err != nil {
		return nil, fmt.Errorf("sum intake: %w", err)
	}
	for _, b := range batches {
		t.Intake += b.IntakeQuantity
		t.IntakeValue = t.IntakeValue.Add(b.UnitCost.Mul(decimal.NewFromInt(b.IntakeQuantity)))
	}

	err = r.get(ctx, &t.Transferred, `SELECT CAST(COALESCE(SUM(quantity), 0) AS BIGINT) FROM stock_transfer_movements
		WHERE business_id = ? AND batch_id IN (`+scopeSQL+`)`, append([]any{s.BusinessID}, scopeArgs...)...)
	if err != nil {
		return nil, fmt.Errorf("sum transferred: %w", err)
	}

	var batchAdj categoryTotals
	err = r.get(ctx, &batchAdj, `SELECT `+categorySums+` FROM stock_adjustments
		WHERE business_id = ? AND target_kind = ? AND status = ? AND batch_id IN (`+scopeSQL+`)`,
		append([]any{s.BusinessID, entity.TargetBatch, entity.AdjustmentCompleted}, scopeArgs...)...)
	if err != nil {
		return nil, fmt.Errorf("sum batch adjustments: %w", err)
	}
	t.BatchShrinkage, t.BatchCorrections = batchAdj.Shrinkage, batchAdj.Corrections

	err = r.get(ctx, &t.StorefrontOnHand, `SELECT CAST(COALESCE(SUM(quantity), 0) AS BIGINT) FROM stock_allocations
		WHERE business_id = ? AND product_id = ?`, s.BusinessID, s.ProductID)
	if err != nil {
		return nil, fmt.Errorf("sum allocations: %w", err)
	}

	var allocAdj categoryTotals
	err = r.get(ctx, &allocAdj, `SELECT `+categorySums+` FROM stock_adjustments
		WHERE business_id = ? AND target_kind = ? AND status = ? AND product_id = ?`,
		s.BusinessID, entity.TargetAllocation, entity.AdjustmentCompleted, s.ProductID)
	if err != nil {
		return nil, fmt.Errorf("sum allocation adjustments: %w", err)
	}
	t.StorefrontShrinkage, t.StorefrontCorrections = allocAdj.Shrinkage, allocAdj.Corrections

	soldSQL := `SELECT CAST(COALESCE(SUM(quantity), 0) AS BIGINT) FROM stock_sale_items
		WHERE business_id = ? AND product_id = ?`
	soldArgs := []any{s.BusinessID, s.ProductID}
	if scoped {
		soldSQL += ` AND batch_id IN (` + scopeSQL + `)`
		soldArgs = append(soldArgs, scopeArgs...)
	}
	if err := r.get(ctx, &t.Sold, soldSQL, soldArgs...); err != nil {
		return nil, fmt.Errorf("sum sold: %w", err)
	}

	err = r.get(ctx, &t.ActiveReservations, `SELECT CAST(COALESCE(SUM(quantity), 0) AS BIGINT) FROM stock_reservations
		WHERE business_id = ? AND product_id = ? AND status = ?`, s.BusinessID, s.ProductID, entity.ReservationActive)
	if err != nil {
		return nil, fmt.Errorf("sum active reservations: %w", err)
	}
	return t, nil
}
