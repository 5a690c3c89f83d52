package sqlstore

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.AdjustmentRepository = (*AdjustmentRepo)(nil)

// AdjustmentRepo ajustes y sus decisiones.
type AdjustmentRepo struct{ base }

type adjustmentRow struct {
	ID                string `db:"id"`
	BusinessID        string `db:"business_id"`
	TargetKind        string `db:"target_kind"`
	BatchID           string `db:"batch_id"`
	ProductID         string `db:"product_id"`
	StorefrontID      string `db:"storefront_id"`
	Type              string `db:"type"`
	Quantity          int64  `db:"quantity"`
	RequestedQuantity int64  `db:"requested_quantity"`
	Reason            string `db:"reason"`
	Status            string `db:"status"`
	QuantityBefore    int64  `db:"quantity_before"`
	SaleItemID        string `db:"sale_item_id"`
	CreatedBy         string `db:"created_by"`
	DecidedBy         string `db:"decided_by"`
	CreatedAt         dbTime `db:"created_at"`
	DecidedAt         dbTime `db:"decided_at"`
}

func (r adjustmentRow) entity() *entity.Adjustment {
	return &entity.Adjustment{
		ID:         r.ID,
		BusinessID: r.BusinessID,
		Target: entity.AdjustmentTarget{
			Kind:         r.TargetKind,
			BatchID:      r.BatchID,
			ProductID:    r.ProductID,
			StorefrontID: r.StorefrontID,
		},
		Type:              entity.AdjustmentType(r.Type),
		Quantity:          r.Quantity,
		RequestedQuantity: r.RequestedQuantity,
		Reason:            r.Reason,
		Status:            r.Status,
		QuantityBefore:    r.QuantityBefore,
		SaleItemID:        r.SaleItemID,
		CreatedBy:         r.CreatedBy,
		DecidedBy:         r.DecidedBy,
		CreatedAt:         r.CreatedAt.Time,
		DecidedAt:         r.DecidedAt.ptr(),
	}
}

const adjustmentColumns = `id, business_id, target_kind, batch_id, product_id, storefront_id, type, quantity,
	requested_quantity, reason, status, quantity_before, sale_item_id, created_by, decided_by, created_at, decided_at`

// categorySums expresión de suma por signo: la merma en valor absoluto.
const categorySums = `
	CAST(COALESCE(SUM(CASE WHEN quantity < 0 THEN -quantity ELSE 0 END), 0) AS BIGINT) AS shrinkage,
	CAST(COALESCE(SUM(CASE WHEN quantity > 0 THEN quantity ELSE 0 END), 0) AS BIGINT) AS corrections`

type categoryTotals struct {
	Shrinkage   int64 `db:"shrinkage"`
	Corrections int64 `db:"corrections"`
}

// Create inserta el ajuste.
func (r *AdjustmentRepo) Create(ctx context.Context, a *entity.Adjustment) error {
	_, err := r.exec(ctx, `
		INSERT INTO stock_adjustments (`+adjustmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.BusinessID, a.Target.Kind, a.Target.BatchID, a.Target.ProductID, a.Target.StorefrontID,
		string(a.Type), a.Quantity, a.RequestedQuantity, a.Reason, a.Status, a.QuantityBefore, a.SaleItemID,
		a.CreatedBy, a.DecidedBy, r.ts(a.CreatedAt), r.nullTS(a.DecidedAt))
	if err != nil {
		return fmt.Errorf("insert adjustment: %w", err)
	}
	return nil
}

// GetByID obtiene un ajuste del negocio.
func (r *AdjustmentRepo) GetByID(ctx context.Context, businessID, id string) (*entity.Adjustment, error) {
	var row adjustmentRow
	err := r.get(ctx, &row, `SELECT `+adjustmentColumns+` FROM stock_adjustments WHERE business_id = ? AND id = ?`, businessID, id)
	if err != nil {
		return nil, notFound("adjustment", id, err)
	}
	return row.entity(), nil
}

// Decide guarda la decisión solo si el ajuste sigue en from.
func (r *AdjustmentRepo) Decide(ctx context.Context, a *entity.Adjustment, from string) (bool, error) {
	res, err := r.exec(ctx, `UPDATE stock_adjustments SET status = ?, decided_by = ?, decided_at = ?
		WHERE business_id = ? AND id = ? AND status = ?`,
		a.Status, a.DecidedBy, r.nullTS(a.DecidedAt), a.BusinessID, a.ID, from)
	if err != nil {
		return false, fmt.Errorf("decide adjustment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("decide adjustment: %w", err)
	}
	return n == 1, nil
}

// List lista ajustes del negocio, más recientes primero.
func (r *AdjustmentRepo) List(ctx context.Context, f repository.AdjustmentFilter) ([]*entity.Adjustment, error) {
	query := `SELECT ` + adjustmentColumns + ` FROM stock_adjustments WHERE business_id = ?`
	args := []any{f.BusinessID}
	if f.ProductID != "" {
		query += ` AND product_id = ?`
		args = append(args, f.ProductID)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	query += ` ORDER BY created_at DESC, id`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d OFFSET %d`, f.Limit, max(f.Offset, 0))
	}
	var rows []adjustmentRow
	if err := r.sel(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}
	out := make([]*entity.Adjustment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.entity())
	}
	return out, nil
}

// SumCompletedForBatch suma los ajustes COMPLETED del lote por categoría.
func (r *AdjustmentRepo) SumCompletedForBatch(ctx context.Context, businessID, batchID string) (int64, int64, error) {
	var t categoryTotals
	err := r.get(ctx, &t, `SELECT `+categorySums+` FROM stock_adjustments
		WHERE business_id = ? AND target_kind = ? AND batch_id = ? AND status = ?`,
		businessID, entity.TargetBatch, batchID, entity.AdjustmentCompleted)
	if err != nil {
		return 0, 0, fmt.Errorf("sum batch adjustments: %w", err)
	}
	return t.Shrinkage, t.Corrections, nil
}

// SumCompletedForAllocation suma los ajustes COMPLETED de la asignación por categoría.
func (r *AdjustmentRepo) SumCompletedForAllocation(ctx context.Context, businessID, productID, storefrontID string) (int64, int64, error) {
	var t categoryTotals
	err := r.get(ctx, &t, `SELECT `+categorySums+` FROM stock_adjustments
		WHERE business_id = ? AND target_kind = ? AND product_id = ? AND storefront_id = ? AND status = ?`,
		businessID, entity.TargetAllocation, productID, storefrontID, entity.AdjustmentCompleted)
	if err != nil {
		return 0, 0, fmt.Errorf("sum allocation adjustments: %w", err)
	}
	return t.Shrinkage, t.Corrections, nil
}
