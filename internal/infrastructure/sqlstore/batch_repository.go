package sqlstore

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var (
	_ repository.BatchRepository      = (*BatchRepo)(nil)
	_ repository.AllocationRepository = (*AllocationRepo)(nil)
)

// BatchRepo lotes de bodega (solo inserción).
type BatchRepo struct{ base }

type batchRow struct {
	ID             string          `db:"id"`
	BusinessID     string          `db:"business_id"`
	ProductID      string          `db:"product_id"`
	WarehouseID    string          `db:"warehouse_id"`
	IntakeQuantity int64           `db:"intake_quantity"`
	UnitCost       decimal.Decimal `db:"unit_cost"`
	Reference      string          `db:"reference"`
	CreatedBy      string          `db:"created_by"`
	CreatedAt      dbTime          `db:"created_at"`
}

func (r batchRow) entity() *entity.Batch {
	return &entity.Batch{
		ID:             r.ID,
		BusinessID:     r.BusinessID,
		ProductID:      r.ProductID,
		WarehouseID:    r.WarehouseID,
		IntakeQuantity: r.IntakeQuantity,
		UnitCost:       r.UnitCost,
		Reference:      r.Reference,
		CreatedBy:      r.CreatedBy,
		CreatedAt:      r.CreatedAt.Time,
	}
}

const batchColumns = `id, business_id, product_id, warehouse_id, intake_quantity, unit_cost, reference, created_by, created_at`

// Create inserta el lote.
func (r *BatchRepo) Create(ctx context.Context, b *entity.Batch) error {
	_, err := r.exec(ctx, `
		INSERT INTO stock_batches (`+batchColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.BusinessID, b.ProductID, b.WarehouseID, b.IntakeQuantity, b.UnitCost, b.Reference, b.CreatedBy, r.ts(b.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// GetByID obtiene un lote del negocio.
func (r *BatchRepo) GetByID(ctx context.Context, businessID, id string) (*entity.Batch, error) {
	var row batchRow
	err := r.get(ctx, &row, `SELECT `+batchColumns+` FROM stock_batches WHERE business_id = ? AND id = ?`, businessID, id)
	if err != nil {
		return nil, notFound("batch", id, err)
	}
	return row.entity(), nil
}

// GetForUpdate obtiene el lote y bloquea la fila (SELECT FOR UPDATE).
func (r *BatchRepo) GetForUpdate(ctx context.Context, businessID, id string) (*entity.Batch, error) {
	var row batchRow
	err := r.get(ctx, &row, `SELECT `+batchColumns+` FROM stock_batches WHERE business_id = ? AND id = ?`+r.d.LockClause, businessID, id)
	if err != nil {
		return nil, notFound("batch", id, err)
	}
	return row.entity(), nil
}

// ListByProduct lista lotes de un producto; warehouseID vacío = todas las bodegas.
func (r *BatchRepo) ListByProduct(ctx context.Context, businessID, productID, warehouseID string) ([]*entity.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM stock_batches WHERE business_id = ? AND product_id = ?`
	args := []any{businessID, productID}
	if warehouseID != "" {
		query += ` AND warehouse_id = ?`
		args = append(args, warehouseID)
	}
	query += ` ORDER BY created_at, id`
	var rows []batchRow
	if err := r.sel(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	out := make([]*entity.Batch, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.entity())
	}
	return out, nil
}

// AllocationRepo contador por (producto, tienda).
type AllocationRepo struct{ base }

type allocationRow struct {
	BusinessID   string `db:"business_id"`
	ProductID    string `db:"product_id"`
	StorefrontID string `db:"storefront_id"`
	Quantity     int64  `db:"quantity"`
	UpdatedAt    dbTime `db:"updated_at"`
}

func (r allocationRow) entity() *entity.Allocation {
	return &entity.Allocation{
		BusinessID:   r.BusinessID,
		ProductID:    r.ProductID,
		StorefrontID: r.StorefrontID,
		Quantity:     r.Quantity,
		UpdatedAt:    r.UpdatedAt.Time,
	}
}

const allocationColumns = `business_id, product_id, storefront_id, quantity, updated_at`

// Get obtiene la asignación actual; si no existe devuelve una en cero (sin crearla).
func (r *AllocationRepo) Get(ctx context.Context, businessID, productID, storefrontID string) (*entity.Allocation, error) {
	var row allocationRow
	err := r.get(ctx, &row, `SELECT `+allocationColumns+` FROM stock_allocations
		WHERE business_id = ? AND product_id = ? AND storefront_id = ?`, businessID, productID, storefrontID)
	if err != nil {
		if isNoRows(err) {
			return &entity.Allocation{BusinessID: businessID, ProductID: productID, StorefrontID: storefrontID}, nil
		}
		return nil, fmt.Errorf("get allocation: %w", err)
	}
	return row.entity(), nil
}

// GetForUpdate crea la fila en cero si falta y la bloquea, para que siempre haya algo que bloquear.
func (r *AllocationRepo) GetForUpdate(ctx context.Context, businessID, productID, storefrontID string) (*entity.Allocation, error) {
	_, err := r.exec(ctx, `
		INSERT INTO stock_allocations (`+allocationColumns+`)
		VALUES (?, ?, ?, 0, ?)
		ON CONFLICT (business_id, product_id, storefront_id) DO NOTHING`,
		businessID, productID, storefrontID, r.ts(timeNow()))
	if err != nil {
		return nil, fmt.Errorf("ensure allocation: %w", err)
	}
	var row allocationRow
	err = r.get(ctx, &row, `SELECT `+allocationColumns+` FROM stock_allocations
		WHERE business_id = ? AND product_id = ? AND storefront_id = ?`+r.d.LockClause, businessID, productID, storefrontID)
	if err != nil {
		return nil, fmt.Errorf("get allocation for update: %w", err)
	}
	return row.entity(), nil
}

// Upsert inserta o actualiza la cantidad asignada.
func (r *AllocationRepo) Upsert(ctx context.Context, a *entity.Allocation) error {
	_, err := r.exec(ctx, `
		INSERT INTO stock_allocations (`+allocationColumns+`)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (business_id, product_id, storefront_id)
		DO UPDATE SET quantity = excluded.quantity, updated_at = excluded.updated_at`,
		a.BusinessID, a.ProductID, a.StorefrontID, a.Quantity, r.ts(a.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert allocation: %w", err)
	}
	return nil
}

// ListByProduct lista las asignaciones del producto en todas las tiendas.
func (r *AllocationRepo) ListByProduct(ctx context.Context, businessID, productID string) ([]*entity.Allocation, error) {
	var rows []allocationRow
	err := r.sel(ctx, &rows, `SELECT `+allocationColumns+` FROM stock_allocations
		WHERE business_id = ? AND product_id = ? ORDER BY storefront_id`, businessID, productID)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	out := make([]*entity.Allocation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.entity())
	}
	return out, nil
}
