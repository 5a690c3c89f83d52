package sqlstore

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo ítems de venta (inmutables) y pagos.
type SaleRepo struct{ base }

type saleItemRow struct {
	ID            string `db:"id"`
	BusinessID    string `db:"business_id"`
	ProductID     string `db:"product_id"`
	StorefrontID  string `db:"storefront_id"`
	Quantity      int64  `db:"quantity"`
	BatchID       string `db:"batch_id"`
	SaleID        string `db:"sale_id"`
	ReservationID string `db:"reservation_id"`
	CreatedBy     string `db:"created_by"`
	CreatedAt     dbTime `db:"created_at"`
}

func (r saleItemRow) entity() *entity.SaleItem {
	return &entity.SaleItem{
		ID:            r.ID,
		BusinessID:    r.BusinessID,
		ProductID:     r.ProductID,
		StorefrontID:  r.StorefrontID,
		Quantity:      r.Quantity,
		BatchID:       r.BatchID,
		SaleID:        r.SaleID,
		ReservationID: r.ReservationID,
		CreatedBy:     r.CreatedBy,
		CreatedAt:     r.CreatedAt.Time,
	}
}

const saleItemColumns = `id, business_id, product_id, storefront_id, quantity, batch_id, sale_id, reservation_id, created_by, created_at`

// CreateItem inserta un ítem de venta.
func (r *SaleRepo) CreateItem(ctx context.Context, item *entity.SaleItem) error {
	_, err := r.exec(ctx, `
		INSERT INTO stock_sale_items (`+saleItemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.BusinessID, item.ProductID, item.StorefrontID, item.Quantity, item.BatchID, item.SaleID,
		item.ReservationID, item.CreatedBy, r.ts(item.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert sale item: %w", err)
	}
	return nil
}

// GetItem obtiene un ítem de venta del negocio.
func (r *SaleRepo) GetItem(ctx context.Context, businessID, id string) (*entity.SaleItem, error) {
	var row saleItemRow
	err := r.get(ctx, &row, `SELECT `+saleItemColumns+` FROM stock_sale_items WHERE business_id = ? AND id = ?`, businessID, id)
	if err != nil {
		return nil, notFound("sale item", id, err)
	}
	return row.entity(), nil
}

// ListItemsBySale lista los ítems de una venta.
func (r *SaleRepo) ListItemsBySale(ctx context.Context, businessID, saleID string) ([]*entity.SaleItem, error) {
	var rows []saleItemRow
	err := r.sel(ctx, &rows, `SELECT `+saleItemColumns+` FROM stock_sale_items
		WHERE business_id = ? AND sale_id = ? ORDER BY created_at, id`, businessID, saleID)
	if err != nil {
		return nil, fmt.Errorf("list sale items: %w", err)
	}
	out := make([]*entity.SaleItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.entity())
	}
	return out, nil
}

// ItemForReservation ítem de venta de la reserva, nil si no existe.
func (r *SaleRepo) ItemForReservation(ctx context.Context, businessID, reservationID string) (*entity.SaleItem, error) {
	var row saleItemRow
	err := r.get(ctx, &row, `SELECT `+saleItemColumns+` FROM stock_sale_items
		WHERE business_id = ? AND reservation_id = ?`, businessID, reservationID)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sale item for reservation: %w", err)
	}
	return row.entity(), nil
}

// SumSold suma lo vendido de (producto, tienda).
func (r *SaleRepo) SumSold(ctx context.Context, businessID, productID, storefrontID string) (int64, error) {
	var sum int64
	err := r.get(ctx, &sum, `SELECT CAST(COALESCE(SUM(quantity), 0) AS BIGINT) FROM stock_sale_items
		WHERE business_id = ? AND product_id = ? AND storefront_id = ?`, businessID, productID, storefrontID)
	if err != nil {
		return 0, fmt.Errorf("sum sold: %w", err)
	}
	return sum, nil
}

// RecordPayment registra (o reemplaza) el estado de pago de la venta.
func (r *SaleRepo) RecordPayment(ctx context.Context, p *entity.SalePayment) error {
	_, err := r.exec(ctx, `
		INSERT INTO stock_sale_payments (business_id, sale_id, payment_ref, payment_status, recorded_by, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (business_id, sale_id)
		DO UPDATE SET payment_ref = excluded.payment_ref, payment_status = excluded.payment_status,
			recorded_by = excluded.recorded_by, recorded_at = excluded.recorded_at`,
		p.BusinessID, p.SaleID, p.PaymentRef, p.PaymentStatus, p.RecordedBy, r.ts(p.RecordedAt))
	if err != nil {
		return fmt.Errorf("record payment: %w", err)
	}
	return nil
}

// SumReturned suma las devoluciones no rechazadas que referencian el ítem.
func (r *SaleRepo) SumReturned(ctx context.Context, businessID, saleItemID string) (int64, error) {
	var sum int64
	err := r.get(ctx, &sum, `SELECT CAST(COALESCE(SUM(quantity), 0) AS BIGINT) FROM stock_adjustments
		WHERE business_id = ? AND sale_item_id = ? AND type = ? AND status <> ?`,
		businessID, saleItemID, string(entity.AdjustmentCustomerReturn), entity.AdjustmentRejected)
	if err != nil {
		return 0, fmt.Errorf("sum returned: %w", err)
	}
	return sum, nil
}
