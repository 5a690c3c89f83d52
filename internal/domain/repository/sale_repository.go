package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// SaleRepository puerto de ítems de venta (append-only) y estado de pago.
type SaleRepository interface {
	CreateItem(ctx context.Context, item *entity.SaleItem) error
	GetItem(ctx context.Context, businessID, id string) (*entity.SaleItem, error)
	ListItemsBySale(ctx context.Context, businessID, saleID string) ([]*entity.SaleItem, error)
	// ItemForReservation ítem de venta generado por la reserva; nil si aún no se vendió.
	ItemForReservation(ctx context.Context, businessID, reservationID string) (*entity.SaleItem, error)
	// SumSold suma lo vendido de (producto, tienda).
	SumSold(ctx context.Context, businessID, productID, storefrontID string) (int64, error)
	RecordPayment(ctx context.Context, p *entity.SalePayment) error
	// SumReturned suma ajustes CUSTOMER_RETURN no rechazados que referencian el ítem.
	SumReturned(ctx context.Context, businessID, saleItemID string) (int64, error)
}
