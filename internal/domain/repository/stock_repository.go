package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// BatchRepository puerto de persistencia de lotes (ingresos de bodega). Solo inserta; nunca actualiza.
type BatchRepository interface {
	Create(ctx context.Context, batch *entity.Batch) error
	GetByID(ctx context.Context, businessID, id string) (*entity.Batch, error)
	// GetForUpdate bloquea la fila del lote (SELECT FOR UPDATE) para serializar movimientos sobre él.
	GetForUpdate(ctx context.Context, businessID, id string) (*entity.Batch, error)
	ListByProduct(ctx context.Context, businessID, productID, warehouseID string) ([]*entity.Batch, error)
}

// AllocationRepository puerto del contador por (producto, tienda).
// Usado dentro de transacciones para garantizar consistencia.
type AllocationRepository interface {
	Get(ctx context.Context, businessID, productID, storefrontID string) (*entity.Allocation, error)
	// GetForUpdate crea la fila en cero si no existe y la bloquea (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, businessID, productID, storefrontID string) (*entity.Allocation, error)
	Upsert(ctx context.Context, allocation *entity.Allocation) error
	ListByProduct(ctx context.Context, businessID, productID string) ([]*entity.Allocation, error)
}
