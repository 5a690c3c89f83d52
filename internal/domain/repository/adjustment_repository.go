package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// AdjustmentFilter filtro de listado de ajustes.
type AdjustmentFilter struct {
	BusinessID string
	ProductID  string
	Status     string
	Limit      int
	Offset     int
}

// AdjustmentRepository puerto de persistencia de ajustes.
type AdjustmentRepository interface {
	Create(ctx context.Context, a *entity.Adjustment) error
	GetByID(ctx context.Context, businessID, id string) (*entity.Adjustment, error)
	// Decide guarda estado, decisor y fecha solo si el ajuste sigue en from.
	Decide(ctx context.Context, a *entity.Adjustment, from string) (bool, error)
	List(ctx context.Context, f AdjustmentFilter) ([]*entity.Adjustment, error)
	// SumCompletedForBatch suma ajustes COMPLETED de un lote por categoría (merma en valor absoluto).
	SumCompletedForBatch(ctx context.Context, businessID, batchID string) (shrinkage, corrections int64, err error)
	// SumCompletedForAllocation igual que SumCompletedForBatch para la asignación (producto, tienda).
	SumCompletedForAllocation(ctx context.Context, businessID, productID, storefrontID string) (shrinkage, corrections int64, err error)
}
