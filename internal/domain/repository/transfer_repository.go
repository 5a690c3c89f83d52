package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// TransferRepository puerto de persistencia de solicitudes de traslado y sus movimientos.
type TransferRepository interface {
	Create(ctx context.Context, req *entity.TransferRequest) error
	GetByID(ctx context.Context, businessID, id string) (*entity.TransferRequest, error)
	// GetForUpdate bloquea la solicitud para serializar assign/fulfill/cancel/override.
	GetForUpdate(ctx context.Context, businessID, id string) (*entity.TransferRequest, error)
	UpdateStatus(ctx context.Context, req *entity.TransferRequest) error
	UpdateLine(ctx context.Context, requestID string, line entity.TransferLine) error
	AddMovement(ctx context.Context, m *entity.TransferMovement) error
	ListMovements(ctx context.Context, businessID, requestID string) ([]*entity.TransferMovement, error)
	// SumTransferredFromBatch neto trasladado desde un lote (reversas incluidas).
	SumTransferredFromBatch(ctx context.Context, businessID, batchID string) (int64, error)
	// LatestSourceBatch último lote trasladado a la tienda para el producto ("" si ninguno).
	LatestSourceBatch(ctx context.Context, businessID, productID, storefrontID string) (string, error)
}
