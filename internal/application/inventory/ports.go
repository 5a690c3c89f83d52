package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// Repos repositorios atados a una misma transacción de BD.
type Repos struct {
	Batches      repository.BatchRepository
	Allocations  repository.AllocationRepository
	Reservations repository.ReservationRepository
	Adjustments  repository.AdjustmentRepository
	Transfers    repository.TransferRepository
	Sales        repository.SaleRepository
	Audit        repository.AuditRepository
	Ledger       repository.LedgerReader
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de stock: todo se aplica o nada.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repos) error) error
	// RunReadOnly abre una transacción de solo lectura (instantánea consistente).
	RunReadOnly(ctx context.Context, fn func(r Repos) error) error
}

// EventPublisher publica hechos del libro después del commit.
type EventPublisher interface {
	Publish(ctx context.Context, events ...entity.LedgerEvent) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, ...entity.LedgerEvent) error { return nil }
