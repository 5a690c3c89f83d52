package sqlstore_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/sqlite"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/sqlstore"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

const biz = "biz-1"

func newStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	s := sqlstore.New(db, sqlite.Dialect(), 2, logger.Nop())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func seedBatch(t *testing.T, s *sqlstore.Store, id string, qty int64) {
	t.Helper()
	err := s.Run(context.Background(), func(r inventory.Repos) error {
		return r.Batches.Create(context.Background(), &entity.Batch{
			ID: id, BusinessID: biz, ProductID: "p1", WarehouseID: "w1",
			IntakeQuantity: qty, UnitCost: decimal.RequireFromString("2.50"),
			CreatedBy: "u1", CreatedAt: t0,
		})
	})
	require.NoError(t, err)
}

// ── Lotes y asignaciones ─────────────────────────────────────────────────────

func TestBatchRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seedBatch(t, s, "b1", 100)

	err := s.RunReadOnly(ctx, func(r inventory.Repos) error {
		b, err := r.Batches.GetByID(ctx, biz, "b1")
		require.NoError(t, err)
		assert.Equal(t, int64(100), b.IntakeQuantity)
		assert.True(t, b.UnitCost.Equal(decimal.RequireFromString("2.5")), "costo %s", b.UnitCost)
		assert.True(t, b.CreatedAt.Equal(t0))

		_, err = r.Batches.GetByID(ctx, "otro-negocio", "b1")
		assert.ErrorIs(t, err, domain.ErrNotFound, "un lote de otro negocio no existe para el llamador")
		return nil
	})
	require.NoError(t, err)
}

func TestAllocationGetForUpdateCreatesZeroRow(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	err := s.Run(ctx, func(r inventory.Repos) error {
		a, err := r.Allocations.Get(ctx, biz, "p1", "s1")
		require.NoError(t, err)
		assert.Zero(t, a.Quantity)

		a, err = r.Allocations.GetForUpdate(ctx, biz, "p1", "s1")
		require.NoError(t, err)
		assert.Zero(t, a.Quantity)
		a.Quantity = 7
		a.UpdatedAt = t0
		return r.Allocations.Upsert(ctx, a)
	})
	require.NoError(t, err)

	err = s.RunReadOnly(ctx, func(r inventory.Repos) error {
		list, err := r.Allocations.ListByProduct(ctx, biz, "p1")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, int64(7), list[0].Quantity)
		return nil
	})
	require.NoError(t, err)
}

func TestRunRollsBackOnError(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Run(ctx, func(r inventory.Repos) error {
		require.NoError(t, r.Batches.Create(ctx, &entity.Batch{
			ID: "b1", BusinessID: biz, ProductID: "p1", WarehouseID: "w1", IntakeQuantity: 5, CreatedBy: "u1", CreatedAt: t0,
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = s.RunReadOnly(ctx, func(r inventory.Repos) error {
		_, err := r.Batches.GetByID(ctx, biz, "b1")
		assert.ErrorIs(t, err, domain.ErrNotFound, "el lote no debe sobrevivir al rollback")
		return nil
	})
	require.NoError(t, err)
}

func TestRunRetriesConcurrentModification(t *testing.T) {
	s := newStore(t)
	attempts := 0
	err := s.Run(context.Background(), func(r inventory.Repos) error {
		attempts++
		if attempts < 3 {
			return &domain.ConcurrentModificationError{Op: "test"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	attempts = 0
	err = s.Run(context.Background(), func(r inventory.Repos) error {
		attempts++
		return &domain.ConcurrentModificationError{Op: "test"}
	})
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	assert.Equal(t, 3, attempts, "1 intento + 2 reintentos")
}

// ── Reservas ─────────────────────────────────────────────────────────────────

func TestReservationTransitionIsConditional(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	err := s.Run(ctx, func(r inventory.Repos) error {
		require.NoError(t, r.Reservations.Create(ctx, &entity.Reservation{
			ID: "r1", BusinessID: biz, ProductID: "p1", StorefrontID: "s1", Quantity: 2, CartRef: "c1",
			Status: entity.ReservationActive, ExpiresAt: t0.Add(time.Minute), CreatedAt: t0, UpdatedAt: t0, CreatedBy: "u1",
		}))
		sum, err := r.Reservations.SumActive(ctx, biz, "p1", "s1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), sum)

		expired, err := r.Reservations.ListExpired(ctx, repository.ExpiredFilter{Now: t0.Add(2 * time.Minute), Limit: 10})
		require.NoError(t, err)
		require.Len(t, expired, 1)

		ok, err := r.Reservations.Transition(ctx, biz, "r1", entity.ReservationActive, entity.ReservationReleased, t0)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = r.Reservations.Transition(ctx, biz, "r1", entity.ReservationActive, entity.ReservationConsumed, t0)
		require.NoError(t, err)
		assert.False(t, ok, "una reserva liberada no puede consumirse")

		sum, err = r.Reservations.SumActive(ctx, biz, "p1", "")
		require.NoError(t, err)
		assert.Zero(t, sum)
		return nil
	})
	require.NoError(t, err)
}

// ── Traslados y totales ──────────────────────────────────────────────────────

func TestLedgerTotals(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seedBatch(t, s, "b1", 100)
	seedBatch(t, s, "b2", 20)

	err := s.Run(ctx, func(r inventory.Repos) error {
		req := &entity.TransferRequest{
			ID: "t1", BusinessID: biz, StorefrontID: "s1", Status: entity.TransferAssigned, RequestedBy: "u1",
			Lines:     []entity.TransferLine{{LineNo: 1, ProductID: "p1", RequestedQuantity: 30}},
			CreatedAt: t0, UpdatedAt: t0,
		}
		require.NoError(t, r.Transfers.Create(ctx, req))
		require.NoError(t, r.Transfers.AddMovement(ctx, &entity.TransferMovement{
			ID: "m1", BusinessID: biz, RequestID: "t1", LineNo: 1, ProductID: "p1", BatchID: "b1",
			StorefrontID: "s1", Quantity: 30, CreatedBy: "u1", CreatedAt: t0,
		}))
		require.NoError(t, r.Allocations.Upsert(ctx, &entity.Allocation{
			BusinessID: biz, ProductID: "p1", StorefrontID: "s1", Quantity: 25, UpdatedAt: t0,
		}))
		require.NoError(t, r.Sales.CreateItem(ctx, &entity.SaleItem{
			ID: "si1", BusinessID: biz, ProductID: "p1", StorefrontID: "s1", Quantity: 5, BatchID: "b1",
			SaleID: "sale-1", CreatedBy: "u1", CreatedAt: t0,
		}))
		decided := t0
		return r.Adjustments.Create(ctx, &entity.Adjustment{
			ID: "a1", BusinessID: biz, Target: entity.AdjustmentTarget{Kind: entity.TargetBatch, BatchID: "b2", ProductID: "p1"},
			Type: entity.AdjustmentDamage, Quantity: -2, RequestedQuantity: 2, Reason: "rotura",
			Status: entity.AdjustmentCompleted, QuantityBefore: 20, CreatedBy: "u1", DecidedBy: "u2",
			CreatedAt: t0, DecidedAt: &decided,
		})
	})
	require.NoError(t, err)

	err = s.RunReadOnly(ctx, func(r inventory.Repos) error {
		batchID, err := r.Transfers.LatestSourceBatch(ctx, biz, "p1", "s1")
		require.NoError(t, err)
		assert.Equal(t, "b1", batchID)

		items, err := r.Sales.ListItemsBySale(ctx, biz, "sale-1")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "b1", items[0].BatchID)

		none, err := r.Sales.ItemForReservation(ctx, biz, "res-sin-venta")
		require.NoError(t, err)
		assert.Nil(t, none, "una reserva sin venta no tiene ítem")

		all, err := r.Ledger.Totals(ctx, entity.ReconciliationScope{BusinessID: biz, ProductID: "p1"})
		require.NoError(t, err)
		assert.Equal(t, int64(120), all.Intake)
		assert.True(t, all.IntakeValue.Equal(decimal.NewFromInt(300)), "valor %s", all.IntakeValue)
		assert.Equal(t, int64(30), all.Transferred)
		assert.Equal(t, int64(2), all.BatchShrinkage)
		assert.Equal(t, int64(25), all.StorefrontOnHand)
		assert.Equal(t, int64(5), all.Sold)

		scoped, err := r.Ledger.Totals(ctx, entity.ReconciliationScope{BusinessID: biz, ProductID: "p1", BatchID: "b2"})
		require.NoError(t, err)
		assert.Equal(t, int64(20), scoped.Intake)
		assert.Zero(t, scoped.Transferred)
		assert.Equal(t, int64(2), scoped.BatchShrinkage)
		assert.Zero(t, scoped.Sold, "lo vendido se acota por procedencia")
		return nil
	})
	require.NoError(t, err)
}

func TestAuditRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	err := s.Run(ctx, func(r inventory.Repos) error {
		require.NoError(t, r.Audit.Append(ctx, &entity.AuditEntry{
			ID: "e1", BusinessID: biz, EntityType: "batch", EntityID: "b1", Action: "received",
			ActorID: "u1", After: []byte(`{"intake_quantity":10}`), CreatedAt: t0,
		}))
		entries, err := r.Audit.ListByEntity(ctx, biz, "batch", "b1")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Nil(t, entries[0].Before)
		assert.JSONEq(t, `{"intake_quantity":10}`, string(entries[0].After))
		return nil
	})
	require.NoError(t, err)
}
