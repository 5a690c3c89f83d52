package inventory_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ── Flujos de punta a punta ──────────────────────────────────────────────────

func TestFlujo_TrasladoYVentaSinDelta(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	batch := h.stock(t, 40)

	res := h.acquire(t, 10, "cart-1")
	sale, err := h.sales.Complete(ctx, clerk, inventory.CompleteSaleInput{
		SaleID: "sale-1", PaymentRef: "pay-1", PaymentStatus: "PAID", ReservationIDs: []string{res.ID},
	})
	require.NoError(t, err)
	require.Len(t, sale.Items, 1)
	assert.Equal(t, batch.ID, sale.Items[0].BatchID, "procedencia: último lote que surtió la tienda")
	assert.Equal(t, res.ID, sale.Items[0].ReservationID)

	rec, err := h.recon.Compute(ctx, admin, product, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(40), rec.Intake)
	assert.Equal(t, int64(0), rec.WarehouseOnHand)
	assert.Equal(t, int64(30), rec.StorefrontOnHand)
	assert.Equal(t, int64(10), rec.Sold)
	assert.Equal(t, int64(0), rec.Delta)
	assert.False(t, rec.Mismatch)
	assert.Equal(t, h.clock.Now(), rec.AsOf)
}

func TestFlujo_MermaSobreAsignacion(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.stock(t, 44)

	adj, err := h.adjustments.Create(ctx, clerk, inventory.AdjustmentInput{
		Target: entity.AdjustmentTarget{Kind: entity.TargetAllocation, ProductID: product, StorefrontID: storefront},
		Type:   entity.AdjustmentDamage, Quantity: -4, Reason: "empaques rotos",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentPending, adj.Status)
	assert.Equal(t, int64(44), adj.QuantityBefore)
	assert.Equal(t, int64(44), h.allocation(t).Quantity, "un ajuste PENDING no mueve stock")

	out, err := h.adjustments.Approve(ctx, admin, adj.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentCompleted, out.Adjustment.Status)
	assert.Equal(t, int64(-4), out.AppliedDelta)
	assert.Equal(t, int64(40), out.OnHandAfter)
	assert.Equal(t, int64(40), h.allocation(t).Quantity)
}

func TestFlujo_ReservaVencidaSeLibera(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.stock(t, 20)

	res, err := h.reservations.Acquire(ctx, clerk, inventory.AcquireInput{
		ProductID: product, StorefrontID: storefront, Quantity: 5, CartRef: "cart-1", TTL: 10 * time.Minute,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), h.reserved(t))

	h.clock.Advance(11 * time.Minute)
	sweeper := inventory.NewSweeper(h.reservations, time.Minute, 100, nil)
	assert.Equal(t, 1, sweeper.RunOnce(ctx))
	assert.Equal(t, 0, sweeper.RunOnce(ctx), "el segundo barrido no encuentra nada")

	assert.Equal(t, entity.ReservationReleased, h.reservation(t, res.ID).Status)
	assert.Zero(t, h.reserved(t))
	assert.Equal(t, int64(20), h.allocation(t).Quantity, "la reserva nunca descontó la asignación")

	rec, err := h.recon.Compute(ctx, admin, product, "", "")
	require.NoError(t, err)
	assert.Zero(t, rec.ActiveReservations)
	assert.Contains(t, h.events.types(), entity.EventReservationExpired)
}

func TestFlujo_SobreventaBloqueada(t *testing.T) {
	h := newHarness(t)
	h.stock(t, 20)

	_, err := h.reservations.Acquire(context.Background(), clerk, inventory.AcquireInput{
		ProductID: product, StorefrontID: storefront, Quantity: 25, CartRef: "cart-1",
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var ins *domain.InsufficientStockError
	require.True(t, errors.As(err, &ins))
	assert.Equal(t, int64(20), ins.Breakdown.Available)
	assert.Equal(t, int64(25), ins.Breakdown.Requested)
	assert.Equal(t, int64(20), h.allocation(t).Quantity)
	assert.Zero(t, h.reserved(t))
}

func TestFlujo_CorreccionDeLoteQuedaExplicada(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	batch := h.stock(t, 40)

	adj, err := h.adjustments.Create(ctx, keeper, inventory.AdjustmentInput{
		Target: entity.AdjustmentTarget{Kind: entity.TargetBatch, BatchID: batch.ID},
		Type:   entity.AdjustmentFound, Quantity: 6, Reason: "conteo físico",
	})
	require.NoError(t, err)
	assert.Equal(t, product, adj.Target.ProductID, "el producto sale del lote")
	_, err = h.adjustments.Approve(ctx, admin, adj.ID)
	require.NoError(t, err)

	stock, err := h.batches.OnHand(ctx, keeper, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), stock.OnHand)

	rec, err := h.recon.Compute(ctx, admin, product, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(6), rec.WarehouseOnHand)
	assert.Equal(t, int64(6), rec.Corrections)
	assert.Zero(t, rec.Delta, "una corrección registrada queda explicada por el libro")
}

func TestFlujo_ConciliacionReportaDiferencia(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.stock(t, 40)

	// Cambio fuera del libro: la asignación sube sin movimiento que lo explique.
	_, err := h.store.DB().ExecContext(ctx, `UPDATE stock_allocations SET quantity = quantity + 8`)
	require.NoError(t, err)

	rec, err := h.recon.Compute(ctx, admin, product, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(48), rec.StorefrontOnHand)
	assert.Equal(t, int64(8), rec.Delta)
	assert.True(t, rec.Mismatch)
	assert.Equal(t, int64(48), h.allocation(t).Quantity, "la conciliación reporta, no corrige")

	again, err := h.recon.Compute(ctx, admin, product, "", "")
	require.NoError(t, err)
	assert.Equal(t, rec.Delta, again.Delta)
}

func TestConciliacion_AlcancePorLote(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	first := h.stock(t, 10)
	second := h.stock(t, 5)
	pending := h.intake(t, 3)
	require.Equal(t, int64(15), h.allocation(t).Quantity)

	// La asignación de tienda es del producto completo: con alcance se informa pero no cuenta.
	rec, err := h.recon.Compute(ctx, admin, product, second.ID, "")
	require.NoError(t, err)
	assert.Equal(t, second.ID, rec.Scope.BatchID)
	assert.Equal(t, int64(5), rec.Intake)
	assert.Equal(t, int64(5), rec.Transferred)
	assert.Zero(t, rec.WarehouseOnHand)
	assert.Equal(t, int64(15), rec.StorefrontOnHand)
	assert.False(t, rec.StorefrontAttributed)
	assert.Zero(t, rec.Delta, "un libro limpio no tiene diferencia por lote")
	assert.False(t, rec.Mismatch)

	rec, err = h.recon.Compute(ctx, admin, product, first.ID, warehouse)
	require.NoError(t, err)
	assert.Equal(t, int64(10), rec.Intake)
	assert.Equal(t, int64(10), rec.Transferred)
	assert.Zero(t, rec.Delta)

	rec, err = h.recon.Compute(ctx, admin, product, pending.ID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec.WarehouseOnHand)
	assert.Zero(t, rec.Delta)

	rec, err = h.recon.Compute(ctx, admin, product, "", warehouse)
	require.NoError(t, err)
	assert.Equal(t, int64(18), rec.Intake)
	assert.Zero(t, rec.Delta)

	rec, err = h.recon.Compute(ctx, admin, product, "", "")
	require.NoError(t, err)
	assert.True(t, rec.StorefrontAttributed)
	assert.Equal(t, int64(18), rec.Accounted)
	assert.Zero(t, rec.Delta)

	_, err = h.recon.Compute(ctx, admin, "", "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ── Concurrencia ─────────────────────────────────────────────────────────────

// Varias rondas con N aleatorio y dos asignaciones disputadas a la vez: el store sqlite usa una
// sola conexión, así que una sola ronda no basta para ver intercalados distintos.
func TestAcquire_ConcurrenteNoSobrevende(t *testing.T) {
	const rounds = 25
	other := pair{product: "prod-2", storefront: "store-2"}

	for round := range rounds {
		t.Run(fmt.Sprintf("ronda-%02d", round), func(t *testing.T) {
			h := newHarness(t)
			units := map[pair]int64{
				home:  int64(2 + rand.IntN(10)),
				other: int64(2 + rand.IntN(10)),
			}
			for p, qty := range units {
				h.stockPair(t, p, qty)
			}

			type outcome struct{ ok, short atomic.Int32 }
			results := map[pair]*outcome{home: {}, other: {}}

			g, ctx := errgroup.WithContext(context.Background())
			for p, qty := range units {
				contenders := int(qty) + 1 + rand.IntN(int(qty))
				for i := range contenders {
					cart := fmt.Sprintf("cart-%s-%d", p.storefront, i)
					g.Go(func() error {
						_, err := h.reservations.Acquire(ctx, clerk, inventory.AcquireInput{
							ProductID: p.product, StorefrontID: p.storefront, Quantity: 1, CartRef: cart,
						})
						switch {
						case err == nil:
							results[p].ok.Add(1)
						case errors.Is(err, domain.ErrInsufficientStock):
							results[p].short.Add(1)
						default:
							return err
						}
						return nil
					})
				}
			}
			require.NoError(t, g.Wait())

			for p, qty := range units {
				allocated, reserved := h.holding(t, p)
				assert.Equal(t, int32(qty), results[p].ok.Load(), "%s: cada unidad se reserva una vez", p.storefront)
				assert.Positive(t, results[p].short.Load(), "%s: los sobrantes se rechazan", p.storefront)
				assert.Equal(t, qty, reserved)
				assert.LessOrEqual(t, reserved, allocated, "reservado nunca excede la asignación")
			}
		})
	}
}

// Barrido doble y consumo sobre la misma reserva: exactamente una transición terminal.
func TestReserva_BarridoYConsumoConcurrentes(t *testing.T) {
	cases := []struct {
		name    string
		advance time.Duration
		final   string
		event   string
	}{
		{"vencida: gana la liberación", time.Hour, entity.ReservationReleased, entity.EventReservationExpired},
		{"vigente: gana el consumo", time.Minute, entity.ReservationConsumed, entity.EventReservationConsumed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for round := range 10 {
				h := newHarness(t)
				h.stock(t, 10)
				res := h.acquire(t, 4, fmt.Sprintf("cart-%d", round))
				h.clock.Advance(tc.advance)

				var swept atomic.Int32
				g, ctx := errgroup.WithContext(context.Background())
				for range 2 {
					g.Go(func() error {
						n, err := h.reservations.SweepExpired(ctx, h.clock.Now(), 0)
						swept.Add(int32(n))
						return err
					})
				}
				g.Go(func() error {
					_, err := h.reservations.Consume(ctx, clerk, res.ID, "sale-1")
					if errors.Is(err, domain.ErrReservationExpired) {
						return nil
					}
					return err
				})
				require.NoError(t, g.Wait(), "ronda %d", round)

				assert.Equal(t, tc.final, h.reservation(t, res.ID).Status)
				terminal := h.events.count(entity.EventReservationExpired) + h.events.count(entity.EventReservationConsumed)
				assert.Equal(t, 1, terminal, "ronda %d: una sola transición terminal", round)
				assert.Equal(t, 1, h.events.count(tc.event))

				allocated, reserved := h.holding(t, home)
				assert.Zero(t, reserved)
				if tc.final == entity.ReservationConsumed {
					assert.Zero(t, swept.Load())
					assert.Equal(t, int64(6), allocated)
				} else {
					assert.LessOrEqual(t, swept.Load(), int32(1))
					assert.Equal(t, int64(10), allocated, "liberar no toca la asignación")
				}
			}
		})
	}
}

// ── Aislamiento por negocio ──────────────────────────────────────────────────

func TestNegocio_NoVeDatosDeOtro(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	batch := h.intake(t, 10)

	other := entity.Actor{BusinessID: "biz-2", UserID: "u-x", Role: entity.RoleAdmin}
	_, err := h.batches.Get(ctx, other, batch.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = h.batches.Get(ctx, entity.Actor{UserID: "u-x"}, batch.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin negocio explícito no hay lectura")

	rec, err := h.recon.Compute(ctx, other, product, "", "")
	require.NoError(t, err)
	assert.Zero(t, rec.Intake)
}
