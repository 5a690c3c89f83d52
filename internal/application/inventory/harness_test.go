package inventory_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/sqlite"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/sqlstore"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

const (
	business   = "biz-1"
	product    = "prod-1"
	warehouse  = "wh-1"
	storefront = "store-1"
)

var (
	admin  = entity.Actor{BusinessID: business, UserID: "u-admin", Role: entity.RoleAdmin}
	keeper = entity.Actor{BusinessID: business, UserID: "u-bodega", Role: entity.RoleBodeguero}
	clerk  = entity.Actor{BusinessID: business, UserID: "u-caja", Role: entity.RoleVendedor}
)

// fakeClock reloj manual compartido por los casos de uso.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recorder publicador en memoria.
type recorder struct {
	mu     sync.Mutex
	events []entity.LedgerEvent
}

func (r *recorder) Publish(_ context.Context, events ...entity.LedgerEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type harness struct {
	store        *sqlstore.Store
	clock        *fakeClock
	events       *recorder
	batches      *inventory.BatchUseCase
	reservations *inventory.ReservationManager
	adjustments  *inventory.AdjustmentLedger
	transfers    *inventory.TransferWorkflow
	sales        *inventory.SaleCompletionUseCase
	recon        *inventory.ReconciliationCalculator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	store := sqlstore.New(db, sqlite.Dialect(), 3, logger.Nop())
	t.Cleanup(func() { _ = store.Close() })

	h := &harness{
		store:  store,
		clock:  &fakeClock{now: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)},
		events: &recorder{},
	}
	opts := inventory.Options{
		Events:         h.events,
		Log:            logger.Nop(),
		Now:            h.clock.Now,
		ReservationTTL: 15 * time.Minute,
		MaxTTL:         2 * time.Hour,
	}
	h.batches = inventory.NewBatchUseCase(store, opts)
	h.reservations = inventory.NewReservationManager(store, opts)
	h.adjustments = inventory.NewAdjustmentLedger(store, opts)
	h.transfers = inventory.NewTransferWorkflow(store, opts)
	h.sales = inventory.NewSaleCompletionUseCase(store, h.reservations, h.adjustments, opts)
	h.recon = inventory.NewReconciliationCalculator(store, opts)
	return h
}

// intake registra un lote del producto de prueba.
func (h *harness) intake(t *testing.T, qty int64) *entity.Batch {
	t.Helper()
	b, err := h.batches.RegisterIntake(context.Background(), keeper, inventory.IntakeInput{
		ProductID:   product,
		WarehouseID: warehouse,
		Quantity:    qty,
		UnitCost:    decimal.RequireFromString("1000"),
		Reference:   "REM-001",
	})
	require.NoError(t, err)
	return b
}

// assignedTransfer crea y asigna una solicitud de qty unidades del producto de prueba.
func (h *harness) assignedTransfer(t *testing.T, qty int64) *entity.TransferRequest {
	t.Helper()
	ctx := context.Background()
	req, err := h.transfers.Create(ctx, clerk, inventory.TransferInput{
		StorefrontID: storefront,
		Lines:        []inventory.TransferLineInput{{ProductID: product, Quantity: qty}},
	})
	require.NoError(t, err)
	req, err = h.transfers.Assign(ctx, keeper, req.ID, "")
	require.NoError(t, err)
	return req
}

// stock deja qty unidades en la tienda: ingreso + traslado completo. Devuelve el lote.
func (h *harness) stock(t *testing.T, qty int64) *entity.Batch {
	t.Helper()
	b := h.intake(t, qty)
	req := h.assignedTransfer(t, qty)
	req, err := h.transfers.Fulfill(context.Background(), keeper, req.ID, []entity.FulfillItem{
		{ProductID: product, BatchID: b.ID, Quantity: qty},
	})
	require.NoError(t, err)
	require.Equal(t, entity.TransferFulfilled, req.Status)
	return b
}

func (h *harness) allocation(t *testing.T) *entity.Allocation {
	t.Helper()
	var a *entity.Allocation
	err := h.store.RunReadOnly(context.Background(), func(r inventory.Repos) error {
		var err error
		a, err = r.Allocations.Get(context.Background(), business, product, storefront)
		return err
	})
	require.NoError(t, err)
	return a
}

func (h *harness) reserved(t *testing.T) int64 {
	t.Helper()
	var sum int64
	err := h.store.RunReadOnly(context.Background(), func(r inventory.Repos) error {
		var err error
		sum, err = r.Reservations.SumActive(context.Background(), business, product, storefront)
		return err
	})
	require.NoError(t, err)
	return sum
}

func (h *harness) reservation(t *testing.T, id string) *entity.Reservation {
	t.Helper()
	var res *entity.Reservation
	err := h.store.RunReadOnly(context.Background(), func(r inventory.Repos) error {
		var err error
		res, err = r.Reservations.GetByID(context.Background(), business, id)
		return err
	})
	require.NoError(t, err)
	return res
}

func (h *harness) acquire(t *testing.T, qty int64, cart string) *entity.Reservation {
	t.Helper()
	res, err := h.reservations.Acquire(context.Background(), clerk, inventory.AcquireInput{
		ProductID: product, StorefrontID: storefront, Quantity: qty, CartRef: cart,
	})
	require.NoError(t, err)
	return res
}

// pair producto y tienda arbitrarios, para escenarios con más de una asignación en juego.
type pair struct{ product, storefront string }

var home = pair{product: product, storefront: storefront}

// stockPair ingresa qty del producto del par y lo traslada completo a su tienda.
func (h *harness) stockPair(t *testing.T, p pair, qty int64) {
	t.Helper()
	ctx := context.Background()
	b, err := h.batches.RegisterIntake(ctx, keeper, inventory.IntakeInput{
		ProductID: p.product, WarehouseID: warehouse, Quantity: qty, UnitCost: decimal.RequireFromString("1000"),
	})
	require.NoError(t, err)
	req, err := h.transfers.Create(ctx, clerk, inventory.TransferInput{
		StorefrontID: p.storefront,
		Lines:        []inventory.TransferLineInput{{ProductID: p.product, Quantity: qty}},
	})
	require.NoError(t, err)
	_, err = h.transfers.Assign(ctx, keeper, req.ID, "")
	require.NoError(t, err)
	_, err = h.transfers.Fulfill(ctx, keeper, req.ID, []entity.FulfillItem{{ProductID: p.product, BatchID: b.ID, Quantity: qty}})
	require.NoError(t, err)
}

// holding asignación y reservado activo del par en una misma lectura.
func (h *harness) holding(t *testing.T, p pair) (allocated, reserved int64) {
	t.Helper()
	err := h.store.RunReadOnly(context.Background(), func(r inventory.Repos) error {
		a, err := r.Allocations.Get(context.Background(), business, p.product, p.storefront)
		if err != nil {
			return err
		}
		allocated = a.Quantity
		reserved, err = r.Reservations.SumActive(context.Background(), business, p.product, p.storefront)
		return err
	})
	require.NoError(t, err)
	return allocated, reserved
}

// count eventos de un tipo.
func (r *recorder) count(eventType string) int {
	n := 0
	for _, ty := range r.types() {
		if ty == eventType {
			n++
		}
	}
	return n
}
