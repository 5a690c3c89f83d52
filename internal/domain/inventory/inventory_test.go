package inventory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Signo de ajustes
// ──────────────────────────────────────────────────────────────────────────────

func TestNormalizeQuantity_SignoDesdeCategoria(t *testing.T) {
	cases := []struct {
		typ  entity.AdjustmentType
		in   int64
		want int64
	}{
		{entity.AdjustmentDamage, -4, -4},
		{entity.AdjustmentDamage, 4, -4},
		{entity.AdjustmentTheft, 7, -7},
		{entity.AdjustmentExpiry, 1, -1},
		{entity.AdjustmentLoss, -2, -2},
		{entity.AdjustmentSpoilage, 3, -3},
		{entity.AdjustmentWriteOff, 9, -9},
		{entity.AdjustmentCountCorrection, -5, 5},
		{entity.AdjustmentCustomerReturn, 2, 2},
		{entity.AdjustmentFound, -1, 1},
	}
	for _, tc := range cases {
		t.Run(string(tc.typ), func(t *testing.T) {
			got, err := inventory.NormalizeQuantity(tc.typ, tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got, "el signo debe salir de la categoría, no del llamador")
		})
	}
}

func TestNormalizeQuantity_Invalidos(t *testing.T) {
	_, err := inventory.NormalizeQuantity(entity.AdjustmentDamage, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad cero no es un ajuste")

	_, err = inventory.NormalizeQuantity("SHRINK", 3)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "el enum de tipos es cerrado")
}

func TestAdjustmentTypesOf_Particion(t *testing.T) {
	shrink := entity.AdjustmentTypesOf(entity.CategoryShrinkage)
	restore := entity.AdjustmentTypesOf(entity.CategoryRestorative)
	assert.Len(t, shrink, 6)
	assert.Len(t, restore, 3)
	assert.Contains(t, restore, entity.AdjustmentCustomerReturn)
}

// ──────────────────────────────────────────────────────────────────────────────
// Máquinas de estado
// ──────────────────────────────────────────────────────────────────────────────

func TestCheckApproval(t *testing.T) {
	require.NoError(t, inventory.CheckApproval("a1", entity.AdjustmentPending))

	for _, from := range []string{entity.AdjustmentRejected, entity.AdjustmentCompleted, entity.AdjustmentApproved} {
		err := inventory.CheckApproval("a1", from)
		var ste *domain.StateTransitionError
		require.True(t, errors.As(err, &ste), "desde %s la aprobación debe fallar", from)
		assert.Equal(t, from, ste.From)
		assert.ErrorIs(t, err, domain.ErrStateTransition)
	}
}

func TestCheckAdjustment_RejectSoloDesdePending(t *testing.T) {
	assert.NoError(t, inventory.CheckAdjustment("a", entity.AdjustmentPending, entity.AdjustmentRejected))
	assert.Error(t, inventory.CheckAdjustment("a", entity.AdjustmentCompleted, entity.AdjustmentRejected))
	assert.Error(t, inventory.CheckAdjustment("a", entity.AdjustmentRejected, entity.AdjustmentRejected))
}

func TestCheckTransfer_Tabla(t *testing.T) {
	ok := [][2]string{
		{entity.TransferNew, entity.TransferAssigned},
		{entity.TransferNew, entity.TransferCancelled},
		{entity.TransferAssigned, entity.TransferFulfilled},
		{entity.TransferAssigned, entity.TransferCancelled},
	}
	for _, p := range ok {
		assert.NoError(t, inventory.CheckTransfer("t", p[0], p[1]), "%s -> %s", p[0], p[1])
	}
	bad := [][2]string{
		{entity.TransferNew, entity.TransferFulfilled},
		{entity.TransferFulfilled, entity.TransferCancelled},
		{entity.TransferCancelled, entity.TransferAssigned},
	}
	for _, p := range bad {
		assert.ErrorIs(t, inventory.CheckTransfer("t", p[0], p[1]), domain.ErrStateTransition, "%s -> %s", p[0], p[1])
	}
}

func TestCheckTransferOverride(t *testing.T) {
	assert.NoError(t, inventory.CheckTransferOverride("t", entity.TransferNew, entity.TransferFulfilled, false),
		"override puede saltarse pasos intermedios")
	assert.ErrorIs(t, inventory.CheckTransferOverride("t", entity.TransferFulfilled, entity.TransferAssigned, false),
		domain.ErrStateTransition, "salir de terminal sin bandera debe fallar")
	assert.NoError(t, inventory.CheckTransferOverride("t", entity.TransferCancelled, entity.TransferFulfilled, true))
	assert.ErrorIs(t, inventory.CheckTransferOverride("t", entity.TransferNew, "DONE", true), domain.ErrInvalidInput)
}

func TestCheckReservation(t *testing.T) {
	assert.NoError(t, inventory.CheckReservation("r", entity.ReservationActive, entity.ReservationConsumed))
	assert.ErrorIs(t, inventory.CheckReservation("r", entity.ReservationReleased, entity.ReservationConsumed), domain.ErrStateTransition)
}

// ──────────────────────────────────────────────────────────────────────────────
// Conciliación
// ──────────────────────────────────────────────────────────────────────────────

// Escenario con discrepancia: bodega 23, tienda 23, vendido 10, merma 18, correcciones 20,
// reservas 0, ingreso 46 -> línea base 38 y delta 8, reportado sin corregir.
func TestComponents_EscenarioConDiscrepancia(t *testing.T) {
	c := inventory.Components{
		Intake:             46,
		WarehouseOnHand:    23,
		StorefrontOnHand:   23,
		Sold:               10,
		Shrinkage:          18,
		Corrections:        20,
		ActiveReservations: 0,
	}
	assert.Equal(t, int64(38), c.Baseline())
	assert.Equal(t, int64(8), c.Delta())
}

func TestReconcile_FlujoLimpioSinDelta(t *testing.T) {
	asOf := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	totals := entity.LedgerTotals{
		Intake:             40,
		IntakeValue:        decimal.NewFromInt(400),
		Transferred:        40,
		StorefrontOnHand:   30,
		Sold:               10,
		ActiveReservations: 5,
	}
	r := inventory.Reconcile(entity.ReconciliationScope{BusinessID: "b", ProductID: "p"}, totals, asOf)

	assert.Equal(t, int64(0), r.WarehouseOnHand)
	assert.Equal(t, int64(30), r.StorefrontOnHand)
	assert.Equal(t, int64(10), r.Sold)
	assert.Equal(t, int64(0), r.Delta, "las reservas viven dentro de la asignación, no generan delta")
	assert.False(t, r.Mismatch)
	assert.Equal(t, asOf, r.AsOf)
	assert.True(t, decimal.NewFromInt(10).Equal(r.AvgUnitCost))
}

func TestReconcile_MermaDeLoteCuentaEnAmbosLados(t *testing.T) {
	totals := entity.LedgerTotals{
		Intake:           50,
		IntakeValue:      decimal.NewFromInt(1000),
		Transferred:      20,
		BatchShrinkage:   5,
		BatchCorrections: 1,
		StorefrontOnHand: 20,
	}
	r := inventory.Reconcile(entity.ReconciliationScope{}, totals, time.Now())
	assert.Equal(t, int64(26), r.WarehouseOnHand)
	assert.Equal(t, int64(5), r.Shrinkage)
	assert.Equal(t, int64(1), r.Corrections)
	assert.Equal(t, int64(0), r.Delta)
	assert.Equal(t, "100", r.ShrinkageValue.String())
}

func TestReconcile_DeltaValorizado(t *testing.T) {
	totals := entity.LedgerTotals{
		Intake:           10,
		IntakeValue:      decimal.RequireFromString("25.50"),
		Transferred:      10,
		StorefrontOnHand: 7,
	}
	r := inventory.Reconcile(entity.ReconciliationScope{}, totals, time.Now())
	assert.Equal(t, int64(-3), r.Delta, "tres unidades desaparecieron de la tienda sin registro")
	assert.True(t, r.Mismatch)
	assert.Equal(t, "2.55", r.AvgUnitCost.String())
	assert.Equal(t, "-7.65", r.DeltaValue.String())
}

// Dos lotes en la misma tienda: la asignación es del producto completo y no se reparte por lote.
func TestReconcile_AlcanceDeLoteNoCuentaTienda(t *testing.T) {
	scope := entity.ReconciliationScope{BusinessID: "b", ProductID: "p", BatchID: "lote-2"}
	totals := entity.LedgerTotals{
		Intake:           5,
		IntakeValue:      decimal.NewFromInt(50),
		Transferred:      5,
		StorefrontOnHand: 15,
		Sold:             0,
	}
	r := inventory.Reconcile(scope, totals, time.Now())
	assert.Equal(t, int64(15), r.StorefrontOnHand, "la tienda se informa igual")
	assert.False(t, r.StorefrontAttributed)
	assert.Equal(t, int64(5), r.Accounted)
	assert.Zero(t, r.Delta)
	assert.False(t, r.Mismatch)

	sinAlcance := inventory.Reconcile(entity.ReconciliationScope{BusinessID: "b", ProductID: "p"}, totals, time.Now())
	assert.True(t, sinAlcance.StorefrontAttributed)
	assert.Equal(t, int64(10), sinAlcance.Delta, "sin alcance la tienda entera cuenta contra el ingreso")
}

func TestReconcile_LoteSobregiradoEsDelta(t *testing.T) {
	scope := entity.ReconciliationScope{BusinessID: "b", ProductID: "p", WarehouseID: "w1"}
	totals := entity.LedgerTotals{Intake: 10, IntakeValue: decimal.NewFromInt(100), Transferred: 12}
	r := inventory.Reconcile(scope, totals, time.Now())
	assert.Equal(t, int64(-2), r.WarehouseOnHand)
	assert.Equal(t, int64(2), r.Delta, "dos unidades salieron del lote sin ingreso que las respalde")
	assert.True(t, r.Mismatch)
}
