package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Components entradas de la fórmula de conciliación.
type Components struct {
	Intake             int64
	WarehouseOnHand    int64
	StorefrontOnHand   int64
	Sold               int64
	Shrinkage          int64 // valor absoluto
	Corrections        int64
	ActiveReservations int64

	// Scoped alcance de lote o bodega: la tienda no guarda procedencia, así que el lado de
	// tienda no entra en Accounted y el lote se explica por lo que salió de él.
	Scoped           bool
	Transferred      int64
	BatchShrinkage   int64 // valor absoluto
	BatchCorrections int64
}

// Baseline línea base calculada:
// warehouse + storefront - sold - shrinkage + corrections - reservas activas.
func (c Components) Baseline() int64 {
	return c.WarehouseOnHand + c.StorefrontOnHand - c.Sold - c.Shrinkage + c.Corrections - c.ActiveReservations
}

// Accounted unidades que el libro logra explicar: lo que sigue en bodega y en tienda más lo que
// salió por venta o merma, menos lo que entró por correcciones. Las reservas ya están dentro de la
// asignación de tienda, por eso no suman aparte.
//
// Con alcance de lote o bodega solo cuentan hechos atribuibles al lote: lo que queda en bodega,
// lo trasladado y sus ajustes de lote. Una bodega en negativo no explica unidades: el exceso
// sacado del lote sale como delta.
func (c Components) Accounted() int64 {
	if c.Scoped {
		return max(c.WarehouseOnHand, 0) + c.Transferred + c.BatchShrinkage - c.BatchCorrections
	}
	return c.WarehouseOnHand + c.StorefrontOnHand + c.Sold + c.Shrinkage - c.Corrections
}

// Delta diferencia entre lo explicado por el libro y el ingreso registrado. Cero en un flujo
// sin movimientos fuera del libro.
func (c Components) Delta() int64 {
	return c.Accounted() - c.Intake
}

// Reconcile arma el resultado de conciliación a partir de las sumas del libro.
// Un delta distinto de cero se reporta (Mismatch) y nunca se corrige.
func Reconcile(scope entity.ReconciliationScope, t entity.LedgerTotals, asOf time.Time) entity.Reconciliation {
	c := Components{
		Intake:             t.Intake,
		WarehouseOnHand:    WarehouseOnHand(t.Intake, t.Transferred, t.BatchShrinkage, t.BatchCorrections),
		StorefrontOnHand:   t.StorefrontOnHand,
		Sold:               t.Sold,
		Shrinkage:          t.BatchShrinkage + t.StorefrontShrinkage,
		Corrections:        t.BatchCorrections + t.StorefrontCorrections,
		ActiveReservations: t.ActiveReservations,
		Scoped:             scope.Narrowed(),
		Transferred:        t.Transferred,
		BatchShrinkage:     t.BatchShrinkage,
		BatchCorrections:   t.BatchCorrections,
	}

	avgCost := decimal.Zero
	if t.Intake > 0 {
		avgCost = t.IntakeValue.Div(decimal.NewFromInt(t.Intake)).Round(4)
	}
	delta := c.Delta()

	return entity.Reconciliation{
		Scope:              scope,
		Intake:             c.Intake,
		Transferred:        t.Transferred,
		WarehouseOnHand:    c.WarehouseOnHand,
		StorefrontOnHand:   c.StorefrontOnHand,
		Sold:               c.Sold,
		Shrinkage:          c.Shrinkage,
		Corrections:        c.Corrections,
		ActiveReservations: c.ActiveReservations,
		CalculatedBaseline: c.Baseline(),
		Accounted:          c.Accounted(),
		Delta:              delta,
		Mismatch:           delta != 0,
		AvgUnitCost:        avgCost,
		ShrinkageValue:     avgCost.Mul(decimal.NewFromInt(c.Shrinkage)).Round(2),
		DeltaValue:         avgCost.Mul(decimal.NewFromInt(delta)).Round(2),
		AsOf:               asOf,

		StorefrontAttributed: !c.Scoped,
	}
}
