package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Batch representa un ingreso de mercancía en bodega. IntakeQuantity y UnitCost se fijan
// al crearlo y nunca se modifican; todo cambio posterior es un movimiento que lo referencia.
type Batch struct {
	ID             string
	BusinessID     string
	ProductID      string
	WarehouseID    string
	IntakeQuantity int64
	UnitCost       decimal.Decimal
	Reference      string // documento del proveedor, remisión, etc.
	CreatedBy      string
	CreatedAt      time.Time
}
