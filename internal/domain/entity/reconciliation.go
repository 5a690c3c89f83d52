package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationScope alcance de la conciliación: producto, opcionalmente lote y/o bodega.
type ReconciliationScope struct {
	BusinessID  string `json:"business_id"`
	ProductID   string `json:"product_id"`
	BatchID     string `json:"batch_id,omitempty"`
	WarehouseID string `json:"warehouse_id,omitempty"`
}

// Narrowed indica alcance de lote o bodega, más estrecho que el producto completo.
func (s ReconciliationScope) Narrowed() bool {
	return s.BatchID != "" || s.WarehouseID != ""
}

// LedgerTotals sumas crudas leídas del libro dentro de una misma instantánea.
type LedgerTotals struct {
	Intake                int64
	IntakeValue           decimal.Decimal
	Transferred           int64
	BatchShrinkage        int64 // valor absoluto
	BatchCorrections      int64
	StorefrontOnHand      int64
	StorefrontShrinkage   int64 // valor absoluto
	StorefrontCorrections int64
	Sold                  int64
	ActiveReservations    int64
}

// Reconciliation resultado de la conciliación con su desglose completo.
type Reconciliation struct {
	Scope              ReconciliationScope `json:"scope"`
	Intake             int64               `json:"intake_quantity"`
	Transferred        int64               `json:"transferred"`
	WarehouseOnHand    int64               `json:"warehouse_on_hand"`
	StorefrontOnHand   int64               `json:"storefront_on_hand"`
	Sold               int64               `json:"sold"`
	Shrinkage          int64               `json:"shrinkage"`
	Corrections        int64               `json:"corrections"`
	ActiveReservations int64               `json:"active_reservations"`
	CalculatedBaseline int64               `json:"calculated_baseline"`
	Accounted          int64               `json:"accounted"`
	Delta              int64               `json:"delta"`
	Mismatch           bool                `json:"mismatch"`
	AvgUnitCost        decimal.Decimal     `json:"avg_unit_cost"`
	ShrinkageValue     decimal.Decimal     `json:"shrinkage_value"`
	DeltaValue         decimal.Decimal     `json:"delta_value"`
	AsOf               time.Time           `json:"as_of"`

	// StorefrontAttributed falso con alcance de lote/bodega: las cifras de tienda son informativas.
	StorefrontAttributed bool `json:"storefront_attributed"`
}
