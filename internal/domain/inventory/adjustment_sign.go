package inventory

import (
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// NormalizeQuantity fuerza el signo de la cantidad según la categoría del tipo (servicio de dominio).
// Un signo del llamador que contradice la categoría se corrige, no se rechaza: el registro guarda
// la cantidad corregida junto con la solicitada y el motivo original.
func NormalizeQuantity(t entity.AdjustmentType, quantity int64) (int64, error) {
	category, ok := t.Category()
	if !ok {
		return 0, domain.Invalid("type", "tipo de ajuste desconocido: "+string(t))
	}
	if quantity == 0 {
		return 0, domain.Invalid("quantity", "la cantidad no puede ser cero")
	}
	abs := quantity
	if abs < 0 {
		abs = -abs
	}
	if category == entity.CategoryShrinkage {
		return -abs, nil
	}
	return abs, nil
}

// WarehouseOnHand on-hand derivado de un lote: el ingreso nunca se descuenta, los traslados
// y ajustes al lote son hechos que se restan o suman al calcular.
// shrinkage va en valor absoluto.
func WarehouseOnHand(intake, transferred, shrinkage, corrections int64) int64 {
	return intake - transferred - shrinkage + corrections
}
