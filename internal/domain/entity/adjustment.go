package entity

import "time"

// AdjustmentType categoría cerrada de ajuste. El signo se deriva del tipo, nunca de la entrada.
type AdjustmentType string

// Tipos de merma (signo negativo).
const (
	AdjustmentTheft    AdjustmentType = "THEFT"
	AdjustmentDamage   AdjustmentType = "DAMAGE"
	AdjustmentExpiry   AdjustmentType = "EXPIRY"
	AdjustmentLoss     AdjustmentType = "LOSS"
	AdjustmentSpoilage AdjustmentType = "SPOILAGE"
	AdjustmentWriteOff AdjustmentType = "WRITE_OFF"
)

// Tipos restaurativos (signo positivo).
const (
	AdjustmentCountCorrection AdjustmentType = "COUNT_CORRECTION"
	AdjustmentCustomerReturn  AdjustmentType = "CUSTOMER_RETURN"
	AdjustmentFound           AdjustmentType = "FOUND"
)

// AdjustmentCategory efecto del ajuste sobre el on-hand.
type AdjustmentCategory string

const (
	CategoryShrinkage   AdjustmentCategory = "SHRINKAGE"
	CategoryRestorative AdjustmentCategory = "RESTORATIVE"
)

var adjustmentCategories = map[AdjustmentType]AdjustmentCategory{
	AdjustmentTheft:           CategoryShrinkage,
	AdjustmentDamage:          CategoryShrinkage,
	AdjustmentExpiry:          CategoryShrinkage,
	AdjustmentLoss:            CategoryShrinkage,
	AdjustmentSpoilage:        CategoryShrinkage,
	AdjustmentWriteOff:        CategoryShrinkage,
	AdjustmentCountCorrection: CategoryRestorative,
	AdjustmentCustomerReturn:  CategoryRestorative,
	AdjustmentFound:           CategoryRestorative,
}

// Category devuelve la categoría del tipo; ok=false si el tipo no pertenece al enum.
func (t AdjustmentType) Category() (AdjustmentCategory, bool) {
	c, ok := adjustmentCategories[t]
	return c, ok
}

// AdjustmentTypesOf lista los tipos de una categoría (orden estable para consultas SQL).
func AdjustmentTypesOf(c AdjustmentCategory) []AdjustmentType {
	var out []AdjustmentType
	for _, t := range []AdjustmentType{
		AdjustmentTheft, AdjustmentDamage, AdjustmentExpiry, AdjustmentLoss, AdjustmentSpoilage,
		AdjustmentWriteOff, AdjustmentCountCorrection, AdjustmentCustomerReturn, AdjustmentFound,
	} {
		if adjustmentCategories[t] == c {
			out = append(out, t)
		}
	}
	return out
}

// Estados de un ajuste.
const (
	AdjustmentPending   = "PENDING"
	AdjustmentApproved  = "APPROVED"
	AdjustmentRejected  = "REJECTED"
	AdjustmentCompleted = "COMPLETED"
)

// Tipos de objetivo de un ajuste.
const (
	TargetBatch      = "BATCH"
	TargetAllocation = "ALLOCATION"
)

// AdjustmentTarget objetivo del ajuste: un lote (BatchID) o la asignación (ProductID, StorefrontID).
type AdjustmentTarget struct {
	Kind         string
	BatchID      string
	ProductID    string
	StorefrontID string
}

// Adjustment corrección firmada del on-hand detrás de una aprobación.
type Adjustment struct {
	ID                string
	BusinessID        string
	Target            AdjustmentTarget
	Type              AdjustmentType
	Quantity          int64 // con signo, normalizado desde Type
	RequestedQuantity int64 // tal como lo envió el llamador
	Reason            string
	Status            string
	QuantityBefore    int64
	SaleItemID        string // solo para devoluciones
	CreatedBy         string
	DecidedBy         string
	CreatedAt         time.Time
	DecidedAt         *time.Time
}
