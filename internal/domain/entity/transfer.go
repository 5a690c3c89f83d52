package entity

import "time"

// Estados de una solicitud de traslado.
const (
	TransferNew       = "NEW"
	TransferAssigned  = "ASSIGNED"
	TransferFulfilled = "FULFILLED"
	TransferCancelled = "CANCELLED"
)

// TransferLine línea de una solicitud: demanda de un producto.
type TransferLine struct {
	LineNo            int
	ProductID         string
	RequestedQuantity int64
	FulfilledQuantity int64
}

// Remaining cantidad pendiente de surtir.
func (l TransferLine) Remaining() int64 {
	return l.RequestedQuantity - l.FulfilledQuantity
}

// TransferRequest demanda de stock de una tienda, surtida desde lotes de bodega.
type TransferRequest struct {
	ID           string
	BusinessID   string
	StorefrontID string
	Status       string
	Lines        []TransferLine
	Note         string
	RequestedBy  string
	AssignedTo   string
	FulfilledBy  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Line busca la línea de un producto.
func (r *TransferRequest) Line(productID string) (*TransferLine, bool) {
	for i := range r.Lines {
		if r.Lines[i].ProductID == productID {
			return &r.Lines[i], true
		}
	}
	return nil, false
}

// Complete indica si todas las líneas quedaron surtidas.
func (r *TransferRequest) Complete() bool {
	for _, l := range r.Lines {
		if l.Remaining() > 0 {
			return false
		}
	}
	return len(r.Lines) > 0
}

// FulfillItem ítem de surtido: qué lote abastece cuánto de la línea de un producto.
type FulfillItem struct {
	ProductID string
	BatchID   string
	Quantity  int64
}

// TransferMovement hecho inmutable lote -> tienda. Cantidad negativa = reversa por cancelación.
type TransferMovement struct {
	ID           string
	BusinessID   string
	RequestID    string
	LineNo       int
	ProductID    string
	BatchID      string
	StorefrontID string
	Quantity     int64
	CreatedBy    string
	CreatedAt    time.Time
}
