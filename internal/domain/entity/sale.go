package entity

import "time"

// SaleItem registro inmutable de una deducción completada. Una devolución se expresa como
// un ajuste restaurativo nuevo, nunca editando este registro.
type SaleItem struct {
	ID            string
	BusinessID    string
	ProductID     string
	StorefrontID  string
	Quantity      int64
	BatchID       string // procedencia best-effort
	SaleID        string
	ReservationID string
	CreatedBy     string
	CreatedAt     time.Time
}

// SalePayment estado de pago registrado en la misma transacción que el consumo.
type SalePayment struct {
	BusinessID    string
	SaleID        string
	PaymentRef    string
	PaymentStatus string
	RecordedBy    string
	RecordedAt    time.Time
}
