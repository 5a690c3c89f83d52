package entity

import "time"

// Allocation cantidad de un producto asignada a una tienda. Único contador vivo del lado tienda.
type Allocation struct {
	BusinessID   string
	ProductID    string
	StorefrontID string
	Quantity     int64 // >= 0 en todo estado confirmado
	UpdatedAt    time.Time
}
