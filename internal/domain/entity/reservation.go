package entity

import "time"

// Estados de una reserva.
const (
	ReservationActive   = "ACTIVE"
	ReservationReleased = "RELEASED"
	ReservationConsumed = "CONSUMED"
)

// Reservation retención temporal contra la asignación de una tienda para un carrito en curso.
type Reservation struct {
	ID           string
	BusinessID   string
	ProductID    string
	StorefrontID string
	Quantity     int64
	CartRef      string
	Status       string
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CreatedBy    string
}

// Expired indica si la retención ya pasó su vencimiento en el instante now.
func (r *Reservation) Expired(now time.Time) bool {
	return r.ExpiresAt.Before(now)
}
