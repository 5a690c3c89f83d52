package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ExpiredFilter filtro de reservas ACTIVE vencidas. Campos vacíos = sin filtro.
type ExpiredFilter struct {
	BusinessID   string
	ProductID    string
	StorefrontID string
	Now          time.Time
	Limit        int
}

// ReservationRepository puerto de persistencia de reservas.
type ReservationRepository interface {
	Create(ctx context.Context, r *entity.Reservation) error
	GetByID(ctx context.Context, businessID, id string) (*entity.Reservation, error)
	// SumActive suma las reservas ACTIVE de (producto, tienda); storefrontID vacío = todas las tiendas.
	SumActive(ctx context.Context, businessID, productID, storefrontID string) (int64, error)
	ListActiveByCart(ctx context.Context, businessID, cartRef string) ([]*entity.Reservation, error)
	ListExpired(ctx context.Context, f ExpiredFilter) ([]*entity.Reservation, error)
	// Transition cambia el estado solo si sigue en from. Devuelve false si otra transacción ya lo movió.
	Transition(ctx context.Context, businessID, id, from, to string, at time.Time) (bool, error)
}
