package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo reservas; solo cambian de estado, nunca se borran.
type ReservationRepo struct{ base }

type reservationRow struct {
	ID           string `db:"id"`
	BusinessID   string `db:"business_id"`
	ProductID    string `db:"product_id"`
	StorefrontID string `db:"storefront_id"`
	Quantity     int64  `db:"quantity"`
	CartRef      string `db:"cart_ref"`
	Status       string `db:"status"`
	ExpiresAt    dbTime `db:"expires_at"`
	CreatedAt    dbTime `db:"created_at"`
	UpdatedAt    dbTime `db:"updated_at"`
	CreatedBy    string `db:"created_by"`
}

func (r reservationRow) entity() *entity.Reservation {
	return &entity.Reservation{
		ID:           r.ID,
		BusinessID:   r.BusinessID,
		ProductID:    r.ProductID,
		StorefrontID: r.StorefrontID,
		Quantity:     r.Quantity,
		CartRef:      r.CartRef,
		Status:       r.Status,
		ExpiresAt:    r.ExpiresAt.Time,
		CreatedAt:    r.CreatedAt.Time,
		UpdatedAt:    r.UpdatedAt.Time,
		CreatedBy:    r.CreatedBy,
	}
}

const reservationColumns = `id, business_id, product_id, storefront_id, quantity, cart_ref, status, expires_at, created_at, updated_at, created_by`

func toReservations(rows []reservationRow) []*entity.Reservation {
	out := make([]*entity.Reservation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.entity())
	}
	return out
}

// Create inserta la reserva.
func (r *ReservationRepo) Create(ctx context.Context, res *entity.Reservation) error {
	_, err := r.exec(ctx, `
		INSERT INTO stock_reservations (`+reservationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.BusinessID, res.ProductID, res.StorefrontID, res.Quantity, res.CartRef, res.Status,
		r.ts(res.ExpiresAt), r.ts(res.CreatedAt), r.ts(res.UpdatedAt), res.CreatedBy)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

// GetByID obtiene una reserva del negocio.
func (r *ReservationRepo) GetByID(ctx context.Context, businessID, id string) (*entity.Reservation, error) {
	var row reservationRow
	err := r.get(ctx, &row, `SELECT `+reservationColumns+` FROM stock_reservations WHERE business_id = ? AND id = ?`, businessID, id)
	if err != nil {
		return nil, notFound("reservation", id, err)
	}
	return row.entity(), nil
}

// SumActive suma las reservas ACTIVE del par; storefrontID vacío = todas las tiendas.
func (r *ReservationRepo) SumActive(ctx context.Context, businessID, productID, storefrontID string) (int64, error) {
	query := `SELECT CAST(COALESCE(SUM(quantity), 0) AS BIGINT) FROM stock_reservations
		WHERE business_id = ? AND product_id = ? AND status = ?`
	args := []any{businessID, productID, entity.ReservationActive}
	if storefrontID != "" {
		query += ` AND storefront_id = ?`
		args = append(args, storefrontID)
	}
	var sum int64
	if err := r.get(ctx, &sum, query, args...); err != nil {
		return 0, fmt.Errorf("sum active reservations: %w", err)
	}
	return sum, nil
}

// ListActiveByCart lista las reservas ACTIVE de un carrito.
func (r *ReservationRepo) ListActiveByCart(ctx context.Context, businessID, cartRef string) ([]*entity.Reservation, error) {
	var rows []reservationRow
	err := r.sel(ctx, &rows, `SELECT `+reservationColumns+` FROM stock_reservations
		WHERE business_id = ? AND cart_ref = ? AND status = ? ORDER BY created_at, id`,
		businessID, cartRef, entity.ReservationActive)
	if err != nil {
		return nil, fmt.Errorf("list cart reservations: %w", err)
	}
	return toReservations(rows), nil
}

// ListExpired lista reservas ACTIVE con expires_at < f.Now, las más antiguas primero.
func (r *ReservationRepo) ListExpired(ctx context.Context, f repository.ExpiredFilter) ([]*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM stock_reservations WHERE status = ? AND expires_at < ?`
	args := []any{entity.ReservationActive, r.ts(f.Now)}
	if f.BusinessID != "" {
		query += ` AND business_id = ?`
		args = append(args, f.BusinessID)
	}
	if f.ProductID != "" {
		query += ` AND product_id = ?`
		args = append(args, f.ProductID)
	}
	if f.StorefrontID != "" {
		query += ` AND storefront_id = ?`
		args = append(args, f.StorefrontID)
	}
	query += ` ORDER BY expires_at, id`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}
	var rows []reservationRow
	if err := r.sel(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list expired reservations: %w", err)
	}
	return toReservations(rows), nil
}

// Transition actualiza el estado solo si sigue en from (UPDATE condicional).
func (r *ReservationRepo) Transition(ctx context.Context, businessID, id, from, to string, at time.Time) (bool, error) {
	res, err := r.exec(ctx, `UPDATE stock_reservations SET status = ?, updated_at = ?
		WHERE business_id = ? AND id = ? AND status = ?`, to, r.ts(at), businessID, id, from)
	if err != nil {
		return false, fmt.Errorf("transition reservation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition reservation: %w", err)
	}
	return n == 1, nil
}
