package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// ReservationManager retenciones temporales contra la asignación de una tienda.
type ReservationManager struct {
	engine
	ttl    time.Duration
	maxTTL time.Duration
}

// NewReservationManager construye el gestor de reservas.
func NewReservationManager(tx TxRunner, opts Options) *ReservationManager {
	m := &ReservationManager{
		engine: newEngine(tx, opts, "reservations"),
		ttl:    opts.ReservationTTL,
		maxTTL: opts.MaxTTL,
	}
	if m.ttl <= 0 {
		m.ttl = DefaultReservationTTL
	}
	if m.maxTTL <= 0 {
		m.maxTTL = DefaultReservationMaxTTL
	}
	return m
}

// AcquireInput entrada de Acquire. TTL <= 0 usa el valor configurado.
type AcquireInput struct {
	ProductID    string
	StorefrontID string
	Quantity     int64
	CartRef      string
	TTL          time.Duration
}

// Acquire retiene qty unidades para un carrito. Bloquea la asignación, libera de forma perezosa
// las retenciones vencidas del mismo par y falla sin efectos si no hay disponible suficiente.
func (m *ReservationManager) Acquire(ctx context.Context, actor entity.Actor, in AcquireInput) (*entity.Reservation, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	if err := required("product_id", in.ProductID); err != nil {
		return nil, err
	}
	if err := required("storefront_id", in.StorefrontID); err != nil {
		return nil, err
	}
	if err := required("cart_ref", in.CartRef); err != nil {
		return nil, err
	}
	if in.Quantity <= 0 {
		return nil, domain.Invalid("quantity", "debe ser mayor que cero")
	}
	ttl := in.TTL
	if ttl <= 0 {
		ttl = m.ttl
	}
	if ttl > m.maxTTL {
		return nil, domain.Invalid("ttl", fmt.Sprintf("excede el máximo de %s", m.maxTTL))
	}

	var res *entity.Reservation
	err := m.write(ctx, "inventory.AcquireReservation", actor, func(s *txScope) error {
		alloc, err := s.Allocations.GetForUpdate(ctx, actor.BusinessID, in.ProductID, in.StorefrontID)
		if err != nil {
			return err
		}
		if _, err := m.releaseExpired(s, repository.ExpiredFilter{
			BusinessID:   actor.BusinessID,
			ProductID:    in.ProductID,
			StorefrontID: in.StorefrontID,
			Now:          s.now,
		}); err != nil {
			return err
		}
		reserved, err := s.Reservations.SumActive(ctx, actor.BusinessID, in.ProductID, in.StorefrontID)
		if err != nil {
			return err
		}
		available := alloc.Quantity - reserved
		if in.Quantity > available {
			return &domain.InsufficientStockError{
				ProductID:  in.ProductID,
				LocationID: in.StorefrontID,
				Breakdown: domain.StockBreakdown{
					OnHand:    alloc.Quantity,
					Reserved:  reserved,
					Available: available,
					Requested: in.Quantity,
					WouldBe:   available - in.Quantity,
				},
			}
		}

		res = &entity.Reservation{
			ID:           uuid.New().String(),
			BusinessID:   actor.BusinessID,
			ProductID:    in.ProductID,
			StorefrontID: in.StorefrontID,
			Quantity:     in.Quantity,
			CartRef:      in.CartRef,
			Status:       entity.ReservationActive,
			ExpiresAt:    s.now.Add(ttl),
			CreatedAt:    s.now,
			UpdatedAt:    s.now,
			CreatedBy:    actor.UserID,
		}
		if err := s.Reservations.Create(ctx, res); err != nil {
			return err
		}
		if err := s.audit(actor.BusinessID, "reservation", res.ID, "acquired", nil, res); err != nil {
			return err
		}
		s.emit(reservationEvent(entity.EventReservationAcquired, res))
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.log.Tenant(actor.BusinessID).Debug().Str("product_id", in.ProductID).
		Str("storefront_id", in.StorefrontID).Int64("quantity", in.Quantity).Msg("reserva adquirida")
	return res, nil
}

// Release libera una reserva. Idempotente: RELEASED o CONSUMED no cambian.
func (m *ReservationManager) Release(ctx context.Context, actor entity.Actor, id string) (*entity.Reservation, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	var res *entity.Reservation
	err := m.write(ctx, "inventory.ReleaseReservation", actor, func(s *txScope) error {
		var err error
		res, err = s.Reservations.GetByID(ctx, actor.BusinessID, id)
		if err != nil {
			return err
		}
		if res.Status != entity.ReservationActive {
			return nil
		}
		_, err = m.transition(s, res, entity.ReservationReleased, "released", entity.EventReservationReleased)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ReleaseCart libera todas las reservas ACTIVE de un carrito abandonado. Devuelve cuántas liberó.
func (m *ReservationManager) ReleaseCart(ctx context.Context, actor entity.Actor, cartRef string) (int, error) {
	if err := checkActor(actor); err != nil {
		return 0, err
	}
	if err := required("cart_ref", cartRef); err != nil {
		return 0, err
	}
	released := 0
	err := m.write(ctx, "inventory.ReleaseCart", actor, func(s *txScope) error {
		released = 0
		list, err := s.Reservations.ListActiveByCart(ctx, actor.BusinessID, cartRef)
		if err != nil {
			return err
		}
		for _, res := range list {
			ok, err := m.transition(s, res, entity.ReservationReleased, "released", entity.EventReservationReleased)
			if err != nil {
				return err
			}
			if ok {
				released++
			}
		}
		return nil
	})
	return released, err
}

// Consume convierte la reserva en una venta: ACTIVE -> CONSUMED, descuenta la asignación y
// escribe el SaleItem en la misma transacción. Si la reserva venció se libera, se confirma la
// liberación y se devuelve ReservationExpiredError.
func (m *ReservationManager) Consume(ctx context.Context, actor entity.Actor, id, saleRef string) (*entity.SaleItem, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	if err := required("sale_ref", saleRef); err != nil {
		return nil, err
	}
	var item *entity.SaleItem
	err := m.write(ctx, "inventory.ConsumeReservation", actor, func(s *txScope) error {
		res, err := s.Reservations.GetByID(ctx, actor.BusinessID, id)
		if err != nil {
			return err
		}
		alloc, err := s.Allocations.GetForUpdate(ctx, actor.BusinessID, res.ProductID, res.StorefrontID)
		if err != nil {
			return err
		}
		if res.Status != entity.ReservationActive {
			return &domain.ReservationExpiredError{ReservationID: res.ID, Status: res.Status}
		}
		if res.Expired(s.now) {
			if _, err := m.transition(s, res, entity.ReservationReleased, "expired", entity.EventReservationExpired); err != nil {
				return err
			}
			s.after = &domain.ReservationExpiredError{ReservationID: res.ID, Status: res.Status}
			return nil
		}
		item, err = consume(s, res, alloc, saleRef)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// SweepExpired libera las reservas ACTIVE vencidas en now (limit <= 0 = sin límite).
// Las que ya salieron de ACTIVE por otra transacción se omiten sin error.
func (m *ReservationManager) SweepExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	system := entity.Actor{UserID: SystemActor}
	released := 0
	err := m.write(ctx, "inventory.SweepExpired", system, func(s *txScope) error {
		var err error
		released, err = m.releaseExpired(s, repository.ExpiredFilter{Now: now.UTC(), Limit: limit})
		return err
	})
	if err != nil {
		return 0, err
	}
	return released, nil
}

// releaseExpired libera las ACTIVE vencidas que cumplan el filtro, con transición condicional.
func (m *ReservationManager) releaseExpired(s *txScope, f repository.ExpiredFilter) (int, error) {
	expired, err := s.Reservations.ListExpired(s.ctx, f)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, res := range expired {
		ok, err := m.transition(s, res, entity.ReservationReleased, "expired", entity.EventReservationExpired)
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

// transition mueve la reserva desde ACTIVE si nadie lo hizo antes; false = ya no estaba ACTIVE.
func (m *ReservationManager) transition(s *txScope, res *entity.Reservation, to, action, event string) (bool, error) {
	if err := inventory.CheckReservation(res.ID, res.Status, to); err != nil {
		return false, err
	}
	before := *res
	ok, err := s.Reservations.Transition(s.ctx, res.BusinessID, res.ID, entity.ReservationActive, to, s.now)
	if err != nil || !ok {
		return false, err
	}
	res.Status = to
	res.UpdatedAt = s.now
	if err := s.audit(res.BusinessID, "reservation", res.ID, action, before, res); err != nil {
		return false, err
	}
	ev := reservationEvent(event, res)
	ev.BusinessID = res.BusinessID
	s.emit(ev)
	return true, nil
}

// consume aplica el consumo de una reserva ACTIVE y vigente. alloc debe venir bloqueada.
func consume(s *txScope, res *entity.Reservation, alloc *entity.Allocation, saleRef string) (*entity.SaleItem, error) {
	if err := inventory.CheckReservation(res.ID, res.Status, entity.ReservationConsumed); err != nil {
		return nil, err
	}
	before := *res
	ok, err := s.Reservations.Transition(s.ctx, res.BusinessID, res.ID, entity.ReservationActive, entity.ReservationConsumed, s.now)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := s.Reservations.GetByID(s.ctx, res.BusinessID, res.ID)
		if err != nil {
			return nil, err
		}
		return nil, &domain.ReservationExpiredError{ReservationID: res.ID, Status: current.Status}
	}
	res.Status = entity.ReservationConsumed
	res.UpdatedAt = s.now
	if err := s.audit(res.BusinessID, "reservation", res.ID, "consumed", before, res); err != nil {
		return nil, err
	}

	item, err := deduct(s, alloc, res.Quantity, saleRef, res.ID)
	if err != nil {
		return nil, err
	}
	s.emit(reservationEvent(entity.EventReservationConsumed, res))
	return item, nil
}

// deduct descuenta qty de la asignación bloqueada y escribe el SaleItem inmutable.
func deduct(s *txScope, alloc *entity.Allocation, qty int64, saleRef, reservationID string) (*entity.SaleItem, error) {
	if alloc.Quantity < qty {
		return nil, &domain.InsufficientStockError{
			ProductID:  alloc.ProductID,
			LocationID: alloc.StorefrontID,
			Breakdown: domain.StockBreakdown{
				OnHand:    alloc.Quantity,
				Available: alloc.Quantity,
				Requested: qty,
				WouldBe:   alloc.Quantity - qty,
			},
		}
	}
	before := alloc.Quantity
	alloc.Quantity -= qty
	alloc.UpdatedAt = s.now
	if err := s.Allocations.Upsert(s.ctx, alloc); err != nil {
		return nil, err
	}
	if err := s.auditAllocation("sale", before, alloc); err != nil {
		return nil, err
	}

	batchID, err := s.Transfers.LatestSourceBatch(s.ctx, alloc.BusinessID, alloc.ProductID, alloc.StorefrontID)
	if err != nil {
		return nil, err
	}
	item := &entity.SaleItem{
		ID:            uuid.New().String(),
		BusinessID:    alloc.BusinessID,
		ProductID:     alloc.ProductID,
		StorefrontID:  alloc.StorefrontID,
		Quantity:      qty,
		BatchID:       batchID,
		SaleID:        saleRef,
		ReservationID: reservationID,
		CreatedBy:     s.actor.UserID,
		CreatedAt:     s.now,
	}
	if err := s.Sales.CreateItem(s.ctx, item); err != nil {
		return nil, err
	}
	if err := s.audit(item.BusinessID, "sale_item", item.ID, "created", nil, item); err != nil {
		return nil, err
	}
	return item, nil
}

func reservationEvent(typ string, r *entity.Reservation) entity.LedgerEvent {
	return entity.LedgerEvent{
		Type:         typ,
		BusinessID:   r.BusinessID,
		ProductID:    r.ProductID,
		StorefrontID: r.StorefrontID,
		EntityID:     r.ID,
		Quantity:     r.Quantity,
	}
}
