package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// SaleCompletionUseCase convierte reservas en ventas y registra el estado de pago en la misma transacción.
type SaleCompletionUseCase struct {
	engine
	reservations *ReservationManager
	adjustments  *AdjustmentLedger
}

// NewSaleCompletionUseCase construye el caso de uso.
func NewSaleCompletionUseCase(tx TxRunner, reservations *ReservationManager, adjustments *AdjustmentLedger, opts Options) *SaleCompletionUseCase {
	return &SaleCompletionUseCase{
		engine:       newEngine(tx, opts, "sales"),
		reservations: reservations,
		adjustments:  adjustments,
	}
}

// CompleteSaleInput entrada de Complete.
type CompleteSaleInput struct {
	SaleID         string
	PaymentRef     string
	PaymentStatus  string
	ReservationIDs []string
	// Force permite completar reservas que ya no están ACTIVE, revalidando el disponible.
	Force bool
}

// SaleResult ítems escritos y pago registrado.
type SaleResult struct {
	SaleID  string              `json:"sale_id"`
	Items   []*entity.SaleItem  `json:"items"`
	Payment *entity.SalePayment `json:"payment"`
}

// Complete consume todas las reservas de la venta y registra el pago, todo o nada.
func (uc *SaleCompletionUseCase) Complete(ctx context.Context, actor entity.Actor, in CompleteSaleInput) (*SaleResult, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	if err := required("sale_id", in.SaleID); err != nil {
		return nil, err
	}
	if err := required("payment_status", in.PaymentStatus); err != nil {
		return nil, err
	}
	if len(in.ReservationIDs) == 0 {
		return nil, domain.Invalid("reservation_ids", "al menos una reserva")
	}
	seen := make(map[string]bool, len(in.ReservationIDs))
	for _, id := range in.ReservationIDs {
		if id == "" || seen[id] {
			return nil, domain.Invalid("reservation_ids", "ids vacíos o repetidos")
		}
		seen[id] = true
	}

	var result *SaleResult
	err := uc.write(ctx, "inventory.CompleteSale", actor, func(s *txScope) error {
		result = &SaleResult{SaleID: in.SaleID}
		list := make([]*entity.Reservation, 0, len(in.ReservationIDs))
		for _, id := range in.ReservationIDs {
			res, err := s.Reservations.GetByID(ctx, actor.BusinessID, id)
			if err != nil {
				return err
			}
			list = append(list, res)
		}
		// Orden fijo de bloqueo para no cruzar locks entre terminales.
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].ProductID != list[j].ProductID {
				return list[i].ProductID < list[j].ProductID
			}
			return list[i].StorefrontID < list[j].StorefrontID
		})

		for _, res := range list {
			item, err := uc.completeOne(s, res, in)
			if err != nil {
				return err
			}
			result.Items = append(result.Items, item)
		}

		result.Payment = &entity.SalePayment{
			BusinessID:    actor.BusinessID,
			SaleID:        in.SaleID,
			PaymentRef:    in.PaymentRef,
			PaymentStatus: in.PaymentStatus,
			RecordedBy:    actor.UserID,
			RecordedAt:    s.now,
		}
		if err := s.Sales.RecordPayment(ctx, result.Payment); err != nil {
			return err
		}
		return s.audit(actor.BusinessID, "sale_payment", in.SaleID, "recorded", nil, result.Payment)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Tenant(actor.BusinessID).Debug().Str("sale_id", in.SaleID).
		Int("items", len(result.Items)).Msg("venta completada")
	return result, nil
}

func (uc *SaleCompletionUseCase) completeOne(s *txScope, res *entity.Reservation, in CompleteSaleInput) (*entity.SaleItem, error) {
	alloc, err := s.Allocations.GetForUpdate(s.ctx, res.BusinessID, res.ProductID, res.StorefrontID)
	if err != nil {
		return nil, err
	}
	// Relectura bajo el lock de la asignación: otro Consume o barrido pudo haberla movido.
	res, err = s.Reservations.GetByID(s.ctx, res.BusinessID, res.ID)
	if err != nil {
		return nil, err
	}
	if res.Status == entity.ReservationConsumed {
		return nil, alreadySold(res)
	}
	if res.Status == entity.ReservationActive && !res.Expired(s.now) {
		return consume(s, res, alloc, in.SaleID)
	}
	if !in.Force {
		return nil, &domain.ReservationExpiredError{ReservationID: res.ID, Status: res.Status}
	}

	// Venta forzada: la reserva queda RELEASED, así que el ítem de venta es la marca de que ya se usó.
	sold, err := s.Sales.ItemForReservation(s.ctx, res.BusinessID, res.ID)
	if err != nil {
		return nil, err
	}
	if sold != nil {
		return nil, alreadySold(res)
	}
	if res.Status == entity.ReservationActive {
		ok, err := uc.reservations.transition(s, res, entity.ReservationReleased, "expired", entity.EventReservationExpired)
		if err != nil {
			return nil, err
		}
		if !ok {
			current, err := s.Reservations.GetByID(s.ctx, res.BusinessID, res.ID)
			if err != nil {
				return nil, err
			}
			if current.Status == entity.ReservationConsumed {
				return nil, alreadySold(current)
			}
			res = current
		}
	}
	reserved, err := s.Reservations.SumActive(s.ctx, res.BusinessID, res.ProductID, res.StorefrontID)
	if err != nil {
		return nil, err
	}
	available := alloc.Quantity - reserved
	if res.Quantity > available {
		return nil, &domain.StockUnavailableError{
			ReservationID: res.ID,
			Breakdown: domain.StockBreakdown{
				OnHand:    alloc.Quantity,
				Reserved:  reserved,
				Available: available,
				Requested: res.Quantity,
				WouldBe:   available - res.Quantity,
			},
		}
	}
	item, err := deduct(s, alloc, res.Quantity, in.SaleID, res.ID)
	if err != nil {
		return nil, err
	}
	if err := s.audit(res.BusinessID, "reservation", res.ID, "force_completed", nil, item); err != nil {
		return nil, err
	}
	s.emit(reservationEvent(entity.EventReservationConsumed, res))
	return item, nil
}

func alreadySold(res *entity.Reservation) error {
	return &domain.StateTransitionError{Entity: "reservation", ID: res.ID, From: res.Status, To: entity.ReservationConsumed}
}

// ReturnInput entrada de Return.
type ReturnInput struct {
	SaleItemID string
	Quantity   int64
	Reason     string
}

// Return registra una devolución como ajuste CUSTOMER_RETURN PENDING sobre la asignación del ítem.
// El SaleItem nunca se edita.
func (uc *SaleCompletionUseCase) Return(ctx context.Context, actor entity.Actor, in ReturnInput) (*entity.Adjustment, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	if err := required("sale_item_id", in.SaleItemID); err != nil {
		return nil, err
	}
	if in.Quantity <= 0 {
		return nil, domain.Invalid("quantity", "debe ser mayor que cero")
	}

	var adj *entity.Adjustment
	err := uc.write(ctx, "inventory.ReturnSaleItem", actor, func(s *txScope) error {
		item, err := s.Sales.GetItem(ctx, actor.BusinessID, in.SaleItemID)
		if err != nil {
			return err
		}
		returned, err := s.Sales.SumReturned(ctx, actor.BusinessID, item.ID)
		if err != nil {
			return err
		}
		if returned+in.Quantity > item.Quantity {
			return domain.Invalid("quantity", "excede lo vendido en el ítem")
		}
		adj, err = uc.adjustments.create(s, AdjustmentInput{
			Target: entity.AdjustmentTarget{
				Kind:         entity.TargetAllocation,
				ProductID:    item.ProductID,
				StorefrontID: item.StorefrontID,
			},
			Type:       entity.AdjustmentCustomerReturn,
			Quantity:   in.Quantity,
			Reason:     in.Reason,
			SaleItemID: item.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return adj, nil
}
