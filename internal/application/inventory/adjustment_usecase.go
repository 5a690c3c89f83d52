package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// AdjustmentLedger correcciones firmadas detrás de la máquina de estados
// PENDING -> COMPLETED | REJECTED. Aprobar valida y aplica en un mismo paso.
type AdjustmentLedger struct {
	engine
}

// NewAdjustmentLedger construye el libro de ajustes.
func NewAdjustmentLedger(tx TxRunner, opts Options) *AdjustmentLedger {
	return &AdjustmentLedger{engine: newEngine(tx, opts, "adjustments")}
}

// AdjustmentInput entrada de Create. El signo de Quantity se corrige según el tipo.
type AdjustmentInput struct {
	Target     entity.AdjustmentTarget
	Type       entity.AdjustmentType
	Quantity   int64
	Reason     string
	SaleItemID string
}

// ApprovalResult ajuste aplicado con el on-hand antes y después.
type ApprovalResult struct {
	Adjustment   *entity.Adjustment `json:"adjustment"`
	AppliedDelta int64              `json:"applied_delta"`
	OnHandBefore int64              `json:"on_hand_before"`
	OnHandAfter  int64              `json:"on_hand_after"`
}

// Create registra un ajuste PENDING con la foto del on-hand actual del objetivo.
func (l *AdjustmentLedger) Create(ctx context.Context, actor entity.Actor, in AdjustmentInput) (*entity.Adjustment, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	var adj *entity.Adjustment
	err := l.write(ctx, "inventory.CreateAdjustment", actor, func(s *txScope) error {
		var err error
		adj, err = l.create(s, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	l.log.Tenant(actor.BusinessID).Debug().Str("adjustment_id", adj.ID).
		Str("type", string(adj.Type)).Int64("quantity", adj.Quantity).Msg("ajuste registrado")
	return adj, nil
}

func (l *AdjustmentLedger) create(s *txScope, in AdjustmentInput) (*entity.Adjustment, error) {
	if err := required("reason", in.Reason); err != nil {
		return nil, err
	}
	qty, err := inventory.NormalizeQuantity(in.Type, in.Quantity)
	if err != nil {
		return nil, err
	}

	target := in.Target
	var before int64
	switch target.Kind {
	case entity.TargetBatch:
		if err := required("batch_id", target.BatchID); err != nil {
			return nil, err
		}
		batch, err := s.Batches.GetByID(s.ctx, s.actor.BusinessID, target.BatchID)
		if err != nil {
			return nil, err
		}
		stock, err := loadBatchStock(s.ctx, s.Repos, batch)
		if err != nil {
			return nil, err
		}
		target.ProductID = batch.ProductID
		target.StorefrontID = ""
		before = stock.OnHand
	case entity.TargetAllocation:
		if err := required("product_id", target.ProductID); err != nil {
			return nil, err
		}
		if err := required("storefront_id", target.StorefrontID); err != nil {
			return nil, err
		}
		alloc, err := s.Allocations.Get(s.ctx, s.actor.BusinessID, target.ProductID, target.StorefrontID)
		if err != nil {
			return nil, err
		}
		target.BatchID = ""
		before = alloc.Quantity
	default:
		return nil, domain.Invalid("target", "debe ser BATCH o ALLOCATION")
	}

	adj := &entity.Adjustment{
		ID:                uuid.New().String(),
		BusinessID:        s.actor.BusinessID,
		Target:            target,
		Type:              in.Type,
		Quantity:          qty,
		RequestedQuantity: in.Quantity,
		Reason:            in.Reason,
		Status:            entity.AdjustmentPending,
		QuantityBefore:    before,
		SaleItemID:        in.SaleItemID,
		CreatedBy:         s.actor.UserID,
		CreatedAt:         s.now,
	}
	if err := s.Adjustments.Create(s.ctx, adj); err != nil {
		return nil, err
	}
	if err := s.audit(adj.BusinessID, "adjustment", adj.ID, "created", nil, adj); err != nil {
		return nil, err
	}
	return adj, nil
}

// Approve bloquea el objetivo, recalcula su on-hand y aplica el delta marcando el ajuste
// COMPLETED. Si el resultado quedara negativo (o por debajo de lo reservado en tienda) falla
// con NegativeStockError y el desglose.
func (l *AdjustmentLedger) Approve(ctx context.Context, actor entity.Actor, id string) (*ApprovalResult, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	var result *ApprovalResult
	err := l.write(ctx, "inventory.ApproveAdjustment", actor, func(s *txScope) error {
		adj, err := s.Adjustments.GetByID(ctx, actor.BusinessID, id)
		if err != nil {
			return err
		}
		if err := inventory.CheckApproval(adj.ID, adj.Status); err != nil {
			return err
		}

		var (
			onHand    int64
			breakdown domain.StockBreakdown
			alloc     *entity.Allocation
		)
		switch adj.Target.Kind {
		case entity.TargetBatch:
			batch, err := s.Batches.GetForUpdate(ctx, actor.BusinessID, adj.Target.BatchID)
			if err != nil {
				return err
			}
			stock, err := loadBatchStock(ctx, s.Repos, batch)
			if err != nil {
				return err
			}
			onHand = stock.OnHand
			breakdown = stock.breakdown()
		case entity.TargetAllocation:
			alloc, err = s.Allocations.GetForUpdate(ctx, actor.BusinessID, adj.Target.ProductID, adj.Target.StorefrontID)
			if err != nil {
				return err
			}
			if breakdown, err = allocationBreakdown(s, alloc); err != nil {
				return err
			}
			onHand = alloc.Quantity
		default:
			return domain.Invalid("target", "objetivo desconocido: "+adj.Target.Kind)
		}

		wouldBe := onHand + adj.Quantity
		breakdown.Requested = adj.Quantity
		breakdown.WouldBe = wouldBe
		if wouldBe < 0 || wouldBe < breakdown.Reserved {
			return &domain.NegativeStockError{AdjustmentID: adj.ID, Breakdown: breakdown}
		}

		before := *adj
		decidedAt := s.now
		adj.Status = entity.AdjustmentCompleted
		adj.DecidedBy = actor.UserID
		adj.DecidedAt = &decidedAt
		ok, err := s.Adjustments.Decide(ctx, adj, entity.AdjustmentPending)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.ConcurrentModificationError{Op: "approve adjustment " + adj.ID}
		}
		if alloc != nil {
			prev := alloc.Quantity
			alloc.Quantity = wouldBe
			alloc.UpdatedAt = s.now
			if err := s.Allocations.Upsert(ctx, alloc); err != nil {
				return err
			}
			if err := s.auditAllocation("adjustment", prev, alloc); err != nil {
				return err
			}
		}
		if err := s.audit(adj.BusinessID, "adjustment", adj.ID, "completed", before, adj); err != nil {
			return err
		}
		s.emit(entity.LedgerEvent{
			Type:         entity.EventAdjustmentCompleted,
			ProductID:    adj.Target.ProductID,
			StorefrontID: adj.Target.StorefrontID,
			BatchID:      adj.Target.BatchID,
			EntityID:     adj.ID,
			Quantity:     adj.Quantity,
		})
		result = &ApprovalResult{Adjustment: adj, AppliedDelta: adj.Quantity, OnHandBefore: onHand, OnHandAfter: wouldBe}
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.log.Tenant(actor.BusinessID).Debug().Str("adjustment_id", id).
		Int64("delta", result.AppliedDelta).Int64("on_hand", result.OnHandAfter).Msg("ajuste aplicado")
	return result, nil
}

func allocationBreakdown(s *txScope, alloc *entity.Allocation) (domain.StockBreakdown, error) {
	reserved, err := s.Reservations.SumActive(s.ctx, alloc.BusinessID, alloc.ProductID, alloc.StorefrontID)
	if err != nil {
		return domain.StockBreakdown{}, err
	}
	sold, err := s.Sales.SumSold(s.ctx, alloc.BusinessID, alloc.ProductID, alloc.StorefrontID)
	if err != nil {
		return domain.StockBreakdown{}, err
	}
	shrinkage, corrections, err := s.Adjustments.SumCompletedForAllocation(s.ctx, alloc.BusinessID, alloc.ProductID, alloc.StorefrontID)
	if err != nil {
		return domain.StockBreakdown{}, err
	}
	return domain.StockBreakdown{
		PriorAdjustments: corrections - shrinkage,
		Sold:             sold,
		Reserved:         reserved,
		OnHand:           alloc.Quantity,
		Available:        alloc.Quantity - reserved,
	}, nil
}

// Reject PENDING -> REJECTED sin efecto numérico.
func (l *AdjustmentLedger) Reject(ctx context.Context, actor entity.Actor, id string) (*entity.Adjustment, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	var adj *entity.Adjustment
	err := l.write(ctx, "inventory.RejectAdjustment", actor, func(s *txScope) error {
		var err error
		adj, err = s.Adjustments.GetByID(ctx, actor.BusinessID, id)
		if err != nil {
			return err
		}
		if err := inventory.CheckAdjustment(adj.ID, adj.Status, entity.AdjustmentRejected); err != nil {
			return err
		}
		before := *adj
		decidedAt := s.now
		adj.Status = entity.AdjustmentRejected
		adj.DecidedBy = actor.UserID
		adj.DecidedAt = &decidedAt
		ok, err := s.Adjustments.Decide(ctx, adj, entity.AdjustmentPending)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.ConcurrentModificationError{Op: "reject adjustment " + adj.ID}
		}
		if err := s.audit(adj.BusinessID, "adjustment", adj.ID, "rejected", before, adj); err != nil {
			return err
		}
		s.emit(entity.LedgerEvent{
			Type:         entity.EventAdjustmentRejected,
			ProductID:    adj.Target.ProductID,
			StorefrontID: adj.Target.StorefrontID,
			BatchID:      adj.Target.BatchID,
			EntityID:     adj.ID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return adj, nil
}

// Get devuelve un ajuste del negocio.
func (l *AdjustmentLedger) Get(ctx context.Context, actor entity.Actor, id string) (*entity.Adjustment, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	var adj *entity.Adjustment
	err := l.read(ctx, "inventory.GetAdjustment", actor, func(ctx context.Context, r Repos) error {
		var err error
		adj, err = r.Adjustments.GetByID(ctx, actor.BusinessID, id)
		return err
	})
	return adj, err
}

// List lista ajustes filtrando por estado y/o producto.
func (l *AdjustmentLedger) List(ctx context.Context, actor entity.Actor, f repository.AdjustmentFilter) ([]*entity.Adjustment, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	f.BusinessID = actor.BusinessID
	if f.Limit <= 0 {
		f.Limit = 50
	}
	var list []*entity.Adjustment
	err := l.read(ctx, "inventory.ListAdjustments", actor, func(ctx context.Context, r Repos) error {
		var err error
		list, err = r.Adjustments.List(ctx, f)
		return err
	})
	return list, err
}
