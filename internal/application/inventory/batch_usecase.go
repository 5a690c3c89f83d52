package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

// BatchUseCase ingresos de bodega. Un lote se escribe una vez y nunca se edita.
type BatchUseCase struct {
	engine
}

// NewBatchUseCase construye el caso de uso.
func NewBatchUseCase(tx TxRunner, opts Options) *BatchUseCase {
	return &BatchUseCase{engine: newEngine(tx, opts, "batches")}
}

// IntakeInput entrada para registrar un ingreso.
type IntakeInput struct {
	ProductID   string
	WarehouseID string
	Quantity    int64
	UnitCost    decimal.Decimal
	Reference   string
}

// BatchStock on-hand derivado de un lote con sus componentes.
type BatchStock struct {
	Batch       *entity.Batch `json:"batch"`
	Transferred int64         `json:"transferred"`
	Shrinkage   int64         `json:"shrinkage"`
	Corrections int64         `json:"corrections"`
	OnHand      int64         `json:"on_hand"`
}

func (b *BatchStock) breakdown() domain.StockBreakdown {
	return domain.StockBreakdown{
		Intake:           b.Batch.IntakeQuantity,
		PriorAdjustments: b.Corrections - b.Shrinkage,
		Transferred:      b.Transferred,
		OnHand:           b.OnHand,
		Available:        b.OnHand,
	}
}

// loadBatchStock calcula el on-hand de bodega de un lote ya leído (bloqueado o no).
func loadBatchStock(ctx context.Context, r Repos, b *entity.Batch) (*BatchStock, error) {
	transferred, err := r.Transfers.SumTransferredFromBatch(ctx, b.BusinessID, b.ID)
	if err != nil {
		return nil, err
	}
	shrinkage, corrections, err := r.Adjustments.SumCompletedForBatch(ctx, b.BusinessID, b.ID)
	if err != nil {
		return nil, err
	}
	return &BatchStock{
		Batch:       b,
		Transferred: transferred,
		Shrinkage:   shrinkage,
		Corrections: corrections,
		OnHand:      inventory.WarehouseOnHand(b.IntakeQuantity, transferred, shrinkage, corrections),
	}, nil
}

// RegisterIntake registra un lote nuevo con su cantidad y costo unitario fijos.
func (uc *BatchUseCase) RegisterIntake(ctx context.Context, actor entity.Actor, in IntakeInput) (*entity.Batch, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	if err := required("product_id", in.ProductID); err != nil {
		return nil, err
	}
	if err := required("warehouse_id", in.WarehouseID); err != nil {
		return nil, err
	}
	if in.Quantity <= 0 {
		return nil, domain.Invalid("quantity", "debe ser mayor que cero")
	}
	if in.UnitCost.IsNegative() {
		return nil, domain.Invalid("unit_cost", "no puede ser negativo")
	}

	var batch *entity.Batch
	err := uc.write(ctx, "inventory.RegisterIntake", actor, func(s *txScope) error {
		batch = &entity.Batch{
			ID:             uuid.New().String(),
			BusinessID:     actor.BusinessID,
			ProductID:      in.ProductID,
			WarehouseID:    in.WarehouseID,
			IntakeQuantity: in.Quantity,
			UnitCost:       in.UnitCost,
			Reference:      in.Reference,
			CreatedBy:      actor.UserID,
			CreatedAt:      s.now,
		}
		if err := s.Batches.Create(ctx, batch); err != nil {
			return err
		}
		if err := s.audit(actor.BusinessID, "batch", batch.ID, "received", nil, batch); err != nil {
			return err
		}
		s.emit(entity.LedgerEvent{
			Type:      entity.EventBatchReceived,
			ProductID: batch.ProductID,
			BatchID:   batch.ID,
			EntityID:  batch.ID,
			Quantity:  batch.IntakeQuantity,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Tenant(actor.BusinessID).Debug().Str("product_id", in.ProductID).
		Str("batch_id", batch.ID).Int64("quantity", in.Quantity).Msg("ingreso registrado")
	return batch, nil
}

// Get devuelve un lote del negocio.
func (uc *BatchUseCase) Get(ctx context.Context, actor entity.Actor, id string) (*entity.Batch, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	var batch *entity.Batch
	err := uc.read(ctx, "inventory.GetBatch", actor, func(ctx context.Context, r Repos) error {
		var err error
		batch, err = r.Batches.GetByID(ctx, actor.BusinessID, id)
		return err
	})
	return batch, err
}

// ListByProduct lista los lotes de un producto; warehouseID vacío = todas las bodegas.
func (uc *BatchUseCase) ListByProduct(ctx context.Context, actor entity.Actor, productID, warehouseID string) ([]*entity.Batch, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	if err := required("product_id", productID); err != nil {
		return nil, err
	}
	var list []*entity.Batch
	err := uc.read(ctx, "inventory.ListBatches", actor, func(ctx context.Context, r Repos) error {
		var err error
		list, err = r.Batches.ListByProduct(ctx, actor.BusinessID, productID, warehouseID)
		return err
	})
	return list, err
}

// OnHand devuelve el on-hand de bodega del lote (ingreso - trasladado - merma + correcciones).
func (uc *BatchUseCase) OnHand(ctx context.Context, actor entity.Actor, id string) (*BatchStock, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	var stock *BatchStock
	err := uc.read(ctx, "inventory.BatchOnHand", actor, func(ctx context.Context, r Repos) error {
		batch, err := r.Batches.GetByID(ctx, actor.BusinessID, id)
		if err != nil {
			return err
		}
		stock, err = loadBatchStock(ctx, r, batch)
		return err
	})
	return stock, err
}
