package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

// TransferWorkflow mueve cantidad de lotes de bodega a la asignación de una tienda:
// NEW -> ASSIGNED -> FULFILLED, {NEW, ASSIGNED} -> CANCELLED.
type TransferWorkflow struct {
	engine
}

// NewTransferWorkflow construye el flujo de traslados.
func NewTransferWorkflow(tx TxRunner, opts Options) *TransferWorkflow {
	return &TransferWorkflow{engine: newEngine(tx, opts, "transfers")}
}

// TransferLineInput demanda de un producto en la solicitud.
type TransferLineInput struct {
	ProductID string
	Quantity  int64
}

// TransferInput entrada de Create.
type TransferInput struct {
	StorefrontID string
	Lines        []TransferLineInput
	Note         string
}

// Create registra una solicitud NEW.
func (w *TransferWorkflow) Create(ctx context.Context, actor entity.Actor, in TransferInput) (*entity.TransferRequest, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	if err := required("storefront_id", in.StorefrontID); err != nil {
		return nil, err
	}
	if len(in.Lines) == 0 {
		return nil, domain.Invalid("lines", "al menos una línea")
	}
	lines := make([]entity.TransferLine, 0, len(in.Lines))
	seen := make(map[string]bool, len(in.Lines))
	for i, l := range in.Lines {
		if l.ProductID == "" {
			return nil, domain.Invalid("lines", fmt.Sprintf("línea %d sin producto", i+1))
		}
		if l.Quantity <= 0 {
			return nil, domain.Invalid("lines", fmt.Sprintf("línea %d con cantidad no positiva", i+1))
		}
		if seen[l.ProductID] {
			return nil, domain.Invalid("lines", "producto repetido: "+l.ProductID)
		}
		seen[l.ProductID] = true
		lines = append(lines, entity.TransferLine{LineNo: i + 1, ProductID: l.ProductID, RequestedQuantity: l.Quantity})
	}

	var req *entity.TransferRequest
	err := w.write(ctx, "inventory.CreateTransfer", actor, func(s *txScope) error {
		req = &entity.TransferRequest{
			ID:           uuid.New().String(),
			BusinessID:   actor.BusinessID,
			StorefrontID: in.StorefrontID,
			Status:       entity.TransferNew,
			Lines:        append([]entity.TransferLine(nil), lines...),
			Note:         in.Note,
			RequestedBy:  actor.UserID,
			CreatedAt:    s.now,
			UpdatedAt:    s.now,
		}
		if err := s.Transfers.Create(ctx, req); err != nil {
			return err
		}
		return s.audit(actor.BusinessID, "transfer_request", req.ID, "created", nil, req)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Assign NEW -> ASSIGNED, sin movimiento de stock. assignee vacío = el actor.
func (w *TransferWorkflow) Assign(ctx context.Context, actor entity.Actor, id, assignee string) (*entity.TransferRequest, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	if assignee == "" {
		assignee = actor.UserID
	}
	var req *entity.TransferRequest
	err := w.write(ctx, "inventory.AssignTransfer", actor, func(s *txScope) error {
		var err error
		req, err = s.Transfers.GetForUpdate(ctx, actor.BusinessID, id)
		if err != nil {
			return err
		}
		if err := inventory.CheckTransfer(req.ID, req.Status, entity.TransferAssigned); err != nil {
			return err
		}
		before := *req
		req.Status = entity.TransferAssigned
		req.AssignedTo = assignee
		req.UpdatedAt = s.now
		if err := s.Transfers.UpdateStatus(ctx, req); err != nil {
			return err
		}
		return s.audit(actor.BusinessID, "transfer_request", req.ID, "assigned", statusOf(&before), statusOf(req))
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Fulfill surte la solicitud ASSIGNED desde lotes. Cada ítem se valida con el lote bloqueado
// (los ítems del mismo lote se suman). Cualquier fallo deja todo sin aplicar. La solicitud pasa
// a FULFILLED cuando todas las líneas están completas; si no, sigue ASSIGNED.
func (w *TransferWorkflow) Fulfill(ctx context.Context, actor entity.Actor, id string, items []entity.FulfillItem) (*entity.TransferRequest, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.Invalid("line_items", "al menos un ítem")
	}
	for i, it := range items {
		if it.ProductID == "" || it.BatchID == "" {
			return nil, domain.Invalid("line_items", fmt.Sprintf("ítem %d sin producto o lote", i+1))
		}
		if it.Quantity <= 0 {
			return nil, domain.Invalid("line_items", fmt.Sprintf("ítem %d con cantidad no positiva", i+1))
		}
	}

	var req *entity.TransferRequest
	err := w.write(ctx, "inventory.FulfillTransfer", actor, func(s *txScope) error {
		var err error
		req, err = s.Transfers.GetForUpdate(ctx, actor.BusinessID, id)
		if err != nil {
			return err
		}
		if req.Status != entity.TransferAssigned {
			return &domain.StateTransitionError{Entity: "transfer_request", ID: req.ID, From: req.Status, To: entity.TransferFulfilled}
		}

		stocks, err := lockBatches(s, items)
		if err != nil {
			return err
		}

		drawn := make(map[string]int64)
		lineUsed := make(map[string]int64)
		for _, it := range items {
			stock := stocks[it.BatchID]
			if stock.Batch.ProductID != it.ProductID {
				return domain.Invalid("line_items", fmt.Sprintf("el lote %s no es del producto %s", it.BatchID, it.ProductID))
			}
			line, ok := req.Line(it.ProductID)
			if !ok {
				return domain.Invalid("line_items", "producto fuera de la solicitud: "+it.ProductID)
			}
			if lineUsed[it.ProductID]+it.Quantity > line.Remaining() {
				return domain.Invalid("line_items", fmt.Sprintf("la línea %d solo tiene %d pendientes", line.LineNo, line.Remaining()))
			}
			available := stock.OnHand - drawn[it.BatchID]
			if it.Quantity > available {
				b := stock.breakdown()
				b.Available = available
				b.Requested = it.Quantity
				b.WouldBe = available - it.Quantity
				return &domain.InsufficientStockError{ProductID: it.ProductID, LocationID: stock.Batch.WarehouseID, Breakdown: b}
			}
			drawn[it.BatchID] += it.Quantity
			lineUsed[it.ProductID] += it.Quantity
		}

		allocs, err := lockAllocations(s, req.StorefrontID, lineUsed)
		if err != nil {
			return err
		}
		before := snapshot(req)
		beforeQty := make(map[string]int64, len(allocs))
		for p, a := range allocs {
			beforeQty[p] = a.Quantity
		}

		for _, it := range items {
			line, _ := req.Line(it.ProductID)
			mov := &entity.TransferMovement{
				ID:           uuid.New().String(),
				BusinessID:   actor.BusinessID,
				RequestID:    req.ID,
				LineNo:       line.LineNo,
				ProductID:    it.ProductID,
				BatchID:      it.BatchID,
				StorefrontID: req.StorefrontID,
				Quantity:     it.Quantity,
				CreatedBy:    actor.UserID,
				CreatedAt:    s.now,
			}
			if err := s.Transfers.AddMovement(ctx, mov); err != nil {
				return err
			}
			line.FulfilledQuantity += it.Quantity
			allocs[it.ProductID].Quantity += it.Quantity
			s.emit(entity.LedgerEvent{
				Type:         entity.EventTransferFulfilled,
				ProductID:    it.ProductID,
				StorefrontID: req.StorefrontID,
				BatchID:      it.BatchID,
				EntityID:     req.ID,
				Quantity:     it.Quantity,
			})
		}
		if err := saveAllocations(s, allocs, beforeQty, "transfer"); err != nil {
			return err
		}
		for _, line := range req.Lines {
			if _, touched := lineUsed[line.ProductID]; !touched {
				continue
			}
			if err := s.Transfers.UpdateLine(ctx, req.ID, line); err != nil {
				return err
			}
		}

		action := "partially_fulfilled"
		if req.Complete() {
			req.Status = entity.TransferFulfilled
			req.FulfilledBy = actor.UserID
			action = "fulfilled"
		}
		req.UpdatedAt = s.now
		if err := s.Transfers.UpdateStatus(ctx, req); err != nil {
			return err
		}
		return s.audit(actor.BusinessID, "transfer_request", req.ID, action, before, req)
	})
	if err != nil {
		return nil, err
	}
	w.log.Tenant(actor.BusinessID).Debug().Str("transfer_id", id).
		Str("status", req.Status).Int("items", len(items)).Msg("traslado surtido")
	return req, nil
}

// Cancel NEW/ASSIGNED -> CANCELLED revirtiendo los movimientos ya aplicados (fila negativa +
// descuento de la asignación). Falla si la reversa dejaría una asignación bajo lo reservado.
func (w *TransferWorkflow) Cancel(ctx context.Context, actor entity.Actor, id string) (*entity.TransferRequest, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	var req *entity.TransferRequest
	err := w.write(ctx, "inventory.CancelTransfer", actor, func(s *txScope) error {
		var err error
		req, err = s.Transfers.GetForUpdate(ctx, actor.BusinessID, id)
		if err != nil {
			return err
		}
		if err := inventory.CheckTransfer(req.ID, req.Status, entity.TransferCancelled); err != nil {
			return err
		}
		movements, err := s.Transfers.ListMovements(ctx, actor.BusinessID, req.ID)
		if err != nil {
			return err
		}

		type source struct {
			lineNo    int
			productID string
			batchID   string
		}
		net := make(map[source]int64)
		var order []source
		perProduct := make(map[string]int64)
		for _, m := range movements {
			k := source{lineNo: m.LineNo, productID: m.ProductID, batchID: m.BatchID}
			if _, ok := net[k]; !ok {
				order = append(order, k)
			}
			net[k] += m.Quantity
			perProduct[m.ProductID] += m.Quantity
		}

		allocs, err := lockAllocations(s, req.StorefrontID, perProduct)
		if err != nil {
			return err
		}
		beforeQty := make(map[string]int64, len(allocs))
		for p, a := range allocs {
			reverse := perProduct[p]
			if reverse <= 0 {
				continue
			}
			reserved, err := s.Reservations.SumActive(ctx, actor.BusinessID, p, req.StorefrontID)
			if err != nil {
				return err
			}
			if a.Quantity-reverse < reserved {
				return &domain.InsufficientStockError{
					ProductID:  p,
					LocationID: req.StorefrontID,
					Breakdown: domain.StockBreakdown{
						OnHand:    a.Quantity,
						Reserved:  reserved,
						Available: a.Quantity - reserved,
						Requested: reverse,
						WouldBe:   a.Quantity - reverse,
					},
				}
			}
			beforeQty[p] = a.Quantity
		}

		before := snapshot(req)
		for _, k := range order {
			qty := net[k]
			if qty <= 0 {
				continue
			}
			mov := &entity.TransferMovement{
				ID:           uuid.New().String(),
				BusinessID:   actor.BusinessID,
				RequestID:    req.ID,
				LineNo:       k.lineNo,
				ProductID:    k.productID,
				BatchID:      k.batchID,
				StorefrontID: req.StorefrontID,
				Quantity:     -qty,
				CreatedBy:    actor.UserID,
				CreatedAt:    s.now,
			}
			if err := s.Transfers.AddMovement(ctx, mov); err != nil {
				return err
			}
			allocs[k.productID].Quantity -= qty
		}
		for p, reverse := range perProduct {
			if reverse <= 0 {
				delete(allocs, p)
				continue
			}
			s.emit(entity.LedgerEvent{
				Type:         entity.EventTransferCancelled,
				ProductID:    p,
				StorefrontID: req.StorefrontID,
				EntityID:     req.ID,
				Quantity:     -reverse,
			})
		}
		if err := saveAllocations(s, allocs, beforeQty, "transfer_cancel"); err != nil {
			return err
		}
		for i := range req.Lines {
			if req.Lines[i].FulfilledQuantity == 0 {
				continue
			}
			req.Lines[i].FulfilledQuantity = 0
			if err := s.Transfers.UpdateLine(ctx, req.ID, req.Lines[i]); err != nil {
				return err
			}
		}

		req.Status = entity.TransferCancelled
		req.UpdatedAt = s.now
		if err := s.Transfers.UpdateStatus(ctx, req); err != nil {
			return err
		}
		return s.audit(actor.BusinessID, "transfer_request", req.ID, "cancelled", before, req)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Override fija cualquier estado por decisión de un actor privilegiado. Sin efecto de stock.
// Salir de FULFILLED/CANCELLED exige allowTerminalExit.
func (w *TransferWorkflow) Override(ctx context.Context, actor entity.Actor, id, status string, allowTerminalExit bool) (*entity.TransferRequest, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	if !actor.Privileged() {
		return nil, fmt.Errorf("override transfer %s: %w", id, domain.ErrForbidden)
	}
	var req *entity.TransferRequest
	err := w.write(ctx, "inventory.OverrideTransfer", actor, func(s *txScope) error {
		var err error
		req, err = s.Transfers.GetForUpdate(ctx, actor.BusinessID, id)
		if err != nil {
			return err
		}
		if err := inventory.CheckTransferOverride(req.ID, req.Status, status, allowTerminalExit); err != nil {
			return err
		}
		before := *req
		req.Status = status
		req.UpdatedAt = s.now
		if err := s.Transfers.UpdateStatus(ctx, req); err != nil {
			return err
		}
		if err := s.audit(actor.BusinessID, "transfer_request", req.ID, "overridden", statusOf(&before), statusOf(req)); err != nil {
			return err
		}
		s.emit(entity.LedgerEvent{
			Type:         entity.EventTransferOverridden,
			StorefrontID: req.StorefrontID,
			EntityID:     req.ID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	w.log.Tenant(actor.BusinessID).Warn().Str("transfer_id", id).Str("actor_id", actor.UserID).
		Str("status", status).Msg("override manual de traslado")
	return req, nil
}

// Get devuelve la solicitud con sus movimientos.
func (w *TransferWorkflow) Get(ctx context.Context, actor entity.Actor, id string) (*entity.TransferRequest, []*entity.TransferMovement, error) {
	if err := checkActor(actor); err != nil {
		return nil, nil, err
	}
	var (
		req       *entity.TransferRequest
		movements []*entity.TransferMovement
	)
	err := w.read(ctx, "inventory.GetTransfer", actor, func(ctx context.Context, r Repos) error {
		var err error
		if req, err = r.Transfers.GetByID(ctx, actor.BusinessID, id); err != nil {
			return err
		}
		movements, err = r.Transfers.ListMovements(ctx, actor.BusinessID, id)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return req, movements, nil
}

// lockBatches bloquea los lotes de los ítems en orden de id y calcula su on-hand.
func lockBatches(s *txScope, items []entity.FulfillItem) (map[string]*BatchStock, error) {
	ids := make([]string, 0, len(items))
	seen := make(map[string]bool)
	for _, it := range items {
		if !seen[it.BatchID] {
			seen[it.BatchID] = true
			ids = append(ids, it.BatchID)
		}
	}
	sort.Strings(ids)
	out := make(map[string]*BatchStock, len(ids))
	for _, id := range ids {
		batch, err := s.Batches.GetForUpdate(s.ctx, s.actor.BusinessID, id)
		if err != nil {
			return nil, err
		}
		stock, err := loadBatchStock(s.ctx, s.Repos, batch)
		if err != nil {
			return nil, err
		}
		out[id] = stock
	}
	return out, nil
}

// lockAllocations bloquea las asignaciones de la tienda para los productos dados, en orden.
func lockAllocations(s *txScope, storefrontID string, products map[string]int64) (map[string]*entity.Allocation, error) {
	ids := make([]string, 0, len(products))
	for p := range products {
		ids = append(ids, p)
	}
	sort.Strings(ids)
	out := make(map[string]*entity.Allocation, len(ids))
	for _, p := range ids {
		a, err := s.Allocations.GetForUpdate(s.ctx, s.actor.BusinessID, p, storefrontID)
		if err != nil {
			return nil, err
		}
		out[p] = a
	}
	return out, nil
}

func saveAllocations(s *txScope, allocs map[string]*entity.Allocation, before map[string]int64, action string) error {
	ids := make([]string, 0, len(allocs))
	for p := range allocs {
		ids = append(ids, p)
	}
	sort.Strings(ids)
	for _, p := range ids {
		a := allocs[p]
		if a.Quantity < 0 {
			return &domain.InsufficientStockError{
				ProductID:  p,
				LocationID: a.StorefrontID,
				Breakdown:  domain.StockBreakdown{OnHand: before[p], WouldBe: a.Quantity},
			}
		}
		a.UpdatedAt = s.now
		if err := s.Allocations.Upsert(s.ctx, a); err != nil {
			return err
		}
		if err := s.auditAllocation(action, before[p], a); err != nil {
			return err
		}
	}
	return nil
}

// snapshot copia la solicitud con sus líneas para auditar el estado previo.
func snapshot(r *entity.TransferRequest) *entity.TransferRequest {
	c := *r
	c.Lines = append([]entity.TransferLine(nil), r.Lines...)
	return &c
}

type transferStatus struct {
	Status     string `json:"status"`
	AssignedTo string `json:"assigned_to,omitempty"`
}

func statusOf(r *entity.TransferRequest) transferStatus {
	return transferStatus{Status: r.Status, AssignedTo: r.AssignedTo}
}
