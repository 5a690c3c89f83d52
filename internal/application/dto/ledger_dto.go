package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// IntakeRequest body para POST /api/batches.
type IntakeRequest struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    int64           `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Reference   string          `json:"reference"`
}

// BatchResponse salida de un lote.
type BatchResponse struct {
	ID             string          `json:"id"`
	BusinessID     string          `json:"business_id"`
	ProductID      string          `json:"product_id"`
	WarehouseID    string          `json:"warehouse_id"`
	IntakeQuantity int64           `json:"intake_quantity"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	Reference      string          `json:"reference,omitempty"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
}

// BatchStockResponse on-hand derivado de un lote.
type BatchStockResponse struct {
	Batch       BatchResponse `json:"batch"`
	Transferred int64         `json:"transferred"`
	Shrinkage   int64         `json:"shrinkage"`
	Corrections int64         `json:"corrections"`
	OnHand      int64         `json:"on_hand"`
}

// AcquireReservationRequest body para POST /api/reservations. TTLSeconds <= 0 usa el valor configurado.
type AcquireReservationRequest struct {
	ProductID    string `json:"product_id"`
	StorefrontID string `json:"storefront_id"`
	Quantity     int64  `json:"quantity"`
	CartRef      string `json:"cart_ref"`
	TTLSeconds   int64  `json:"ttl_seconds,omitempty"`
}

// ConsumeReservationRequest body para POST /api/reservations/:id/consume.
type ConsumeReservationRequest struct {
	SaleID string `json:"sale_id"`
}

// ReservationResponse salida de una reserva.
type ReservationResponse struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id"`
	StorefrontID string    `json:"storefront_id"`
	Quantity     int64     `json:"quantity"`
	CartRef      string    `json:"cart_ref"`
	Status       string    `json:"status"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ReleaseCartResponse cantidad de reservas liberadas de un carrito.
type ReleaseCartResponse struct {
	CartRef  string `json:"cart_ref"`
	Released int    `json:"released"`
}

// CompleteSaleRequest body para POST /api/sales/complete.
type CompleteSaleRequest struct {
	SaleID         string   `json:"sale_id"`
	PaymentRef     string   `json:"payment_ref"`
	PaymentStatus  string   `json:"payment_status"`
	ReservationIDs []string `json:"reservation_ids"`
	Force          bool     `json:"force,omitempty"`
}

// SaleItemResponse salida de un ítem vendido.
type SaleItemResponse struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	StorefrontID  string    `json:"storefront_id"`
	Quantity      int64     `json:"quantity"`
	BatchID       string    `json:"batch_id,omitempty"`
	SaleID        string    `json:"sale_id"`
	ReservationID string    `json:"reservation_id,omitempty"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// SaleResponse venta completada con su pago.
type SaleResponse struct {
	SaleID        string             `json:"sale_id"`
	Items         []SaleItemResponse `json:"items"`
	PaymentRef    string             `json:"payment_ref,omitempty"`
	PaymentStatus string             `json:"payment_status,omitempty"`
}

// ReturnRequest body para POST /api/sales/returns.
type ReturnRequest struct {
	SaleItemID string `json:"sale_item_id"`
	Quantity   int64  `json:"quantity"`
	Reason     string `json:"reason"`
}

// CreateAdjustmentRequest body para POST /api/adjustments.
// TargetType BATCH requiere batch_id; ALLOCATION requiere product_id y storefront_id.
type CreateAdjustmentRequest struct {
	TargetType   string `json:"target_type"`
	BatchID      string `json:"batch_id,omitempty"`
	ProductID    string `json:"product_id,omitempty"`
	StorefrontID string `json:"storefront_id,omitempty"`
	Type         string `json:"type"`
	Quantity     int64  `json:"quantity"`
	Reason       string `json:"reason"`
}

// AdjustmentResponse salida de un ajuste.
type AdjustmentResponse struct {
	ID                string     `json:"id"`
	TargetType        string     `json:"target_type"`
	BatchID           string     `json:"batch_id,omitempty"`
	ProductID         string     `json:"product_id,omitempty"`
	StorefrontID      string     `json:"storefront_id,omitempty"`
	Type              string     `json:"type"`
	Quantity          int64      `json:"quantity"`
	RequestedQuantity int64      `json:"requested_quantity"`
	Reason            string     `json:"reason"`
	Status            string     `json:"status"`
	QuantityBefore    int64      `json:"quantity_before"`
	SaleItemID        string     `json:"sale_item_id,omitempty"`
	CreatedBy         string     `json:"created_by"`
	DecidedBy         string     `json:"decided_by,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	DecidedAt         *time.Time `json:"decided_at,omitempty"`
}

// AdjustmentListResponse lista paginada de ajustes.
type AdjustmentListResponse struct {
	Items []AdjustmentResponse `json:"items"`
	Page  PageResponse         `json:"page"`
}

// ApprovalResponse ajuste aplicado con el delta efectivo.
type ApprovalResponse struct {
	Adjustment   AdjustmentResponse `json:"adjustment"`
	AppliedDelta int64              `json:"applied_delta"`
	OnHandBefore int64              `json:"on_hand_before"`
	OnHandAfter  int64              `json:"on_hand_after"`
}

// TransferLineRequest línea de una solicitud de traslado.
type TransferLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// CreateTransferRequest body para POST /api/transfer-requests.
type CreateTransferRequest struct {
	StorefrontID string                `json:"storefront_id"`
	Lines        []TransferLineRequest `json:"lines"`
	Note         string                `json:"note,omitempty"`
}

// AssignTransferRequest body para POST /api/transfer-requests/:id/assign.
type AssignTransferRequest struct {
	Assignee string `json:"assignee"`
}

// FulfillItemRequest qué lote abastece cuánto de un producto.
type FulfillItemRequest struct {
	ProductID string `json:"product_id"`
	BatchID   string `json:"batch_id"`
	Quantity  int64  `json:"quantity"`
}

// FulfillTransferRequest body para POST /api/transfer-requests/:id/fulfill.
type FulfillTransferRequest struct {
	Items []FulfillItemRequest `json:"items"`
}

// OverrideTransferRequest body para POST /api/transfer-requests/:id/override (solo admin).
type OverrideTransferRequest struct {
	Status            string `json:"status"`
	AllowTerminalExit bool   `json:"allow_terminal_exit,omitempty"`
}

// TransferLineResponse línea con su avance.
type TransferLineResponse struct {
	LineNo            int    `json:"line_no"`
	ProductID         string `json:"product_id"`
	RequestedQuantity int64  `json:"requested_quantity"`
	FulfilledQuantity int64  `json:"fulfilled_quantity"`
}

// TransferMovementResponse hecho lote -> tienda.
type TransferMovementResponse struct {
	ID        string    `json:"id"`
	LineNo    int       `json:"line_no"`
	ProductID string    `json:"product_id"`
	BatchID   string    `json:"batch_id"`
	Quantity  int64     `json:"quantity"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// TransferResponse salida de una solicitud de traslado.
type TransferResponse struct {
	ID           string                     `json:"id"`
	StorefrontID string                     `json:"storefront_id"`
	Status       string                     `json:"status"`
	Lines        []TransferLineResponse     `json:"lines"`
	Note         string                     `json:"note,omitempty"`
	RequestedBy  string                     `json:"requested_by"`
	AssignedTo   string                     `json:"assigned_to,omitempty"`
	FulfilledBy  string                     `json:"fulfilled_by,omitempty"`
	Movements    []TransferMovementResponse `json:"movements,omitempty"`
	CreatedAt    time.Time                  `json:"created_at"`
	UpdatedAt    time.Time                  `json:"updated_at"`
}

// ToBatchResponse mapea un lote a su salida.
func ToBatchResponse(b *entity.Batch) BatchResponse {
	return BatchResponse{
		ID:             b.ID,
		BusinessID:     b.BusinessID,
		ProductID:      b.ProductID,
		WarehouseID:    b.WarehouseID,
		IntakeQuantity: b.IntakeQuantity,
		UnitCost:       b.UnitCost,
		Reference:      b.Reference,
		CreatedBy:      b.CreatedBy,
		CreatedAt:      b.CreatedAt,
	}
}

// ToReservationResponse mapea una reserva a su salida.
func ToReservationResponse(r *entity.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:           r.ID,
		ProductID:    r.ProductID,
		StorefrontID: r.StorefrontID,
		Quantity:     r.Quantity,
		CartRef:      r.CartRef,
		Status:       r.Status,
		ExpiresAt:    r.ExpiresAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// ToSaleItemResponse mapea un ítem vendido.
func ToSaleItemResponse(i *entity.SaleItem) SaleItemResponse {
	return SaleItemResponse{
		ID:            i.ID,
		ProductID:     i.ProductID,
		StorefrontID:  i.StorefrontID,
		Quantity:      i.Quantity,
		BatchID:       i.BatchID,
		SaleID:        i.SaleID,
		ReservationID: i.ReservationID,
		CreatedBy:     i.CreatedBy,
		CreatedAt:     i.CreatedAt,
	}
}

// ToAdjustmentResponse mapea un ajuste.
func ToAdjustmentResponse(a *entity.Adjustment) AdjustmentResponse {
	return AdjustmentResponse{
		ID:                a.ID,
		TargetType:        a.Target.Kind,
		BatchID:           a.Target.BatchID,
		ProductID:         a.Target.ProductID,
		StorefrontID:      a.Target.StorefrontID,
		Type:              string(a.Type),
		Quantity:          a.Quantity,
		RequestedQuantity: a.RequestedQuantity,
		Reason:            a.Reason,
		Status:            a.Status,
		QuantityBefore:    a.QuantityBefore,
		SaleItemID:        a.SaleItemID,
		CreatedBy:         a.CreatedBy,
		DecidedBy:         a.DecidedBy,
		CreatedAt:         a.CreatedAt,
		DecidedAt:         a.DecidedAt,
	}
}

// ToTransferResponse mapea una solicitud y, si se pasan, sus movimientos.
func ToTransferResponse(r *entity.TransferRequest, movements []*entity.TransferMovement) TransferResponse {
	out := TransferResponse{
		ID:           r.ID,
		StorefrontID: r.StorefrontID,
		Status:       r.Status,
		Lines:        make([]TransferLineResponse, 0, len(r.Lines)),
		Note:         r.Note,
		RequestedBy:  r.RequestedBy,
		AssignedTo:   r.AssignedTo,
		FulfilledBy:  r.FulfilledBy,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	for _, l := range r.Lines {
		out.Lines = append(out.Lines, TransferLineResponse{
			LineNo:            l.LineNo,
			ProductID:         l.ProductID,
			RequestedQuantity: l.RequestedQuantity,
			FulfilledQuantity: l.FulfilledQuantity,
		})
	}
	for _, m := range movements {
		out.Movements = append(out.Movements, TransferMovementResponse{
			ID:        m.ID,
			LineNo:    m.LineNo,
			ProductID: m.ProductID,
			BatchID:   m.BatchID,
			Quantity:  m.Quantity,
			CreatedBy: m.CreatedBy,
			CreatedAt: m.CreatedAt,
		})
	}
	return out
}
