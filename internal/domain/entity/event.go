package entity

import "time"

// Tipos de evento publicados después de cada commit.
const (
	EventBatchReceived       = "batch.received"
	EventReservationAcquired = "reservation.acquired"
	EventReservationReleased = "reservation.released"
	EventReservationExpired  = "reservation.expired"
	EventReservationConsumed = "reservation.consumed"
	EventAdjustmentCompleted = "adjustment.completed"
	EventAdjustmentRejected  = "adjustment.rejected"
	EventTransferFulfilled   = "transfer.fulfilled"
	EventTransferCancelled   = "transfer.cancelled"
	EventTransferOverridden  = "transfer.overridden"
)

// LedgerEvent hecho del libro publicado para consumidores externos (reportería).
type LedgerEvent struct {
	Type         string    `json:"type"`
	BusinessID   string    `json:"business_id"`
	ProductID    string    `json:"product_id,omitempty"`
	StorefrontID string    `json:"storefront_id,omitempty"`
	BatchID      string    `json:"batch_id,omitempty"`
	EntityID     string    `json:"entity_id"`
	Quantity     int64     `json:"quantity"`
	ActorID      string    `json:"actor_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}
