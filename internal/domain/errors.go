package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrForbidden              = errors.New("acceso denegado")
	ErrConflict               = errors.New("conflicto con el estado actual")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrNegativeStock          = errors.New("el ajuste dejaría stock negativo")
	ErrConcurrentModification = errors.New("modificación concurrente, reintente")
	ErrStateTransition        = errors.New("transición de estado no permitida")
	ErrReservationExpired     = errors.New("la reserva ya no está activa")
	ErrStockUnavailable       = errors.New("stock no disponible para completar la venta")
)

// StockBreakdown desglose de cantidades que acompaña a los errores de stock para que el
// llamador pueda diagnosticar sin otra consulta.
type StockBreakdown struct {
	Intake           int64 `json:"intake"`
	PriorAdjustments int64 `json:"prior_adjustments"`
	Transferred      int64 `json:"transferred"`
	Sold             int64 `json:"sold"`
	Reserved         int64 `json:"reserved"`
	OnHand           int64 `json:"on_hand"`
	Available        int64 `json:"available"`
	Requested        int64 `json:"requested"`
	WouldBe          int64 `json:"would_be"`
}

// ValidationError entrada mal formada; no reintentable sin corregir.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "entrada inválida: " + e.Reason
	}
	return fmt.Sprintf("entrada inválida: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// Invalid atajo para construir un ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// InsufficientStockError la operación excedería la cantidad disponible.
type InsufficientStockError struct {
	ProductID  string
	LocationID string
	Breakdown  StockBreakdown
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s en %s: disponible %d, solicitado %d",
		e.ProductID, e.LocationID, e.Breakdown.Available, e.Breakdown.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// NegativeStockError aprobar el ajuste dejaría el on-hand negativo o por debajo de lo reservado.
type NegativeStockError struct {
	AdjustmentID string
	Breakdown    StockBreakdown
}

func (e *NegativeStockError) Error() string {
	return fmt.Sprintf("ajuste %s: on-hand %d con delta %d quedaría en %d (reservado %d)",
		e.AdjustmentID, e.Breakdown.OnHand, e.Breakdown.Requested, e.Breakdown.WouldBe, e.Breakdown.Reserved)
}

func (e *NegativeStockError) Is(target error) bool { return target == ErrNegativeStock }

// ConcurrentModificationError contención de bloqueo o lectura obsoleta; reintentable.
type ConcurrentModificationError struct {
	Op  string
	Err error
}

func (e *ConcurrentModificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: modificación concurrente: %v", e.Op, e.Err)
	}
	return e.Op + ": modificación concurrente"
}

func (e *ConcurrentModificationError) Is(target error) bool {
	return target == ErrConcurrentModification
}

func (e *ConcurrentModificationError) Unwrap() error { return e.Err }

// StateTransitionError transición ilegal en una máquina de estados.
type StateTransitionError struct {
	Entity string
	ID     string
	From   string
	To     string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("%s %s: transición %s -> %s no permitida", e.Entity, e.ID, e.From, e.To)
}

func (e *StateTransitionError) Is(target error) bool { return target == ErrStateTransition }

// ReservationExpiredError la reserva no estaba ACTIVE (o venció) al consumirla.
type ReservationExpiredError struct {
	ReservationID string
	Status        string
}

func (e *ReservationExpiredError) Error() string {
	return fmt.Sprintf("reserva %s no está activa (estado %s)", e.ReservationID, e.Status)
}

func (e *ReservationExpiredError) Is(target error) bool { return target == ErrReservationExpired }

// StockUnavailableError una venta forzada sobre una reserva vencida no tiene stock disponible.
type StockUnavailableError struct {
	ReservationID string
	Breakdown     StockBreakdown
}

func (e *StockUnavailableError) Error() string {
	return fmt.Sprintf("reserva %s vencida y sin stock disponible: disponible %d, requerido %d",
		e.ReservationID, e.Breakdown.Available, e.Breakdown.Requested)
}

func (e *StockUnavailableError) Is(target error) bool { return target == ErrStockUnavailable }

// BreakdownOf extrae el desglose de un error de stock, si lo tiene.
func BreakdownOf(err error) (StockBreakdown, bool) {
	var ins *InsufficientStockError
	if errors.As(err, &ins) {
		return ins.Breakdown, true
	}
	var neg *NegativeStockError
	if errors.As(err, &neg) {
		return neg.Breakdown, true
	}
	var un *StockUnavailableError
	if errors.As(err, &un) {
		return un.Breakdown, true
	}
	return StockBreakdown{}, false
}
