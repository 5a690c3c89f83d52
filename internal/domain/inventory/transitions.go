package inventory

import (
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Tablas de transición fijas. Un estado sin entrada es terminal.
var (
	reservationTransitions = map[string][]string{
		entity.ReservationActive: {entity.ReservationReleased, entity.ReservationConsumed},
	}
	adjustmentTransitions = map[string][]string{
		entity.AdjustmentPending:  {entity.AdjustmentApproved, entity.AdjustmentRejected},
		entity.AdjustmentApproved: {entity.AdjustmentCompleted},
	}
	transferTransitions = map[string][]string{
		entity.TransferNew:      {entity.TransferAssigned, entity.TransferCancelled},
		entity.TransferAssigned: {entity.TransferFulfilled, entity.TransferCancelled},
	}
)

func allowed(table map[string][]string, from, to string) bool {
	for _, s := range table[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CheckReservation valida una transición de reserva.
func CheckReservation(id, from, to string) error {
	if !allowed(reservationTransitions, from, to) {
		return &domain.StateTransitionError{Entity: "reservation", ID: id, From: from, To: to}
	}
	return nil
}

// CheckAdjustment valida una transición de ajuste.
func CheckAdjustment(id, from, to string) error {
	if !allowed(adjustmentTransitions, from, to) {
		return &domain.StateTransitionError{Entity: "adjustment", ID: id, From: from, To: to}
	}
	return nil
}

// CheckApproval valida el camino completo PENDING -> APPROVED -> COMPLETED, que se aplica en un
// solo paso: no existe un estado confirmado "aprobado pero sin aplicar".
func CheckApproval(id, from string) error {
	if err := CheckAdjustment(id, from, entity.AdjustmentApproved); err != nil {
		return &domain.StateTransitionError{Entity: "adjustment", ID: id, From: from, To: entity.AdjustmentCompleted}
	}
	return CheckAdjustment(id, entity.AdjustmentApproved, entity.AdjustmentCompleted)
}

// CheckTransfer valida una transición normal del flujo de traslado.
func CheckTransfer(id, from, to string) error {
	if !allowed(transferTransitions, from, to) {
		return &domain.StateTransitionError{Entity: "transfer_request", ID: id, From: from, To: to}
	}
	return nil
}

// CheckTransferOverride valida un override manual: cualquier estado conocido es destino válido,
// pero salir de un estado terminal exige allowTerminalExit.
func CheckTransferOverride(id, from, to string, allowTerminalExit bool) error {
	if !ValidTransferStatus(to) {
		return domain.Invalid("status", "estado de traslado desconocido: "+to)
	}
	if TerminalTransfer(from) && from != to && !allowTerminalExit {
		return &domain.StateTransitionError{Entity: "transfer_request", ID: id, From: from, To: to}
	}
	return nil
}

// ValidTransferStatus indica si s pertenece al conjunto cerrado de estados.
func ValidTransferStatus(s string) bool {
	switch s {
	case entity.TransferNew, entity.TransferAssigned, entity.TransferFulfilled, entity.TransferCancelled:
		return true
	}
	return false
}

// TerminalTransfer indica si el estado es terminal (FULFILLED o CANCELLED).
func TerminalTransfer(s string) bool {
	return len(transferTransitions[s]) == 0
}
