package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// LedgerReader lecturas agregadas para conciliación. Debe ejecutarse dentro de una
// transacción de solo lectura para que todas las sumas vean la misma instantánea.
type LedgerReader interface {
	Totals(ctx context.Context, scope entity.ReconciliationScope) (*entity.LedgerTotals, error)
}
