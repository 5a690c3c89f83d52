package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// AuditRepository bitácora de transiciones (append-only).
type AuditRepository interface {
	Append(ctx context.Context, e *entity.AuditEntry) error
	ListByEntity(ctx context.Context, businessID, entityType, entityID string) ([]*entity.AuditEntry, error)
}
