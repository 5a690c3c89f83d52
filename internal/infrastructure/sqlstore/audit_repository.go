package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo bitácora append-only.
type AuditRepo struct{ base }

type auditRow struct {
	ID         string         `db:"id"`
	BusinessID string         `db:"business_id"`
	EntityType string         `db:"entity_type"`
	EntityID   string         `db:"entity_id"`
	Action     string         `db:"action"`
	ActorID    string         `db:"actor_id"`
	Before     sql.NullString `db:"before_data"`
	After      sql.NullString `db:"after_data"`
	CreatedAt  dbTime         `db:"created_at"`
}

const auditColumns = `id, business_id, entity_type, entity_id, action, actor_id, before_data, after_data, created_at`

func jsonArg(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func rawJSON(s sql.NullString) json.RawMessage {
	if !s.Valid || s.String == "" {
		return nil
	}
	return json.RawMessage(s.String)
}

// Append inserta una entrada.
func (r *AuditRepo) Append(ctx context.Context, e *entity.AuditEntry) error {
	_, err := r.exec(ctx, `
		INSERT INTO stock_audit_log (`+auditColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.BusinessID, e.EntityType, e.EntityID, e.Action, e.ActorID,
		jsonArg(e.Before), jsonArg(e.After), r.ts(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListByEntity lista la historia de una entidad en orden cronológico.
func (r *AuditRepo) ListByEntity(ctx context.Context, businessID, entityType, entityID string) ([]*entity.AuditEntry, error) {
	var rows []auditRow
	err := r.sel(ctx, &rows, `SELECT `+auditColumns+` FROM stock_audit_log
		WHERE business_id = ? AND entity_type = ? AND entity_id = ?
		ORDER BY created_at, id`, businessID, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	out := make([]*entity.AuditEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, &entity.AuditEntry{
			ID:         row.ID,
			BusinessID: row.BusinessID,
			EntityType: row.EntityType,
			EntityID:   row.EntityID,
			Action:     row.Action,
			ActorID:    row.ActorID,
			Before:     rawJSON(row.Before),
			After:      rawJSON(row.After),
			CreatedAt:  row.CreatedAt.Time,
		})
	}
	return out, nil
}
