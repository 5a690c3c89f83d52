package sqlstore

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo solicitudes de traslado, sus líneas y los movimientos lote -> tienda.
type TransferRepo struct{ base }

type transferRow struct {
	ID           string `db:"id"`
	BusinessID   string `db:"business_id"`
	StorefrontID string `db:"storefront_id"`
	Status       string `db:"status"`
	Note         string `db:"note"`
	RequestedBy  string `db:"requested_by"`
	AssignedTo   string `db:"assigned_to"`
	FulfilledBy  string `db:"fulfilled_by"`
	CreatedAt    dbTime `db:"created_at"`
	UpdatedAt    dbTime `db:"updated_at"`
}

type transferLineRow struct {
	LineNo            int    `db:"line_no"`
	ProductID         string `db:"product_id"`
	RequestedQuantity int64  `db:"requested_quantity"`
	FulfilledQuantity int64  `db:"fulfilled_quantity"`
}

type movementRow struct {
	ID           string `db:"id"`
	BusinessID   string `db:"business_id"`
	RequestID    string `db:"request_id"`
	LineNo       int    `db:"line_no"`
	ProductID    string `db:"product_id"`
	BatchID      string `db:"batch_id"`
	StorefrontID string `db:"storefront_id"`
	Quantity     int64  `db:"quantity"`
	CreatedBy    string `db:"created_by"`
	CreatedAt    dbTime `db:"created_at"`
}

const (
	transferColumns = `id, business_id, storefront_id, status, note, requested_by, assigned_to, fulfilled_by, created_at, updated_at`
	movementColumns = `id, business_id, request_id, line_no, product_id, batch_id, storefront_id, quantity, created_by, created_at`
)

// Create inserta la solicitud con sus líneas.
func (r *TransferRepo) Create(ctx context.Context, req *entity.TransferRequest) error {
	_, err := r.exec(ctx, `
		INSERT INTO stock_transfer_requests (`+transferColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.BusinessID, req.StorefrontID, req.Status, req.Note, req.RequestedBy, req.AssignedTo,
		req.FulfilledBy, r.ts(req.CreatedAt), r.ts(req.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert transfer request: %w", err)
	}
	for _, l := range req.Lines {
		_, err := r.exec(ctx, `
			INSERT INTO stock_transfer_lines (request_id, line_no, product_id, requested_quantity, fulfilled_quantity)
			VALUES (?, ?, ?, ?, ?)`,
			req.ID, l.LineNo, l.ProductID, l.RequestedQuantity, l.FulfilledQuantity)
		if err != nil {
			return fmt.Errorf("insert transfer line: %w", err)
		}
	}
	return nil
}

// GetByID obtiene la solicitud con sus líneas.
func (r *TransferRepo) GetByID(ctx context.Context, businessID, id string) (*entity.TransferRequest, error) {
	return r.load(ctx, businessID, id, "")
}

// GetForUpdate obtiene la solicitud y bloquea su fila (SELECT FOR UPDATE).
func (r *TransferRepo) GetForUpdate(ctx context.Context, businessID, id string) (*entity.TransferRequest, error) {
	return r.load(ctx, businessID, id, r.d.LockClause)
}

func (r *TransferRepo) load(ctx context.Context, businessID, id, lock string) (*entity.TransferRequest, error) {
	var row transferRow
	err := r.get(ctx, &row, `SELECT `+transferColumns+` FROM stock_transfer_requests
		WHERE business_id = ? AND id = ?`+lock, businessID, id)
	if err != nil {
		return nil, notFound("transfer request", id, err)
	}
	var lines []transferLineRow
	err = r.sel(ctx, &lines, `SELECT line_no, product_id, requested_quantity, fulfilled_quantity
		FROM stock_transfer_lines WHERE request_id = ? ORDER BY line_no`, id)
	if err != nil {
		return nil, fmt.Errorf("list transfer lines: %w", err)
	}
	req := &entity.TransferRequest{
		ID:           row.ID,
		BusinessID:   row.BusinessID,
		StorefrontID: row.StorefrontID,
		Status:       row.Status,
		Note:         row.Note,
		RequestedBy:  row.RequestedBy,
		AssignedTo:   row.AssignedTo,
		FulfilledBy:  row.FulfilledBy,
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
		Lines:        make([]entity.TransferLine, 0, len(lines)),
	}
	for _, l := range lines {
		req.Lines = append(req.Lines, entity.TransferLine{
			LineNo:            l.LineNo,
			ProductID:         l.ProductID,
			RequestedQuantity: l.RequestedQuantity,
			FulfilledQuantity: l.FulfilledQuantity,
		})
	}
	return req, nil
}

// UpdateStatus guarda estado, responsables y fecha de actualización.
func (r *TransferRepo) UpdateStatus(ctx context.Context, req *entity.TransferRequest) error {
	_, err := r.exec(ctx, `UPDATE stock_transfer_requests
		SET status = ?, assigned_to = ?, fulfilled_by = ?, updated_at = ?
		WHERE business_id = ? AND id = ?`,
		req.Status, req.AssignedTo, req.FulfilledBy, r.ts(req.UpdatedAt), req.BusinessID, req.ID)
	if err != nil {
		return fmt.Errorf("update transfer request: %w", err)
	}
	return nil
}

// UpdateLine guarda la cantidad surtida de una línea.
func (r *TransferRepo) UpdateLine(ctx context.Context, requestID string, line entity.TransferLine) error {
	_, err := r.exec(ctx, `UPDATE stock_transfer_lines SET fulfilled_quantity = ?
		WHERE request_id = ? AND line_no = ?`, line.FulfilledQuantity, requestID, line.LineNo)
	if err != nil {
		return fmt.Errorf("update transfer line: %w", err)
	}
	return nil
}

// AddMovement inserta un movimiento (negativo = reversa).
func (r *TransferRepo) AddMovement(ctx context.Context, m *entity.TransferMovement) error {
	_, err := r.exec(ctx, `
		INSERT INTO stock_transfer_movements (`+movementColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.BusinessID, m.RequestID, m.LineNo, m.ProductID, m.BatchID, m.StorefrontID, m.Quantity,
		m.CreatedBy, r.ts(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert transfer movement: %w", err)
	}
	return nil
}

// ListMovements lista los movimientos de una solicitud en orden de registro.
func (r *TransferRepo) ListMovements(ctx context.Context, businessID, requestID string) ([]*entity.TransferMovement, error) {
	var rows []movementRow
	err := r.sel(ctx, &rows, `SELECT `+movementColumns+` FROM stock_transfer_movements
		WHERE business_id = ? AND request_id = ? ORDER BY created_at, id`, businessID, requestID)
	if err != nil {
		return nil, fmt.Errorf("list transfer movements: %w", err)
	}
	out := make([]*entity.TransferMovement, 0, len(rows))
	for _, m := range rows {
		out = append(out, &entity.TransferMovement{
			ID:           m.ID,
			BusinessID:   m.BusinessID,
			RequestID:    m.RequestID,
			LineNo:       m.LineNo,
			ProductID:    m.ProductID,
			BatchID:      m.BatchID,
			StorefrontID: m.StorefrontID,
			Quantity:     m.Quantity,
			CreatedBy:    m.CreatedBy,
			CreatedAt:    m.CreatedAt.Time,
		})
	}
	return out, nil
}

// SumTransferredFromBatch neto trasladado desde el lote, reversas incluidas.
func (r *TransferRepo) SumTransferredFromBatch(ctx context.Context, businessID, batchID string) (int64, error) {
	var sum int64
	err := r.get(ctx, &sum, `SELECT CAST(COALESCE(SUM(quantity), 0) AS BIGINT) FROM stock_transfer_movements
		WHERE business_id = ? AND batch_id = ?`, businessID, batchID)
	if err != nil {
		return 0, fmt.Errorf("sum transferred: %w", err)
	}
	return sum, nil
}

// LatestSourceBatch último lote que surtió el producto a la tienda ("" si ninguno).
func (r *TransferRepo) LatestSourceBatch(ctx context.Context, businessID, productID, storefrontID string) (string, error) {
	var batchID string
	err := r.get(ctx, &batchID, `SELECT batch_id FROM stock_transfer_movements
		WHERE business_id = ? AND product_id = ? AND storefront_id = ? AND quantity > 0
		ORDER BY created_at DESC, id DESC LIMIT 1`, businessID, productID, storefrontID)
	if err != nil {
		if isNoRows(err) {
			return "", nil
		}
		return "", fmt.Errorf("latest source batch: %w", err)
	}
	return batchID, nil
}
