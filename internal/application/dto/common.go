package dto

import (
	"strings"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// Límites de página de los listados.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ListQuery filtros y página de un listado (?status=&product=&limit=&offset=).
type ListQuery struct {
	Status  string `query:"status"`
	Product string `query:"product"`
	Limit   int    `query:"limit"`
	Offset  int    `query:"offset"`
}

// Normalize estado en mayúsculas y página acotada a [1, MaxLimit].
func (q ListQuery) Normalize() ListQuery {
	q.Status = strings.ToUpper(strings.TrimSpace(q.Status))
	switch {
	case q.Limit <= 0:
		q.Limit = DefaultLimit
	case q.Limit > MaxLimit:
		q.Limit = MaxLimit
	}
	q.Offset = max(q.Offset, 0)
	return q
}

// PageResponse metadatos de página. Returned es el tamaño de la página devuelta.
type PageResponse struct {
	Limit    int `json:"limit"`
	Offset   int `json:"offset"`
	Returned int `json:"returned"`
}

// ErrorResponse cuerpo de error HTTP. Breakdown acompaña a los errores de stock.
type ErrorResponse struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Breakdown *domain.StockBreakdown `json:"breakdown,omitempty"`
}
