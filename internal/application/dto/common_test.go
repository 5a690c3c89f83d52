package dto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
)

func TestListQuery_Normalize(t *testing.T) {
	cases := []struct {
		name string
		in   dto.ListQuery
		want dto.ListQuery
	}{
		{"vacío usa valores por defecto", dto.ListQuery{}, dto.ListQuery{Limit: dto.DefaultLimit}},
		{"límite acotado", dto.ListQuery{Limit: 500, Offset: 40}, dto.ListQuery{Limit: dto.MaxLimit, Offset: 40}},
		{"offset negativo", dto.ListQuery{Limit: 5, Offset: -3}, dto.ListQuery{Limit: 5}},
		{"estado en mayúsculas", dto.ListQuery{Status: " pending ", Product: "p1"}, dto.ListQuery{Status: "PENDING", Product: "p1", Limit: dto.DefaultLimit}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.in.Normalize())
		})
	}
}
