package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestSwaggerRegistrado(t *testing.T) {
	doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var parsed struct {
		Paths map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed), "el documento debe ser JSON válido")
	assert.Contains(t, parsed.Paths, "/api/adjustments/{id}/approve")
	assert.Contains(t, parsed.Paths, "/api/products/{id}/reconciliation")
	assert.Contains(t, parsed.Paths["/api/transfer-requests/{id}/fulfill"], "post")
}
