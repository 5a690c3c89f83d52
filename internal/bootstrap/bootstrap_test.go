package bootstrap_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/bootstrap"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func sqliteConfig(t *testing.T) *config.Config {
	return &config.Config{
		Store: config.StoreConfig{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "boot.db")},
		Ledger: config.LedgerConfig{
			ReservationTTL:    time.Minute,
			ReservationMaxTTL: time.Hour,
			TxRetries:         3,
		},
	}
}

func TestOpen_SQLiteArmaElLibro(t *testing.T) {
	ctx := context.Background()
	l, err := bootstrap.Open(ctx, sqliteConfig(t), logger.Nop())
	require.NoError(t, err)
	defer func() { assert.NoError(t, l.Close()) }()

	actor := entity.Actor{BusinessID: "b-1", UserID: "u-1", Role: entity.RoleBodeguero}
	b, err := l.Batches.RegisterIntake(ctx, actor, inventory.IntakeInput{
		ProductID: "p-1", WarehouseID: "w-1", Quantity: 4, UnitCost: decimal.NewFromInt(10),
	})
	require.NoError(t, err, "el almacén debe quedar migrado y operativo")

	rec, err := l.Reconciliation.Compute(ctx, actor, "p-1", b.ID, "")
	require.NoError(t, err)
	assert.EqualValues(t, 4, rec.Intake)
	assert.False(t, rec.Mismatch)
}

func TestOpen_DriverDesconocido(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Store.Driver = "mysql"
	_, err := bootstrap.Open(context.Background(), cfg, logger.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql")
}
