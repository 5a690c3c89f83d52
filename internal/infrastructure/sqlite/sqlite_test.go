package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/sqlstore"
)

func TestOpenAppliesMigrationsOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	db, err := Open(ctx, path)
	require.NoError(t, err)
	var applied int
	require.NoError(t, db.GetContext(ctx, &applied, `SELECT COUNT(*) FROM schema_migrations`))
	assert.Equal(t, 2, applied)
	require.NoError(t, db.Close())

	db, err = Open(ctx, path)
	require.NoError(t, err, "reabrir no debe reaplicar migraciones")
	defer db.Close()
	require.NoError(t, db.GetContext(ctx, &applied, `SELECT COUNT(*) FROM schema_migrations`))
	assert.Equal(t, 2, applied)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	require.Error(t, err)
}

func TestDuplicateKeyIsConflict(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer db.Close()

	insert := `INSERT INTO stock_batches (id, business_id, product_id, warehouse_id, intake_quantity, unit_cost, reference, created_by, created_at)
		VALUES ('b1', 'biz', 'p1', 'w1', 10, '1.5', '', 'u1', 0)`
	_, err = db.ExecContext(ctx, insert)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, insert)
	require.Error(t, err)
	assert.ErrorIs(t, classify(err), domain.ErrConflict)
}

func TestSaleItemPerReservationIsUnique(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer db.Close()

	insert := `INSERT INTO stock_sale_items (id, business_id, product_id, storefront_id, quantity, batch_id, sale_id, reservation_id, created_by, created_at)
		VALUES (?, 'biz', 'p1', 's1', 1, '', ?, ?, 'u1', 0)`
	_, err = db.ExecContext(ctx, insert, "si-1", "sale-1", "res-1")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, insert, "si-2", "sale-2", "res-1")
	require.Error(t, err, "una reserva no genera dos ítems de venta")
	assert.ErrorIs(t, classify(err), domain.ErrConflict)

	_, err = db.ExecContext(ctx, insert, "si-3", "sale-3", "")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, insert, "si-4", "sale-4", "")
	require.NoError(t, err, "ventas sin reserva no se restringen")
}

func TestBatchesAreInsertOnly(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx, `INSERT INTO stock_batches (id, business_id, product_id, warehouse_id, intake_quantity, unit_cost, reference, created_by, created_at)
		VALUES ('b1', 'biz', 'p1', 'w1', 10, '1.5', '', 'u1', 0)`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `UPDATE stock_batches SET intake_quantity = 20 WHERE id = 'b1'`)
	require.Error(t, err, "el ingreso registrado no se edita")
	_, err = db.ExecContext(ctx, `DELETE FROM stock_batches WHERE id = 'b1'`)
	require.Error(t, err)
}

func TestClassifyPassesThroughForeignErrors(t *testing.T) {
	plain := errors.New("boom")
	assert.Same(t, plain, classify(plain))
	assert.Equal(t, "sqlite", Dialect().Name)
	assert.Equal(t, sqlstore.Dialect{}.LockClause, Dialect().LockClause)
}
