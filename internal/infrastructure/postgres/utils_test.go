package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

func TestClassify(t *testing.T) {
	for _, code := range []string{codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable} {
		err := classify(fmt.Errorf("update allocation: %w", &pgconn.PgError{Code: code}))
		assert.ErrorIs(t, err, domain.ErrConcurrentModification, "code %s debe ser reintentable", code)
	}

	err := classify(&pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "stock_batches_pkey"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), "stock_batches_pkey")

	plain := errors.New("boom")
	assert.Same(t, plain, classify(plain), "errores ajenos al driver pasan intactos")

	other := &pgconn.PgError{Code: "42P01"}
	assert.Equal(t, error(other), classify(other))
}

func TestDialect(t *testing.T) {
	d := Dialect()
	assert.Equal(t, "postgres", d.Name)
	assert.Equal(t, " FOR UPDATE", d.LockClause)
	assert.True(t, d.ReadOnly.ReadOnly)
}

func TestIPv4Dialer_Resolve(t *testing.T) {
	failing := func(context.Context, string) ([]net.IP, error) { return nil, errors.New("dns caído") }
	onlyV6 := func(context.Context, string) ([]net.IP, error) { return []net.IP{net.ParseIP("2001:db8::1")}, nil }
	v4 := func(context.Context, string) ([]net.IP, error) {
		return []net.IP{net.ParseIP("2001:db8::1"), net.ParseIP("10.0.0.7")}, nil
	}
	ctx := context.Background()

	d := &ipv4Dialer{lookups: []lookupFunc{failing, onlyV6, v4}}
	ip, err := d.resolve(ctx, "db.internal")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.7", ip, "se usa el primer resolver que devuelva IPv4")

	ip, err = d.resolve(ctx, "192.168.1.10")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.10", ip, "una IPv4 literal no se resuelve")

	_, err = d.resolve(ctx, "::1")
	assert.ErrorIs(t, err, errNoIPv4)

	d = &ipv4Dialer{lookups: []lookupFunc{failing, onlyV6}}
	_, err = d.resolve(ctx, "db.internal")
	assert.ErrorIs(t, err, errNoIPv4)
}
