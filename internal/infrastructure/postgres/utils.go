package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/sqlstore"
)

// Códigos SQLSTATE relevantes.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// Dialect dialecto PostgreSQL del store: bloqueo de fila explícito y TIMESTAMPTZ nativo.
func Dialect() sqlstore.Dialect {
	return sqlstore.Dialect{
		Name:       "postgres",
		LockClause: " FOR UPDATE",
		ReadOnly:   ReadOnlyTx,
		Time:       func(t time.Time) any { return t },
		Classify:   classify,
	}
}

// classify traduce errores de PostgreSQL: contención -> ConcurrentModificationError (reintentable),
// unicidad -> ErrConflict.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return &domain.ConcurrentModificationError{Op: "postgres", Err: err}
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s", domain.ErrConflict, pgErr.ConstraintName)
	}
	return err
}
