// Package sqlstore implementa los repositorios del libro de stock sobre sqlx. La misma
// implementación sirve a PostgreSQL y a SQLite; las diferencias viven en Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Ensure Store implements inventory.TxRunner.
var _ inventory.TxRunner = (*Store)(nil)

// Dialect diferencias entre motores.
type Dialect struct {
	// Name también es el subdirectorio de migraciones.
	Name string
	// LockClause se agrega a las lecturas que bloquean fila (" FOR UPDATE"); vacío si el motor
	// serializa escritores por sí mismo.
	LockClause string
	// ReadOnly opciones de la transacción de conciliación; nil = por defecto.
	ReadOnly *sql.TxOptions
	// Time convierte un instante al tipo de columna del motor.
	Time func(time.Time) any
	// Classify traduce errores del driver a errores de dominio (contención, unicidad).
	Classify func(error) error
}

func (d Dialect) classify(err error) error {
	if err == nil || d.Classify == nil || errors.Is(err, domain.ErrConcurrentModification) {
		return err
	}
	return d.Classify(err)
}

// Querier operaciones comunes a *sqlx.DB y *sqlx.Tx.
type Querier interface {
	sqlx.ExtContext
}

// Store ejecuta callbacks dentro de transacciones con repositorios atados a la tx.
type Store struct {
	db      *sqlx.DB
	dialect Dialect
	retries int
	log     *logger.Logger
}

// New construye el store. retries es el número de reintentos ante contención.
func New(db *sqlx.DB, dialect Dialect, retries int, log *logger.Logger) *Store {
	if retries < 0 {
		retries = 0
	}
	return &Store{db: db, dialect: dialect, retries: retries, log: log.Component("sqlstore")}
}

// DB devuelve el handle subyacente.
func (s *Store) DB() *sqlx.DB { return s.db }

// Dialect devuelve el dialecto del store.
func (s *Store) Dialect() Dialect { return s.dialect }

// Close cierra la conexión.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Ante serialización fallida, deadlock o timeout de lock reintenta hasta retries veces y luego
// devuelve ConcurrentModificationError.
func (s *Store) Run(ctx context.Context, fn func(r inventory.Repos) error) error {
	for attempt := 0; ; attempt++ {
		err := s.runOnce(ctx, nil, fn)
		if err == nil || !errors.Is(err, domain.ErrConcurrentModification) || attempt >= s.retries {
			return err
		}
		s.log.Debug().Err(err).Int("attempt", attempt+1).Msg("reintentando transacción por contención")
		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(attempt+1) * 15 * time.Millisecond):
		}
	}
}

// RunReadOnly ejecuta fn en una transacción de solo lectura (instantánea única).
func (s *Store) RunReadOnly(ctx context.Context, fn func(r inventory.Repos) error) error {
	return s.runOnce(ctx, s.dialect.ReadOnly, fn)
}

func (s *Store) runOnce(ctx context.Context, opts *sql.TxOptions, fn func(r inventory.Repos) error) error {
	tx, err := s.db.BeginTxx(ctx, opts)
	if err != nil {
		return s.dialect.classify(fmt.Errorf("begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(s.Repos(tx)); err != nil {
		return s.dialect.classify(err)
	}
	if err := tx.Commit(); err != nil {
		return s.dialect.classify(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// Repos construye los repositorios sobre q (pool o tx).
func (s *Store) Repos(q Querier) inventory.Repos {
	b := base{q: q, d: s.dialect}
	return inventory.Repos{
		Batches:      &BatchRepo{b},
		Allocations:  &AllocationRepo{b},
		Reservations: &ReservationRepo{b},
		Adjustments:  &AdjustmentRepo{b},
		Transfers:    &TransferRepo{b},
		Sales:        &SaleRepo{b},
		Audit:        &AuditRepo{b},
		Ledger:       &LedgerReader{b},
	}
}

// base helpers compartidos por los repositorios.
type base struct {
	q Querier
	d Dialect
}

func (b base) get(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, b.q, dest, b.q.Rebind(query), args...)
}

func (b base) sel(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, b.q, dest, b.q.Rebind(query), args...)
}

func (b base) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return b.q.ExecContext(ctx, b.q.Rebind(query), args...)
}

func (b base) ts(t time.Time) any {
	return b.d.Time(t.UTC())
}

func (b base) nullTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return b.ts(*t)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func timeNow() time.Time {
	return time.Now().UTC()
}

func notFound(what, id string, err error) error {
	if isNoRows(err) {
		return fmt.Errorf("%s %s: %w", what, id, domain.ErrNotFound)
	}
	return fmt.Errorf("get %s: %w", what, err)
}
