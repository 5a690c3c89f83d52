// Package bootstrap arma el libro de stock (almacén, publicador y casos de uso) desde la
// configuración. Lo comparten cmd/api y cmd/ledgerctl.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/events"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/sqlite"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/sqlstore"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Ledger casos de uso del libro sobre el almacén configurado.
type Ledger struct {
	Store          *sqlstore.Store
	Batches        *inventory.BatchUseCase
	Reservations   *inventory.ReservationManager
	Sales          *inventory.SaleCompletionUseCase
	Adjustments    *inventory.AdjustmentLedger
	Transfers      *inventory.TransferWorkflow
	Reconciliation *inventory.ReconciliationCalculator

	closers []func() error
}

// OpenStore abre la base según STORE_DRIVER y aplica migraciones (SQLite siempre,
// PostgreSQL solo con DB_AUTO_MIGRATE).
func OpenStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*sqlstore.Store, error) {
	var (
		db      *sqlx.DB
		dialect sqlstore.Dialect
		err     error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		db, err = sqlite.Open(ctx, cfg.Store.SQLitePath)
		dialect = sqlite.Dialect()
	case "postgres":
		db, err = postgres.Open(ctx, cfg.DB)
		dialect = postgres.Dialect()
		if err == nil && cfg.DB.AutoMigrate {
			if err = sqlstore.Migrate(ctx, db, dialect); err != nil {
				_ = db.Close()
			}
		}
	default:
		return nil, fmt.Errorf("driver de almacén desconocido %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("abrir almacén %s: %w", cfg.Store.Driver, err)
	}
	return sqlstore.New(db, dialect, cfg.Ledger.TxRetries, log), nil
}

// Open arma el libro completo. Sin KAFKA_BROKERS los eventos no se publican.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Ledger, error) {
	store, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	l := &Ledger{Store: store}
	l.closers = append(l.closers, store.Close)

	opts := inventory.Options{
		Log:            log,
		ReservationTTL: cfg.Ledger.ReservationTTL,
		MaxTTL:         cfg.Ledger.ReservationMaxTTL,
	}
	if len(cfg.Kafka.Brokers) > 0 {
		pub := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		opts.Events = pub
		l.closers = append(l.closers, pub.Close)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publicación de eventos del libro activa")
	}

	l.Batches = inventory.NewBatchUseCase(store, opts)
	l.Reservations = inventory.NewReservationManager(store, opts)
	l.Adjustments = inventory.NewAdjustmentLedger(store, opts)
	l.Sales = inventory.NewSaleCompletionUseCase(store, l.Reservations, l.Adjustments, opts)
	l.Transfers = inventory.NewTransferWorkflow(store, opts)
	l.Reconciliation = inventory.NewReconciliationCalculator(store, opts)
	return l, nil
}

// Close libera publicador y almacén, en orden inverso al de apertura.
func (l *Ledger) Close() error {
	var errs []error
	for i := len(l.closers) - 1; i >= 0; i-- {
		if err := l.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
