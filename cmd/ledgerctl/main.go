// ledgerctl tareas de operación sobre el libro de stock.
//
// Uso:
//
//	ledgerctl sweep
//	ledgerctl reconcile --business <id> --product <id> [--batch <id>] [--warehouse <id>] [--format text|json|yaml]
//	ledgerctl import-intake FILE --business <id> --actor <id> [--charset latin1]
//
// Lee la misma configuración que el servidor (STORE_DRIVER, DATABASE_URL, SQLITE_PATH, ...).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jhoicas/stock-ledger/internal/bootstrap"
	"github.com/jhoicas/stock-ledger/internal/interfaces/cli"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(cli.ExitCommandError)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, Output: os.Stderr})

	open := func(ctx context.Context) (*cli.Engine, error) {
		l, err := bootstrap.Open(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return &cli.Engine{
			Batches:        l.Batches,
			Reservations:   l.Reservations,
			Reconciliation: l.Reconciliation,
			SweepBatch:     cfg.Ledger.SweepBatch,
			Close:          l.Close,
		}, nil
	}

	if err := cli.NewRootCommand(open).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
