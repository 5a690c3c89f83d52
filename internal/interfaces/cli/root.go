package cli

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
)

// Engine casos de uso que usan los comandos, ya armados sobre el almacén configurado.
type Engine struct {
	Batches        *inventory.BatchUseCase
	Reservations   *inventory.ReservationManager
	Reconciliation *inventory.ReconciliationCalculator
	SweepBatch     int
	Now            func() time.Time
	Close          func() error
}

// Opener abre el libro. cmd/ledgerctl lo arma desde la configuración.
type Opener func(ctx context.Context) (*Engine, error)

// RootOptions flags globales.
type RootOptions struct {
	Format string // text | json | yaml
	open   Opener
}

// ValidFormats formatos de salida permitidos.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand crea el comando raíz de ledgerctl.
func NewRootCommand(open Opener) *cobra.Command {
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operación del libro de stock",
		Long:  "Tareas de operación sobre el libro de stock: barrido de reservas, conciliación e importación de ingresos.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("formato inválido %q: debe ser uno de %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "formato de salida (text|json|yaml)")

	cmd.AddCommand(NewSweepCommand(opts))
	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewImportIntakeCommand(opts))

	return cmd
}

// engine abre el libro; el llamador debe cerrar con closeEngine.
func (o *RootOptions) engine(ctx context.Context) (*Engine, error) {
	if o.open == nil {
		return nil, NewExitError(ExitCommandError, "libro no configurado")
	}
	e, err := o.open(ctx)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "abrir libro", err)
	}
	if e.Now == nil {
		e.Now = time.Now
	}
	return e, nil
}

func closeEngine(e *Engine) {
	if e.Close != nil {
		_ = e.Close()
	}
}
