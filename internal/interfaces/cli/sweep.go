package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

// SweepOptions flags de sweep.
type SweepOptions struct {
	*RootOptions
	Limit int
}

type sweepResult struct {
	Released int    `json:"released" yaml:"released"`
	AsOf     string `json:"as_of" yaml:"as_of"`
}

// NewSweepCommand crea el comando sweep: una pasada del barrido de reservas vencidas.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SweepOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Libera las reservas vencidas",
		Long: `Ejecuta una pasada del barrido: toda reserva ACTIVE con expires_at anterior a
ahora pasa a RELEASED. Es idempotente y seguro junto al barrido del servidor.

Ejemplos:
  ledgerctl sweep
  ledgerctl sweep --limit 100 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, opts)
		},
	}
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "máximo de reservas por pasada (0 = LEDGER_SWEEP_BATCH)")
	return cmd
}

func runSweep(cmd *cobra.Command, opts *SweepOptions) error {
	ctx := cmd.Context()
	e, err := opts.engine(ctx)
	if err != nil {
		return err
	}
	defer closeEngine(e)

	limit := opts.Limit
	if limit <= 0 {
		limit = e.SweepBatch
	}
	now := e.Now().UTC()
	n, err := e.Reservations.SweepExpired(ctx, now, limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "barrido", err)
	}
	res := sweepResult{Released: n, AsOf: now.Format(time.RFC3339)}
	return render(cmd.OutOrStdout(), opts.Format, res, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "reservas liberadas: %d (as_of %s)\n", res.Released, res.AsOf)
		return err
	})
}
