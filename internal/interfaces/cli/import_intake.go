package cli

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ImportIntakeOptions flags de import-intake.
type ImportIntakeOptions struct {
	*RootOptions
	Business string
	Actor    string
	Charset  string
}

// importRow resultado por fila del archivo.
type importRow struct {
	Line      int    `json:"line" yaml:"line"`
	ProductID string `json:"product_id" yaml:"product_id"`
	Quantity  int64  `json:"quantity" yaml:"quantity"`
	BatchID   string `json:"batch_id,omitempty" yaml:"batch_id,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

type importResult struct {
	Imported int         `json:"imported" yaml:"imported"`
	Failed   int         `json:"failed" yaml:"failed"`
	Rows     []importRow `json:"rows" yaml:"rows"`
}

// NewImportIntakeCommand crea el comando import-intake.
func NewImportIntakeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportIntakeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import-intake FILE",
		Short: "Registra ingresos de bodega desde un CSV",
		Long: `Registra un lote por fila. Columnas separadas por ';':

  product_id;warehouse_id;quantity;unit_cost;reference

La primera fila se omite si es el encabezado. Cada fila es una transacción propia:
una fila rechazada no deshace las anteriores. Archivos exportados por sistemas
antiguos suelen venir en ISO-8859-1 (--charset latin1).

Ejemplos:
  ledgerctl import-intake remision.csv --business b-1 --actor u-9
  ledgerctl import-intake legado.csv --business b-1 --actor u-9 --charset latin1`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportIntake(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Business, "business", "", "negocio (requerido)")
	_ = cmd.MarkFlagRequired("business")
	cmd.Flags().StringVar(&opts.Actor, "actor", "", "usuario que registra los ingresos (requerido)")
	_ = cmd.MarkFlagRequired("actor")
	cmd.Flags().StringVar(&opts.Charset, "charset", "utf8", "codificación del archivo (utf8|latin1)")
	return cmd
}

// decodeReader aplica la codificación pedida al archivo.
func decodeReader(r io.Reader, charset string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf8", "utf-8":
		return r, nil
	case "latin1", "iso-8859-1", "iso8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("charset no soportado %q (utf8|latin1)", charset)
	}
}

// parseIntakeRow convierte una fila del CSV en la entrada del caso de uso.
func parseIntakeRow(rec []string) (inventory.IntakeInput, error) {
	if len(rec) < 4 {
		return inventory.IntakeInput{}, fmt.Errorf("se esperaban al menos 4 columnas, hay %d", len(rec))
	}
	qty, err := strconv.ParseInt(strings.TrimSpace(rec[2]), 10, 64)
	if err != nil {
		return inventory.IntakeInput{}, fmt.Errorf("quantity %q: %w", rec[2], err)
	}
	// Los archivos exportados en es-CO usan coma decimal.
	cost, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(rec[3]), ",", "."))
	if err != nil {
		return inventory.IntakeInput{}, fmt.Errorf("unit_cost %q: %w", rec[3], err)
	}
	in := inventory.IntakeInput{
		ProductID:   strings.TrimSpace(rec[0]),
		WarehouseID: strings.TrimSpace(rec[1]),
		Quantity:    qty,
		UnitCost:    cost,
	}
	if len(rec) > 4 {
		in.Reference = strings.TrimSpace(rec[4])
	}
	return in, nil
}

func runImportIntake(cmd *cobra.Command, opts *ImportIntakeOptions, path string) error {
	ctx := cmd.Context()
	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "abrir archivo", err)
	}
	defer f.Close()

	src, err := decodeReader(f, opts.Charset)
	if err != nil {
		return WrapExitError(ExitCommandError, "codificación", err)
	}
	reader := csv.NewReader(src)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	e, err := opts.engine(ctx)
	if err != nil {
		return err
	}
	defer closeEngine(e)

	actor := entity.Actor{BusinessID: opts.Business, UserID: opts.Actor, Role: entity.RoleBodeguero}
	var result importResult
	for line := 1; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("leer fila %d", line), err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "product_id") {
			continue
		}
		row := importRow{Line: line}
		in, err := parseIntakeRow(rec)
		if err == nil {
			row.ProductID, row.Quantity = in.ProductID, in.Quantity
			var batch *entity.Batch
			batch, err = e.Batches.RegisterIntake(ctx, actor, in)
			if err == nil {
				row.BatchID = batch.ID
			}
		}
		if err != nil {
			row.Error = err.Error()
			result.Failed++
		} else {
			result.Imported++
		}
		result.Rows = append(result.Rows, row)
	}

	if err := render(cmd.OutOrStdout(), opts.Format, result, result.writeText); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d filas rechazadas", result.Failed))
	}
	return nil
}

func (r importResult) writeText(w io.Writer) error {
	for _, row := range r.Rows {
		var err error
		if row.Error != "" {
			_, err = fmt.Fprintf(w, "fila %d: ERROR %s\n", row.Line, row.Error)
		} else {
			_, err = fmt.Fprintf(w, "fila %d: lote %s (%d x %s)\n", row.Line, row.BatchID, row.Quantity, row.ProductID)
		}
		if err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "importados: %d, rechazados: %d\n", r.Imported, r.Failed)
	return err
}
