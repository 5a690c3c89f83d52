package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ReconcileOptions flags de reconcile.
type ReconcileOptions struct {
	*RootOptions
	Business  string
	Product   string
	Batch     string
	Warehouse string
	Actor     string
}

// reconciliationReport vista estable del resultado para json/yaml/text.
type reconciliationReport struct {
	BusinessID         string `json:"business_id" yaml:"business_id"`
	ProductID          string `json:"product_id" yaml:"product_id"`
	BatchID            string `json:"batch_id,omitempty" yaml:"batch_id,omitempty"`
	WarehouseID        string `json:"warehouse_id,omitempty" yaml:"warehouse_id,omitempty"`
	AsOf               string `json:"as_of" yaml:"as_of"`
	Intake             int64  `json:"intake_quantity" yaml:"intake_quantity"`
	Transferred        int64  `json:"transferred" yaml:"transferred"`
	WarehouseOnHand    int64  `json:"warehouse_on_hand" yaml:"warehouse_on_hand"`
	StorefrontOnHand   int64  `json:"storefront_on_hand" yaml:"storefront_on_hand"`
	Sold               int64  `json:"sold" yaml:"sold"`
	Shrinkage          int64  `json:"shrinkage" yaml:"shrinkage"`
	Corrections        int64  `json:"corrections" yaml:"corrections"`
	ActiveReservations int64  `json:"active_reservations" yaml:"active_reservations"`
	CalculatedBaseline int64  `json:"calculated_baseline" yaml:"calculated_baseline"`
	Accounted          int64  `json:"accounted" yaml:"accounted"`
	Delta              int64  `json:"delta" yaml:"delta"`
	Mismatch           bool   `json:"mismatch" yaml:"mismatch"`
	AvgUnitCost        string `json:"avg_unit_cost" yaml:"avg_unit_cost"`
	ShrinkageValue     string `json:"shrinkage_value" yaml:"shrinkage_value"`
	DeltaValue         string `json:"delta_value" yaml:"delta_value"`

	StorefrontAttributed bool `json:"storefront_attributed" yaml:"storefront_attributed"`
}

func newReconciliationReport(r *entity.Reconciliation) reconciliationReport {
	return reconciliationReport{
		BusinessID:         r.Scope.BusinessID,
		ProductID:          r.Scope.ProductID,
		BatchID:            r.Scope.BatchID,
		WarehouseID:        r.Scope.WarehouseID,
		AsOf:               r.AsOf.UTC().Format(time.RFC3339),
		Intake:             r.Intake,
		Transferred:        r.Transferred,
		WarehouseOnHand:    r.WarehouseOnHand,
		StorefrontOnHand:   r.StorefrontOnHand,
		Sold:               r.Sold,
		Shrinkage:          r.Shrinkage,
		Corrections:        r.Corrections,
		ActiveReservations: r.ActiveReservations,
		CalculatedBaseline: r.CalculatedBaseline,
		Accounted:          r.Accounted,
		Delta:              r.Delta,
		Mismatch:           r.Mismatch,
		AvgUnitCost:        r.AvgUnitCost.StringFixed(2),
		ShrinkageValue:     r.ShrinkageValue.StringFixed(2),
		DeltaValue:         r.DeltaValue.StringFixed(2),

		StorefrontAttributed: r.StorefrontAttributed,
	}
}

func orAll(s string) string {
	if s == "" {
		return "*"
	}
	return s
}

func (r reconciliationReport) writeText(w io.Writer) error {
	status := "OK"
	if r.Mismatch {
		status = "DIFERENCIA"
	}
	rows := []struct {
		label string
		value any
	}{
		{"intake", r.Intake},
		{"transferred", r.Transferred},
		{"warehouse_on_hand", r.WarehouseOnHand},
		{"storefront_on_hand", r.StorefrontOnHand},
		{"sold", r.Sold},
		{"shrinkage", r.Shrinkage},
		{"corrections", r.Corrections},
		{"active_reservations", r.ActiveReservations},
		{"calculated_baseline", r.CalculatedBaseline},
		{"accounted", r.Accounted},
		{"delta", r.Delta},
		{"avg_unit_cost", r.AvgUnitCost},
		{"shrinkage_value", r.ShrinkageValue},
		{"delta_value", r.DeltaValue},
	}
	if _, err := fmt.Fprintf(w, "conciliacion negocio=%s producto=%s lote=%s bodega=%s\nas_of: %s\n",
		r.BusinessID, r.ProductID, orAll(r.BatchID), orAll(r.WarehouseID), r.AsOf); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "  %-20s %v\n", row.label, row.value); err != nil {
			return err
		}
	}
	if !r.StorefrontAttributed {
		if _, err := fmt.Fprintln(w, "  (la tienda es del producto completo: informativa, fuera del delta)"); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "estado: %s\n", status)
	return err
}

// NewReconcileCommand crea el comando reconcile.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReconcileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Conciliación de un producto",
		Long: `Recalcula el on-hand esperado desde todos los movimientos del libro y reporta
la diferencia contra el ingreso registrado. Solo lectura.

Una diferencia distinta de cero termina con código 1 para poder usarlo en cron.

Ejemplos:
  ledgerctl reconcile --business b-1 --product p-1
  ledgerctl reconcile --business b-1 --product p-1 --warehouse wh-1 --format yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Business, "business", "", "negocio (requerido)")
	_ = cmd.MarkFlagRequired("business")
	cmd.Flags().StringVar(&opts.Product, "product", "", "producto (requerido)")
	_ = cmd.MarkFlagRequired("product")
	cmd.Flags().StringVar(&opts.Batch, "batch", "", "limitar a un lote")
	cmd.Flags().StringVar(&opts.Warehouse, "warehouse", "", "limitar a una bodega")
	cmd.Flags().StringVar(&opts.Actor, "actor", "ledgerctl", "usuario con el que se registra la consulta")
	return cmd
}

func runReconcile(cmd *cobra.Command, opts *ReconcileOptions) error {
	ctx := cmd.Context()
	e, err := opts.engine(ctx)
	if err != nil {
		return err
	}
	defer closeEngine(e)

	actor := entity.Actor{BusinessID: opts.Business, UserID: opts.Actor, Role: entity.RoleAdmin}
	rec, err := e.Reconciliation.Compute(ctx, actor, opts.Product, opts.Batch, opts.Warehouse)
	if err != nil {
		return WrapExitError(ExitCommandError, "conciliación", err)
	}
	report := newReconciliationReport(rec)
	if err := render(cmd.OutOrStdout(), opts.Format, report, report.writeText); err != nil {
		return err
	}
	if report.Mismatch {
		return NewExitError(ExitFailure, fmt.Sprintf("diferencia de %d unidades", report.Delta))
	}
	return nil
}
