package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/application/importer"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/application/inventory"
)

func newImportCmd() *cobra.Command {
	var (
		actor   string
		workers int
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "import FILE.csv",
		Short: "Importa stock desde CSV (product_id,quantity[,unit_cost])",
		Long: `Cada fila crea el stock del producto o lo ajusta a la cantidad indicada.
Acepta separador coma o punto y coma, encabezado opcional y archivos UTF-8 o ISO-8859-1.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("abrir CSV: %w", err)
			}
			defer f.Close()

			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.backend.Close()

			if workers <= 0 {
				workers = e.cfg.Ledger.ImportWorkers
			}
			ledger := inventory.NewStockLedgerUseCase(e.backend.Tx, e.log.Zerolog())
			levels := inventory.NewLedgerQueryUseCase(e.backend.Levels, e.backend.Movements, e.log.Zerolog())
			report, err := importer.NewStockImporter(ledger, levels, e.log.Zerolog()).Import(cmd.Context(), f, importer.Options{
				ActorID: actor,
				Workers: workers,
				Source:  filepath.Base(args[0]),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			for _, re := range report.Errors {
				fmt.Fprintf(out, "  [error] línea %d %s: %s\n", re.Line, re.ProductID, re.Message)
			}
			fmt.Fprintf(out, `
=== Importación ===
Filas:       %d
Creados:     %d
Ajustados:   %d
Fallidos:    %d
Tiempo:      %s
===================
`, report.Rows, report.Created, report.Adjusted, report.Failed, report.Duration.Round(time.Millisecond))
			if report.Failed > 0 {
				return fmt.Errorf("%d filas rechazadas", report.Failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&actor, "actor", "a", "", "Usuario responsable de los movimientos (obligatorio)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Productos en paralelo (default IMPORT_WORKERS)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Reporte en JSON")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}
