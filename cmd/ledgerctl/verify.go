package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/application/inventory"
)

func newVerifyCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Compara el stock de cada producto con el new_quantity de su último movimiento",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.backend.Close()

			list, err := inventory.NewConsistencyUseCase(e.backend.Levels, e.backend.Movements, e.log.Zerolog()).Verify(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				if err := json.NewEncoder(out).Encode(list); err != nil {
					return err
				}
			} else {
				for _, d := range list {
					last := "sin movimientos"
					if d.LastNewQuantity != nil {
						last = fmt.Sprintf("último movimiento #%d deja %d", d.LastMovementID, *d.LastNewQuantity)
					}
					fmt.Fprintf(out, "%s: stock %d, %s\n", d.ProductID, d.Quantity, last)
				}
			}
			if len(list) > 0 {
				return fmt.Errorf("%d productos inconsistentes", len(list))
			}
			if !asJSON {
				fmt.Fprintln(out, "stock consistente con el historial")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Salida en JSON")
	return cmd
}
