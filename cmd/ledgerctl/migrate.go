package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/pkg/config"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones pendientes (postgres); sqlite crea su esquema al abrir",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.backend.Close()

			out := cmd.OutOrStdout()
			if e.backend.Driver != config.DriverPostgres {
				fmt.Fprintf(out, "driver %s: esquema listo\n", e.backend.Driver)
				return nil
			}
			if len(e.backend.Migrated) == 0 {
				fmt.Fprintln(out, "sin migraciones pendientes")
				return nil
			}
			for _, v := range e.backend.Migrated {
				fmt.Fprintf(out, "aplicada %s\n", v)
			}
			return nil
		},
	}
}
