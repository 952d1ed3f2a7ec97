package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/infrastructure/storage"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/pkg/config"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/pkg/logger"
)

// env configuración y backend compartidos por los subcomandos.
type env struct {
	cfg     *config.Config
	log     *logger.Logger
	backend *storage.Backend
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ledgerctl",
		Short:        "Operación del ledger de inventario: importación, verificación y migraciones",
		SilenceUsage: true,
	}
	root.AddCommand(newImportCmd(), newVerifyCmd(), newMigrateCmd(), newTokenCmd())
	return root
}

// loadConfig lee la configuración; los logs van a stderr para no mezclarse con la salida del comando.
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
		App:   "ledgerctl",
		Out:   os.Stderr,
	})
	return cfg, log, nil
}

// openEnv carga configuración y abre el backend; el llamador debe cerrar e.backend.
func openEnv(ctx context.Context) (*env, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	backend, err := storage.Open(ctx, cfg, log.Component("storage"))
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, backend: backend}, nil
}
