package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/application/inventory"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain/repository"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/infrastructure/memory"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/infrastructure/postgres"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/infrastructure/sqlite"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/pkg/config"
)

// Backend almacenes del ledger para el driver configurado.
type Backend struct {
	Driver    string
	Tx        inventory.TxRunner
	Levels    inventory.LevelReader
	Movements repository.StockMovementReader
	// Migrated versiones de esquema aplicadas al abrir (solo postgres).
	Migrated []string
	close    func()
}

// Close libera conexiones. Es seguro llamarlo más de una vez.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
		b.close = nil
	}
}

// Open abre el backend según cfg.Store.Driver. En postgres aplica las migraciones pendientes.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Backend, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		applied, err := postgres.Migrate(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("migraciones: %w", err)
		}
		for _, v := range applied {
			log.Info().Str("version", v).Msg("migración aplicada")
		}
		return &Backend{
			Driver:    cfg.Store.Driver,
			Tx:        postgres.NewTxRunner(pool),
			Levels:    postgres.NewStockLevelRepository(pool),
			Movements: postgres.NewStockMovementRepository(pool),
			Migrated:  applied,
			close:     pool.Close,
		}, nil

	case config.DriverSQLite:
		store, err := sqlite.New(cfg.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("abrir SQLite %s: %w", cfg.Store.SQLitePath, err)
		}
		return &Backend{
			Driver:    cfg.Store.Driver,
			Tx:        store,
			Levels:    store.Levels(),
			Movements: store.Movements(),
			close: func() {
				if err := store.Close(); err != nil {
					log.Warn().Err(err).Msg("cerrar SQLite")
				}
			},
		}, nil

	case config.DriverMemory:
		log.Warn().Msg("driver memory: el historial se pierde al detener el proceso")
		store := memory.New()
		return &Backend{
			Driver:    cfg.Store.Driver,
			Tx:        store,
			Levels:    store.Levels(),
			Movements: store.Movements(),
		}, nil
	}
	return nil, fmt.Errorf("driver %q no soportado", cfg.Store.Driver)
}
