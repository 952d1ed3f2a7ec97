package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/application/inventory"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain/entity"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain/repository"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/infrastructure/postgres"
)

// openPool requiere LEDGER_TEST_DATABASE_URL apuntando a una base descartable.
func openPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("LEDGER_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("LEDGER_TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := postgres.NewPoolFromDSN(ctx, dsn, 10)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = postgres.Migrate(ctx, pool)
	require.NoError(t, err)
	// TRUNCATE no dispara los triggers de fila.
	_, err = pool.Exec(ctx, `TRUNCATE stock_movements, stock_levels RESTART IDENTITY`)
	require.NoError(t, err)
	return pool
}

func TestPostgres_LedgerCompleto(t *testing.T) {
	pool := openPool(t)
	ctx := context.Background()
	ledger := inventory.NewStockLedgerUseCase(postgres.NewTxRunner(pool), zerolog.Nop())
	levels := postgres.NewStockLevelRepository(pool)
	movements := postgres.NewStockMovementRepository(pool)
	query := inventory.NewLedgerQueryUseCase(levels, movements, zerolog.Nop())

	start := time.Now().UTC().Add(-time.Second)
	_, err := ledger.RecordCreation(ctx, inventory.CreationInput{ProductID: "7", ActorID: "3", InitialQuantity: 50})
	require.NoError(t, err)
	res, err := ledger.RecordEntry(ctx, inventory.EntryInput{
		ProductID: "7", ActorID: "3", Quantity: 20,
		UnitCost: decimal.NewNullDecimal(decimal.RequireFromString("2.50")),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Movement.ID)
	_, err = ledger.RecordAdjustment(ctx, inventory.AdjustmentInput{ProductID: "7", ActorID: "3", TargetQuantity: 65})
	require.NoError(t, err)

	_, err = ledger.RecordCreation(ctx, inventory.CreationInput{ProductID: "7", ActorID: "3", InitialQuantity: 1})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	level, err := query.Level(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, int64(65), level.Quantity)
	assert.True(t, level.AverageCost.Equal(decimal.RequireFromString("2.50")))

	history, err := query.ByProductAndDateRange(ctx, "7", start, time.Now().UTC().Add(time.Second))
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, entity.MovementTypeExit, history[0].Type)
	assert.Equal(t, int64(70), history[0].PreviousQuantity)

	total, err := query.TotalCostByProduct(ctx, "7")
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("50")))

	page, err := query.Paged(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 2)

	discrepancies, err := inventory.NewConsistencyUseCase(levels, movements, zerolog.Nop()).Verify(ctx)
	require.NoError(t, err)
	assert.Empty(t, discrepancies)
}

func TestPostgres_HistorialInmutable(t *testing.T) {
	pool := openPool(t)
	ctx := context.Background()
	ledger := inventory.NewStockLedgerUseCase(postgres.NewTxRunner(pool), zerolog.Nop())
	_, err := ledger.RecordCreation(ctx, inventory.CreationInput{ProductID: "p1", ActorID: "u1", InitialQuantity: 5})
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `UPDATE stock_movements SET quantity = 99`)
	assert.Error(t, err)
	_, err = pool.Exec(ctx, `DELETE FROM stock_movements`)
	assert.Error(t, err)
}

func TestPostgres_EntradasConcurrentes(t *testing.T) {
	pool := openPool(t)
	ctx := context.Background()
	runner := postgres.NewTxRunner(pool)
	_, err := inventory.NewStockLedgerUseCase(runner, zerolog.Nop()).
		RecordCreation(ctx, inventory.CreationInput{ProductID: "p1", ActorID: "u1"})
	require.NoError(t, err)

	// Dos instancias del caso de uso simulan dos procesos: solo el FOR UPDATE los serializa.
	a := inventory.NewStockLedgerUseCase(runner, zerolog.Nop())
	b := inventory.NewStockLedgerUseCase(runner, zerolog.Nop())
	const n = 40
	var g errgroup.Group
	for i := 0; i < n; i++ {
		uc := a
		if i%2 == 1 {
			uc = b
		}
		g.Go(func() error {
			_, err := uc.RecordEntry(ctx, inventory.EntryInput{ProductID: "p1", ActorID: "u1", Quantity: 1})
			return err
		})
	}
	require.NoError(t, g.Wait())

	level, err := postgres.NewStockLevelRepository(pool).Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(n), level.Quantity)

	count, err := postgres.NewStockMovementRepository(pool).Count(ctx, repository.MovementFilter{ProductID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, int64(n+1), count)
}
