package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/application/inventory"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain/entity"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain/repository"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/infrastructure/memory"
)

func TestConsistency_DetectaDiscrepancias(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seed(t, f)

	// Escritura directa sobre el store, sin movimiento: rompe el invariante de "a".
	require.NoError(t, f.store.Run(ctx, func(levels repository.StockLevelRepository, _ repository.StockMovementRepository) error {
		l, err := levels.GetForUpdate(ctx, "a")
		if err != nil {
			return err
		}
		l.Quantity = 99
		if err := levels.Update(ctx, l); err != nil {
			return err
		}
		return levels.Create(ctx, &entity.StockLevel{ProductID: "huérfano", Quantity: 3})
	}))

	checker := inventory.NewConsistencyUseCase(f.store.Levels(), f.store.Movements(), zerolog.Nop())
	got, err := checker.Verify(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "a", got[0].ProductID)
	assert.Equal(t, int64(99), got[0].Quantity)
	require.NotNil(t, got[0].LastNewQuantity)
	assert.Equal(t, int64(12), *got[0].LastNewQuantity)
	assert.Equal(t, int64(6), got[0].LastMovementID)

	assert.Equal(t, "huérfano", got[1].ProductID)
	assert.Nil(t, got[1].LastNewQuantity)
}

func TestConsistency_RelojQueRetrocede(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	// el segundo movimiento queda con un timestamp anterior al primero
	times := []time.Time{t0, t0.Add(-time.Hour)}
	clock := func() time.Time {
		at := times[0]
		times = times[1:]
		return at
	}
	ledger := inventory.NewStockLedgerUseCase(store, zerolog.Nop(), inventory.WithClock(clock))
	_, err := ledger.RecordCreation(ctx, inventory.CreationInput{ProductID: "p1", ActorID: "u1", InitialQuantity: 5})
	require.NoError(t, err)
	res, err := ledger.RecordExit(ctx, inventory.ExitInput{ProductID: "p1", ActorID: "u1", Quantity: 2})
	require.NoError(t, err)

	last, err := store.Movements().Last(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, res.Movement.ID, last.ID)

	got, err := inventory.NewConsistencyUseCase(store.Levels(), store.Movements(), zerolog.Nop()).Verify(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestConsistency_ErrorDeAlmacenamiento(t *testing.T) {
	store := memory.New()
	store.FailOn(memory.OpListLevels, errors.New("timeout"))
	checker := inventory.NewConsistencyUseCase(store.Levels(), store.Movements(), zerolog.Nop())
	_, err := checker.Verify(context.Background())
	assert.ErrorIs(t, err, domain.ErrStorage)
}
