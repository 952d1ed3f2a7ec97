package scheduler_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/application/inventory"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/infrastructure/memory"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/infrastructure/scheduler"
)

func TestStart_ExpresionInvalida(t *testing.T) {
	store := memory.New()
	uc := inventory.NewConsistencyUseCase(store.Levels(), store.Movements(), zerolog.Nop())
	_, err := scheduler.Start("cada hora", uc, zerolog.Nop())
	assert.Error(t, err)

	c, err := scheduler.Start("@every 1h", uc, zerolog.Nop())
	require.NoError(t, err)
	<-c.Stop().Done()
}

func TestVerifyJob_RegistraResultado(t *testing.T) {
	store := memory.New()
	ledger := inventory.NewStockLedgerUseCase(store, zerolog.Nop())
	_, err := ledger.RecordCreation(context.Background(), inventory.CreationInput{ProductID: "p1", ActorID: "u1", InitialQuantity: 2})
	require.NoError(t, err)

	var buf bytes.Buffer
	log := zerolog.New(&buf)
	uc := inventory.NewConsistencyUseCase(store.Levels(), store.Movements(), zerolog.Nop())
	scheduler.VerifyJob(uc, log)()

	assert.Contains(t, buf.String(), `"discrepancies":0`)
	assert.Contains(t, buf.String(), `"level":"info"`)

	buf.Reset()
	store.FailOn(memory.OpListLevels, assert.AnError)
	scheduler.VerifyJob(uc, log)()
	assert.Contains(t, buf.String(), "verificación de consistencia fallida")
}
