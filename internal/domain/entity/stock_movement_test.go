package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain/entity"
)

func TestParseMovementType(t *testing.T) {
	for _, in := range []string{"ENTRY", "entry", " Exit ", "adjustment", "RETURN"} {
		mt, err := entity.ParseMovementType(in)
		require.NoError(t, err, in)
		assert.True(t, mt.Valid())
	}

	_, err := entity.ParseMovementType("Entrada")
	assert.Error(t, err, "los textos de presentación no son tipos válidos")
	_, err = entity.ParseMovementType("")
	assert.Error(t, err)
}

func TestMovementType_Increases(t *testing.T) {
	assert.True(t, entity.MovementTypeEntry.Increases())
	assert.True(t, entity.MovementTypeReturn.Increases())
	assert.False(t, entity.MovementTypeExit.Increases())
	assert.False(t, entity.MovementTypeAdjustment.Increases())
}

func TestStockMovement_Delta(t *testing.T) {
	m := entity.StockMovement{PreviousQuantity: 70, NewQuantity: 65}
	assert.Equal(t, int64(-5), m.Delta())
}
