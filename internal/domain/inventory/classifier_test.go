package inventory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain/entity"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain/inventory"
)

var testAt = time.Date(2024, 3, 15, 10, 30, 45, 123456789, time.UTC)

func TestClassify_AjusteSeResuelvePorSigno(t *testing.T) {
	cases := []struct {
		name  string
		delta int64
		want  entity.MovementType
	}{
		{"positivo es entrada", 5, entity.MovementTypeEntry},
		{"negativo es salida", -5, entity.MovementTypeExit},
		{"cero sigue siendo ajuste", 0, entity.MovementTypeAdjustment},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := inventory.Classify(inventory.ClassifyInput{
				ProductID:        "7",
				PreviousQuantity: 70,
				Delta:            tc.delta,
				Requested:        entity.MovementTypeAdjustment,
				Purpose:          inventory.PurposeAdjustment,
				At:               testAt,
			})
			assert.Equal(t, tc.want, c.Type)
			assert.Equal(t, int64(5)*boolToInt(tc.delta != 0), c.Quantity)
		})
	}
}

func TestClassify_TipoVacioEquivaleAAjuste(t *testing.T) {
	c := inventory.Classify(inventory.ClassifyInput{ProductID: "7", PreviousQuantity: 10, Delta: -3, At: testAt})
	assert.Equal(t, entity.MovementTypeExit, c.Type)
	assert.Equal(t, int64(3), c.Quantity)
}

func TestClassify_TipoExplicitoSeRespeta(t *testing.T) {
	// Un Return con delta positivo no se reclasifica como Entry.
	c := inventory.Classify(inventory.ClassifyInput{
		ProductID: "7", PreviousQuantity: 55, Delta: 10,
		Requested: entity.MovementTypeReturn, Purpose: inventory.PurposeRelease, At: testAt,
	})
	assert.Equal(t, entity.MovementTypeReturn, c.Type)
	assert.Equal(t, int64(10), c.Quantity)

	// Un Exit explícito conserva el tipo aunque el delta sea cero.
	c = inventory.Classify(inventory.ClassifyInput{
		ProductID: "7", PreviousQuantity: 55, Delta: 0,
		Requested: entity.MovementTypeExit, At: testAt,
	})
	assert.Equal(t, entity.MovementTypeExit, c.Type)
	assert.Equal(t, int64(0), c.Quantity)
}

func TestClassify_ReferenciaPorDefecto(t *testing.T) {
	cases := []struct {
		name    string
		in      inventory.ClassifyInput
		wantRef string
	}{
		{"entrada", inventory.ClassifyInput{Delta: 1, Requested: entity.MovementTypeEntry}, "ENT-7-20240315103045123456"},
		{"salida", inventory.ClassifyInput{Delta: -1, Requested: entity.MovementTypeExit}, "EXT-7-20240315103045123456"},
		{"ajuste neutro", inventory.ClassifyInput{Delta: 0, Purpose: inventory.PurposeAdjustment}, "ADJ-7-20240315103045123456"},
		{"ajuste a la baja", inventory.ClassifyInput{PreviousQuantity: 70, Delta: -5, Purpose: inventory.PurposeAdjustment}, "EXT-7-20240315103045123456"},
		{"ajuste al alza", inventory.ClassifyInput{PreviousQuantity: 70, Delta: 5, Purpose: inventory.PurposeAdjustment}, "ENT-7-20240315103045123456"},
		{"reserva", inventory.ClassifyInput{Delta: -2, Requested: entity.MovementTypeExit, Purpose: inventory.PurposeReservation}, "RSV-7-20240315103045123456"},
		{"liberación", inventory.ClassifyInput{Delta: 2, Requested: entity.MovementTypeReturn, Purpose: inventory.PurposeRelease}, "REL-7-20240315103045123456"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.in.ProductID = "7"
			tc.in.At = testAt
			assert.Equal(t, tc.wantRef, inventory.Classify(tc.in).Reference)
		})
	}
}

func TestClassify_ReferenciaUsaUTC(t *testing.T) {
	local := testAt.In(time.FixedZone("WAT", 3600))
	c := inventory.Classify(inventory.ClassifyInput{ProductID: "9", Delta: 1, Requested: entity.MovementTypeEntry, At: local})
	assert.Equal(t, "ENT-9-20240315103045123456", c.Reference)
}

func TestClassify_NotasDescribenSentidoYMagnitud(t *testing.T) {
	entry := inventory.Classify(inventory.ClassifyInput{ProductID: "7", Delta: 12, Requested: entity.MovementTypeEntry, At: testAt})
	assert.Equal(t, "Entrada: 12 unidades agregadas", entry.Notes)

	single := inventory.Classify(inventory.ClassifyInput{ProductID: "7", PreviousQuantity: 4, Delta: -1, Requested: entity.MovementTypeExit, At: testAt})
	assert.Equal(t, "Salida: 1 unidad retirada", single.Notes)

	adj := inventory.Classify(inventory.ClassifyInput{ProductID: "7", PreviousQuantity: 70, Delta: -5, Purpose: inventory.PurposeAdjustment, At: testAt})
	assert.Equal(t, "Ajuste: 5 unidades retiradas (70 → 65)", adj.Notes)

	creation := inventory.Classify(inventory.ClassifyInput{ProductID: "7", Delta: 50, Requested: entity.MovementTypeEntry, Purpose: inventory.PurposeCreation, At: testAt})
	assert.Equal(t, "Stock inicial: 50 unidades", creation.Notes)

	rsv := inventory.Classify(inventory.ClassifyInput{ProductID: "7", PreviousQuantity: 65, Delta: -10, Requested: entity.MovementTypeExit, Purpose: inventory.PurposeReservation, At: testAt})
	assert.Equal(t, "Reserva: 10 unidades apartadas", rsv.Notes)
}

func TestClassify_Determinista(t *testing.T) {
	in := inventory.ClassifyInput{ProductID: "7", PreviousQuantity: 20, Delta: 8, Purpose: inventory.PurposeAdjustment, At: testAt}
	assert.Equal(t, inventory.Classify(in), inventory.Classify(in))
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
