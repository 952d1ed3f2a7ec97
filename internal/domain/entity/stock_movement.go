package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MovementType clasificación cerrada de un movimiento de stock.
type MovementType string

// Tipos de movimiento de inventario.
const (
	MovementTypeEntry      MovementType = "ENTRY"      // entrada
	MovementTypeExit       MovementType = "EXIT"       // salida
	MovementTypeAdjustment MovementType = "ADJUSTMENT" // ajuste sin variación neta
	MovementTypeReturn     MovementType = "RETURN"     // devolución de una reserva
)

// MovementTypes lista los valores válidos en orden estable.
var MovementTypes = []MovementType{
	MovementTypeEntry,
	MovementTypeExit,
	MovementTypeAdjustment,
	MovementTypeReturn,
}

// Valid indica si t es uno de los cuatro tipos conocidos.
func (t MovementType) Valid() bool {
	switch t {
	case MovementTypeEntry, MovementTypeExit, MovementTypeAdjustment, MovementTypeReturn:
		return true
	}
	return false
}

// Increases indica si el tipo suma cantidad al stock (Entry/Return).
func (t MovementType) Increases() bool {
	return t == MovementTypeEntry || t == MovementTypeReturn
}

func (t MovementType) String() string { return string(t) }

// ParseMovementType convierte texto externo (query string, CSV, columna SQL) al enum.
// No distingue mayúsculas; cualquier otro valor es un error.
func ParseMovementType(s string) (MovementType, error) {
	t := MovementType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("tipo de movimiento desconocido %q", s)
	}
	return t, nil
}

// StockMovement hecho inmutable que describe un cambio en la cantidad de un producto.
// Quantity es siempre la magnitud (no negativa); el sentido lo da Type.
type StockMovement struct {
	ID               int64
	TransactionID    string
	ProductID        string
	ActorID          string
	Type             MovementType
	Quantity         int64
	PreviousQuantity int64
	NewQuantity      int64
	Reference        string
	Notes            string
	UnitCost         decimal.NullDecimal // solo en entradas con costo conocido
	TotalCost        decimal.NullDecimal // UnitCost * Quantity
	Timestamp        time.Time
}

// Delta devuelve el cambio con signo que el movimiento aplicó sobre el stock.
func (m *StockMovement) Delta() int64 {
	return m.NewQuantity - m.PreviousQuantity
}
