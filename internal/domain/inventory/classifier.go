package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain/entity"
)

// Purpose intención de negocio detrás de un movimiento. Solo afecta el prefijo de la
// referencia y la redacción de la nota; el tipo lo decide Classify.
type Purpose int

const (
	PurposeStandard Purpose = iota
	PurposeCreation
	PurposeAdjustment
	PurposeReservation
	PurposeRelease
)

// Prefijos de referencia.
const (
	PrefixEntry       = "ENT"
	PrefixExit        = "EXT"
	PrefixAdjustment  = "ADJ"
	PrefixReservation = "RSV"
	PrefixRelease     = "REL"
)

// compactLayout fecha UTC sin separadores; se completa con microsegundos en compactTimestamp.
const compactLayout = "20060102150405"

// ClassifyInput entrada del clasificador.
// Delta es el cambio con signo (nuevo - anterior). Requested vacío equivale a Adjustment.
type ClassifyInput struct {
	ProductID        string
	PreviousQuantity int64
	Delta            int64
	Requested        entity.MovementType
	Purpose          Purpose
	At               time.Time
}

// Classification salida del clasificador.
type Classification struct {
	Type      entity.MovementType
	Quantity  int64
	Reference string
	Notes     string
}

// Classify infiere el tipo de movimiento, la magnitud y los textos por defecto.
// Función pura: mismas entradas, misma salida.
//
//   - Entry, Exit y Return se respetan tal cual.
//   - Adjustment (o vacío) se resuelve por el signo del delta: >0 Entry, <0 Exit, 0 Adjustment.
func Classify(in ClassifyInput) Classification {
	t := in.Requested
	switch t {
	case entity.MovementTypeEntry, entity.MovementTypeExit, entity.MovementTypeReturn:
	default:
		switch {
		case in.Delta > 0:
			t = entity.MovementTypeEntry
		case in.Delta < 0:
			t = entity.MovementTypeExit
		default:
			t = entity.MovementTypeAdjustment
		}
	}
	qty := abs(in.Delta)
	return Classification{
		Type:      t,
		Quantity:  qty,
		Reference: DefaultReference(referencePrefix(t, in.Purpose), in.ProductID, in.At),
		Notes:     defaultNotes(t, in.Purpose, qty, in.PreviousQuantity, in.PreviousQuantity+in.Delta),
	}
}

// DefaultReference arma {PREFIJO}-{productID}-{timestamp compacto}.
func DefaultReference(prefix, productID string, at time.Time) string {
	return fmt.Sprintf("%s-%s-%s", prefix, productID, compactTimestamp(at))
}

func compactTimestamp(at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("%s%06d", at.Format(compactLayout), at.Nanosecond()/int(time.Microsecond))
}

func referencePrefix(t entity.MovementType, p Purpose) string {
	switch p {
	case PurposeReservation:
		return PrefixReservation
	case PurposeRelease:
		return PrefixRelease
	}
	switch t {
	case entity.MovementTypeEntry:
		return PrefixEntry
	case entity.MovementTypeExit:
		return PrefixExit
	case entity.MovementTypeReturn:
		return PrefixRelease
	default:
		return PrefixAdjustment
	}
}

func defaultNotes(t entity.MovementType, p Purpose, qty, prev, next int64) string {
	switch p {
	case PurposeCreation:
		return fmt.Sprintf("Stock inicial: %s", units(qty, ""))
	case PurposeReservation:
		return fmt.Sprintf("Reserva: %s", units(qty, "apartadas"))
	case PurposeRelease:
		return fmt.Sprintf("Liberación: %s", units(qty, "devueltas"))
	case PurposeAdjustment:
		switch t {
		case entity.MovementTypeEntry:
			return fmt.Sprintf("Ajuste: %s (%d → %d)", units(qty, "agregadas"), prev, next)
		case entity.MovementTypeExit:
			return fmt.Sprintf("Ajuste: %s (%d → %d)", units(qty, "retiradas"), prev, next)
		}
		return fmt.Sprintf("Ajuste: sin variación (%s)", units(next, ""))
	}
	switch t {
	case entity.MovementTypeEntry:
		return fmt.Sprintf("Entrada: %s", units(qty, "agregadas"))
	case entity.MovementTypeExit:
		return fmt.Sprintf("Salida: %s", units(qty, "retiradas"))
	case entity.MovementTypeReturn:
		return fmt.Sprintf("Devolución: %s", units(qty, "restituidas"))
	}
	return fmt.Sprintf("Ajuste: sin variación (%s)", units(next, ""))
}

// units redacta "n unidades <participio>" concordando en número; participle va en plural.
func units(n int64, participle string) string {
	s := fmt.Sprintf("%d unidades", n)
	if n == 1 {
		s = "1 unidad"
		participle = strings.TrimSuffix(participle, "s")
	}
	if participle == "" {
		return s
	}
	return s + " " + participle
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
