package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain/entity"
)

// MovementFilter criterios de búsqueda sobre el historial. Campos vacíos/nil no filtran.
// From y To son inclusivos. Limit <= 0 significa sin límite.
type MovementFilter struct {
	ProductID string
	ActorID   string
	Type      *entity.MovementType
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// StockMovementReader lecturas sobre el historial de movimientos.
// Los resultados se ordenan por Timestamp DESC, ID DESC.
type StockMovementReader interface {
	// Last devuelve el último movimiento agregado del producto (mayor id) o (nil, nil).
	Last(ctx context.Context, productID string) (*entity.StockMovement, error)
	Find(ctx context.Context, filter MovementFilter) ([]*entity.StockMovement, error)
	Count(ctx context.Context, filter MovementFilter) (int64, error)
	// SumEntryCost suma TotalCost de las entradas del producto; cero si no hay datos de costo.
	SumEntryCost(ctx context.Context, productID string) (decimal.Decimal, error)
}

// StockMovementRepository puerto del log de movimientos: solo append y consulta.
// No existe Update ni Delete; las correcciones se registran como movimientos nuevos.
type StockMovementRepository interface {
	StockMovementReader
	// Append persiste el movimiento y le asigna ID.
	Append(ctx context.Context, movement *entity.StockMovement) error
}
