package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLevel representa el stock actual de un producto (fuente de verdad del "cuánto hay ahora").
// Quantity debe coincidir con NewQuantity del último StockMovement del producto.
// AverageCost es el costo promedio ponderado, recalculado en cada entrada con costo.
type StockLevel struct {
	ProductID     string
	Quantity      int64
	AverageCost   decimal.Decimal
	LastUpdatedBy string
	LastUpdatedAt time.Time
	CreatedAt     time.Time
}
