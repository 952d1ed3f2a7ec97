package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain/entity"
)

// CreateLevelRequest body para POST /api/inventory/levels.
type CreateLevelRequest struct {
	ProductID       string           `json:"product_id"`
	InitialQuantity int64            `json:"initial_quantity"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	Notes           string           `json:"notes,omitempty"`
}

// EntryRequest body para POST /api/inventory/levels/:product_id/entries.
type EntryRequest struct {
	Quantity  int64            `json:"quantity"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
	Notes     string           `json:"notes,omitempty"`
	Reference string           `json:"reference,omitempty"`
}

// ExitRequest body para POST /api/inventory/levels/:product_id/exits.
type ExitRequest struct {
	Quantity  int64  `json:"quantity"`
	Notes     string `json:"notes,omitempty"`
	Reference string `json:"reference,omitempty"`
}

// AdjustmentRequest body para POST /api/inventory/levels/:product_id/adjustments.
type AdjustmentRequest struct {
	TargetQuantity *int64 `json:"target_quantity"`
	Notes          string `json:"notes,omitempty"`
	Reference      string `json:"reference,omitempty"`
}

// ReservationRequest body para reservations y releases.
// available_before opcional: si no coincide con el stock actual la operación responde 409.
type ReservationRequest struct {
	Quantity        int64  `json:"quantity"`
	AvailableBefore *int64 `json:"available_before,omitempty"`
	Notes           string `json:"notes,omitempty"`
	Reference       string `json:"reference,omitempty"`
}

// StockLevelResponse stock actual de un producto.
type StockLevelResponse struct {
	ProductID     string          `json:"product_id"`
	Quantity      int64           `json:"quantity"`
	AverageCost   decimal.Decimal `json:"average_cost"`
	LastUpdatedBy string          `json:"last_updated_by"`
	LastUpdatedAt time.Time       `json:"last_updated_at"`
	CreatedAt     time.Time       `json:"created_at"`
}

// MovementResponse movimiento del historial.
type MovementResponse struct {
	ID               int64            `json:"id"`
	TransactionID    string           `json:"transaction_id"`
	ProductID        string           `json:"product_id"`
	ActorID          string           `json:"actor_id"`
	Type             string           `json:"type"`
	Quantity         int64            `json:"quantity"`
	PreviousQuantity int64            `json:"previous_quantity"`
	NewQuantity      int64            `json:"new_quantity"`
	Reference        string           `json:"reference"`
	Notes            string           `json:"notes"`
	UnitCost         *decimal.Decimal `json:"unit_cost,omitempty"`
	TotalCost        *decimal.Decimal `json:"total_cost,omitempty"`
	Timestamp        time.Time        `json:"timestamp"`
}

// MovementResultResponse respuesta de toda escritura: stock resultante y movimiento agregado.
type MovementResultResponse struct {
	Level    StockLevelResponse `json:"level"`
	Movement MovementResponse   `json:"movement"`
}

// MovementPageResponse página de movimientos.
type MovementPageResponse struct {
	Items []MovementResponse `json:"items"`
	PageResponse
}

// CountResponse total de movimientos.
type CountResponse struct {
	Total int64 `json:"total"`
}

// TotalCostResponse costo acumulado de las entradas de un producto.
type TotalCostResponse struct {
	ProductID string          `json:"product_id"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// FromLevel mapea la entidad.
func FromLevel(l *entity.StockLevel) StockLevelResponse {
	return StockLevelResponse{
		ProductID:     l.ProductID,
		Quantity:      l.Quantity,
		AverageCost:   l.AverageCost,
		LastUpdatedBy: l.LastUpdatedBy,
		LastUpdatedAt: l.LastUpdatedAt,
		CreatedAt:     l.CreatedAt,
	}
}

// FromMovement mapea la entidad.
func FromMovement(m *entity.StockMovement) MovementResponse {
	out := MovementResponse{
		ID:               m.ID,
		TransactionID:    m.TransactionID,
		ProductID:        m.ProductID,
		ActorID:          m.ActorID,
		Type:             m.Type.String(),
		Quantity:         m.Quantity,
		PreviousQuantity: m.PreviousQuantity,
		NewQuantity:      m.NewQuantity,
		Reference:        m.Reference,
		Notes:            m.Notes,
		Timestamp:        m.Timestamp,
	}
	if m.UnitCost.Valid {
		v := m.UnitCost.Decimal
		out.UnitCost = &v
	}
	if m.TotalCost.Valid {
		v := m.TotalCost.Decimal
		out.TotalCost = &v
	}
	return out
}

// FromMovements mapea una lista; nunca devuelve nil.
func FromMovements(list []*entity.StockMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, FromMovement(m))
	}
	return out
}

// NullDecimal convierte el campo opcional del request.
func NullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}
