package inventory

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain/repository"
)

const verifyBatchSize = 200

// Discrepancy producto cuyo stock no coincide con el último movimiento.
// LastNewQuantity es nil si el producto no tiene movimientos.
type Discrepancy struct {
	ProductID       string `json:"product_id"`
	Quantity        int64  `json:"quantity"`
	LastNewQuantity *int64 `json:"last_new_quantity"`
	LastMovementID  int64  `json:"last_movement_id,omitempty"`
}

// ConsistencyUseCase verifica que StockLevel.Quantity == NewQuantity del último movimiento para todo producto.
type ConsistencyUseCase struct {
	levels    LevelReader
	movements repository.StockMovementReader
	log       zerolog.Logger
}

// NewConsistencyUseCase construye el verificador.
func NewConsistencyUseCase(levels LevelReader, movements repository.StockMovementReader, log zerolog.Logger) *ConsistencyUseCase {
	return &ConsistencyUseCase{
		levels:    levels,
		movements: movements,
		log:       log.With().Str("component", "ledger_consistency").Logger(),
	}
}

// Verify recorre todos los StockLevel y devuelve las discrepancias encontradas.
// Cada discrepancia se registra como warning.
func (uc *ConsistencyUseCase) Verify(ctx context.Context) ([]Discrepancy, error) {
	out := []Discrepancy{}
	checked := 0
	for offset := 0; ; offset += verifyBatchSize {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		batch, err := uc.levels.List(ctx, verifyBatchSize, offset)
		if err != nil {
			return out, domain.Storage("list stock levels", err)
		}
		for _, level := range batch {
			last, err := uc.movements.Last(ctx, level.ProductID)
			if err != nil {
				return out, domain.Storage("last movement", err)
			}
			checked++
			switch {
			case last == nil:
				out = append(out, Discrepancy{ProductID: level.ProductID, Quantity: level.Quantity})
			case last.NewQuantity != level.Quantity:
				nq := last.NewQuantity
				out = append(out, Discrepancy{
					ProductID:       level.ProductID,
					Quantity:        level.Quantity,
					LastNewQuantity: &nq,
					LastMovementID:  last.ID,
				})
			default:
				continue
			}
			d := out[len(out)-1]
			ev := uc.log.Warn().Str("product_id", d.ProductID).Int64("quantity", d.Quantity)
			if d.LastNewQuantity != nil {
				ev = ev.Int64("last_new_quantity", *d.LastNewQuantity).Int64("movement_id", d.LastMovementID)
			}
			ev.Msg("stock inconsistente con el historial")
		}
		if len(batch) < verifyBatchSize {
			break
		}
	}
	uc.log.Info().Int("checked", checked).Int("discrepancies", len(out)).Msg("verificación de consistencia finalizada")
	return out, nil
}
