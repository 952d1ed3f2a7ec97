package inventory

import (
	"context"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza que la actualización de StockLevel y el append del StockMovement se confirmen juntos
// o se reviertan juntos.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		levelRepo repository.StockLevelRepository,
		movRepo repository.StockMovementRepository,
	) error) error
}
