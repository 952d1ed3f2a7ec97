package repository

import (
	"context"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain/entity"
)

// StockLevelRepository define el puerto para consultar/actualizar el stock actual por producto (DIP).
// Dentro de una transacción (TxRunner) se usa GetForUpdate para serializar escritores del mismo producto.
type StockLevelRepository interface {
	// Get devuelve (nil, nil) si el producto aún no tiene stock registrado.
	Get(ctx context.Context, productID string) (*entity.StockLevel, error)
	// GetForUpdate igual que Get pero bloquea la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, productID string) (*entity.StockLevel, error)
	// Create falla con domain.ErrDuplicate si ya existe.
	Create(ctx context.Context, level *entity.StockLevel) error
	// Update falla con domain.ErrNotFound si no existe.
	Update(ctx context.Context, level *entity.StockLevel) error
	List(ctx context.Context, limit, offset int) ([]*entity.StockLevel, error)
}
