package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain/entity"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain/repository"
)

var _ repository.StockLevelRepository = (*StockLevelRepo)(nil)

const levelColumns = `product_id, quantity, average_cost, last_updated_by, last_updated_at, created_at`

// StockLevelRepo implementación de StockLevelRepository sobre PostgreSQL (usable con pool o tx).
type StockLevelRepo struct {
	q Querier
}

// NewStockLevelRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockLevelRepository(q Querier) *StockLevelRepo {
	return &StockLevelRepo{q: q}
}

// Get obtiene el stock actual de un producto; (nil, nil) si no existe.
func (r *StockLevelRepo) Get(ctx context.Context, productID string) (*entity.StockLevel, error) {
	return r.get(ctx, `SELECT `+levelColumns+` FROM stock_levels WHERE product_id = $1`, productID)
}

// GetForUpdate obtiene el stock y bloquea la fila para update (SELECT FOR UPDATE).
func (r *StockLevelRepo) GetForUpdate(ctx context.Context, productID string) (*entity.StockLevel, error) {
	return r.get(ctx, `SELECT `+levelColumns+` FROM stock_levels WHERE product_id = $1 FOR UPDATE`, productID)
}

func (r *StockLevelRepo) get(ctx context.Context, query, productID string) (*entity.StockLevel, error) {
	l, err := scanLevel(r.q.QueryRow(ctx, query, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock level: %w", err)
	}
	return l, nil
}

// Create inserta el stock inicial. Falla con domain.ErrDuplicate si el producto ya tiene stock.
func (r *StockLevelRepo) Create(ctx context.Context, l *entity.StockLevel) error {
	query := `
		INSERT INTO stock_levels (` + levelColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query,
		l.ProductID, l.Quantity, l.AverageCost, l.LastUpdatedBy, l.LastUpdatedAt, l.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create stock level %s: %w", l.ProductID, domain.ErrDuplicate)
		}
		return fmt.Errorf("create stock level: %w", err)
	}
	return nil
}

// Update persiste cantidad, costo promedio y auditoría.
func (r *StockLevelRepo) Update(ctx context.Context, l *entity.StockLevel) error {
	query := `
		UPDATE stock_levels
		SET quantity = $2, average_cost = $3, last_updated_by = $4, last_updated_at = $5
		WHERE product_id = $1`
	tag, err := r.q.Exec(ctx, query, l.ProductID, l.Quantity, l.AverageCost, l.LastUpdatedBy, l.LastUpdatedAt)
	if err != nil {
		return fmt.Errorf("update stock level: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "stock del producto", ID: l.ProductID}
	}
	return nil
}

// List devuelve el stock ordenado por producto.
func (r *StockLevelRepo) List(ctx context.Context, limit, offset int) ([]*entity.StockLevel, error) {
	query := `SELECT ` + levelColumns + ` FROM stock_levels ORDER BY product_id LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stock levels: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockLevel
	for rows.Next() {
		l, err := scanLevel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

func scanLevel(row pgx.Row) (*entity.StockLevel, error) {
	var l entity.StockLevel
	if err := row.Scan(&l.ProductID, &l.Quantity, &l.AverageCost, &l.LastUpdatedBy, &l.LastUpdatedAt, &l.CreatedAt); err != nil {
		return nil, err
	}
	l.LastUpdatedAt = l.LastUpdatedAt.UTC()
	l.CreatedAt = l.CreatedAt.UTC()
	return &l, nil
}
