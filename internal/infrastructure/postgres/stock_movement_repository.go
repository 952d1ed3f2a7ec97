package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain/entity"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `id, transaction_id, product_id, actor_id, type, quantity, previous_quantity, new_quantity,
	reference, notes, unit_cost, total_cost, created_at`

// StockMovementRepo log de movimientos sobre PostgreSQL (usable con pool o tx). Solo INSERT y SELECT;
// un trigger rechaza UPDATE/DELETE sobre stock_movements.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Append persiste un movimiento y le asigna el ID generado.
func (r *StockMovementRepo) Append(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (transaction_id, product_id, actor_id, type, quantity, previous_quantity,
			new_quantity, reference, notes, unit_cost, total_cost, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		m.TransactionID, m.ProductID, m.ActorID, string(m.Type), m.Quantity, m.PreviousQuantity,
		m.NewQuantity, m.Reference, m.Notes, m.UnitCost, m.TotalCost, m.Timestamp.UTC(),
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("append stock movement: %w", err)
	}
	return nil
}

// Last último movimiento agregado del producto (mayor id); (nil, nil) si no tiene.
func (r *StockMovementRepo) Last(ctx context.Context, productID string) (*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements
		WHERE product_id = $1 ORDER BY id DESC LIMIT 1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("last stock movement: %w", err)
	}
	return m, nil
}

// Find movimientos que cumplen el filtro, más recientes primero.
func (r *StockMovementRepo) Find(ctx context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	where, args := whereClause(f)
	query := `SELECT ` + movementColumns + ` FROM stock_movements` + where + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find stock movements: %w", err)
	}
	defer rows.Close()
	list := []*entity.StockMovement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// Count cantidad de movimientos que cumplen el filtro (Limit/Offset se ignoran).
func (r *StockMovementRepo) Count(ctx context.Context, f repository.MovementFilter) (int64, error) {
	where, args := whereClause(f)
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stock_movements`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count stock movements: %w", err)
	}
	return n, nil
}

// SumEntryCost suma total_cost de las entradas del producto.
func (r *StockMovementRepo) SumEntryCost(ctx context.Context, productID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(total_cost), 0) FROM stock_movements
		WHERE product_id = $1 AND type = $2 AND total_cost IS NOT NULL`
	var total decimal.Decimal
	if err := r.q.QueryRow(ctx, query, productID, string(entity.MovementTypeEntry)).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum entry cost: %w", err)
	}
	return total, nil
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var (
		m  entity.StockMovement
		mt string
	)
	if err := row.Scan(&m.ID, &m.TransactionID, &m.ProductID, &m.ActorID, &mt, &m.Quantity,
		&m.PreviousQuantity, &m.NewQuantity, &m.Reference, &m.Notes, &m.UnitCost, &m.TotalCost, &m.Timestamp); err != nil {
		return nil, err
	}
	t, err := entity.ParseMovementType(mt)
	if err != nil {
		return nil, err
	}
	m.Type = t
	m.Timestamp = m.Timestamp.UTC()
	return &m, nil
}
