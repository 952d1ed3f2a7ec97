// Package sqlite implementa los puertos del ledger sobre SQLite (despliegues de una sola instancia).
//
// La base se abre en WAL con una única conexión: todas las escrituras quedan serializadas y cada
// transacción se inicia con BEGIN IMMEDIATE, equivalente al bloqueo de fila de PostgreSQL.
// El esquema se migra en New. Los timestamps se guardan como TEXT UTC de ancho fijo para que
// el orden lexicográfico coincida con el cronológico; los importes como TEXT decimal.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/application/inventory"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain/entity"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain/repository"
)

var (
	_ inventory.TxRunner                 = (*Store)(nil)
	_ repository.StockLevelRepository    = (*levelRepo)(nil)
	_ repository.StockMovementRepository = (*movementRepo)(nil)
)

const timeLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS stock_levels (
	product_id      TEXT PRIMARY KEY,
	quantity        INTEGER NOT NULL CHECK (quantity >= 0),
	average_cost    TEXT    NOT NULL DEFAULT '0',
	last_updated_by TEXT    NOT NULL,
	last_updated_at TEXT    NOT NULL,
	created_at      TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS stock_movements (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	transaction_id    TEXT    NOT NULL,
	product_id        TEXT    NOT NULL,
	actor_id          TEXT    NOT NULL,
	type              TEXT    NOT NULL CHECK (type IN ('ENTRY', 'EXIT', 'ADJUSTMENT', 'RETURN')),
	quantity          INTEGER NOT NULL CHECK (quantity >= 0),
	previous_quantity INTEGER NOT NULL,
	new_quantity      INTEGER NOT NULL,
	reference         TEXT    NOT NULL DEFAULT '',
	notes             TEXT    NOT NULL DEFAULT '',
	unit_cost         TEXT,
	total_cost        TEXT,
	created_at        TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_stock_movements_product ON stock_movements (product_id, created_at, id);
CREATE INDEX IF NOT EXISTS idx_stock_movements_actor ON stock_movements (actor_id, created_at, id);
CREATE INDEX IF NOT EXISTS idx_stock_movements_type ON stock_movements (type, created_at, id);
CREATE INDEX IF NOT EXISTS idx_stock_movements_created ON stock_movements (created_at, id);

CREATE TRIGGER IF NOT EXISTS trg_stock_movements_no_update
BEFORE UPDATE ON stock_movements
BEGIN
	SELECT RAISE(ABORT, 'stock_movements es append-only: UPDATE no permitido');
END;

CREATE TRIGGER IF NOT EXISTS trg_stock_movements_no_delete
BEFORE DELETE ON stock_movements
BEGIN
	SELECT RAISE(ABORT, 'stock_movements es append-only: DELETE no permitido');
END;
`

// querier lo comparten *sql.DB y *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store stock y movimientos sobre SQLite.
type Store struct {
	db *sql.DB
}

// New abre (o crea) la base en path y aplica el esquema. ":memory:" crea una base efímera.
func New(path string) (*Store, error) {
	dsn := "file:" + path + "?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate&_foreign_keys=on"
	if path == ":memory:" {
		dsn = "file::memory:?_txlock=immediate"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("abrir sqlite: %w", err)
	}
	// Una sola conexión: un escritor a la vez, y ":memory:" comparte la misma base.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrar sqlite: %w", err)
	}
	return &Store{db: db}, nil
}

// Close cierra la base.
func (s *Store) Close() error { return s.db.Close() }

// Levels repositorio de stock fuera de transacción.
func (s *Store) Levels() repository.StockLevelRepository { return &levelRepo{q: s.db} }

// Movements log de movimientos fuera de transacción.
func (s *Store) Movements() repository.StockMovementRepository { return &movementRepo{q: s.db} }

// Run ejecuta fn dentro de una transacción BEGIN IMMEDIATE.
func (s *Store) Run(ctx context.Context, fn func(
	levelRepo repository.StockLevelRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&levelRepo{q: tx}, &movementRepo{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type levelRepo struct {
	q querier
}

const levelColumns = `product_id, quantity, average_cost, last_updated_by, last_updated_at, created_at`

func (r *levelRepo) Get(ctx context.Context, productID string) (*entity.StockLevel, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+levelColumns+` FROM stock_levels WHERE product_id = ?`, productID)
	l, err := scanLevel(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock level: %w", err)
	}
	return l, nil
}

// GetForUpdate en SQLite el lock lo da la transacción IMMEDIATE; basta con leer.
func (r *levelRepo) GetForUpdate(ctx context.Context, productID string) (*entity.StockLevel, error) {
	return r.Get(ctx, productID)
}

func (r *levelRepo) Create(ctx context.Context, l *entity.StockLevel) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO stock_levels (`+levelColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		l.ProductID, l.Quantity, l.AverageCost.String(), l.LastUpdatedBy,
		formatTime(l.LastUpdatedAt), formatTime(l.CreatedAt),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("create stock level %s: %w", l.ProductID, domain.ErrDuplicate)
		}
		return fmt.Errorf("create stock level: %w", err)
	}
	return nil
}

func (r *levelRepo) Update(ctx context.Context, l *entity.StockLevel) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE stock_levels SET quantity = ?, average_cost = ?, last_updated_by = ?, last_updated_at = ?
		WHERE product_id = ?`,
		l.Quantity, l.AverageCost.String(), l.LastUpdatedBy, formatTime(l.LastUpdatedAt), l.ProductID,
	)
	if err != nil {
		return fmt.Errorf("update stock level: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update stock level: %w", err)
	}
	if n == 0 {
		return &domain.NotFoundError{Resource: "stock del producto", ID: l.ProductID}
	}
	return nil
}

func (r *levelRepo) List(ctx context.Context, limit, offset int) ([]*entity.StockLevel, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+levelColumns+` FROM stock_levels ORDER BY product_id LIMIT ? OFFSET ?`, limit, offset)
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

type movementRepo struct {
	q querier
}

const movementColumns = `id, transaction_id, product_id, actor_id, type, quantity, previous_quantity, new_quantity,
	reference, notes, unit_cost, total_cost, created_at`

func (r *movementRepo) Append(ctx context.Context, m *entity.StockMovement) error {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO stock_movements (transaction_id, product_id, actor_id, type, quantity, previous_quantity,
			new_quantity, reference, notes, unit_cost, total_cost, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.TransactionID, m.ProductID, m.ActorID, string(m.Type), m.Quantity, m.PreviousQuantity,
		m.NewQuantity, m.Reference, m.Notes, nullDecimal(m.UnitCost), nullDecimal(m.TotalCost), formatTime(m.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("append stock movement: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("append stock movement: %w", err)
	}
	m.ID = id
	return nil
}

func (r *movementRepo) Last(ctx context.Context, productID string) (*entity.StockMovement, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+movementColumns+` FROM stock_movements
		WHERE product_id = ? ORDER BY id DESC LIMIT 1`, productID)
	m, err := scanMovement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("last stock movement: %w", err)
	}
	return m, nil
}

func (r *movementRepo) Find(ctx context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	where, args := whereClause(f)
	query := `SELECT ` + movementColumns + ` FROM stock_movements` + where + ` ORDER BY created_at DESC, id DESC`
	// SQLite exige LIMIT para usar OFFSET; -1 equivale a sin límite.
	if f.Limit > 0 || f.Offset > 0 {
		limit := f.Limit
		if limit <= 0 {
			limit = -1
		}
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, max(f.Offset, 0))
	}
	rows, err := r.q.QueryContext(ctx, query, args...)
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

func (r *movementRepo) Count(ctx context.Context, f repository.MovementFilter) (int64, error) {
	where, args := whereClause(f)
	var n int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM stock_movements`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count stock movements: %w", err)
	}
	return n, nil
}

// SumEntryCost suma en Go: SQLite no tiene aritmética decimal exacta.
func (r *movementRepo) SumEntryCost(ctx context.Context, productID string) (decimal.Decimal, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT total_cost FROM stock_movements
		WHERE product_id = ? AND type = ? AND total_cost IS NOT NULL`,
		productID, string(entity.MovementTypeEntry))
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum entry cost: %w", err)
	}
	defer rows.Close()
	total := decimal.Zero
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return decimal.Zero, fmt.Errorf("scan total_cost: %w", err)
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("total_cost %q: %w", s, err)
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLevel(row scanner) (*entity.StockLevel, error) {
	var (
		l                  entity.StockLevel
		avg, updated, born string
	)
	if err := row.Scan(&l.ProductID, &l.Quantity, &avg, &l.LastUpdatedBy, &updated, &born); err != nil {
		return nil, err
	}
	var err error
	if l.AverageCost, err = decimal.NewFromString(avg); err != nil {
		return nil, fmt.Errorf("average_cost %q: %w", avg, err)
	}
	if l.LastUpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	if l.CreatedAt, err = parseTime(born); err != nil {
		return nil, err
	}
	return &l, nil
}

func scanMovement(row scanner) (*entity.StockMovement, error) {
	var (
		m               entity.StockMovement
		mt, ts          string
		unit, totalCost sql.NullString
	)
	if err := row.Scan(&m.ID, &m.TransactionID, &m.ProductID, &m.ActorID, &mt, &m.Quantity,
		&m.PreviousQuantity, &m.NewQuantity, &m.Reference, &m.Notes, &unit, &totalCost, &ts); err != nil {
		return nil, err
	}
	var err error
	if m.Type, err = entity.ParseMovementType(mt); err != nil {
		return nil, err
	}
	if m.Timestamp, err = parseTime(ts); err != nil {
		return nil, err
	}
	if m.UnitCost, err = parseNullDecimal(unit); err != nil {
		return nil, err
	}
	if m.TotalCost, err = parseNullDecimal(totalCost); err != nil {
		return nil, err
	}
	return &m, nil
}

func whereClause(f repository.MovementFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.ProductID != "" {
		conds, args = append(conds, "product_id = ?"), append(args, f.ProductID)
	}
	if f.ActorID != "" {
		conds, args = append(conds, "actor_id = ?"), append(args, f.ActorID)
	}
	if f.Type != nil {
		conds, args = append(conds, "type = ?"), append(args, string(*f.Type))
	}
	if f.From != nil {
		conds, args = append(conds, "created_at >= ?"), append(args, formatTime(*f.From))
	}
	if f.To != nil {
		conds, args = append(conds, "created_at <= ?"), append(args, formatTime(*f.To))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q: %w", s, err)
	}
	return t, nil
}

func nullDecimal(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

func parseNullDecimal(s sql.NullString) (decimal.NullDecimal, error) {
	if !s.Valid {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("decimal %q: %w", s.String, err)
	}
	return decimal.NewNullDecimal(d), nil
}

func isConstraintViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || se.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
