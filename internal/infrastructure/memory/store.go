// Package memory implementa los puertos del ledger en memoria (tests y DB_DRIVER=memory).
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

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

// Op operación del store en la que se puede inyectar un fallo.
type Op string

const (
	OpGetLevel    Op = "get_level"
	OpCreateLevel Op = "create_level"
	OpUpdateLevel Op = "update_level"
	OpListLevels  Op = "list_levels"
	OpAppend      Op = "append"
	OpFind        Op = "find"
	OpCount       Op = "count"
	OpLast        Op = "last"
	OpSumCost     Op = "sum_cost"
	OpCommit      Op = "commit"
)

// Store guarda stock y movimientos en memoria. Run toma el lock de escritura durante toda la
// transacción (un escritor a la vez) y restaura el snapshot si fn falla.
type Store struct {
	mu        sync.RWMutex
	levels    map[string]entity.StockLevel
	movements []entity.StockMovement
	nextID    int64

	faultsMu sync.Mutex
	faults   map[Op]error
}

// New construye un store vacío.
func New() *Store {
	return &Store{
		levels: make(map[string]entity.StockLevel),
		faults: make(map[Op]error),
	}
}

// FailOn hace que op devuelva err hasta que se llame a ClearFailures.
func (s *Store) FailOn(op Op, err error) {
	s.faultsMu.Lock()
	defer s.faultsMu.Unlock()
	s.faults[op] = err
}

// ClearFailures elimina los fallos inyectados.
func (s *Store) ClearFailures() {
	s.faultsMu.Lock()
	defer s.faultsMu.Unlock()
	s.faults = make(map[Op]error)
}

func (s *Store) fault(op Op) error {
	s.faultsMu.Lock()
	defer s.faultsMu.Unlock()
	if err := s.faults[op]; err != nil {
		return fmt.Errorf("memory %s: %w", op, err)
	}
	return nil
}

// Levels repositorio de stock fuera de transacción (lecturas). Las escrituras pasan por Run.
func (s *Store) Levels() repository.StockLevelRepository { return &levelRepo{s: s} }

// Movements lector del historial fuera de transacción.
func (s *Store) Movements() repository.StockMovementRepository { return &movementRepo{s: s} }

// Run ejecuta fn con repositorios atados a la transacción.
func (s *Store) Run(ctx context.Context, fn func(
	levelRepo repository.StockLevelRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(&levelRepo{s: s, inTx: true}, &movementRepo{s: s, inTx: true}); err != nil {
		s.restore(snap)
		return err
	}
	if err := s.fault(OpCommit); err != nil {
		s.restore(snap)
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type snapshot struct {
	levels    map[string]entity.StockLevel
	movements int
	nextID    int64
}

func (s *Store) snapshot() snapshot {
	levels := make(map[string]entity.StockLevel, len(s.levels))
	for k, v := range s.levels {
		levels[k] = v
	}
	// El log es append-only: basta con recordar su longitud.
	return snapshot{levels: levels, movements: len(s.movements), nextID: s.nextID}
}

func (s *Store) restore(snap snapshot) {
	s.levels = snap.levels
	s.movements = s.movements[:snap.movements]
	s.nextID = snap.nextID
}

// rlock toma el lock de lectura salvo dentro de Run, donde ya se posee el de escritura.
func (s *Store) rlock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

type levelRepo struct {
	s    *Store
	inTx bool
}

func (r *levelRepo) Get(_ context.Context, productID string) (*entity.StockLevel, error) {
	if err := r.s.fault(OpGetLevel); err != nil {
		return nil, err
	}
	defer r.s.rlock(r.inTx)()
	l, ok := r.s.levels[productID]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r *levelRepo) GetForUpdate(ctx context.Context, productID string) (*entity.StockLevel, error) {
	if !r.inTx {
		return nil, fmt.Errorf("get for update: fuera de transacción")
	}
	return r.Get(ctx, productID)
}

func (r *levelRepo) Create(_ context.Context, level *entity.StockLevel) error {
	if err := r.s.fault(OpCreateLevel); err != nil {
		return err
	}
	if !r.inTx {
		return fmt.Errorf("create stock level: fuera de transacción")
	}
	if _, ok := r.s.levels[level.ProductID]; ok {
		return fmt.Errorf("create stock level %s: %w", level.ProductID, domain.ErrDuplicate)
	}
	r.s.levels[level.ProductID] = *level
	return nil
}

func (r *levelRepo) Update(_ context.Context, level *entity.StockLevel) error {
	if err := r.s.fault(OpUpdateLevel); err != nil {
		return err
	}
	if !r.inTx {
		return fmt.Errorf("update stock level: fuera de transacción")
	}
	if _, ok := r.s.levels[level.ProductID]; !ok {
		return &domain.NotFoundError{Resource: "stock del producto", ID: level.ProductID}
	}
	r.s.levels[level.ProductID] = *level
	return nil
}

func (r *levelRepo) List(_ context.Context, limit, offset int) ([]*entity.StockLevel, error) {
	if err := r.s.fault(OpListLevels); err != nil {
		return nil, err
	}
	defer r.s.rlock(r.inTx)()
	ids := make([]string, 0, len(r.s.levels))
	for id := range r.s.levels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	ids = window(ids, limit, offset)
	out := make([]*entity.StockLevel, 0, len(ids))
	for _, id := range ids {
		l := r.s.levels[id]
		out = append(out, &l)
	}
	return out, nil
}

type movementRepo struct {
	s    *Store
	inTx bool
}

func (r *movementRepo) Append(_ context.Context, m *entity.StockMovement) error {
	if err := r.s.fault(OpAppend); err != nil {
		return err
	}
	if !r.inTx {
		return fmt.Errorf("append movement: fuera de transacción")
	}
	r.s.nextID++
	m.ID = r.s.nextID
	r.s.movements = append(r.s.movements, *m)
	return nil
}

func (r *movementRepo) Last(_ context.Context, productID string) (*entity.StockMovement, error) {
	if err := r.s.fault(OpLast); err != nil {
		return nil, err
	}
	defer r.s.rlock(r.inTx)()
	var last *entity.StockMovement
	for i := range r.s.movements {
		m := r.s.movements[i]
		if m.ProductID != productID {
			continue
		}
		if last == nil || m.ID > last.ID {
			last = &m
		}
	}
	return last, nil
}

func (r *movementRepo) Find(_ context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	if err := r.s.fault(OpFind); err != nil {
		return nil, err
	}
	defer r.s.rlock(r.inTx)()
	list := r.matching(f)
	sort.Slice(list, func(i, j int) bool { return after(*list[i], *list[j]) })
	return window(list, f.Limit, f.Offset), nil
}

func (r *movementRepo) Count(_ context.Context, f repository.MovementFilter) (int64, error) {
	if err := r.s.fault(OpCount); err != nil {
		return 0, err
	}
	defer r.s.rlock(r.inTx)()
	return int64(len(r.matching(f))), nil
}

func (r *movementRepo) SumEntryCost(_ context.Context, productID string) (decimal.Decimal, error) {
	if err := r.s.fault(OpSumCost); err != nil {
		return decimal.Zero, err
	}
	defer r.s.rlock(r.inTx)()
	total := decimal.Zero
	for _, m := range r.s.movements {
		if m.ProductID == productID && m.Type == entity.MovementTypeEntry && m.TotalCost.Valid {
			total = total.Add(m.TotalCost.Decimal)
		}
	}
	return total, nil
}

func (r *movementRepo) matching(f repository.MovementFilter) []*entity.StockMovement {
	var out []*entity.StockMovement
	for i := range r.s.movements {
		m := r.s.movements[i]
		if f.ProductID != "" && m.ProductID != f.ProductID {
			continue
		}
		if f.ActorID != "" && m.ActorID != f.ActorID {
			continue
		}
		if f.Type != nil && m.Type != *f.Type {
			continue
		}
		if f.From != nil && m.Timestamp.Before(*f.From) {
			continue
		}
		if f.To != nil && m.Timestamp.After(*f.To) {
			continue
		}
		out = append(out, &m)
	}
	return out
}

// after orden del historial: Timestamp DESC, ID DESC.
func after(a, b entity.StockMovement) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	return a.ID > b.ID
}

func window[T any](list []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset > len(list) {
		offset = len(list)
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
