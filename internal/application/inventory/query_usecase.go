package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain/entity"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain/repository"
)

// Límite superior del tamaño de página.
const MaxPageSize = 500

// LevelReader lectura del stock actual fuera de una transacción.
type LevelReader interface {
	Get(ctx context.Context, productID string) (*entity.StockLevel, error)
	List(ctx context.Context, limit, offset int) ([]*entity.StockLevel, error)
}

// LedgerQueryUseCase consultas de solo lectura sobre stock e historial.
type LedgerQueryUseCase struct {
	levels    LevelReader
	movements repository.StockMovementReader
	log       zerolog.Logger
}

// NewLedgerQueryUseCase construye el caso de uso.
func NewLedgerQueryUseCase(levels LevelReader, movements repository.StockMovementReader, log zerolog.Logger) *LedgerQueryUseCase {
	return &LedgerQueryUseCase{
		levels:    levels,
		movements: movements,
		log:       log.With().Str("component", "ledger_query").Logger(),
	}
}

// Page página de movimientos (1-indexada).
type Page struct {
	Items      []*entity.StockMovement
	Page       int
	Size       int
	Total      int64
	TotalPages int
}

// Level stock actual del producto. NotFoundError si no existe.
func (uc *LedgerQueryUseCase) Level(ctx context.Context, productID string) (*entity.StockLevel, error) {
	id, err := requireID("product_id", productID)
	if err != nil {
		return nil, err
	}
	level, err := uc.levels.Get(ctx, id)
	if err != nil {
		return nil, domain.Storage("get stock level", err)
	}
	if level == nil {
		return nil, &domain.NotFoundError{Resource: "stock del producto", ID: id}
	}
	return level, nil
}

// Exists indica si el producto tiene stock registrado. Ante fallo de almacenamiento devuelve false.
func (uc *LedgerQueryUseCase) Exists(ctx context.Context, productID string) bool {
	id := strings.TrimSpace(productID)
	if id == "" {
		return false
	}
	level, err := uc.levels.Get(ctx, id)
	if BestEffort(uc.log, "exists", err) {
		return false
	}
	return level != nil
}

// Levels lista paginada de StockLevel ordenada por producto.
func (uc *LedgerQueryUseCase) Levels(ctx context.Context, limit, offset int) ([]*entity.StockLevel, error) {
	if limit < 1 {
		return nil, domain.Invalid("limit", "debe ser mayor o igual a 1")
	}
	if offset < 0 {
		return nil, domain.Invalid("offset", "no puede ser negativo")
	}
	list, err := uc.levels.List(ctx, limit, offset)
	if err != nil {
		return nil, domain.Storage("list stock levels", err)
	}
	return list, nil
}

// ByProduct historial del producto, más reciente primero.
func (uc *LedgerQueryUseCase) ByProduct(ctx context.Context, productID string) ([]*entity.StockMovement, error) {
	id, err := requireID("product_id", productID)
	if err != nil {
		return nil, err
	}
	return uc.find(ctx, "by_product", repository.MovementFilter{ProductID: id})
}

// ByUser movimientos registrados por el actor.
func (uc *LedgerQueryUseCase) ByUser(ctx context.Context, actorID string) ([]*entity.StockMovement, error) {
	id, err := requireID("actor_id", actorID)
	if err != nil {
		return nil, err
	}
	return uc.find(ctx, "by_user", repository.MovementFilter{ActorID: id})
}

// ByType movimientos del tipo dado.
func (uc *LedgerQueryUseCase) ByType(ctx context.Context, t entity.MovementType) ([]*entity.StockMovement, error) {
	if !t.Valid() {
		return nil, domain.Invalid("type", "tipo de movimiento desconocido")
	}
	return uc.find(ctx, "by_type", repository.MovementFilter{Type: &t})
}

// ByDateRange movimientos con timestamp en [start, end]. ValidationError si end < start.
func (uc *LedgerQueryUseCase) ByDateRange(ctx context.Context, start, end time.Time) ([]*entity.StockMovement, error) {
	f, err := rangeFilter(start, end)
	if err != nil {
		return nil, err
	}
	return uc.find(ctx, "by_date_range", f)
}

// ByProductAndDateRange intersección de ByProduct y ByDateRange.
func (uc *LedgerQueryUseCase) ByProductAndDateRange(ctx context.Context, productID string, start, end time.Time) ([]*entity.StockMovement, error) {
	id, err := requireID("product_id", productID)
	if err != nil {
		return nil, err
	}
	f, err := rangeFilter(start, end)
	if err != nil {
		return nil, err
	}
	f.ProductID = id
	return uc.find(ctx, "by_product_and_date_range", f)
}

// TotalCostByProduct suma TotalCost de las entradas del producto; cero si ninguna tiene costo.
func (uc *LedgerQueryUseCase) TotalCostByProduct(ctx context.Context, productID string) (decimal.Decimal, error) {
	id, err := requireID("product_id", productID)
	if err != nil {
		return decimal.Zero, err
	}
	total, err := uc.movements.SumEntryCost(ctx, id)
	if err != nil {
		return decimal.Zero, domain.Storage("sum entry cost", err)
	}
	return total, nil
}

// Paged página pageNumber (desde 1) de tamaño pageSize sobre todo el historial.
func (uc *LedgerQueryUseCase) Paged(ctx context.Context, pageNumber, pageSize int) (*Page, error) {
	if pageNumber < 1 {
		return nil, domain.Invalid("page", "debe ser mayor o igual a 1")
	}
	if pageSize < 1 {
		return nil, domain.Invalid("size", "debe ser mayor o igual a 1")
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	total, err := uc.Count(ctx)
	if err != nil {
		return nil, err
	}
	page := &Page{
		Items:      []*entity.StockMovement{},
		Page:       pageNumber,
		Size:       pageSize,
		Total:      total,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	}
	// Más allá de la última página no se consulta: el offset podría desbordar
	if pageNumber > page.TotalPages {
		return page, nil
	}
	page.Items, err = uc.find(ctx, "paged", repository.MovementFilter{
		Limit:  pageSize,
		Offset: (pageNumber - 1) * pageSize,
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Count total de movimientos; propaga el error de almacenamiento.
func (uc *LedgerQueryUseCase) Count(ctx context.Context) (int64, error) {
	n, err := uc.movements.Count(ctx, repository.MovementFilter{})
	if err != nil {
		return 0, domain.Storage("count movements", err)
	}
	return n, nil
}

// TotalCount total de movimientos para UIs de paginación. Ante fallo registra un warning y devuelve 0.
func (uc *LedgerQueryUseCase) TotalCount(ctx context.Context) int64 {
	n, err := uc.movements.Count(ctx, repository.MovementFilter{})
	if BestEffort(uc.log, "total_count", err) {
		return 0
	}
	return n
}

func (uc *LedgerQueryUseCase) find(ctx context.Context, op string, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	items, err := uc.movements.Find(ctx, f)
	if err != nil {
		return nil, domain.Storage(op, err)
	}
	if items == nil {
		items = []*entity.StockMovement{}
	}
	return items, nil
}

func rangeFilter(start, end time.Time) (repository.MovementFilter, error) {
	if start.IsZero() || end.IsZero() {
		return repository.MovementFilter{}, domain.Invalid("range", "inicio y fin son obligatorios")
	}
	if end.Before(start) {
		return repository.MovementFilter{}, domain.Invalid("range", "la fecha final es anterior a la inicial")
	}
	from, to := start.UTC(), end.UTC()
	return repository.MovementFilter{From: &from, To: &to}, nil
}

func requireID(field, v string) (string, error) {
	id := strings.TrimSpace(v)
	if id == "" {
		return "", domain.Invalid(field, "es obligatorio")
	}
	return id, nil
}
