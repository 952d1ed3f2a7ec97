package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain/entity"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain/inventory"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain/repository"
)

// StockLedgerUseCase mantiene el stock actual por producto y agrega, en la misma transacción,
// el StockMovement que explica cada cambio. Es el único escritor de ambos almacenes.
//
// Serialización: un lock por producto dentro del proceso más el bloqueo de fila del store
// (SELECT FOR UPDATE) garantizan a lo sumo una mutación en curso por producto.
type StockLedgerUseCase struct {
	txRunner TxRunner
	log      zerolog.Logger
	locks    *keyedMutex
	now      func() time.Time
}

// Option configura StockLedgerUseCase.
type Option func(*StockLedgerUseCase)

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(uc *StockLedgerUseCase) { uc.now = now }
}

// NewStockLedgerUseCase construye el caso de uso.
func NewStockLedgerUseCase(txRunner TxRunner, log zerolog.Logger, opts ...Option) *StockLedgerUseCase {
	uc := &StockLedgerUseCase{
		txRunner: txRunner,
		log:      log.With().Str("component", "stock_ledger").Logger(),
		locks:    newKeyedMutex(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// CreationInput stock inicial de un producto sin StockLevel previo.
type CreationInput struct {
	ProductID       string
	ActorID         string
	InitialQuantity int64
	UnitCost        decimal.NullDecimal
	Notes           string
}

// EntryInput entrada de mercadería. UnitCost opcional; si viene, TotalCost = UnitCost * Quantity.
type EntryInput struct {
	ProductID string
	ActorID   string
	Quantity  int64
	UnitCost  decimal.NullDecimal
	Notes     string
	Reference string
}

// ExitInput salida de mercadería.
type ExitInput struct {
	ProductID string
	ActorID   string
	Quantity  int64
	Notes     string
	Reference string
}

// AdjustmentInput fija el stock en TargetQuantity (conteo físico).
type AdjustmentInput struct {
	ProductID      string
	ActorID        string
	TargetQuantity int64
	Notes          string
	Reference      string
}

// ReservationInput reserva o liberación de cantidad disponible.
// AvailableBefore es opcional: si viene, debe coincidir con el stock actual o la operación
// falla con domain.ErrConflict (control optimista del llamador).
type ReservationInput struct {
	ProductID       string
	ActorID         string
	Quantity        int64
	AvailableBefore *int64
	Notes           string
	Reference       string
}

// MovementResult stock resultante y movimiento agregado.
type MovementResult struct {
	Level    *entity.StockLevel
	Movement *entity.StockMovement
}

// mutation describe una escritura; apply la ejecuta con las garantías de serialización y atomicidad.
type mutation struct {
	op        string
	productID string
	actorID   string
	purpose   inventory.Purpose
	requested entity.MovementType
	create    bool
	expected  *int64
	unitCost  decimal.NullDecimal
	notes     string
	reference string
	// next calcula la nueva cantidad a partir de la actual (leída bajo lock).
	next func(current int64) (int64, error)
}

// RecordCreation crea el StockLevel con InitialQuantity y agrega una entrada con PreviousQuantity = 0.
func (uc *StockLedgerUseCase) RecordCreation(ctx context.Context, in CreationInput) (*MovementResult, error) {
	if in.InitialQuantity < 0 {
		return nil, domain.Invalid("initial_quantity", "no puede ser negativa")
	}
	if err := validateUnitCost(in.UnitCost); err != nil {
		return nil, err
	}
	return uc.apply(ctx, mutation{
		op:        "record_creation",
		productID: in.ProductID,
		actorID:   in.ActorID,
		purpose:   inventory.PurposeCreation,
		requested: entity.MovementTypeEntry,
		create:    true,
		unitCost:  in.UnitCost,
		notes:     in.Notes,
		next:      func(int64) (int64, error) { return in.InitialQuantity, nil },
	})
}

// RecordEntry suma Quantity al stock. Tipo forzado a Entry.
func (uc *StockLedgerUseCase) RecordEntry(ctx context.Context, in EntryInput) (*MovementResult, error) {
	if err := validateMagnitude(in.Quantity); err != nil {
		return nil, err
	}
	if err := validateUnitCost(in.UnitCost); err != nil {
		return nil, err
	}
	return uc.apply(ctx, mutation{
		op:        "record_entry",
		productID: in.ProductID,
		actorID:   in.ActorID,
		purpose:   inventory.PurposeStandard,
		requested: entity.MovementTypeEntry,
		unitCost:  in.UnitCost,
		notes:     in.Notes,
		reference: in.Reference,
		next:      add(in.Quantity),
	})
}

// RecordExit resta Quantity del stock. Tipo forzado a Exit.
// El stock nunca queda negativo: si Quantity supera lo disponible falla con ErrInsufficientStock.
func (uc *StockLedgerUseCase) RecordExit(ctx context.Context, in ExitInput) (*MovementResult, error) {
	if err := validateMagnitude(in.Quantity); err != nil {
		return nil, err
	}
	return uc.apply(ctx, mutation{
		op:        "record_exit",
		productID: in.ProductID,
		actorID:   in.ActorID,
		purpose:   inventory.PurposeStandard,
		requested: entity.MovementTypeExit,
		notes:     in.Notes,
		reference: in.Reference,
		next:      subtract(in.ProductID, in.Quantity),
	})
}

// RecordAdjustment fija el stock en TargetQuantity. El tipo se infiere del signo
// de TargetQuantity - actual (Entry, Exit o Adjustment si no hay variación).
func (uc *StockLedgerUseCase) RecordAdjustment(ctx context.Context, in AdjustmentInput) (*MovementResult, error) {
	if in.TargetQuantity < 0 {
		return nil, domain.Invalid("target_quantity", "no puede ser negativa")
	}
	return uc.apply(ctx, mutation{
		op:        "record_adjustment",
		productID: in.ProductID,
		actorID:   in.ActorID,
		purpose:   inventory.PurposeAdjustment,
		requested: entity.MovementTypeAdjustment,
		notes:     in.Notes,
		reference: in.Reference,
		next:      func(int64) (int64, error) { return in.TargetQuantity, nil },
	})
}

// Reserve retira Quantity de la disponibilidad (p. ej. venta en curso) como salida.
// Cada reserva debe cerrarse con un Release o con la salida definitiva; el emparejamiento
// es responsabilidad del llamador.
func (uc *StockLedgerUseCase) Reserve(ctx context.Context, in ReservationInput) (*MovementResult, error) {
	if err := validateMagnitude(in.Quantity); err != nil {
		return nil, err
	}
	return uc.apply(ctx, mutation{
		op:        "reserve",
		productID: in.ProductID,
		actorID:   in.ActorID,
		purpose:   inventory.PurposeReservation,
		requested: entity.MovementTypeExit,
		expected:  in.AvailableBefore,
		notes:     in.Notes,
		reference: in.Reference,
		next:      subtract(in.ProductID, in.Quantity),
	})
}

// Release devuelve Quantity a la disponibilidad como movimiento Return.
func (uc *StockLedgerUseCase) Release(ctx context.Context, in ReservationInput) (*MovementResult, error) {
	if err := validateMagnitude(in.Quantity); err != nil {
		return nil, err
	}
	return uc.apply(ctx, mutation{
		op:        "release",
		productID: in.ProductID,
		actorID:   in.ActorID,
		purpose:   inventory.PurposeRelease,
		requested: entity.MovementTypeReturn,
		expected:  in.AvailableBefore,
		notes:     in.Notes,
		reference: in.Reference,
		next:      add(in.Quantity),
	})
}

func (uc *StockLedgerUseCase) apply(ctx context.Context, m mutation) (*MovementResult, error) {
	// Los parámetros HTTP pueden apuntar a buffers reutilizados; se copian antes de guardarse
	m.productID = strings.Clone(strings.TrimSpace(m.productID))
	m.actorID = strings.Clone(strings.TrimSpace(m.actorID))
	if m.actorID == "" {
		return nil, domain.Invalid("actor_id", "es obligatorio")
	}
	if m.productID == "" {
		return nil, domain.Invalid("product_id", "es obligatorio")
	}

	unlock := uc.locks.Lock(m.productID)
	defer unlock()

	now := uc.now().UTC().Truncate(time.Microsecond)
	txID := uuid.New().String()
	var result *MovementResult

	err := uc.txRunner.Run(ctx, func(
		levelRepo repository.StockLevelRepository,
		movRepo repository.StockMovementRepository,
	) error {
		// Bloquea la fila del producto hasta el commit
		level, err := levelRepo.GetForUpdate(ctx, m.productID)
		if err != nil {
			return domain.Storage("get stock level", err)
		}
		if m.create && level != nil {
			return fmt.Errorf("stock de %s ya registrado: %w", m.productID, domain.ErrDuplicate)
		}
		if !m.create && level == nil {
			return &domain.NotFoundError{Resource: "stock del producto", ID: m.productID}
		}

		var current int64
		if level != nil {
			current = level.Quantity
		}
		if m.expected != nil && *m.expected != current {
			return fmt.Errorf("disponible esperado %d, actual %d: %w", *m.expected, current, domain.ErrConflict)
		}
		newQty, err := m.next(current)
		if err != nil {
			return err
		}

		c := inventory.Classify(inventory.ClassifyInput{
			ProductID:        m.productID,
			PreviousQuantity: current,
			Delta:            newQty - current,
			Requested:        m.requested,
			Purpose:          m.purpose,
			At:               now,
		})
		mov := &entity.StockMovement{
			TransactionID:    txID,
			ProductID:        m.productID,
			ActorID:          m.actorID,
			Type:             c.Type,
			Quantity:         c.Quantity,
			PreviousQuantity: current,
			NewQuantity:      newQty,
			Reference:        firstNonEmpty(m.reference, c.Reference),
			Notes:            firstNonEmpty(m.notes, c.Notes),
			Timestamp:        now,
		}
		if c.Type == entity.MovementTypeEntry && m.unitCost.Valid {
			mov.UnitCost = m.unitCost
			mov.TotalCost = inventory.TotalCost(m.unitCost, c.Quantity)
		}

		if level == nil {
			level = &entity.StockLevel{ProductID: m.productID, CreatedAt: now}
		}
		switch {
		case !mov.UnitCost.Valid:
		case level.AverageCost.IsZero():
			// Sin costo previo conocido: la entrada fija el promedio
			level.AverageCost = mov.UnitCost.Decimal
		default:
			level.AverageCost = inventory.CostCalculator(current, level.AverageCost, mov.Quantity, mov.UnitCost.Decimal)
		}
		level.Quantity = newQty
		level.LastUpdatedBy = m.actorID
		level.LastUpdatedAt = now

		if m.create {
			err = levelRepo.Create(ctx, level)
		} else {
			err = levelRepo.Update(ctx, level)
		}
		if err != nil {
			return domain.Storage("save stock level", err)
		}
		if err := movRepo.Append(ctx, mov); err != nil {
			uc.log.Error().Err(err).
				Str("op", m.op).
				Str("product_id", m.productID).
				Str("transaction_id", txID).
				Msg("fallo al registrar el movimiento; se revierte la actualización de stock")
			return domain.Storage("append stock movement", err)
		}
		result = &MovementResult{Level: level, Movement: mov}
		return nil
	})
	if err != nil {
		uc.logFailure(m, err)
		return nil, domain.Storage("commit "+m.op, err)
	}

	uc.log.Info().
		Str("op", m.op).
		Str("product_id", m.productID).
		Str("actor_id", m.actorID).
		Str("type", result.Movement.Type.String()).
		Int64("movement_id", result.Movement.ID).
		Int64("previous_quantity", result.Movement.PreviousQuantity).
		Int64("new_quantity", result.Movement.NewQuantity).
		Msg("movimiento de stock registrado")
	return result, nil
}

func (uc *StockLedgerUseCase) logFailure(m mutation, err error) {
	ev := uc.log.Warn()
	if errors.Is(err, domain.ErrStorage) || !domain.IsDomainError(err) {
		ev = uc.log.Error()
	}
	ev.Err(err).Str("op", m.op).Str("product_id", m.productID).Str("actor_id", m.actorID).
		Msg("movimiento de stock rechazado")
}

func subtract(productID string, qty int64) func(int64) (int64, error) {
	return func(cur int64) (int64, error) {
		if qty > cur {
			return 0, &domain.InsufficientStockError{ProductID: productID, Available: cur, Requested: qty}
		}
		return cur - qty, nil
	}
}

func add(qty int64) func(int64) (int64, error) {
	return func(cur int64) (int64, error) {
		if qty > math.MaxInt64-cur {
			return 0, domain.Invalid("quantity", "excede el máximo de stock representable")
		}
		return cur + qty, nil
	}
}

func validateMagnitude(qty int64) error {
	if qty <= 0 {
		return domain.Invalid("quantity", "debe ser mayor que cero")
	}
	return nil
}

func validateUnitCost(cost decimal.NullDecimal) error {
	if cost.Valid && cost.Decimal.IsNegative() {
		return domain.Invalid("unit_cost", "no puede ser negativo")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return strings.Clone(s)
		}
	}
	return ""
}
