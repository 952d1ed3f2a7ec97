package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/application/dto"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/application/inventory"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain"
)

// InventoryHandler maneja las escrituras sobre el stock (protegido).
// El actor de cada movimiento es siempre el user_id del token.
type InventoryHandler struct {
	ledger *inventory.StockLedgerUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.StockLedgerUseCase) *InventoryHandler {
	return &InventoryHandler{ledger: ledger}
}

// CreateLevel godoc
// @Summary      Registrar stock inicial de un producto
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateLevelRequest  true  "product_id, initial_quantity, unit_cost opcional"
// @Success      201   {object}  dto.MovementResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/levels [post]
func (h *InventoryHandler) CreateLevel(c *fiber.Ctx) error {
	var in dto.CreateLevelRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	res, err := h.ledger.RecordCreation(c.UserContext(), inventory.CreationInput{
		ProductID:       in.ProductID,
		ActorID:         GetUserID(c),
		InitialQuantity: in.InitialQuantity,
		UnitCost:        dto.NullDecimal(in.UnitCost),
		Notes:           in.Notes,
	})
	return h.respond(c, res, err)
}

// RecordEntry godoc
// @Summary      Registrar entrada de mercadería
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        product_id  path  string            true  "Producto"
// @Param        body        body  dto.EntryRequest  true  "quantity, unit_cost opcional"
// @Success      201   {object}  dto.MovementResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/levels/{product_id}/entries [post]
func (h *InventoryHandler) RecordEntry(c *fiber.Ctx) error {
	var in dto.EntryRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	res, err := h.ledger.RecordEntry(c.UserContext(), inventory.EntryInput{
		ProductID: c.Params("product_id"),
		ActorID:   GetUserID(c),
		Quantity:  in.Quantity,
		UnitCost:  dto.NullDecimal(in.UnitCost),
		Notes:     in.Notes,
		Reference: in.Reference,
	})
	return h.respond(c, res, err)
}

// RecordExit godoc
// @Summary      Registrar salida de mercadería
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        product_id  path  string           true  "Producto"
// @Param        body        body  dto.ExitRequest  true  "quantity"
// @Success      201   {object}  dto.MovementResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/levels/{product_id}/exits [post]
func (h *InventoryHandler) RecordExit(c *fiber.Ctx) error {
	var in dto.ExitRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	res, err := h.ledger.RecordExit(c.UserContext(), inventory.ExitInput{
		ProductID: c.Params("product_id"),
		ActorID:   GetUserID(c),
		Quantity:  in.Quantity,
		Notes:     in.Notes,
		Reference: in.Reference,
	})
	return h.respond(c, res, err)
}

// RecordAdjustment godoc
// @Summary      Ajustar stock a un conteo físico
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        product_id  path  string                 true  "Producto"
// @Param        body        body  dto.AdjustmentRequest  true  "target_quantity"
// @Success      201   {object}  dto.MovementResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/levels/{product_id}/adjustments [post]
func (h *InventoryHandler) RecordAdjustment(c *fiber.Ctx) error {
	var in dto.AdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if in.TargetQuantity == nil {
		return writeError(c, domain.Invalid("target_quantity", "es obligatorio"))
	}
	res, err := h.ledger.RecordAdjustment(c.UserContext(), inventory.AdjustmentInput{
		ProductID:      c.Params("product_id"),
		ActorID:        GetUserID(c),
		TargetQuantity: *in.TargetQuantity,
		Notes:          in.Notes,
		Reference:      in.Reference,
	})
	return h.respond(c, res, err)
}

// Reserve godoc
// @Summary      Reservar cantidad disponible
// @Description  available_before opcional: si no coincide con el stock actual responde 409 CONFLICT.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        product_id  path  string                  true  "Producto"
// @Param        body        body  dto.ReservationRequest  true  "quantity, available_before opcional"
// @Success      201   {object}  dto.MovementResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/levels/{product_id}/reservations [post]
func (h *InventoryHandler) Reserve(c *fiber.Ctx) error {
	in, ok, err := h.reservation(c)
	if !ok {
		return err
	}
	res, err := h.ledger.Reserve(c.UserContext(), in)
	return h.respond(c, res, err)
}

// Release godoc
// @Summary      Liberar una reserva
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        product_id  path  string                  true  "Producto"
// @Param        body        body  dto.ReservationRequest  true  "quantity, available_before opcional"
// @Success      201   {object}  dto.MovementResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/levels/{product_id}/releases [post]
func (h *InventoryHandler) Release(c *fiber.Ctx) error {
	in, ok, err := h.reservation(c)
	if !ok {
		return err
	}
	res, err := h.ledger.Release(c.UserContext(), in)
	return h.respond(c, res, err)
}

// reservation parsea el body; ok=false indica que la respuesta de error ya fue escrita.
func (h *InventoryHandler) reservation(c *fiber.Ctx) (inventory.ReservationInput, bool, error) {
	var in dto.ReservationRequest
	if err := c.BodyParser(&in); err != nil {
		return inventory.ReservationInput{}, false, badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	return inventory.ReservationInput{
		ProductID:       c.Params("product_id"),
		ActorID:         GetUserID(c),
		Quantity:        in.Quantity,
		AvailableBefore: in.AvailableBefore,
		Notes:           in.Notes,
		Reference:       in.Reference,
	}, true, nil
}

func (h *InventoryHandler) respond(c *fiber.Ctx, res *inventory.MovementResult, err error) error {
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MovementResultResponse{
		Level:    dto.FromLevel(res.Level),
		Movement: dto.FromMovement(res.Movement),
	})
}
