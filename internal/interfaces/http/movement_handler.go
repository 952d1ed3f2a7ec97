package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/application/dto"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/application/inventory"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/domain/entity"
)

// MovementHandler consultas de stock e historial (protegido).
type MovementHandler struct {
	query       *inventory.LedgerQueryUseCase
	consistency *inventory.ConsistencyUseCase
}

// NewMovementHandler construye el handler.
func NewMovementHandler(query *inventory.LedgerQueryUseCase, consistency *inventory.ConsistencyUseCase) *MovementHandler {
	return &MovementHandler{query: query, consistency: consistency}
}

// GetLevel godoc
// @Summary      Stock actual de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  path  string  true  "Producto"
// @Success      200  {object}  dto.StockLevelResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/levels/{product_id} [get]
func (h *MovementHandler) GetLevel(c *fiber.Ctx) error {
	level, err := h.query.Level(c.UserContext(), c.Params("product_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromLevel(level))
}

// LevelExists godoc
// @Summary      Indica si el producto tiene stock registrado
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  path  string  true  "Producto"
// @Success      200  {object}  map[string]bool
// @Router       /api/inventory/levels/{product_id}/exists [get]
func (h *MovementHandler) LevelExists(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"exists": h.query.Exists(c.UserContext(), c.Params("product_id"))})
}

// ListLevels godoc
// @Summary      Lista de stock por producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Máximo de filas (default 50)"
// @Param        offset  query  int  false  "Desplazamiento"
// @Success      200  {array}   dto.StockLevelResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/levels [get]
func (h *MovementHandler) ListLevels(c *fiber.Ctx) error {
	limit, err := intQuery(c, "limit", 50)
	if err != nil {
		return writeError(c, err)
	}
	offset, err := intQuery(c, "offset", 0)
	if err != nil {
		return writeError(c, err)
	}
	list, err := h.query.Levels(c.UserContext(), limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.StockLevelResponse, 0, len(list))
	for _, l := range list {
		out = append(out, dto.FromLevel(l))
	}
	return c.JSON(out)
}

// Paged godoc
// @Summary      Historial paginado (más reciente primero)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        page  query  int  false  "Página desde 1 (default 1)"
// @Param        size  query  int  false  "Tamaño (default 20, máximo 500)"
// @Success      200  {object}  dto.MovementPageResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *MovementHandler) Paged(c *fiber.Ctx) error {
	var req dto.PageRequest
	if err := c.QueryParser(&req); err != nil {
		return badRequest(c, "INVALID_QUERY", "page y size deben ser enteros")
	}
	req.DefaultPage(c.Query("page") != "", c.Query("size") != "")
	page, err := h.query.Paged(c.UserContext(), req.Page, req.Size)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MovementPageResponse{
		Items: dto.FromMovements(page.Items),
		PageResponse: dto.PageResponse{
			Page:       page.Page,
			Size:       page.Size,
			Total:      page.Total,
			TotalPages: page.TotalPages,
		},
	})
}

// Count godoc
// @Summary      Total de movimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.CountResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/count [get]
func (h *MovementHandler) Count(c *fiber.Ctx) error {
	n, err := h.query.Count(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.CountResponse{Total: n})
}

// ByDateRange godoc
// @Summary      Movimientos en un rango de fechas (inclusivo)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        from  query  string  true  "RFC3339"
// @Param        to    query  string  true  "RFC3339"
// @Success      200  {array}   dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/range [get]
func (h *MovementHandler) ByDateRange(c *fiber.Ctx) error {
	from, to, err := rangeQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	return h.list(c)(h.query.ByDateRange(c.UserContext(), from, to))
}

// ByType godoc
// @Summary      Movimientos por tipo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        type  path  string  true  "ENTRY, EXIT, ADJUSTMENT o RETURN"
// @Success      200  {array}   dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/type/{type} [get]
func (h *MovementHandler) ByType(c *fiber.Ctx) error {
	t, err := entity.ParseMovementType(c.Params("type"))
	if err != nil {
		return writeError(c, domain.Invalid("type", err.Error()))
	}
	return h.list(c)(h.query.ByType(c.UserContext(), t))
}

// ByProduct godoc
// @Summary      Historial de un producto
// @Description  Con from y to filtra además por rango de fechas inclusivo.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  path   string  true   "Producto"
// @Param        from        query  string  false  "RFC3339"
// @Param        to          query  string  false  "RFC3339"
// @Success      200  {array}   dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{product_id}/movements [get]
func (h *MovementHandler) ByProduct(c *fiber.Ctx) error {
	productID := c.Params("product_id")
	if c.Query("from") == "" && c.Query("to") == "" {
		return h.list(c)(h.query.ByProduct(c.UserContext(), productID))
	}
	from, to, err := rangeQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	return h.list(c)(h.query.ByProductAndDateRange(c.UserContext(), productID, from, to))
}

// TotalCost godoc
// @Summary      Costo total de las entradas de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  path  string  true  "Producto"
// @Success      200  {object}  dto.TotalCostResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{product_id}/total-cost [get]
func (h *MovementHandler) TotalCost(c *fiber.Ctx) error {
	productID := c.Params("product_id")
	total, err := h.query.TotalCostByProduct(c.UserContext(), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.TotalCostResponse{ProductID: productID, TotalCost: total})
}

// ByUser godoc
// @Summary      Movimientos registrados por un usuario
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        actor_id  path  string  true  "Usuario"
// @Success      200  {array}   dto.MovementResponse
// @Router       /api/inventory/users/{actor_id}/movements [get]
func (h *MovementHandler) ByUser(c *fiber.Ctx) error {
	return h.list(c)(h.query.ByUser(c.UserContext(), c.Params("actor_id")))
}

// Consistency godoc
// @Summary      Verificación de consistencia stock / historial
// @Description  Productos cuyo stock no coincide con el new_quantity de su último movimiento.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/inventory/consistency [get]
func (h *MovementHandler) Consistency(c *fiber.Ctx) error {
	list, err := h.consistency.Verify(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"consistent":    len(list) == 0,
		"discrepancies": list,
	})
}

func (h *MovementHandler) list(c *fiber.Ctx) func([]*entity.StockMovement, error) error {
	return func(items []*entity.StockMovement, err error) error {
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(dto.FromMovements(items))
	}
}

// rangeQuery lee from/to en RFC3339; un extremo ausente queda en cero y el caso de uso lo rechaza.
func rangeQuery(c *fiber.Ctx) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if s := c.Query("from"); s != "" {
		if from, err = time.Parse(time.RFC3339Nano, s); err != nil {
			return from, to, domain.Invalid("from", "formato RFC3339 esperado")
		}
	}
	if s := c.Query("to"); s != "" {
		if to, err = time.Parse(time.RFC3339Nano, s); err != nil {
			return from, to, domain.Invalid("to", "formato RFC3339 esperado")
		}
	}
	return from, to, nil
}

func intQuery(c *fiber.Ctx, key string, def int) (int, error) {
	s := c.Query(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, domain.Invalid(key, "debe ser un entero")
	}
	return n, nil
}
