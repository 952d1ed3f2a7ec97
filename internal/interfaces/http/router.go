package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/application/dto"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/application/inventory"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger      *inventory.StockLedgerUseCase
	Query       *inventory.LedgerQueryUseCase
	Consistency *inventory.ConsistencyUseCase
	JWTSecret   string
	JWTIssuer   string
	// RateLimit máximo de peticiones por minuto e IP sobre /api; 0 lo desactiva.
	RateLimit int
	// AdminRoles roles habilitados para la verificación de consistencia.
	AdminRoles []string
}

// Router registra las rutas de la API. Todo /api/inventory requiere Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	if deps.RateLimit > 0 {
		api.Use(limiter.New(limiter.Config{
			Max:        deps.RateLimit,
			Expiration: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Code: "RATE_LIMITED", Message: "demasiadas peticiones"})
			},
		}))
	}

	inv := api.Group("/inventory", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
	writes := NewInventoryHandler(deps.Ledger)
	reads := NewMovementHandler(deps.Query, deps.Consistency)

	// Stock actual
	inv.Post("/levels", writes.CreateLevel)
	inv.Get("/levels", reads.ListLevels)
	inv.Get("/levels/:product_id", reads.GetLevel)
	inv.Get("/levels/:product_id/exists", reads.LevelExists)
	inv.Post("/levels/:product_id/entries", writes.RecordEntry)
	inv.Post("/levels/:product_id/exits", writes.RecordExit)
	inv.Post("/levels/:product_id/adjustments", writes.RecordAdjustment)
	inv.Post("/levels/:product_id/reservations", writes.Reserve)
	inv.Post("/levels/:product_id/releases", writes.Release)

	// Historial
	inv.Get("/movements", reads.Paged)
	inv.Get("/movements/count", reads.Count)
	inv.Get("/movements/range", reads.ByDateRange)
	inv.Get("/movements/type/:type", reads.ByType)
	inv.Get("/products/:product_id/movements", reads.ByProduct)
	inv.Get("/products/:product_id/total-cost", reads.TotalCost)
	inv.Get("/users/:actor_id/movements", reads.ByUser)

	roles := deps.AdminRoles
	if len(roles) == 0 {
		roles = []string{"admin"}
	}
	inv.Get("/consistency", RequireRole(roles...), reads.Consistency)
}
