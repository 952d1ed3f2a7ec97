package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/application/inventory"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/infrastructure/scheduler"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/internal/infrastructure/storage"
	httpRouter "github.com/JoaquimMateus0404/VendaFlex-sub000/internal/interfaces/http"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/pkg/config"
	"github.com/JoaquimMateus0404/VendaFlex-sub000/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
		App:   cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("driver", cfg.Store.Driver).
		Msg("iniciando aplicación")
	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx := context.Background()
	backend, err := storage.Open(ctx, cfg, log.Component("storage"))
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacenamiento")
	}
	defer backend.Close()

	ledgerUC := inventory.NewStockLedgerUseCase(backend.Tx, log.Zerolog())
	queryUC := inventory.NewLedgerQueryUseCase(backend.Levels, backend.Movements, log.Zerolog())
	consistencyUC := inventory.NewConsistencyUseCase(backend.Levels, backend.Movements, log.Zerolog())

	if cfg.Ledger.VerifyCron != "" {
		jobs, err := scheduler.Start(cfg.Ledger.VerifyCron, consistencyUC, log.Zerolog())
		if err != nil {
			log.Fatal().Err(err).Msg("programar verificación")
		}
		defer func() { <-jobs.Stop().Done() }()
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		Immutable:    true,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Stock Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "driver": backend.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:      ledgerUC,
		Query:       queryUC,
		Consistency: consistencyUC,
		JWTSecret:   cfg.JWT.Secret,
		JWTIssuer:   cfg.JWT.Issuer,
		RateLimit:   cfg.HTTP.RateLimit,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
