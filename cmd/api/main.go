package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Traslados-api/internal/application/auth"
	"github.com/jhoicas/Traslados-api/internal/application/ledger"
	appmoves "github.com/jhoicas/Traslados-api/internal/application/moves"
	infrapdf "github.com/jhoicas/Traslados-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Traslados-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Traslados-api/internal/infrastructure/wallet"
	httpRouter "github.com/jhoicas/Traslados-api/internal/interfaces/http"
	"github.com/jhoicas/Traslados-api/internal/interfaces/ws"
	"github.com/jhoicas/Traslados-api/pkg/config"
	"github.com/jhoicas/Traslados-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	moveRepo := postgres.NewMoveRepository(pool)
	entryRepo := postgres.NewLedgerEntryRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	locationRepo := postgres.NewLocationRepository(pool)
	userRepo := postgres.NewUserRepository(pool)

	// Hub de notificaciones WebSocket
	hub := ws.NewHub(log)
	go hub.Run()
	notifier := ws.NewManagerNotifier(hub)

	store := ledger.NewStore(entryRepo, productRepo, log)
	walletGen := wallet.NewGenerator(log)
	metrics := appmoves.NewRecalculator(moveRepo, store, walletGen, log)
	syncer := appmoves.NewSynchronizer(moveRepo, productRepo, locationRepo, store, metrics, log)
	avgPrice := appmoves.NewAveragePriceRecalculator(moveRepo, productRepo, store, log)
	movesUC := appmoves.NewUseCase(moveRepo, userRepo, store, metrics, syncer, avgPrice, notifier, log)

	authUC := auth.NewUseCase(userRepo, cfg.JWT)

	pdfGen := infrapdf.NewDeliveryNoteGenerator()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		MovesUC:   movesUC,
		AuthUC:    authUC,
		Locations: locationRepo,
		Users:     userRepo,
		PDFGen:    pdfGen,
		Hub:       hub,
		JWTSecret: cfg.JWT.Secret,
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
