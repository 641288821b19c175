package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/vivero-api/internal/application/consumption"
	"github.com/jhoicas/vivero-api/internal/infrastructure/metrics"
	"github.com/jhoicas/vivero-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/vivero-api/internal/interfaces/http"
	"github.com/jhoicas/vivero-api/pkg/config"
	"github.com/jhoicas/vivero-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
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

	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		log.Info().Msg("migraciones aplicadas")
	}

	ruleRepo := postgres.NewConsumptionRuleRepository(pool)
	materialRepo := postgres.NewMaterialRepository(pool)
	stockRepo := postgres.NewStockRepository(pool)
	txRepo := postgres.NewMaterialTransactionRepository(pool)
	failureRepo := postgres.NewReversalFailureRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	var recorder consumption.Recorder
	var metricsRecorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		metricsRecorder = metrics.New("vivero")
		recorder = metricsRecorder
	}

	engineLog := log.With("component", "consumption")
	ruleUC := consumption.NewRuleUseCase(ruleRepo, txRunner)
	calculator := consumption.NewCalculator(ruleRepo, materialRepo, stockRepo)
	consumptionUC := consumption.NewConsumptionUseCase(txRunner, recorder, engineLog)
	reversalUC := consumption.NewReversalUseCase(txRepo, failureRepo, recorder, engineLog)
	ledgerUC := consumption.NewLedgerUseCase(txRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
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
		Title:    "Vivero API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	if metricsRecorder != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metricsRecorder.Handler()))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		RuleUC:        ruleUC,
		Calculator:    calculator,
		ConsumptionUC: consumptionUC,
		ReversalUC:    reversalUC,
		LedgerUC:      ledgerUC,
		Logger:        log,
		JWTSecret:     cfg.JWT.Secret,
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
