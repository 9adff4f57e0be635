package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	appsync "github.com/jhoicas/stock-ledger-api/internal/application/sync"
	"github.com/jhoicas/stock-ledger-api/internal/application/usecase"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/marketplace"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/stock-ledger-api/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger-api/pkg/config"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
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

	if err := runMigrations(cfg); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Repositorios atados al pool (lecturas fuera de transacción)
	balanceRepo := postgres.NewBalanceRepository(pool)
	movementRepo := postgres.NewMovementRepository(pool)
	locationRepo := postgres.NewLocationRepository(pool)
	syncQueueRepo := postgres.NewSyncQueueRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	clock := ledger.SystemClock{}
	queryUC := ledger.NewStockQueryUseCase(
		balanceRepo, movementRepo,
		decimal.NewFromFloat(cfg.Stock.CriticalFactor),
	)

	// Consumidores del punto de notificación post-commit: encolado de sync
	// de marketplace y log de alertas de agotado.
	notifier := appsync.NewFanoutNotifier(
		appsync.NewSyncEnqueuer(syncQueueRepo, log),
		appsync.NewStockAlertLogger(log),
	)

	ledgerUC := ledger.NewStockLedgerUseCase(txRunner, locationRepo, clock, notifier)
	transferUC := ledger.NewTransferStockUseCase(txRunner, locationRepo, clock, notifier)
	adjustUC := ledger.NewAdjustStockUseCase(txRunner, locationRepo, clock, notifier, cfg.Stock.AdjustMaxAttempts)
	locationUC := usecase.NewLocationUseCase(locationRepo)

	// Drenador de la cola de sincronización hacia el marketplace
	publisher := marketplace.NewHTTPPublisher(
		cfg.Sync.MarketplaceURL,
		cfg.Sync.MarketplaceToken,
		cfg.Sync.RequestTimeout,
	)
	drainUC := appsync.NewDrainSyncQueueUseCase(
		syncQueueRepo, queryUC, publisher, clock, log,
		cfg.Sync.BatchSize, cfg.Sync.BaseBackoff, cfg.Sync.MaxAttempts,
	)
	drainCtx, stopDrain := context.WithCancel(ctx)
	go drainLoop(drainCtx, drainUC, cfg.Sync.Interval, log)

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
		Ledger:     ledgerUC,
		Transfers:  transferUC,
		Adjuster:   adjustUC,
		Queries:    queryUC,
		LocationUC: locationUC,
		JWTSecret:  cfg.JWT.Secret,
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
	stopDrain()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// runMigrations aplica las migraciones pendientes al arranque.
// ErrNoChange no es error: el esquema ya está al día.
func runMigrations(cfg *config.Config) error {
	m, err := migrate.New(cfg.DB.MigrationsPath, cfg.DB.ConnectionString())
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// drainLoop invoca el drenador de la cola de sync cada interval hasta que el
// contexto se cancele.
func drainLoop(ctx context.Context, drain *appsync.DrainSyncQueueUseCase, interval time.Duration, log *logger.Logger) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			published, failed, err := drain.Drain(ctx)
			if err != nil {
				log.Error().Err(err).Msg("drenado de cola de sync")
				continue
			}
			if published > 0 || failed > 0 {
				log.Info().
					Int("published", published).
					Int("failed", failed).
					Msg("cola de sync drenada")
			}
		}
	}
}
