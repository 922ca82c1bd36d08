package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/queue-service/internal/api/http"
	"github.com/spec-kit/queue-service/internal/api/http/handlers"
	"github.com/spec-kit/queue-service/internal/config"
	"github.com/spec-kit/queue-service/internal/estimator"
	"github.com/spec-kit/queue-service/internal/events"
	"github.com/spec-kit/queue-service/internal/observability"
	"github.com/spec-kit/queue-service/internal/persistence"
	"github.com/spec-kit/queue-service/internal/repository"
	"github.com/spec-kit/queue-service/internal/service"
	"github.com/spec-kit/queue-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	hospitalRepo := repository.NewHospitalRepository(pool)
	doctorRepo := repository.NewDoctorRepository(pool)
	analyticsRepo := repository.NewAnalyticsRepository(pool)

	broadcaster := events.NewRedisBroadcaster(redis.Client, logger)
	estimatorClient := estimator.NewClient(cfg.Estimator.URL, cfg.Estimator.Timeout())

	analyticsService := service.NewAnalyticsService(analyticsRepo)
	queueService := service.NewQueueService(service.QueueDependencies{
		TicketRepo:          ticketRepo,
		UserRepo:            userRepo,
		DepartmentRepo:      departmentRepo,
		Estimator:           estimatorClient,
		Analytics:           analyticsService,
		Broadcaster:         broadcaster,
		Sequence:            redis,
		Logger:              logger,
		FallbackWaitMinutes: cfg.Estimator.FallbackMinutes,
	})
	dashboardService := service.NewDashboardService(ticketRepo)
	directoryService := service.NewDirectoryService(service.DirectoryDependencies{
		HospitalRepo:   hospitalRepo,
		DepartmentRepo: departmentRepo,
		DoctorRepo:     doctorRepo,
		UserRepo:       userRepo,
	})

	metrics := observability.NewMetrics()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets:   handlers.NewTicketsHandler(queueService),
		Dashboard: handlers.NewDashboardHandler(dashboardService),
		Directory: handlers.NewDirectoryHandler(directoryService),
	})

	worker.StartStatsMonitor(ctx, redis.Client, logger)

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
