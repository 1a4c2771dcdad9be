package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/support-deck/chat-service/internal/ai"
	httptransport "github.com/support-deck/chat-service/internal/api/http"
	"github.com/support-deck/chat-service/internal/api/http/handlers"
	"github.com/support-deck/chat-service/internal/config"
	"github.com/support-deck/chat-service/internal/events"
	"github.com/support-deck/chat-service/internal/observability"
	"github.com/support-deck/chat-service/internal/persistence"
	"github.com/support-deck/chat-service/internal/realtime"
	"github.com/support-deck/chat-service/internal/repository"
	"github.com/support-deck/chat-service/internal/service"
	"github.com/support-deck/chat-service/internal/state"
	"github.com/support-deck/chat-service/internal/worker"
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

	var redis *persistence.Redis
	var stateSvc state.Service
	if cfg.State.Backend == "redis" {
		redis = persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		stateSvc, err = state.NewRedisService(ctx, redis.Client)
		if err != nil {
			logger.Fatal("failed to init redis state", zap.Error(err))
		}
	} else {
		stateSvc = state.NewMemoryService()
	}

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	messageRepo := repository.NewChatMessageRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	var analyzer *ai.Analyzer
	if cfg.AI.APIKey != "" {
		analyzer = ai.NewAnalyzer(ai.NewOpenAIClient(cfg.AI.APIKey), cfg.AI)
	} else {
		logger.Warn("no AI provider key configured, auto-replies disabled")
	}

	aiPool := worker.NewPool(cfg.AI.WorkerQueueSize, cfg.AI.Workers, cfg.AI.RequestTimeout(), logger)

	aiService := service.NewAIService(service.AIDependencies{
		TicketRepo:  ticketRepo,
		MessageRepo: messageRepo,
		Dispatcher:  dispatcher,
		State:       stateSvc,
		Analyzer:    analyzer,
		Pool:        aiPool,
		Metrics:     metrics,
		Logger:      logger,
		Config:      cfg.AI,
	})
	aiPool.OnOutcome(aiService.RecordOutcome)
	aiPool.Start()
	defer aiPool.Stop()

	messageService := service.NewMessageService(service.MessageDependencies{
		TicketRepo:  ticketRepo,
		MessageRepo: messageRepo,
		Dispatcher:  dispatcher,
		State:       stateSvc,
		Scheduler:   aiService,
		Logger:      logger,
	})
	statsService := service.NewStatsService(ticketRepo, dispatcher, stateSvc, logger, cfg.Stats)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		MessageService: messageService,
		AIService:      aiService,
		StatsService:   statsService,
		Dispatcher:     dispatcher,
		State:          stateSvc,
		Logger:         logger,
		Config:         cfg.Stats,
	})

	hub := realtime.NewHub(dispatcher, messageService, statsService, cfg.Realtime.HistoryReplayLimit, logger)

	go statsService.Run(ctx)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets: handlers.NewTicketsHandler(ticketService, messageService, aiService),
		Metrics: handlers.NewMetricsHandler(statsService),
		Hub:     hub,
	})

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
