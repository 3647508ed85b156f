package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "time/tzdata"

	"github.com/iliyamo/room-reservation/internal/chat"
	"github.com/iliyamo/room-reservation/internal/config"
	"github.com/iliyamo/room-reservation/internal/handler"
	"github.com/iliyamo/room-reservation/internal/lock"
	"github.com/iliyamo/room-reservation/internal/middleware"
	"github.com/iliyamo/room-reservation/internal/queue"
	"github.com/iliyamo/room-reservation/internal/router"
	"github.com/iliyamo/room-reservation/internal/schedule"
	"github.com/iliyamo/room-reservation/internal/service"
	"github.com/iliyamo/room-reservation/internal/utils"
)

func main() {
	_ = godotenv.Load() // .env is optional

	cfg := config.Load()
	logger, err := utils.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := config.LoadScheduleConfig()
	loc, err := sched.Location()
	if err != nil {
		logger.Fatal("schedule", zap.Error(err))
	}
	grid := schedule.NewGrid(loc, sched.GridMinutes, time.Now)
	policy, err := schedule.NewPolicy(grid, sched.Open, sched.Close)
	if err != nil {
		logger.Fatal("schedule", zap.Error(err))
	}

	wanted, err := config.LoadRooms(cfg.RoomsFile)
	if err != nil {
		logger.Fatal("rooms", zap.Error(err))
	}
	st, err := openStore(ctx, cfg, loc, wanted)
	if err != nil {
		logger.Fatal("store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer st.close()
	logger.Info("store ready", zap.String("driver", cfg.StoreDriver), zap.Int("rooms", len(st.rooms)))

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable; cache, chat history and shared locks disabled")
	} else {
		defer rdb.Close()
	}

	var locks lock.Locker = lock.NewKeyedMutex()
	if sched.LockBackend == "redis" {
		if rdb == nil {
			logger.Warn("LOCK_BACKEND=redis but redis is unavailable; using in-process locks")
		} else {
			locks = lock.NewRedisLocker(rdb, "lock", sched.LockTTL)
		}
	}

	opts := service.Options{LockWait: sched.LockWait, LockAttempts: sched.LockAttempts, Logger: logger}
	if cfg.RabbitURL != "" {
		opts.Notifier = queue.NewPublisher(cfg.RabbitURL, cfg.EventsQueue, logger)
		consumer := queue.NewConsumer(cfg.RabbitURL, cfg.EventsQueue, cfg.AuditLogPath, logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("reservation-consumer stopped", zap.Error(err))
			}
		}()
	}
	ledger := service.NewLedger(st.reservations, service.NewRoomCatalog(st.rooms), policy, locks, opts)

	chatHandler := newChatHandler(ctx, ledger, rdb, logger)
	cacheCfg := config.LoadCacheConfig()

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("method", v.Method), zap.String("uri", v.URI),
				zap.Int("status", v.Status), zap.Duration("latency", v.Latency))
			return nil
		},
	}))
	e.Use(middleware.Identity())

	deps := router.Deps{
		Health:       &handler.HealthHandler{DB: st.db, Redis: rdb},
		Rooms:        handler.NewRoomHandler(ledger),
		Reservations: handler.NewReservationHandler(ledger),
		Chat:         chatHandler,
		Limit:        middleware.NewRateLimiter(config.LoadRateLimitConfig(), rdb, logger).Middleware(),
	}
	if cacheCfg.Enabled && rdb != nil {
		deps.Cache = middleware.ResponseCache(cacheCfg, rdb, logger)
	}
	router.RegisterRoutes(e, deps)

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func newChatHandler(ctx context.Context, ledger *service.Ledger, rdb *redis.Client, logger *zap.Logger) *handler.ChatHandler {
	chatCfg := config.LoadChatConfig()
	var history chat.History
	if rdb != nil {
		history = chat.NewRedisHistory(rdb, chatCfg.HistoryPrefix, chatCfg.HistoryTTL)
	}
	if chatCfg.APIKey == "" {
		logger.Info("GEMINI_API_KEY not set; chat disabled")
		return handler.NewChatHandler(nil, history)
	}
	model, err := chat.NewGeminiModel(ctx, chatCfg.APIKey, chatCfg.Model, chatCfg.Temperature)
	if err != nil {
		logger.Error("gemini client; chat disabled", zap.Error(err))
		return handler.NewChatHandler(nil, history)
	}
	go func() {
		<-ctx.Done()
		_ = model.Close()
	}()
	agent := chat.NewAgent(model, ledger, chat.AgentOptions{
		History:      history,
		HistoryLimit: chatCfg.HistoryLimit,
		Logger:       logger,
	})
	return handler.NewChatHandler(agent, history)
}
