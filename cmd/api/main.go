package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"honeytrap/internal/api"
	"honeytrap/internal/api/handlers"
	apimiddleware "honeytrap/internal/api/middleware"
	"honeytrap/internal/config"
	"honeytrap/internal/domain/services"
	"honeytrap/internal/grpc/health"
	"honeytrap/internal/infrastructure/cache"
	"honeytrap/internal/infrastructure/database"
	"honeytrap/internal/infrastructure/database/repository"
	"honeytrap/internal/intel"
	"honeytrap/internal/streaming"
	"honeytrap/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		TimeFormat: cfg.Logger.TimeFormat,
	})
	if !cfg.IsProduction() && cfg.App.Debug {
		log = logger.NewDevelopment()
	}
	logger.SetGlobal(log)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting Honeytrap")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	monitor := health.NewMonitor(10*time.Second, log)

	// Initialize infrastructure
	infra, err := initInfrastructure(ctx, cfg, monitor, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize infrastructure")
	}
	defer infra.Close()

	// Callback delivery
	dispatcher := services.NewCallbackDispatcher(log, &services.CallbackConfig{
		Workers:       cfg.Callback.Workers,
		QueueSize:     cfg.Callback.QueueSize,
		Timeout:       cfg.Callback.Timeout,
		Secret:        cfg.Callback.Secret,
		MaxAttempts:   cfg.Callback.MaxAttempts,
		RetryInterval: cfg.Callback.RetryInterval,
	})
	defer dispatcher.Stop()

	// Honeypot service
	extractor := intel.NewExtractor(log,
		intel.WithMaxInputBytes(cfg.Extraction.MaxInputBytes),
		intel.WithNoiseStripping(cfg.Extraction.StripNoise),
	)
	deps := services.HoneypotDeps{
		Extractor: extractor,
		Callbacks: dispatcher,
	}
	if cfg.Callback.Enabled {
		deps.CallbackURL = cfg.Callback.URL
	}
	if infra.redis != nil {
		deps.Store = cache.NewSessionStore(infra.redis, cfg.Redis.SessionTTL)
		deps.Locker = cache.NewSessionLocker(infra.redis, cfg.Session.LockTTL, cfg.Session.LockWait)
	} else {
		deps.Locker = services.NewMemoryLocker(cfg.Session.LockWait)
	}
	if infra.publisher != nil {
		deps.Publisher = infra.publisher
	}
	if infra.archive != nil {
		deps.Archive = infra.archive
	}
	honeypot := services.NewHoneypotService(deps, log)

	// Create handlers and router
	h := handlers.NewHandlers(handlers.Dependencies{
		Turns:     honeypot,
		Sessions:  honeypot,
		Extractor: extractor,
		Readiness: monitor,
		Version:   cfg.App.Version,
		Logger:    log,
	})

	var rateStore apimiddleware.RateLimitStore
	if infra.redis != nil {
		rateStore = infra.redis
	}
	router := api.NewRouter(*cfg, h, rateStore, log)

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Start gRPC health server
	var grpcServer *grpc.Server
	if cfg.Server.GRPCPort > 0 {
		grpcListener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create gRPC listener")
		}

		grpcServer = grpc.NewServer()
		monitor.Register(grpcServer)

		go func() {
			log.Info().
				Str("addr", grpcListener.Addr().String()).
				Msg("starting gRPC server")
			if err := grpcServer.Serve(grpcListener); err != nil {
				log.Fatal().Err(err).Msg("gRPC server failed")
			}
		}()
	}

	go monitor.Run(ctx)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	// Cancel context to stop background services
	cancel()
	monitor.Shutdown()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	stats := dispatcher.Stats()
	log.Info().
		Int64("callbacks_delivered", stats.Delivered).
		Int64("callbacks_failed", stats.Failed).
		Int64("callbacks_dropped", stats.Dropped).
		Msg("shutdown complete")
}

// infrastructure holds the optional backing services
type infrastructure struct {
	redis     *cache.RedisCache
	db        *database.PostgresDB
	archive   *repository.IntelligenceRepository
	publisher *streaming.IntelPublisher
}

func (i *infrastructure) Close() {
	if i.publisher != nil {
		i.publisher.Close()
	}
	if i.db != nil {
		i.db.Close()
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
}

// initInfrastructure connects the enabled backing services and registers
// their health checks. Redis is required once enabled; Postgres and NATS
// only feed side channels, so the service keeps running without them.
func initInfrastructure(ctx context.Context, cfg *config.Config, monitor *health.Monitor, log *logger.Logger) (*infrastructure, error) {
	infra := &infrastructure{}

	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		infra.redis = redisCache
		monitor.AddCheck("redis", redisCache.Ping)
	}

	if cfg.Database.Enabled {
		db, err := database.NewPostgres(ctx, cfg.Database, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to PostgreSQL, continuing without archive")
		} else {
			repo := repository.NewIntelligenceRepository(db)
			if err := repo.EnsureSchema(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to prepare archive schema, continuing without archive")
				db.Close()
			} else {
				infra.db = db
				infra.archive = repo
				monitor.AddCheck("postgres", db.Ping)
			}
		}
	}

	if cfg.NATS.Enabled {
		publisher, err := streaming.NewIntelPublisher(ctx, cfg.NATS, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to NATS, continuing without event stream")
		} else {
			infra.publisher = publisher
			monitor.AddCheck("nats", func(context.Context) error {
				if !publisher.IsConnected() {
					return streaming.ErrNotConnected
				}
				return nil
			})
		}
	}

	return infra, nil
}
