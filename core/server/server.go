// Package server wires configuration, storage, calendar sources and the HTTP
// modules into one process.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smartschedule/core/cache"
	"smartschedule/core/config"
	"smartschedule/core/database"
	"smartschedule/core/logger"
	"smartschedule/core/metrics"
	"smartschedule/core/middleware"
	"smartschedule/modules/calendar"
	"smartschedule/modules/calendar/google"
	"smartschedule/modules/calendar/ics"
	"smartschedule/modules/calendar/repository"
	"smartschedule/modules/calendar/source"
	"smartschedule/modules/matching"
	matchingService "smartschedule/modules/matching/service"
	"smartschedule/modules/pattern"
	patternService "smartschedule/modules/pattern/service"
	"smartschedule/modules/pattern/worker"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

const memoryCacheSize = 4096

// app holds everything that needs closing on shutdown.
type app struct {
	echo      *echo.Echo
	db        *database.Database
	redis     *redis.Client
	tasks     *asynq.Client
	worker    *asynq.Server
	scheduler *worker.Scheduler
}

// Run starts the HTTP server and optional background worker, and blocks
// until SIGINT/SIGTERM or a server error.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Server:Run:Start", "env", cfg.Server.Env, "port", cfg.Server.Port, "timezone", cfg.Matching.Timezone)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := build(ctx, cfg)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.echo.Start(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Server:Run:Shutdown")
	case runErr = <-errCh:
		logger.Error("Server:Run:Serve", "error", runErr)
	}

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	a.shutdown(shutdownCtx)
	return runErr
}

func build(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}
	loc := cfg.Location()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Storage
	var repo repository.CalendarRepository
	if cfg.Database.Enabled() {
		db, err := database.InitDB(cfg.Database)
		if err != nil {
			return nil, err
		}
		a.db = db
		repo = repository.NewCalendarRepository(db)
	} else {
		logger.Warn("Server:build:Database", "message", "database not configured, stored calendars and availability disabled")
	}

	patternCache, err := newCache(ctx, cfg, a)
	if err != nil {
		a.shutdown(ctx)
		return nil, err
	}

	// Calendar sources
	events, availability := newSources(cfg, repo)

	// Background work
	var enqueuer worker.Enqueuer
	if cfg.Worker.Enabled && cfg.Redis.Enabled() {
		a.tasks = asynq.NewClient(redisOpt(cfg.Redis))
		enqueuer = worker.NewEnqueuer(a.tasks, cfg.Worker.Queue)
	}

	// HTTP
	mw := middleware.NewMiddleware(cfg.JWT.Secret)
	a.echo = newEcho(mw, reg)

	opts := matchingService.EngineOptions(cfg.Matching, loc, time.Now)
	patterns := pattern.Init(a.echo, mw, patternService.Deps{
		Cache:        patternCache,
		Events:       events,
		Metrics:      m,
		Options:      opts,
		LookbackDays: cfg.Matching.LookbackDays,
		TTL:          cfg.Matching.PatternCacheTTL,
	}, enqueuer)

	matching.Init(a.echo, mw, matchingService.Deps{
		Events:       events,
		Availability: availability,
		Patterns:     patterns,
		Metrics:      m,
		Config:       cfg.Matching,
		Location:     loc,
	})

	if repo != nil {
		calendar.Init(a.echo, mw, repo, events)
	}

	if enqueuer != nil {
		if err := a.startWorker(cfg, loc, patterns, repo, enqueuer); err != nil {
			a.shutdown(ctx)
			return nil, err
		}
	}
	return a, nil
}

func newCache(ctx context.Context, cfg *config.Config, a *app) (cache.Cache, error) {
	if !cfg.Redis.Enabled() {
		logger.Info("Server:newCache", "backend", "memory")
		return cache.NewMemoryCache(memoryCacheSize, cfg.Matching.PatternCacheTTL), nil
	}
	c, client, err := cache.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}
	a.redis = client
	return c, nil
}

// newSources composes every configured event source. Google needs stored
// connections, so it is only enabled alongside the database.
func newSources(cfg *config.Config, repo repository.CalendarRepository) (source.EventSource, source.AvailabilitySource) {
	var sources []source.EventSource
	var availability source.AvailabilitySource

	if repo != nil {
		db := source.NewDatabase(repo)
		sources = append(sources, db)
		availability = db
		if cfg.GoogleAPI.Enabled() {
			sources = append(sources, google.NewSource(cfg.GoogleAPI, repo))
		}
	}
	if cfg.S3.Enabled() {
		sources = append(sources, ics.NewS3Source(ics.NewS3Client(cfg.S3), cfg.S3.Bucket, cfg.S3.Prefix))
	}

	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, s.Name())
	}
	logger.Info("Server:newSources", "sources", names)
	return source.NewComposite(sources...), availability
}

func newEcho(mw *middleware.Middleware, reg *prometheus.Registry) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echoMiddleware.Recover())
	e.Use(mw.RequestID())
	e.Use(mw.AccessLog())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	return e
}

func redisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func (a *app) startWorker(cfg *config.Config, loc *time.Location, patterns patternService.PatternService, repo repository.CalendarRepository, enqueuer worker.Enqueuer) error {
	queue := cfg.Worker.Queue
	if queue == "" {
		queue = "default"
	}
	a.worker = asynq.NewServer(redisOpt(cfg.Redis), asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
		Queues:      map[string]int{queue: 1},
	})
	mux := asynq.NewServeMux()
	worker.NewHandler(patterns).Register(mux)
	if err := a.worker.Start(mux); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	logger.Info("Server:startWorker", "queue", queue, "concurrency", cfg.Worker.Concurrency)

	if repo == nil || cfg.Worker.RefreshCron == "" {
		return nil
	}
	s, err := worker.NewScheduler(cfg.Worker.RefreshCron, loc, repo, enqueuer)
	if err != nil {
		return err
	}
	a.scheduler = s
	s.Start()
	return nil
}

func (a *app) shutdown(ctx context.Context) {
	if a.echo != nil {
		if err := a.echo.Shutdown(ctx); err != nil {
			logger.Error("Server:shutdown:HTTP", "error", err)
		}
	}
	if a.scheduler != nil {
		a.scheduler.Stop(ctx)
	}
	if a.worker != nil {
		a.worker.Shutdown()
	}
	if a.tasks != nil {
		if err := a.tasks.Close(); err != nil {
			logger.Warn("Server:shutdown:Tasks", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logger.Warn("Server:shutdown:Redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logger.Warn("Server:shutdown:Database", "error", err)
		}
	}
	logger.Info("Server:shutdown:Done")
}
