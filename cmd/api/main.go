package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"server/internal/credits"
	"server/internal/domain"
	"server/internal/events"
	"server/internal/gate"
	"server/internal/generate"
	"server/internal/history"
	"server/internal/http/handlers"
	httpapi "server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/infra/geoip"
	"server/internal/jobstore"
	"server/internal/kv"
	"server/internal/middleware"
	"server/internal/poller"
	"server/internal/webhook"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage backend: redis when configured, otherwise postgres.
	var store kv.Store
	var hist history.Store
	switch {
	case cfg.RedisURL != "":
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		rdb := redis.NewClient(redisOpts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer rdb.Close()
		store = kv.NewRedisStore(rdb)
		hist = history.NewMemoryStore()
		if cfg.DatabaseURL != "" {
			pool, err := infra.NewDBPool(ctx, cfg)
			if err != nil {
				logger.Fatal().Err(err).Msg("failed to connect database")
			}
			defer pool.Close()
			hist = history.NewPostgresStore(infra.NewSQLRunner(pool, logger))
		}
	default:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		runner := infra.NewSQLRunner(pool, logger)
		store = kv.NewPostgresStore(runner)
		hist = history.NewPostgresStore(runner)
	}

	hub := events.NewHub()

	ledger, err := credits.NewLedger(ctx, store, credits.WithChangeListener(func(balance int) {
		hub.PublishJSON(events.TopicCredits, map[string]int{"balance": balance})
	}))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load credit ledger")
	}

	client := webhook.NewClient(webhook.Options{
		ImageURL:       cfg.ImageWebhookURL,
		VideoURL:       cfg.VideoWebhookURL,
		VideoStatusURL: cfg.VideoStatusWebhookURL,
		SubmitTimeout:  cfg.SubmitTimeout,
		Logger:         logger,
	})

	svc := generate.NewService(generate.Options{
		Ledger:  ledger,
		Gate:    gate.New(),
		Jobs:    jobstore.New(store),
		History: hist,
		Hub:     hub,
		Client:  client,
		Logger:  logger,
		Timings: map[domain.Kind]poller.Timings{
			domain.KindImage: {Grace: cfg.ImageGrace, Interval: cfg.ImageInterval, Budget: cfg.ImageBudget},
			domain.KindVideo: {Grace: cfg.VideoGrace, Interval: cfg.VideoInterval, Budget: cfg.VideoBudget},
		},
		Locale:      cfg.DefaultLocale,
		BaseContext: ctx,
	})

	// Pick up any job a previous process left mid-flight before
	// accepting new submissions.
	if err := svc.Resume(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to resume persisted jobs")
	}

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		lookup = resolver.CountryCode
	}

	app := handlers.NewApp(svc, ledger, hist, hub, logger)
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:         logger,
		DefaultLocale:  cfg.DefaultLocale,
		CountryLookup:  lookup,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}

	// Background poll loops notice ctx and leave their job records
	// persisted for the next start.
	svc.Wait()
	logger.Info().Msg("server stopped")
}
