package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	amqpad "itinerary_pricing/internal/adapters/amqp"
	"itinerary_pricing/internal/adapters/builder"
	server "itinerary_pricing/internal/adapters/http_server"
	"itinerary_pricing/internal/adapters/observability"
	redisad "itinerary_pricing/internal/adapters/redis"
	"itinerary_pricing/internal/app"
	"itinerary_pricing/internal/domain"
	"itinerary_pricing/internal/shared"
	mysqlrepo "itinerary_pricing/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "pricing-api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := cache.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("redis unreachable; serving without cache")
	}
	src, err := builder.New(cfg.BuilderBase, cfg.BuilderKey, cfg.BuilderRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize builder client")
	}
	var pub domain.EventPublisher = amqpad.Noop{}
	if cfg.AMQPURL != "" {
		p := amqpad.NewPublisher(cfg.AMQPURL)
		defer p.Close()
		pub = p
	}
	svc := app.NewPricingService(repo, src, cache, pub, app.Config{
		Defaults:        cfg.Defaults,
		MaxHotelOptions: cfg.MaxHotelOptions,
		CacheTTL:        cfg.CacheTTL,
	})

	// http
	srv := server.New(server.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst))
	reg := observability.InitRegistry()
	if cfg.MetricsAddr != "" {
		observability.Serve(cfg.MetricsAddr, reg)
	} else {
		srv.Mount("/metrics", observability.MetricsHandler(reg))
	}
	srv.MountHandlers(&server.Handlers{P: svc})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	_ = cache.Close()
	_ = db.Close()
	log.Info().Msg("API stopped")
}
