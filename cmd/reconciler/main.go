package main

import (
	"context"
	"database/sql"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	amqpad "itinerary_pricing/internal/adapters/amqp"
	"itinerary_pricing/internal/adapters/builder"
	"itinerary_pricing/internal/adapters/observability"
	redisad "itinerary_pricing/internal/adapters/redis"
	"itinerary_pricing/internal/app"
	"itinerary_pricing/internal/domain"
	"itinerary_pricing/internal/shared"
	mysqlrepo "itinerary_pricing/internal/storage/mysql"
)

const pageSize = 200

func main() {
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "pricing-reconciler", cfg.LogLevel)
	observability.Serve(cfg.MetricsAddr, observability.InitRegistry())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("base", cfg.BuilderBase).
		Int("workers", cfg.Workers).
		Msg("reconciler starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	client, err := builder.New(cfg.BuilderBase, cfg.BuilderKey, cfg.BuilderRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize builder client")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	var pub domain.EventPublisher = amqpad.Noop{}
	if cfg.AMQPURL != "" {
		p := amqpad.NewPublisher(cfg.AMQPURL)
		defer p.Close()
		pub = p
	}
	svc := app.NewPricingService(repo, client, cache, pub, app.Config{
		Defaults:        cfg.Defaults,
		MaxHotelOptions: cfg.MaxHotelOptions,
		CacheTTL:        cfg.CacheTTL,
	})
	rec := app.NewReconcileService(svc, repo)

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var (
		wg                     sync.WaitGroup
		visited, seeded, fails atomic.Int64
		after                  int64
	)

pages:
	for {
		ids, err := rec.ListPricedPackages(ctx, after, pageSize)
		if err != nil {
			log.Error().Err(err).Int64("after", after).Msg("listing priced packages failed")
			break
		}
		for _, id := range ids {
			// acquire before launching the goroutine; release inside it
			if err := sem.Acquire(ctx, 1); err != nil {
				log.Warn().Err(err).Msg("reconciliation interrupted")
				break pages
			}

			wg.Add(1)
			go func(packageID int64) {
				defer wg.Done()
				defer sem.Release(1)

				visited.Add(1)
				n, err := rec.ReconcilePackage(ctx, packageID)
				if err != nil {
					fails.Add(1)
					log.Warn().Int64("package_id", packageID).Err(err).Msg("reconcile failed")
					return
				}
				if n > 0 {
					seeded.Add(int64(n))
					log.Info().Int64("package_id", packageID).Int("seeded", n).Msg("reconcile ok")
				}
			}(id)
		}
		if len(ids) < pageSize {
			break
		}
		after = ids[len(ids)-1]
	}

	wg.Wait()
	_ = cache.Close()
	_ = db.Close()
	log.Info().
		Int64("packages", visited.Load()).
		Int64("lines_seeded", seeded.Load()).
		Int64("failures", fails.Load()).
		Msg("reconciliation completed")
}
