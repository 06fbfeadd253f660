package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminhandler "smartration/internal/admin/handler"
	adminservice "smartration/internal/admin/service"
	"smartration/internal/catalog/cache"
	catalogstore "smartration/internal/catalog/store"
	"smartration/internal/distribution"
	distributionstore "smartration/internal/distribution/store"
	issuancehandler "smartration/internal/issuance/handler"
	issuancemetrics "smartration/internal/issuance/metrics"
	issuanceservice "smartration/internal/issuance/service"
	jwttoken "smartration/internal/jwt_token"
	"smartration/internal/platform/config"
	"smartration/internal/platform/health"
	"smartration/internal/platform/httpserver"
	"smartration/internal/platform/logger"
	"smartration/internal/platform/metrics"
	"smartration/internal/platform/middleware"
	"smartration/internal/platform/postgres"
	redisclient "smartration/internal/platform/redis"
	"smartration/internal/ratelimit/bucket"
	ratelimitmetrics "smartration/internal/ratelimit/metrics"
	ratelimit "smartration/internal/ratelimit/middleware"
)

const tokenIssuer = "smartration"

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	checks := health.New(2 * time.Second)

	var (
		catalog issuanceservice.CatalogStore
		ledger  distribution.Store
	)
	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := newSchemaBootstrap(db).Run(ctx, true); err != nil {
			return err
		}
		catalog = catalogstore.NewPostgres(db)
		ledger = distributionstore.NewPostgres(db)
		checks.Add("postgres", db.PingContext)
		log.Info("using postgres storage")
	} else {
		mem := catalogstore.NewInMemory()
		if err := catalogstore.SeedReferenceCatalog(ctx, mem); err != nil {
			return err
		}
		catalog = mem
		ledger = distributionstore.NewInMemory()
		log.Warn("DATABASE_URL not set, using in-memory storage")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.New(registry)

	rc, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	var (
		loginStore ratelimit.BucketStore = bucket.NewInMemoryBucketStore()
		limitOpts                        = []ratelimit.Option{
			ratelimit.WithDisabled(cfg.RateLimit.Disabled),
			ratelimit.WithMetrics(ratelimitmetrics.New(registry)),
		}
	)
	if rc != nil {
		defer rc.Close()
		catalog = cache.New(catalog, rc.Client, cfg.Redis.CardCacheTTL, log)
		loginStore = bucket.NewRedisBucketStore(rc.Client)
		limitOpts = append(limitOpts, ratelimit.WithFallback(bucket.NewInMemoryBucketStore()))
		checks.Add("redis", rc.Health)
		log.Info("card cache enabled", "ttl", cfg.Redis.CardCacheTTL)
	}
	loginLimiter := ratelimit.New(loginStore, cfg.RateLimit.LoginLimit, cfg.RateLimit.LoginWindow, log, limitOpts...)

	jwt := jwttoken.NewJWTService(cfg.JWTSigningKey, tokenIssuer)
	adminSvc, err := adminservice.New(cfg.Admin, jwt, adminservice.WithLogger(log))
	if err != nil {
		return err
	}
	issuanceSvc := issuanceservice.New(
		catalog,
		distribution.NewLedger(ledger),
		jwttoken.NewSessionVerifier(jwt),
		issuanceservice.WithLogger(log),
		issuanceservice.WithMetrics(issuancemetrics.New(registry)),
		issuanceservice.WithLocation(cfg.Issuance.Location),
	)

	r := chi.NewRouter()
	r.Use(middleware.Common(log, httpMetrics)...)
	r.Method(http.MethodGet, "/health", checks)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(30 * time.Second))
		api.Use(middleware.ContentTypeJSON)
		adminhandler.New(adminSvc, log).Register(api, loginLimiter.RateLimitLogin())
		issuancehandler.New(issuanceSvc, log).Register(api)
	})

	srv := httpserver.New(cfg.Addr, r)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting smartration", "addr", cfg.Addr, "month_zone", cfg.Issuance.Location.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
