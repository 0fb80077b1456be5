package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openpheno/phenoserve/internal/analytics"
	"github.com/openpheno/phenoserve/internal/query"
	"github.com/openpheno/phenoserve/internal/service"
	"github.com/openpheno/phenoserve/internal/sim/simcache"
	"github.com/openpheno/phenoserve/pkg/config"
	"github.com/openpheno/phenoserve/pkg/health"
	"github.com/openpheno/phenoserve/pkg/kafka"
	"github.com/openpheno/phenoserve/pkg/logger"
	"github.com/openpheno/phenoserve/pkg/metrics"
	pkgredis "github.com/openpheno/phenoserve/pkg/redis"
	"github.com/openpheno/phenoserve/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting phenoserve",
		"ontology_dir", cfg.Ontology.Dir,
		"xref_source", cfg.Ontology.XrefSource,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	data, err := service.Load(ctx, cfg, m)
	if err != nil {
		slog.Error("failed to load ontology snapshot", "error", err)
		os.Exit(1)
	}

	var simCache *simcache.Cache
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		err := resilience.Retry(ctx, "redis-connect", resilience.RetryConfig{}, func() error {
			var err error
			redisClient, err = pkgredis.NewClient(cfg.Redis)
			return err
		})
		if err != nil {
			slog.Warn("redis unavailable, similarity caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			simCache = simcache.New(redisClient, cfg.Redis, m)
			slog.Info("similarity cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	var collector *analytics.Collector
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.QueryEvents)
		defer producer.Close()
		collector = analytics.NewCollector(producer, 10000)
		collector.Start(ctx)
		defer collector.Close()
	}

	svc := service.New(data, cfg, service.Options{
		Cache:     simCache,
		Collector: collector,
		Metrics:   m,
	})

	checker := health.NewChecker()
	checker.Register("ontology", func(ctx context.Context) health.ComponentHealth {
		if err := data.SanityCheck(); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d terms indexed", data.Terms.Len()),
		}
	})
	checker.Register("lookup", func(ctx context.Context) health.ComponentHealth {
		root := data.Terms.Get(data.Terms.IDs()[0])
		res, err := svc.LookupTerms(ctx, query.TermQuery{IDs: []string{root.ID}})
		if err != nil || len(res.Terms) == 0 {
			return health.ComponentHealth{Status: health.StatusDown, Message: "lookup probe failed"}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	var shutdownMetrics func(context.Context) error
	if cfg.Metrics.Enabled {
		shutdownMetrics = metrics.StartServer(cfg.Metrics.Port, func(mux *http.ServeMux) {
			mux.HandleFunc("GET /health/live", checker.LiveHandler())
			mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
		})
	}

	slog.Info("phenoserve ready",
		"terms", data.Terms.Len(),
		"indexed_fields", data.Index.NumFields(),
		"xref_entries", data.Xrefs.Len(),
	)

	<-ctx.Done()
	slog.Info("shutdown signal received")
	if shutdownMetrics != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdownMetrics(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown error", "error", err)
		}
	}
	slog.Info("phenoserve stopped")
}
