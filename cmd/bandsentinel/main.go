package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"BandSentinel/internal/cache"
	"BandSentinel/internal/collector"
	"BandSentinel/internal/config"
	"BandSentinel/internal/dashboard"
	"BandSentinel/internal/logger"
	"BandSentinel/internal/metrics"
	"BandSentinel/internal/scheduler"
	"BandSentinel/internal/strategy"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	log.Info("BandSentinel starting",
		logger.String("provider", cfg.DataSource.Provider),
		logger.String("interval", cfg.DataSource.Interval),
		logger.Int("pairs", len(cfg.DataSource.Symbols)),
	)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(reg)

	// Data source, optionally behind the payload cache
	var src collector.DataSource = newDataSource(cfg)
	if cfg.Cache.TTL > 0 {
		store := newStore(ctx, cfg, log)
		defer store.Close()
		scope := fmt.Sprintf("%s:%d", cfg.DataSource.Interval, cfg.DataSource.Limit)
		src = collector.NewCachedSource(src, store, cfg.Cache.TTL, scope, rec, log)
	}
	log.Info("data source ready", logger.String("source", src.Name()), logger.String("cache", cfg.Cache.Backend))

	col := collector.NewCollector(src, cfg.DataSource.Symbols, cfg.DataSource.Timeout, cfg.DataSource.MaxConcurrency, rec, log)
	ev := strategy.NewEvaluator()

	sched := scheduler.NewScheduler(ctx, col, ev, cfg.Signal.Deviation, rec, log)
	if cfg.Log.PrintTable {
		sched.Table = os.Stdout
	}
	if err := sched.Register(cfg.Schedule.RefreshCron); err != nil {
		log.Error("register refresh task", logger.Error(err))
		os.Exit(1)
	}

	srv := dashboard.NewServer(sched, dashboard.Options{
		Host:             cfg.Server.Host,
		Port:             cfg.Server.Port,
		Window:           ev.Window,
		Deviation:        cfg.Signal.Deviation,
		DeviationOptions: cfg.Signal.DeviationOptions,
		Symbols:          cfg.DataSource.Symbols,
		Interval:         cfg.DataSource.Interval,
		Provider:         cfg.DataSource.Provider,
		RefreshSeconds:   refreshSeconds(cfg.Schedule.RefreshCron),
	}, reg, log)
	sched.Subscribe(srv.Hub().Broadcast)

	srv.Start()
	sched.Start()
	go sched.RunNow()

	log.Info("BandSentinel is running", logger.String("addr", cfg.Server.Addr()))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping")
	cancel()
	sched.Stop()
	if err := srv.Stop(context.Background()); err != nil {
		log.Error("stop http server", logger.Error(err))
	}
	log.Info("BandSentinel stopped")
}

func newDataSource(cfg *config.Config) collector.DataSource {
	ds := cfg.DataSource
	switch ds.Provider {
	case "bybit":
		return collector.NewBybitSource(ds.BaseURL, ds.Interval, ds.Limit, cfg.Proxy, ds.Timeout)
	case "coingecko":
		return collector.NewCoinGeckoSource(ds.BaseURL, ds.APIKey, ds.CoinGeckoDays, ds.CoinIDs, cfg.Proxy, ds.Timeout)
	case "mock":
		return collector.NewMockSource(100, ds.Limit)
	default:
		return collector.NewBinanceSource(ds.BaseURL, ds.Interval, ds.Limit, cfg.Proxy, ds.Timeout)
	}
}

// newStore opens the configured cache backend, falling back to memory when it
// cannot be reached.
func newStore(ctx context.Context, cfg *config.Config, log *logger.Logger) cache.Store {
	memory := func() cache.Store {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MaxEntries))
	}

	switch cfg.Cache.Backend {
	case "sqlite":
		st, err := cache.NewSQLiteStore(cfg.Cache.SQLitePath)
		if err != nil {
			log.Warn("init sqlite cache failed, using memory", logger.Error(err))
			return memory()
		}
		if n, err := st.Purge(ctx); err == nil && n > 0 {
			log.Debug("purged expired cache entries", logger.Int("count", int(n)))
		}
		return st
	case "redis":
		rc := cfg.Cache.Redis
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		st, err := cache.NewRedisStore(pingCtx,
			cache.WithRedisAddr(rc.Addr),
			cache.WithRedisPassword(rc.Password),
			cache.WithRedisDB(rc.DB),
			cache.WithRedisPrefix(rc.Prefix),
		)
		if err != nil {
			log.Warn("init redis cache failed, using memory", logger.Error(err))
			return memory()
		}
		return st
	default:
		return memory()
	}
}

// refreshSeconds extracts the period of an "@every" schedule for the page's
// auto-refresh; other schedules get none.
func refreshSeconds(spec string) int {
	d, err := time.ParseDuration(strings.TrimSpace(strings.TrimPrefix(spec, "@every")))
	if err != nil || !strings.HasPrefix(spec, "@every") {
		return 0
	}
	return int(d.Seconds())
}
