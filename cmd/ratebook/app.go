package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rgehrsitz/ratebook/internal/calculation"
	"github.com/rgehrsitz/ratebook/internal/config"
	"github.com/rgehrsitz/ratebook/internal/domain"
	"github.com/rgehrsitz/ratebook/internal/logging"
	"github.com/rgehrsitz/ratebook/internal/metrics"
	"github.com/rgehrsitz/ratebook/internal/repository"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds everything a command needs, built from config plus global flags
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	recorder *metrics.Recorder
	sqlite   *repository.SQLiteStore
	redis    *redis.Client
}

// newApp loads configuration, applies flag overrides and opens the stores
func newApp(cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("data") {
		dataRoot, _ := cmd.Flags().GetString("data")
		cfg.Store.Driver = config.DriverFile
		cfg.Store.DataRoot = dataRoot
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if a.recorder, err = metrics.NewRecorder(a.registry); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	if cfg.Store.Driver == config.DriverSQLite {
		if a.sqlite, err = repository.OpenSQLite(cfg.Store.Path); err != nil {
			return nil, err
		}
	}

	if cfg.Cache.Enabled {
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		client, err := repository.DialRedis(ctx, cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
		if err != nil {
			logger.Warn("Redis unavailable, continuing without cache", zap.String("addr", cfg.Cache.Addr), zap.Error(err))
		} else {
			a.redis = client
		}
	}
	return a, nil
}

// Close releases the stores and flushes the logger
func (a *app) Close() {
	if a.sqlite != nil {
		_ = a.sqlite.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	_ = a.logger.Sync()
}

// store returns the uncached repository of a family
func (a *app) store(family string) repository.Repository {
	if a.sqlite != nil {
		return a.sqlite.Repository(family)
	}
	return repository.NewFileRepository(a.cfg.Store.DataRoot, family)
}

// cached wraps the family repository with Redis when a client is available
func (a *app) cached(family string) (*repository.CachedRepository, bool) {
	if a.redis == nil {
		return nil, false
	}
	return repository.NewCachedRepository(a.store(family), a.redis, family, a.cfg.Cache.TTL, a.logger), true
}

func (a *app) family(name string) (domain.RuleFamily, error) {
	return a.cfg.Family(name)
}

// engine builds the engine of a configured family
func (a *app) engine(name string) (*calculation.Engine, error) {
	family, err := a.family(name)
	if err != nil {
		return nil, err
	}

	var repo repository.Repository = a.store(family.Name)
	if cached, ok := a.cached(family.Name); ok {
		repo = cached
	}

	engine := calculation.NewEngine(family, repo)
	engine.SetLogger(a.logger.Named(family.Name).Sugar())
	engine.Metrics = a.recorder
	engine.LoadTimeout = a.cfg.Store.LoadTimeout
	return engine, nil
}

// familyNames returns the named family, or every configured family when
// name is empty
func (a *app) familyNames(name string) ([]string, error) {
	if name != "" {
		family, err := a.family(name)
		if err != nil {
			return nil, err
		}
		return []string{family.Name}, nil
	}
	names := make([]string, 0, len(a.cfg.Families))
	for _, f := range a.cfg.Families {
		names = append(names, f.Name)
	}
	return names, nil
}
