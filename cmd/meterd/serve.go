package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/miradorstack/meterd/internal/api"
	"github.com/miradorstack/meterd/internal/config"
	"github.com/miradorstack/meterd/internal/meter"
	"github.com/miradorstack/meterd/internal/metrics"
	"github.com/miradorstack/meterd/internal/services"
	"github.com/miradorstack/meterd/internal/store"
	"github.com/miradorstack/meterd/internal/theme"
	"github.com/miradorstack/meterd/internal/users"
	"github.com/miradorstack/meterd/internal/utils"
)

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the meter with its gRPC and HTTP servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting meterd",
		slog.String("version", version),
		slog.String("grpc_address", cfg.Server.Address),
		slog.String("http_address", cfg.Server.HTTPAddress),
		slog.String("store", cfg.Store.Backend),
	)

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := store.Open(ctx, storeOptions(cfg.Store))
	if err != nil {
		return err
	}
	defer provider.Close()

	manager := meter.NewManager(ctx, logger, provider, meterOptions(cfg.Meter))
	if err := manager.Start(ctx); err != nil {
		return err
	}
	defer manager.Close()

	prefs := theme.NewPreferences(ctx, provider, cfg.Theme.SystemDark(), logger)
	directory := users.NewDirectory()
	logger.Info("trusted users loaded", slog.Int("online", directory.Online()), slog.Int("total", len(directory.List())))

	grpcServer, err := api.NewServer(cfg.Server, services.NewMeterService(logger, manager, prefs))
	if err != nil {
		return err
	}
	httpServer := api.NewHTTPServer(cfg.Server, logger, manager, prefs, directory)

	go func() {
		logger.Info("gRPC server listening", slog.String("address", grpcServer.Address()))
		if serveErr := grpcServer.Start(); serveErr != nil {
			logger.Error("gRPC server exited", slog.Any("error", serveErr))
			stop()
		}
	}()
	go func() {
		if serveErr := httpServer.Start(); serveErr != nil {
			logger.Error("http server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grpcServer.GracefulTimeout())
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Warn("http server shutdown", slog.Any("error", err))
	}
	grpcServer.Shutdown(shutdownCtx)

	logger.Info("meterd stopped", slog.Float64("value", manager.Value()))
	return nil
}

func meterOptions(cfg config.MeterConfig) meter.Options {
	opts := meter.DefaultOptions()
	opts.Limits = meter.Limits{
		Min:               cfg.Min,
		Max:               cfg.Max,
		MaxAdjustment:     cfg.MaxAdjustment,
		MinUpdateInterval: cfg.MinUpdateInterval,
	}
	opts.FlushInterval = cfg.FlushInterval
	opts.FluctuationInterval = cfg.FluctuationInterval
	opts.ManualHold = cfg.ManualHold
	opts.OriginID = cfg.OriginID
	return opts
}

func storeOptions(cfg config.StoreConfig) store.Options {
	return store.Options{
		Backend:    cfg.Backend,
		SQLitePath: cfg.SQLitePath,
		Redis: store.RedisConfig{
			Addr:         cfg.Redis.Addr,
			Username:     cfg.Redis.Username,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			Prefix:       cfg.Redis.Prefix,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			MaxRetries:   cfg.Redis.MaxRetries,
			TLS:          cfg.Redis.TLS,
		},
	}
}
