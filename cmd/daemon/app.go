// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/embyplay/internal/api"
	"github.com/ManuGH/embyplay/internal/config"
	"github.com/ManuGH/embyplay/internal/deviceid"
	"github.com/ManuGH/embyplay/internal/emby"
	"github.com/ManuGH/embyplay/internal/fsprobe"
	"github.com/ManuGH/embyplay/internal/health"
	"github.com/ManuGH/embyplay/internal/ledger"
	xglog "github.com/ManuGH/embyplay/internal/log"
	"github.com/ManuGH/embyplay/internal/playback"
	"github.com/ManuGH/embyplay/internal/state"
	"github.com/ManuGH/embyplay/internal/telemetry"
)

const telemetryShutdownTimeout = 5 * time.Second

// run wires every component and blocks until ctx is done or a component fails.
func run(ctx context.Context, cfg config.AppConfig, configPath string) error {
	logger := xglog.WithComponent("daemon")

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		return fmt.Errorf("startup checks: %w", err)
	}

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "embyplay",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), telemetryShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	store, err := state.Open(ctx, state.Config{
		Backend:       cfg.State.Backend,
		Path:          cfg.State.Path,
		RedisAddr:     cfg.State.RedisAddr,
		RedisPassword: cfg.State.RedisPassword,
		RedisDB:       cfg.State.RedisDB,
	})
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	device := deviceid.New(cfg.DataDir)
	deviceID, err := device.Load(ctx)
	if err != nil {
		return fmt.Errorf("device id: %w", err)
	}

	client, err := emby.New(emby.Config{
		BaseURL:          cfg.Server.BaseURL,
		UserID:           cfg.Server.UserID,
		ServerID:         cfg.Server.ServerID,
		Token:            cfg.Server.Token,
		DeviceID:         deviceID,
		DeviceName:       "embyplay",
		Version:          cfg.Version,
		Timeout:          cfg.Server.Timeout,
		RateLimit:        cfg.Server.RateLimit,
		RateBurst:        cfg.Server.RateBurst,
		BreakerThreshold: cfg.Server.BreakerThreshold,
		BreakerReset:     cfg.Server.BreakerReset,
	})
	if err != nil {
		return err
	}

	holder := config.NewHolder(cfg, config.NewLoader(configPath, cfg.Version), configPath)

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewStoreChecker(store))
	hm.RegisterChecker(health.NewUpstreamChecker(client.Breaker()))

	sessions := playback.NewSessionContext(store)
	opts := playback.Options{
		ServerURL: cfg.Server.BaseURL,
		UserID:    cfg.Server.UserID,
		Requester: client,
		Prober:    fsprobe.New(fsprobe.Options{MountMap: cfg.Playback.MountMap}),
		Settings:  config.NewSettings(holder),
		Device:    device,
		Sessions:  sessions,
	}
	deps := api.Deps{
		Items:    client,
		Sessions: sessions,
		Health:   hm,
	}

	if cfg.Ledger.Enabled {
		led, err := ledger.Open(ctx, cfg.Ledger.Path)
		if err != nil {
			return err
		}
		defer func() { _ = led.Close() }()
		opts.Recorder = led
		deps.History = led
		hm.RegisterChecker(health.NewPingChecker("ledger", led.Ping))
	}

	resolver, err := playback.NewResolver(opts)
	if err != nil {
		return err
	}
	deps.Resolver = resolver

	srv, err := api.New(api.Config{
		ListenAddr:     cfg.API.ListenAddr,
		RateLimit:      cfg.API.RateLimit,
		RateWindow:     cfg.API.RateWindow,
		TracingService: tracingService(cfg),
	}, deps)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return holder.Watch(gctx) })
	g.Go(func() error { return reloadOnHangup(gctx, holder) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func tracingService(cfg config.AppConfig) string {
	if !cfg.Telemetry.Enabled {
		return ""
	}
	return "embyplay"
}

// reloadOnHangup reloads configuration on SIGHUP until ctx is done.
func reloadOnHangup(ctx context.Context, holder *config.Holder) error {
	logger := xglog.WithComponent("daemon")
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			if err := holder.Reload(ctx); err != nil {
				logger.Warn().Err(err).Str("event", "config.sighup_reload_failed").Msg("reload on SIGHUP failed")
			}
		}
	}
}
