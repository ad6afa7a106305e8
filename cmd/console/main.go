package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/amadeus-trading/console/internal/api"
	"github.com/amadeus-trading/console/internal/config"
	"github.com/amadeus-trading/console/internal/display"
	"github.com/amadeus-trading/console/internal/model"
	"github.com/amadeus-trading/console/internal/reconcile"
	"github.com/amadeus-trading/console/internal/status"
	"github.com/amadeus-trading/console/internal/stream"
	"github.com/amadeus-trading/console/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/console.yaml", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	// Optional .env for local development; a missing file is fine.
	godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting console",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"feed_url", cfg.Feed.URL,
		"api_url", cfg.API.BaseURL,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connection manager: owns the feed transport and its lifecycle.
	manager := stream.NewManager(stream.ManagerConfig{
		URL:                 cfg.Feed.URL,
		Token:               cfg.Feed.Token,
		ReconnectBaseDelay:  cfg.Feed.ReconnectBaseDelay.Std(),
		ReconnectMaxDelay:   cfg.Feed.ReconnectMaxDelay.Std(),
		ReconnectGrowth:     cfg.Feed.ReconnectGrowth,
		PingTimeout:         cfg.Feed.PingTimeout.Std(),
		HeartbeatInterval:   cfg.Feed.HeartbeatInterval.Std(),
		WriteTimeout:        cfg.Feed.WriteTimeout.Std(),
		SubscriberQueueSize: cfg.Feed.SubscriberQueueSize,
	}, logger)
	manager.Connect()
	defer manager.Close()

	// Reconciler: folds the broadcast into the open-orders and trade views.
	sub := manager.Subscribe()
	defer sub.Close()

	rec := reconcile.New(reconcile.Config{
		TradeBufferCap: cfg.Views.TradeBufferCap,
	}, sub.C(), logger)
	if err := rec.Start(ctx); err != nil {
		logger.Error("failed to start reconciler", "error", err)
		os.Exit(1)
	}

	// Status poller: REST fallback with last-value caching.
	apiClient := api.NewClient(cfg.API.BaseURL, cfg.API.Token,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout.Std()),
		api.WithRetries(cfg.API.MaxRetries, time.Second),
	)
	poller := status.New(status.Config{
		Interval: cfg.Status.Interval.Std(),
		Timeout:  cfg.Status.Timeout.Std(),
	}, apiClient, logger)
	if err := poller.Start(ctx); err != nil {
		logger.Error("failed to start status poller", "error", err)
		os.Exit(1)
	}

	// Status and hello frames travel over the same feed. A second broadcast
	// subscriber routes them to the status cache so the header stays fresh
	// between polls.
	ctrlSub := manager.Subscribe()
	defer ctrlSub.Close()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case f := <-ctrlSub.C():
				switch f.Event.Kind {
				case model.KindStatus:
					poller.Observe(api.BotStatus{
						Running: f.Event.Str("running") == "true",
						Symbol:  f.Event.Str("symbol"),
						Equity:  f.Event.Num("equity"),
						TS:      f.Event.Timestamp(f.ReceivedAt.UnixMilli()),
					})
				case model.KindHello:
					logger.Info("feed hello", "version", f.Event.Str("version"))
				}
			}
		}
	}()

	renderer := display.New(os.Stdout, cfg.UI.MaxOrderRows, cfg.UI.MaxTradeRows)

	// Coalesced change signal from the reconciler; the render loop pulls
	// snapshots on its own cadence.
	dirty := make(chan struct{}, 1)
	unsubscribe := rec.Subscribe(func() {
		select {
		case dirty <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker := time.NewTicker(cfg.UI.RefreshInterval.Std())
		defer ticker.Stop()

		lastConn := stream.Status{State: stream.StateIdle}
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
			}

			conn := manager.Status()
			changed := conn != lastConn
			select {
			case <-dirty:
				changed = true
			default:
			}
			if !changed {
				continue
			}
			lastConn = conn

			bot, _, botKnown := poller.Last()
			renderer.Render(rec.Snapshot(), conn, bot, botKnown)
		}
	})

	logger.Info("console running", "refresh", cfg.UI.RefreshInterval)

	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	manager.Close()
	if err := rec.Stop(shutdownCtx); err != nil {
		logger.Warn("reconciler stop", "error", err)
	}
	if err := poller.Stop(shutdownCtx); err != nil {
		logger.Warn("status poller stop", "error", err)
	}
	g.Wait()

	stats := manager.Stats()
	logger.Info("console stopped",
		"frames_received", stats.FramesReceived,
		"decode_failures", stats.DecodeFailures,
	)
}
