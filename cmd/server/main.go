package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"supplyChainTracking/internal/backend"
	"supplyChainTracking/internal/cache"
	"supplyChainTracking/internal/config"
	"supplyChainTracking/internal/db"
	"supplyChainTracking/internal/gateway"
	"supplyChainTracking/internal/notify"
	"supplyChainTracking/internal/tracker"
	"supplyChainTracking/repository"
)

func main() {
	cfg, err := config.LoadWithDefaults()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("configuration loaded", zap.String("config", cfg.String()))

	// Snapshot store is optional; without it the gateway still works, it just
	// cannot serve stale data while the backend is down.
	var store tracker.SnapshotStore
	if cfg.Database.Path != "" {
		d, err := db.Open(cfg.Database.Path)
		if err != nil {
			logger.Fatal("open db", zap.Error(err))
		}
		defer func() {
			if err := d.Close(); err != nil {
				logger.Warn("close db", zap.Error(err))
			}
		}()
		store = repository.NewSnapshotRepository(d)
	}

	client := backend.New(cfg.Backend.BaseURL, cfg.Backend.Token, logger)
	trk := tracker.New(client, cache.New(cache.SystemClock), store, cfg.Cache.TTL, logger)
	srv := gateway.New(trk, client, []byte(cfg.Auth.QRKey), logger)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Routes(cfg.Auth.JWTSecret),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.Backend.WSURL != "" {
		channel := notify.New(cfg.Backend.WSURL, cfg.Backend.Token, nil, notify.Events{
			OnNotification: trk.BroadcastNotification,
			OnUnreadCount:  trk.BroadcastUnreadCount,
			OnStateChange:  trk.SetConnState,
		}, logger)
		g.Go(func() error {
			channel.Run(ctx)
			return nil
		})
	} else {
		logger.Warn("BACKEND_WS_URL not set; realtime notifications disabled")
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
