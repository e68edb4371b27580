package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/streamtv/internal/database"
	"github.com/iliyamo/streamtv/internal/logger"
	"github.com/iliyamo/streamtv/internal/metrics"
	"github.com/iliyamo/streamtv/internal/queue"
	"github.com/iliyamo/streamtv/internal/router"
	"github.com/iliyamo/streamtv/internal/service"
	"github.com/iliyamo/streamtv/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Log.Sync() }()

		db, err := openMySQL(cfg.MySQL)
		if err != nil {
			return err
		}
		defer db.Close()

		rdb, err := database.OpenRedis(database.RedisOptions{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			TLS:         cfg.Redis.TLS,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		var store session.Store
		if err != nil {
			logger.Log.Warn("redis unavailable; using in-memory sessions, no rate limit or cache",
				zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			rdb = nil
			store = session.NewMemoryStore()
		} else {
			defer func() { _ = rdb.Close() }()
			store = session.NewRedisStore(rdb, "session")
		}

		var events service.EventPublisher = service.NopPublisher{}
		if cfg.Events.Enabled {
			pub := queue.NewPublisher(cfg.Events.URL, cfg.Events.Queue)
			defer func() { _ = pub.Close() }()
			events = pub
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics.MustRegister(reg)

		e := router.New(buildDeps(cfg, db.DB, db, rdb, store, events, reg))

		errCh := make(chan error, 1)
		go func() {
			logger.Log.Info("starting http", zap.String("addr", cfg.App.Addr), zap.String("env", cfg.App.Env))
			errCh <- e.Start(cfg.App.Addr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			logger.Log.Info("signal received, shutting down", zap.String("signal", sig.String()))
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(ctx)
	},
}
