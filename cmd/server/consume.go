package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/streamtv/internal/logger"
	"github.com/iliyamo/streamtv/internal/queue"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Append activity events from RabbitMQ to the activity log",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Log.Sync() }()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c := queue.Consumer{URL: cfg.Events.URL, Queue: cfg.Events.Queue, LogPath: cfg.Events.LogPath}
		logger.Log.Info("activity consumer started",
			zap.String("queue", c.Queue), zap.String("log_path", c.LogPath))
		if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
