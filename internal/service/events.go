package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/streamtv/internal/logger"
	"github.com/iliyamo/streamtv/internal/queue"
)

// EventPublisher delivers activity events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ActivityEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.ActivityEvent) error { return nil }

// publish sends ev without letting a broker failure affect the request.
func publish(ctx context.Context, p EventPublisher, ev queue.ActivityEvent) {
	if p == nil {
		return
	}
	ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	if err := p.Publish(ctx, ev); err != nil {
		logger.Log.Warn("publish activity event failed",
			zap.String("type", ev.Type),
			zap.Error(err))
	}
}
