package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/streamtv/internal/logger"
	"github.com/iliyamo/streamtv/internal/metrics"
	"github.com/iliyamo/streamtv/internal/model"
	"github.com/iliyamo/streamtv/internal/queue"
	"github.com/iliyamo/streamtv/internal/repository"
	"github.com/iliyamo/streamtv/internal/session"
)

// QueueStore persists queued shows.
type QueueStore interface {
	Add(ctx context.Context, customerID, showID string, day time.Time) error
	ListByCustomer(ctx context.Context, customerID string) ([]model.QueueEntry, error)
	Exists(ctx context.Context, customerID, showID string) (bool, error)
}

// WatchStore persists watched episodes.
type WatchStore interface {
	Record(ctx context.Context, rec model.WatchRecord) (bool, error)
	LastWatched(ctx context.Context, customerID, showID string) ([]model.LastWatched, error)
}

// QueueService manages the shows a customer intends to watch.
type QueueService struct {
	store  QueueStore
	events EventPublisher
	clock  Clock
}

func NewQueueService(store QueueStore, events EventPublisher, clock Clock) *QueueService {
	if events == nil {
		events = NopPublisher{}
	}
	return &QueueService{store: store, events: events, clock: clock}
}

// Add queues showID for the customer, dated today.  Repeated adds create
// repeated entries; an unknown show yields ErrNotFound.
func (s *QueueService) Add(ctx context.Context, id session.Identity, showID string) error {
	if !id.Authenticated {
		return ErrUnauthenticated
	}
	showID = strings.TrimSpace(showID)
	if showID == "" {
		return validationFailed("showId", "This value should not be blank.")
	}
	if err := s.store.Add(ctx, id.CustomerID, showID, s.clock.Today()); err != nil {
		if errors.Is(err, repository.ErrUnknownReference) {
			return ErrNotFound
		}
		return fmt.Errorf("add to queue: %w", err)
	}
	metrics.QueueAddsTotal.Inc()
	logger.Log.Info("show queued", zap.String("cust_id", id.CustomerID), zap.String("show_id", showID))
	publish(ctx, s.events, queue.ActivityEvent{
		Type:       queue.EventShowQueued,
		CustomerID: id.CustomerID,
		ShowID:     showID,
	})
	return nil
}

// List returns the customer's queue.  Anonymous callers get an empty list.
func (s *QueueService) List(ctx context.Context, id session.Identity) ([]model.QueueEntry, error) {
	if !id.Authenticated {
		return []model.QueueEntry{}, nil
	}
	entries, err := s.store.ListByCustomer(ctx, id.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	return entries, nil
}

// IsQueued reports whether the customer has showID queued at least once.
func (s *QueueService) IsQueued(ctx context.Context, id session.Identity, showID string) (bool, error) {
	if !id.Authenticated {
		return false, nil
	}
	ok, err := s.store.Exists(ctx, id.CustomerID, showID)
	if err != nil {
		return false, fmt.Errorf("check queue: %w", err)
	}
	return ok, nil
}

// WatchHistoryService records and lists watched episodes.
type WatchHistoryService struct {
	store  WatchStore
	events EventPublisher
	clock  Clock
}

func NewWatchHistoryService(store WatchStore, events EventPublisher, clock Clock) *WatchHistoryService {
	if events == nil {
		events = NopPublisher{}
	}
	return &WatchHistoryService{store: store, events: events, clock: clock}
}

// Record stores that the customer watched the episode today.  At most one
// record exists per episode per day; recorded is false when today's record
// already existed.
func (s *WatchHistoryService) Record(ctx context.Context, id session.Identity, showID, episodeID string) (recorded bool, err error) {
	if !id.Authenticated {
		return false, ErrUnauthenticated
	}
	rec := model.WatchRecord{
		CustomerID:  id.CustomerID,
		ShowID:      showID,
		EpisodeID:   episodeID,
		DateWatched: s.clock.Today(),
	}
	recorded, err = s.store.Record(ctx, rec)
	if err != nil {
		if errors.Is(err, repository.ErrUnknownReference) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("record watch: %w", err)
	}
	if !recorded {
		metrics.WatchRecordsTotal.WithLabelValues("duplicate").Inc()
		return false, nil
	}
	metrics.WatchRecordsTotal.WithLabelValues("recorded").Inc()
	publish(ctx, s.events, queue.ActivityEvent{
		Type:       queue.EventEpisodeWatched,
		CustomerID: id.CustomerID,
		ShowID:     showID,
		EpisodeID:  episodeID,
	})
	return true, nil
}

// LastWatched lists each watched episode of showID with its most recent
// watch date, oldest first.  Anonymous callers get an empty list.
func (s *WatchHistoryService) LastWatched(ctx context.Context, id session.Identity, showID string) ([]model.LastWatched, error) {
	if !id.Authenticated {
		return []model.LastWatched{}, nil
	}
	out, err := s.store.LastWatched(ctx, id.CustomerID, showID)
	if err != nil {
		return nil, fmt.Errorf("list watched: %w", err)
	}
	return out, nil
}
