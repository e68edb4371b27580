package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/streamtv/internal/model"
	"github.com/iliyamo/streamtv/internal/repository"
	"github.com/iliyamo/streamtv/internal/session"
)

// CatalogReader is the read-only catalog the core joins against.
type CatalogReader interface {
	GetShow(ctx context.Context, showID string) (model.Show, error)
	MainCast(ctx context.Context, showID string) ([]model.CastMember, error)
	RecurringCastWithCounts(ctx context.Context, showID string) ([]model.CastMember, error)
	EpisodeRecurringCast(ctx context.Context, showID, episodeID string) ([]model.CastMember, error)
	Episodes(ctx context.Context, showID string) ([]model.Episode, error)
	Episode(ctx context.Context, showID, episodeID string) (model.Episode, error)
	GetActor(ctx context.Context, actorID string) (model.Actor, error)
	ActorMainRoles(ctx context.Context, actorID string) ([]model.ActorRole, error)
	ActorRecurringRoles(ctx context.Context, actorID string) ([]model.ActorRole, error)
	SearchShowsByTitle(ctx context.Context, term string) ([]model.Show, error)
	SearchActorsByName(ctx context.Context, term string) ([]model.Actor, error)
}

// ShowPage is a show with its cast and the caller's queue state.
type ShowPage struct {
	Show          model.Show         `json:"show"`
	MainCast      []model.CastMember `json:"main_cast"`
	RecurringCast []model.CastMember `json:"recurring_cast"`
	Queued        bool               `json:"queued"`
}

// EpisodePage is an episode with the show's main cast and the recurring
// cast of that episode only.
type EpisodePage struct {
	Episode       model.Episode      `json:"episode"`
	Season        string             `json:"season"`
	MainCast      []model.CastMember `json:"main_cast"`
	RecurringCast []model.CastMember `json:"recurring_cast"`
}

// ActorPage lists an actor's main and recurring roles separately.
type ActorPage struct {
	Actor          model.Actor       `json:"actor"`
	MainRoles      []model.ActorRole `json:"main_roles"`
	RecurringRoles []model.ActorRole `json:"recurring_roles"`
}

type SearchResult struct {
	Term   string        `json:"term"`
	Shows  []model.Show  `json:"shows"`
	Actors []model.Actor `json:"actors"`
}

// CatalogService composes catalog reads into pages.
type CatalogService struct {
	catalog CatalogReader
	queue   *QueueService
}

func NewCatalogService(catalog CatalogReader, queue *QueueService) *CatalogService {
	return &CatalogService{catalog: catalog, queue: queue}
}

// Show returns the show page; Queued reflects the caller's queue.
func (s *CatalogService) Show(ctx context.Context, id session.Identity, showID string) (ShowPage, error) {
	show, err := s.catalog.GetShow(ctx, showID)
	if err != nil {
		return ShowPage{}, lookupErr("get show", err)
	}
	page := ShowPage{Show: show}
	if page.MainCast, err = s.catalog.MainCast(ctx, showID); err != nil {
		return ShowPage{}, fmt.Errorf("main cast: %w", err)
	}
	if page.RecurringCast, err = s.catalog.RecurringCastWithCounts(ctx, showID); err != nil {
		return ShowPage{}, fmt.Errorf("recurring cast: %w", err)
	}
	if s.queue != nil {
		if page.Queued, err = s.queue.IsQueued(ctx, id, showID); err != nil {
			return ShowPage{}, err
		}
	}
	return page, nil
}

// Episodes lists a show's episodes by air date.  An unknown show is
// reported as ErrNotFound.
func (s *CatalogService) Episodes(ctx context.Context, showID string) (model.Show, []model.Episode, error) {
	show, err := s.catalog.GetShow(ctx, showID)
	if err != nil {
		return model.Show{}, nil, lookupErr("get show", err)
	}
	eps, err := s.catalog.Episodes(ctx, showID)
	if err != nil {
		return model.Show{}, nil, fmt.Errorf("list episodes: %w", err)
	}
	return show, eps, nil
}

// Episode fetches a single episode of a show.
func (s *CatalogService) Episode(ctx context.Context, showID, episodeID string) (model.Episode, error) {
	ep, err := s.catalog.Episode(ctx, showID, episodeID)
	if err != nil {
		return model.Episode{}, lookupErr("get episode", err)
	}
	return ep, nil
}

// EpisodeInfo returns the episode page.
func (s *CatalogService) EpisodeInfo(ctx context.Context, showID, episodeID string) (EpisodePage, error) {
	ep, err := s.Episode(ctx, showID, episodeID)
	if err != nil {
		return EpisodePage{}, err
	}
	page := EpisodePage{Episode: ep, Season: ep.Season()}
	if page.MainCast, err = s.catalog.MainCast(ctx, showID); err != nil {
		return EpisodePage{}, fmt.Errorf("main cast: %w", err)
	}
	if page.RecurringCast, err = s.catalog.EpisodeRecurringCast(ctx, showID, episodeID); err != nil {
		return EpisodePage{}, fmt.Errorf("episode cast: %w", err)
	}
	return page, nil
}

// Actor returns the actor page.
func (s *CatalogService) Actor(ctx context.Context, actorID string) (ActorPage, error) {
	actor, err := s.catalog.GetActor(ctx, actorID)
	if err != nil {
		return ActorPage{}, lookupErr("get actor", err)
	}
	page := ActorPage{Actor: actor}
	if page.MainRoles, err = s.catalog.ActorMainRoles(ctx, actorID); err != nil {
		return ActorPage{}, fmt.Errorf("main roles: %w", err)
	}
	if page.RecurringRoles, err = s.catalog.ActorRecurringRoles(ctx, actorID); err != nil {
		return ActorPage{}, fmt.Errorf("recurring roles: %w", err)
	}
	return page, nil
}

// Search matches show titles and actor names containing term, ignoring
// case.  A blank term is a validation failure.
func (s *CatalogService) Search(ctx context.Context, term string) (SearchResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return SearchResult{}, validationFailed("search", "This value should not be blank.")
	}
	res := SearchResult{Term: term}
	var err error
	if res.Shows, err = s.catalog.SearchShowsByTitle(ctx, term); err != nil {
		return SearchResult{}, fmt.Errorf("search shows: %w", err)
	}
	if res.Actors, err = s.catalog.SearchActorsByName(ctx, term); err != nil {
		return SearchResult{}, fmt.Errorf("search actors: %w", err)
	}
	return res, nil
}

func lookupErr(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
