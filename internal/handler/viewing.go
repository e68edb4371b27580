package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/streamtv/internal/service"
	"github.com/iliyamo/streamtv/internal/session"
)

// ViewingHandler serves the customer's queue and watch history.
type ViewingHandler struct {
	Queue   *service.QueueService
	Watch   *service.WatchHistoryService
	Catalog *service.CatalogService
}

func NewViewingHandler(q *service.QueueService, w *service.WatchHistoryService, cat *service.CatalogService) *ViewingHandler {
	return &ViewingHandler{Queue: q, Watch: w, Catalog: cat}
}

// AddToQueue queues the show for the current customer and redirects home.
// Anonymous requests are redirected without any change.
func (h *ViewingHandler) AddToQueue(c echo.Context) error {
	id := session.Current(c)
	if !id.Authenticated {
		return c.Redirect(http.StatusFound, "/")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Queue.Add(ctx, id, c.Param("showId")); err != nil {
		return respondError(c, err)
	}
	return c.Redirect(http.StatusFound, "/")
}

// QueueList lists the current customer's queue, empty when anonymous.
func (h *ViewingHandler) QueueList(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	id := session.Current(c)
	entries, err := h.Queue.List(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"is_user": id.Authenticated, "queue": entries})
}

// Watched lists the last watch date per episode of a show.
func (h *ViewingHandler) Watched(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	id := session.Current(c)
	showID := c.Param("showId")
	rows, err := h.Watch.LastWatched(ctx, id, showID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"is_user": id.Authenticated, "show_id": showID, "watched": rows})
}

// WatchEpisode records that the customer watched an episode today and
// confirms it.  Unknown episodes render the not-found state; anonymous
// requests record nothing.
func (h *ViewingHandler) WatchEpisode(c echo.Context) error {
	showID, episodeID, ok := splitPair(c.Param("pair"))
	if !ok {
		return notFoundState(c)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	ep, err := h.Catalog.Episode(ctx, showID, episodeID)
	if err != nil {
		return respondError(c, err)
	}

	id := session.Current(c)
	recorded := false
	if id.Authenticated {
		if recorded, err = h.Watch.Record(ctx, id, showID, episodeID); err != nil {
			return respondError(c, err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"found":         true,
		"is_user":       id.Authenticated,
		"show_id":       showID,
		"show_title":    ep.ShowTitle,
		"episode_id":    episodeID,
		"episode_title": ep.Title,
		"recorded":      recorded,
	})
}
