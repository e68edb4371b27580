package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/streamtv/internal/model"
	"github.com/iliyamo/streamtv/internal/service"
	"github.com/iliyamo/streamtv/internal/session"
)

// CatalogHandler serves the read-only catalog pages.
type CatalogHandler struct {
	Catalog *service.CatalogService
}

func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{Catalog: catalog}
}

type episodeView struct {
	model.Episode
	Season string `json:"season"`
}

func episodeViews(eps []model.Episode) []episodeView {
	out := make([]episodeView, 0, len(eps))
	for _, e := range eps {
		out = append(out, episodeView{Episode: e, Season: e.Season()})
	}
	return out
}

// Actor lists an actor's main and recurring roles.
func (h *CatalogHandler) Actor(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	page, err := h.Catalog.Actor(ctx, c.Param("actorId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, struct {
		Found bool `json:"found"`
		service.ActorPage
	}{true, page})
}

// Show renders show detail with cast and the caller's queued flag.
func (h *CatalogHandler) Show(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	page, err := h.Catalog.Show(ctx, session.Current(c), c.Param("showId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, struct {
		Found bool `json:"found"`
		service.ShowPage
	}{true, page})
}

// ShowEpisodes lists a show's episodes ordered by air date.
func (h *CatalogHandler) ShowEpisodes(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	show, eps, err := h.Catalog.Episodes(ctx, c.Param("showId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"found":    true,
		"show":     show,
		"episodes": episodeViews(eps),
	})
}

// EpisodeInfo renders an episode with the cast scoped to it.
func (h *CatalogHandler) EpisodeInfo(c echo.Context) error {
	showID, episodeID, ok := splitPair(c.Param("pair"))
	if !ok {
		return notFoundState(c)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	page, err := h.Catalog.EpisodeInfo(ctx, showID, episodeID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, struct {
		Found bool `json:"found"`
		service.EpisodePage
	}{true, page})
}

// Search matches show titles and actor names.  A GET without a term
// renders the empty form.
func (h *CatalogHandler) Search(c echo.Context) error {
	term := c.FormValue("search")
	if c.Request().Method == http.MethodGet && term == "" {
		return c.JSON(http.StatusOK, service.SearchResult{Shows: []model.Show{}, Actors: []model.Actor{}})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.Catalog.Search(ctx, term)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
