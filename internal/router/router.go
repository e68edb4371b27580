// Package router registers the HTTP surface on an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/streamtv/internal/config"
	"github.com/iliyamo/streamtv/internal/handler"
	"github.com/iliyamo/streamtv/internal/middleware"
	"github.com/iliyamo/streamtv/internal/session"
)

// Deps are the collaborators the routes need.  Redis may be nil, in which
// case rate limiting and response caching are off.
type Deps struct {
	Config   config.Config
	Guard    *session.Guard
	Redis    *redis.Client
	Gatherer prometheus.Gatherer
	Auth     *handler.AuthHandler
	Catalog  *handler.CatalogHandler
	Viewing  *handler.ViewingHandler
}

// New builds the echo instance with global middleware and every route.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.Use(echomw.Recover())
	e.Use(middleware.Session(d.Guard))
	e.Use(middleware.RequestLogger())

	RegisterRoutes(e, d)
	return e
}

// RegisterRoutes maps paths to handlers.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	limit := middleware.RateLimit(d.Config.RateLimit, d.Redis)
	cache := middleware.ResponseCache(d.Config.Cache, d.Redis)

	e.GET("/", d.Auth.Home)
	e.GET("/login", d.Auth.LoginForm)
	e.POST("/login", d.Auth.Login, limit)
	e.GET("/register", d.Auth.RegisterForm)
	e.POST("/register", d.Auth.Register, limit)
	e.GET("/logout", d.Auth.Logout)

	// Catalog pages that do not depend on the caller are cached for
	// anonymous visitors.
	e.GET("/actor/:actorId", d.Catalog.Actor, cache)
	e.GET("/shows/:showId", d.Catalog.Show)
	e.GET("/show_episodes/:showId", d.Catalog.ShowEpisodes, cache)
	e.GET("/episodeinfo/:pair", d.Catalog.EpisodeInfo, cache)
	e.GET("/search", d.Catalog.Search, cache)
	e.POST("/search", d.Catalog.Search)

	e.GET("/addtoqueue/:showId", d.Viewing.AddToQueue)
	e.GET("/queue", d.Viewing.QueueList)
	e.POST("/queue", d.Viewing.QueueList)
	e.GET("/watched/:showId", d.Viewing.Watched)
	e.GET("/watch_episode/:pair", d.Viewing.WatchEpisode)
}
