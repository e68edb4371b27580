package main

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/streamtv/internal/config"
	"github.com/iliyamo/streamtv/internal/database"
	"github.com/iliyamo/streamtv/internal/handler"
	"github.com/iliyamo/streamtv/internal/repository"
	"github.com/iliyamo/streamtv/internal/router"
	"github.com/iliyamo/streamtv/internal/service"
	"github.com/iliyamo/streamtv/internal/session"
)

func openMySQL(c config.MySQLConfig) (*sqlx.DB, error) {
	db, err := database.Open(database.DSN(c.User, c.Pass, c.Host, c.Port, c.Name), database.Options{
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		PingTimeout:     c.PingTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("mysql connect: %w", err)
	}
	return db, nil
}

// buildDeps assembles repositories, services and handlers.
func buildDeps(cfg config.Config, db *sql.DB, dbx *sqlx.DB, rdb *redis.Client, store session.Store,
	events service.EventPublisher, gatherer prometheus.Gatherer) router.Deps {
	clock := service.SystemClock(cfg.App.Location())

	customers := repository.NewCustomerRepo(db)
	queueRepo := repository.NewQueueRepo(db)
	watched := repository.NewWatchedRepo(db)
	catalog := repository.NewCatalogRepo(dbx)

	identity := service.NewIdentityService(customers, events, clock, cfg.Auth.BcryptCost)
	queueSvc := service.NewQueueService(queueRepo, events, clock)
	watchSvc := service.NewWatchHistoryService(watched, events, clock)
	catalogSvc := service.NewCatalogService(catalog, queueSvc)

	guard := session.NewGuard(store, session.Options{
		CookieName: cfg.Session.CookieName,
		Secret:     cfg.Session.Secret,
		TTL:        cfg.Session.TTL,
		Secure:     cfg.Session.Secure,
	})

	return router.Deps{
		Config:   cfg,
		Guard:    guard,
		Redis:    rdb,
		Gatherer: gatherer,
		Auth:     handler.NewAuthHandler(identity, guard),
		Catalog:  handler.NewCatalogHandler(catalogSvc),
		Viewing:  handler.NewViewingHandler(queueSvc, watchSvc, catalogSvc),
	}
}
