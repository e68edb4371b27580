package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/streamtv/internal/model"
)

// CatalogRepo serves read-only lookups over shows, episodes, actors and
// cast associations.  Nothing here touches customer state.
type CatalogRepo struct{ db *sqlx.DB }

func NewCatalogRepo(db *sqlx.DB) *CatalogRepo { return &CatalogRepo{db: db} }

const showColumns = `s.showID, s.title,
	COALESCE(s.genre, '') AS genre,
	COALESCE(s.length, 0) AS length,
	COALESCE(s.type, '') AS type,
	COALESCE(s.network, '') AS network,
	COALESCE(s.description, '') AS description`

// GetShow fetches a show by id, returning ErrNotFound when absent.
func (r *CatalogRepo) GetShow(ctx context.Context, showID string) (model.Show, error) {
	var s model.Show
	err := r.db.GetContext(ctx, &s, `SELECT `+showColumns+` FROM shows s WHERE s.showID = ?`, showID)
	return s, notFound(err)
}

// MainCast lists actors credited for the whole run of the show.
func (r *CatalogRepo) MainCast(ctx context.Context, showID string) ([]model.CastMember, error) {
	out := []model.CastMember{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT DISTINCT a.actID, a.fname, a.lname, m.role
		 FROM main_cast m
		 JOIN actor a ON a.actID = m.actID
		 WHERE m.showID = ?
		 ORDER BY a.lname, a.fname`,
		showID)
	return out, err
}

// RecurringCastWithCounts aggregates recurring credits per actor with the
// number of distinct episodes they appear in.
func (r *CatalogRepo) RecurringCastWithCounts(ctx context.Context, showID string) ([]model.CastMember, error) {
	out := []model.CastMember{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT a.actID, a.fname, a.lname, MIN(rc.role) AS role, COUNT(DISTINCT rc.episodeID) AS appearances
		 FROM recurring_cast rc
		 JOIN episode e ON e.showID = rc.showID AND e.episodeID = rc.episodeID
		 JOIN actor a   ON a.actID = rc.actID
		 WHERE rc.showID = ?
		 GROUP BY a.actID, a.fname, a.lname
		 ORDER BY appearances DESC, a.lname, a.fname`,
		showID)
	return out, err
}

// EpisodeRecurringCast lists recurring credits scoped to one episode.
func (r *CatalogRepo) EpisodeRecurringCast(ctx context.Context, showID, episodeID string) ([]model.CastMember, error) {
	out := []model.CastMember{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT DISTINCT a.actID, a.fname, a.lname, rc.role
		 FROM recurring_cast rc
		 JOIN actor a ON a.actID = rc.actID
		 WHERE rc.showID = ? AND rc.episodeID = ?
		 ORDER BY a.lname, a.fname`,
		showID, episodeID)
	return out, err
}

// Episodes lists a show's episodes ordered by air date.
func (r *CatalogRepo) Episodes(ctx context.Context, showID string) ([]model.Episode, error) {
	out := []model.Episode{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT e.episodeID, e.showID, s.title AS show_title, e.title, e.airdate
		 FROM episode e
		 JOIN shows s ON s.showID = e.showID
		 WHERE e.showID = ?
		 ORDER BY e.airdate, e.episodeID`,
		showID)
	return out, err
}

// Episode fetches one episode of a show, returning ErrNotFound when absent.
func (r *CatalogRepo) Episode(ctx context.Context, showID, episodeID string) (model.Episode, error) {
	var e model.Episode
	err := r.db.GetContext(ctx, &e,
		`SELECT e.episodeID, e.showID, s.title AS show_title, e.title, e.airdate
		 FROM episode e
		 JOIN shows s ON s.showID = e.showID
		 WHERE e.showID = ? AND e.episodeID = ?`,
		showID, episodeID)
	return e, notFound(err)
}

// GetActor fetches an actor by id, returning ErrNotFound when absent.
func (r *CatalogRepo) GetActor(ctx context.Context, actorID string) (model.Actor, error) {
	var a model.Actor
	err := r.db.GetContext(ctx, &a, `SELECT actID, fname, lname FROM actor WHERE actID = ?`, actorID)
	return a, notFound(err)
}

// ActorMainRoles lists the actor's main-cast credits.
func (r *CatalogRepo) ActorMainRoles(ctx context.Context, actorID string) ([]model.ActorRole, error) {
	out := []model.ActorRole{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT DISTINCT s.showID, s.title, m.role, a.fname, a.lname
		 FROM main_cast m
		 JOIN shows s ON s.showID = m.showID
		 JOIN actor a ON a.actID = m.actID
		 WHERE a.actID = ?
		 ORDER BY s.title`,
		actorID)
	return out, err
}

// ActorRecurringRoles lists the actor's recurring credits, one row per
// show and role.
func (r *CatalogRepo) ActorRecurringRoles(ctx context.Context, actorID string) ([]model.ActorRole, error) {
	out := []model.ActorRole{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT DISTINCT s.showID, s.title, rc.role, a.fname, a.lname
		 FROM recurring_cast rc
		 JOIN shows s ON s.showID = rc.showID
		 JOIN actor a ON a.actID = rc.actID
		 WHERE a.actID = ?
		 ORDER BY s.title`,
		actorID)
	return out, err
}

// SearchShowsByTitle matches shows whose title contains term, ignoring case.
func (r *CatalogRepo) SearchShowsByTitle(ctx context.Context, term string) ([]model.Show, error) {
	out := []model.Show{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+showColumns+` FROM shows s WHERE LOWER(s.title) LIKE ? ORDER BY s.title`,
		containsPattern(term))
	return out, err
}

// SearchActorsByName matches actors whose first or last name contains
// term, ignoring case.
func (r *CatalogRepo) SearchActorsByName(ctx context.Context, term string) ([]model.Actor, error) {
	out := []model.Actor{}
	p := containsPattern(term)
	err := r.db.SelectContext(ctx, &out,
		`SELECT actID, fname, lname FROM actor
		 WHERE LOWER(fname) LIKE ? OR LOWER(lname) LIKE ?
		 ORDER BY lname, fname`,
		p, p)
	return out, err
}

// containsPattern builds a lower-cased LIKE pattern matching term anywhere,
// with LIKE wildcards in term escaped.
func containsPattern(term string) string {
	esc := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(term))
	return "%" + esc + "%"
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
