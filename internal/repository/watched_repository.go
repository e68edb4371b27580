package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/streamtv/internal/model"
)

// WatchedRepo records watch events.  The watched table's primary key spans
// (custID, showID, episodeID, datewatched), which makes same-day repeats
// collapse into a single row.
type WatchedRepo struct{ DB *sql.DB }

func NewWatchedRepo(db *sql.DB) *WatchedRepo { return &WatchedRepo{DB: db} }

// Record inserts rec unless an identical row for the same calendar day
// already exists.  It reports whether a new row was written.  The no-op
// update leaves the affected-row count at zero for an existing row.
func (r *WatchedRepo) Record(ctx context.Context, rec model.WatchRecord) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO watched (custID, datewatched, episodeID, showID) VALUES (?,?,?,?)
		 ON DUPLICATE KEY UPDATE datewatched = datewatched`,
		rec.CustomerID, dateOnly(rec.DateWatched), rec.EpisodeID, rec.ShowID)
	if err != nil {
		return false, classifyReference(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// LastWatched returns one row per episode of the show the customer has
// watched, carrying the latest watch date, ordered by that date.
func (r *WatchedRepo) LastWatched(ctx context.Context, customerID, showID string) ([]model.LastWatched, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT s.showID, s.title, e.episodeID, e.title, MAX(w.datewatched) AS last_watched
		 FROM watched w
		 JOIN episode e ON e.showID = w.showID AND e.episodeID = w.episodeID
		 JOIN shows s   ON s.showID = w.showID
		 WHERE w.custID = ? AND w.showID = ?
		 GROUP BY s.showID, s.title, e.episodeID, e.title
		 ORDER BY last_watched, e.episodeID`,
		customerID, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.LastWatched{}
	for rows.Next() {
		var lw model.LastWatched
		if err := rows.Scan(&lw.ShowID, &lw.ShowTitle, &lw.EpisodeID, &lw.EpisodeTitle, &lw.DateWatched); err != nil {
			return nil, err
		}
		out = append(out, lw)
	}
	return out, rows.Err()
}
