package model

import "time"

// QueueEntry is a show a customer intends to watch.  The same show may be
// queued more than once.
type QueueEntry struct {
	CustomerID string    `json:"-"`
	ShowID     string    `json:"show_id"`
	ShowTitle  string    `json:"show_title"`
	DateQueued time.Time `json:"date_queued"`
}

// WatchRecord states that a customer watched an episode on a calendar day.
type WatchRecord struct {
	CustomerID  string
	ShowID      string
	EpisodeID   string
	DateWatched time.Time
}

// LastWatched is the most recent watch date for one episode of a show.
type LastWatched struct {
	ShowID       string    `json:"show_id"`
	ShowTitle    string    `json:"show_title"`
	EpisodeID    string    `json:"episode_id"`
	EpisodeTitle string    `json:"episode_title"`
	DateWatched  time.Time `json:"date_watched"`
}
