package model

import "time"

// Show is a catalog title.  The core never mutates shows.
type Show struct {
	ID          string `db:"showID" json:"show_id"`
	Title       string `db:"title" json:"title"`
	Genre       string `db:"genre" json:"genre,omitempty"`
	Length      int    `db:"length" json:"length,omitempty"`
	Type        string `db:"type" json:"type,omitempty"`
	Network     string `db:"network" json:"network,omitempty"`
	Description string `db:"description" json:"description,omitempty"`
}

// Episode belongs to a show.  The first character of the identifier
// encodes the season ("1..." is season 1).
type Episode struct {
	ID        string    `db:"episodeID" json:"episode_id"`
	ShowID    string    `db:"showID" json:"show_id"`
	ShowTitle string    `db:"show_title" json:"show_title"`
	Title     string    `db:"title" json:"title"`
	AirDate   time.Time `db:"airdate" json:"air_date"`
}

// Season returns the season number encoded in the episode identifier,
// or an empty string when the identifier is empty.
func (e Episode) Season() string {
	if e.ID == "" {
		return ""
	}
	return e.ID[:1]
}

type Actor struct {
	ID        string `db:"actID" json:"actor_id"`
	FirstName string `db:"fname" json:"first_name"`
	LastName  string `db:"lname" json:"last_name"`
}

// CastMember is an actor credited on a show (main cast) or on a specific
// episode (recurring cast).  Appearances is only populated for recurring
// cast listings and counts distinct episodes.
type CastMember struct {
	ActorID     string `db:"actID" json:"actor_id"`
	FirstName   string `db:"fname" json:"first_name"`
	LastName    string `db:"lname" json:"last_name"`
	Role        string `db:"role" json:"role"`
	Appearances int    `db:"appearances" json:"appearances,omitempty"`
}

// ActorRole is one of an actor's credits across the catalog.
type ActorRole struct {
	ShowID    string `db:"showID" json:"show_id"`
	ShowTitle string `db:"title" json:"show_title"`
	Role      string `db:"role" json:"role"`
	FirstName string `db:"fname" json:"first_name"`
	LastName  string `db:"lname" json:"last_name"`
}
