// Package queue defines the activity events exchanged over the message
// broker together with their publisher and consumer.
package queue

import (
	"fmt"
	"strings"
)

// Activity event types.
const (
	EventCustomerRegistered = "customer.registered"
	EventShowQueued         = "show.queued"
	EventEpisodeWatched     = "episode.watched"
)

// ActivityEvent is published after a customer-visible state change.  It
// carries enough context for downstream consumers to log or feed analytics
// without querying the primary database.
type ActivityEvent struct {
	Type       string `json:"type"`
	CustomerID string `json:"cust_id"`
	Username   string `json:"username,omitempty"`
	ShowID     string `json:"show_id,omitempty"`
	EpisodeID  string `json:"episode_id,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// LogLine renders ev as a single human-friendly line terminated by '\n'.
func (ev ActivityEvent) LogLine() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s | cust_id=%s", ev.OccurredAt, ev.Type, ev.CustomerID)
	if ev.Username != "" {
		fmt.Fprintf(&b, " | username=%q", ev.Username)
	}
	if ev.ShowID != "" {
		fmt.Fprintf(&b, " | show_id=%s", ev.ShowID)
	}
	if ev.EpisodeID != "" {
		fmt.Fprintf(&b, " | episode_id=%s", ev.EpisodeID)
	}
	b.WriteByte('\n')
	return b.String()
}
