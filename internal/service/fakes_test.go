package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/streamtv/internal/model"
	"github.com/iliyamo/streamtv/internal/queue"
	"github.com/iliyamo/streamtv/internal/repository"
)

// fakeCustomers mimics the customer table: a primary key on the id and a
// unique key on the username.
type fakeCustomers struct {
	mu   sync.Mutex
	rows []model.Customer
	// latestErr, when set, is returned by LatestID.
	latestErr error
	// latency delays LatestID like a database round trip would.
	latency time.Duration
	// alwaysTaken makes every Insert collide on the identifier.
	alwaysTaken bool
}

func (f *fakeCustomers) UsernameExists(_ context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.rows {
		if c.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCustomers) LatestID(context.Context) (string, error) {
	if f.latency > 0 {
		time.Sleep(f.latency)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.latestErr != nil {
		return "", f.latestErr
	}
	best, bestN := "", -1
	for _, c := range f.rows {
		n, err := ParseCustomerNumber(c.ID)
		if err == nil && n > bestN {
			best, bestN = c.ID, n
		}
	}
	return best, nil
}

func (f *fakeCustomers) Insert(_ context.Context, c model.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.alwaysTaken {
		return repository.ErrCustomerIDTaken
	}
	for _, r := range f.rows {
		if r.ID == c.ID {
			return repository.ErrCustomerIDTaken
		}
		if r.Username == c.Username {
			return repository.ErrUsernameTaken
		}
	}
	f.rows = append(f.rows, c)
	return nil
}

func (f *fakeCustomers) CredentialsByUsername(_ context.Context, username string) ([]model.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Credentials
	for _, c := range f.rows {
		if c.Username == username {
			out = append(out, model.Credentials{CustomerID: c.ID, PasswordHash: c.PasswordHash})
		}
	}
	return out, nil
}

func (f *fakeCustomers) GetByID(_ context.Context, id string) (model.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.rows {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Customer{}, repository.ErrNotFound
}

func (f *fakeCustomers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeQueue struct {
	mu      sync.Mutex
	entries []model.QueueEntry
	// shows, when set, lists the show ids the catalog knows about.
	shows map[string]bool
}

func (f *fakeQueue) Add(_ context.Context, customerID, showID string, day time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.shows != nil && !f.shows[showID] {
		return repository.ErrUnknownReference
	}
	f.entries = append(f.entries, model.QueueEntry{CustomerID: customerID, ShowID: showID, DateQueued: day})
	return nil
}

func (f *fakeQueue) ListByCustomer(_ context.Context, customerID string) ([]model.QueueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.QueueEntry{}
	for _, e := range f.entries {
		if e.CustomerID == customerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeQueue) Exists(_ context.Context, customerID, showID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.CustomerID == customerID && e.ShowID == showID {
			return true, nil
		}
	}
	return false, nil
}

// fakeWatched keeps a set keyed like the watched table's primary key.
type fakeWatched struct {
	mu   sync.Mutex
	rows map[model.WatchRecord]struct{}
}

func (f *fakeWatched) Record(_ context.Context, rec model.WatchRecord) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rows == nil {
		f.rows = map[model.WatchRecord]struct{}{}
	}
	rec.DateWatched = rec.DateWatched.Truncate(24 * time.Hour)
	if _, ok := f.rows[rec]; ok {
		return false, nil
	}
	f.rows[rec] = struct{}{}
	return true, nil
}

func (f *fakeWatched) LastWatched(_ context.Context, customerID, showID string) ([]model.LastWatched, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	latest := map[string]time.Time{}
	for r := range f.rows {
		if r.CustomerID != customerID || r.ShowID != showID {
			continue
		}
		if d, ok := latest[r.EpisodeID]; !ok || r.DateWatched.After(d) {
			latest[r.EpisodeID] = r.DateWatched
		}
	}
	out := []model.LastWatched{}
	for ep, d := range latest {
		out = append(out, model.LastWatched{ShowID: showID, EpisodeID: ep, DateWatched: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateWatched.Before(out[j].DateWatched) })
	return out, nil
}

func (f *fakeWatched) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ActivityEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ActivityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// fixedClock returns a clock pinned to the given UTC instant.
func fixedClock(t time.Time) Clock {
	return Clock{Now: func() time.Time { return t }, Loc: time.UTC}
}
