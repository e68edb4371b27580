package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/streamtv/internal/config"
	"github.com/iliyamo/streamtv/internal/handler"
	"github.com/iliyamo/streamtv/internal/metrics"
	"github.com/iliyamo/streamtv/internal/model"
	"github.com/iliyamo/streamtv/internal/repository"
	"github.com/iliyamo/streamtv/internal/router"
	"github.com/iliyamo/streamtv/internal/service"
	"github.com/iliyamo/streamtv/internal/session"
)

// memDB backs every store interface with slices guarded by one mutex.
type memDB struct {
	mu        sync.Mutex
	customers []model.Customer
	queue     []model.QueueEntry
	watched   map[model.WatchRecord]bool
}

func (m *memDB) UsernameExists(_ context.Context, u string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.customers {
		if c.Username == u {
			return true, nil
		}
	}
	return false, nil
}

func (m *memDB) LatestID(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.customers) == 0 {
		return "", nil
	}
	return m.customers[len(m.customers)-1].ID, nil
}

func (m *memDB) Insert(_ context.Context, c model.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.customers {
		if r.ID == c.ID {
			return repository.ErrCustomerIDTaken
		}
		if r.Username == c.Username {
			return repository.ErrUsernameTaken
		}
	}
	m.customers = append(m.customers, c)
	return nil
}

func (m *memDB) CredentialsByUsername(_ context.Context, u string) ([]model.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Credentials
	for _, c := range m.customers {
		if c.Username == u {
			out = append(out, model.Credentials{CustomerID: c.ID, PasswordHash: c.PasswordHash})
		}
	}
	return out, nil
}

func (m *memDB) GetByID(_ context.Context, id string) (model.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.customers {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Customer{}, repository.ErrNotFound
}

type queueStore struct{ *memDB }

func (q queueStore) Add(_ context.Context, cust, show string, day time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if show != madMen.ID {
		return repository.ErrUnknownReference
	}
	q.queue = append(q.queue, model.QueueEntry{CustomerID: cust, ShowID: show, ShowTitle: "Mad Men", DateQueued: day})
	return nil
}

func (q queueStore) ListByCustomer(_ context.Context, cust string) ([]model.QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := []model.QueueEntry{}
	for _, e := range q.queue {
		if e.CustomerID == cust {
			out = append(out, e)
		}
	}
	return out, nil
}

func (q queueStore) Exists(ctx context.Context, cust, show string) (bool, error) {
	entries, _ := q.ListByCustomer(ctx, cust)
	for _, e := range entries {
		if e.ShowID == show {
			return true, nil
		}
	}
	return false, nil
}

type watchStore struct{ *memDB }

func (w watchStore) Record(_ context.Context, rec model.WatchRecord) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watched[rec] {
		return false, nil
	}
	w.watched[rec] = true
	return true, nil
}

func (w watchStore) LastWatched(_ context.Context, cust, show string) ([]model.LastWatched, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := []model.LastWatched{}
	for r := range w.watched {
		if r.CustomerID == cust && r.ShowID == show {
			out = append(out, model.LastWatched{ShowID: show, EpisodeID: r.EpisodeID, DateWatched: r.DateWatched})
		}
	}
	return out, nil
}

type catalog struct{}

var (
	madMen = model.Show{ID: "show0001", Title: "Mad Men"}
	pilot  = model.Episode{ID: "101", ShowID: "show0001", ShowTitle: "Mad Men", Title: "Smoke Gets in Your Eyes"}
)

func (catalog) GetShow(_ context.Context, id string) (model.Show, error) {
	if id != madMen.ID {
		return model.Show{}, repository.ErrNotFound
	}
	return madMen, nil
}
func (catalog) MainCast(context.Context, string) ([]model.CastMember, error) {
	return []model.CastMember{}, nil
}
func (catalog) RecurringCastWithCounts(context.Context, string) ([]model.CastMember, error) {
	return []model.CastMember{}, nil
}
func (catalog) EpisodeRecurringCast(context.Context, string, string) ([]model.CastMember, error) {
	return []model.CastMember{}, nil
}
func (catalog) Episodes(context.Context, string) ([]model.Episode, error) {
	return []model.Episode{pilot}, nil
}
func (catalog) Episode(_ context.Context, show, ep string) (model.Episode, error) {
	if show != pilot.ShowID || ep != pilot.ID {
		return model.Episode{}, repository.ErrNotFound
	}
	return pilot, nil
}
func (catalog) GetActor(context.Context, string) (model.Actor, error) {
	return model.Actor{}, repository.ErrNotFound
}
func (catalog) ActorMainRoles(context.Context, string) ([]model.ActorRole, error) {
	return []model.ActorRole{}, nil
}
func (catalog) ActorRecurringRoles(context.Context, string) ([]model.ActorRole, error) {
	return []model.ActorRole{}, nil
}
func (catalog) SearchShowsByTitle(_ context.Context, term string) ([]model.Show, error) {
	if strings.Contains(strings.ToLower(madMen.Title), strings.ToLower(term)) {
		return []model.Show{madMen}, nil
	}
	return []model.Show{}, nil
}
func (catalog) SearchActorsByName(context.Context, string) ([]model.Actor, error) {
	return []model.Actor{}, nil
}

type fixture struct {
	e  *echo.Echo
	db *memDB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := &memDB{watched: map[model.WatchRecord]bool{}}
	clock := service.Clock{Now: func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }, Loc: time.UTC}

	identity := service.NewIdentityService(db, nil, clock, bcrypt.MinCost)
	q := service.NewQueueService(queueStore{db}, nil, clock)
	w := service.NewWatchHistoryService(watchStore{db}, nil, clock)
	cat := service.NewCatalogService(catalog{}, q)
	guard := session.NewGuard(session.NewMemoryStore(), session.Options{CookieName: "sid", Secret: "s3cret", TTL: time.Hour})

	reg := prometheus.NewRegistry()
	metrics.MustRegister(reg)

	e := router.New(router.Deps{
		Config:   config.Config{},
		Guard:    guard,
		Gatherer: reg,
		Auth:     handler.NewAuthHandler(identity, guard),
		Catalog:  handler.NewCatalogHandler(cat),
		Viewing:  handler.NewViewingHandler(q, w, cat),
	})
	return &fixture{e: e, db: db}
}

func (f *fixture) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) postForm(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func registration(username string) url.Values {
	return url.Values{
		"uname":           {username},
		"password":        {"secret1"},
		"verify_password": {"secret1"},
		"fname":           {"Alice"},
		"lname":           {"Liddell"},
		"email":           {"alice@example.com"},
		"ccard":           {"4111111111111111"},
	}
}

// loginAs registers username and logs in, returning the session cookie.
func (f *fixture) loginAs(t *testing.T, username string) *http.Cookie {
	t.Helper()
	rec := f.postForm("/register", registration(username))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = f.postForm("/login", url.Values{"uname": {username}, "password": {"secret1"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "sid" {
			return ck
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

func TestRegisterDoesNotLogIn(t *testing.T) {
	f := newFixture(t)
	rec := f.postForm("/register", registration("alice"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
	require.Len(t, f.db.customers, 1)
	assert.Equal(t, "cust0001", f.db.customers[0].ID)
}

func TestRegisterErrors(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusSeeOther, f.postForm("/register", registration("alice")).Code)

	rec := f.postForm("/register", registration("alice"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, f.db.customers, 1)

	bad := registration("bobby")
	bad.Set("ccard", "123")
	rec = f.postForm("/register", bad)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "ccard", decode(t, rec)["field"])
}

func TestLoginAndHome(t *testing.T) {
	f := newFixture(t)
	ck := f.loginAs(t, "alice")

	home := decode(t, f.get("/", ck))
	assert.Equal(t, true, home["is_user"])
	assert.Equal(t, "alice", home["user"])
	assert.Equal(t, "Alice", home["first_name"])
	assert.Equal(t, "2024-05-01", home["member_since"])
	assert.Equal(t, "2024-05-01", home["renewal_date"])

	anon := decode(t, f.get("/"))
	assert.Equal(t, false, anon["is_user"])
	assert.Equal(t, "", anon["user"])
	assert.NotContains(t, anon, "member_since")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, "alice")

	rec := f.postForm("/login", url.Values{"uname": {"alice"}, "password": {"nope!"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	rec = f.postForm("/login", url.Values{"uname": {"ghost"}, "password": {"secret1"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutClearsSession(t *testing.T) {
	f := newFixture(t)
	ck := f.loginAs(t, "alice")

	rec := f.get("/logout", ck)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, false, decode(t, f.get("/", ck))["is_user"])
}

func TestQueueFlow(t *testing.T) {
	f := newFixture(t)

	anon := decode(t, f.get("/queue"))
	assert.Equal(t, []any{}, anon["queue"])

	rec := f.get("/addtoqueue/show0001")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Empty(t, f.db.queue)

	ck := f.loginAs(t, "alice")
	assert.Equal(t, false, decode(t, f.get("/shows/show0001", ck))["queued"])

	rec = f.get("/addtoqueue/show0001", ck)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))

	assert.Len(t, decode(t, f.get("/queue", ck))["queue"], 1)
	assert.Equal(t, true, decode(t, f.get("/shows/show0001", ck))["queued"])
}

func TestAddToQueueUnknownShow(t *testing.T) {
	f := newFixture(t)
	ck := f.loginAs(t, "alice")

	rec := f.get("/addtoqueue/show9999", ck)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["found"])
	assert.Empty(t, f.db.queue)
}

func TestWatchEpisodeRecordsOncePerDay(t *testing.T) {
	f := newFixture(t)
	ck := f.loginAs(t, "alice")

	first := decode(t, f.get("/watch_episode/show0001&101", ck))
	assert.Equal(t, true, first["recorded"])
	assert.Equal(t, "Smoke Gets in Your Eyes", first["episode_title"])
	assert.Equal(t, "Mad Men", first["show_title"])

	second := decode(t, f.get("/watch_episode/show0001&101", ck))
	assert.Equal(t, false, second["recorded"])

	assert.Len(t, decode(t, f.get("/watched/show0001", ck))["watched"], 1)
}

func TestWatchEpisodeAnonymousRecordsNothing(t *testing.T) {
	f := newFixture(t)
	body := decode(t, f.get("/watch_episode/show0001&101"))
	assert.Equal(t, false, body["recorded"])
	assert.Empty(t, f.db.watched)
	assert.Equal(t, []any{}, decode(t, f.get("/watched/show0001"))["watched"])
}

func TestNotFoundRendersEmptyState(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/shows/nope", "/show_episodes/nope", "/actor/nobody", "/episodeinfo/show0001&999", "/episodeinfo/garbage", "/watch_episode/show0001&999"} {
		rec := f.get(path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, false, decode(t, rec)["found"], path)
	}
}

func TestEpisodePages(t *testing.T) {
	f := newFixture(t)
	info := decode(t, f.get("/episodeinfo/show0001&101"))
	assert.Equal(t, true, info["found"])
	assert.Equal(t, "1", info["season"])

	list := decode(t, f.get("/show_episodes/show0001"))
	eps := list["episodes"].([]any)
	require.Len(t, eps, 1)
	assert.Equal(t, "1", eps[0].(map[string]any)["season"])
}

func TestSearch(t *testing.T) {
	f := newFixture(t)

	form := decode(t, f.get("/search"))
	assert.Equal(t, []any{}, form["shows"])

	res := decode(t, f.postForm("/search", url.Values{"search": {"MAD"}}))
	assert.Len(t, res["shows"], 1)

	res = decode(t, f.get("/search?search=men"))
	assert.Len(t, res["shows"], 1)

	rec := f.postForm("/search", url.Values{"search": {"  "}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)
	rec := f.get("/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	f.loginAs(t, "alice")
	rec = f.get("/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "streamtv_logins_total")
}

func TestHTTPErrorHandlerHidesDetails(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = handler.HTTPErrorHandler
	e.GET("/boom", func(c echo.Context) error { return assert.AnError })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
