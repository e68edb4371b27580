package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/streamtv/internal/logger"
	"github.com/iliyamo/streamtv/internal/utils"
)

// contextKey is the echo context key holding the resolved Identity.
const contextKey = "identity"

// sessionIDKey holds the id of the session backing the request, if any.
const sessionIDKey = "session_id"

// Options configures the session cookie.
type Options struct {
	CookieName string
	Secret     string
	TTL        time.Duration
	Secure     bool
}

// Guard establishes, resolves and clears login sessions.  It never touches
// the relational store.
type Guard struct {
	store Store
	opts  Options
}

func NewGuard(store Store, opts Options) *Guard {
	if opts.CookieName == "" {
		opts.CookieName = "streamtv_session"
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	return &Guard{store: store, opts: opts}
}

// Establish starts a session for a verified customer and sets the cookie.
// Any session already attached to the request is discarded first.
func (g *Guard) Establish(c echo.Context, customerID, username string) (Identity, error) {
	g.dropCurrent(c)

	id := utils.NewSessionID()
	ident := Identity{Authenticated: true, Username: username, CustomerID: customerID}
	if err := g.store.Save(c.Request().Context(), id, ident, g.opts.TTL); err != nil {
		return Identity{}, err
	}
	tok, err := utils.NewSessionToken(g.opts.Secret, id, g.opts.TTL)
	if err != nil {
		_ = g.store.Delete(c.Request().Context(), id)
		return Identity{}, err
	}

	c.SetCookie(&http.Cookie{
		Name:     g.opts.CookieName,
		Value:    tok.Token,
		Path:     "/",
		Expires:  tok.Exp,
		MaxAge:   int(g.opts.TTL / time.Second),
		HttpOnly: true,
		Secure:   g.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.Set(contextKey, ident)
	c.Set(sessionIDKey, id)
	return ident, nil
}

// Resolve reads the request cookie and attaches the matching identity to c.
// Missing, forged, expired or revoked sessions resolve to Anonymous.
func (g *Guard) Resolve(c echo.Context) Identity {
	ident := Anonymous()
	defer func() { c.Set(contextKey, ident) }()

	ck, err := c.Cookie(g.opts.CookieName)
	if err != nil || ck.Value == "" {
		return ident
	}
	id, err := utils.ParseSessionToken(g.opts.Secret, ck.Value)
	if err != nil {
		return ident
	}
	stored, err := g.store.Load(c.Request().Context(), id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Log.Error("session lookup failed", zap.Error(err))
		}
		return ident
	}
	ident = stored
	c.Set(sessionIDKey, id)
	return ident
}

// Current returns the identity attached to c, or Anonymous.
func Current(c echo.Context) Identity {
	if ident, ok := c.Get(contextKey).(Identity); ok {
		return ident
	}
	return Anonymous()
}

// Clear ends the request's session and expires the cookie.
func (g *Guard) Clear(c echo.Context) {
	g.dropCurrent(c)
	c.SetCookie(&http.Cookie{
		Name:     g.opts.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.Set(contextKey, Anonymous())
}

func (g *Guard) dropCurrent(c echo.Context) {
	id, _ := c.Get(sessionIDKey).(string)
	if id == "" {
		return
	}
	if err := g.store.Delete(c.Request().Context(), id); err != nil {
		logger.Log.Warn("session delete failed", zap.Error(err))
	}
	c.Set(sessionIDKey, "")
}
