// Package session resolves the login state of a request.  A session is the
// triple (authenticated, username, customer id); the browser holds a signed
// cookie naming the session and the triple itself lives in a Store.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Store for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// Identity is the authentication context handed to every service call.
// The zero value is the anonymous identity.
type Identity struct {
	Authenticated bool   `json:"is_user"`
	Username      string `json:"user"`
	CustomerID    string `json:"cust_id"`
}

// Anonymous returns the identity of a request without a session.
func Anonymous() Identity { return Identity{} }

// Store persists identities by session id.
type Store interface {
	Save(ctx context.Context, id string, ident Identity, ttl time.Duration) error
	Load(ctx context.Context, id string) (Identity, error)
	Delete(ctx context.Context, id string) error
}
