// internal/session/session.go
//
// Admin session cookie.
//
// Context
//   The admin panel persists the logged-in user between requests in one
//   signed cookie, `demosite_session`, holding the user id and role.  The
//   cookie is signed (HMAC) with `http.session_key` through
//   gorilla/sessions, so clients can read but not forge it.
//
//   `Middleware` turns a valid cookie into an auth.Actor on the request
//   context.  Role checks happen later, per route, in internal/acl.
//
//------------------------------------------------------------------------------

package session

import (
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/yanizio/demosite/internal/auth"
	"github.com/yanizio/demosite/internal/logger"
)

const (
	cookieName = "demosite_session"
	keyUID     = "uid"
	keyRole    = "role"
	maxAge     = 14 * 24 * 60 * 60 // seconds
)

// Manager issues and reads the admin session cookie.
type Manager struct {
	store *sessions.CookieStore
}

// New returns a Manager signing cookies with key.  secure marks the cookie
// HTTPS-only.
func New(key []byte, secure bool) *Manager {
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{store: store}
}

// Login stores a's identity in the session cookie.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, a auth.Actor) error {
	sess, _ := m.store.Get(r, cookieName) // a bad cookie yields a fresh session
	sess.Values[keyUID] = a.ID
	sess.Values[keyRole] = a.Role
	return sess.Save(r, w)
}

// Logout expires the session cookie.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, cookieName)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// Actor reads the session cookie, ok == false when absent or invalid.
func (m *Manager) Actor(r *http.Request) (auth.Actor, bool) {
	sess, err := m.store.Get(r, cookieName)
	if err != nil || sess.IsNew {
		return auth.Actor{}, false
	}
	uid, _ := sess.Values[keyUID].(string)
	role, _ := sess.Values[keyRole].(string)
	if uid == "" {
		return auth.Actor{}, false
	}
	return auth.Actor{ID: uid, Role: role}, true
}

// Middleware attaches the session actor, if any, to the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a, ok := m.Actor(r); ok {
			ctx := auth.WithActor(r.Context(), a)
			ctx = logger.With(ctx, logger.From(ctx).With("actor", a.ID))
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}
