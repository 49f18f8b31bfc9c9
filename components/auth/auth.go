// components/auth/auth.go
//
// Admin login and logout.
//
// POST /admin/login takes {email, password}, checks it against the bcrypt
// hash in `users`, and issues the signed session cookie.  A wrong email and
// a wrong password produce the same 401 so accounts cannot be probed.
//
//------------------------------------------------------------------------------

package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/demosite/internal/acl"
	iauth "github.com/yanizio/demosite/internal/auth"
	"github.com/yanizio/demosite/internal/component"
	"github.com/yanizio/demosite/internal/logger"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

type authenticator interface {
	Authenticate(ctx context.Context, email, password string) (iauth.User, error)
}

type sessions interface {
	Login(w http.ResponseWriter, r *http.Request, a iauth.Actor) error
	Logout(w http.ResponseWriter, r *http.Request) error
}

// Component encapsulates login functionality.
type Component struct {
	users    authenticator
	sessions sessions
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "auth" }

// Init picks the user store and session manager.
func (c *Component) Init(svc component.Services) error {
	if svc.Users == nil || svc.Sessions == nil {
		return errors.New("users and sessions are required")
	}
	c.users, c.sessions = svc.Users, svc.Sessions
	return nil
}

// Routes adds the login endpoints.
func (c *Component) Routes(r chi.Router) {
	r.Post("/admin/login", c.handleLogin)
	r.Post("/admin/logout", c.handleLogout)
	r.With(acl.RequireAuth).Get("/admin/api/me", c.handleMe)
}

// Register component at program start.
func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Component) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := component.Decode(r, &in); err != nil {
		component.Fail(w, r, http.StatusBadRequest, "malformed request", err)
		return
	}
	missing := map[string]string{}
	if in.Email == "" {
		missing["email"] = "is required"
	}
	if in.Password == "" {
		missing["password"] = "is required"
	}
	if len(missing) > 0 {
		component.Invalid(w, missing)
		return
	}

	u, err := c.users.Authenticate(r.Context(), in.Email, in.Password)
	switch {
	case errors.Is(err, iauth.ErrInvalidCredentials):
		logger.From(r.Context()).Infow("login rejected", "email", in.Email)
		component.Fail(w, r, http.StatusUnauthorized, "incorrect email or password", nil)
		return
	case err != nil:
		component.Fail(w, r, http.StatusInternalServerError, "login failed", err)
		return
	}

	if err := c.sessions.Login(w, r, u.Actor()); err != nil {
		component.Fail(w, r, http.StatusInternalServerError, "login failed", err)
		return
	}
	logger.From(r.Context()).Infow("login", "user", u.ID, "role", u.Role)
	component.JSON(w, http.StatusOK, map[string]any{"user": u})
}

func (c *Component) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := c.sessions.Logout(w, r); err != nil {
		component.Fail(w, r, http.StatusInternalServerError, "logout failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *Component) handleMe(w http.ResponseWriter, r *http.Request) {
	a, _ := iauth.ActorFrom(r.Context())
	component.JSON(w, http.StatusOK, map[string]string{"id": a.ID, "role": a.Role})
}
