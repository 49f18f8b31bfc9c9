// internal/auth/context.go
//
// Request actor helpers.
//
// Usage
// -----
//
//	// session middleware, after loading the cookie:
//	ctx = auth.WithActor(ctx, auth.Actor{ID: uid, Role: "editor"})
//
//	// downstream:
//	a, ok := auth.ActorFrom(ctx)
//
// Notes
// -----
// • The actor is re-read from the session on every request; ownership and
//   role decisions are never cached across requests.

package auth

import "context"

// RoleAdmin may act on any record regardless of ownership.
const RoleAdmin = "admin"

// Actor is the authenticated user behind a request.
type Actor struct {
	ID   string
	Role string
}

// IsAdmin reports whether a holds the administrative role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanModify reports whether a may mutate a record owned by ownerID.
func (a Actor) CanModify(ownerID string) bool {
	return a.IsAdmin() || (a.ID != "" && a.ID == ownerID)
}

// actorKey is unexported to avoid context-key collisions.
type actorKey struct{}

// WithActor returns a child context carrying a.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom extracts the actor, ok == false for anonymous requests.
func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok && a.ID != ""
}
