// internal/acl/store.go
//
// Query helpers for role-based access control.
//
// Context
// -------
// Every user carries exactly one role name (`users.role`).  Permissions are
// granted per role in one table:
//
//	role_acl (role, permission, permitted)
//
// Middleware asks one question: is role R permitted permission P?  The
// answer is read on every request so role changes apply immediately.
package acl

import (
	"context"
	"database/sql"
	"errors"
)

// Permission names checked by the admin routes.
const (
	DemoSitesView   = "DEMO_SITES_VIEW"
	DemoSitesCreate = "DEMO_SITES_CREATE"
	DemoSitesUpdate = "DEMO_SITES_UPDATE"
	DemoSitesDelete = "DEMO_SITES_DELETE"
	PreviewCreate   = "PREVIEW_CREATE"
	LeadsView       = "LEADS_VIEW"
	LeadsUpdate     = "LEADS_UPDATE"
	LeadsScrape     = "LEADS_SCRAPE"
)

// Allower answers permission checks.  *Store is the production
// implementation.
type Allower interface {
	RoleAllowed(ctx context.Context, role, permission string) (bool, error)
}

// Store reads role_acl.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// RoleAllowed reports whether role holds permission.  An empty role is
// never allowed.
func (s *Store) RoleAllowed(ctx context.Context, role, permission string) (bool, error) {
	if role == "" {
		return false, nil
	}
	const q = `SELECT 1
	             FROM role_acl
	            WHERE role = ?
	              AND permission = ?
	              AND permitted = TRUE
	            LIMIT 1`

	var hit int
	err := s.db.QueryRowContext(ctx, q, role, permission).Scan(&hit)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Permissions lists every permission granted to role, for the admin UI.
func (s *Store) Permissions(ctx context.Context, role string) ([]string, error) {
	const q = `SELECT permission FROM role_acl WHERE role = ? AND permitted = TRUE ORDER BY permission`

	rows, err := s.db.QueryContext(ctx, q, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	perms := make([]string, 0, 8)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
