// internal/demosite/store.go
//
// Demo-site persistence (sqlx + MySQL).
//
// Context
// -------
// Every mutation is one transaction.  Update and Delete re-read the
// current `author_id` with SELECT … FOR UPDATE inside that transaction and
// authorize against it, so ownership is never taken from a stale form or
// cache.  Slug uniqueness is enforced by `uq_demo_sites_slug`; a duplicate
// key surfaces as ErrSlugConflict.
//
// Authorization
// -------------
//   - admin:      may act on any row; a missing row is ErrNotFound.
//   - non-admin:  may act only on own rows; missing and not-yours are both
//                 ErrForbidden so existence does not leak.

package demosite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/demosite/internal/auth"
	"github.com/yanizio/demosite/internal/database"
)

const siteColumns = `id, slug, template_id, is_published, config, author_id, created_at, updated_at`

// Store reads and writes demo_sites.
type Store struct {
	db    *sqlx.DB
	now   func() time.Time
	newID func() string
}

// NewStore returns a Store over db.
func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db:    db,
		now:   func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		newID: uuid.NewString,
	}
}

// Create inserts a new site owned by authorID.
func (s *Store) Create(ctx context.Context, authorID string, sub Submission) (DemoSite, error) {
	if authorID == "" {
		return DemoSite{}, ErrForbidden
	}
	now := s.now()
	d := DemoSite{
		ID:          s.newID(),
		Slug:        sub.Slug,
		TemplateID:  sub.TemplateID,
		IsPublished: sub.IsPublished,
		Config:      sub.Config,
		AuthorID:    authorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO demo_sites (`+siteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ID, d.Slug, d.TemplateID, d.IsPublished, d.Config, d.AuthorID, d.CreatedAt, d.UpdatedAt)
		return err
	})
	if err != nil {
		return DemoSite{}, s.mapWriteErr("create", err)
	}
	return d, nil
}

// Update applies p to the site id on behalf of actor.
func (s *Store) Update(ctx context.Context, id string, actor auth.Actor, p Patch) (DemoSite, error) {
	var out DemoSite
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		cur, err := lockSite(ctx, tx, id, actor)
		if err != nil {
			return err
		}
		p.Apply(&cur)
		cur.UpdatedAt = s.now()

		_, err = tx.ExecContext(ctx,
			`UPDATE demo_sites
			    SET slug = ?, template_id = ?, is_published = ?, config = ?, updated_at = ?
			  WHERE id = ?`,
			cur.Slug, cur.TemplateID, cur.IsPublished, cur.Config, cur.UpdatedAt, cur.ID)
		if err != nil {
			return err
		}
		out = cur
		return nil
	})
	if err != nil {
		return DemoSite{}, s.mapWriteErr("update", err)
	}
	return out, nil
}

// Delete removes the site id on behalf of actor.
func (s *Store) Delete(ctx context.Context, id string, actor auth.Actor) error {
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := lockSite(ctx, tx, id, actor); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM demo_sites WHERE id = ?`, id)
		return err
	})
	if err != nil {
		return s.mapWriteErr("delete", err)
	}
	return nil
}

// GetByID returns the site id regardless of publish state.
func (s *Store) GetByID(ctx context.Context, id string) (DemoSite, error) {
	var d DemoSite
	err := s.db.GetContext(ctx, &d, `SELECT `+siteColumns+` FROM demo_sites WHERE id = ?`, id)
	return d, mapReadErr(err)
}

// GetBySlug returns the site with slug.  Unpublished sites are returned
// only when includeUnpublished is set (admin context).
func (s *Store) GetBySlug(ctx context.Context, slug string, includeUnpublished bool) (DemoSite, error) {
	q := `SELECT ` + siteColumns + ` FROM demo_sites WHERE slug = ?`
	if !includeUnpublished {
		q += ` AND is_published = TRUE`
	}
	var d DemoSite
	err := s.db.GetContext(ctx, &d, q, slug)
	return d, mapReadErr(err)
}

// List returns every site, most recently updated first, with its author.
func (s *Store) List(ctx context.Context) ([]Listed, error) {
	const q = `SELECT d.id, d.slug, d.template_id, d.is_published, d.config, d.author_id,
	                  d.created_at, d.updated_at,
	                  u.id AS "author.id", u.name AS "author.name", u.email AS "author.email"
	             FROM demo_sites d
	             JOIN users u ON u.id = d.author_id
	            ORDER BY d.updated_at DESC, d.id ASC`
	out := []Listed{}
	if err := s.db.SelectContext(ctx, &out, q); err != nil {
		return nil, fmt.Errorf("list demo sites: %w", err)
	}
	return out, nil
}

//
// helpers
//

// lockSite reads the current row FOR UPDATE and authorizes actor against
// its persisted author.
func lockSite(ctx context.Context, tx *sqlx.Tx, id string, actor auth.Actor) (DemoSite, error) {
	var cur DemoSite
	err := tx.GetContext(ctx, &cur,
		`SELECT `+siteColumns+` FROM demo_sites WHERE id = ? FOR UPDATE`, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if actor.IsAdmin() {
			return DemoSite{}, ErrNotFound
		}
		return DemoSite{}, ErrForbidden
	case err != nil:
		return DemoSite{}, err
	case !actor.CanModify(cur.AuthorID):
		return DemoSite{}, ErrForbidden
	}
	return cur, nil
}

func (s *Store) inTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Store) mapWriteErr(op string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden):
		return err
	case database.IsDuplicate(err):
		return ErrSlugConflict
	default:
		return fmt.Errorf("%s demo site: %w", op, err)
	}
}

func mapReadErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
