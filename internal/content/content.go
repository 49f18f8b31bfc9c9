// Package content reads blog posts and portfolio projects for preview.
//
// Editing these lives in the CMS; this package only resolves the rows a
// preview token points at, published or not.
package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("content not found")

// Post is one row of `posts`.
type Post struct {
	ID        int64     `db:"id"         json:"id"`
	Slug      string    `db:"slug"       json:"slug"`
	Title     string    `db:"title"      json:"title"`
	Excerpt   *string   `db:"excerpt"    json:"excerpt"`
	Body      string    `db:"body"       json:"body"`
	Cover     *string   `db:"cover"      json:"cover"`
	Published bool      `db:"published"  json:"published"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Project is one row of `projects`.
type Project struct {
	ID        int64     `db:"id"         json:"id"`
	Slug      string    `db:"slug"       json:"slug"`
	Title     string    `db:"title"      json:"title"`
	Client    *string   `db:"client"     json:"client"`
	Summary   *string   `db:"summary"    json:"summary"`
	Body      string    `db:"body"       json:"body"`
	Cover     *string   `db:"cover"      json:"cover"`
	Published bool      `db:"published"  json:"published"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Store reads posts and projects.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

// GetPost returns post id.  id is the decimal primary key as carried by a
// preview token.
func (s *Store) GetPost(ctx context.Context, id string) (Post, error) {
	var p Post
	err := s.get(ctx, &p, `SELECT id, slug, title, excerpt, body, cover, published, created_at, updated_at
	                         FROM posts WHERE id = ?`, "post", id)
	return p, err
}

// GetProject returns project id.
func (s *Store) GetProject(ctx context.Context, id string) (Project, error) {
	var p Project
	err := s.get(ctx, &p, `SELECT id, slug, title, client, summary, body, cover, published, created_at, updated_at
	                         FROM projects WHERE id = ?`, "project", id)
	return p, err
}

func (s *Store) get(ctx context.Context, dst any, q, kind, id string) error {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
	}
	err = s.db.GetContext(ctx, dst, q, n)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", kind, n, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get %s %d: %w", kind, n, err)
	}
	return nil
}
