// internal/leads/store.go
//
// Read-mostly access to `leads` (sqlx + MySQL).
//
// The count and the page query share one WHERE builder, so Total always
// counts exactly the rows the page is drawn from.  Sorting is restricted
// to a whitelist and always tie-breaks on `id ASC` for stable paging.
//
// The only writes are the single-field status and notes updates.

package leads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/demosite/internal/metrics"
)

const leadColumns = `id, business_name, address, phone, website, rating, review_count, map_url,
	city, district, state, country, status, notes, location_id, category_id, created_at, updated_at`

// Store reads and writes leads.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewStore returns a Store over db.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }}
}

// where builds the conjunctive predicate for f.  Every query in this file
// goes through it.
func where(f Filters) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		conds = append(conds, cond)
		args = append(args, arg)
	}
	if f.LocationID != nil {
		add("location_id = ?", *f.LocationID)
	}
	if f.CategoryID != nil {
		add("category_id = ?", *f.CategoryID)
	}
	if f.Status != "" {
		add("status = ?", string(f.Status))
	}
	if f.Country != "" {
		add("country = ?", f.Country)
	}
	if f.State != "" {
		add("state = ?", f.State)
	}
	if f.City != "" {
		add("city = ?", f.City)
	}
	if f.District != "" {
		add("district = ?", f.District)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns one page of leads matching q.
func (s *Store) List(ctx context.Context, q Query) (Page, error) {
	q, err := q.normalize()
	if err != nil {
		return Page{}, err
	}
	metrics.LeadQueriesTotal.WithLabelValues("list").Inc()

	w, args := where(q.Filters)

	var total int64
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM leads`+w, args...); err != nil {
		return Page{}, fmt.Errorf("count leads: %w", err)
	}

	order := fmt.Sprintf(" ORDER BY %s %s, id ASC LIMIT ? OFFSET ?",
		sortColumns[q.SortBy], strings.ToUpper(q.SortOrder))
	pageArgs := append(append([]any{}, args...), q.PageSize, (q.Page-1)*q.PageSize)

	rows := []Lead{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+leadColumns+` FROM leads`+w+order, pageArgs...); err != nil {
		return Page{}, fmt.Errorf("list leads: %w", err)
	}
	return Page{Data: rows, Pagination: newPagination(q.Page, q.PageSize, total)}, nil
}

// DistinctLocations returns the option lists for the cascading filters.
// Each list is narrowed by the selected levels above it and by the
// non-location filters; a level's own selection never narrows itself.
func (s *Store) DistinctLocations(ctx context.Context, f Filters) (Locations, error) {
	metrics.LeadQueriesTotal.WithLabelValues("locations").Inc()

	base := f
	base.Country, base.State, base.City, base.District = "", "", "", ""

	countries := base

	states := base
	states.Country = f.Country

	cities := states
	cities.State = f.State

	districts := cities
	districts.City = f.City

	var (
		out Locations
		err error
	)
	if out.Countries, err = s.distinct(ctx, "country", countries); err != nil {
		return Locations{}, err
	}
	if out.States, err = s.distinct(ctx, "state", states); err != nil {
		return Locations{}, err
	}
	if out.Cities, err = s.distinct(ctx, "city", cities); err != nil {
		return Locations{}, err
	}
	if out.Districts, err = s.distinct(ctx, "district", districts); err != nil {
		return Locations{}, err
	}
	return out, nil
}

// distinct lists the non-empty values of col among rows matching f.  col
// is one of the four location columns, never caller input.
func (s *Store) distinct(ctx context.Context, col string, f Filters) ([]string, error) {
	w, args := where(f)
	if w == "" {
		w = " WHERE "
	} else {
		w += " AND "
	}
	q := fmt.Sprintf(`SELECT DISTINCT %[1]s FROM leads%[2]s%[1]s IS NOT NULL AND %[1]s <> '' ORDER BY %[1]s`, col, w)

	vals := []string{}
	if err := s.db.SelectContext(ctx, &vals, q, args...); err != nil {
		return nil, fmt.Errorf("distinct %s: %w", col, err)
	}
	return vals, nil
}

// Get returns lead id.
func (s *Store) Get(ctx context.Context, id int64) (Lead, error) {
	var l Lead
	err := s.db.GetContext(ctx, &l, `SELECT `+leadColumns+` FROM leads WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, fmt.Errorf("get lead %d: %w", id, err)
	}
	return l, nil
}

// UpdateStatus sets the pipeline status of lead id.
func (s *Store) UpdateStatus(ctx context.Context, id int64, st Status) error {
	if !st.Valid() {
		return ErrInvalidStatus
	}
	return s.updateField(ctx, id, "status", string(st))
}

// UpdateNotes replaces the notes of lead id.  Empty notes are stored as
// NULL.
func (s *Store) UpdateNotes(ctx context.Context, id int64, notes string) error {
	var v any
	if n := strings.TrimSpace(notes); n != "" {
		v = n
	}
	return s.updateField(ctx, id, "notes", v)
}

func (s *Store) updateField(ctx context.Context, id int64, col string, v any) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET `+col+` = ?, updated_at = ? WHERE id = ?`, v, s.now(), id)
	if err != nil {
		return fmt.Errorf("update lead %d %s: %w", id, col, err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	// MySQL reports 0 affected rows when nothing changed.
	var one int
	err = s.db.GetContext(ctx, &one, `SELECT 1 FROM leads WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
