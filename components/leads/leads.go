// components/leads/leads.go
//
// Lead directory admin API and the scraper trigger.
//
//   GET   /admin/api/leads                 one page, filtered and sorted
//   GET   /admin/api/leads/locations       cascading location options
//   POST  /admin/api/leads/filters         apply one filter-bar transition
//   PATCH /admin/api/leads/{id}/status     set pipeline status
//   PATCH /admin/api/leads/{id}/notes      replace notes
//   POST  /admin/api/scrape                start a scraper job
//   GET   /admin/api/scrape/status         poll the scraper
//
// Query parameters use the JSON names: page, pageSize, sortBy, sortOrder,
// status, categoryId, locationId, country, state, city, district.
//
//------------------------------------------------------------------------------

package leads

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/demosite/internal/acl"
	"github.com/yanizio/demosite/internal/component"
	ileads "github.com/yanizio/demosite/internal/leads"
	"github.com/yanizio/demosite/internal/scraper"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

type directory interface {
	List(ctx context.Context, q ileads.Query) (ileads.Page, error)
	DistinctLocations(ctx context.Context, f ileads.Filters) (ileads.Locations, error)
	UpdateStatus(ctx context.Context, id int64, st ileads.Status) error
	UpdateNotes(ctx context.Context, id int64, notes string) error
	Get(ctx context.Context, id int64) (ileads.Lead, error)
}

type jobs interface {
	Trigger(ctx context.Context, r scraper.Request) error
	Status(ctx context.Context) (scraper.Status, error)
}

// Component serves the lead directory.
type Component struct {
	leads   directory
	scraper jobs
	acl     acl.Allower
}

func (c *Component) Name() string { return "leads" }

func (c *Component) Init(svc component.Services) error {
	if svc.Leads == nil || svc.Scraper == nil || svc.ACL == nil {
		return errors.New("lead store, scraper client and acl are required")
	}
	c.leads, c.scraper, c.acl = svc.Leads, svc.Scraper, svc.ACL
	return nil
}

func (c *Component) Routes(r chi.Router) {
	need := func(p string) func(http.Handler) http.Handler { return acl.RequirePermission(c.acl, p) }

	r.Route("/admin/api/leads", func(r chi.Router) {
		r.With(need(acl.LeadsView)).Get("/", c.handleList)
		r.With(need(acl.LeadsView)).Get("/locations", c.handleLocations)
		r.With(need(acl.LeadsView)).Post("/filters", c.handleFilters)
		r.With(need(acl.LeadsUpdate)).Patch("/{id}/status", c.handleStatus)
		r.With(need(acl.LeadsUpdate)).Patch("/{id}/notes", c.handleNotes)
	})
	r.With(need(acl.LeadsScrape)).Post("/admin/api/scrape", c.handleScrape)
	r.With(need(acl.LeadsView)).Get("/admin/api/scrape/status", c.handleScrapeStatus)
}

func init() { component.Register(&Component{}) }

/*──────────────────────────── Query parsing ────────────────────────────────*/

// filterFields is the order filters are applied in, broadest first, so the
// cascade never clears a value set by the same request.
var filterFields = []string{
	ileads.FieldLocationID, ileads.FieldCategoryID, ileads.FieldStatus,
	ileads.FieldCountry, ileads.FieldState, ileads.FieldCity, ileads.FieldDistrict,
}

func parseFilters(v url.Values) (ileads.Filters, error) {
	var (
		st  ileads.FilterState
		err error
	)
	for _, f := range filterFields {
		if val := v.Get(f); val != "" {
			if st, err = st.Set(f, val); err != nil {
				return ileads.Filters{}, err
			}
		}
	}
	return st.Filters, nil
}

func parseQuery(v url.Values) (ileads.Query, error) {
	f, err := parseFilters(v)
	if err != nil {
		return ileads.Query{}, err
	}
	q := ileads.Query{Filters: f, SortBy: v.Get("sortBy"), SortOrder: v.Get("sortOrder")}
	if q.Page, err = optInt(v, "page"); err != nil {
		return ileads.Query{}, err
	}
	if q.PageSize, err = optInt(v, "pageSize"); err != nil {
		return ileads.Query{}, err
	}
	return q, nil
}

func optInt(v url.Values, key string) (int, error) {
	s := v.Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New(key + " must be an integer")
	}
	return n, nil
}

func leadID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) handleList(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		component.Fail(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}
	page, err := c.leads.List(r.Context(), q)
	if err != nil {
		c.storeError(w, r, err)
		return
	}
	component.JSON(w, http.StatusOK, page)
}

func (c *Component) handleLocations(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilters(r.URL.Query())
	if err != nil {
		component.Fail(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}
	locs, err := c.leads.DistinctLocations(r.Context(), f)
	if err != nil {
		c.storeError(w, r, err)
		return
	}
	component.JSON(w, http.StatusOK, locs)
}

// handleFilters applies one transition to the posted filter state and
// returns the new state with its option lists.
func (c *Component) handleFilters(w http.ResponseWriter, r *http.Request) {
	var in struct {
		State ileads.Filters `json:"state"`
		Field string         `json:"field"`
		Value string         `json:"value"`
	}
	if err := component.Decode(r, &in); err != nil {
		component.Fail(w, r, http.StatusBadRequest, "malformed request", err)
		return
	}
	if err := in.State.Check(); err != nil {
		component.Invalid(w, map[string]string{"state.status": err.Error()})
		return
	}
	next, err := ileads.FilterState{Filters: in.State}.Set(in.Field, in.Value)
	if err != nil {
		component.Invalid(w, map[string]string{in.Field: err.Error()})
		return
	}
	locs, err := c.leads.DistinctLocations(r.Context(), next.Filters)
	if err != nil {
		c.storeError(w, r, err)
		return
	}
	component.JSON(w, http.StatusOK, map[string]any{"state": next.Filters, "options": locs})
}

func (c *Component) handleStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	var in struct {
		Status ileads.Status `json:"status"`
	}
	if err := component.Decode(r, &in); err != nil {
		component.Fail(w, r, http.StatusBadRequest, "malformed request", err)
		return
	}
	if !in.Status.Valid() {
		component.Invalid(w, map[string]string{"status": "unknown status"})
		return
	}
	if err := c.leads.UpdateStatus(r.Context(), id, in.Status); err != nil {
		c.storeError(w, r, err)
		return
	}
	c.writeLead(w, r, id)
}

func (c *Component) handleNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	var in struct {
		Notes *string `json:"notes"`
	}
	if err := component.Decode(r, &in); err != nil {
		component.Fail(w, r, http.StatusBadRequest, "malformed request", err)
		return
	}
	if in.Notes == nil {
		component.Invalid(w, map[string]string{"notes": "is required"})
		return
	}
	if err := c.leads.UpdateNotes(r.Context(), id, *in.Notes); err != nil {
		c.storeError(w, r, err)
		return
	}
	c.writeLead(w, r, id)
}

func (c *Component) writeLead(w http.ResponseWriter, r *http.Request, id int64) {
	l, err := c.leads.Get(r.Context(), id)
	if err != nil {
		c.storeError(w, r, err)
		return
	}
	component.JSON(w, http.StatusOK, l)
}

func (c *Component) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req scraper.Request
	if err := component.Decode(r, &req); err != nil {
		component.Fail(w, r, http.StatusBadRequest, "malformed request", err)
		return
	}
	err := c.scraper.Trigger(r.Context(), req)
	switch {
	case err == nil:
		component.JSON(w, http.StatusAccepted, map[string]bool{"success": true})
	case errors.Is(err, scraper.ErrInvalidRequest):
		component.Fail(w, r, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, scraper.ErrUpstreamUnavailable):
		component.Fail(w, r, http.StatusBadGateway, "scraper unavailable", err)
	default:
		component.Fail(w, r, http.StatusInternalServerError, "something went wrong", err)
	}
}

func (c *Component) handleScrapeStatus(w http.ResponseWriter, r *http.Request) {
	st, err := c.scraper.Status(r.Context())
	if err != nil {
		component.Fail(w, r, http.StatusBadGateway, "scraper unavailable", err)
		return
	}
	component.JSON(w, http.StatusOK, st)
}

func (c *Component) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ileads.ErrNotFound):
		component.Fail(w, r, http.StatusNotFound, "lead not found", err)
	case errors.Is(err, ileads.ErrInvalidQuery), errors.Is(err, ileads.ErrInvalidStatus):
		component.Fail(w, r, http.StatusBadRequest, err.Error(), err)
	default:
		component.Fail(w, r, http.StatusInternalServerError, "something went wrong", err)
	}
}
