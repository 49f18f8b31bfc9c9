package leads

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/demosite/internal/auth"
	ileads "github.com/yanizio/demosite/internal/leads"
	"github.com/yanizio/demosite/internal/scraper"
)

type fakeDirectory struct {
	lastQuery   ileads.Query
	lastFilters ileads.Filters
	status      map[int64]ileads.Status
	notes       map[int64]string
}

func (f *fakeDirectory) List(_ context.Context, q ileads.Query) (ileads.Page, error) {
	f.lastQuery = q
	if q.SortBy == "phone" {
		return ileads.Page{}, fmt.Errorf("%w: unknown sort key", ileads.ErrInvalidQuery)
	}
	return ileads.Page{Data: []ileads.Lead{}, Pagination: ileads.Pagination{Page: 1, PageSize: 20}}, nil
}

func (f *fakeDirectory) DistinctLocations(_ context.Context, fl ileads.Filters) (ileads.Locations, error) {
	f.lastFilters = fl
	return ileads.Locations{Countries: []string{"Indonesia"}, States: []string{}, Cities: []string{}, Districts: []string{}}, nil
}

func (f *fakeDirectory) UpdateStatus(_ context.Context, id int64, st ileads.Status) error {
	if id == 404 {
		return ileads.ErrNotFound
	}
	f.status[id] = st
	return nil
}

func (f *fakeDirectory) UpdateNotes(_ context.Context, id int64, notes string) error {
	f.notes[id] = notes
	return nil
}

func (f *fakeDirectory) Get(_ context.Context, id int64) (ileads.Lead, error) {
	return ileads.Lead{ID: id, BusinessName: "Warung Bali", Status: f.status[id]}, nil
}

type fakeScraper struct {
	err  error
	reqs []scraper.Request
}

func (f *fakeScraper) Trigger(_ context.Context, r scraper.Request) error {
	if err := r.Validate(); err != nil {
		return err
	}
	f.reqs = append(f.reqs, r)
	return f.err
}

func (f *fakeScraper) Status(context.Context) (scraper.Status, error) {
	return scraper.Status{Active: true, Processed: 3}, f.err
}

type permits map[string]bool

func (p permits) RoleAllowed(_ context.Context, _, perm string) (bool, error) { return p[perm], nil }

func setup(p permits) (http.Handler, *fakeDirectory, *fakeScraper) {
	dir := &fakeDirectory{status: map[int64]ileads.Status{}, notes: map[int64]string{}}
	sc := &fakeScraper{}
	c := &Component{leads: dir, scraper: sc, acl: p}
	r := chi.NewRouter()
	c.Routes(r)
	return r, dir, sc
}

var all = permits{"LEADS_VIEW": true, "LEADS_UPDATE": true, "LEADS_SCRAPE": true}

func send(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(auth.WithActor(req.Context(), auth.Actor{ID: "u-1", Role: "sales"}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestListParsesQuery(t *testing.T) {
	h, dir, _ := setup(all)

	rec := send(h, http.MethodGet,
		"/admin/api/leads?page=2&pageSize=50&sortBy=rating&sortOrder=asc&status=new&categoryId=7&country=Indonesia&state=Bali", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list = %d %s", rec.Code, rec.Body.String())
	}
	q := dir.lastQuery
	if q.Page != 2 || q.PageSize != 50 || q.SortBy != "rating" || q.SortOrder != "asc" {
		t.Fatalf("query = %+v", q)
	}
	if q.Status != ileads.StatusNew || q.CategoryID == nil || *q.CategoryID != 7 || q.Country != "Indonesia" || q.State != "Bali" {
		t.Fatalf("filters = %+v", q.Filters)
	}
	if !strings.Contains(rec.Body.String(), `"pagination"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestListRejectsBadParams(t *testing.T) {
	h, _, _ := setup(all)
	for _, qs := range []string{"page=two", "status=pending", "categoryId=x", "sortBy=phone"} {
		if rec := send(h, http.MethodGet, "/admin/api/leads?"+qs, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s = %d", qs, rec.Code)
		}
	}
}

func TestLocations(t *testing.T) {
	h, dir, _ := setup(all)
	rec := send(h, http.MethodGet, "/admin/api/leads/locations?country=Indonesia&city=Ubud", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"countries":["Indonesia"]`) {
		t.Fatalf("locations = %d %s", rec.Code, rec.Body.String())
	}
	if dir.lastFilters.Country != "Indonesia" || dir.lastFilters.City != "Ubud" {
		t.Fatalf("filters = %+v", dir.lastFilters)
	}
}

func TestFilterTransition(t *testing.T) {
	h, dir, _ := setup(all)
	rec := send(h, http.MethodPost, "/admin/api/leads/filters",
		`{"state":{"country":"Indonesia","state":"Bali","city":"Ubud","status":"new"},"field":"country","value":"Thailand"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("filters = %d %s", rec.Code, rec.Body.String())
	}
	var out struct {
		State   ileads.Filters   `json:"state"`
		Options ileads.Locations `json:"options"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	want := ileads.Filters{Country: "Thailand", Status: ileads.StatusNew}
	if out.State != want || dir.lastFilters != want {
		t.Fatalf("state = %+v, queried %+v", out.State, dir.lastFilters)
	}
	if len(out.Options.Countries) != 1 {
		t.Fatalf("options = %+v", out.Options)
	}

	if rec := send(h, http.MethodPost, "/admin/api/leads/filters", `{"field":"planet","value":"Mars"}`); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown field = %d", rec.Code)
	}

	dir.lastFilters = ileads.Filters{}
	rec = send(h, http.MethodPost, "/admin/api/leads/filters", `{"state":{"status":"archived"},"field":"city","value":"Ubud"}`)
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), `"state.status"`) {
		t.Fatalf("bad state status = %d %s", rec.Code, rec.Body.String())
	}
	if dir.lastFilters != (ileads.Filters{}) {
		t.Fatalf("store queried with %+v", dir.lastFilters)
	}
}

func TestStatusAndNotes(t *testing.T) {
	h, dir, _ := setup(all)

	rec := send(h, http.MethodPatch, "/admin/api/leads/5/status", `{"status":"qualified"}`)
	if rec.Code != http.StatusOK || dir.status[5] != ileads.StatusQualified || !strings.Contains(rec.Body.String(), `"qualified"`) {
		t.Fatalf("status = %d %s", rec.Code, rec.Body.String())
	}
	if rec := send(h, http.MethodPatch, "/admin/api/leads/5/status", `{"status":"archived"}`); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad status = %d", rec.Code)
	}
	if rec := send(h, http.MethodPatch, "/admin/api/leads/404/status", `{"status":"lost"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("missing lead = %d", rec.Code)
	}
	if rec := send(h, http.MethodPatch, "/admin/api/leads/abc/status", `{"status":"lost"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("bad id = %d", rec.Code)
	}

	if rec := send(h, http.MethodPatch, "/admin/api/leads/5/notes", `{"notes":"call back"}`); rec.Code != http.StatusOK || dir.notes[5] != "call back" {
		t.Fatalf("notes = %d", rec.Code)
	}
	if rec := send(h, http.MethodPatch, "/admin/api/leads/5/notes", `{}`); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("missing notes = %d", rec.Code)
	}
}

func TestWritesNeedUpdatePermission(t *testing.T) {
	h, dir, _ := setup(permits{"LEADS_VIEW": true})
	if rec := send(h, http.MethodPatch, "/admin/api/leads/5/status", `{"status":"lost"}`); rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(dir.status) != 0 {
		t.Fatal("write went through without permission")
	}
}

func TestScrape(t *testing.T) {
	h, _, sc := setup(all)

	rec := send(h, http.MethodPost, "/admin/api/scrape", `{"locationId":3,"categoryId":1}`)
	if rec.Code != http.StatusAccepted || len(sc.reqs) != 1 || *sc.reqs[0].LocationID != 3 {
		t.Fatalf("scrape = %d %s", rec.Code, rec.Body.String())
	}
	if rec := send(h, http.MethodPost, "/admin/api/scrape", `{"categoryId":1}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("no target = %d", rec.Code)
	}

	sc.err = fmt.Errorf("%w: HTTP 503", scraper.ErrUpstreamUnavailable)
	if rec := send(h, http.MethodPost, "/admin/api/scrape", `{"locationId":3,"categoryId":1}`); rec.Code != http.StatusBadGateway {
		t.Fatalf("upstream down = %d", rec.Code)
	}
	if rec := send(h, http.MethodGet, "/admin/api/scrape/status", ""); rec.Code != http.StatusBadGateway {
		t.Fatalf("status upstream down = %d", rec.Code)
	}

	sc.err = nil
	rec = send(h, http.MethodGet, "/admin/api/scrape/status", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"active":true`) {
		t.Fatalf("status = %d %s", rec.Code, rec.Body.String())
	}
}
