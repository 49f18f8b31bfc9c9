package demosite

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/demosite/internal/acl"
	"github.com/yanizio/demosite/internal/auth"
	"github.com/yanizio/demosite/internal/demosite"
)

type fakeSites struct {
	byID    map[string]demosite.DemoSite
	created []demosite.Submission
	patched []demosite.Patch
	err     error
}

func (f *fakeSites) find(id string) (demosite.DemoSite, error) {
	if f.err != nil {
		return demosite.DemoSite{}, f.err
	}
	d, ok := f.byID[id]
	if !ok {
		return demosite.DemoSite{}, demosite.ErrNotFound
	}
	return d, nil
}

func (f *fakeSites) Create(_ context.Context, a auth.Actor, sub demosite.Submission) (demosite.DemoSite, error) {
	if f.err != nil {
		return demosite.DemoSite{}, f.err
	}
	f.created = append(f.created, sub)
	return demosite.DemoSite{ID: "new", Slug: sub.Slug, TemplateID: sub.TemplateID, AuthorID: a.ID, Config: sub.Config}, nil
}

func (f *fakeSites) Update(_ context.Context, id string, _ auth.Actor, p demosite.Patch) (demosite.DemoSite, error) {
	d, err := f.find(id)
	if err != nil {
		return d, err
	}
	f.patched = append(f.patched, p)
	p.Apply(&d)
	return d, nil
}

func (f *fakeSites) SetPublished(_ context.Context, id string, _ auth.Actor, pub bool) (demosite.DemoSite, error) {
	d, err := f.find(id)
	d.IsPublished = pub
	return d, err
}

func (f *fakeSites) Delete(_ context.Context, id string, _ auth.Actor) error {
	_, err := f.find(id)
	return err
}

func (f *fakeSites) Get(_ context.Context, id string) (demosite.DemoSite, error) { return f.find(id) }

func (f *fakeSites) List(context.Context) ([]demosite.Listed, error) { return nil, f.err }

func (f *fakeSites) Published(_ context.Context, slug string) (demosite.DemoSite, error) {
	for _, d := range f.byID {
		if d.Slug == slug && d.IsPublished {
			return d, nil
		}
	}
	return demosite.DemoSite{}, demosite.ErrNotFound
}

// allowAll grants every permission to "admin" and nothing to other roles.
type allowAll struct{}

func (allowAll) RoleAllowed(_ context.Context, role, _ string) (bool, error) {
	return role == auth.RoleAdmin, nil
}

func newRouter(f *fakeSites) http.Handler {
	c := &Component{sites: f, acl: allowAll{}, defaultLocale: "en"}
	r := chi.NewRouter()
	c.Routes(r)
	return r
}

func do(h http.Handler, method, path, body string, actor *auth.Actor) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if actor != nil {
		req = req.WithContext(auth.WithActor(req.Context(), *actor))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

var admin = &auth.Actor{ID: "u-1", Role: auth.RoleAdmin}

func seeded() *fakeSites {
	return &fakeSites{byID: map[string]demosite.DemoSite{
		"s1": {ID: "s1", Slug: "bali-tours", TemplateID: "tour", IsPublished: true,
			Config: demosite.Config{Hero: demosite.Hero{Title: "Bali Escapes"}}},
		"s2": {ID: "s2", Slug: "draft-site", TemplateID: "car"},
		"s3": {ID: "s3", Slug: "broken", TemplateID: "spaceship", IsPublished: true},
	}}
}

func TestPublicPage(t *testing.T) {
	h := newRouter(seeded())

	rec := do(h, http.MethodGet, "/en/demo/bali-tours", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Bali Escapes") || !strings.Contains(body, `lang="en"`) {
		t.Fatalf("body = %s", body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type = %q", ct)
	}

	for path, want := range map[string]int{
		"/en/demo/draft-site": http.StatusNotFound,
		"/en/demo/missing":    http.StatusNotFound,
		"/english/demo/x":     http.StatusNotFound,
		"/en/demo/broken":     http.StatusInternalServerError,
	} {
		if rec := do(h, http.MethodGet, path, "", nil); rec.Code != want {
			t.Errorf("%s = %d, want %d", path, rec.Code, want)
		}
	}
}

func TestLocaleRedirect(t *testing.T) {
	h := newRouter(seeded())

	req := httptest.NewRequest(http.MethodGet, "/demo/bali-tours?ref=mail", nil)
	req.Header.Set("Accept-Language", "id-ID,id;q=0.9,en;q=0.8")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/id/demo/bali-tours?ref=mail" {
		t.Fatalf("redirect = %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = do(h, http.MethodGet, "/demo/bali-tours", "", nil)
	if rec.Header().Get("Location") != "/en/demo/bali-tours" {
		t.Fatalf("default redirect = %q", rec.Header().Get("Location"))
	}
}

func TestAdminRequiresPermission(t *testing.T) {
	h := newRouter(seeded())
	if rec := do(h, http.MethodGet, "/admin/api/demo-sites", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous = %d", rec.Code)
	}
	viewer := &auth.Actor{ID: "u-2", Role: "viewer"}
	if rec := do(h, http.MethodDelete, "/admin/api/demo-sites/s1", "", viewer); rec.Code != http.StatusForbidden {
		t.Fatalf("viewer delete = %d", rec.Code)
	}
}

func TestCreate(t *testing.T) {
	f := seeded()
	h := newRouter(f)

	rec := do(h, http.MethodPost, "/admin/api/demo-sites",
		`{"slug":"  amalfi-drives ","templateId":"car","hero":{"title":"Amalfi"}}`, admin)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rec.Code, rec.Body.String())
	}
	var got demosite.DemoSite
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Slug != "amalfi-drives" || got.AuthorID != "u-1" {
		t.Fatalf("created = %+v", got)
	}

	rec = do(h, http.MethodPost, "/admin/api/demo-sites", `{"slug":"Bad Slug","templateId":"boat"}`, admin)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid = %d", rec.Code)
	}
	var inv struct {
		Fields map[string]string `json:"fields"`
	}
	_ = json.NewDecoder(rec.Body).Decode(&inv)
	if inv.Fields["slug"] == "" || inv.Fields["templateId"] == "" {
		t.Fatalf("fields = %v", inv.Fields)
	}
	if len(f.created) != 1 {
		t.Fatalf("store reached with invalid input: %d", len(f.created))
	}
}

func TestCreateSlugConflict(t *testing.T) {
	f := seeded()
	f.err = demosite.ErrSlugConflict
	rec := do(newRouter(f), http.MethodPost, "/admin/api/demo-sites", `{"slug":"bali-tours","templateId":"tour"}`, admin)
	if rec.Code != http.StatusConflict || !strings.Contains(rec.Body.String(), `"slug"`) {
		t.Fatalf("conflict = %d %s", rec.Code, rec.Body.String())
	}
}

func TestUpdate(t *testing.T) {
	f := seeded()
	h := newRouter(f)

	rec := do(h, http.MethodPatch, "/admin/api/demo-sites/s2", `{"hero":{"title":"New"}}`, admin)
	if rec.Code != http.StatusOK || len(f.patched) != 1 || f.patched[0].Slug != nil {
		t.Fatalf("patch = %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(h, http.MethodPatch, "/admin/api/demo-sites/s2", `{}`, admin); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty patch = %d", rec.Code)
	}
	if rec := do(h, http.MethodPatch, "/admin/api/demo-sites/nope", `{"slug":"abc"}`, admin); rec.Code != http.StatusNotFound {
		t.Fatalf("missing = %d", rec.Code)
	}
}

func TestServiceErrorsMapToStatus(t *testing.T) {
	for err, want := range map[error]int{
		demosite.ErrForbidden:  http.StatusForbidden,
		demosite.ErrNotFound:   http.StatusNotFound,
		errors.New("deadlock"): http.StatusInternalServerError,
	} {
		f := seeded()
		f.err = err
		rec := do(newRouter(f), http.MethodDelete, "/admin/api/demo-sites/s1", "", admin)
		if rec.Code != want {
			t.Errorf("%v: status = %d, want %d", err, rec.Code, want)
		}
		if want == http.StatusInternalServerError && strings.Contains(rec.Body.String(), "deadlock") {
			t.Errorf("internal error leaked: %s", rec.Body.String())
		}
	}
}

func TestPublishAndDelete(t *testing.T) {
	h := newRouter(seeded())

	rec := do(h, http.MethodPost, "/admin/api/demo-sites/s2/publish", `{"isPublished":true}`, admin)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"isPublished":true`) {
		t.Fatalf("publish = %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(h, http.MethodPost, "/admin/api/demo-sites/s2/publish", `{}`, admin); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("publish without flag = %d", rec.Code)
	}
	if rec := do(h, http.MethodDelete, "/admin/api/demo-sites/s1", "", admin); rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", rec.Code)
	}
}

func TestListAndTemplates(t *testing.T) {
	h := newRouter(seeded())

	rec := do(h, http.MethodGet, "/admin/api/demo-sites", "", admin)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"data":[]}` {
		t.Fatalf("list = %d %s", rec.Code, rec.Body.String())
	}
	rec = do(h, http.MethodGet, "/admin/api/templates", "", admin)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "tour") {
		t.Fatalf("templates = %d %s", rec.Code, rec.Body.String())
	}
}

func TestAdminViewRendersUnpublished(t *testing.T) {
	rec := do(newRouter(seeded()), http.MethodGet, "/admin/demo-sites/s2/view", "", admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("view = %d", rec.Code)
	}
	if rec.Header().Get("X-Robots-Tag") == "" || !strings.Contains(rec.Body.String(), `name="robots"`) {
		t.Fatalf("view not marked noindex: %v", rec.Header())
	}
}

var _ acl.Allower = allowAll{}
