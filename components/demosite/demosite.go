// components/demosite/demosite.go
//
// Demo-site pages and admin API.
//
// Public
//   GET  /{locale}/demo/{slug}             published site, served from cache
//   GET  /demo/{slug}                      302 to the visitor's language
//
// Admin (session + role permission)
//   GET    /admin/api/templates            registry for the admin form
//   GET    /admin/api/demo-sites           list with author summary
//   POST   /admin/api/demo-sites           create
//   GET    /admin/api/demo-sites/{id}      read one
//   PATCH  /admin/api/demo-sites/{id}      partial update
//   DELETE /admin/api/demo-sites/{id}      delete
//   POST   /admin/api/demo-sites/{id}/publish
//   GET    /admin/demo-sites/{id}/view     render any site, published or not
//
// Store errors map to 403, 404 and 409.  Anything else is a 500 with a
// generic message; the detail goes to the request log.
//
//------------------------------------------------------------------------------

package demosite

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/demosite/internal/acl"
	"github.com/yanizio/demosite/internal/auth"
	"github.com/yanizio/demosite/internal/catalog"
	"github.com/yanizio/demosite/internal/component"
	"github.com/yanizio/demosite/internal/demosite"
	"github.com/yanizio/demosite/internal/logger"
	"github.com/yanizio/demosite/internal/middleware"
	"github.com/yanizio/demosite/internal/render"
	"github.com/yanizio/demosite/internal/requestinfo"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// sites is the part of *demosite.Service this component calls.
type sites interface {
	Create(ctx context.Context, actor auth.Actor, sub demosite.Submission) (demosite.DemoSite, error)
	Update(ctx context.Context, id string, actor auth.Actor, p demosite.Patch) (demosite.DemoSite, error)
	SetPublished(ctx context.Context, id string, actor auth.Actor, published bool) (demosite.DemoSite, error)
	Delete(ctx context.Context, id string, actor auth.Actor) error
	Get(ctx context.Context, id string) (demosite.DemoSite, error)
	List(ctx context.Context) ([]demosite.Listed, error)
	Published(ctx context.Context, slug string) (demosite.DemoSite, error)
}

// Component serves demo sites.
type Component struct {
	sites         sites
	acl           acl.Allower
	defaultLocale string
}

func (c *Component) Name() string { return "demosite" }

func (c *Component) Init(svc component.Services) error {
	if svc.DemoSites == nil || svc.ACL == nil {
		return errors.New("demo-site service and acl are required")
	}
	c.sites, c.acl = svc.DemoSites, svc.ACL
	c.defaultLocale = "en"
	if svc.Config != nil && svc.Config.HTTP.DefaultLocale != "" {
		c.defaultLocale = svc.Config.HTTP.DefaultLocale
	}
	return nil
}

func (c *Component) Routes(r chi.Router) {
	r.Get("/{locale}/demo/{slug}", c.handlePublic)
	r.Get("/demo/{slug}", c.handleLocaleRedirect)

	need := func(p string) func(http.Handler) http.Handler { return acl.RequirePermission(c.acl, p) }

	r.With(need(acl.DemoSitesView)).Get("/admin/api/templates", c.handleTemplates)
	r.With(need(acl.DemoSitesView), middleware.NoIndex).Get("/admin/demo-sites/{id}/view", c.handleAdminView)

	r.Route("/admin/api/demo-sites", func(r chi.Router) {
		r.With(need(acl.DemoSitesView)).Get("/", c.handleList)
		r.With(need(acl.DemoSitesCreate)).Post("/", c.handleCreate)
		r.With(need(acl.DemoSitesView)).Get("/{id}", c.handleGet)
		r.With(need(acl.DemoSitesUpdate)).Patch("/{id}", c.handleUpdate)
		r.With(need(acl.DemoSitesDelete)).Delete("/{id}", c.handleDelete)
		r.With(need(acl.DemoSitesUpdate)).Post("/{id}/publish", c.handlePublish)
	})
}

func init() { component.Register(&Component{}) }

/*──────────────────────────── Public pages ─────────────────────────────────*/

func (c *Component) handlePublic(w http.ResponseWriter, r *http.Request) {
	locale := chi.URLParam(r, "locale")
	if requestinfo.PrimaryLang(locale) != locale {
		http.NotFound(w, r)
		return
	}
	site, err := c.sites.Published(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		c.pageError(w, r, err)
		return
	}
	c.writePage(w, r, site, render.WithLocale(locale))
}

// handleLocaleRedirect sends /demo/{slug} to /{lang}/demo/{slug} using the
// primary Accept-Language tag, or the default locale.
func (c *Component) handleLocaleRedirect(w http.ResponseWriter, r *http.Request) {
	lang := ""
	if info := requestinfo.FromContext(r.Context()); info != nil {
		lang = info.Lang
	} else {
		lang = requestinfo.PrimaryLang(r.Header.Get("Accept-Language"))
	}
	if lang == "" {
		lang = c.defaultLocale
	}
	target := "/" + lang + "/demo/" + url.PathEscape(chi.URLParam(r, "slug"))
	if q := r.URL.RawQuery; q != "" {
		target += "?" + q
	}
	w.Header().Set("Vary", "Accept-Language")
	http.Redirect(w, r, target, http.StatusFound)
}

func (c *Component) handleAdminView(w http.ResponseWriter, r *http.Request) {
	site, err := c.sites.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		c.pageError(w, r, err)
		return
	}
	c.writePage(w, r, site, render.WithHeadTag(map[string]string{"name": "robots", "content": "noindex, nofollow"}))
}

func (c *Component) writePage(w http.ResponseWriter, r *http.Request, site demosite.DemoSite, opts ...render.Option) {
	page, err := render.Render(site.TemplateID, site.Config, opts...)
	if err != nil {
		// A stored site with an unknown template is a data problem, not a
		// missing page.
		logger.From(r.Context()).Errorw("render demo site", "id", site.ID, "template", site.TemplateID, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page.HTML))
}

func (c *Component) pageError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, demosite.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	logger.From(r.Context()).Errorw("load demo site", "path", r.URL.Path, "err", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

/*──────────────────────────── Admin API ────────────────────────────────────*/

func (c *Component) handleTemplates(w http.ResponseWriter, _ *http.Request) {
	component.JSON(w, http.StatusOK, map[string]any{"templates": catalog.All()})
}

func (c *Component) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := c.sites.List(r.Context())
	if err != nil {
		c.apiError(w, r, err)
		return
	}
	if list == nil {
		list = []demosite.Listed{}
	}
	component.JSON(w, http.StatusOK, map[string]any{"data": list})
}

func (c *Component) handleGet(w http.ResponseWriter, r *http.Request) {
	site, err := c.sites.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		c.apiError(w, r, err)
		return
	}
	component.JSON(w, http.StatusOK, site)
}

func (c *Component) handleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := component.ReadBody(r)
	if err != nil {
		component.Fail(w, r, http.StatusBadRequest, "malformed request", err)
		return
	}
	sub, fe := demosite.Validate(body)
	if fe != nil {
		component.Invalid(w, fe)
		return
	}
	actor, _ := auth.ActorFrom(r.Context())
	site, err := c.sites.Create(r.Context(), actor, sub)
	if err != nil {
		c.apiError(w, r, err)
		return
	}
	component.JSON(w, http.StatusCreated, site)
}

func (c *Component) handleUpdate(w http.ResponseWriter, r *http.Request) {
	body, err := component.ReadBody(r)
	if err != nil {
		component.Fail(w, r, http.StatusBadRequest, "malformed request", err)
		return
	}
	p, fe := demosite.ValidatePatch(body)
	if fe != nil {
		component.Invalid(w, fe)
		return
	}
	if p.Empty() {
		component.Invalid(w, map[string]string{"body": "no fields to update"})
		return
	}
	actor, _ := auth.ActorFrom(r.Context())
	site, err := c.sites.Update(r.Context(), chi.URLParam(r, "id"), actor, p)
	if err != nil {
		c.apiError(w, r, err)
		return
	}
	component.JSON(w, http.StatusOK, site)
}

func (c *Component) handlePublish(w http.ResponseWriter, r *http.Request) {
	var in struct {
		IsPublished *bool `json:"isPublished"`
	}
	if err := component.Decode(r, &in); err != nil {
		component.Fail(w, r, http.StatusBadRequest, "malformed request", err)
		return
	}
	if in.IsPublished == nil {
		component.Invalid(w, map[string]string{"isPublished": "is required"})
		return
	}
	actor, _ := auth.ActorFrom(r.Context())
	site, err := c.sites.SetPublished(r.Context(), chi.URLParam(r, "id"), actor, *in.IsPublished)
	if err != nil {
		c.apiError(w, r, err)
		return
	}
	component.JSON(w, http.StatusOK, site)
}

func (c *Component) handleDelete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	if err := c.sites.Delete(r.Context(), chi.URLParam(r, "id"), actor); err != nil {
		c.apiError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *Component) apiError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, demosite.ErrNotFound):
		component.Fail(w, r, http.StatusNotFound, "demo site not found", err)
	case errors.Is(err, demosite.ErrForbidden):
		component.Fail(w, r, http.StatusForbidden, "not allowed to modify this demo site", err)
	case errors.Is(err, demosite.ErrSlugConflict):
		component.JSON(w, http.StatusConflict, map[string]any{
			"error":  "slug already in use",
			"fields": map[string]string{"slug": "is already taken"},
		})
	default:
		component.Fail(w, r, http.StatusInternalServerError, "something went wrong", err)
	}
}
