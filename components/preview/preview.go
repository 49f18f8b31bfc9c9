// components/preview/preview.go
//
// Tokenized preview of demo sites, posts and projects.
//
//   POST /admin/api/preview                 issue a token (PREVIEW_CREATE)
//   GET  /{locale}/preview/{token}?type=    render what the token points at
//
// A token carries either a persisted record id or the editor's unsaved
// form state.  Both are rendered through the same layouts as the public
// pages, with robots directives so previews never get indexed.
//
// Expired and unknown tokens are distinct: 410 asks the editor to
// regenerate, 404 means the target is gone.
//
//------------------------------------------------------------------------------

package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/demosite/internal/acl"
	"github.com/yanizio/demosite/internal/component"
	"github.com/yanizio/demosite/internal/content"
	"github.com/yanizio/demosite/internal/demosite"
	"github.com/yanizio/demosite/internal/logger"
	"github.com/yanizio/demosite/internal/middleware"
	ipreview "github.com/yanizio/demosite/internal/preview"
	"github.com/yanizio/demosite/internal/render"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

type tokens interface {
	Issue(ctx context.Context, contentType string, contentID *string, data json.RawMessage) (string, error)
	Resolve(ctx context.Context, token string) (ipreview.Resolved, error)
	TTL() time.Duration
}

// Component issues and renders previews.
type Component struct {
	tokens        tokens
	acl           acl.Allower
	defaultLocale string
}

func (c *Component) Name() string { return "preview" }

func (c *Component) Init(svc component.Services) error {
	if svc.Preview == nil || svc.ACL == nil {
		return errors.New("preview service and acl are required")
	}
	c.tokens, c.acl = svc.Preview, svc.ACL
	c.defaultLocale = "en"
	if svc.Config != nil && svc.Config.HTTP.DefaultLocale != "" {
		c.defaultLocale = svc.Config.HTTP.DefaultLocale
	}
	return nil
}

func (c *Component) Routes(r chi.Router) {
	r.With(acl.RequirePermission(c.acl, acl.PreviewCreate)).Post("/admin/api/preview", c.handleIssue)
	r.With(middleware.NoIndex).Get("/{locale}/preview/{token}", c.handleRender)
}

func init() { component.Register(&Component{}) }

var robots = map[string]string{"name": "robots", "content": "noindex, nofollow"}

// contentType maps the public ?type= and request names onto the token
// content types.  "demo" is the short form used in preview links.
func contentType(s string) string {
	if s == "demo" {
		return ipreview.TypeDemoSite
	}
	return s
}

/*──────────────────────────── Issue ────────────────────────────────────────*/

type issueRequest struct {
	ContentType string          `json:"contentType"`
	ContentID   *string         `json:"contentId"`
	ContentData json.RawMessage `json:"contentData"`
}

func (c *Component) handleIssue(w http.ResponseWriter, r *http.Request) {
	var in issueRequest
	if err := component.Decode(r, &in); err != nil {
		component.Fail(w, r, http.StatusBadRequest, "malformed request", err)
		return
	}
	ct := contentType(in.ContentType)

	// An unsaved demo-site draft is checked now, so a broken form never
	// gets a token.  The slug may still be incomplete.
	if ct == ipreview.TypeDemoSite && (in.ContentID == nil || *in.ContentID == "") && len(in.ContentData) > 0 {
		if _, fe := demosite.ValidateDraft(in.ContentData); fe != nil {
			component.Invalid(w, fe)
			return
		}
	}

	tok, err := c.tokens.Issue(r.Context(), ct, in.ContentID, in.ContentData)
	switch {
	case errors.Is(err, ipreview.ErrInvalid):
		component.Invalid(w, map[string]string{"contentType": err.Error()})
		return
	case err != nil:
		component.Fail(w, r, http.StatusInternalServerError, "could not create preview", err)
		return
	}

	short := ct
	if ct == ipreview.TypeDemoSite {
		short = "demo"
	}
	component.JSON(w, http.StatusCreated, map[string]any{
		"token":     tok,
		"url":       fmt.Sprintf("/%s/preview/%s?type=%s", c.defaultLocale, tok, short),
		"expiresIn": int(c.tokens.TTL().Seconds()),
	})
}

/*──────────────────────────── Render ───────────────────────────────────────*/

func (c *Component) handleRender(w http.ResponseWriter, r *http.Request) {
	locale := chi.URLParam(r, "locale")
	res, err := c.tokens.Resolve(r.Context(), chi.URLParam(r, "token"))
	switch {
	case errors.Is(err, ipreview.ErrExpired):
		http.Error(w, "preview expired, generate a new one", http.StatusGone)
		return
	case errors.Is(err, ipreview.ErrNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		logger.From(r.Context()).Errorw("resolve preview", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if want := r.URL.Query().Get("type"); want != "" && contentType(want) != res.ContentType {
		http.NotFound(w, r)
		return
	}

	html, err := renderResolved(res, locale)
	if err != nil {
		var bad badDraft
		if errors.As(err, &bad) {
			http.Error(w, "preview data is no longer valid", http.StatusUnprocessableEntity)
			return
		}
		logger.From(r.Context()).Errorw("render preview", "type", res.ContentType, "id", res.ContentID, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

// badDraft marks inline data that no longer decodes, for example after a
// schema change between issue and render.
type badDraft struct{ fields map[string]string }

func (b badDraft) Error() string { return fmt.Sprintf("invalid preview draft: %v", b.fields) }

func renderResolved(res ipreview.Resolved, locale string) (template.HTML, error) {
	switch rec := res.Record.(type) {
	case demosite.DemoSite:
		return renderSite(rec.TemplateID, rec.Config, locale)
	case content.Post:
		return render.RenderArticle(postArticle(rec), locale, robots)
	case content.Project:
		return render.RenderArticle(projectArticle(rec), locale, robots)
	case nil:
	default:
		return "", fmt.Errorf("unexpected preview record %T", rec)
	}

	switch res.ContentType {
	case ipreview.TypeDemoSite:
		sub, fe := demosite.ValidateDraft(res.Data)
		if fe != nil {
			return "", badDraft{fe}
		}
		return renderSite(sub.TemplateID, sub.Config, locale)
	case ipreview.TypePost:
		var p content.Post
		if err := json.Unmarshal(res.Data, &p); err != nil {
			return "", badDraft{map[string]string{"body": err.Error()}}
		}
		return render.RenderArticle(postArticle(p), locale, robots)
	case ipreview.TypeProject:
		var p content.Project
		if err := json.Unmarshal(res.Data, &p); err != nil {
			return "", badDraft{map[string]string{"body": err.Error()}}
		}
		return render.RenderArticle(projectArticle(p), locale, robots)
	}
	return "", fmt.Errorf("no renderer for %q", res.ContentType)
}

func renderSite(templateID string, cfg demosite.Config, locale string) (template.HTML, error) {
	page, err := render.Render(templateID, cfg, render.WithLocale(locale), render.WithHeadTag(robots))
	if err != nil {
		return "", err
	}
	return page.HTML, nil
}

func postArticle(p content.Post) render.Article {
	return render.Article{Kind: "post", Title: p.Title, Lead: deref(p.Excerpt), Cover: deref(p.Cover), Body: p.Body}
}

func projectArticle(p content.Project) render.Article {
	lead := deref(p.Summary)
	if lead == "" {
		lead = deref(p.Client)
	}
	return render.Article{Kind: "project", Title: p.Title, Lead: lead, Cover: deref(p.Cover), Body: p.Body}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
