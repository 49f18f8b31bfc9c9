package render

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/yanizio/demosite/internal/head"
	"github.com/yanizio/demosite/internal/metrics"
)

// Article is a blog post or portfolio project prepared for preview.
type Article struct {
	Kind  string // "post" or "project"
	Title string
	Lead  string
	Cover string
	Body  string
}

// ArticlePage is the view model of the article layout.
type ArticlePage struct {
	Article
	TemplateID string
	Name       string
	Locale     string
	Logo       string
	Head       *head.Builder
	Paragraphs []string
}

// RenderArticle renders a post or project with the shared site chrome.
// The body is plain text; blank lines separate paragraphs.
func RenderArticle(a Article, locale string, extraMeta ...map[string]string) (template.HTML, error) {
	if locale == "" {
		locale = "en"
	}
	p := &ArticlePage{
		Article:    a,
		TemplateID: "article",
		Name:       sectionNames[a.Kind],
		Locale:     locale,
		Head:       head.New(),
		Paragraphs: paragraphs(a.Body),
	}
	p.Head.SetTitle(a.Title)
	p.Head.SetDescription(a.Lead)
	p.Head.OpenGraph("type", "article")
	p.Head.OpenGraph("title", a.Title)
	p.Head.OpenGraph("image", a.Cover)
	p.Head.CSSVar("primary", DefaultPrimaryColor)
	for _, m := range extraMeta {
		p.Head.Meta(m)
	}

	html, err := layouts.Render("article", p)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", a.Kind, err)
	}
	metrics.RendersTotal.WithLabelValues(a.Kind).Inc()
	return html, nil
}

var sectionNames = map[string]string{"post": "Blog", "project": "Projects"}

func paragraphs(body string) []string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	var out []string
	for _, block := range strings.Split(body, "\n\n") {
		if s := strings.TrimSpace(block); s != "" {
			out = append(out, s)
		}
	}
	return out
}
