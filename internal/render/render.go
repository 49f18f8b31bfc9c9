// Package render turns a demo-site configuration into a full HTML page.
//
// Render dispatches on the template id to exactly one layout.  An id that
// is not in the registry is an error; there is no best-effort layout.
// Missing optional fields never fail a render: ApplyFallback fills them
// first.  Layouts are html/template files embedded under web/ and loaded
// through internal/theme.
package render

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/yanizio/demosite/internal/catalog"
	"github.com/yanizio/demosite/internal/demosite"
	"github.com/yanizio/demosite/internal/head"
	"github.com/yanizio/demosite/internal/metrics"
	"github.com/yanizio/demosite/internal/theme"
)

// ErrUnknownTemplate is returned for ids missing from the registry.
var ErrUnknownTemplate = catalog.ErrUnknownTemplate

//go:embed web
var webFS embed.FS

var layouts = mustLoad()

func mustLoad() *theme.Theme {
	sub, err := fs.Sub(webFS, "web")
	if err != nil {
		panic(err)
	}
	th, err := theme.Load("demo", sub, template.FuncMap{"initial": initial})
	if err != nil {
		panic(fmt.Sprintf("render: %v", err))
	}
	return th
}

// Labels are the per-template section headings from the registry.
type Labels struct {
	Collection string
	Region     string
	Entity     string
	Nested     string
}

// Hero is the formatted hero region.
type Hero struct {
	Title    string
	Subtitle string
	Image    string
	Price    string
	Duration string
	Location string
}

// Card is one collection entry.
type Card struct {
	Name        string
	Region      string
	Description string
	Image       string
	Price       string
}

// Step is one itinerary line.
type Step struct {
	Day         string
	Title       string
	Description string
}

// Entity is a package or fleet vehicle.
type Entity struct {
	Title     string
	Anchor    string
	Image     string
	Location  string
	Duration  string
	Feature   string
	Price     string
	Itinerary []Step
}

// Page is the view model handed to a layout, and the result of Render.
type Page struct {
	TemplateID string
	Name       string
	Locale     string
	Head       *head.Builder
	Logo       string
	Labels     Labels
	Hero       Hero
	Collection []Card
	Entities   []Entity
	Fallbacks  Fallbacks

	// HTML is the complete document.
	HTML template.HTML
}

// Option adjusts a render.
type Option func(*Page)

// WithLocale sets the document language.
func WithLocale(locale string) Option {
	return func(p *Page) {
		if locale != "" {
			p.Locale = locale
		}
	}
}

// WithHeadTag lets callers add meta tags, for example robots directives on
// previews.
func WithHeadTag(attrs map[string]string) Option {
	return func(p *Page) { p.Head.Meta(attrs) }
}

// Render builds the page for templateID from cfg.
func Render(templateID string, cfg demosite.Config, opts ...Option) (*Page, error) {
	tpl, err := catalog.Get(templateID)
	if err != nil {
		return nil, err
	}
	if !layouts.Has(tpl.Layout) {
		return nil, fmt.Errorf("render: template %q has no layout %q", templateID, tpl.Layout)
	}

	filled, fb := ApplyFallback(templateID, cfg)
	p := buildPage(tpl, filled)
	p.Fallbacks = fb
	for _, o := range opts {
		o(p)
	}
	describe(p, filled)

	html, err := layouts.Render(tpl.Layout, p)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", templateID, err)
	}
	p.HTML = html
	metrics.RendersTotal.WithLabelValues(templateID).Inc()
	return p, nil
}

func buildPage(tpl *catalog.Template, cfg demosite.Config) *Page {
	cur := cfg.Hero.Currency
	p := &Page{
		TemplateID: tpl.ID,
		Name:       tpl.Name,
		Locale:     "en",
		Head:       head.New(),
		Logo:       cfg.Branding.Logo,
		Labels: Labels{
			Collection: groupLabel(tpl, catalog.GroupCollection),
			Region:     tpl.Label(catalog.GroupCollection, "region"),
			Entity:     groupLabel(tpl, catalog.GroupEntity),
			Nested:     groupLabel(tpl, catalog.GroupNested),
		},
		Hero: Hero{
			Title:    cfg.Hero.Title,
			Subtitle: cfg.Hero.Subtitle,
			Image:    cfg.Hero.Image,
			Price:    FormatPrice(cfg.Hero.Price, cur),
			Duration: cfg.Hero.Duration,
			Location: cfg.Hero.Location,
		},
	}
	if p.Hero.Title == "" {
		p.Hero.Title = tpl.Name
	}

	p.Collection = make([]Card, 0, len(cfg.Destinations))
	for _, d := range cfg.Destinations {
		p.Collection = append(p.Collection, Card{
			Name:        d.Name,
			Region:      d.Region,
			Description: d.Description,
			Image:       d.Image,
			Price:       FormatPrice(d.Price, cur),
		})
	}

	p.Entities = make([]Entity, 0, len(cfg.Packages))
	anchors := make(map[string]bool, len(cfg.Packages))
	for _, pk := range cfg.Packages {
		anchor := DeriveSlug(pk.Slug)
		if anchor == "" {
			anchor = DeriveSlug(pk.Title)
		}
		anchor = uniqueAnchor(anchors, anchor)
		e := Entity{
			Title:    pk.Title,
			Anchor:   anchor,
			Image:    pk.Image,
			Location: pk.Location,
			Duration: pk.Duration,
			Feature:  pk.Feature,
			Price:    FormatPrice(pk.Price, cur),
		}
		for _, it := range pk.Itinerary {
			e.Itinerary = append(e.Itinerary, Step{Day: it.Day.String(), Title: it.Title, Description: it.Description})
		}
		p.Entities = append(p.Entities, e)
	}
	return p
}

// uniqueAnchor returns base, or base with a numeric suffix when an earlier
// entity already took it, so every HTML id on the page is distinct.
func uniqueAnchor(seen map[string]bool, base string) string {
	if base == "" {
		base = "item"
	}
	a := base
	for n := 2; seen[a]; n++ {
		a = fmt.Sprintf("%s-%d", base, n)
	}
	seen[a] = true
	return a
}
// describe populates the head builder from the hero and branding.
func describe(p *Page, cfg demosite.Config) {
	p.Head.SetTitle(p.Hero.Title)
	desc := p.Hero.Subtitle
	if desc == "" {
		desc = p.Name + " demo"
	}
	p.Head.SetDescription(desc)
	p.Head.OpenGraph("type", "website")
	p.Head.OpenGraph("title", p.Hero.Title)
	p.Head.OpenGraph("description", desc)
	p.Head.OpenGraph("image", p.Hero.Image)

	color := cfg.Branding.PrimaryColor
	if color == "" {
		color = DefaultPrimaryColor
	}
	p.Head.CSSVar("primary", color)
	p.Head.Meta(map[string]string{"name": "theme-color", "content": color})
	if p.Logo != "" {
		p.Head.Link(map[string]string{"rel": "icon", "href": p.Logo})
	}
	if err := p.Head.JSONLD(map[string]any{
		"@context":    "https://schema.org",
		"@type":       schemaType(p.TemplateID),
		"name":        p.Hero.Title,
		"description": desc,
		"image":       p.Hero.Image,
	}); err != nil {
		zap.S().Warnw("json-ld skipped", "template", p.TemplateID, "err", err)
	}
}

func schemaType(templateID string) string {
	if templateID == "car" {
		return "AutoRental"
	}
	return "TravelAgency"
}

func groupLabel(tpl *catalog.Template, key string) string {
	if g := tpl.Group(key); g != nil {
		return g.Label
	}
	return ""
}

// initial returns the upper-cased first letter, used for brand badges.
func initial(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(s)
	return strings.ToUpper(string(r))
}

// IsUnknownTemplate reports whether err means the id is not registered.
func IsUnknownTemplate(err error) bool { return errors.Is(err, ErrUnknownTemplate) }
