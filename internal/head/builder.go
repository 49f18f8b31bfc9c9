// internal/head/builder.go
//
// The Builder collects what a rendered demo page puts inside <head>.  It is
// scoped to one render call.  The renderer pushes the title, description,
// Open Graph tags and theme color, then the base layout emits each slice.
//
// Features
// --------
//   - SetTitle, SetDescription – single values, last call wins.
//   - Meta, Link, Style        – attribute maps, deduplicated by key.
//   - OpenGraph                – `og:*` meta pairs.
//   - JSONLD                   – structured data blocks.
package head

import (
	"encoding/json"
	"html/template"
	"sort"
	"strings"
)

// Builder is not safe for concurrent use; each render owns one.
type Builder struct {
	title       string
	description string

	metas  []string
	links  []string
	jsonLD []string
	css    []string

	seen map[string]struct{}
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{seen: make(map[string]struct{})}
}

// SetTitle sets the page title.
func (b *Builder) SetTitle(t string) { b.title = strings.TrimSpace(t) }

// SetDescription sets the meta description and its og: twin.
func (b *Builder) SetDescription(d string) { b.description = strings.TrimSpace(d) }

// TitleText returns the raw title.
func (b *Builder) TitleText() string { return b.title }

// Meta adds <meta> with the given attributes.  Later calls with the same
// name/property are ignored.
func (b *Builder) Meta(attrs map[string]string) {
	key := attrs["name"] + "|" + attrs["property"] + "|" + attrs["http-equiv"]
	b.add("meta:"+key, &b.metas, "<meta"+attrString(attrs)+">")
}

// Link adds <link> with the given attributes, deduplicated by rel+href.
func (b *Builder) Link(attrs map[string]string) {
	b.add("link:"+attrs["rel"]+"|"+attrs["href"], &b.links, "<link"+attrString(attrs)+">")
}

// OpenGraph adds an og:<prop> meta tag.  Empty content is skipped.
func (b *Builder) OpenGraph(prop, content string) {
	if content == "" {
		return
	}
	b.Meta(map[string]string{"property": "og:" + prop, "content": content})
}

// CSSVar declares a custom property on :root.
func (b *Builder) CSSVar(name, value string) {
	if value == "" {
		return
	}
	b.add("css:"+name, &b.css, "--"+name+":"+cssValue(value)+";")
}

// JSONLD marshals v as a structured-data block.
func (b *Builder) JSONLD(v any) error {
	js, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b.add("jsonld:"+string(js), &b.jsonLD, string(js))
	return nil
}

func (b *Builder) add(key string, tgt *[]string, tag string) {
	if _, dup := b.seen[key]; dup {
		return
	}
	b.seen[key] = struct{}{}
	*tgt = append(*tgt, tag)
}

// HTML renders every collected tag in document order.
func (b *Builder) HTML() template.HTML {
	var sb strings.Builder
	if b.title != "" {
		sb.WriteString("<title>" + template.HTMLEscapeString(b.title) + "</title>")
	}
	if b.description != "" {
		sb.WriteString(`<meta name="description" content="` + template.HTMLEscapeString(b.description) + `">`)
	}
	for _, m := range b.metas {
		sb.WriteString(m)
	}
	for _, l := range b.links {
		sb.WriteString(l)
	}
	if len(b.css) > 0 {
		sb.WriteString("<style>:root{" + strings.Join(b.css, "") + "}</style>")
	}
	for _, js := range b.jsonLD {
		sb.WriteString(`<script type="application/ld+json">`)
		sb.WriteString(strings.ReplaceAll(js, "</", `<\/`))
		sb.WriteString(`</script>`)
	}
	return template.HTML(sb.String()) //nolint:gosec // every value above is escaped
}

// attrString renders attributes in a stable order.
func attrString(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(" " + template.HTMLEscapeString(k) + `="` + template.HTMLEscapeString(attrs[k]) + `"`)
	}
	return sb.String()
}

// cssValue keeps only characters valid in a color or length value.
func cssValue(v string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case strings.ContainsRune("#.,%() -", r):
			return r
		}
		return -1
	}, v)
}
