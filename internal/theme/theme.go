// Package theme loads the page layouts the renderer executes.
//
// A Theme combines:
//
//   - Name       – identifies the template set in logs and errors.
//   - layouts    – one cloned html/template tree per page layout, each
//     sharing the base document and partials.
//   - AssetFunc  – helper injected into templates so they can resolve
//     `{{ asset "css/tour.css" }}` to a URL.
//
// Filesystem layout (any fs.FS, usually embedded):
//
//	base.html          defines "base", calling {{template "content" .}}
//	partials/*.html    shared blocks
//	layouts/<id>.html  defines "content" for layout <id>
package theme

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
)

// Theme is returned by Load once all templates are parsed.
type Theme struct {
	Name      string
	AssetFunc func(string) string
	layouts   map[string]*template.Template
}

// Layouts lists the parsed layout ids.
func (t *Theme) Layouts() []string {
	ids := make([]string, 0, len(t.layouts))
	for id := range t.layouts {
		ids = append(ids, id)
	}
	return ids
}

// Has reports whether layout id was parsed.
func (t *Theme) Has(id string) bool {
	_, ok := t.layouts[id]
	return ok
}

// Execute renders layout id with data into w.
func (t *Theme) Execute(w io.Writer, id string, data any) error {
	tpl, ok := t.layouts[id]
	if !ok {
		return fmt.Errorf("theme %s: no layout %q", t.Name, id)
	}
	return tpl.ExecuteTemplate(w, "base", data)
}

// Render is Execute into a string, for callers that embed the result.
func (t *Theme) Render(id string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, id, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil //nolint:gosec // produced by html/template
}

// Load parses fsys into a Theme.  funcs is merged over the default
// function map before parsing.
func Load(name string, fsys fs.FS, funcs template.FuncMap) (*Theme, error) {
	th := &Theme{Name: name, layouts: map[string]*template.Template{}}
	assetPrefix := "/assets/" + name + "/"
	th.AssetFunc = func(p string) string { return assetPrefix + strings.TrimPrefix(p, "/") }

	fm := template.FuncMap{
		"asset": th.AssetFunc,
	}
	for k, v := range funcs {
		fm[k] = v
	}

	root, err := template.New("").Funcs(fm).ParseFS(fsys, "base.html")
	if err != nil {
		return nil, fmt.Errorf("theme %s: parse base: %w", name, err)
	}
	partials, err := CollectHTML(fsys, "partials")
	if err != nil {
		return nil, fmt.Errorf("theme %s: %w", name, err)
	}
	if len(partials) > 0 {
		if _, err := root.ParseFS(fsys, partials...); err != nil {
			return nil, fmt.Errorf("theme %s: parse partials: %w", name, err)
		}
	}

	layouts, err := CollectHTML(fsys, "layouts")
	if err != nil {
		return nil, fmt.Errorf("theme %s: %w", name, err)
	}
	if len(layouts) == 0 {
		return nil, fmt.Errorf("theme %s: no layouts", name)
	}
	for _, file := range layouts {
		id := strings.TrimSuffix(path.Base(file), path.Ext(file))
		clone, err := root.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := clone.ParseFS(fsys, file); err != nil {
			return nil, fmt.Errorf("theme %s: parse layout %s: %w", name, id, err)
		}
		th.layouts[id] = clone
	}
	return th, nil
}
