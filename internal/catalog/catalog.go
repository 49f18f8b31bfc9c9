// Package catalog is the template registry: a fixed list of renderable
// layouts and, for each, the field groups the admin form edits with their
// labels and placeholders.
//
// The registry is static data embedded in the binary.  Callers treat an
// unknown id as a hard validation error; nothing here substitutes a
// default template.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrUnknownTemplate is returned for ids missing from the registry.
var ErrUnknownTemplate = errors.New("unknown template")

// Group keys shared by every template.
const (
	GroupBranding   = "branding"
	GroupHero       = "hero"
	GroupCollection = "collection"
	GroupEntity     = "entity"
	GroupNested     = "nested"
)

// Field describes one input of the admin form.
type Field struct {
	Name        string `yaml:"name"        json:"name"`
	Label       string `yaml:"label"       json:"label"`
	Placeholder string `yaml:"placeholder" json:"placeholder"`
	Required    bool   `yaml:"required"    json:"required,omitempty"`
}

// Group is a related set of fields, such as the hero block.
type Group struct {
	Key       string  `yaml:"key"        json:"key"`
	ConfigKey string  `yaml:"config_key" json:"configKey"`
	Label     string  `yaml:"label"      json:"label"`
	Fields    []Field `yaml:"fields"     json:"fields"`
}

// Template is one registry entry.
type Template struct {
	ID     string  `yaml:"id"     json:"id"`
	Name   string  `yaml:"name"   json:"name"`
	Layout string  `yaml:"layout" json:"layout"`
	Groups []Group `yaml:"groups" json:"groups"`
}

// Group returns the group with key, or nil.
func (t *Template) Group(key string) *Group {
	for i := range t.Groups {
		if t.Groups[i].Key == key {
			return &t.Groups[i]
		}
	}
	return nil
}

// Label returns the label of field name in group key, or "" if either is
// unknown.  The car template labels the collection `region` as "Class".
func (t *Template) Label(key, name string) string {
	g := t.Group(key)
	if g == nil {
		return ""
	}
	for _, f := range g.Fields {
		if f.Name == name {
			return f.Label
		}
	}
	return ""
}

//go:embed templates.yaml
var raw []byte

var (
	ordered []*Template
	byID    map[string]*Template
)

func init() {
	if err := load(raw); err != nil {
		panic(fmt.Sprintf("catalog: %v", err))
	}
}

func load(b []byte) error {
	var list []*Template
	if err := yaml.Unmarshal(b, &list); err != nil {
		return err
	}
	idx := make(map[string]*Template, len(list))
	for _, t := range list {
		if t.ID == "" {
			return errors.New("template without id")
		}
		if _, dup := idx[t.ID]; dup {
			return fmt.Errorf("duplicate template id %q", t.ID)
		}
		for _, k := range []string{GroupBranding, GroupHero, GroupCollection, GroupEntity, GroupNested} {
			if t.Group(k) == nil {
				return fmt.Errorf("template %q: missing group %q", t.ID, k)
			}
		}
		idx[t.ID] = t
	}
	ordered, byID = list, idx
	return nil
}

// Get returns the template registered under id.
func Get(id string) (*Template, error) {
	if t, ok := byID[id]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, id)
}

// Known reports whether id is registered.
func Known(id string) bool {
	_, ok := byID[id]
	return ok
}

// All returns the templates in registry order.  The slice is shared; do
// not modify it.
func All() []*Template { return ordered }

// IDs returns every registered id in registry order.
func IDs() []string {
	ids := make([]string, len(ordered))
	for i, t := range ordered {
		ids[i] = t.ID
	}
	return ids
}
