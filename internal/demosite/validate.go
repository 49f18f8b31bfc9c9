// internal/demosite/validate.go
//
// Configuration validator.
//
// Context
// -------
// The admin form submits a flat JSON document:
//
//	{ "slug": "amalfi-demo", "templateId": "tour", "isPublished": false,
//	  "branding": {…}, "hero": {…}, "destinations": […], "packages": […] }
//
// Validate decodes it, trims every string, and checks the structural rules
// with go-playground/validator.  Failures come back as FieldErrors, a map
// from field path (`packages[2].itinerary[0].title`) to message, so the
// form can mark every bad field at once.  Nothing here touches the
// database: slug uniqueness is the store's job.

package demosite

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yanizio/demosite/internal/catalog"
)

//
// Submission types
//

// Submission is a complete create request.
type Submission struct {
	Slug        string `json:"slug"        validate:"required,min=3,max=128,slug"`
	TemplateID  string `json:"templateId"  validate:"required,template"`
	IsPublished bool   `json:"isPublished"`
	Config
}

// Patch is a partial update.  Nil fields are left untouched.
type Patch struct {
	Slug         *string        `json:"slug"         validate:"omitempty,min=3,max=128,slug"`
	TemplateID   *string        `json:"templateId"   validate:"omitempty,template"`
	IsPublished  *bool          `json:"isPublished"`
	Branding     *Branding      `json:"branding"`
	Hero         *Hero          `json:"hero"`
	Destinations *[]Destination `json:"destinations" validate:"omitempty,dive"`
	Packages     *[]Package     `json:"packages"     validate:"omitempty,dive"`
}

// Empty reports whether p changes nothing.
func (p Patch) Empty() bool {
	return p.Slug == nil && p.TemplateID == nil && p.IsPublished == nil &&
		p.Branding == nil && p.Hero == nil && p.Destinations == nil && p.Packages == nil
}

// Apply writes the non-nil fields of p onto d.
func (p Patch) Apply(d *DemoSite) {
	if p.Slug != nil {
		d.Slug = *p.Slug
	}
	if p.TemplateID != nil {
		d.TemplateID = *p.TemplateID
	}
	if p.IsPublished != nil {
		d.IsPublished = *p.IsPublished
	}
	if p.Branding != nil {
		d.Config.Branding = *p.Branding
	}
	if p.Hero != nil {
		d.Config.Hero = *p.Hero
	}
	if p.Destinations != nil {
		d.Config.Destinations = *p.Destinations
	}
	if p.Packages != nil {
		d.Config.Packages = *p.Packages
	}
}

// FieldErrors maps a field path to a human-readable message.  A nil map
// means the input is valid.
type FieldErrors map[string]string

func (fe FieldErrors) add(path, msg string) {
	if _, dup := fe[path]; !dup {
		fe[path] = msg
	}
}

// merge adds the entries of other that fe does not already hold.  The
// result is nil when both are empty.
func (fe FieldErrors) merge(other FieldErrors) FieldErrors {
	if len(other) == 0 {
		if len(fe) == 0 {
			return nil
		}
		return fe
	}
	if fe == nil {
		fe = make(FieldErrors, len(other))
	}
	for k, v := range other {
		fe.add(k, v)
	}
	return fe
}

//
// validator instance
//

var (
	slugRE   = regexp.MustCompile(`^[a-z0-9-]+$`)
	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Day reaches the rules as text so that day 0 still counts as present.
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		d := f.Interface().(Day)
		switch {
		case !d.Present():
			return nil
		case !d.Valid():
			return "invalid"
		default:
			return strconv.Itoa(d.N)
		}
	}, Day{})
	must(v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRE.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("template", func(fl validator.FieldLevel) bool {
		return catalog.Known(fl.Field().String())
	}))
	must(v.RegisterValidation("day", func(fl validator.FieldLevel) bool {
		_, err := strconv.Atoi(fl.Field().String())
		return err == nil
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

//
// public API
//

// Validate decodes and checks a create submission.
func Validate(raw []byte) (Submission, FieldErrors) {
	var s Submission
	fe, ok := decode(raw, &s)
	if !ok {
		return Submission{}, fe
	}
	s.normalize()
	if fe = fe.merge(check(&s)); fe != nil {
		return Submission{}, fe
	}
	if s.Destinations == nil {
		s.Destinations = []Destination{}
	}
	if s.Packages == nil {
		s.Packages = []Package{}
	}
	return s, nil
}

// ValidatePatch decodes and checks a partial update.  Only present fields
// are validated.
func ValidatePatch(raw []byte) (Patch, FieldErrors) {
	var p Patch
	fe, ok := decode(raw, &p)
	if !ok {
		return Patch{}, fe
	}
	p.normalize()
	if fe = fe.merge(check(&p)); fe != nil {
		return Patch{}, fe
	}
	return p, nil
}

// ValidateDraft checks an unsaved form state carried by a preview token.
// The slug may still be empty or incomplete; everything else follows
// Validate.
func ValidateDraft(raw []byte) (Submission, FieldErrors) {
	var s Submission
	fe, ok := decode(raw, &s)
	if !ok {
		return Submission{}, fe
	}
	s.normalize()
	fe = fe.merge(check(&s))
	delete(fe, "slug")
	if len(fe) > 0 {
		return Submission{}, fe
	}
	return s, nil
}

//
// internals
//

// decode fills dst from raw.  Values of the wrong JSON type are reported
// under their field path and left at the zero value, so the rule checks
// still run on everything else.  ok is false only when raw is not a JSON
// object at all.
func decode(raw []byte, dst any) (fe FieldErrors, ok bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return FieldErrors{"body": "request body is empty"}, false
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return FieldErrors{"body": "malformed JSON"}, false
	}
	if _, isObj := tree.(map[string]any); !isObj {
		return FieldErrors{"body": "must be a JSON object"}, false
	}
	fe = FieldErrors{}
	tree = prune(tree, reflect.TypeOf(dst).Elem(), "", fe)
	clean, err := json.Marshal(tree)
	if err == nil {
		err = json.Unmarshal(clean, dst)
	}
	if err != nil {
		return FieldErrors{"body": "malformed JSON"}, false
	}
	if len(fe) == 0 {
		fe = nil
	}
	return fe, true
}

var unmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()

// prune walks a generic JSON value alongside the Go type it will be
// decoded into and drops every value whose JSON type does not fit,
// recording it in fe under path.
func prune(v any, t reflect.Type, path string, fe FieldErrors) any {
	if v == nil {
		return nil
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if reflect.PointerTo(t).Implements(unmarshalerType) {
		return v
	}
	bad := func() any {
		fe.add(path, "must be "+jsonKind(t))
		return nil
	}
	switch t.Kind() {
	case reflect.String:
		if _, ok := v.(string); !ok {
			return bad()
		}
	case reflect.Bool:
		if _, ok := v.(bool); !ok {
			return bad()
		}
	case reflect.Int, reflect.Int64:
		if f, ok := v.(float64); !ok || f != float64(int64(f)) {
			return bad()
		}
	case reflect.Float64:
		if _, ok := v.(float64); !ok {
			return bad()
		}
	case reflect.Slice:
		list, ok := v.([]any)
		if !ok {
			return bad()
		}
		for i := range list {
			list[i] = prune(list[i], t.Elem(), fmt.Sprintf("%s[%d]", path, i), fe)
		}
	case reflect.Struct:
		obj, ok := v.(map[string]any)
		if !ok {
			return bad()
		}
		pruneFields(obj, t, path, fe)
	}
	return v
}

// pruneFields applies prune to every key of obj that maps to a field of t.
// Keys match case-insensitively, as encoding/json does.
func pruneFields(obj map[string]any, t reflect.Type, path string, fe FieldErrors) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			pruneFields(obj, f.Type, path, fe)
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if !f.IsExported() || name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		for key, val := range obj {
			if !strings.EqualFold(key, name) {
				continue
			}
			sub := name
			if path != "" {
				sub = path + "." + name
			}
			if val = prune(val, f.Type, sub, fe); val == nil {
				delete(obj, key)
			} else {
				obj[key] = val
			}
		}
	}
}

func jsonKind(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Bool:
		return "a boolean"
	case reflect.Slice, reflect.Array:
		return "a list"
	case reflect.Struct, reflect.Map:
		return "an object"
	case reflect.Int, reflect.Int64, reflect.Float64:
		return "a number"
	default:
		return "a string"
	}
}

func check(s any) FieldErrors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"body": err.Error()}
	}
	fe := make(FieldErrors, len(verrs))
	for _, e := range verrs {
		fe.add(fieldPath(e.Namespace()), message(e.Tag(), e.Param()))
	}
	return fe
}

// fieldPath turns "Submission.Config.packages[2].itinerary[0].title" into
// "packages[2].itinerary[0].title".
func fieldPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 0 {
		parts = parts[1:] // root struct name
	}
	out := parts[:0]
	for _, p := range parts {
		if p == "Config" {
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, ".")
}

func message(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", param)
	case "max":
		return fmt.Sprintf("must be at most %s characters", param)
	case "slug":
		return "may contain only lowercase letters, digits, and hyphens"
	case "template":
		return "unknown template"
	case "day":
		return "must be a number"
	default:
		return "is invalid"
	}
}

//
// normalization
//

func (s *Submission) normalize() {
	s.Slug = strings.TrimSpace(s.Slug)
	s.TemplateID = strings.TrimSpace(s.TemplateID)
	s.Config.normalize()
}

func (p *Patch) normalize() {
	trimPtr(p.Slug)
	trimPtr(p.TemplateID)
	if p.Branding != nil {
		p.Branding.normalize()
	}
	if p.Hero != nil {
		p.Hero.normalize()
	}
	if p.Destinations != nil {
		for i := range *p.Destinations {
			(*p.Destinations)[i].normalize()
		}
	}
	if p.Packages != nil {
		for i := range *p.Packages {
			(*p.Packages)[i].normalize()
		}
	}
}

func (c *Config) normalize() {
	c.Branding.normalize()
	c.Hero.normalize()
	for i := range c.Destinations {
		c.Destinations[i].normalize()
	}
	for i := range c.Packages {
		c.Packages[i].normalize()
	}
}

func (b *Branding) normalize() {
	trim(&b.Logo, &b.PrimaryColor)
}

func (h *Hero) normalize() {
	trim(&h.Title, &h.Subtitle, &h.Image, &h.Price, &h.Duration, &h.Location, &h.Currency)
}

func (d *Destination) normalize() {
	trim(&d.Name, &d.Region, &d.Description, &d.Image, &d.Price)
}

func (p *Package) normalize() {
	trim(&p.Title, &p.Slug, &p.Image, &p.Location, &p.Duration, &p.Feature, &p.Price)
	for i := range p.Itinerary {
		trim(&p.Itinerary[i].Title, &p.Itinerary[i].Description)
	}
}

func trim(ss ...*string) {
	for _, s := range ss {
		*s = strings.TrimSpace(*s)
	}
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
