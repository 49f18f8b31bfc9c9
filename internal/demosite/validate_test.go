package demosite

import (
	"strings"
	"testing"
)

func TestValidateShortSlug(t *testing.T) {
	_, fe := Validate([]byte(`{"slug":"ab","templateId":"tour","destinations":[],"packages":[]}`))
	if fe == nil {
		t.Fatal("expected validation failure")
	}
	if _, ok := fe["slug"]; !ok {
		t.Fatalf("no slug error in %v", fe)
	}
	if len(fe) != 1 {
		t.Fatalf("unexpected extra errors: %v", fe)
	}
}

func TestValidateAmalfi(t *testing.T) {
	sub, fe := Validate([]byte(`{
		"slug": "amalfi-demo",
		"templateId": "tour",
		"destinations": [{"name": "Ubud"}],
		"packages": []
	}`))
	if fe != nil {
		t.Fatalf("unexpected errors: %v", fe)
	}
	if sub.Slug != "amalfi-demo" || sub.TemplateID != "tour" || sub.IsPublished {
		t.Fatalf("submission = %+v", sub)
	}
	if len(sub.Destinations) != 1 || sub.Destinations[0].Name != "Ubud" {
		t.Fatalf("destinations = %+v", sub.Destinations)
	}
	if sub.Packages == nil || len(sub.Packages) != 0 {
		t.Fatalf("packages = %#v", sub.Packages)
	}
}

func TestValidateFieldPaths(t *testing.T) {
	_, fe := Validate([]byte(`{
		"slug": "Bad Slug!",
		"templateId": "blog",
		"destinations": [{"name": "Ubud"}, {"region": "North"}],
		"packages": [
			{"title": "A"},
			{"title": "B"},
			{"title": "C", "itinerary": [{"day": 1}, {"day": "two", "title": "x"}, {"title": "y"}]},
			{"title": "  "}
		]
	}`))
	want := map[string]string{
		"slug":                           "may contain only lowercase letters, digits, and hyphens",
		"templateId":                     "unknown template",
		"destinations[1].name":           "is required",
		"packages[2].itinerary[0].title": "is required",
		"packages[2].itinerary[1].day":   "must be a number",
		"packages[2].itinerary[2].day":   "is required",
		"packages[3].title":              "is required",
	}
	for path, msg := range want {
		if got, ok := fe[path]; !ok || got != msg {
			t.Errorf("fe[%q] = %q, %v; want %q", path, got, ok, msg)
		}
	}
	if len(fe) != len(want) {
		t.Errorf("got %d errors, want %d: %v", len(fe), len(want), fe)
	}
}

func TestValidateTrimsAndAcceptsNumericStringDay(t *testing.T) {
	sub, fe := Validate([]byte(`{
		"slug": "  bali-tours ",
		"templateId": "tour",
		"hero": {"title": "  Bali  ", "currency": " Rp "},
		"packages": [{"title": " Island ", "itinerary": [{"day": "2", "title": " Beach "}]}]
	}`))
	if fe != nil {
		t.Fatalf("unexpected errors: %v", fe)
	}
	if sub.Slug != "bali-tours" || sub.Hero.Title != "Bali" || sub.Hero.Currency != "Rp" {
		t.Fatalf("not trimmed: %+v", sub)
	}
	day := sub.Packages[0].Itinerary[0]
	if !day.Day.Valid() || day.Day.N != 2 || day.Title != "Beach" {
		t.Fatalf("itinerary = %+v", day)
	}
}

func TestValidateMalformed(t *testing.T) {
	cases := map[string]struct {
		body string
		want FieldErrors
	}{
		"empty":  {``, FieldErrors{"body": "request body is empty"}},
		"syntax": {`{"slug":`, FieldErrors{"body": "malformed JSON"}},
		"array":  {`[]`, FieldErrors{"body": "must be a JSON object"}},
		"wrongType": {
			`{"slug":"abc","templateId":"tour","isPublished":"yes"}`,
			FieldErrors{"isPublished": "must be a boolean"},
		},
		"indexedType": {
			`{"slug":"abc","templateId":"tour","packages":[{"title":"A"},{"title":5}]}`,
			FieldErrors{"packages[1].title": "must be a string"},
		},
		"typeAndRule": {
			`{"slug":"ab","templateId":"tour","hero":{"title":3},"destinations":"none"}`,
			FieldErrors{
				"slug":         "must be at least 3 characters",
				"hero.title":   "must be a string",
				"destinations": "must be a list",
			},
		},
	}
	for name, tc := range cases {
		_, fe := Validate([]byte(tc.body))
		if len(fe) != len(tc.want) {
			t.Errorf("%s: got %v, want %v", name, fe, tc.want)
			continue
		}
		for k, v := range tc.want {
			if fe[k] != v {
				t.Errorf("%s: fe[%q] = %q, want %q", name, k, fe[k], v)
			}
		}
	}
}

func TestValidatePatchTypeMismatch(t *testing.T) {
	_, fe := ValidatePatch([]byte(`{"slug":"x","hero":"big"}`))
	if fe["hero"] != "must be an object" || fe["slug"] == "" || len(fe) != 2 {
		t.Fatalf("fe = %v", fe)
	}
}

func TestValidateDayZero(t *testing.T) {
	sub, fe := Validate([]byte(`{
		"slug": "bali-tours",
		"templateId": "tour",
		"packages": [{"title": "Island", "itinerary": [{"day": 0, "title": "Arrival"}]}]
	}`))
	if fe != nil {
		t.Fatalf("unexpected errors: %v", fe)
	}
	if d := sub.Packages[0].Itinerary[0].Day; !d.Valid() || d.N != 0 {
		t.Fatalf("day = %+v", d)
	}
}

func TestValidateSlugLength(t *testing.T) {
	long := strings.Repeat("a", 129)
	_, fe := Validate([]byte(`{"slug":"` + long + `","templateId":"tour"}`))
	if fe["slug"] != "must be at most 128 characters" {
		t.Fatalf("fe = %v", fe)
	}
	if _, fe := Validate([]byte(`{"slug":"` + long[:128] + `","templateId":"tour"}`)); fe != nil {
		t.Fatalf("128 characters rejected: %v", fe)
	}
	if _, fe := ValidatePatch([]byte(`{"slug":"` + long + `"}`)); fe["slug"] == "" {
		t.Fatalf("patch accepted long slug: %v", fe)
	}
}

func TestValidatePatch(t *testing.T) {
	p, fe := ValidatePatch([]byte(`{"isPublished": true}`))
	if fe != nil {
		t.Fatalf("unexpected errors: %v", fe)
	}
	if p.IsPublished == nil || !*p.IsPublished || p.Slug != nil || p.Packages != nil {
		t.Fatalf("patch = %+v", p)
	}

	_, fe = ValidatePatch([]byte(`{"slug":"x","packages":[{"title":""}]}`))
	if _, ok := fe["slug"]; !ok {
		t.Errorf("missing slug error: %v", fe)
	}
	if _, ok := fe["packages[0].title"]; !ok {
		t.Errorf("missing package title error: %v", fe)
	}
}

func TestPatchApply(t *testing.T) {
	d := DemoSite{
		Slug:       "old",
		TemplateID: "tour",
		Config: Config{
			Hero:         Hero{Title: "Old"},
			Destinations: []Destination{{Name: "Ubud"}},
		},
	}
	title := "new-slug"
	p := Patch{Slug: &title, Hero: &Hero{Title: "New"}}
	p.Apply(&d)

	if d.Slug != "new-slug" || d.Config.Hero.Title != "New" {
		t.Fatalf("patch not applied: %+v", d)
	}
	if len(d.Config.Destinations) != 1 || d.TemplateID != "tour" {
		t.Fatalf("untouched fields changed: %+v", d)
	}
}

func TestValidateDraft(t *testing.T) {
	sub, fe := ValidateDraft([]byte(`{"slug":"","templateId":"car","destinations":[{"name":"Toyota","region":"SUV"}]}`))
	if fe != nil {
		t.Fatalf("unexpected errors: %v", fe)
	}
	if sub.Destinations[0].Region != "SUV" {
		t.Fatalf("draft = %+v", sub)
	}
	if _, fe := ValidateDraft([]byte(`{"templateId":"nope"}`)); fe["templateId"] == "" {
		t.Fatalf("unknown template accepted: %v", fe)
	}
	if _, fe := ValidateDraft([]byte(`{"templateId":"tour","packages":[{}]}`)); fe["packages[0].title"] == "" {
		t.Fatalf("missing package title accepted: %v", fe)
	}
}

func TestDayJSON(t *testing.T) {
	var d Day
	if err := d.UnmarshalJSON([]byte(`3`)); err != nil || !d.Valid() || d.N != 3 {
		t.Fatalf("Day = %+v, %v", d, err)
	}
	b, _ := d.MarshalJSON()
	if string(b) != "3" {
		t.Fatalf("MarshalJSON = %s", b)
	}
	var bad Day
	_ = bad.UnmarshalJSON([]byte(`"1.5"`))
	if bad.Valid() || !bad.Present() {
		t.Fatalf("Day = %+v", bad)
	}
}
