package catalog

import (
	"errors"
	"testing"
)

func TestGet(t *testing.T) {
	for _, id := range []string{"tour", "car"} {
		tpl, err := Get(id)
		if err != nil {
			t.Fatalf("Get(%q): %v", id, err)
		}
		if tpl.ID != id || tpl.Name == "" || tpl.Layout == "" {
			t.Errorf("Get(%q) = %+v", id, tpl)
		}
	}
}

func TestGetUnknown(t *testing.T) {
	for _, id := range []string{"", "Tour", "blog"} {
		if _, err := Get(id); !errors.Is(err, ErrUnknownTemplate) {
			t.Errorf("Get(%q) err = %v, want ErrUnknownTemplate", id, err)
		}
		if Known(id) {
			t.Errorf("Known(%q) = true", id)
		}
	}
}

func TestCarCollectionRegionIsClass(t *testing.T) {
	car, _ := Get("car")
	if got := car.Label(GroupCollection, "region"); got != "Class" {
		t.Errorf("car region label = %q, want Class", got)
	}
	tour, _ := Get("tour")
	if got := tour.Label(GroupCollection, "region"); got != "Region" {
		t.Errorf("tour region label = %q, want Region", got)
	}
}

func TestEveryFieldHasLabelAndPlaceholder(t *testing.T) {
	for _, tpl := range All() {
		for _, g := range tpl.Groups {
			if g.ConfigKey == "" || g.Label == "" {
				t.Errorf("%s/%s: missing config key or label", tpl.ID, g.Key)
			}
			for _, f := range g.Fields {
				if f.Label == "" || f.Placeholder == "" {
					t.Errorf("%s/%s.%s: empty label or placeholder", tpl.ID, g.Key, f.Name)
				}
			}
		}
	}
}

func TestLoadRejectsBadRegistry(t *testing.T) {
	saveOrdered, saveByID := ordered, byID
	defer func() { ordered, byID = saveOrdered, saveByID }()

	cases := map[string]string{
		"no id":         "- name: x\n",
		"missing group": "- id: x\n  groups:\n    - key: hero\n",
		"duplicate":     string(raw) + string(raw),
	}
	for name, doc := range cases {
		if err := load([]byte(doc)); err == nil {
			t.Errorf("%s: load accepted", name)
		}
	}
}

func TestIDs(t *testing.T) {
	ids := IDs()
	if len(ids) != 2 || ids[0] != "tour" || ids[1] != "car" {
		t.Fatalf("IDs = %v", ids)
	}
}
