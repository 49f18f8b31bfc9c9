package leads

import (
	"errors"
	"testing"
)

func full() FilterState {
	return FilterState{Filters{Country: "Indonesia", State: "Bali", City: "Denpasar", District: "Kuta", Status: StatusNew}}
}

func TestFilterStateCascade(t *testing.T) {
	cases := []struct {
		field, value string
		want         Filters
	}{
		{FieldCountry, "Thailand", Filters{Country: "Thailand", Status: StatusNew}},
		{FieldCountry, "", Filters{Status: StatusNew}},
		{FieldState, "Jawa Barat", Filters{Country: "Indonesia", State: "Jawa Barat", Status: StatusNew}},
		{FieldState, "", Filters{Country: "Indonesia", Status: StatusNew}},
		{FieldCity, "Badung", Filters{Country: "Indonesia", State: "Bali", City: "Badung", Status: StatusNew}},
		{FieldCity, "", Filters{Country: "Indonesia", State: "Bali", Status: StatusNew}},
		{FieldDistrict, "Seminyak", Filters{Country: "Indonesia", State: "Bali", City: "Denpasar", District: "Seminyak", Status: StatusNew}},
		{FieldCountry, "Indonesia", full().Filters},
		{FieldStatus, "lost", Filters{Country: "Indonesia", State: "Bali", City: "Denpasar", District: "Kuta", Status: StatusLost}},
	}
	for _, c := range cases {
		got, err := full().Set(c.field, c.value)
		if err != nil {
			t.Fatalf("Set(%s, %q): %v", c.field, c.value, err)
		}
		if got.Filters != c.want {
			t.Errorf("Set(%s, %q) = %+v, want %+v", c.field, c.value, got.Filters, c.want)
		}
	}
}

func TestFilterStateIDs(t *testing.T) {
	s, err := FilterState{}.Set(FieldCategoryID, "12")
	if err != nil || s.CategoryID == nil || *s.CategoryID != 12 {
		t.Fatalf("category = %v, %v", s.CategoryID, err)
	}
	s, err = s.Set(FieldLocationID, "4")
	if err != nil || *s.LocationID != 4 || *s.CategoryID != 12 {
		t.Fatalf("state = %+v, %v", s, err)
	}
	s, _ = s.Set(FieldCategoryID, "")
	if s.CategoryID != nil {
		t.Fatal("category not cleared")
	}
	if _, err := s.Set(FieldLocationID, "x"); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("err = %v", err)
	}
}

func TestFilterStateRejects(t *testing.T) {
	if _, err := full().Set("rating", "5"); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("unknown field err = %v", err)
	}
	if _, err := full().Set(FieldStatus, "archived"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("bad status err = %v", err)
	}
	if err := (Filters{Status: "archived"}).Check(); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("Check err = %v", err)
	}
	if err := full().Filters.Check(); err != nil {
		t.Errorf("Check on valid filters = %v", err)
	}
}

func TestPaginationCeil(t *testing.T) {
	cases := []struct {
		total int64
		size  int
		want  int64
	}{{0, 20, 0}, {1, 20, 1}, {20, 20, 1}, {21, 20, 2}, {45, 20, 3}, {100, 100, 1}}
	for _, c := range cases {
		if got := newPagination(1, c.size, c.total).TotalPages; got != c.want {
			t.Errorf("total %d size %d: pages = %d, want %d", c.total, c.size, got, c.want)
		}
	}
}
