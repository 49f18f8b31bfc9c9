package leads

import (
	"fmt"
	"strconv"
	"strings"
)

// Filter fields accepted by FilterState.Set.
const (
	FieldCountry    = "country"
	FieldState      = "state"
	FieldCity       = "city"
	FieldDistrict   = "district"
	FieldStatus     = "status"
	FieldCategoryID = "categoryId"
	FieldLocationID = "locationId"
)

// FilterState is the admin filter bar.  Set is its only transition: a
// broader location choice resets every narrower one.
//
//	country  → state, city, district reset
//	state    → city, district reset
//	city     → district reset
//	district → nothing else changes
//
// Status, category and location id are independent of the cascade.
type FilterState struct {
	Filters
}

// Check rejects a filter set carrying an unknown status.
func (f Filters) Check() error {
	if f.Status != "" && !f.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// Set applies one transition.  An empty value means "all".  Setting a
// field to its current value is a no-op and resets nothing.
func (s FilterState) Set(field, value string) (FilterState, error) {
	value = strings.TrimSpace(value)
	switch field {
	case FieldCountry:
		if value != s.Country {
			s.Country, s.State, s.City, s.District = value, "", "", ""
		}
	case FieldState:
		if value != s.State {
			s.State, s.City, s.District = value, "", ""
		}
	case FieldCity:
		if value != s.City {
			s.City, s.District = value, ""
		}
	case FieldDistrict:
		s.District = value
	case FieldStatus:
		st := Status(value)
		if value != "" && !st.Valid() {
			return s, ErrInvalidStatus
		}
		s.Status = st
	case FieldCategoryID, FieldLocationID:
		var id *int64
		if value != "" {
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return s, fmt.Errorf("%w: %s must be an integer", ErrInvalidQuery, field)
			}
			id = &n
		}
		if field == FieldCategoryID {
			s.CategoryID = id
		} else {
			s.LocationID = id
		}
	default:
		return s, fmt.Errorf("%w: unknown filter %q", ErrInvalidQuery, field)
	}
	return s, nil
}
