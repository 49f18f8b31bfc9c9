// internal/demosite/model.go
//
// Demo-site aggregate and its JSON configuration.
//
// Context
// -------
// A DemoSite is one row of `demo_sites`.  Its `config` column holds the
// JSON document edited in the admin form.  Both templates share the same
// configuration shape; the template registry (internal/catalog) tells the
// form and the renderer what each group means for a given template id.
//
// Notes
// -----
//   - Itinerary order is list order.  `Day` is display-only and never
//     used for sorting.
//   - Config implements driver.Valuer and sql.Scanner so sqlx reads and
//     writes it as a JSON column.

package demosite

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

//
// Aggregate
//

// DemoSite is a persisted demo site.
type DemoSite struct {
	ID          string    `db:"id"           json:"id"`
	Slug        string    `db:"slug"         json:"slug"`
	TemplateID  string    `db:"template_id"  json:"templateId"`
	IsPublished bool      `db:"is_published" json:"isPublished"`
	Config      Config    `db:"config"       json:"config"`
	AuthorID    string    `db:"author_id"    json:"authorId"`
	CreatedAt   time.Time `db:"created_at"   json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at"   json:"updatedAt"`
}

// Author is the joined user summary shown in the admin list.
type Author struct {
	ID    string `db:"id"    json:"id"`
	Name  string `db:"name"  json:"name"`
	Email string `db:"email" json:"email"`
}

// Listed is one row of the admin list.
type Listed struct {
	DemoSite
	Author Author `db:"author" json:"author"`
}

//
// Configuration document
//

// Config is the template-dependent page configuration.
type Config struct {
	Branding     Branding      `json:"branding"`
	Hero         Hero          `json:"hero"`
	Destinations []Destination `json:"destinations" validate:"dive"`
	Packages     []Package     `json:"packages"     validate:"dive"`
}

// Branding holds the logo and accent color.
type Branding struct {
	Logo         string `json:"logo,omitempty"`
	PrimaryColor string `json:"primaryColor,omitempty"`
}

// Hero is the top-of-page block.
type Hero struct {
	Title    string `json:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`
	Image    string `json:"image,omitempty"`
	Price    string `json:"price,omitempty"`
	Duration string `json:"duration,omitempty"`
	Location string `json:"location,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// Destination is a collection entry.  For the car template it is a brand,
// and Region is the vehicle class.
type Destination struct {
	Name        string `json:"name"                  validate:"required"`
	Region      string `json:"region,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Price       string `json:"price,omitempty"`
}

// Package is an entity entry: a tour package or a fleet vehicle.
type Package struct {
	Title     string         `json:"title"               validate:"required"`
	Slug      string         `json:"slug,omitempty"`
	Image     string         `json:"image,omitempty"`
	Location  string         `json:"location,omitempty"`
	Duration  string         `json:"duration,omitempty"`
	Feature   string         `json:"feature,omitempty"`
	Price     string         `json:"price,omitempty"`
	Itinerary []ItineraryDay `json:"itinerary,omitempty" validate:"dive"`
}

// ItineraryDay is a nested entry of a package.
type ItineraryDay struct {
	Day         Day    `json:"day"                   validate:"required,day"`
	Title       string `json:"title"                 validate:"required"`
	Description string `json:"description,omitempty"`
}

//
// Day
//

// Day is the display number of an itinerary entry.  It accepts JSON
// numbers and numeric strings, and records anything else as invalid
// instead of failing the whole decode, so the validator can report the
// exact field.
type Day struct {
	N     int
	set   bool
	valid bool
}

// NewDay returns a valid Day.
func NewDay(n int) Day { return Day{N: n, set: true, valid: true} }

// Valid reports whether the day was present and numeric.
func (d Day) Valid() bool { return d.set && d.valid }

// Present reports whether the day was supplied at all.
func (d Day) Present() bool { return d.set }

func (d *Day) UnmarshalJSON(b []byte) error {
	d.set = true
	s := strings.TrimSpace(string(b))
	if s == "null" {
		d.set = false
		return nil
	}
	s = strings.TrimSpace(strings.Trim(s, `"`))
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		d.N, d.valid = int(f), true
	}
	return nil
}

func (d Day) MarshalJSON() ([]byte, error) {
	if !d.Valid() {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(d.N)), nil
}

func (d Day) String() string {
	if !d.Valid() {
		return ""
	}
	return strconv.Itoa(d.N)
}

//
// SQL mapping
//

// Value stores Config as JSON.
func (c Config) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Scan reads a JSON column into c.
func (c *Config) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*c = Config{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("demosite: cannot scan %T into Config", src)
	}
	if len(b) == 0 {
		*c = Config{}
		return nil
	}
	return json.Unmarshal(b, c)
}

//
// Errors
//

var (
	ErrNotFound     = errors.New("demo site not found")
	ErrForbidden    = errors.New("forbidden")
	ErrSlugConflict = errors.New("slug already taken")
)
