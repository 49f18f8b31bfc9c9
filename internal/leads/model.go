// internal/leads/model.go
//
// Lead directory types.
//
// Location fields (country, state, city, district) are free text written by
// the external scraper.  They are stored and filtered exactly as received;
// "Jakarta" and "jakarta" are two distinct values.

package leads

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("lead not found")
	ErrInvalidStatus = errors.New("invalid lead status")
	ErrInvalidQuery  = errors.New("invalid lead query")
)

// Status is the sales pipeline stage of a lead.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusReplied   Status = "replied"
	StatusQualified Status = "qualified"
	StatusConverted Status = "converted"
	StatusLost      Status = "lost"
	StatusIgnored   Status = "ignored"
)

// Statuses lists every status in pipeline order.
var Statuses = []Status{StatusNew, StatusContacted, StatusReplied, StatusQualified, StatusConverted, StatusLost, StatusIgnored}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Lead is one row of `leads`.
type Lead struct {
	ID           int64     `db:"id"            json:"id"`
	BusinessName string    `db:"business_name" json:"businessName"`
	Address      *string   `db:"address"       json:"address"`
	Phone        *string   `db:"phone"         json:"phone"`
	Website      *string   `db:"website"       json:"website"`
	Rating       *float64  `db:"rating"        json:"rating"`
	ReviewCount  *int64    `db:"review_count"  json:"reviewCount"`
	MapURL       *string   `db:"map_url"       json:"mapUrl"`
	City         *string   `db:"city"          json:"city"`
	District     *string   `db:"district"      json:"district"`
	State        *string   `db:"state"         json:"state"`
	Country      *string   `db:"country"       json:"country"`
	Status       Status    `db:"status"        json:"status"`
	Notes        *string   `db:"notes"         json:"notes"`
	LocationID   *int64    `db:"location_id"   json:"locationId"`
	CategoryID   *int64    `db:"category_id"   json:"categoryId"`
	CreatedAt    time.Time `db:"created_at"    json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at"    json:"updatedAt"`
}

// Filters are conjunctive; a zero field imposes no constraint.
type Filters struct {
	LocationID *int64 `json:"locationId,omitempty"`
	CategoryID *int64 `json:"categoryId,omitempty"`
	Status     Status `json:"status,omitempty"`
	Country    string `json:"country,omitempty"`
	State      string `json:"state,omitempty"`
	City       string `json:"city,omitempty"`
	District   string `json:"district,omitempty"`
}

// Sort keys accepted by List.
const (
	SortCreatedAt    = "createdAt"
	SortBusinessName = "businessName"
	SortRating       = "rating"
	SortReviewCount  = "reviewCount"
)

var sortColumns = map[string]string{
	SortCreatedAt:    "created_at",
	SortBusinessName: "business_name",
	SortRating:       "rating",
	SortReviewCount:  "review_count",
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPage         = 100000
)

// Query describes one page of the directory.
type Query struct {
	Filters
	Page      int    `json:"page"`
	PageSize  int    `json:"pageSize"`
	SortBy    string `json:"sortBy"`
	SortOrder string `json:"sortOrder"`
}

// normalize fills defaults and rejects unknown sort keys or statuses.
func (q Query) normalize() (Query, error) {
	switch {
	case q.Page < 1:
		q.Page = 1
	case q.Page > MaxPage:
		return q, fmt.Errorf("%w: page must be at most %d", ErrInvalidQuery, MaxPage)
	}
	switch {
	case q.PageSize <= 0:
		q.PageSize = DefaultPageSize
	case q.PageSize > MaxPageSize:
		q.PageSize = MaxPageSize
	}
	if q.SortBy == "" {
		q.SortBy = SortCreatedAt
	}
	if _, ok := sortColumns[q.SortBy]; !ok {
		return q, fmt.Errorf("%w: unknown sort key %q", ErrInvalidQuery, q.SortBy)
	}
	switch strings.ToLower(q.SortOrder) {
	case "", "desc":
		q.SortOrder = "desc"
	case "asc":
		q.SortOrder = "asc"
	default:
		return q, fmt.Errorf("%w: sort order must be asc or desc", ErrInvalidQuery)
	}
	if err := q.Filters.Check(); err != nil {
		return q, err
	}
	return q, nil
}

// Pagination is returned alongside every page.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

func newPagination(page, size int, total int64) Pagination {
	return Pagination{
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: (total + int64(size) - 1) / int64(size),
	}
}

// Page is one page of leads.
type Page struct {
	Data       []Lead     `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Locations are the distinct values for the cascading location filters.
type Locations struct {
	Countries []string `json:"countries"`
	States    []string `json:"states"`
	Cities    []string `json:"cities"`
	Districts []string `json:"districts"`
}
