package pagination

import (
	"math"
	"net/http"
	"strconv"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Params holds the page window requested through the query string.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

func DefaultParams() Params {
	return Params{Page: 1, PerPage: DefaultPerPage}
}

// FromRequest reads page and per_page, silently falling back to the defaults
// for missing or out-of-range values.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()
	q := r.URL.Query()

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil && v > 0 && v <= MaxPerPage {
		p.PerPage = v
	}

	// Keep Offset+PerPage representable.
	if maxPage := math.MaxInt/p.PerPage - 1; p.Page > maxPage {
		p.Page = maxPage
	}

	p.Offset = (p.Page - 1) * p.PerPage
	return p
}

// Window returns the page of items described by p. Pages past the end and
// malformed windows are empty.
func Window[T any](items []T, p Params) []T {
	if p.Offset < 0 || p.PerPage <= 0 || p.Offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if p.PerPage < end-p.Offset {
		end = p.Offset + p.PerPage
	}
	return items[p.Offset:end]
}
