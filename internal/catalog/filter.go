// Package catalog holds the dress filter engine shared by the server listing
// and the storefront client, so both produce the same result for the same
// input set and filter.
package catalog

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/utafrali/dressrental/internal/domain"
	apperrors "github.com/utafrali/dressrental/pkg/errors"
)

// Filter is the closed set of listing criteria. Dimensions are combined with
// AND; values inside Sizes and Colors are combined with OR. Size and Sizes
// describe the same dimension. Zero values impose no constraint.
type Filter struct {
	Size      string   `json:"size,omitempty"`
	Sizes     []string `json:"sizes,omitempty"`
	Colors    []string `json:"colors,omitempty"`
	Category  string   `json:"category,omitempty"`
	Available *bool    `json:"available,omitempty"`
	Featured  *bool    `json:"featured,omitempty"`
}

// IsEmpty reports whether f matches every dress.
func (f Filter) IsEmpty() bool {
	return len(f.sizeSet()) == 0 && len(f.Colors) == 0 && f.Category == "" &&
		f.Available == nil && f.Featured == nil
}

// Validate rejects unknown categories and blank multi-values.
func (f Filter) Validate() error {
	if f.Category != "" && !domain.IsValidCategory(f.Category) {
		return apperrors.InvalidInput(fmt.Sprintf("unknown category %q", f.Category))
	}
	for _, s := range f.Sizes {
		if strings.TrimSpace(s) == "" {
			return apperrors.InvalidInput("sizes must not contain blank values")
		}
	}
	for _, c := range f.Colors {
		if strings.TrimSpace(c) == "" {
			return apperrors.InvalidInput("colors must not contain blank values")
		}
	}
	return nil
}

// Matches reports whether d satisfies every dimension of f.
func (f Filter) Matches(d domain.Dress) bool {
	if sizes := f.sizeSet(); len(sizes) > 0 && !slices.ContainsFunc(sizes, d.HasSize) {
		return false
	}
	if len(f.Colors) > 0 && !slices.ContainsFunc(f.Colors, d.HasColor) {
		return false
	}
	if f.Category != "" && d.Category != f.Category {
		return false
	}
	if f.Available != nil && d.Available != *f.Available {
		return false
	}
	if f.Featured != nil && d.Featured != *f.Featured {
		return false
	}
	return true
}

func (f Filter) sizeSet() []string {
	if f.Size == "" {
		return f.Sizes
	}
	return append([]string{f.Size}, f.Sizes...)
}

// CacheKey is a canonical encoding of f: equal filters yield equal keys
// regardless of value order or duplicates.
func (f Filter) CacheKey() string {
	return canonical(f).Encode().Encode()
}

// Encode renders f as query parameters understood by ParseQuery.
func (f Filter) Encode() url.Values {
	q := url.Values{}
	if f.Size != "" {
		q.Set("size", f.Size)
	}
	if len(f.Sizes) > 0 {
		q.Set("sizes", strings.Join(f.Sizes, ","))
	}
	if len(f.Colors) > 0 {
		q.Set("colors", strings.Join(f.Colors, ","))
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Available != nil {
		q.Set("available", strconv.FormatBool(*f.Available))
	}
	if f.Featured != nil {
		q.Set("featured", strconv.FormatBool(*f.Featured))
	}
	return q
}

// ParseQuery reads a Filter from query parameters. Multi-valued parameters
// accept both repeated keys and comma separated lists.
func ParseQuery(q url.Values) (Filter, error) {
	f := Filter{
		Size:     strings.TrimSpace(q.Get("size")),
		Sizes:    splitList(q["sizes"]),
		Colors:   splitList(q["colors"]),
		Category: strings.TrimSpace(q.Get("category")),
	}

	var err error
	if f.Available, err = parseBool(q, "available"); err != nil {
		return Filter{}, err
	}
	if f.Featured, err = parseBool(q, "featured"); err != nil {
		return Filter{}, err
	}
	if err := f.Validate(); err != nil {
		return Filter{}, err
	}
	return f, nil
}

func parseBool(q url.Values, key string) (*bool, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("%s must be true or false", key))
	}
	return &v, nil
}

func splitList(raw []string) []string {
	var out []string
	for _, r := range raw {
		for _, v := range strings.Split(r, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func canonical(f Filter) Filter {
	sizes := slices.Clone(f.sizeSet())
	slices.Sort(sizes)
	colors := slices.Clone(f.Colors)
	slices.Sort(colors)
	return Filter{
		Sizes:     slices.Compact(sizes),
		Colors:    slices.Compact(colors),
		Category:  f.Category,
		Available: f.Available,
		Featured:  f.Featured,
	}
}
