package catalog

import (
	"slices"
	"sort"
	"strconv"

	"github.com/utafrali/dressrental/internal/domain"
)

// ApplyFilters returns the dresses matching f in their original relative
// order. An empty filter returns every dress.
func ApplyFilters(dresses []domain.Dress, f Filter) []domain.Dress {
	out := make([]domain.Dress, 0, len(dresses))
	for _, d := range dresses {
		if f.Matches(d) {
			out = append(out, d)
		}
	}
	return out
}

// Sort orders dresses in place: available first, then newest first. Ties keep
// their relative order.
func Sort(dresses []domain.Dress) {
	slices.SortStableFunc(dresses, func(a, b domain.Dress) int {
		if a.Available != b.Available {
			if a.Available {
				return -1
			}
			return 1
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// Query is the listing result: the filtered dresses in listing order.
func Query(dresses []domain.Dress, f Filter) []domain.Dress {
	out := ApplyFilters(dresses, f)
	Sort(out)
	return out
}

// Facets lists the distinct values present in a set of dresses, used to build
// the filter controls.
type Facets struct {
	Sizes      []string `json:"sizes"`
	Colors     []string `json:"colors"`
	Categories []string `json:"categories"`
}

func BuildFacets(dresses []domain.Dress) Facets {
	sizes := map[string]struct{}{}
	colors := map[string]struct{}{}
	categories := map[string]struct{}{}
	for _, d := range dresses {
		for _, s := range d.Sizes {
			sizes[s] = struct{}{}
		}
		for _, c := range d.Colors {
			colors[c] = struct{}{}
		}
		if d.Category != "" {
			categories[d.Category] = struct{}{}
		}
	}
	return Facets{
		Sizes:      sortedSizes(sizes),
		Colors:     sortedKeys(colors),
		Categories: sortedKeys(categories),
	}
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortedSizes orders numeric sizes numerically and everything else after
// them, alphabetically.
func sortedSizes(m map[string]struct{}) []string {
	keys := sortedKeys(m)
	sort.SliceStable(keys, func(i, j int) bool {
		a, aok := atoi(keys[i])
		b, bok := atoi(keys[j])
		switch {
		case aok && bok:
			return a < b
		case aok != bok:
			return aok
		default:
			return false
		}
	})
	return keys
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil
}
