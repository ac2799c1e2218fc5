// Package listutil parses and applies the search, filter and sort controls
// shared by the record list views.
package listutil

import (
	"net/url"
	"slices"
	"strings"
)

// SortParams carries sorting parameters parsed from a request.
type SortParams struct {
	Sort string // column name; "" keeps the backend order
	Dir  string // "asc" or "desc"
}

// FilterParams carries search and filter parameters.
type FilterParams struct {
	Search  string            // free-text search query
	Filters map[string]string // exact-match filters (e.g. status=Pending)
}

// ListParams combines all list view parameters.
type ListParams struct {
	SortParams
	FilterParams
}

// ParseSortParams extracts sort and dir from URL query values.
// PRE: none
// POST: returns SortParams; Dir is always "asc" or "desc"
func ParseSortParams(q url.Values, allowedColumns []string) SortParams {
	col := q.Get("sort")
	dir := q.Get("dir")

	if !slices.Contains(allowedColumns, col) {
		col = ""
	}
	if dir != "asc" && dir != "desc" {
		dir = "asc"
	}
	return SortParams{Sort: col, Dir: dir}
}

// ParseFilterParams extracts search and named filters from URL query values.
// PRE: filterKeys lists the allowed filter parameter names
// POST: returns FilterParams with only recognised keys
func ParseFilterParams(q url.Values, filterKeys []string) FilterParams {
	fp := FilterParams{
		Search:  strings.TrimSpace(q.Get("q")),
		Filters: make(map[string]string),
	}
	for _, key := range filterKeys {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			fp.Filters[key] = v
		}
	}
	return fp
}

// ParseListParams parses all list parameters from URL query values.
func ParseListParams(q url.Values, allowedSortCols []string, filterKeys []string) ListParams {
	return ListParams{
		SortParams:   ParseSortParams(q, allowedSortCols),
		FilterParams: ParseFilterParams(q, filterKeys),
	}
}

// HasFilters reports whether any search or filter narrows the list.
func (fp FilterParams) HasFilters() bool {
	return fp.Search != "" || len(fp.Filters) > 0
}

// NextDir returns the direction a header link for col should request.
func (s SortParams) NextDir(col string) string {
	if s.Sort == col && s.Dir == "asc" {
		return "desc"
	}
	return "asc"
}

// Query encodes the parameters back into URL values, omitting defaults.
func (p ListParams) Query() url.Values {
	q := url.Values{}
	if p.Search != "" {
		q.Set("q", p.Search)
	}
	for k, v := range p.Filters {
		q.Set(k, v)
	}
	if p.Sort != "" {
		q.Set("sort", p.Sort)
		q.Set("dir", p.Dir)
	}
	return q
}

// SortKeys maps a sortable column to the value compared for it.
type SortKeys[T any] map[string]func(T) string

// Apply sorts items in place by the requested column, case-insensitively.
// An unknown or empty column leaves the order unchanged.
// POST: equal keys keep their relative order
func (keys SortKeys[T]) Apply(items []T, sp SortParams) {
	key, ok := keys[sp.Sort]
	if !ok {
		return
	}
	slices.SortStableFunc(items, func(a, b T) int {
		c := strings.Compare(strings.ToLower(key(a)), strings.ToLower(key(b)))
		if sp.Dir == "desc" {
			return -c
		}
		return c
	})
}

// Columns lists the sortable column names.
func (keys SortKeys[T]) Columns() []string {
	cols := make([]string, 0, len(keys))
	for k := range keys {
		cols = append(cols, k)
	}
	slices.Sort(cols)
	return cols
}
