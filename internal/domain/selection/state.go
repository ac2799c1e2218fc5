// Package selection holds the multi-select state of a list view.
//
// The state travels in the query string (select=1&sel=3,5,8) so every
// page render derives it from the request and nothing is kept server-side.
package selection

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Query parameter names.
const (
	ParamActive = "select"
	ParamIDs    = "sel"
)

// LongPressMillis is how long a row must be held before selection mode starts.
const LongPressMillis = 800

// State is the selection mode flag plus the set of selected identifiers.
// The zero value is inactive and empty.
type State struct {
	Active bool
	ids    map[int64]struct{}
}

// Parse reads the state from query parameters. Malformed ids are ignored.
// A non-empty id list implies selection mode.
func Parse(q url.Values) State {
	s := State{Active: q.Get(ParamActive) == "1"}
	for _, raw := range q[ParamIDs] {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil || id <= 0 {
				continue
			}
			s.add(id)
		}
	}
	if len(s.ids) > 0 {
		s.Active = true
	}
	return s
}

// Query serialises the state. An inactive state produces no parameters.
func (s State) Query() url.Values {
	q := url.Values{}
	if !s.Active {
		return q
	}
	q.Set(ParamActive, "1")
	if len(s.ids) > 0 {
		parts := make([]string, 0, len(s.ids))
		for _, id := range s.IDs() {
			parts = append(parts, strconv.FormatInt(id, 10))
		}
		q.Set(ParamIDs, strings.Join(parts, ","))
	}
	return q
}

// Enter starts selection mode with exactly the given row selected.
func Enter(id int64) State {
	s := State{Active: true}
	s.add(id)
	return s
}

// Toggle flips one identifier's membership.
// PRE: selection mode is active
func (s State) Toggle(id int64) State {
	out := s.clone()
	if _, ok := out.ids[id]; ok {
		delete(out.ids, id)
	} else {
		out.add(id)
	}
	return out
}

// SelectAll selects exactly the given identifiers.
func (s State) SelectAll(ids []int64) State {
	out := State{Active: true}
	for _, id := range ids {
		out.add(id)
	}
	return out
}

// ToggleAll is the header checkbox: when everything is selected it clears the
// set, otherwise it selects every loaded row.
func (s State) ToggleAll(ids []int64) State {
	if s.AllSelected(len(ids)) {
		return State{Active: true}
	}
	return s.SelectAll(ids)
}

// Clear leaves selection mode and empties the set.
func (s State) Clear() State {
	return State{}
}

// Count returns the number of selected identifiers.
func (s State) Count() int {
	return len(s.ids)
}

// Has reports whether id is selected.
func (s State) Has(id int64) bool {
	_, ok := s.ids[id]
	return ok
}

// IDs returns the selected identifiers in ascending order.
func (s State) IDs() []int64 {
	out := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AllSelected is the derived header checkbox state.
// INVARIANT: true iff Count() > 0 and Count() == total
func (s State) AllSelected(total int) bool {
	return total > 0 && len(s.ids) == total
}

// Restrict drops identifiers that are not among the loaded rows.
func (s State) Restrict(loaded []int64) State {
	present := make(map[int64]struct{}, len(loaded))
	for _, id := range loaded {
		present[id] = struct{}{}
	}
	out := State{Active: s.Active}
	for id := range s.ids {
		if _, ok := present[id]; ok {
			out.add(id)
		}
	}
	return out
}

func (s *State) add(id int64) {
	if s.ids == nil {
		s.ids = make(map[int64]struct{})
	}
	s.ids[id] = struct{}{}
}

func (s State) clone() State {
	out := State{Active: s.Active}
	for id := range s.ids {
		out.add(id)
	}
	return out
}
