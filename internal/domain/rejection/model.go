package rejection

import (
	"encoding/json"
	"sort"
	"strings"
)

// GenericMessage is shown when a failure carries nothing more specific.
const GenericMessage = "Operation failed"

// FieldErrors maps a form field name to the messages reported for it.
type FieldErrors map[string][]string

// Add appends a message for a field.
func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// First returns the message displayed next to the field's input.
func (fe FieldErrors) First(field string) string {
	if msgs := fe[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Has reports whether the field has at least one message.
func (fe FieldErrors) Has(field string) bool {
	return len(fe[field]) > 0
}

// Fields returns the offending field names in sorted order.
func (fe FieldErrors) Fields() []string {
	names := make([]string, 0, len(fe))
	for k := range fe {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Unplaced returns "field: message" for each field without an input in
// shown, sorted by field.
func (fe FieldErrors) Unplaced(shown ...string) []string {
	placed := make(map[string]bool, len(shown))
	for _, f := range shown {
		placed[f] = true
	}
	var out []string
	for _, f := range fe.Fields() {
		if !placed[f] && fe.Has(f) {
			out = append(out, f+": "+fe.First(f))
		}
	}
	return out
}

// Rejection is a backend refusal, split into inline field errors and an
// optional top-level message.
type Rejection struct {
	Status  int
	Fields  FieldErrors
	Message string
}

// Error implements error.
func (r *Rejection) Error() string {
	if r.Message != "" {
		return r.Message
	}
	if len(r.Fields) > 0 {
		parts := make([]string, 0, len(r.Fields))
		for _, f := range r.Fields.Fields() {
			parts = append(parts, f+": "+r.Fields.First(f))
		}
		return strings.Join(parts, "; ")
	}
	return GenericMessage
}

// Notice returns the transient message to show, or "" if the rejection is
// purely field-level.
func (r *Rejection) Notice() string {
	return r.Message
}

// NoticeFor is Notice plus every field error the form cannot show inline.
// POST: Returns "" only when every message has a rendered input
func (r *Rejection) NoticeFor(shown ...string) string {
	parts := r.Fields.Unplaced(shown...)
	if r.Message != "" {
		parts = append([]string{r.Message}, parts...)
	}
	return strings.Join(parts, "; ")
}

// HasFieldErrors reports whether any field-level messages were returned.
func (r *Rejection) HasFieldErrors() bool {
	return len(r.Fields) > 0
}

// topLevelKeys carry a single message rather than a field annotation,
// in order of preference.
var topLevelKeys = []string{"error", "detail", "non_field_errors"}

func isTopLevel(key string) bool {
	for _, k := range topLevelKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Parse redistributes a rejection body into field errors and a top-level message.
// PRE: body is the raw response body (may be empty or non-JSON)
// POST: Returns a Rejection; Fields is never nil
func Parse(status int, body []byte) *Rejection {
	r := &Rejection{Status: status, Fields: FieldErrors{}}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return r
	}

	for _, key := range topLevelKeys {
		if msgs := decodeMessages(raw[key]); len(msgs) > 0 {
			r.Message = strings.Join(msgs, " ")
			break
		}
	}
	for key, value := range raw {
		if isTopLevel(key) {
			continue
		}
		for _, m := range decodeMessages(value) {
			r.Fields.Add(key, m)
		}
	}
	return r
}

// decodeMessages accepts a string, a list of strings, or a nested object.
func decodeMessages(value json.RawMessage) []string {
	var single string
	if err := json.Unmarshal(value, &single); err == nil {
		if single == "" {
			return nil
		}
		return []string{single}
	}
	var list []any
	if err := json.Unmarshal(value, &list); err == nil {
		var out []string
		for _, item := range list {
			switch v := item.(type) {
			case string:
				out = append(out, v)
			case nil:
			default:
				b, _ := json.Marshal(v)
				out = append(out, string(b))
			}
		}
		return out
	}
	var nested map[string]json.RawMessage
	if err := json.Unmarshal(value, &nested); err == nil {
		var out []string
		keys := make([]string, 0, len(nested))
		for k := range nested {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			for _, m := range decodeMessages(nested[k]) {
				out = append(out, k+": "+m)
			}
		}
		return out
	}
	return nil
}
