// Package bulk reports the per-record outcome of a best-effort batch.
package bulk

import (
	"fmt"
	"sort"
)

// Outcome is the result of one item of a batch.
type Outcome struct {
	ID  int64
	Err error
}

// OK reports whether the item succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Report collects every outcome of a batch. Items never abort each other.
type Report struct {
	Outcomes []Outcome
}

// Record appends one outcome.
func (r *Report) Record(id int64, err error) {
	r.Outcomes = append(r.Outcomes, Outcome{ID: id, Err: err})
}

// Succeeded returns the ids that succeeded, ascending.
func (r Report) Succeeded() []int64 {
	return r.collect(true)
}

// Failed returns the ids that failed, ascending.
func (r Report) Failed() []int64 {
	return r.collect(false)
}

// Total is the number of items attempted.
func (r Report) Total() int {
	return len(r.Outcomes)
}

// AllSucceeded reports whether every item succeeded.
func (r Report) AllSucceeded() bool {
	for _, o := range r.Outcomes {
		if !o.OK() {
			return false
		}
	}
	return true
}

// Summary is the notice shown after the batch settles.
func (r Report) Summary(noun string) string {
	failed := len(r.Failed())
	ok := r.Total() - failed
	switch {
	case failed == 0:
		return fmt.Sprintf("Deleted %d %s.", ok, plural(ok, noun))
	case ok == 0:
		return fmt.Sprintf("Could not delete %d %s. Operation failed.", failed, plural(failed, noun))
	}
	return fmt.Sprintf("Deleted %d of %d %s. %d could not be deleted and remain selected.",
		ok, r.Total(), plural(r.Total(), noun), failed)
}

func (r Report) collect(ok bool) []int64 {
	var out []int64
	for _, o := range r.Outcomes {
		if o.OK() == ok {
			out = append(out, o.ID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func plural(n int, noun string) string {
	if n == 1 {
		return noun
	}
	switch noun {
	case "enquiry":
		return "enquiries"
	case "":
		return "records"
	}
	return noun + "s"
}
