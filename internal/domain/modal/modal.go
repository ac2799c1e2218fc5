// Package modal is the closed set of dialogs a list view can show.
//
// A page shows at most one modal. Which one is requested through the
// query string (?modal=edit&id=4); the list projection resolves the
// request against the freshly fetched rows into a concrete variant.
package modal

import (
	"net/url"
	"strconv"
	"strings"

	"admissions/internal/domain/rejection"
)

// Kind identifies a modal variant.
type Kind string

// Kind constants
const (
	KindNone             Kind = ""
	KindAdd              Kind = "add"
	KindEdit             Kind = "edit"
	KindView             Kind = "view"
	KindDelete           Kind = "delete"
	KindBulkDelete       Kind = "bulk_delete"
	KindSuccess          Kind = "success"
	KindAssignedStudents Kind = "students"
)

// Query parameter names.
const (
	ParamKind = "modal"
	ParamID   = "id"
	ParamDone = "done"
)

// NeedsID reports whether the variant targets one row.
func (k Kind) NeedsID() bool {
	switch k {
	case KindEdit, KindView, KindDelete, KindAssignedStudents:
		return true
	}
	return false
}

// Modal is implemented only by the variants in this package.
type Modal interface {
	Kind() Kind
	sealed()
}

// Add is the create form.
type Add[T any] struct {
	Draft      T
	Errors     rejection.FieldErrors
	FormToken  string
	Assignment string
}

// Edit is the edit form for an existing record.
type Edit[T any] struct {
	Record     T
	Errors     rejection.FieldErrors
	FormToken  string
	Assignment string
	// Keep labels the current assignee when the selector does not list them.
	Keep       string
}

// View is the read-only detail dialog.
type View[T any] struct {
	Record T
}

// Delete confirms a single delete.
type Delete[T any] struct {
	Record    T
	FormToken string
}

// BulkDelete confirms deleting every selected row.
type BulkDelete struct {
	IDs       []int64
	FormToken string
}

// Count is the number of records the confirmation names.
func (b BulkDelete) Count() int {
	return len(b.IDs)
}

// Success confirms a completed mutation.
type Success struct {
	Message string
}

// AssignedStudents lists the students assigned to one staff member.
type AssignedStudents[S, R any] struct {
	Staff    S
	Students []R
}

func (Add[T]) Kind() Kind                 { return KindAdd }
func (Edit[T]) Kind() Kind                { return KindEdit }
func (View[T]) Kind() Kind                { return KindView }
func (Delete[T]) Kind() Kind              { return KindDelete }
func (BulkDelete) Kind() Kind             { return KindBulkDelete }
func (Success) Kind() Kind                { return KindSuccess }
func (AssignedStudents[S, R]) Kind() Kind { return KindAssignedStudents }

func (Add[T]) sealed()                 {}
func (Edit[T]) sealed()                {}
func (View[T]) sealed()                {}
func (Delete[T]) sealed()              {}
func (BulkDelete) sealed()             {}
func (Success) sealed()                {}
func (AssignedStudents[S, R]) sealed() {}

// Request is the unresolved modal named by the query string.
type Request struct {
	Kind Kind
	ID   int64
	Done string
}

// ParseRequest reads ?modal=, ?id= and ?done=. Unknown kinds, and kinds
// that need a row but carry no usable id, yield KindNone.
func ParseRequest(q url.Values) Request {
	k := Kind(strings.ToLower(strings.TrimSpace(q.Get(ParamKind))))
	switch k {
	case KindAdd, KindEdit, KindView, KindDelete, KindBulkDelete, KindSuccess, KindAssignedStudents:
	default:
		return Request{}
	}
	r := Request{Kind: k, Done: strings.TrimSpace(q.Get(ParamDone))}
	if k.NeedsID() {
		id, err := strconv.ParseInt(q.Get(ParamID), 10, 64)
		if err != nil || id <= 0 {
			return Request{}
		}
		r.ID = id
	}
	return r
}

// Query serialises the request.
func (r Request) Query() url.Values {
	q := url.Values{}
	if r.Kind == KindNone {
		return q
	}
	q.Set(ParamKind, string(r.Kind))
	if r.Kind.NeedsID() {
		q.Set(ParamID, strconv.FormatInt(r.ID, 10))
	}
	if r.Done != "" {
		q.Set(ParamDone, r.Done)
	}
	return q
}

// Done values for the success dialog.
const (
	DoneCreated = "created"
	DoneUpdated = "updated"
	DoneDeleted = "deleted"
)

// SuccessMessage returns the confirmation text for a completed mutation.
func SuccessMessage(noun, done string) string {
	noun = strings.TrimSpace(noun)
	if noun == "" {
		noun = "Record"
	} else {
		noun = strings.ToUpper(noun[:1]) + noun[1:]
	}
	switch done {
	case DoneCreated:
		return noun + " added successfully!"
	case DoneUpdated:
		return noun + " updated successfully!"
	case DoneDeleted:
		return noun + " deleted successfully!"
	}
	return "Saved successfully!"
}
