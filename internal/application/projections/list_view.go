package projections

import (
	"context"
	"log/slog"
	"net/url"

	"admissions/internal/application/listutil"
	"admissions/internal/domain/assignment"
	"admissions/internal/domain/modal"
	"admissions/internal/domain/record"
	"admissions/internal/domain/rejection"
	"admissions/internal/domain/selection"
	"admissions/internal/domain/session"
	"admissions/internal/domain/staff"
)

// ListQuery carries the request state shared by the record list views.
type ListQuery struct {
	Session   session.Context
	Params    listutil.ListParams
	Selection selection.State
	Modal     modal.Request
	FormToken string // one-time token placed in any form the modal renders
}

// FormState is a form being re-rendered after a rejected submission.
type FormState[T any] struct {
	Draft      T
	Errors     rejection.FieldErrors
	Assignment string
}

// Row is one rendered table row.
type Row[T any] struct {
	Record   T
	ID       int64
	Selected bool
	// ClickHref is what a plain click does: open the detail view, or toggle
	// the row while selection mode is active.
	ClickHref string
	// LongPressHref enters selection mode with only this row selected.
	LongPressHref string
	EditHref      string
	DeleteHref    string
}

// ListView is the rendered state of a record list page.
type ListView[T any] struct {
	Kind   record.Kind
	Params listutil.ListParams
	Rows   []Row[T]
	// Loaded is the number of records the backend returned.
	Loaded int
	// Suppressed is true when the session has no usable staff id, so no
	// fetch was made.
	Suppressed     bool
	IsAdmin        bool
	Selection      selection.State
	AllSelected    bool
	SelectAllHref  string
	CancelHref     string
	BulkDeleteHref string
	AddHref        string
	CloseHref      string
	Modal          modal.Modal
	// ModalMissing is true when the modal named a row that is not loaded.
	ModalMissing bool
	// Staff is the active staff for the assignment selector (administrators only).
	Staff []staff.Staff
}

// Count is the number of rendered rows.
func (v ListView[T]) Count() int {
	return len(v.Rows)
}

// HasRows reports whether any row is rendered.
func (v ListView[T]) HasRows() bool {
	return len(v.Rows) > 0
}

// SortHref returns the header link that sorts by col.
func (v ListView[T]) SortHref(col string) string {
	p := v.Params
	p.Sort = col
	p.Dir = v.Params.NextDir(col)
	return href(v.Kind.Path(), p.Query(), v.Selection.Query())
}

// listShape is what differs between the student and enquiry list views.
type listShape[T any] struct {
	kind       record.Kind
	matches    func(T, listutil.FilterParams) bool
	sortKeys   listutil.SortKeys[T]
	current    func(T) *int64 // current assignment, for the edit form selector
	label      func(T) string // current assignee's display name
	// assignable is the selector's staff list; nil when not an administrator
	// or when the staff fetch failed.
	assignable []staff.Staff
}

// buildList turns fetched records into the page state.
// PRE: records came from a fetch scoped by q.Session
// POST: len(Rows) equals the number of records passing the filters; the
// selection only holds ids of rendered rows
func buildList[T record.Identified](q ListQuery, records []T, form *FormState[T], shape listShape[T]) ListView[T] {
	view := ListView[T]{
		Kind:    shape.kind,
		Params:  q.Params,
		Loaded:  len(records),
		IsAdmin: q.Session.IsAdmin(),
		Staff:   shape.assignable,
	}

	visible := make([]T, 0, len(records))
	for _, r := range records {
		if shape.matches(r, q.Params.FilterParams) {
			visible = append(visible, r)
		}
	}
	shape.sortKeys.Apply(visible, q.Params.SortParams)

	ids := make([]int64, len(visible))
	for i, r := range visible {
		ids[i] = r.RecordID()
	}
	sel := q.Selection.Restrict(ids)
	view.Selection = sel
	view.AllSelected = sel.AllSelected(len(ids))

	path := shape.kind.Path()
	params := q.Params.Query()
	view.Rows = make([]Row[T], len(visible))
	for i, r := range visible {
		id := ids[i]
		row := Row[T]{
			Record:        r,
			ID:            id,
			Selected:      sel.Has(id),
			LongPressHref: href(path, params, selection.Enter(id).Query()),
			EditHref:      href(path, params, sel.Query(), modal.Request{Kind: modal.KindEdit, ID: id}.Query()),
			DeleteHref:    href(path, params, sel.Query(), modal.Request{Kind: modal.KindDelete, ID: id}.Query()),
		}
		if sel.Active {
			row.ClickHref = href(path, params, sel.Toggle(id).Query())
		} else {
			row.ClickHref = href(path, params, modal.Request{Kind: modal.KindView, ID: id}.Query())
		}
		view.Rows[i] = row
	}

	view.SelectAllHref = href(path, params, sel.ToggleAll(ids).Query())
	view.CancelHref = href(path, params)
	view.CloseHref = href(path, params, sel.Query())
	view.AddHref = href(path, params, sel.Query(), modal.Request{Kind: modal.KindAdd}.Query())
	view.BulkDeleteHref = href(path, params, sel.Query(), modal.Request{Kind: modal.KindBulkDelete}.Query())

	view.Modal, view.ModalMissing = resolveModal(q, records, sel, form, shape)
	return view
}

// resolveModal turns the modal request into a concrete variant.
// A request for a row that is not loaded yields (nil, true).
func resolveModal[T record.Identified](q ListQuery, records []T, sel selection.State, form *FormState[T], shape listShape[T]) (modal.Modal, bool) {
	req := q.Modal
	var target T
	if req.Kind.NeedsID() {
		found := false
		for _, r := range records {
			if r.RecordID() == req.ID {
				target, found = r, true
				break
			}
		}
		if !found {
			return nil, true
		}
	}

	switch req.Kind {
	case modal.KindAdd:
		m := modal.Add[T]{FormToken: q.FormToken, Assignment: assignment.ValueUnassigned}
		if form != nil {
			m.Draft, m.Errors, m.Assignment = form.Draft, form.Errors, form.Assignment
		}
		return m, false
	case modal.KindEdit:
		m := modal.Edit[T]{Record: target, FormToken: q.FormToken, Assignment: assignment.FormValue(shape.current(target))}
		if q.Session.IsAdmin() {
			if cur := shape.current(target); cur != nil {
				if _, listed := staff.Find(shape.assignable, *cur); !listed {
					m.Keep = shape.label(target) + " (current)"
					m.Assignment = assignment.ValueKeep
				}
			}
		}
		if form != nil {
			m.Record, m.Errors, m.Assignment = form.Draft, form.Errors, form.Assignment
		}
		return m, false
	case modal.KindView:
		return modal.View[T]{Record: target}, false
	case modal.KindDelete:
		return modal.Delete[T]{Record: target, FormToken: q.FormToken}, false
	case modal.KindBulkDelete:
		if sel.Count() == 0 {
			return nil, false
		}
		return modal.BulkDelete{IDs: sel.IDs(), FormToken: q.FormToken}, false
	case modal.KindSuccess:
		return modal.Success{Message: modal.SuccessMessage(shape.kind.Singular(), req.Done)}, false
	}
	return nil, false
}

// assignableStaff returns the active staff for the selector, administrators only.
func assignableStaff(ctx context.Context, sess session.Context, store StaffStore) []staff.Staff {
	if !sess.IsAdmin() || store == nil {
		return nil
	}
	list, err := store.List(ctx)
	if err != nil {
		// The list still renders; an edit form keeps its current assignee.
		slog.Warn("staff_list_failed", "error", err)
		return nil
	}
	return staff.ActiveOnly(list)
}

// href joins a path with query fragments; later fragments win.
func href(path string, parts ...url.Values) string {
	q := url.Values{}
	for _, p := range parts {
		for k, v := range p {
			q[k] = v
		}
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
