package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"admissions/internal/adapters/backend"
	"admissions/internal/adapters/http/middleware"
	"admissions/internal/application/listutil"
	"admissions/internal/application/orchestrators"
	"admissions/internal/application/projections"
	"admissions/internal/domain/enquiry"
	"admissions/internal/domain/modal"
	"admissions/internal/domain/record"
	"admissions/internal/domain/selection"
	"admissions/internal/domain/session"
	"admissions/internal/domain/student"
)

// recordPages serves one record collection (students or enquiries): the
// list page, its add/edit/delete forms and bulk delete.
type recordPages[T record.Identified] struct {
	kind        record.Kind
	template    string
	sortColumns []string
	filterKeys  []string
	statuses    []string
	inputs      []string // fields with an inline error slot on the form
	fromForm    func(r *http.Request) T
	list        func(ctx context.Context, q projections.ListQuery, form *projections.FormState[T]) (projections.ListView[T], error)
	create      func(ctx context.Context, sess session.Context, rec T, choice string) (orchestrators.SaveResult[T], error)
	update      func(ctx context.Context, sess session.Context, rec T, choice string) (orchestrators.SaveResult[T], error)
	deleter     func() orchestrators.RecordDeleter
}

// listPage is the data behind students.html and enquiries.html.
type listPage[T any] struct {
	pageMeta
	View     projections.ListView[T]
	Statuses []string
	// Back is posted with every form so the redirect restores the list state.
	Back string
}

var (
	studentInputs = []string{"first_name", "last_name", "email", "phone_number", "address", "qualification",
		"year_of_passing", "percentage", "course_selected", "college_selected", "status"}
	enquiryInputs = []string{"name", "email", "phone", "place", "qualification", "status", "message"}
)

var studentPages = recordPages[student.Student]{
	kind:        record.KindStudents,
	template:    "students.html",
	sortColumns: projections.StudentSortColumns,
	filterKeys:  projections.StudentFilterKeys,
	statuses:    statusStrings(student.Statuses),
	inputs:      studentInputs,
	fromForm:    studentFromForm,
	list: func(ctx context.Context, q projections.ListQuery, form *projections.FormState[student.Student]) (projections.ListView[student.Student], error) {
		return projections.QueryGetStudentList(ctx, projections.GetStudentListQuery{ListQuery: q, Form: form},
			projections.GetStudentListDeps{StudentStore: stores.Students, StaffStore: stores.Staff})
	},
	create: func(ctx context.Context, sess session.Context, rec student.Student, choice string) (orchestrators.SaveResult[student.Student], error) {
		return orchestrators.ExecuteCreateStudent(ctx, orchestrators.SaveStudentInput{Session: sess, Student: rec, Assignment: choice}, studentSaveDeps())
	},
	update: func(ctx context.Context, sess session.Context, rec student.Student, choice string) (orchestrators.SaveResult[student.Student], error) {
		return orchestrators.ExecuteUpdateStudent(ctx, orchestrators.SaveStudentInput{Session: sess, Student: rec, Assignment: choice}, studentSaveDeps())
	},
	deleter: func() orchestrators.RecordDeleter { return stores.Students },
}

var enquiryPages = recordPages[enquiry.Enquiry]{
	kind:        record.KindEnquiries,
	template:    "enquiries.html",
	sortColumns: projections.EnquirySortColumns,
	filterKeys:  projections.EnquiryFilterKeys,
	statuses:    statusStrings(enquiry.Statuses),
	inputs:      enquiryInputs,
	fromForm:    enquiryFromForm,
	list: func(ctx context.Context, q projections.ListQuery, form *projections.FormState[enquiry.Enquiry]) (projections.ListView[enquiry.Enquiry], error) {
		return projections.QueryGetEnquiryList(ctx, projections.GetEnquiryListQuery{ListQuery: q, Form: form},
			projections.GetEnquiryListDeps{EnquiryStore: stores.Enquiries, StaffStore: stores.Staff})
	},
	create: func(ctx context.Context, sess session.Context, rec enquiry.Enquiry, choice string) (orchestrators.SaveResult[enquiry.Enquiry], error) {
		return orchestrators.ExecuteCreateEnquiry(ctx, orchestrators.SaveEnquiryInput{Session: sess, Enquiry: rec, Assignment: choice}, enquirySaveDeps())
	},
	update: func(ctx context.Context, sess session.Context, rec enquiry.Enquiry, choice string) (orchestrators.SaveResult[enquiry.Enquiry], error) {
		return orchestrators.ExecuteUpdateEnquiry(ctx, orchestrators.SaveEnquiryInput{Session: sess, Enquiry: rec, Assignment: choice}, enquirySaveDeps())
	},
	deleter: func() orchestrators.RecordDeleter { return stores.Enquiries },
}

func statusStrings[S ~string](list []S) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = string(s)
	}
	return out
}

// notifyDeps is nil when no email sender is configured.
func notifyDeps() *orchestrators.NotifyAssignmentDeps {
	if emailSender == nil {
		return nil
	}
	return &orchestrators.NotifyAssignmentDeps{StaffStore: stores.Staff, Sender: emailSender, PortalURL: portalURL}
}

func studentSaveDeps() orchestrators.SaveStudentDeps {
	return orchestrators.SaveStudentDeps{StudentStore: stores.Students, Notify: notifyDeps()}
}

func enquirySaveDeps() orchestrators.SaveEnquiryDeps {
	return orchestrators.SaveEnquiryDeps{EnquiryStore: stores.Enquiries, Notify: notifyDeps()}
}

func formText(r *http.Request, key string) string {
	return strings.TrimSpace(r.PostFormValue(key))
}

func formID(r *http.Request) int64 {
	id, err := strconv.ParseInt(formText(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

func studentFromForm(r *http.Request) student.Student {
	return student.Student{
		ID:              formID(r),
		FirstName:       formText(r, "first_name"),
		LastName:        formText(r, "last_name"),
		Email:           formText(r, "email"),
		PhoneNumber:     formText(r, "phone_number"),
		Address:         formText(r, "address"),
		Qualification:   formText(r, "qualification"),
		YearOfPassing:   record.Text(formText(r, "year_of_passing")),
		Percentage:      record.Text(formText(r, "percentage")),
		CourseSelected:  formText(r, "course_selected"),
		CollegeSelected: formText(r, "college_selected"),
		Status:          student.Status(formText(r, "status")),
	}
}

func enquiryFromForm(r *http.Request) enquiry.Enquiry {
	return enquiry.Enquiry{
		ID:            formID(r),
		Name:          formText(r, "name"),
		Email:         formText(r, "email"),
		Phone:         formText(r, "phone"),
		Message:       strings.TrimSpace(r.PostFormValue("message")),
		Place:         formText(r, "place"),
		Qualification: formText(r, "qualification"),
		Status:        enquiry.Status(formText(r, "status")),
	}
}

// query builds the projection query for a list state.
func (p recordPages[T]) query(sess middleware.Session, q url.Values) projections.ListQuery {
	return projections.ListQuery{
		Session:   sess.Context,
		Params:    listutil.ParseListParams(q, p.sortColumns, p.filterKeys),
		Selection: selection.Parse(q),
		Modal:     modal.ParseRequest(q),
		FormToken: newFormToken(),
	}
}

// keep returns the list parameters and selection of a list state, without any modal.
func (p recordPages[T]) keep(q url.Values) (url.Values, selection.State) {
	return listutil.ParseListParams(q, p.sortColumns, p.filterKeys).Query(), selection.Parse(q)
}

// listURL is where a form post returns to.
func (p recordPages[T]) listURL(q url.Values, extra ...url.Values) string {
	params, sel := p.keep(q)
	return withQuery(p.kind.Path(), append([]url.Values{params, sel.Query()}, extra...)...)
}

func (p recordPages[T]) render(w http.ResponseWriter, r *http.Request, status int, view projections.ListView[T], meta pageMeta) {
	back := url.Values{}
	for k, v := range view.Params.Query() {
		back[k] = v
	}
	for k, v := range view.Selection.Query() {
		back[k] = v
	}
	renderTemplate(w, r, status, p.template, listPage[T]{
		pageMeta: meta,
		View:     view,
		Statuses: p.statuses,
		Back:     back.Encode(),
	})
}

// handleList handles GET (list) and POST (create) for the collection path.
func (p recordPages[T]) handleList(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())

	if r.Method == http.MethodGet {
		view, err := p.list(r.Context(), p.query(sess, r.URL.Query()), nil)
		if !isHTMLRequest(r) {
			if err != nil {
				writeJSON(w, http.StatusBadGateway, map[string]string{"error": noticeFor(err)})
				return
			}
			records := make([]T, 0, len(view.Rows))
			for _, row := range view.Rows {
				records = append(records, row.Record)
			}
			writeJSON(w, http.StatusOK, records)
			return
		}
		meta := newMeta(w, r, p.kind.Title())
		status := http.StatusOK
		if err != nil {
			// The page still renders, empty, with the failure as a notice.
			slog.Warn("list_failed", "kind", string(p.kind), "error", err)
			meta.Notice = noticeFor(err)
			status = http.StatusBadGateway
			view = projections.ListView[T]{Kind: p.kind, IsAdmin: sess.IsAdmin()}
		}
		p.render(w, r, status, view, meta)
		return
	}

	if r.Method == http.MethodPost {
		p.save(w, r, sess, modal.KindAdd)
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// handleUpdate handles POST <collection>/update
func (p recordPages[T]) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())
	p.save(w, r, sess, modal.KindEdit)
}

// save runs a create or update and either redirects to the success dialog
// or shows the form again with the rejection.
func (p recordPages[T]) save(w http.ResponseWriter, r *http.Request, sess middleware.Session, kind modal.Kind) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	back := backQuery(r)
	if rejectReplay(w, r, sess, p.listURL(back)) {
		return
	}

	rec := p.fromForm(r)
	choice := r.PostFormValue(orchestrators.AssignmentField)
	req := modal.Request{Kind: kind}
	done := modal.DoneCreated
	var err error
	if kind == modal.KindEdit {
		req.ID = rec.RecordID()
		done = modal.DoneUpdated
		if req.ID == 0 {
			err = orchestrators.ErrRecordNotFound
		} else {
			_, err = p.update(r.Context(), sess.Context, rec, choice)
		}
	} else {
		_, err = p.create(r.Context(), sess.Context, rec, choice)
	}
	if err != nil {
		releaseFormToken(r)
		p.renderRejected(w, r, sess, back, req, rec, choice, err)
		return
	}

	http.Redirect(w, r, p.listURL(back, modal.Request{Kind: modal.KindSuccess, Done: done}.Query()), http.StatusSeeOther)
}

// formInputs lists the fields the session's form renders.
func (p recordPages[T]) formInputs(sc session.Context) []string {
	if !sc.IsAdmin() {
		return p.inputs
	}
	return append(append([]string(nil), p.inputs...), orchestrators.AssignmentField)
}

// renderRejected re-renders the list with the form still open. Field
// errors go next to their inputs; anything else becomes the form notice.
func (p recordPages[T]) renderRejected(w http.ResponseWriter, r *http.Request, sess middleware.Session, back url.Values, req modal.Request, draft T, choice string, err error) {
	rej := backend.RejectionOf(err)
	status := http.StatusUnprocessableEntity
	meta := pageMeta{Title: p.kind.Title()}
	if rej.HasFieldErrors() {
		meta.Notice = rej.NoticeFor(p.formInputs(sess.Context)...)
	} else {
		meta.Notice = noticeFor(err)
		status = http.StatusBadRequest
		if errors.Is(err, backend.ErrUnavailable) {
			status = http.StatusBadGateway
		}
	}

	q := p.query(sess, back)
	q.Modal = req
	view, lerr := p.list(r.Context(), q, &projections.FormState[T]{Draft: draft, Errors: rej.Fields, Assignment: choice})
	if lerr != nil {
		slog.Warn("list_failed", "kind", string(p.kind), "error", lerr)
		flasher.Error(w, meta.Notice)
		http.Redirect(w, r, p.listURL(back), http.StatusSeeOther)
		return
	}
	p.render(w, r, status, view, meta)
}

// handleDelete handles POST <collection>/delete
func (p recordPages[T]) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	back := backQuery(r)
	if rejectReplay(w, r, sess, p.listURL(back)) {
		return
	}

	id := formID(r)
	err := orchestrators.ErrRecordNotFound
	if id > 0 {
		err = orchestrators.ExecuteDeleteRecord(r.Context(), orchestrators.DeleteRecordInput{
			Session: sess.Context,
			Kind:    p.kind,
			ID:      id,
		}, orchestrators.DeleteRecordDeps{Records: p.deleter()})
	}
	if err != nil {
		releaseFormToken(r)
		flasher.Error(w, noticeFor(err))
		http.Redirect(w, r, p.listURL(back), http.StatusSeeOther)
		return
	}

	params, sel := p.keep(back)
	if sel.Has(id) {
		sel = sel.Toggle(id)
	}
	done := modal.Request{Kind: modal.KindSuccess, Done: modal.DoneDeleted}
	http.Redirect(w, r, withQuery(p.kind.Path(), params, sel.Query(), done.Query()), http.StatusSeeOther)
}

// handleBulkDelete handles POST <collection>/bulk-delete. Every selected
// record is attempted; the ones that failed stay selected afterwards.
func (p recordPages[T]) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	back := backQuery(r)
	if rejectReplay(w, r, sess, p.listURL(back)) {
		return
	}

	params, sel := p.keep(back)
	report, err := orchestrators.ExecuteBulkDelete(r.Context(), orchestrators.BulkDeleteInput{
		Session: sess.Context,
		Kind:    p.kind,
		IDs:     sel.IDs(),
	}, orchestrators.DeleteRecordDeps{Records: p.deleter()})
	if err != nil {
		releaseFormToken(r)
		flasher.Error(w, noticeFor(err))
		http.Redirect(w, r, p.listURL(back), http.StatusSeeOther)
		return
	}

	summary := report.Summary(p.kind.Singular())
	if report.AllSucceeded() {
		flasher.Success(w, summary)
		http.Redirect(w, r, withQuery(p.kind.Path(), params), http.StatusSeeOther)
		return
	}
	flasher.Error(w, summary)
	remaining := selection.State{}.SelectAll(report.Failed())
	http.Redirect(w, r, withQuery(p.kind.Path(), params, remaining.Query()), http.StatusSeeOther)
}
