package web

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"admissions/internal/adapters/backend"
	"admissions/internal/adapters/http/middleware"
	"admissions/internal/application/orchestrators"
	"admissions/internal/application/projections"
	"admissions/internal/domain/modal"
	"admissions/internal/domain/staff"
)

// staffPage is the data behind staff.html.
type staffPage struct {
	pageMeta
	View projections.StaffListView
	Back string
	// FormToken guards the document link forms of the detail dialog.
	FormToken string
}

func staffSaveDeps() orchestrators.SaveStaffDeps {
	return orchestrators.SaveStaffDeps{StaffStore: stores.Staff}
}

func staffFromForm(r *http.Request) staff.Staff {
	return staff.Staff{
		ID:           formID(r),
		Name:         formText(r, "name"),
		Email:        formText(r, "email"),
		Phone:        formText(r, "phone"),
		LoginID:      formText(r, "login_id"),
		Password:     r.PostFormValue("password"),
		ActiveStatus: r.PostFormValue("active_status") != "",
	}
}

// staffSearch keeps only the search term of a posted list state.
func staffSearch(q url.Values) url.Values {
	out := url.Values{}
	if s := strings.TrimSpace(q.Get("q")); s != "" {
		out.Set("q", s)
	}
	return out
}

func renderStaff(w http.ResponseWriter, r *http.Request, status int, query projections.GetStaffListQuery, meta pageMeta) {
	view, err := projections.QueryGetStaffList(r.Context(), query, projections.GetStaffListDeps{
		StaffStore:   stores.Staff,
		StudentStore: stores.Students,
	})
	if err != nil {
		meta.Notice = noticeFor(err)
		status = http.StatusBadGateway
		view = projections.StaffListView{Search: query.Search, CloseHref: projections.StaffPath}
	}
	renderTemplate(w, r, status, "staff.html", staffPage{
		pageMeta:  meta,
		View:      view,
		Back:      staffSearch(url.Values{"q": {query.Search}}).Encode(),
		FormToken: query.FormToken,
	})
}

// handleStaff handles GET (list) and POST (create) for /staff
func handleStaff(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		query := projections.GetStaffListQuery{
			Search:    q.Get("q"),
			Modal:     modal.ParseRequest(q),
			FormToken: newFormToken(),
		}
		if !isHTMLRequest(r) {
			view, err := projections.QueryGetStaffList(r.Context(), query, projections.GetStaffListDeps{
				StaffStore:   stores.Staff,
				StudentStore: stores.Students,
			})
			if err != nil {
				writeJSON(w, http.StatusBadGateway, map[string]string{"error": noticeFor(err)})
				return
			}
			list := make([]staff.Staff, 0, len(view.Rows))
			for _, row := range view.Rows {
				list = append(list, row.Staff)
			}
			writeJSON(w, http.StatusOK, list)
			return
		}
		renderStaff(w, r, http.StatusOK, query, newMeta(w, r, "Staff"))
		return
	}

	if r.Method == http.MethodPost {
		saveStaff(w, r, modal.KindAdd)
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// handleStaffUpdate handles POST /staff/update
func handleStaffUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	saveStaff(w, r, modal.KindEdit)
}

func saveStaff(w http.ResponseWriter, r *http.Request, kind modal.Kind) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	search := staffSearch(backQuery(r))
	if rejectReplay(w, r, sess, withQuery(projections.StaffPath, search)) {
		return
	}

	st := staffFromForm(r)
	req := modal.Request{Kind: kind}
	done := modal.DoneCreated
	if kind == modal.KindEdit {
		req.ID, done = st.ID, modal.DoneUpdated
	}
	var err error
	if kind == modal.KindEdit && st.ID == 0 {
		err = orchestrators.ErrRecordNotFound
	} else {
		_, err = orchestrators.ExecuteSaveStaff(r.Context(), orchestrators.SaveStaffInput{Session: sess.Context, Staff: st}, staffSaveDeps())
	}
	if err != nil {
		releaseFormToken(r)
		rej := backend.RejectionOf(err)
		meta := pageMeta{Title: "Staff", Notice: rej.NoticeFor(staffInputs...)}
		status := http.StatusUnprocessableEntity
		if !rej.HasFieldErrors() {
			meta.Notice = noticeFor(err)
			status = http.StatusBadRequest
		}
		st.Password = ""
		renderStaff(w, r, status, projections.GetStaffListQuery{
			Search:    search.Get("q"),
			Modal:     req,
			FormToken: newFormToken(),
			Form:      &projections.FormState[staff.Staff]{Draft: st, Errors: rej.Fields},
		}, meta)
		return
	}

	http.Redirect(w, r, withQuery(projections.StaffPath, search, modal.Request{Kind: modal.KindSuccess, Done: done}.Query()), http.StatusSeeOther)
}

// staffInputs are the staff form fields with an inline error slot.
var staffInputs = []string{"name", "email", "phone", "login_id", "password"}

// handleStaffDelete handles POST /staff/delete
func handleStaffDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	search := staffSearch(backQuery(r))
	back := withQuery(projections.StaffPath, search)
	if rejectReplay(w, r, sess, back) {
		return
	}

	err := orchestrators.ExecuteDeleteStaff(r.Context(), orchestrators.DeleteStaffInput{Session: sess.Context, ID: formID(r)}, staffSaveDeps())
	if err != nil {
		releaseFormToken(r)
		flasher.Error(w, noticeFor(err))
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, withQuery(projections.StaffPath, search, modal.Request{Kind: modal.KindSuccess, Done: modal.DoneDeleted}.Query()), http.StatusSeeOther)
}

// handleStaffLinkAdd handles POST /staff/links/add
func handleStaffLinkAdd(w http.ResponseWriter, r *http.Request) {
	editStaffLink(w, r, orchestrators.ExecuteAddStaffLink, "Document link saved.")
}

// handleStaffLinkRemove handles POST /staff/links/remove
func handleStaffLinkRemove(w http.ResponseWriter, r *http.Request) {
	editStaffLink(w, r, orchestrators.ExecuteRemoveStaffLink, "Document link removed.")
}

func editStaffLink(w http.ResponseWriter, r *http.Request, exec func(context.Context, orchestrators.StaffLinkInput, orchestrators.SaveStaffDeps) (staff.Staff, error), okMsg string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	id := formID(r)
	back := withQuery(projections.StaffPath, staffSearch(backQuery(r)), modal.Request{Kind: modal.KindView, ID: id}.Query())
	if rejectReplay(w, r, sess, back) {
		return
	}

	_, err := exec(r.Context(), orchestrators.StaffLinkInput{
		Session: sess.Context,
		StaffID: id,
		Label:   r.PostFormValue("label"),
		URL:     r.PostFormValue("url"),
	}, staffSaveDeps())
	if err != nil {
		releaseFormToken(r)
		flasher.Error(w, noticeFor(err))
	} else {
		flasher.Success(w, okMsg)
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}
