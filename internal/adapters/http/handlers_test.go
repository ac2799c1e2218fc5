package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"admissions/internal/adapters/backend"
	"admissions/internal/adapters/backend/auth"
	"admissions/internal/adapters/http/middleware"
	"admissions/internal/adapters/http/perf"
	"admissions/internal/domain/rejection"
	"admissions/internal/domain/session"
	"admissions/internal/domain/student"
)

func apiRejection(status int, msg string) *backend.APIError {
	return &backend.APIError{
		Method:    http.MethodDelete,
		Path:      "/api/submit/2/",
		Status:    status,
		Rejection: &rejection.Rejection{Status: status, Message: msg, Fields: rejection.FieldErrors{}},
	}
}

func TestHandleHome_Anonymous(t *testing.T) {
	newTestStores()
	rec := httptest.NewRecorder()
	handleHome(rec, pageRequest("/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "admin-login-link") || !strings.Contains(body, "staff-login-link") {
		t.Error("expected both portal links on the landing page")
	}
}

func TestHandleHome_LoggedInRedirects(t *testing.T) {
	newTestStores()
	rec := httptest.NewRecorder()
	handleHome(rec, pageRequest("/", &staffSession))

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/students" {
		t.Fatalf("expected redirect to /students, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestHandleHome_UnknownPath(t *testing.T) {
	newTestStores()
	rec := httptest.NewRecorder()
	handleHome(rec, pageRequest("/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestStudentList_StaffScope(t *testing.T) {
	ts := newTestStores()
	rec := httptest.NewRecorder()
	studentPages.handleList(rec, pageRequest("/students", &staffSession))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(ts.students.scopes) != 1 || ts.students.scopes[0] != "7" {
		t.Errorf("expected one fetch scoped to staff 7, got %v", ts.students.scopes)
	}
	if !strings.Contains(rec.Body.String(), "Asha") {
		t.Error("expected student rows in the page")
	}
}

func TestStudentList_AdminUnscoped(t *testing.T) {
	ts := newTestStores()
	rec := httptest.NewRecorder()
	studentPages.handleList(rec, pageRequest("/students", &adminSession))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(ts.students.scopes) != 1 || ts.students.scopes[0] != "" {
		t.Errorf("expected one unscoped fetch, got %v", ts.students.scopes)
	}

	rec = httptest.NewRecorder()
	studentPages.handleList(rec, pageRequest("/students?modal=add", &adminSession))
	if !strings.Contains(rec.Body.String(), `id="assigned-staff"`) {
		t.Error("expected the assignment selector for administrators")
	}
}

func TestStudentList_NullStaffIDDoesNotFetch(t *testing.T) {
	ts := newTestStores()
	rec := httptest.NewRecorder()
	studentPages.handleList(rec, pageRequest("/students", &nullStaffSession))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ts.students.listCalls() != 0 {
		t.Errorf("expected no fetch for a null staff id, got %d", ts.students.listCalls())
	}
	if !strings.Contains(rec.Body.String(), `id="no-scope"`) {
		t.Error("expected the no-scope notice")
	}
}

func TestStudentList_JSON(t *testing.T) {
	newTestStores()
	req := httptest.NewRequest(http.MethodGet, "/students?q=khan", nil)
	req.Header.Set("Accept", "application/json")
	req = req.WithContext(middleware.ContextWithSession(req.Context(), adminSession))
	rec := httptest.NewRecorder()
	studentPages.handleList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got []student.Student
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ID != 2 {
		t.Errorf("expected only Bilal Khan, got %+v", got)
	}
}

func TestStudentList_BackendDown(t *testing.T) {
	ts := newTestStores()
	ts.students.listErr = backend.ErrUnavailable
	rec := httptest.NewRecorder()
	studentPages.handleList(rec, pageRequest("/students", &adminSession))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "notice-error") {
		t.Error("expected an inline notice")
	}
}

func TestStudentList_SelectionRestrictedToRows(t *testing.T) {
	newTestStores()
	rec := httptest.NewRecorder()
	studentPages.handleList(rec, pageRequest("/students?select=1&sel=2,99", &adminSession))

	body := rec.Body.String()
	if !strings.Contains(body, `id="selection-bar"`) {
		t.Fatal("expected the selection bar")
	}
	if !strings.Contains(body, `<span id="selected-count">1 selected</span>`) {
		t.Errorf("expected one selected row, body: %s", body)
	}
}

func TestStudentCreate_StaffSelfAssigns(t *testing.T) {
	ts := newTestStores()
	form := url.Values{
		"form_token":      {"tok-1"},
		"back":            {"q=&status=Pending"},
		"first_name":      {"Dev"},
		"course_selected": {"MBA"},
		"assigned_staff":  {"3"},
	}
	rec := httptest.NewRecorder()
	studentPages.handleList(rec, formRequest("/students", form, &staffSession))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", rec.Code, rec.Body.String())
	}
	loc := rec.Header().Get("Location")
	if !strings.Contains(loc, "modal=success") || !strings.Contains(loc, "done=created") {
		t.Errorf("expected success modal redirect, got %q", loc)
	}
	if !strings.Contains(loc, "status=Pending") {
		t.Errorf("expected the list filter to survive, got %q", loc)
	}
	if len(ts.students.created) != 1 {
		t.Fatalf("expected one create, got %d", len(ts.students.created))
	}
	got := ts.students.created[0].AssignedStaff
	if got == nil || *got != 7 {
		t.Errorf("expected self-assignment to 7, got %v", got)
	}
}

func TestStudentCreate_ReplayedToken(t *testing.T) {
	ts := newTestStores()
	ts.formTokens.used = map[string]bool{"tok-1": true}
	form := url.Values{"form_token": {"tok-1"}, "first_name": {"Dev"}, "course_selected": {"MBA"}}
	rec := httptest.NewRecorder()
	studentPages.handleList(rec, formRequest("/students", form, &staffSession))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if len(ts.students.created) != 0 {
		t.Error("a replayed form must not create a record")
	}
	if !hasCookie(rec, middleware.FlashCookieName) {
		t.Error("expected a flash explaining the replay")
	}
}

func TestStudentCreate_MissingToken(t *testing.T) {
	ts := newTestStores()
	form := url.Values{"first_name": {"Dev"}, "course_selected": {"MBA"}}
	rec := httptest.NewRecorder()
	studentPages.handleList(rec, formRequest("/students", form, &staffSession))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if len(ts.students.created) != 0 {
		t.Error("a form without a token must not create a record")
	}
}

func TestStudentCreate_ValidationError(t *testing.T) {
	ts := newTestStores()
	form := url.Values{"form_token": {"tok-2"}, "last_name": {"Only"}}
	rec := httptest.NewRecorder()
	studentPages.handleList(rec, formRequest("/students", form, &staffSession))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "This field is required.") {
		t.Error("expected the field error next to the input")
	}
	if !strings.Contains(body, `id="modal-add"`) {
		t.Error("expected the add form to stay open")
	}
	if !strings.Contains(body, `value="Only"`) {
		t.Error("expected the draft to be kept")
	}
	if len(ts.students.created) != 0 {
		t.Error("an invalid form must not reach the backend")
	}
	if ts.formTokens.isUsed("tok-2") {
		t.Error("expected the token to be released for a retry")
	}
}

func TestStudentCreate_BackendFieldRejection(t *testing.T) {
	tests := []struct {
		name       string
		field      string
		wantInline bool
		wantNotice string
	}{
		{name: "rendered input", field: "email", wantInline: true},
		{name: "no input for staff", field: "assigned_staff", wantNotice: "assigned_staff: Staff member is inactive."},
		{name: "unknown field", field: "dob", wantNotice: "dob: Staff member is inactive."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestStores()
			ts.students.createErr = &backend.APIError{
				Method: http.MethodPost,
				Path:   "/api/submit/",
				Status: http.StatusBadRequest,
				Rejection: &rejection.Rejection{
					Status: http.StatusBadRequest,
					Fields: rejection.FieldErrors{tt.field: {"Staff member is inactive."}},
				},
			}
			form := url.Values{"form_token": {"tok-7"}, "first_name": {"Dev"}, "course_selected": {"MBA"}}
			rec := httptest.NewRecorder()
			studentPages.handleList(rec, formRequest("/students", form, &staffSession))

			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d", rec.Code)
			}
			body := rec.Body.String()
			inline := `<span class="field-error">Staff member is inactive.</span>`
			if got := strings.Contains(body, inline); got != tt.wantInline {
				t.Errorf("inline message shown = %v, want %v", got, tt.wantInline)
			}
			if tt.wantNotice != "" && !strings.Contains(body, tt.wantNotice) {
				t.Errorf("expected notice %q", tt.wantNotice)
			}
			if tt.wantNotice == "" && strings.Contains(body, "notice-error") {
				t.Error("an inline field error needs no notice")
			}
			if strings.Contains(body, rejection.GenericMessage) {
				t.Error("the generic failure message must not replace the backend's")
			}
			if ts.formTokens.isUsed("tok-7") {
				t.Error("expected the token to be released for a retry")
			}
		})
	}
}

func TestStudentUpdate_MissingRecord(t *testing.T) {
	ts := newTestStores()
	form := url.Values{"form_token": {"tok-3"}, "id": {"42"}, "first_name": {"X"}, "course_selected": {"Y"}}
	rec := httptest.NewRecorder()
	studentPages.handleUpdate(rec, formRequest("/students/update", form, &adminSession))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Record not found") {
		t.Error("expected the not-found notice")
	}
	if len(ts.students.updated) != 0 {
		t.Error("expected no update call")
	}
}

func TestStudentUpdate_StaffKeepsAssignment(t *testing.T) {
	ts := newTestStores()
	form := url.Values{"form_token": {"tok-4"}, "id": {"1"}, "first_name": {"Asha"}, "course_selected": {"MSc"}, "assigned_staff": {"auto"}}
	rec := httptest.NewRecorder()
	studentPages.handleUpdate(rec, formRequest("/students/update", form, &staffSession))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get("Location"), "done=updated") {
		t.Errorf("unexpected redirect %q", rec.Header().Get("Location"))
	}
	if len(ts.students.updated) != 1 {
		t.Fatalf("expected one update, got %d", len(ts.students.updated))
	}
	u := ts.students.updated[0]
	if u.AssignedStaff == nil || *u.AssignedStaff != 7 || u.AutoAllocate {
		t.Errorf("expected assignment kept at 7 without auto-allocate, got %v %v", u.AssignedStaff, u.AutoAllocate)
	}
	if u.CourseSelected != "MSc" || u.Status != student.StatusPending {
		t.Errorf("expected edited course over the stored status, got %+v", u)
	}
}

func TestStudentEditForm_KeepsUnlistedAssignee(t *testing.T) {
	tests := []struct {
		name  string
		setup func(ts *testStores)
	}{
		{name: "inactive assignee", setup: func(ts *testStores) { ts.staff.staff[0].ActiveStatus = false }},
		{name: "staff fetch failed", setup: func(ts *testStores) { ts.staff.listErr = errors.New("backend down") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestStores()
			tt.setup(ts)
			rec := httptest.NewRecorder()
			studentPages.handleList(rec, pageRequest("/students?modal=edit&id=1", &adminSession))

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			body := rec.Body.String()
			if !strings.Contains(body, `<option value="keep" selected>Sam (current)</option>`) {
				t.Error("expected the current assignee preselected")
			}
			if strings.Contains(body, `<option value="" selected>`) {
				t.Error("the edit form must not default to unassigned")
			}
		})
	}
}

func TestStudentUpdate_AdminKeepsAssignee(t *testing.T) {
	ts := newTestStores()
	ts.staff.staff[0].ActiveStatus = false
	form := url.Values{"form_token": {"tok-9"}, "id": {"1"}, "first_name": {"Asha"}, "course_selected": {"BSc Nursing"},
		"status": {"In Progress"}, "assigned_staff": {"keep"}}
	rec := httptest.NewRecorder()
	studentPages.handleUpdate(rec, formRequest("/students/update", form, &adminSession))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(ts.students.updated) != 1 {
		t.Fatalf("expected one update, got %d", len(ts.students.updated))
	}
	u := ts.students.updated[0]
	if u.AssignedStaff == nil || *u.AssignedStaff != 7 || u.AutoAllocate {
		t.Errorf("expected assignee 7 kept, got %v auto=%v", u.AssignedStaff, u.AutoAllocate)
	}
	if u.Status != student.StatusInProgress {
		t.Errorf("expected the edited status, got %q", u.Status)
	}
}

func TestStudentDelete_ClearsRowFromSelection(t *testing.T) {
	ts := newTestStores()
	form := url.Values{"form_token": {"tok-5"}, "id": {"2"}, "back": {"select=1&sel=1,2"}}
	rec := httptest.NewRecorder()
	studentPages.handleDelete(rec, formRequest("/students/delete", form, &adminSession))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	loc, _ := url.Parse(rec.Header().Get("Location"))
	q := loc.Query()
	if q.Get("sel") != "1" || q.Get("done") != "deleted" {
		t.Errorf("unexpected redirect %q", loc)
	}
	if len(ts.students.deleted) != 1 || ts.students.deleted[0] != 2 {
		t.Errorf("expected delete of 2, got %v", ts.students.deleted)
	}
}

func TestBulkDelete_PartialFailureKeepsFailedSelected(t *testing.T) {
	ts := newTestStores()
	ts.students.failIDs = map[int64]error{2: apiRejection(http.StatusForbidden, "Not yours")}
	form := url.Values{"form_token": {"tok-6"}, "back": {"select=1&sel=1,2,3&status="}}
	rec := httptest.NewRecorder()
	studentPages.handleBulkDelete(rec, formRequest("/students/bulk-delete", form, &adminSession))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if ts.students.deleteCalls() != 3 {
		t.Errorf("expected every selected record attempted, got %d", ts.students.deleteCalls())
	}
	loc, _ := url.Parse(rec.Header().Get("Location"))
	q := loc.Query()
	if q.Get("select") != "1" || q.Get("sel") != "2" {
		t.Errorf("expected only the failed row selected, got %q", loc)
	}
	if !hasCookie(rec, middleware.FlashCookieName) {
		t.Error("expected the summary flash")
	}
}

func TestBulkDelete_AllSucceedClearsSelection(t *testing.T) {
	ts := newTestStores()
	form := url.Values{"form_token": {"tok-7"}, "back": {"select=1&sel=1,3"}}
	rec := httptest.NewRecorder()
	studentPages.handleBulkDelete(rec, formRequest("/students/bulk-delete", form, &adminSession))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if ts.students.deleteCalls() != 2 {
		t.Errorf("expected 2 deletes, got %d", ts.students.deleteCalls())
	}
	if loc := rec.Header().Get("Location"); strings.Contains(loc, "sel=") || strings.Contains(loc, "select=") {
		t.Errorf("expected selection cleared, got %q", loc)
	}
}

func TestBulkDelete_NullStaffIDRejected(t *testing.T) {
	ts := newTestStores()
	form := url.Values{"form_token": {"tok-8"}, "back": {"select=1&sel=1"}}
	rec := httptest.NewRecorder()
	studentPages.handleBulkDelete(rec, formRequest("/students/bulk-delete", form, &nullStaffSession))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if ts.students.deleteCalls() != 0 {
		t.Error("expected no delete without a staff scope")
	}
	if ts.formTokens.isUsed("tok-8") {
		t.Error("expected the token released")
	}
}

func TestEnquiryView_RendersMarkdownSafely(t *testing.T) {
	newTestStores()
	rec := httptest.NewRecorder()
	enquiryPages.handleList(rec, pageRequest("/enquiries?modal=view&id=1", &adminSession))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<strong>Fees</strong>") {
		t.Error("expected markdown emphasis rendered")
	}
	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Error("raw HTML in a message must not be rendered")
	}
}

func TestEnquiryView_MissingRecord(t *testing.T) {
	newTestStores()
	rec := httptest.NewRecorder()
	enquiryPages.handleList(rec, pageRequest("/enquiries?modal=edit&id=77", &adminSession))

	if !strings.Contains(rec.Body.String(), `id="modal-missing"`) {
		t.Error("expected the missing-record dialog")
	}
}

func TestLogin_PortalMismatch(t *testing.T) {
	ts := newTestStores()
	ts.gateway.identity = auth.Identity{Role: "staff", StaffID: "7", Name: "Sam"}
	form := url.Values{"login_id": {"sam"}, "password": {"pw"}}
	rec := httptest.NewRecorder()
	handleLogin(rec, formRequest("/login?role=admin", form, nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Only Admins") {
		t.Error("expected the admin-portal message")
	}
	if ts.gateway.calls != 1 {
		t.Errorf("expected one gateway call, got %d", ts.gateway.calls)
	}
	if len(ts.sessions.sessions) != 0 {
		t.Error("no session may be created on a mismatch")
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	ts := newTestStores()
	ts.gateway.err = apiRejection(http.StatusUnauthorized, "Invalid credentials")
	form := url.Values{"login_id": {"sam"}, "password": {"nope"}}
	rec := httptest.NewRecorder()
	handleLogin(rec, formRequest("/login", form, nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid credentials") {
		t.Error("expected the backend message")
	}
}

func TestLogin_MissingFieldsSkipsBackend(t *testing.T) {
	ts := newTestStores()
	rec := httptest.NewRecorder()
	handleLogin(rec, formRequest("/login", url.Values{"login_id": {"sam"}}, nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if ts.gateway.calls != 0 {
		t.Error("expected no backend call")
	}
}

func TestLogin_Success(t *testing.T) {
	ts := newTestStores()
	ts.gateway.identity = auth.Identity{Role: "staff", StaffID: "7", Name: "Sam"}
	form := url.Values{"login_id": {"sam"}, "password": {"pw"}}
	rec := httptest.NewRecorder()
	handleLogin(rec, formRequest("/login", form, nil))

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/students" {
		t.Fatalf("expected redirect to /students, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if !hasCookie(rec, middleware.SessionCookieName) {
		t.Error("expected the session cookie")
	}
	sc, ok := ts.sessions.sessions["tok-staff-7"]
	if !ok || sc.StaffName != "Sam" {
		t.Errorf("expected a cached session for Sam, got %+v", ts.sessions.sessions)
	}
}

func TestLogout(t *testing.T) {
	ts := newTestStores()
	ts.sessions.sessions = map[string]session.Context{adminSession.Token: adminSession.Context}
	rec := httptest.NewRecorder()
	req := formRequest("/logout", url.Values{}, &adminSession)
	handleLogout(rec, req)

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login?role=admin" {
		t.Fatalf("expected redirect to the admin login, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if len(ts.sessions.deleted) != 1 {
		t.Error("expected the session deleted")
	}
}

func TestStaffLinkAdd(t *testing.T) {
	ts := newTestStores()
	form := url.Values{"form_token": {"tok-9"}, "id": {"7"}, "label": {"Offer letter"}, "url": {"https://docs.example.com/offer"}}
	rec := httptest.NewRecorder()
	handleStaffLinkAdd(rec, formRequest("/staff/links/add", form, &adminSession))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if !strings.Contains(loc, "modal=view") || !strings.Contains(loc, "id=7") {
		t.Errorf("expected return to the staff view, got %q", loc)
	}
	if len(ts.staff.updated) != 1 || ts.staff.updated[0].DocumentLinks["Offer letter"] == "" {
		t.Errorf("expected the link saved, got %+v", ts.staff.updated)
	}
}

func TestStaffLinkAdd_BadURL(t *testing.T) {
	ts := newTestStores()
	form := url.Values{"form_token": {"tok-10"}, "id": {"7"}, "label": {"Bad"}, "url": {"javascript:alert(1)"}}
	rec := httptest.NewRecorder()
	handleStaffLinkAdd(rec, formRequest("/staff/links/add", form, &adminSession))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if len(ts.staff.updated) != 0 {
		t.Error("expected no update for an unsafe url")
	}
	if ts.formTokens.isUsed("tok-10") {
		t.Error("expected the token released")
	}
}

func TestStaffPage_Admin(t *testing.T) {
	newTestStores()
	rec := httptest.NewRecorder()
	handleStaff(rec, pageRequest("/staff", &adminSession))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "sam@example.com") {
		t.Error("expected the staff row")
	}
}

func TestHandleAdminPerf_JSON(t *testing.T) {
	newTestStores()
	perfCollector = perf.NewCollector(100)
	perfCollector.Record(perf.Entry{Kind: perf.KindRequest, Path: "GET /students", StatusCode: 200, DurationMs: 12, Timestamp: time.Now()})
	defer func() { perfCollector = nil }()

	req := httptest.NewRequest(http.MethodGet, "/admin/perf?window=30", nil)
	req = req.WithContext(middleware.ContextWithSession(req.Context(), adminSession))
	rec := httptest.NewRecorder()
	handleAdminPerf(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snap perf.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Requests != 1 {
		t.Errorf("expected 1 request, got %d", snap.Requests)
	}
}

func TestHandleAdminPerf_NoCollector(t *testing.T) {
	newTestStores()
	rec := httptest.NewRecorder()
	handleAdminPerf(rec, pageRequest("/admin/perf", &adminSession))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestNoticeFor(t *testing.T) {
	if got := noticeFor(errors.New("boom")); got == "boom" {
		t.Error("unexpected errors must not leak")
	}
	api := apiRejection(http.StatusBadRequest, "Duplicate email")
	if got := noticeFor(api); !strings.Contains(got, "Duplicate email") {
		t.Errorf("expected the backend message, got %q", got)
	}
}

func TestNewMux_RoleGates(t *testing.T) {
	ts := newTestStores()
	ts.sessions.sessions = map[string]session.Context{staffSession.Token: staffSession.Context}
	handler := NewMux(ts.Stores, Options{CSRFKey: testKey})

	tests := []struct {
		name     string
		path     string
		cookie   string
		wantCode int
		wantLoc  string
	}{
		{"anonymous students", "/students", "", http.StatusSeeOther, "/login"},
		{"staff on staff admin", "/staff", staffSession.Token, http.StatusForbidden, ""},
		{"anonymous perf", "/admin/perf", "", http.StatusSeeOther, "/login?role=admin"},
		{"staff students", "/students", staffSession.Token, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := pageRequest(tt.path, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			if tt.wantLoc != "" && rec.Header().Get("Location") != tt.wantLoc {
				t.Errorf("expected Location %q, got %q", tt.wantLoc, rec.Header().Get("Location"))
			}
		})
	}
}
