package browser_test

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	_ "modernc.org/sqlite"

	"admissions/internal/adapters/backend"
	"admissions/internal/adapters/backend/auth"
	enquiryStore "admissions/internal/adapters/backend/enquiry"
	staffStore "admissions/internal/adapters/backend/staff"
	studentStore "admissions/internal/adapters/backend/student"
	web "admissions/internal/adapters/http"
	"admissions/internal/adapters/http/perf"
	"admissions/internal/adapters/storage"
	"admissions/internal/adapters/storage/formtoken"
	sessionStore "admissions/internal/adapters/storage/session"
	"admissions/internal/domain/enquiry"
	"admissions/internal/domain/staff"
	"admissions/internal/domain/student"
)

// fakeBackend stands in for the admissions REST API and counts calls.
type fakeBackend struct {
	mu        sync.Mutex
	students  []student.Student
	staff     []staff.Staff
	calls     map[string]int // "METHOD /path" -> count
	failAfter map[int64]bool // ids whose DELETE answers 403
}

func newFakeBackend() *fakeBackend {
	seven := int64(7)
	return &fakeBackend{
		students: []student.Student{
			{ID: 1, FirstName: "Asha", LastName: "Rao", CourseSelected: "BSc Nursing", Status: student.StatusPending, AssignedStaff: &seven, AssignedStaffName: "Sam"},
			{ID: 2, FirstName: "Bilal", LastName: "Khan", CourseSelected: "BBA", Status: student.StatusInProgress, AssignedStaff: &seven, AssignedStaffName: "Sam"},
			{ID: 3, FirstName: "Chitra", LastName: "Menon", CourseSelected: "BCom", Status: student.StatusCompleted, AssignedStaff: &seven, AssignedStaffName: "Sam"},
		},
		staff: []staff.Staff{
			{ID: 7, Name: "Sam", Email: "sam@example.com", LoginID: "sam", ActiveStatus: true},
		},
		calls:     make(map[string]int),
		failAfter: make(map[int64]bool),
	}
}

func (f *fakeBackend) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

// countPrefix sums calls whose key starts with prefix.
func (f *fakeBackend) countPrefix(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for k, v := range f.calls {
		if strings.HasPrefix(k, prefix) {
			n += v
		}
	}
	return n
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[r.Method+" "+r.URL.Path]++

	writeJSON := func(status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	switch {
	case r.URL.Path == auth.LoginPath && r.Method == http.MethodPost:
		var body struct {
			LoginID string `json:"login_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch body.LoginID {
		case "admin":
			writeJSON(http.StatusOK, map[string]any{"role": "admin", "staff_id": nil, "name": "Ada"})
		case "sam":
			writeJSON(http.StatusOK, map[string]any{"role": "staff", "staff_id": 7, "name": "Sam"})
		case "ghost":
			writeJSON(http.StatusOK, map[string]any{"role": "staff", "staff_id": nil, "name": "Ghost"})
		default:
			writeJSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		}

	case r.URL.Path == studentStore.CollectionPath && r.Method == http.MethodGet:
		writeJSON(http.StatusOK, f.students)

	case strings.HasPrefix(r.URL.Path, studentStore.CollectionPath) && r.Method == http.MethodDelete:
		raw := strings.Trim(strings.TrimPrefix(r.URL.Path, studentStore.CollectionPath), "/")
		id, _ := strconv.ParseInt(raw, 10, 64)
		if f.failAfter[id] {
			writeJSON(http.StatusForbidden, map[string]string{"detail": "Not allowed"})
			return
		}
		kept := f.students[:0]
		for _, s := range f.students {
			if s.ID != id {
				kept = append(kept, s)
			}
		}
		f.students = kept
		w.WriteHeader(http.StatusNoContent)

	case r.URL.Path == enquiryStore.CollectionPath && r.Method == http.MethodGet:
		writeJSON(http.StatusOK, []enquiry.Enquiry{})

	case r.URL.Path == staffStore.CollectionPath && r.Method == http.MethodGet:
		writeJSON(http.StatusOK, f.staff)

	default:
		writeJSON(http.StatusNotFound, map[string]string{"detail": "Not found."})
	}
}

// testApp holds the running portal, the fake backend and Playwright handles.
type testApp struct {
	BaseURL string
	Backend *fakeBackend
	DB      *sql.DB
	Server  *http.Server
	PW      *playwright.Playwright
	Browser playwright.Browser
}

// newTestApp wires the portal against a fake backend with a temp SQLite
// session cache and starts an HTTP server.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	if err := storage.MigrateDB(db, dbPath); err != nil {
		t.Fatalf("failed to migrate test DB: %v", err)
	}

	fake := newFakeBackend()
	api := httptest.NewServer(fake)

	collector := perf.NewCollector(1000)
	client, err := backend.New(api.URL, backend.Options{Timeout: 5 * time.Second, Collector: collector})
	if err != nil {
		t.Fatalf("failed to create backend client: %v", err)
	}
	stores := &web.Stores{
		Students:   studentStore.NewHTTPStore(client),
		Enquiries:  enquiryStore.NewHTTPStore(client),
		Staff:      staffStore.NewHTTPStore(client),
		Auth:       auth.NewHTTPGateway(client),
		Sessions:   sessionStore.NewSQLiteStore(db),
		FormTokens: formtoken.NewSQLiteStore(db),
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	// Change to project root so relative template/static paths work
	projectRoot := findProjectRoot(t)
	origDir, _ := os.Getwd()
	if err := os.Chdir(projectRoot); err != nil {
		t.Fatalf("failed to chdir to project root: %v", err)
	}
	t.Cleanup(func() { os.Chdir(origDir) })

	handler := web.NewMux(stores, web.Options{
		StaticDir:      "static",
		CSRFKey:        []byte("browser-test-csrf-key-0123456789"),
		TrustedOrigins: []string{fmt.Sprintf("127.0.0.1:%d", port), fmt.Sprintf("localhost:%d", port)},
		Collector:      collector,
	})
	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: handler,
	}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
		}
	}()

	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	for i := 0; i < 50; i++ {
		resp, err := http.Get(baseURL + "/login")
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}

	app := &testApp{
		BaseURL: baseURL,
		Backend: fake,
		DB:      db,
		Server:  srv,
		PW:      pw,
		Browser: browser,
	}
	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		api.Close()
		db.Close()
	})
	return app
}

// newPage creates a new browser page (tab).
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	return page
}

// login signs in through the given portal ("admin", "staff" or "").
func (a *testApp) login(t *testing.T, page playwright.Page, portal, loginID string) {
	t.Helper()
	target := a.BaseURL + "/login"
	if portal != "" {
		target += "?role=" + portal
	}
	if _, err := page.Goto(target); err != nil {
		t.Fatalf("failed to navigate to login: %v", err)
	}
	if err := page.Locator("input[name=login_id]").Fill(loginID); err != nil {
		t.Fatalf("failed to fill login id: %v", err)
	}
	if err := page.Locator("input[name=password]").Fill("secret"); err != nil {
		t.Fatalf("failed to fill password: %v", err)
	}
	if err := page.Locator("#login-submit").Click(); err != nil {
		t.Fatalf("failed to submit login: %v", err)
	}
	if err := page.WaitForLoadState(); err != nil {
		t.Fatalf("login did not settle: %v", err)
	}
}

// findProjectRoot walks up from the working directory to the go.mod.
func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}
