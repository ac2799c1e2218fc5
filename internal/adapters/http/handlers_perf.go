package web

import (
	"net/http"
	"strconv"
	"time"

	"admissions/internal/adapters/http/perf"
)

// perfPage is the data behind perf.html.
type perfPage struct {
	pageMeta
	Window   time.Duration
	Snapshot perf.Snapshot
}

// defaultPerfWindow is how far back the perf page looks without ?window=.
const defaultPerfWindow = time.Hour

// handleAdminPerf handles GET /admin/perf
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	window := defaultPerfWindow
	if raw := r.URL.Query().Get("window"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			window = d
		} else if mins, err := strconv.Atoi(raw); err == nil && mins > 0 {
			window = time.Duration(mins) * time.Minute
		}
	}
	if perfCollector == nil {
		http.Error(w, "performance data is not collected", http.StatusNotFound)
		return
	}
	snap := perfCollector.Snapshot(timeNow().Add(-window), 10)
	if !isHTMLRequest(r) {
		writeJSON(w, http.StatusOK, snap)
		return
	}
	renderTemplate(w, r, http.StatusOK, "perf.html", perfPage{
		pageMeta: newMeta(w, r, "Performance"),
		Window:   window,
		Snapshot: snap,
	})
}
