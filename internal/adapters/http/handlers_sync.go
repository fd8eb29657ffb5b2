package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"gymcrm/internal/domain/syncrun"
)

// handleSync handles POST /api/sync
func handleSync(w http.ResponseWriter, r *http.Request) {
	if deps.Sync == nil {
		writeError(w, http.StatusServiceUnavailable, "sync is not configured")
		return
	}
	res, err := deps.Sync(r.Context())
	if err != nil {
		slog.Error("sync_request_failed", "run_id", res.Run.ID, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":  "sync failed; the previous data is still served",
			"run_id": res.Run.ID,
		})
		return
	}
	rejected := make([]map[string]string, 0, len(res.Rejected))
	for _, rj := range res.Rejected {
		rejected = append(rejected, map[string]string{"collection": rj.Collection, "id": rj.ID, "reason": rj.Reason})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run":       syncRunBody(res.Run),
		"rejected":  rejected,
		"published": res.Published,
	})
}

// handleSyncRuns handles GET /api/sync/runs?limit=N
func handleSyncRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = n
	}
	runs, err := deps.SyncRuns.Runs(r.Context(), limit)
	if err != nil {
		internalError(w, err)
		return
	}
	body := make([]map[string]any, 0, len(runs))
	for _, run := range runs {
		body = append(body, syncRunBody(run))
	}
	writeJSON(w, http.StatusOK, body)
}

func syncRunBody(run syncrun.Run) map[string]any {
	body := map[string]any{
		"id":          run.ID,
		"started_at":  run.StartedAt.UTC().Format(time.RFC3339),
		"finished_at": run.FinishedAt.UTC().Format(time.RFC3339),
		"duration_ms": run.Duration().Milliseconds(),
		"clientes":    run.Clients,
		"pagos":       run.Payments,
		"asistencias": run.Attendance,
		"ventas":      run.Sales,
		"rechazados":  run.Rejected,
		"ok":          run.Succeeded(),
	}
	if run.Error != "" {
		body["error"] = run.Error
	}
	return body
}
