package web

import (
	"context"
	"crypto/rand"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"gymcrm/internal/adapters/http/middleware"
	"gymcrm/internal/adapters/http/perf"
	"gymcrm/internal/application/orchestrators"
	"gymcrm/internal/application/projections"
	"gymcrm/internal/domain/membership"
	"gymcrm/internal/domain/syncrun"
)

// SyncRunLister lists recent sync runs.
type SyncRunLister interface {
	Runs(ctx context.Context, limit int) ([]syncrun.Run, error)
}

// Pinger reports database reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps holds everything the handlers read from or trigger.
type Deps struct {
	Snapshots     projections.SnapshotReader
	Engine        *membership.Engine
	DB            Pinger // optional
	SyncRuns      SyncRunLister
	Sync          func(ctx context.Context) (orchestrators.SyncResult, error)
	SendReminders func(ctx context.Context, input orchestrators.SendPaymentRemindersInput) (orchestrators.SendPaymentRemindersResult, error)
	Metrics       *perf.Metrics // optional
}

// Config holds HTTP-layer settings.
type Config struct {
	CSRFKey            []byte // 32 bytes; random per start when empty
	SecureCookies      bool
	TrustedOrigins     []string
	RateLimitPerSecond int
}

// Global dependencies instance (set by NewRouter)
var deps *Deps

// csrfKey returns the configured key, or a random one for development.
func csrfKey(cfg Config) []byte {
	if len(cfg.CSRFKey) == 32 {
		return cfg.CSRFKey
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic("failed to generate CSRF key: " + err.Error())
	}
	slog.Warn("csrf_key_random", "hint", "set GYMCRM_CSRF_KEY to keep tokens valid across restarts")
	return key
}

// NewRouter wires HTTP handlers for the service. Background work started here
// stops when ctx is done.
func NewRouter(ctx context.Context, d *Deps, cfg Config) http.Handler {
	deps = d

	r := mux.NewRouter()
	r.Use(middleware.Timing(d.Metrics))
	registerRoutes(r)

	rate := cfg.RateLimitPerSecond
	if rate <= 0 {
		rate = 10
	}
	limiter := middleware.NewRateLimiter(ctx, rate, time.Second)

	// Apply middleware: SecurityHeaders -> RateLimit -> CSRF -> Router (Timing)
	return middleware.Chain(r,
		middleware.CSRF(csrfKey(cfg), cfg.SecureCookies, cfg.TrustedOrigins),
		middleware.RateLimit(limiter),
		middleware.SecurityHeaders,
	)
}

func registerRoutes(r *mux.Router) {
	r.HandleFunc("/health", handleHealth).Methods(http.MethodGet)
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/clients/inactive", handleInactiveClients).Methods(http.MethodGet)
	api.HandleFunc("/clients/{id}/membership", handleMembershipStatus).Methods(http.MethodGet)
	api.HandleFunc("/memberships", handleMembershipAlerts).Methods(http.MethodGet)
	api.HandleFunc("/dashboard", handleDashboard).Methods(http.MethodGet)
	api.HandleFunc("/payments/total", handleMonthlyTotal).Methods(http.MethodGet)
	api.HandleFunc("/attendance/summary", handleAttendanceSummary).Methods(http.MethodGet)
	api.HandleFunc("/sync", handleSync).Methods(http.MethodPost)
	api.HandleFunc("/sync/runs", handleSyncRuns).Methods(http.MethodGet)
	api.HandleFunc("/reminders", handleReminders).Methods(http.MethodPost)
}
