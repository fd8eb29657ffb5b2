package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"gymcrm/internal/adapters/api"
	emailPkg "gymcrm/internal/adapters/email"
	web "gymcrm/internal/adapters/http"
	"gymcrm/internal/adapters/http/perf"
	"gymcrm/internal/adapters/storage"
	"gymcrm/internal/adapters/storage/mirror"
	reminderStore "gymcrm/internal/adapters/storage/reminder"
	"gymcrm/internal/application/orchestrators"
	"gymcrm/internal/application/snapshot"
	"gymcrm/internal/config"
	"gymcrm/internal/domain/membership"
	"gymcrm/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server_failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	slog.SetDefault(logger.New(os.Stdout, cfg.Env, cfg.LogLevel))

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("load time zone: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database: open, wrap with timing for query metrics, then migrate
	db, err := storage.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	metrics := perf.New()
	sqlDB := storage.Instrument(db, storage.WithObserver(metrics), storage.WithSlowThreshold(cfg.SlowQuery))
	defer sqlDB.Close()
	if err := storage.MigrateDB(ctx, sqlDB.Unwrap()); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	mirrorStore := mirror.New(sqlDB)
	reminders := reminderStore.NewSQLiteStore(sqlDB)

	// Serve whatever the last successful sync left in the mirror
	snapshots := snapshot.NewRepository(orchestrators.MirrorSource(mirrorStore))
	snap, err := snapshots.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	metrics.SetSnapshot(snap.Counts(), snap.InvalidPaymentDates(), snap.FetchedAt())

	engine := membership.NewEngine(loc)
	crm := api.NewClient(api.Config{
		BaseURL:  cfg.API.BaseURL,
		Token:    cfg.API.Token,
		Timeout:  cfg.API.Timeout,
		Location: loc,
	})

	// Manual and scheduled syncs share one lock so runs never overlap
	var syncMu sync.Mutex
	syncNow := func(ctx context.Context) (orchestrators.SyncResult, error) {
		syncMu.Lock()
		defer syncMu.Unlock()
		return orchestrators.ExecuteSyncSnapshot(ctx, orchestrators.SyncSnapshotDeps{
			Fetcher:   crm,
			Mirror:    mirrorStore,
			Snapshots: snapshots,
			Metrics:   metrics,
		})
	}

	var remindMu sync.Mutex
	reminderDeps := orchestrators.SendPaymentRemindersDeps{
		Snapshots:   snapshots,
		Engine:      engine,
		Reminders:   reminders,
		Sender:      newSender(cfg),
		Metrics:     metrics,
		GymName:     cfg.Email.GymName,
		FromAddress: cfg.Email.From,
		ReplyTo:     cfg.Email.ReplyTo,
	}
	remindNow := func(ctx context.Context, in orchestrators.SendPaymentRemindersInput) (orchestrators.SendPaymentRemindersResult, error) {
		remindMu.Lock()
		defer remindMu.Unlock()
		return orchestrators.ExecuteSendPaymentReminders(ctx, in, reminderDeps)
	}

	scheduler := orchestrators.NewScheduler(loc)
	if cfg.Schedule.Sync != "" {
		if _, err := scheduler.Add(orchestrators.ScheduledJob{
			Name:    "sync",
			Spec:    cfg.Schedule.Sync,
			Timeout: cfg.Schedule.JobTimeout,
			Run: func(ctx context.Context) error {
				_, err := syncNow(ctx)
				return err
			},
		}); err != nil {
			return err
		}
	}
	if cfg.Schedule.Reminders != "" {
		if _, err := scheduler.Add(orchestrators.ScheduledJob{
			Name:    "payment_reminders",
			Spec:    cfg.Schedule.Reminders,
			Timeout: cfg.Schedule.JobTimeout,
			Run: func(ctx context.Context) error {
				_, err := remindNow(ctx, orchestrators.SendPaymentRemindersInput{})
				return err
			},
		}); err != nil {
			return err
		}
	}
	scheduler.Start(ctx)

	if snap.IsEmpty() {
		go func() {
			if _, err := syncNow(ctx); err != nil {
				slog.Warn("initial_sync_failed", "error", err)
			}
		}()
	}

	handler := web.NewRouter(ctx, &web.Deps{
		Snapshots:     snapshots,
		Engine:        engine,
		DB:            sqlDB,
		SyncRuns:      mirrorStore,
		Sync:          syncNow,
		SendReminders: remindNow,
		Metrics:       metrics,
	}, web.Config{
		CSRFKey:            cfg.CSRFKeyBytes(),
		SecureCookies:      cfg.HTTP.SecureCookies,
		TrustedOrigins:     cfg.HTTP.TrustedOrigins,
		RateLimitPerSecond: cfg.HTTP.RateLimit,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env,
			"timezone", loc.String(), "schema", storage.LatestSchemaVersion(), "email", cfg.Email.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server_stopped")
	return nil
}

// newSender picks the e-mail provider named in the config.
func newSender(cfg config.Config) emailPkg.Sender {
	switch cfg.Email.Provider {
	case "resend":
		slog.Info("email_sender_configured", "provider", "resend")
		return emailPkg.NewResendSender(cfg.Email.ResendKey, cfg.Email.From)
	case "smtp":
		slog.Info("email_sender_configured", "provider", "smtp", "host", cfg.Email.SMTP.Host)
		return emailPkg.NewSMTPSender(emailPkg.SMTPConfig{
			Host:     cfg.Email.SMTP.Host,
			Port:     cfg.Email.SMTP.Port,
			Username: cfg.Email.SMTP.Username,
			Password: cfg.Email.SMTP.Password,
			From:     cfg.Email.From,
		})
	}
	if cfg.IsProduction() {
		slog.Warn("email_sender_noop", "hint", "set GYMCRM_EMAIL_PROVIDER to deliver reminders")
	}
	return emailPkg.NewNoopSender()
}
