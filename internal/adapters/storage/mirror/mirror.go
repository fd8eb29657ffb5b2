// Package mirror keeps the local SQLite copy of the CRM collections.
package mirror

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gymcrm/internal/adapters/storage"
	attendanceStore "gymcrm/internal/adapters/storage/attendance"
	clientStore "gymcrm/internal/adapters/storage/client"
	paymentStore "gymcrm/internal/adapters/storage/payment"
	saleStore "gymcrm/internal/adapters/storage/sale"
	syncrunStore "gymcrm/internal/adapters/storage/syncrun"
	"gymcrm/internal/domain/attendance"
	"gymcrm/internal/domain/client"
	"gymcrm/internal/domain/payment"
	"gymcrm/internal/domain/sale"
	"gymcrm/internal/domain/syncrun"
)

// Data is the full content of the mirror.
type Data struct {
	Clients    []client.Client
	Payments   []payment.Payment
	Attendance []attendance.Attendance
	Sales      []sale.Sale
	FetchedAt  time.Time // finish time of the sync that wrote Data; zero if none
}

// Mirror replaces and loads the mirrored collections as one unit.
type Mirror struct {
	db         storage.SQLDB
	clients    clientStore.Store
	payments   paymentStore.Store
	attendance attendanceStore.Store
	sales      saleStore.Store
	runs       syncrunStore.Store
}

// New creates a Mirror over db using the SQLite stores.
func New(db storage.SQLDB) *Mirror {
	return &Mirror{
		db:         db,
		clients:    clientStore.NewSQLiteStore(db),
		payments:   paymentStore.NewSQLiteStore(db),
		attendance: attendanceStore.NewSQLiteStore(db),
		sales:      saleStore.NewSQLiteStore(db),
		runs:       syncrunStore.NewSQLiteStore(db),
	}
}

// Replace swaps every collection for d and records run, in one transaction.
// PRE: run has been validated and describes a successful sync
// POST: Either all collections and the run are written, or nothing is
func (m *Mirror) Replace(ctx context.Context, d Data, run syncrun.Run) error {
	return storage.WithTx(ctx, m.db, func(tx *sql.Tx) error {
		if err := m.clients.ReplaceAll(ctx, tx, d.Clients); err != nil {
			return err
		}
		if err := m.payments.ReplaceAll(ctx, tx, d.Payments); err != nil {
			return err
		}
		if err := m.attendance.ReplaceAll(ctx, tx, d.Attendance); err != nil {
			return err
		}
		if err := m.sales.ReplaceAll(ctx, tx, d.Sales); err != nil {
			return err
		}
		if err := m.runs.Save(ctx, tx, run); err != nil {
			return fmt.Errorf("record sync run: %w", err)
		}
		return nil
	})
}

// RecordFailure stores a failed run without touching the collections.
func (m *Mirror) RecordFailure(ctx context.Context, run syncrun.Run) error {
	return m.runs.Save(ctx, m.db, run)
}

// Load reads every collection.
// PRE: ctx is not cancelled
// POST: Returns the mirrored data; FetchedAt is zero when no sync has succeeded
func (m *Mirror) Load(ctx context.Context) (Data, error) {
	var d Data
	var err error
	if d.Clients, err = m.clients.List(ctx, clientStore.ListFilter{}); err != nil {
		return Data{}, fmt.Errorf("load clients: %w", err)
	}
	if d.Payments, err = m.payments.List(ctx, paymentStore.ListFilter{}); err != nil {
		return Data{}, fmt.Errorf("load payments: %w", err)
	}
	if d.Attendance, err = m.attendance.List(ctx, attendanceStore.ListFilter{}); err != nil {
		return Data{}, fmt.Errorf("load attendance: %w", err)
	}
	if d.Sales, err = m.sales.List(ctx, saleStore.ListFilter{}); err != nil {
		return Data{}, fmt.Errorf("load sales: %w", err)
	}
	run, ok, err := m.runs.LatestSuccessful(ctx)
	if err != nil {
		return Data{}, fmt.Errorf("load last sync: %w", err)
	}
	if ok {
		d.FetchedAt = run.FinishedAt
	}
	return d, nil
}

// Runs returns the most recent sync runs, newest first.
func (m *Mirror) Runs(ctx context.Context, limit int) ([]syncrun.Run, error) {
	return m.runs.List(ctx, limit)
}
