// Package storage keeps the last fetched república snapshot and the report
// export queue in SQLite. The snapshot is the offline fallback when the
// upstream API is unreachable; exports wait here until the worker pushes
// them to Google Sheets.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"contas/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNoSnapshot is returned when no snapshot has been stored for a república.
var ErrNoSnapshot = errors.New("storage: no snapshot for república")

// ErrExportNotFound is returned when a report export id is unknown.
var ErrExportNotFound = errors.New("storage: report export not found")

// Store is the SQLite-backed persistence layer.
type Store struct {
	db *sql.DB
}

// NewStore opens (and migrates) the database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveSnapshot replaces the stored snapshot of a república in a single
// transaction. Deleting the snapshots row cascades to expenses, members
// and payments.
func (s *Store) SaveSnapshot(ctx context.Context, snap core.Snapshot, fetchedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM snapshots WHERE republic_id = ?", snap.RepublicID); err != nil {
		return fmt.Errorf("clear previous snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO snapshots (republic_id, fetched_at) VALUES (?, ?)",
		snap.RepublicID, fetchedAt.UTC()); err != nil {
		return fmt.Errorf("insert snapshot row: %w", err)
	}

	for _, e := range snap.Expenses {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (id, republic_id, description, total_cents, due_date, category, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.ID, snap.RepublicID, e.Description, e.TotalValue.Cents,
			e.DueDate.String(), string(e.Category), string(e.Status)); err != nil {
			return fmt.Errorf("insert expense %d: %w", e.ID, err)
		}
	}
	for _, m := range snap.Members {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO members (id, republic_id, fullname, email, telephone, room_id)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			m.ID, snap.RepublicID, m.FullName, m.Email, m.Telephone, m.RoomID); err != nil {
			return fmt.Errorf("insert member %d: %w", m.ID, err)
		}
	}
	for _, p := range snap.Payments {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO payments (id, republic_id, expense_id, member_id, amount_cents, paid_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, snap.RepublicID, p.ExpenseID, p.MemberID,
			p.AmountPaid.Cents, p.PaidAt.Format(time.RFC3339)); err != nil {
			return fmt.Errorf("insert payment %d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the stored snapshot of a república and when it was
// fetched. ErrNoSnapshot when nothing has been stored yet.
func (s *Store) LoadSnapshot(ctx context.Context, republicID int64) (core.Snapshot, time.Time, error) {
	snap := core.Snapshot{RepublicID: republicID}

	var fetchedAt time.Time
	err := s.db.QueryRowContext(ctx,
		"SELECT fetched_at FROM snapshots WHERE republic_id = ?", republicID).Scan(&fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Snapshot{}, time.Time{}, ErrNoSnapshot
	}
	if err != nil {
		return core.Snapshot{}, time.Time{}, fmt.Errorf("load snapshot row: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, description, total_cents, due_date, category, status
		 FROM expenses WHERE republic_id = ? ORDER BY id`, republicID)
	if err != nil {
		return core.Snapshot{}, time.Time{}, fmt.Errorf("load expenses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			e                     core.Expense
			cents                 int64
			due, category, status string
		)
		if err := rows.Scan(&e.ID, &e.Description, &cents, &due, &category, &status); err != nil {
			return core.Snapshot{}, time.Time{}, fmt.Errorf("scan expense: %w", err)
		}
		dueDate, err := core.ParseCalendarDate(due)
		if err != nil {
			return core.Snapshot{}, time.Time{}, fmt.Errorf("expense %d: stored due date %q: %w", e.ID, due, err)
		}
		e.TotalValue = core.Money{Cents: cents}
		e.DueDate = dueDate
		e.Category = core.Category(category)
		e.Status = core.ParseStoredStatus(status)
		snap.Expenses = append(snap.Expenses, e)
	}
	if err := rows.Err(); err != nil {
		return core.Snapshot{}, time.Time{}, fmt.Errorf("iterate expenses: %w", err)
	}

	memberRows, err := s.db.QueryContext(ctx,
		`SELECT id, fullname, email, telephone, room_id
		 FROM members WHERE republic_id = ? ORDER BY id`, republicID)
	if err != nil {
		return core.Snapshot{}, time.Time{}, fmt.Errorf("load members: %w", err)
	}
	defer memberRows.Close()
	for memberRows.Next() {
		var m core.Member
		if err := memberRows.Scan(&m.ID, &m.FullName, &m.Email, &m.Telephone, &m.RoomID); err != nil {
			return core.Snapshot{}, time.Time{}, fmt.Errorf("scan member: %w", err)
		}
		snap.Members = append(snap.Members, m)
	}
	if err := memberRows.Err(); err != nil {
		return core.Snapshot{}, time.Time{}, fmt.Errorf("iterate members: %w", err)
	}

	paymentRows, err := s.db.QueryContext(ctx,
		`SELECT id, expense_id, member_id, amount_cents, paid_at
		 FROM payments WHERE republic_id = ? ORDER BY id`, republicID)
	if err != nil {
		return core.Snapshot{}, time.Time{}, fmt.Errorf("load payments: %w", err)
	}
	defer paymentRows.Close()
	for paymentRows.Next() {
		var (
			p      core.Payment
			cents  int64
			paidAt string
		)
		if err := paymentRows.Scan(&p.ID, &p.ExpenseID, &p.MemberID, &cents, &paidAt); err != nil {
			return core.Snapshot{}, time.Time{}, fmt.Errorf("scan payment: %w", err)
		}
		instant, err := core.ParseInstant(paidAt)
		if err != nil {
			return core.Snapshot{}, time.Time{}, fmt.Errorf("payment %d: stored paid_at %q: %w", p.ID, paidAt, err)
		}
		p.AmountPaid = core.Money{Cents: cents}
		p.PaidAt = instant
		snap.Payments = append(snap.Payments, p)
	}
	if err := paymentRows.Err(); err != nil {
		return core.Snapshot{}, time.Time{}, fmt.Errorf("iterate payments: %w", err)
	}

	return snap, fetchedAt, nil
}

// ReportExport is a rendered report waiting to be pushed to Google Sheets.
type ReportExport struct {
	ID             string
	RepublicID     int64
	Format         string
	FilterStart    string
	FilterEnd      string
	FilterCategory string
	Rows           [][]string
	CreatedAt      time.Time
	SyncedAt       *time.Time
	SyncError      bool
}

// CreateReportExport queues a rendered report for the sheets worker.
func (s *Store) CreateReportExport(ctx context.Context, export ReportExport) error {
	rowsJSON, err := json.Marshal(export.Rows)
	if err != nil {
		return fmt.Errorf("marshal export rows: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO report_exports (id, republic_id, format, filter_start, filter_end, filter_category, rows_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		export.ID, export.RepublicID, export.Format,
		export.FilterStart, export.FilterEnd, export.FilterCategory,
		string(rowsJSON), export.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert report export: %w", err)
	}
	return nil
}

// GetReportExport loads one queued export by id.
func (s *Store) GetReportExport(ctx context.Context, id string) (ReportExport, error) {
	var (
		export   ReportExport
		rowsJSON string
		syncErr  int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, republic_id, format, filter_start, filter_end, filter_category, rows_json, created_at, synced_at, sync_error
		 FROM report_exports WHERE id = ?`, id).
		Scan(&export.ID, &export.RepublicID, &export.Format,
			&export.FilterStart, &export.FilterEnd, &export.FilterCategory,
			&rowsJSON, &export.CreatedAt, &export.SyncedAt, &syncErr)
	if errors.Is(err, sql.ErrNoRows) {
		return ReportExport{}, ErrExportNotFound
	}
	if err != nil {
		return ReportExport{}, fmt.Errorf("load report export: %w", err)
	}

	if err := json.Unmarshal([]byte(rowsJSON), &export.Rows); err != nil {
		return ReportExport{}, fmt.Errorf("unmarshal export rows: %w", err)
	}
	export.SyncError = syncErr != 0
	return export, nil
}

// ListPendingExports returns exports not yet synced to sheets, oldest first.
func (s *Store) ListPendingExports(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM report_exports WHERE synced_at IS NULL ORDER BY created_at LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list pending exports: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan export id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending exports: %w", err)
	}
	return ids, nil
}

// MarkExportSynced records a successful sheets append.
func (s *Store) MarkExportSynced(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE report_exports SET synced_at = ?, sync_error = 0 WHERE id = ?", at.UTC(), id)
	if err != nil {
		return fmt.Errorf("mark export synced: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrExportNotFound
	}
	return nil
}

// MarkExportSyncError flags an export whose sheets append failed so the
// startup catch-up retries it.
func (s *Store) MarkExportSyncError(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE report_exports SET sync_error = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("mark export sync error: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrExportNotFound
	}
	return nil
}
