// Package worker pushes queued report exports to Google Sheets. Messages
// arrive over AMQP; a startup catch-up covers exports whose message was
// lost while the worker was down.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"contas/internal/amqp"
	"contas/internal/metrics"
	"contas/internal/sheets"
	"contas/internal/storage"
)

// ExportStore is the slice of the storage layer the worker reads and marks.
type ExportStore interface {
	GetReportExport(ctx context.Context, id string) (storage.ReportExport, error)
	ListPendingExports(ctx context.Context, limit int) ([]string, error)
	MarkExportSynced(ctx context.Context, id string, at time.Time) error
	MarkExportSyncError(ctx context.Context, id string) error
}

// SyncWorker loads report exports from SQLite and appends them to the
// shared spreadsheet.
type SyncWorker struct {
	store     ExportStore
	appender  sheets.ReportAppender
	batchSize int
}

func NewSyncWorker(store ExportStore, appender sheets.ReportAppender, batchSize int) *SyncWorker {
	return &SyncWorker{
		store:     store,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleExportMessage processes a single report export message from AMQP.
func (w *SyncWorker) HandleExportMessage(ctx context.Context, msg *amqp.ReportExportMessage) error {
	slog.InfoContext(ctx, "Processing export message",
		"export_id", msg.ExportID,
		"republic_id", msg.RepublicID)

	export, err := w.store.GetReportExport(ctx, msg.ExportID)
	if err != nil {
		return fmt.Errorf("get report export from storage: %w", err)
	}
	if export.SyncedAt != nil {
		slog.InfoContext(ctx, "Export already synced, skipping", "export_id", msg.ExportID)
		return nil
	}

	return w.pushExport(ctx, export)
}

// StartupSyncCheck pushes exports that are still pending at worker startup.
// Covers messages lost to broker or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	ids, err := w.store.ListPendingExports(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list pending exports for startup check: %w", err)
	}
	if len(ids) == 0 {
		slog.InfoContext(ctx, "No pending exports found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending exports on startup, processing...", "count", len(ids))

	successCount := 0
	errorCount := 0
	for _, id := range ids {
		export, err := w.store.GetReportExport(ctx, id)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load export for startup sync", "export_id", id, "error", err)
			errorCount++
			continue
		}
		if err := w.pushExport(ctx, export); err != nil {
			slog.ErrorContext(ctx, "Failed to sync export during startup", "export_id", id, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(ids),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

func (w *SyncWorker) pushExport(ctx context.Context, export storage.ReportExport) error {
	title := exportTitle(export)

	start := time.Now()
	err := w.appender.AppendReportRows(ctx, title, export.Rows)
	if err != nil {
		metrics.ObserveSheetsSync(metrics.ResultError, time.Since(start))
	} else {
		metrics.ObserveSheetsSync(metrics.ResultSuccess, time.Since(start))
	}
	if err != nil {
		if markErr := w.store.MarkExportSyncError(ctx, export.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export sync error", "export_id", export.ID, "error", markErr)
		}
		return fmt.Errorf("append report to sheets: %w", err)
	}

	if err := w.store.MarkExportSynced(ctx, export.ID, time.Now()); err != nil {
		// The append succeeded; log and move on so the row is not re-pushed
		// only because bookkeeping failed.
		slog.ErrorContext(ctx, "Failed to mark export as synced", "export_id", export.ID, "error", err)
	}

	slog.InfoContext(ctx, "Export synced to sheets",
		"export_id", export.ID,
		"republic_id", export.RepublicID,
		"rows", len(export.Rows))
	return nil
}

// exportTitle labels the appended block so consecutive exports stay
// distinguishable in the spreadsheet.
func exportTitle(export storage.ReportExport) string {
	title := fmt.Sprintf("Relatório %s (república %d)",
		export.CreatedAt.Format("02/01/2006 15:04"), export.RepublicID)
	if export.FilterStart != "" || export.FilterEnd != "" {
		title += fmt.Sprintf(" período %s a %s", orDash(export.FilterStart), orDash(export.FilterEnd))
	}
	if export.FilterCategory != "" && export.FilterCategory != "all" {
		title += " categoria " + export.FilterCategory
	}
	return title
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
