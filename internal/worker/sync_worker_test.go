package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contas/internal/amqp"
	"contas/internal/storage"
)

type fakeExportStore struct {
	exports map[string]*storage.ReportExport
	order   []string
}

func newFakeExportStore(exports ...storage.ReportExport) *fakeExportStore {
	f := &fakeExportStore{exports: make(map[string]*storage.ReportExport)}
	for _, e := range exports {
		e := e
		f.exports[e.ID] = &e
		f.order = append(f.order, e.ID)
	}
	return f
}

func (f *fakeExportStore) GetReportExport(ctx context.Context, id string) (storage.ReportExport, error) {
	e, ok := f.exports[id]
	if !ok {
		return storage.ReportExport{}, storage.ErrExportNotFound
	}
	return *e, nil
}

func (f *fakeExportStore) ListPendingExports(ctx context.Context, limit int) ([]string, error) {
	var ids []string
	for _, id := range f.order {
		if f.exports[id].SyncedAt == nil && len(ids) < limit {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeExportStore) MarkExportSynced(ctx context.Context, id string, at time.Time) error {
	e, ok := f.exports[id]
	if !ok {
		return storage.ErrExportNotFound
	}
	e.SyncedAt = &at
	e.SyncError = false
	return nil
}

func (f *fakeExportStore) MarkExportSyncError(ctx context.Context, id string) error {
	e, ok := f.exports[id]
	if !ok {
		return storage.ErrExportNotFound
	}
	e.SyncError = true
	return nil
}

type fakeAppender struct {
	titles []string
	err    error
}

func (f *fakeAppender) AppendReportRows(ctx context.Context, title string, rows [][]string) error {
	if f.err != nil {
		return f.err
	}
	f.titles = append(f.titles, title)
	return nil
}

func pendingExport(id string) storage.ReportExport {
	return storage.ReportExport{
		ID:         id,
		RepublicID: 7,
		Format:     "csv",
		Rows:       [][]string{{"Data Vencimento"}, {"10/03/2026"}},
		CreatedAt:  time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC),
	}
}

func exportMessage(id string) *amqp.ReportExportMessage {
	return amqp.NewReportExportMessage(id, 7)
}

func TestHandleExportMessage_SyncsPendingExport(t *testing.T) {
	store := newFakeExportStore(pendingExport("exp-1"))
	appender := &fakeAppender{}
	w := NewSyncWorker(store, appender, 10)

	err := w.HandleExportMessage(context.Background(), exportMessage("exp-1"))
	require.NoError(t, err)

	require.Len(t, appender.titles, 1)
	assert.Contains(t, appender.titles[0], "república 7")
	assert.NotNil(t, store.exports["exp-1"].SyncedAt)
	assert.False(t, store.exports["exp-1"].SyncError)
}

func TestHandleExportMessage_SkipsAlreadySynced(t *testing.T) {
	synced := pendingExport("exp-1")
	at := time.Now()
	synced.SyncedAt = &at
	store := newFakeExportStore(synced)
	appender := &fakeAppender{}
	w := NewSyncWorker(store, appender, 10)

	err := w.HandleExportMessage(context.Background(), exportMessage("exp-1"))
	require.NoError(t, err)
	assert.Empty(t, appender.titles)
}

func TestHandleExportMessage_UnknownExport(t *testing.T) {
	w := NewSyncWorker(newFakeExportStore(), &fakeAppender{}, 10)

	err := w.HandleExportMessage(context.Background(), exportMessage("nope"))
	assert.ErrorIs(t, err, storage.ErrExportNotFound)
}

func TestHandleExportMessage_AppendFailureMarksError(t *testing.T) {
	store := newFakeExportStore(pendingExport("exp-1"))
	appender := &fakeAppender{err: errors.New("sheets quota exceeded")}
	w := NewSyncWorker(store, appender, 10)

	err := w.HandleExportMessage(context.Background(), exportMessage("exp-1"))
	require.Error(t, err)

	assert.True(t, store.exports["exp-1"].SyncError)
	assert.Nil(t, store.exports["exp-1"].SyncedAt)
}

func TestStartupSyncCheck_PushesPendingExports(t *testing.T) {
	store := newFakeExportStore(pendingExport("exp-1"), pendingExport("exp-2"))
	appender := &fakeAppender{}
	w := NewSyncWorker(store, appender, 10)

	require.NoError(t, w.StartupSyncCheck(context.Background()))

	assert.Len(t, appender.titles, 2)
	assert.NotNil(t, store.exports["exp-1"].SyncedAt)
	assert.NotNil(t, store.exports["exp-2"].SyncedAt)
}

func TestStartupSyncCheck_RetriesErroredExports(t *testing.T) {
	store := newFakeExportStore(pendingExport("exp-1"))
	appender := &fakeAppender{err: errors.New("sheets down")}
	w := NewSyncWorker(store, appender, 10)

	// Individual push failures do not fail the startup pass.
	require.NoError(t, w.StartupSyncCheck(context.Background()))
	assert.True(t, store.exports["exp-1"].SyncError)
	assert.Nil(t, store.exports["exp-1"].SyncedAt)

	// The export stays pending, so the next pass picks it up again.
	appender.err = nil
	require.NoError(t, w.StartupSyncCheck(context.Background()))
	assert.NotNil(t, store.exports["exp-1"].SyncedAt)
	assert.False(t, store.exports["exp-1"].SyncError)
}

func TestExportTitle(t *testing.T) {
	createdAt := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		export storage.ReportExport
		want   string
	}{
		{
			"no filters",
			storage.ReportExport{RepublicID: 7, CreatedAt: createdAt},
			"Relatório 15/03/2026 14:30 (república 7)",
		},
		{
			"full period",
			storage.ReportExport{
				RepublicID:  7,
				CreatedAt:   createdAt,
				FilterStart: "2026-03-01",
				FilterEnd:   "2026-03-31",
			},
			"Relatório 15/03/2026 14:30 (república 7) período 2026-03-01 a 2026-03-31",
		},
		{
			"open-ended period",
			storage.ReportExport{
				RepublicID:  7,
				CreatedAt:   createdAt,
				FilterStart: "2026-03-01",
			},
			"Relatório 15/03/2026 14:30 (república 7) período 2026-03-01 a -",
		},
		{
			"category filter",
			storage.ReportExport{
				RepublicID:     7,
				CreatedAt:      createdAt,
				FilterCategory: "luz",
			},
			"Relatório 15/03/2026 14:30 (república 7) categoria luz",
		},
		{
			"category all is not a filter",
			storage.ReportExport{
				RepublicID:     7,
				CreatedAt:      createdAt,
				FilterCategory: "all",
			},
			"Relatório 15/03/2026 14:30 (república 7)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exportTitle(tt.export))
		})
	}
}
