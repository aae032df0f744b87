// Package http serves the JSON API the single-page app consumes. All
// expense status and split math happens server-side; the SPA only renders
// what these handlers return.
package http

import (
	"context"
	"strconv"
	"time"

	"contas/internal/cache"
	"contas/internal/core"
	"contas/internal/log"
	"contas/internal/metrics"
	"contas/internal/storage"
)

// Upstream fetches live república state from the remote API.
type Upstream interface {
	FetchSnapshot(ctx context.Context, republicID int64) (core.Snapshot, error)
}

// SnapshotStore persists the last good snapshot for offline fallback.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap core.Snapshot, fetchedAt time.Time) error
	LoadSnapshot(ctx context.Context, republicID int64) (core.Snapshot, time.Time, error)
}

// ExportStore queues rendered report exports for the sheets worker.
type ExportStore interface {
	CreateReportExport(ctx context.Context, export storage.ReportExport) error
}

// ExportPublisher notifies the worker that an export is waiting.
type ExportPublisher interface {
	PublishReportExport(ctx context.Context, exportID string, republicID int64) error
}

// SnapshotService answers snapshot reads from a small LRU, falling back to
// the upstream API and then to the last snapshot stored in SQLite.
type SnapshotService struct {
	upstream Upstream
	store    SnapshotStore
	cache    *cache.LRUCache[core.Snapshot]
	logger   *log.Logger
}

func NewSnapshotService(upstream Upstream, store SnapshotStore, snapCache *cache.LRUCache[core.Snapshot], logger *log.Logger) *SnapshotService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SnapshotService{
		upstream: upstream,
		store:    store,
		cache:    snapCache,
		logger:   logger.WithComponent(log.ComponentHTTP),
	}
}

// Snapshot returns the república state. stale is true when the upstream
// API failed and the result came from the SQLite fallback.
func (s *SnapshotService) Snapshot(ctx context.Context, republicID int64) (snap core.Snapshot, stale bool, err error) {
	key := snapshotKey(republicID)
	if cached, ok := s.cache.Get(key); ok {
		metrics.IncSnapshotCacheHit()
		return cached, false, nil
	}
	metrics.IncSnapshotCacheMiss()

	snap, fetchErr := s.upstream.FetchSnapshot(ctx, republicID)
	if fetchErr == nil {
		s.cache.Set(key, snap)
		if s.store != nil {
			if saveErr := s.store.SaveSnapshot(ctx, snap, time.Now()); saveErr != nil {
				s.logger.WarnContext(ctx, "failed to persist snapshot", "republic_id", republicID, "error", saveErr)
			}
		}
		return snap, false, nil
	}

	if s.store == nil {
		return core.Snapshot{}, false, fetchErr
	}

	stored, fetchedAt, loadErr := s.store.LoadSnapshot(ctx, republicID)
	if loadErr != nil {
		s.logger.ErrorContext(ctx, "upstream failed and no stored snapshot",
			"republic_id", republicID,
			"upstream_error", fetchErr,
			"storage_error", loadErr)
		return core.Snapshot{}, false, fetchErr
	}

	metrics.IncSnapshotFallback()
	s.logger.WarnContext(ctx, "serving stored snapshot, upstream unavailable",
		"republic_id", republicID,
		"fetched_at", fetchedAt.Format(time.RFC3339),
		"upstream_error", fetchErr)
	return stored, true, nil
}

// Invalidate drops the cached snapshot so the next read refetches.
func (s *SnapshotService) Invalidate(republicID int64) {
	s.cache.Delete(snapshotKey(republicID))
}

func snapshotKey(republicID int64) string {
	return "snapshot:" + strconv.FormatInt(republicID, 10)
}
