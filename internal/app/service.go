// Package service wires the record store, the asset directory and the
// preload workers behind the operations the HTTP API serves.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/gamestore/internal/adapters/assets"
	"github.com/okian/gamestore/internal/adapters/mq/queue"
	"github.com/okian/gamestore/internal/adapters/mq/worker"
	"github.com/okian/gamestore/internal/domain/catalog"
	"github.com/okian/gamestore/internal/domain/model"
	"github.com/okian/gamestore/internal/domain/naming"
	"github.com/okian/gamestore/internal/domain/progress"
	"github.com/okian/gamestore/pkg/logger"
	"github.com/okian/gamestore/pkg/metrics"
)

// RecordStore supplies game records.
type RecordStore interface {
	Games(ctx context.Context) ([]model.GameRecord, error)
}

// AssetLister supplies the asset file names.
type AssetLister interface {
	List(ctx context.Context) ([]string, error)
}

// snapshot is an immutable name index with the listing it was built from.
type snapshot struct {
	names   []string
	index   naming.Index
	builtAt time.Time
}

// Service implements the API dependencies for the catalog browser.
type Service struct {
	mu sync.RWMutex

	store    RecordStore
	lister   AssetLister
	loader   worker.Loader
	resolver catalog.Resolver

	index   atomic.Pointer[snapshot]
	tracker *progress.Tracker
	queue   *queue.InMemoryQueue
	pool    *worker.Pool
	watcher *assets.Watcher

	pageSize      int
	assetPrefix   string
	workerCount   int
	queueSize     int
	watchDir      string
	watchDebounce time.Duration

	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a Service. A store and a lister must be supplied.
func New(opts ...Option) *Service {
	s := &Service{
		resolver:    naming.NewResolver(),
		tracker:     progress.NewTracker(),
		pageSize:    catalog.DefaultPageSize,
		assetPrefix: "/gorseller/",
		workerCount: runtime.NumCPU(),
		queueSize:   4096,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the first name index, starts the preload workers and, when
// configured, the directory watcher. A failed first listing is logged and
// the service keeps running with an empty index.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	if s.store == nil || s.lister == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: store and asset lister are required", ErrNotConfigured)
	}

	s.logger.Info(ctx, "starting catalog service...")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	if s.loader != nil {
		s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
		s.pool = worker.NewPool(s.workerCount, s.queue, s.loader, s.tracker, worker.WithPoolLogger(s.logger.Named("preload")))
		s.pool.Start(runCtx)
	}

	if s.watchDir != "" {
		w, err := assets.NewWatcher(s.watchDir, s.onAssetsChanged, s.watcherOptions()...)
		if err == nil {
			if err = w.Start(runCtx); err != nil {
				_ = w.Stop()
			}
		}
		if err != nil {
			s.logger.Warn(ctx, "asset watcher disabled", logger.Error(err))
		} else {
			s.watcher = w
		}
	}

	s.started = true
	watching := s.watcher != nil
	s.mu.Unlock()

	if err := s.Refresh(ctx); err != nil {
		s.logger.Error(ctx, "initial asset listing failed", logger.Error(err))
	}

	s.logger.Info(ctx, "catalog service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("pageSize", s.pageSize),
		logger.String("assetPrefix", s.assetPrefix),
		logger.Bool("watching", watching),
	)
	return nil
}

func (s *Service) watcherOptions() []assets.WatcherOption {
	opts := []assets.WatcherOption{
		assets.WithDebounce(s.watchDebounce),
		assets.WithWatcherLogger(s.logger.Named("watcher")),
	}
	if m, ok := s.lister.(interface{ Matches(name string) bool }); ok {
		opts = append(opts, assets.WithFilter(m.Matches))
	}
	return opts
}

func (s *Service) onAssetsChanged(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		s.logger.Error(ctx, "asset refresh failed", logger.Error(err))
	}
}

// Stop shuts down the watcher, the workers and the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping catalog service...")

	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			s.logger.Warn(ctx, "error stopping watcher", logger.Error(err))
		}
		s.watcher = nil
	}
	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
		s.pool, s.queue = nil, nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	if closer, ok := s.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn(ctx, "error closing store", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "catalog service stopped")
}

// Refresh lists the asset directory, swaps in a new name index and starts
// a new preload generation for every listed file.
func (s *Service) Refresh(ctx context.Context) error {
	if s.lister == nil {
		return fmt.Errorf("%w: no asset lister", ErrNotConfigured)
	}
	names, err := s.lister.List(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAssets, err)
	}

	s.index.Store(&snapshot{
		names:   names,
		index:   naming.BuildIndex(names),
		builtAt: time.Now(),
	})
	metrics.UpdateAssetsTotal(len(names))
	metrics.RecordIndexRebuild()

	s.preload(ctx, names)
	s.logger.Info(ctx, "name index rebuilt", logger.Int("assets", len(names)))
	return nil
}

// preload schedules one job per asset. Jobs that cannot be queued are
// completed as failures right away so the generation can still finish.
func (s *Service) preload(ctx context.Context, names []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.queue == nil {
		return
	}
	gen := s.tracker.Reset(len(names))
	metrics.UpdatePreloadTotal(len(names), gen)

	dropped := 0
	for _, name := range names {
		if err := s.queue.Enqueue(ctx, queue.Job{Name: name, Generation: gen}); err != nil {
			s.tracker.Done(gen, err)
			dropped++
		}
	}
	if dropped > 0 {
		s.logger.Warn(ctx, "preload jobs dropped",
			logger.Int("generation", gen),
			logger.Int("dropped", dropped))
	}
}

// Games returns every stored record unchanged.
func (s *Service) Games(ctx context.Context) ([]model.GameRecord, error) {
	if s.store == nil {
		return nil, fmt.Errorf("%w: no record store", ErrNotConfigured)
	}
	games, err := s.store.Games(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecords, err)
	}
	return games, nil
}

// Images lists the asset directory as it is now.
func (s *Service) Images(ctx context.Context) ([]string, error) {
	if s.lister == nil {
		return nil, fmt.Errorf("%w: no asset lister", ErrNotConfigured)
	}
	names, err := s.lister.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAssets, err)
	}
	return names, nil
}

// Catalog builds one page of the browser table from the stored records and
// the current name index.
func (s *Service) Catalog(ctx context.Context, q catalog.Query) (catalog.Page, error) {
	records, err := s.Games(ctx)
	if err != nil {
		return catalog.Page{}, err
	}

	snap := s.index.Load()
	if snap == nil {
		if err := s.Refresh(ctx); err != nil {
			return catalog.Page{}, err
		}
		snap = s.index.Load()
	}

	page := catalog.Build(records, snap.index, s.resolver, q, s.pageSize, s.assetPrefix)
	metrics.UpdateCatalogRecords(len(records))
	metrics.UpdateCatalogResolved(page.Total)
	metrics.RecordResolverHits(page.Total)
	metrics.RecordResolverMisses(page.Matched - page.Total)
	return page, nil
}

// Progress returns the preload progress of the current generation.
func (s *Service) Progress() progress.Snapshot {
	return s.tracker.Snapshot()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"pageSize":    s.pageSize,
		"assetPrefix": s.assetPrefix,
		"watching":    s.watcher != nil,
		"progress":    s.tracker.Snapshot(),
	}
	if snap := s.index.Load(); snap != nil {
		stats["assets"] = len(snap.names)
		stats["indexKeys"] = snap.index.Len()
		stats["indexBuiltAt"] = snap.builtAt.UTC().Format(time.RFC3339)
	}
	if s.queue != nil {
		n := s.queue.Len()
		stats["queueLength"] = n
		metrics.UpdatePreloadQueueSize(n)
	}
	return stats
}
