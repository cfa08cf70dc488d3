package assets

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/okian/gamestore/pkg/logger"
)

// Watcher calls onChange once a burst of changes in a directory settles.
type Watcher struct {
	dir      string
	debounce time.Duration
	matches  func(name string) bool
	onChange func(ctx context.Context)
	log      logger.Logger

	watcher *fsnotify.Watcher

	mu       sync.Mutex
	timer    *time.Timer
	stopped  bool
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long the directory must be quiet before onChange runs.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithFilter limits the events that trigger onChange to matching file names.
func WithFilter(match func(name string) bool) WatcherOption {
	return func(w *Watcher) {
		if match != nil {
			w.matches = match
		}
	}
}

// WithWatcherLogger sets the watcher logger.
func WithWatcherLogger(l logger.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// NewWatcher creates a watcher for dir. It does not watch until Start.
func NewWatcher(dir string, onChange func(ctx context.Context), opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWatch, err)
	}
	w := &Watcher{
		dir:      dir,
		debounce: 500 * time.Millisecond,
		matches:  func(string) bool { return true },
		onChange: onChange,
		log:      logger.Nop(),
		watcher:  fw,
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching. The loop ends when ctx is cancelled or Stop is called.
// A failed Start releases the underlying watcher; the Watcher cannot be
// started again.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		_ = w.Stop()
		return fmt.Errorf("%w: %s: %w", ErrWatch, w.dir, err)
	}
	w.wg.Add(1)
	go w.watchLoop(ctx)
	w.log.Info(ctx, "watching asset directory",
		logger.String("dir", w.dir),
		logger.Duration("debounce", w.debounce))
	return nil
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error(ctx, "asset watcher error", logger.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}
	if !w.matches(filepath.Base(event.Name)) {
		return
	}
	w.log.Debug(ctx, "asset event",
		logger.String("op", event.Op.String()),
		logger.String("file", event.Name))

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		stopped := w.stopped
		w.mu.Unlock()
		if stopped || ctx.Err() != nil {
			return
		}
		w.onChange(ctx)
	})
}

// Stop ends the watch loop and cancels any pending callback.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.stopped = true
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()

		close(w.stopChan)
		w.wg.Wait()
		err = w.watcher.Close()
	})
	return err
}
