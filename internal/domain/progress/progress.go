// Package progress counts asset preloads for the loading indicator.
package progress

import (
	"math"
	"sync"
)

// Snapshot is a point-in-time view of a preload generation.
type Snapshot struct {
	Generation int  `json:"generation"`
	Loaded     int  `json:"loaded"`
	Failed     int  `json:"failed"`
	Total      int  `json:"total"`
	Percent    int  `json:"percent"`
	Complete   bool `json:"complete"`
}

// Tracker counts completions for the current generation. Failed loads are
// counted as loaded so the indicator always reaches 100%.
type Tracker struct {
	mu         sync.RWMutex
	generation int
	loaded     int
	failed     int
	total      int
}

// NewTracker returns a tracker at generation 0 with nothing scheduled.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Reset starts a new generation of total loads and returns its number.
// Completions reported for older generations are ignored from now on.
func (t *Tracker) Reset(total int) int {
	if total < 0 {
		total = 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generation++
	t.loaded, t.failed, t.total = 0, 0, total
	return t.generation
}

// Done records one finished load. It reports whether the completion
// belonged to the current generation.
func (t *Tracker) Done(generation int, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if generation != t.generation || t.loaded >= t.total {
		return false
	}
	t.loaded++
	if err != nil {
		t.failed++
	}
	return true
}

// Snapshot returns the current counters.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Snapshot{
		Generation: t.generation,
		Loaded:     t.loaded,
		Failed:     t.failed,
		Total:      t.total,
		Percent:    percent(t.loaded, t.total),
		Complete:   t.loaded >= t.total,
	}
}

func percent(loaded, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(loaded) / float64(total) * 100))
}
