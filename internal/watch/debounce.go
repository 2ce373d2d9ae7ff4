// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"maps"
	"slices"
	"sync"
	"time"
)

// debouncer coalesces noted paths into batches. Every note resets the
// quiet-period timer; when it expires the accumulated set is handed to
// flush in one call. A batch that comes due while flush is still running
// is rescheduled rather than dropped.
type debouncer struct {
	quiet  time.Duration
	flush  func(changed []string)
	onBusy func()

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	busy    bool
}

func newDebouncer(quiet time.Duration, flush func([]string)) *debouncer {
	return &debouncer{
		quiet:   quiet,
		flush:   flush,
		pending: make(map[string]struct{}),
	}
}

// note records a changed path and starts or extends the quiet period.
func (d *debouncer) note(rel string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[rel] = struct{}{}
	if d.timer == nil {
		d.timer = time.AfterFunc(d.quiet, d.fire)
	} else {
		d.timer.Reset(d.quiet)
	}
}

// fire runs on the timer goroutine when the quiet period expires.
func (d *debouncer) fire() {
	d.mu.Lock()
	if d.busy {
		// The previous flush has not returned. Push the batch out by
		// another quiet period so it is retried, not lost.
		if d.timer != nil {
			d.timer.Reset(d.quiet)
		}
		onBusy := d.onBusy
		d.mu.Unlock()
		if onBusy != nil {
			onBusy()
		}
		return
	}
	if len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	batch := slices.Sorted(maps.Keys(d.pending))
	clear(d.pending)
	d.busy = true
	d.mu.Unlock()

	d.flush(batch)

	d.mu.Lock()
	d.busy = false
	d.mu.Unlock()
}

// stop halts the timer. A tick already in flight may still invoke fire
// once; callers that care must not rely on stop as a barrier.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
