package watch

import (
	"sync"
	"time"
)

// debouncer coalesces bursts of filesystem events per schema file: the
// action fires once per path after a quiet period, an editor's
// write-rename-chmod sequence collapsing into a single run.
type debouncer struct {
	mu     sync.Mutex
	quiet  time.Duration
	timers map[string]*time.Timer
	action func(path string)
}

func newDebouncer(quiet time.Duration, action func(path string)) *debouncer {
	if quiet <= 0 {
		quiet = 300 * time.Millisecond
	}
	return &debouncer{
		quiet:  quiet,
		timers: make(map[string]*time.Timer),
		action: action,
	}
}

// trigger (re)starts the quiet timer for a path.
func (d *debouncer) trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.timers[path]; ok {
		timer.Stop()
	}
	d.timers[path] = time.AfterFunc(d.quiet, func() {
		d.mu.Lock()
		delete(d.timers, path)
		d.mu.Unlock()
		d.action(path)
	})
}

// stop cancels all pending timers.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for path, timer := range d.timers {
		timer.Stop()
		delete(d.timers, path)
	}
}
