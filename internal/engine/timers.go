// Scheduled-removal registry of the Reelo reaction engine.
// Every pipeline timer is registered here so teardown can cancel all of them
// in one step instead of each call site remembering to do so. Leaked timers
// fire against unmounted state.

package engine

import (
	"sync"
	"time"
)

type timerSet struct {
	mu      sync.Mutex
	stopped bool
	nextID  int
	timers  map[int]*time.Timer
	tickers []*time.Ticker
	done    chan struct{}
}

func newTimerSet() *timerSet {
	return &timerSet{
		timers: make(map[int]*time.Timer),
		done:   make(chan struct{}),
	}
}

// After schedules fn once after d and returns a cancellation handle.
func (ts *timerSet) After(d time.Duration, fn func()) (cancel func()) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.stopped {
		return func() {}
	}
	id := ts.nextID
	ts.nextID++
	ts.timers[id] = time.AfterFunc(d, func() {
		ts.mu.Lock()
		delete(ts.timers, id)
		stopped := ts.stopped
		ts.mu.Unlock()
		if !stopped {
			fn()
		}
	})
	return func() {
		ts.mu.Lock()
		defer ts.mu.Unlock()
		if t, ok := ts.timers[id]; ok {
			t.Stop()
			delete(ts.timers, id)
		}
	}
}

// Every runs fn on a fixed tick until StopAll.
func (ts *timerSet) Every(d time.Duration, fn func()) {
	ts.mu.Lock()
	if ts.stopped {
		ts.mu.Unlock()
		return
	}
	ticker := time.NewTicker(d)
	ts.tickers = append(ts.tickers, ticker)
	ts.mu.Unlock()

	go func() {
		for {
			select {
			case <-ticker.C:
				fn()
			case <-ts.done:
				return
			}
		}
	}()
}

// StopAll cancels every pending timer and ticker. Idempotent.
func (ts *timerSet) StopAll() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.stopped {
		return
	}
	ts.stopped = true
	for id, t := range ts.timers {
		t.Stop()
		delete(ts.timers, id)
	}
	for _, ticker := range ts.tickers {
		ticker.Stop()
	}
	ts.tickers = nil
	close(ts.done)
}
