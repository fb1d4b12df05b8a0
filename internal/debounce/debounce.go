// Package debounce delays a rapidly changing value until it has been stable
// for a quiet period.
package debounce

import (
	"sync"
	"time"

	"hackhub/internal/clock"
)

// Debouncer emits the last value passed to Set once no new value has arrived
// for the configured delay. Intermediate values are never emitted.
type Debouncer[T comparable] struct {
	mu      sync.Mutex
	clock   clock.Clock
	delay   time.Duration
	emit    func(T)
	timer   clock.Timer
	gen     uint64
	pending T
	waiting bool
	last    T
	emitted bool
	stopped bool
}

// Option configures a Debouncer
type Option func(*options)

type options struct {
	clock clock.Clock
}

// WithClock replaces the real clock, mainly for tests
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// New creates a debouncer calling emit with each settled value.
// emit runs on the timer goroutine.
func New[T comparable](delay time.Duration, emit func(T), opts ...Option) *Debouncer[T] {
	o := options{clock: clock.Real{}}
	for _, opt := range opts {
		opt(&o)
	}
	return &Debouncer[T]{
		clock: o.clock,
		delay: delay,
		emit:  emit,
	}
}

// Set records a new value and restarts the quiet period. Setting the value
// that is already pending does not restart it.
func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.waiting && d.pending == v {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}

	d.gen++
	gen := d.gen
	d.pending = v
	d.waiting = true
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Flush emits the pending value now instead of waiting for the delay
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.stopped || !d.waiting {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	v, ok := d.settle()
	d.mu.Unlock()

	if ok {
		d.emit(v)
	}
}

// Pending returns the value waiting for quiescence, if any
func (d *Debouncer[T]) Pending() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending, d.waiting
}

// Stop releases the timer. No value is emitted after Stop returns, except by
// an emit call that was already running.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.waiting = false
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	// A newer Set, Flush or Stop superseded this timer
	if d.stopped || gen != d.gen || !d.waiting {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	v, ok := d.settle()
	d.mu.Unlock()

	if ok {
		d.emit(v)
	}
}

// settle clears the pending value and reports whether it differs from the
// last emitted one. Callers hold d.mu.
func (d *Debouncer[T]) settle() (T, bool) {
	v := d.pending
	d.waiting = false
	var zero T
	d.pending = zero
	if d.emitted && d.last == v {
		return v, false
	}
	d.last = v
	d.emitted = true
	return v, true
}
