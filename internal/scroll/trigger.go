// Package scroll requests more list items when the viewport nears the end
// of its content.
package scroll

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"hackhub/internal/domain"
	"hackhub/internal/eventbus"
)

const (
	// DefaultThreshold is how close to the bottom, in rows, a load triggers
	DefaultThreshold = 3
	// DefaultTimeout bounds a single load
	DefaultTimeout = 10 * time.Second
)

// Position is a snapshot of the viewport over the list content
type Position struct {
	Offset         int
	ViewportHeight int
	ContentHeight  int
}

// FromEvent converts a published scroll event
func FromEvent(e domain.ViewportScrolledEvent) Position {
	return Position{Offset: e.Offset, ViewportHeight: e.ViewportHeight, ContentHeight: e.ContentHeight}
}

// DistanceToBottom returns the number of content rows below the viewport.
// Content shorter than the viewport is already at the bottom.
func (p Position) DistanceToBottom() int {
	return max(p.ContentHeight-(p.Offset+p.ViewportHeight), 0)
}

// Trigger calls loadMore when the viewport comes within the threshold of
// the bottom. At most one load runs at a time; the latch is released
// whether the load succeeds, fails, panics or times out.
type Trigger struct {
	loadMore  func(context.Context) error
	hasMore   func() bool
	threshold int
	timeout   time.Duration
	logger    *zap.Logger

	inflight atomic.Bool
	wg       sync.WaitGroup

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	unsub    func()
	detached bool
}

// Option configures a Trigger
type Option func(*Trigger)

// WithThreshold sets the trigger distance in rows
func WithThreshold(rows int) Option { return func(t *Trigger) { t.threshold = rows } }

// WithTimeout bounds each load. Zero disables the bound.
func WithTimeout(d time.Duration) Option { return func(t *Trigger) { t.timeout = d } }

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option { return func(t *Trigger) { t.logger = l } }

// NewTrigger creates a trigger. hasMore is consulted before every load.
func NewTrigger(loadMore func(context.Context) error, hasMore func() bool, opts ...Option) *Trigger {
	ctx, cancel := context.WithCancel(context.Background())
	t := &Trigger{
		loadMore:  loadMore,
		hasMore:   hasMore,
		threshold: DefaultThreshold,
		timeout:   DefaultTimeout,
		logger:    zap.NewNop(),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Attach observes scroll events published on bus
func (t *Trigger) Attach(bus eventbus.EventBus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.detached {
		return
	}
	if t.unsub != nil {
		t.unsub()
	}
	t.unsub = bus.Subscribe(domain.EventViewportScrolled, func(e domain.DomainEvent) {
		if ev, ok := e.(domain.ViewportScrolledEvent); ok {
			t.OnScroll(FromEvent(ev))
		}
	})
}

// Detach stops observing, cancels a running load and waits for it to
// return. The trigger is inert afterwards.
func (t *Trigger) Detach() {
	t.mu.Lock()
	t.detached = true
	if t.unsub != nil {
		t.unsub()
		t.unsub = nil
	}
	t.mu.Unlock()
	t.cancel()
	t.wg.Wait()
}

// OnScroll checks pos and starts a load if needed. It reports whether a
// load was started.
func (t *Trigger) OnScroll(pos Position) bool {
	if pos.DistanceToBottom() > t.threshold {
		return false
	}
	if !t.hasMore() {
		return false
	}
	if !t.inflight.CompareAndSwap(false, true) {
		return false
	}

	t.mu.Lock()
	if t.detached {
		t.mu.Unlock()
		t.inflight.Store(false)
		return false
	}
	t.wg.Add(1)
	t.mu.Unlock()

	go t.load()
	return true
}

// Loading reports whether a load is running
func (t *Trigger) Loading() bool {
	return t.inflight.Load()
}

// Wait blocks until the running load, if any, has returned
func (t *Trigger) Wait() {
	t.wg.Wait()
}

func (t *Trigger) load() {
	defer t.wg.Done()
	defer t.inflight.Store(false)

	ctx := t.ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				t.logger.Error("load more panicked", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				done <- errors.New("load more panicked")
			}
		}()
		done <- t.loadMore(ctx)
	}()

	// A load that ignores its context still releases the latch on timeout
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.logger.Warn("load more failed", zap.Error(err))
		}
	case <-ctx.Done():
		t.logger.Warn("load more abandoned", zap.Error(ctx.Err()))
	}
}
