package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hackhub/internal/clock"
	"hackhub/internal/debounce"
	"hackhub/internal/domain"
	"hackhub/internal/eventbus"
)

// DefaultDebounce is the quiet period before a typed query is issued
const DefaultDebounce = 300 * time.Millisecond

// Status is the lifecycle of the latest search
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// ErrorInfo describes what went wrong with the latest search. Partial lists
// sources that dropped out; Message is only set when nothing could be shown.
type ErrorInfo struct {
	Message   string
	Retryable bool
	Partial   []domain.Kind
}

// Banner reports whether the error should interrupt the user
func (e *ErrorInfo) Banner() bool {
	return e != nil && e.Message != ""
}

// Controller drives the search dropdown: it debounces keystrokes, issues
// one aggregated search per settled query and applies only the response
// to the most recently issued query.
type Controller struct {
	searcher  Searcher
	bus       eventbus.EventBus
	logger    *zap.Logger
	debouncer *debounce.Debouncer[string]

	ctx    context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	query  string
	items  []domain.ResultItem
	status Status
	err    *ErrorInfo
	closed bool
}

type controllerOptions struct {
	bus    eventbus.EventBus
	logger *zap.Logger
	delay  time.Duration
	clock  clock.Clock
}

// ControllerOption configures a Controller
type ControllerOption func(*controllerOptions)

// WithBus publishes search lifecycle events on bus
func WithBus(bus eventbus.EventBus) ControllerOption {
	return func(o *controllerOptions) { o.bus = bus }
}

// WithControllerLogger sets the controller's logger
func WithControllerLogger(l *zap.Logger) ControllerOption {
	return func(o *controllerOptions) { o.logger = l }
}

// WithDebounce sets the quiet period before a query is issued
func WithDebounce(d time.Duration) ControllerOption {
	return func(o *controllerOptions) { o.delay = d }
}

// WithClock replaces the clock driving the debounce timer
func WithClock(c clock.Clock) ControllerOption {
	return func(o *controllerOptions) { o.clock = c }
}

// NewController creates a controller issuing searches through searcher
func NewController(searcher Searcher, opts ...ControllerOption) *Controller {
	o := controllerOptions{
		bus:    eventbus.Nop{},
		logger: zap.NewNop(),
		delay:  DefaultDebounce,
		clock:  clock.Real{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, stop := context.WithCancel(context.Background())
	c := &Controller{
		searcher: searcher,
		bus:      o.bus,
		logger:   o.logger,
		ctx:      ctx,
		stop:     stop,
	}
	c.debouncer = debounce.New(o.delay, c.issue, debounce.WithClock(o.clock))
	return c
}

// OnQueryChange records the text currently typed. The search is issued once
// the text has been stable for the debounce delay. Clearing the text clears
// the results immediately.
func (c *Controller) OnQueryChange(text string) {
	q := strings.TrimSpace(text)
	c.debouncer.Set(q)
	if q == "" {
		c.debouncer.Flush()
	}
}

// Submit issues the search for text now, skipping the debounce delay
func (c *Controller) Submit(text string) {
	c.debouncer.Set(strings.TrimSpace(text))
	c.debouncer.Flush()
}

// Retry re-issues the last query
func (c *Controller) Retry() {
	c.mu.Lock()
	q := c.query
	c.mu.Unlock()
	if q != "" {
		c.issue(q)
	}
}

// DismissError hides the error banner
func (c *Controller) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusError {
		c.status = StatusIdle
	}
	c.err = nil
}

// Results returns the hits of the latest settled search
func (c *Controller) Results() []domain.ResultItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items
}

// Status returns the state of the latest search
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Error returns the error state of the latest search, or nil
func (c *Controller) Error() *ErrorInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Query returns the last issued query
func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Close stops the debounce timer, cancels the in-flight search and waits
// for it to return. Nothing is applied after Close.
func (c *Controller) Close() {
	c.debouncer.Stop()
	c.mu.Lock()
	c.closed = true
	c.gen++
	c.mu.Unlock()
	c.stop()
	c.wg.Wait()
}

// issue starts a search for q, superseding any search in flight
func (c *Controller) issue(q string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.gen++
	gen := c.gen
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	if q == "" {
		wasCleared := c.query == "" && c.items == nil
		c.query, c.items, c.status, c.err = "", nil, StatusIdle, nil
		c.mu.Unlock()
		if !wasCleared {
			c.bus.Publish(domain.SearchClearedEvent{})
		}
		return
	}

	ctx, cancel := context.WithCancel(c.ctx)
	c.cancel = cancel
	c.query = q
	c.status = StatusLoading
	c.err = nil
	c.wg.Add(1)
	c.mu.Unlock()

	reqID := uuid.NewString()
	c.logger.Debug("search issued", zap.String("request_id", reqID), zap.String("query", q))
	c.bus.Publish(domain.SearchStartedEvent{RequestID: reqID, Query: q})

	go c.run(ctx, cancel, gen, reqID, q)
}

func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, gen uint64, reqID, q string) {
	defer c.wg.Done()
	defer cancel()

	var (
		out Outcome
		err error
	)
	if ps, ok := c.searcher.(ProgressSearcher); ok {
		out, err = ps.SearchProgress(ctx, q, func(p Outcome) { c.applyProgress(gen, p) })
	} else {
		out, err = c.searcher.Search(ctx, q)
	}

	c.mu.Lock()
	if gen != c.gen || c.closed {
		c.mu.Unlock()
		c.logger.Debug("discarding superseded search", zap.String("request_id", reqID), zap.String("query", q))
		return
	}
	c.cancel = nil

	var events []domain.DomainEvent
	for _, f := range out.Failed {
		events = append(events, domain.SourceFailedEvent{RequestID: reqID, Kind: f.Kind, Err: f.Err})
	}

	switch {
	case err != nil:
		c.items = nil
		c.status = StatusError
		c.err = &ErrorInfo{
			Message:   "Search is unavailable right now.",
			Retryable: true,
			Partial:   out.FailedKinds(),
		}
		if !errors.Is(err, ErrAllSourcesFailed) {
			c.err.Message = "Search failed."
		}
		events = append(events, domain.SearchFailedEvent{RequestID: reqID, Query: q, Err: err})
		c.logger.Warn("search failed", zap.String("request_id", reqID), zap.String("query", q), zap.Error(err))
	default:
		c.items = out.Items
		c.status = StatusReady
		c.err = nil
		if out.Partial() {
			c.err = &ErrorInfo{Partial: out.FailedKinds()}
		}
		events = append(events, domain.SearchCompletedEvent{
			RequestID:     reqID,
			Query:         q,
			ResultCount:   len(out.Items),
			FailedSources: out.FailedKinds(),
		})
	}
	c.mu.Unlock()

	for _, ev := range events {
		c.bus.Publish(ev)
	}
}

// applyProgress shows the hits of the sources that have answered while the
// rest are still loading
func (c *Controller) applyProgress(gen uint64, p Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.closed {
		return
	}
	c.items = p.Items
	if p.Partial() {
		c.err = &ErrorInfo{Partial: p.FailedKinds()}
	}
}
