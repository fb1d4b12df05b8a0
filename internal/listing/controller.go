// Package listing drives the tabbed, filterable and incrementally revealed
// event and article lists.
package listing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"hackhub/internal/clock"
	"hackhub/internal/debounce"
	"hackhub/internal/domain"
	"hackhub/internal/eventbus"
	"hackhub/internal/logic"
	"hackhub/internal/pager"
	"hackhub/internal/scroll"
	"hackhub/internal/source"
)

// DefaultDebounce is the quiet period before a typed filter term applies
const DefaultDebounce = 300 * time.Millisecond

// Controller owns the list page state: active tab, filters, the reveal
// cursor and the lazily fetched collections.
type Controller struct {
	store       source.Store
	bus         eventbus.EventBus
	logger      *zap.Logger
	clock       clock.Clock
	revealDelay time.Duration

	filters   *logic.Filters
	pager     *pager.Pager
	debouncer *debounce.Debouncer[string]
	trigger   *scroll.Trigger

	mu           sync.RWMutex
	tab          domain.Tab
	state        domain.FilterState
	events       []*domain.Event
	articles     []*domain.Article
	loads        map[domain.Kind]domain.LoadState
	loadErrs     map[domain.Kind]error
	fetchingMore bool
}

type options struct {
	bus         eventbus.EventBus
	logger      *zap.Logger
	clock       clock.Clock
	pageSize    int
	debounce    time.Duration
	revealDelay time.Duration
	threshold   int
	loadTimeout time.Duration
	tab         domain.Tab
}

// Option configures a Controller
type Option func(*options)

// WithBus publishes list events on bus and lets the controller observe
// scroll events from it
func WithBus(bus eventbus.EventBus) Option { return func(o *options) { o.bus = bus } }

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.logger = l } }

// WithClock replaces the clock used for debouncing and reveal delays
func WithClock(c clock.Clock) Option { return func(o *options) { o.clock = c } }

// WithPageSize sets how many items each page reveals
func WithPageSize(n int) Option { return func(o *options) { o.pageSize = n } }

// WithDebounce sets the quiet period for OnSearchInput
func WithDebounce(d time.Duration) Option { return func(o *options) { o.debounce = d } }

// WithRevealDelay holds each RequestMore for d before revealing the page
func WithRevealDelay(d time.Duration) Option { return func(o *options) { o.revealDelay = d } }

// WithScrollThreshold sets how close to the bottom, in rows, scrolling loads more
func WithScrollThreshold(rows int) Option { return func(o *options) { o.threshold = rows } }

// WithLoadTimeout bounds a scroll-triggered RequestMore
func WithLoadTimeout(d time.Duration) Option { return func(o *options) { o.loadTimeout = d } }

// WithInitialTab selects the tab shown first
func WithInitialTab(tab domain.Tab) Option { return func(o *options) { o.tab = tab } }

// NewController creates a list controller reading from store. Nothing is
// fetched until SetTab or Load is called.
func NewController(store source.Store, opts ...Option) *Controller {
	o := options{
		bus:         eventbus.Nop{},
		logger:      zap.NewNop(),
		clock:       clock.Real{},
		pageSize:    pager.DefaultPageSize,
		debounce:    DefaultDebounce,
		threshold:   scroll.DefaultThreshold,
		loadTimeout: scroll.DefaultTimeout,
		tab:         domain.TabHackathons,
	}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Controller{
		store:       store,
		bus:         o.bus,
		logger:      o.logger,
		clock:       o.clock,
		revealDelay: o.revealDelay,
		filters:     logic.NewFilters(),
		pager:       pager.New(o.pageSize),
		tab:         o.tab,
		state:       domain.NewFilterState(),
		loads:       make(map[domain.Kind]domain.LoadState),
		loadErrs:    make(map[domain.Kind]error),
	}
	c.debouncer = debounce.New(o.debounce, c.applySearchTerm, debounce.WithClock(o.clock))
	c.trigger = scroll.NewTrigger(c.RequestMore, c.HasMore,
		scroll.WithThreshold(o.threshold),
		scroll.WithTimeout(o.loadTimeout),
		scroll.WithLogger(o.logger))
	c.trigger.Attach(o.bus)
	return c
}

// ActiveTab returns the selected tab
func (c *Controller) ActiveTab() domain.Tab {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tab
}

// SetTab switches tabs, resets the reveal cursor and fetches the tab's
// collection if it has not been fetched yet. Both event tabs share one
// collection.
func (c *Controller) SetTab(ctx context.Context, tab domain.Tab) error {
	c.mu.Lock()
	from := c.tab
	if from != tab {
		c.tab = tab
		c.pager.Reset()
	}
	c.mu.Unlock()

	if from != tab {
		c.bus.Publish(domain.TabChangedEvent{From: from, To: tab})
	}
	return c.Load(ctx, tab.Kind())
}

// Load fetches a collection once. Calls for a collection that is already
// loading or loaded return immediately.
func (c *Controller) Load(ctx context.Context, kind domain.Kind) error {
	c.mu.Lock()
	if c.loads[kind] != domain.LoadIdle {
		c.mu.Unlock()
		return nil
	}
	c.loads[kind] = domain.LoadLoading
	delete(c.loadErrs, kind)
	c.mu.Unlock()

	return c.fetch(ctx, kind)
}

// Reload fetches a collection again, replacing the current one
func (c *Controller) Reload(ctx context.Context, kind domain.Kind) error {
	c.mu.Lock()
	if c.loads[kind] == domain.LoadLoading {
		c.mu.Unlock()
		return nil
	}
	c.loads[kind] = domain.LoadLoading
	delete(c.loadErrs, kind)
	c.mu.Unlock()

	return c.fetch(ctx, kind)
}

func (c *Controller) fetch(ctx context.Context, kind domain.Kind) error {
	var (
		events   []*domain.Event
		articles []*domain.Article
		err      error
	)
	switch kind {
	case domain.KindEvent:
		events, err = c.store.ListEvents(ctx, source.ListOptions{})
	case domain.KindArticle:
		articles, err = c.store.ListArticles(ctx, source.ListOptions{})
	default:
		err = fmt.Errorf("unknown collection %q", kind)
	}

	c.mu.Lock()
	if err != nil {
		// Back to idle so the next SetTab retries
		c.loads[kind] = domain.LoadIdle
		c.loadErrs[kind] = err
		c.mu.Unlock()
		c.logger.Warn("fetching collection failed", zap.String("kind", string(kind)), zap.Error(err))
		c.bus.Publish(domain.CollectionFailedEvent{Kind: kind, Err: err})
		return fmt.Errorf("load %s: %w", kind, err)
	}

	count := 0
	switch kind {
	case domain.KindEvent:
		c.events = events
		count = len(events)
	case domain.KindArticle:
		c.articles = articles
		count = len(articles)
	}
	c.loads[kind] = domain.LoadSettled
	if c.tab.Kind() == kind {
		c.pager.Reset()
	}
	c.mu.Unlock()

	c.logger.Debug("collection loaded", zap.String("kind", string(kind)), zap.Int("count", count))
	c.bus.Publish(domain.CollectionLoadedEvent{Kind: kind, Count: count})
	return nil
}

// LoadState returns the fetch state of a collection
func (c *Controller) LoadState(kind domain.Kind) domain.LoadState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loads[kind]
}

// LoadError returns the last fetch error of a collection, if any
func (c *Controller) LoadError(kind domain.Kind) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadErrs[kind]
}

// Filters returns the active filter state
func (c *Controller) Filters() domain.FilterState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// SetFilter applies a partial filter update and resets the reveal cursor
func (c *Controller) SetFilter(patch domain.FilterPatch) {
	c.mu.Lock()
	next := patch.Apply(c.state)
	if next == c.state {
		c.mu.Unlock()
		return
	}
	c.state = next
	c.pager.Reset()
	matches := c.totalLocked()
	c.mu.Unlock()

	c.bus.Publish(domain.FiltersChangedEvent{Filters: next, Matches: matches})
}

// ClearFilters restores the neutral filter state
func (c *Controller) ClearFilters() {
	c.debouncer.Set("")
	c.debouncer.Flush()

	c.mu.Lock()
	if c.state == domain.NewFilterState() {
		c.mu.Unlock()
		return
	}
	c.state = domain.NewFilterState()
	c.pager.Reset()
	matches := c.totalLocked()
	c.mu.Unlock()

	c.bus.Publish(domain.FiltersChangedEvent{Filters: domain.NewFilterState(), Matches: matches})
}

// OnSearchInput records the typed filter term; it applies once typing
// pauses. Clearing the term applies immediately.
func (c *Controller) OnSearchInput(text string) {
	term := strings.TrimSpace(text)
	c.debouncer.Set(term)
	if term == "" {
		c.debouncer.Flush()
	}
}

func (c *Controller) applySearchTerm(term string) {
	c.SetFilter(domain.FilterPatch{SearchTerm: &term})
}

// VisibleItems returns the revealed prefix of the active tab's filtered list
func (c *Controller) VisibleItems() []domain.SearchableItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.tab.Kind() == domain.KindArticle {
		all := c.filters.TabArticles(c.articles, c.state)
		shown := pager.Slice(c.pager, all)
		out := make([]domain.SearchableItem, len(shown))
		for i, a := range shown {
			out[i] = a.Item()
		}
		return out
	}
	all := c.filters.TabEvents(c.events, c.tab, c.state)
	shown := pager.Slice(c.pager, all)
	out := make([]domain.SearchableItem, len(shown))
	for i, e := range shown {
		out[i] = e.Item()
	}
	return out
}

// Article returns a loaded article by id
func (c *Controller) Article(id string) (*domain.Article, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, a := range c.articles {
		if a != nil && a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// Event returns a loaded event by id
func (c *Controller) Event(id string) (*domain.Event, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.events {
		if e != nil && e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// Total returns the number of items matching the filters on the active tab
func (c *Controller) Total() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.totalLocked()
}

// Displayed returns how many items are revealed
func (c *Controller) Displayed() int {
	return c.pager.Displayed(c.Total())
}

func (c *Controller) totalLocked() int {
	if c.tab.Kind() == domain.KindArticle {
		return len(c.filters.TabArticles(c.articles, c.state))
	}
	return len(c.filters.TabEvents(c.events, c.tab, c.state))
}

// HasMore reports whether filtered items beyond the revealed prefix exist
func (c *Controller) HasMore() bool {
	return c.pager.HasMore(c.Total())
}

// IsFetchingMore reports whether a RequestMore is in progress
func (c *Controller) IsFetchingMore() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchingMore
}

// RequestMore reveals the next page. Calls while one is in progress, or
// when nothing more exists, are no-ops.
func (c *Controller) RequestMore(ctx context.Context) error {
	c.mu.Lock()
	if c.fetchingMore || !c.pager.HasMore(c.totalLocked()) {
		c.mu.Unlock()
		return nil
	}
	c.fetchingMore = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.fetchingMore = false
		c.mu.Unlock()
	}()

	if c.revealDelay > 0 {
		fired := make(chan struct{})
		timer := c.clock.AfterFunc(c.revealDelay, func() { close(fired) })
		select {
		case <-fired:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	c.mu.Lock()
	// Filters may have changed during the delay; recheck against the current list
	total := c.totalLocked()
	advanced := c.pager.RequestMore(total)
	displayed := c.pager.Displayed(total)
	c.mu.Unlock()

	if advanced {
		c.bus.Publish(domain.PageExtendedEvent{Displayed: displayed, Total: total})
	}
	return nil
}

// OnScroll feeds a viewport position to the scroll trigger directly
func (c *Controller) OnScroll(pos scroll.Position) bool {
	return c.trigger.OnScroll(pos)
}

// WaitIdle blocks until a scroll-triggered load has finished
func (c *Controller) WaitIdle() {
	c.trigger.Wait()
}

// Close stops the debounce timer and the scroll trigger
func (c *Controller) Close() {
	c.debouncer.Stop()
	c.trigger.Detach()
}
