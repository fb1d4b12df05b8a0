package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"hackhub/internal/clock"
	"hackhub/internal/domain"
	"hackhub/internal/eventbus"
	"hackhub/internal/source"
)

// gatedSearcher answers each query only once its gate is released
type gatedSearcher struct {
	mu     sync.Mutex
	gates  map[string]chan struct{}
	issued []string
	fail   map[string]error
}

func newGatedSearcher() *gatedSearcher {
	return &gatedSearcher{gates: make(map[string]chan struct{}), fail: make(map[string]error)}
}

func (g *gatedSearcher) gate(q string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[q]
	if !ok {
		ch = make(chan struct{})
		g.gates[q] = ch
	}
	return ch
}

func (g *gatedSearcher) release(q string) { close(g.gate(q)) }

func (g *gatedSearcher) calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.issued...)
}

func (g *gatedSearcher) Search(ctx context.Context, q string) (Outcome, error) {
	g.mu.Lock()
	g.issued = append(g.issued, q)
	err := g.fail[q]
	g.mu.Unlock()

	<-g.gate(q)
	out := Outcome{Query: q, Items: []domain.ResultItem{{ID: q, Title: "result for " + q, Type: domain.KindEvent}}}
	if err != nil {
		return Outcome{Query: q, Failed: []*SourceError{{Kind: domain.KindEvent, Err: err}}}, errors.Join(ErrAllSourcesFailed, err)
	}
	return out, nil
}

func resultIDs(items []domain.ResultItem) []string {
	var out []string
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func waitStatus(t *testing.T, c *Controller, want Status) {
	t.Helper()
	require.Eventually(t, func() bool { return c.Status() == want }, 2*time.Second, 5*time.Millisecond,
		"status never became %s", want)
}

func TestControllerDebouncesKeystrokes(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	g := newGatedSearcher()
	c := NewController(g, WithClock(clk), WithDebounce(300*time.Millisecond), WithControllerLogger(zaptest.NewLogger(t)))
	defer c.Close()

	for _, q := range []string{"h", "ha", "hac", "hack"} {
		c.OnQueryChange(q)
		clk.Advance(100 * time.Millisecond)
	}
	assert.Empty(t, g.calls())
	assert.Equal(t, StatusIdle, c.Status())

	clk.Advance(200 * time.Millisecond)
	assert.Equal(t, StatusLoading, c.Status())
	require.Eventually(t, func() bool { return len(g.calls()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"hack"}, g.calls())

	g.release("hack")
	waitStatus(t, c, StatusReady)
	assert.Equal(t, []string{"hack"}, resultIDs(c.Results()))
}

func TestControllerDiscardsOutOfOrderResponses(t *testing.T) {
	g := newGatedSearcher()
	c := NewController(g, WithControllerLogger(zaptest.NewLogger(t)))
	defer c.Close()

	c.Submit("a")
	c.Submit("ab")
	require.Eventually(t, func() bool { return len(g.calls()) == 2 }, time.Second, 5*time.Millisecond)

	// The newer query answers first, the stale one afterwards
	g.release("ab")
	waitStatus(t, c, StatusReady)
	assert.Equal(t, []string{"ab"}, resultIDs(c.Results()))

	g.release("a")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []string{"ab"}, resultIDs(c.Results()), "stale response must never replace newer results")
	assert.Equal(t, "ab", c.Query())
}

func TestControllerDiscardsStaleResponseArrivingFirst(t *testing.T) {
	g := newGatedSearcher()
	c := NewController(g)
	defer c.Close()

	c.Submit("a")
	c.Submit("ab")
	require.Eventually(t, func() bool { return len(g.calls()) == 2 }, time.Second, 5*time.Millisecond)

	g.release("a")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, StatusLoading, c.Status())
	assert.Empty(t, c.Results())

	g.release("ab")
	waitStatus(t, c, StatusReady)
	assert.Equal(t, []string{"ab"}, resultIDs(c.Results()))
}

func TestControllerEmptyQueryClearsImmediately(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	g := newGatedSearcher()
	c := NewController(g, WithClock(clk))
	defer c.Close()

	g.release("go")
	c.Submit("go")
	waitStatus(t, c, StatusReady)
	require.NotEmpty(t, c.Results())

	c.OnQueryChange("   ")
	assert.Equal(t, StatusIdle, c.Status())
	assert.Empty(t, c.Results())
	assert.Equal(t, []string{"go"}, g.calls(), "empty query never reaches the sources")

	// Typing the same query again after clearing searches again
	c.OnQueryChange("go")
	clk.Advance(DefaultDebounce)
	waitStatus(t, c, StatusReady)
	assert.Equal(t, []string{"go", "go"}, g.calls())
}

func TestControllerAllSourcesFailedRetryAndDismiss(t *testing.T) {
	g := newGatedSearcher()
	g.fail["go"] = errors.New("offline")
	g.release("go")
	c := NewController(g, WithControllerLogger(zaptest.NewLogger(t)))
	defer c.Close()

	c.Submit("go")
	waitStatus(t, c, StatusError)
	info := c.Error()
	require.NotNil(t, info)
	assert.True(t, info.Banner())
	assert.True(t, info.Retryable)
	assert.Equal(t, []domain.Kind{domain.KindEvent}, info.Partial)
	assert.Empty(t, c.Results())

	c.DismissError()
	assert.Nil(t, c.Error())
	assert.Equal(t, StatusIdle, c.Status())

	g.mu.Lock()
	delete(g.fail, "go")
	g.mu.Unlock()
	c.Retry()
	waitStatus(t, c, StatusReady)
	assert.Equal(t, []string{"go"}, resultIDs(c.Results()))
	assert.Len(t, g.calls(), 2)
}

func TestControllerPartialFailureKeepsResults(t *testing.T) {
	partial := searcherFunc(func(ctx context.Context, q string) (Outcome, error) {
		return Outcome{
			Query:  q,
			Items:  []domain.ResultItem{{ID: "a1", Type: domain.KindArticle}},
			Failed: []*SourceError{{Kind: domain.KindEvent, Err: errors.New("timeout")}},
		}, nil
	})
	c := NewController(partial)
	defer c.Close()

	c.Submit("go")
	waitStatus(t, c, StatusReady)
	assert.Equal(t, []string{"a1"}, resultIDs(c.Results()))
	info := c.Error()
	require.NotNil(t, info)
	assert.False(t, info.Banner(), "partial failure must not raise the banner")
	assert.Equal(t, []domain.Kind{domain.KindEvent}, info.Partial)
}

type searcherFunc func(ctx context.Context, q string) (Outcome, error)

func (f searcherFunc) Search(ctx context.Context, q string) (Outcome, error) { return f(ctx, q) }

func TestControllerCancelsSupersededSearch(t *testing.T) {
	cancelled := make(chan string, 4)
	s := searcherFunc(func(ctx context.Context, q string) (Outcome, error) {
		if q == "slow" {
			<-ctx.Done()
			cancelled <- q
			return Outcome{}, ctx.Err()
		}
		return Outcome{Query: q, Items: []domain.ResultItem{{ID: q}}}, nil
	})
	c := NewController(s)
	defer c.Close()

	c.Submit("slow")
	c.Submit("fast")
	select {
	case q := <-cancelled:
		assert.Equal(t, "slow", q)
	case <-time.After(2 * time.Second):
		t.Fatal("superseded search was not cancelled")
	}
	waitStatus(t, c, StatusReady)
	assert.Equal(t, []string{"fast"}, resultIDs(c.Results()))
}

func TestControllerPublishesLifecycleEvents(t *testing.T) {
	bus := eventbus.New(eventbus.WithLogger(zaptest.NewLogger(t)))
	defer bus.Close()

	var mu sync.Mutex
	var seen []domain.EventType
	record := func(e domain.DomainEvent) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.Type())
	}
	for _, et := range []domain.EventType{domain.EventSearchStarted, domain.EventSearchCompleted, domain.EventSearchCleared} {
		bus.Subscribe(et, record)
	}

	s := searcherFunc(func(ctx context.Context, q string) (Outcome, error) {
		return Outcome{Query: q, Items: []domain.ResultItem{{ID: "1"}}}, nil
	})
	c := NewController(s, WithBus(bus))
	defer c.Close()

	c.Submit("go")
	waitStatus(t, c, StatusReady)
	c.OnQueryChange("")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 3
	}, 2*time.Second, 5*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []domain.EventType{domain.EventSearchStarted, domain.EventSearchCompleted, domain.EventSearchCleared}, seen)
}

func TestControllerCloseWaitsForInflight(t *testing.T) {
	g := newGatedSearcher()
	c := NewController(g)
	c.Submit("go")
	require.Eventually(t, func() bool { return len(g.calls()) == 1 }, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		c.Close()
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("Close returned while a search was still running")
	case <-time.After(30 * time.Millisecond):
	}
	g.release("go")
	<-done

	assert.Empty(t, c.Results(), "nothing is applied after Close")
	c.Submit("again")
	assert.Len(t, g.calls(), 1)
}

func TestControllerShowsFastSourceWhileSlowSourceLoads(t *testing.T) {
	fast := &fakeSource{kind: domain.KindEvent, n: 3}
	slow := &fakeSource{kind: domain.KindArticle, n: 2, gate: make(chan struct{})}
	agg := NewAggregator([]source.Source{fast, slow}, WithLogger(zaptest.NewLogger(t)))
	c := NewController(agg, WithControllerLogger(zaptest.NewLogger(t)))
	defer c.Close()

	c.Submit("go")
	require.Eventually(t, func() bool { return len(c.Results()) == 3 }, 2*time.Second, 5*time.Millisecond,
		"fast source hits were not shown")
	assert.Equal(t, StatusLoading, c.Status(), "still waiting on the slow source")

	close(slow.gate)
	waitStatus(t, c, StatusReady)
	assert.Len(t, c.Results(), 5)
	assert.Nil(t, c.Error())
}

func TestControllerDiscardsSupersededProgress(t *testing.T) {
	fast := &fakeSource{kind: domain.KindEvent, n: 3}
	slow := &fakeSource{kind: domain.KindArticle, n: 2, gate: make(chan struct{})}
	agg := NewAggregator([]source.Source{fast, slow})
	c := NewController(agg)
	defer c.Close()

	c.Submit("go")
	require.Eventually(t, func() bool { return len(c.Results()) == 3 }, 2*time.Second, 5*time.Millisecond)

	c.Submit("")
	assert.Equal(t, StatusIdle, c.Status())
	close(slow.gate)
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, c.Results())
	assert.Equal(t, StatusIdle, c.Status())
}
