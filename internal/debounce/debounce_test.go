package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"hackhub/internal/clock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu     sync.Mutex
	values []string
	at     []time.Time
	clock  clock.Clock
}

func (r *recorder) emit(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
	r.at = append(r.at, r.clock.Now())
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.values...)
}

func TestOnlyFinalValueEmittedAfterQuiescence(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := clock.NewManual(start)
	rec := &recorder{clock: clk}
	d := New(300*time.Millisecond, rec.emit, WithClock(clk))
	defer d.Stop()

	// Keystrokes 100ms apart, faster than the delay
	for _, v := range []string{"h", "ha", "hac", "hack"} {
		d.Set(v)
		clk.Advance(100 * time.Millisecond)
	}
	assert.Empty(t, rec.snapshot(), "nothing may be emitted while typing")

	lastChange := start.Add(300 * time.Millisecond)
	clk.Advance(199 * time.Millisecond)
	assert.Empty(t, rec.snapshot())

	clk.Advance(time.Millisecond)
	require.Equal(t, []string{"hack"}, rec.snapshot())
	assert.Equal(t, lastChange.Add(300*time.Millisecond), rec.at[0], "emitted exactly one delay after the last change")
}

func TestSettingPendingValueDoesNotRestartTimer(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	rec := &recorder{clock: clk}
	d := New(100*time.Millisecond, rec.emit, WithClock(clk))
	defer d.Stop()

	d.Set("go")
	clk.Advance(60 * time.Millisecond)
	d.Set("go")
	clk.Advance(40 * time.Millisecond)

	assert.Equal(t, []string{"go"}, rec.snapshot())
}

func TestRepeatedSettledValueIsNotReEmitted(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	rec := &recorder{clock: clk}
	d := New(50*time.Millisecond, rec.emit, WithClock(clk))
	defer d.Stop()

	d.Set("a")
	clk.Advance(50 * time.Millisecond)
	d.Set("ab")
	clk.Advance(10 * time.Millisecond)
	d.Set("a")
	clk.Advance(50 * time.Millisecond)

	assert.Equal(t, []string{"a"}, rec.snapshot())
}

func TestStopBeforeQuiescenceCancelsEmission(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	rec := &recorder{clock: clk}
	d := New(100*time.Millisecond, rec.emit, WithClock(clk))

	d.Set("meetup")
	assert.Equal(t, 1, clk.Pending())

	d.Stop()
	assert.Equal(t, 0, clk.Pending(), "timer must be released")

	clk.Advance(time.Second)
	d.Set("ignored")
	clk.Advance(time.Second)
	assert.Empty(t, rec.snapshot())
}

func TestFlushEmitsImmediately(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	rec := &recorder{clock: clk}
	d := New(time.Second, rec.emit, WithClock(clk))
	defer d.Stop()

	d.Set("workshop")
	d.Flush()
	assert.Equal(t, []string{"workshop"}, rec.snapshot())

	clk.Advance(2 * time.Second)
	assert.Equal(t, []string{"workshop"}, rec.snapshot(), "flushed timer must not fire again")

	_, waiting := d.Pending()
	assert.False(t, waiting)
}

func TestRealClockStopLeavesNoGoroutines(t *testing.T) {
	got := make(chan string, 4)
	d := New(20*time.Millisecond, func(v string) { got <- v })

	d.Set("x")
	d.Set("xy")
	select {
	case v := <-got:
		assert.Equal(t, "xy", v)
	case <-time.After(2 * time.Second):
		t.Fatal("debounced value never arrived")
	}

	d.Set("xyz")
	d.Stop()
	time.Sleep(40 * time.Millisecond)
	assert.Empty(t, got)
}
