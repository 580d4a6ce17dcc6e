package slideshow

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/photoframe-core/internal/picture"
	"github.com/nerrad567/photoframe-core/internal/statemachine"
)

const waitFor = 2 * time.Second

// morning is inside the default 07:00-22:00 window.
var morning = time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

// ─── Spy Clock ──────────────────────────────────────────────────────

// spyClock is a fake clock that reports every armed timer and ticker,
// after the fake clock has registered it, so a test can advance time
// without racing the effect that armed it.
type spyClock struct {
	*clockwork.FakeClock
	timers      chan time.Time // deadline of each new timer
	tickers     chan time.Duration
	tickerStops chan struct{}
}

func newSpyClock(at time.Time) *spyClock {
	return &spyClock{
		FakeClock:   clockwork.NewFakeClockAt(at),
		timers:      make(chan time.Time, 64),
		tickers:     make(chan time.Duration, 64),
		tickerStops: make(chan struct{}, 64),
	}
}

func (c *spyClock) NewTimer(d time.Duration) clockwork.Timer {
	t := c.FakeClock.NewTimer(d)
	c.timers <- c.Now().Add(d)
	return t
}

func (c *spyClock) NewTicker(d time.Duration) clockwork.Ticker {
	t := c.FakeClock.NewTicker(d)
	c.tickers <- d
	return spyTicker{Ticker: t, stops: c.tickerStops}
}

type spyTicker struct {
	clockwork.Ticker
	stops chan<- struct{}
}

func (t spyTicker) Stop() {
	t.Ticker.Stop()
	select {
	case t.stops <- struct{}{}:
	default:
	}
}

// ─── Mock Dependencies ──────────────────────────────────────────────

// fakePictures serves an endless sequence of successes, one per request.
// Sequence numbers are shared across subscriptions.
type fakePictures struct {
	requests chan struct{}
	sizes    chan [2]int

	mu      sync.Mutex
	advance int
	seq     uint64
}

func newFakePictures() *fakePictures {
	return &fakePictures{
		requests: make(chan struct{}, 1),
		sizes:    make(chan [2]int, 8),
	}
}

func (f *fakePictures) AdvanceToNext() {
	f.mu.Lock()
	f.advance++
	f.mu.Unlock()

	select {
	case f.requests <- struct{}{}:
	default:
	}
}

func (f *fakePictures) Advances() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.advance
}

func (f *fakePictures) Images(ctx context.Context, width, height int) <-chan picture.Result {
	f.sizes <- [2]int{width, height}
	out := make(chan picture.Result)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-f.requests:
			}
			if ctx.Err() != nil {
				// Leave the request for the stream that replaced this one.
				f.AdvanceToNext()
				return
			}

			f.mu.Lock()
			f.seq++
			seq := f.seq
			f.mu.Unlock()

			r := picture.Success{
				Path:       fmt.Sprintf("/pictures/holiday/%d.jpg", seq),
				FolderName: "holiday",
				Sequence:   seq,
			}
			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// scriptedPictures yields a fixed list of results and then ends.
type scriptedPictures struct {
	results []picture.Result
	opened  chan struct{}
}

func (s *scriptedPictures) AdvanceToNext() {}

func (s *scriptedPictures) Images(ctx context.Context, _, _ int) <-chan picture.Result {
	out := make(chan picture.Result, len(s.results))
	for _, r := range s.results {
		out <- r
	}
	close(out)
	if s.opened != nil {
		s.opened <- struct{}{}
	}
	return out
}

// recorder is an effect that copies every reduced action to a channel.
func recorder() (statemachine.Effect[State], <-chan statemachine.Action) {
	ch := make(chan statemachine.Action, 256)
	e := statemachine.ActionEffect[State]("recorder", func(ctx context.Context, actions <-chan statemachine.Action, emit statemachine.Emitter) {
		for a := range actions {
			ch <- a
		}
	})
	return e, ch
}

func newMachine(t *testing.T, effects ...statemachine.Effect[State]) *statemachine.Machine[State] {
	t.Helper()

	m, err := statemachine.New(statemachine.Config[State]{
		Name:    t.Name(),
		Reducer: Reduce,
		Equal:   equalState,
		Effects: effects,
		Logger:  slogt.New(t),
	})
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()

	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed unexpectedly")
		return v
	case <-time.After(waitFor):
		require.FailNow(t, "timed out waiting for value")
	}
	panic("unreachable")
}

// nextMatching reads from ch until keep accepts a value.
func nextMatching[T any](t *testing.T, ch <-chan T, keep func(T) bool) T {
	t.Helper()

	deadline := time.After(waitFor)
	for {
		select {
		case v, ok := <-ch:
			require.True(t, ok, "channel closed unexpectedly")
			if keep(v) {
				return v
			}
		case <-deadline:
			require.FailNow(t, "timed out waiting for matching value")
		}
	}
}

// assertQuiet fails if ch yields a value matching keep before a sentinel
// action round-trips through the machine.
func assertQuiet(t *testing.T, m *statemachine.Machine[State], actions <-chan statemachine.Action, keep func(statemachine.Action) bool) {
	t.Helper()

	m.Dispatch(marker{})
	for {
		a := receive(t, actions)
		if _, done := a.(marker); done {
			return
		}
		require.False(t, keep(a), "unexpected action %T", a)
	}
}

type marker struct{}

func (marker) ActionName() string { return "marker" }
