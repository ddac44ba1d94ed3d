package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recipebox/internal/recipe"
)

// fakeGateway records calls. When block is non-nil each call signals entered
// and then waits for block to be closed.
type fakeGateway struct {
	mu      sync.Mutex
	calls   []string
	err     error
	block   chan struct{}
	entered chan struct{}
}

func (g *fakeGateway) record(call string) error {
	g.mu.Lock()
	g.calls = append(g.calls, call)
	block, entered, err := g.block, g.entered, g.err
	g.mu.Unlock()

	if block != nil {
		if entered != nil {
			entered <- struct{}{}
		}
		<-block
	}
	return err
}

func (g *fakeGateway) Create(_ context.Context, r recipe.Recipe) (int64, error) {
	if err := g.record("create:" + r.Name); err != nil {
		return 0, err
	}
	return 1, nil
}

func (g *fakeGateway) Update(_ context.Context, r recipe.Recipe) error {
	return g.record(fmt.Sprintf("update:%d", *r.ID))
}

func (g *fakeGateway) Delete(_ context.Context, id int64) error {
	return g.record(fmt.Sprintf("delete:%d", id))
}

func (g *fakeGateway) Duplicate(_ context.Context, id int64) error {
	return g.record(fmt.Sprintf("duplicate:%d", id))
}

func (g *fakeGateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func newBlockingGateway() *fakeGateway {
	return &fakeGateway{
		block:   make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDispatcher(gw Gateway, opts ...Option) *Dispatcher {
	return New(gw, append([]Option{WithLogger(quietLogger())}, opts...)...)
}

func waitEntered(t *testing.T, gw *fakeGateway) {
	t.Helper()
	select {
	case <-gw.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("gateway was never called")
	}
}

func TestDispatch_SaveResolves(t *testing.T) {
	gw := &fakeGateway{}
	d := newTestDispatcher(gw, WithTokens(NewFixedGenerator("tok-1")))

	assert.Equal(t, StateIdle, d.State())
	assert.Equal(t, uint64(0), d.Version())

	out, err := d.Dispatch(context.Background(), Save(recipe.Recipe{ID: recipe.ID(4), Name: "Soup"}))
	require.NoError(t, err)
	assert.True(t, out.OK())
	assert.Equal(t, "tok-1", out.Token)
	assert.Equal(t, uint64(1), out.Version)
	assert.Equal(t, KindSave, out.Action.Kind())

	assert.Equal(t, StateResolved, d.State())
	assert.Equal(t, uint64(1), d.Version())
	last, ok := d.Last()
	require.True(t, ok)
	assert.Equal(t, out, last)
	assert.Equal(t, []string{"update:4"}, gw.Calls())
}

func TestDispatch_RoutesEachKind(t *testing.T) {
	gw := &fakeGateway{}
	d := newTestDispatcher(gw)
	ctx := context.Background()

	_, err := d.Dispatch(ctx, Add(recipe.Recipe{Name: "New"}))
	require.NoError(t, err)
	_, err = d.Dispatch(ctx, Save(recipe.Recipe{ID: recipe.ID(2), Name: "Old"}))
	require.NoError(t, err)
	_, err = d.Dispatch(ctx, Delete(3))
	require.NoError(t, err)
	_, err = d.Dispatch(ctx, Duplicate(5))
	require.NoError(t, err)

	assert.Equal(t, []string{"create:New", "update:2", "delete:3", "duplicate:5"}, gw.Calls())
	assert.Equal(t, uint64(4), d.Version())
}

func TestDispatch_BusyWhilePending(t *testing.T) {
	gw := newBlockingGateway()
	d := newTestDispatcher(gw)
	ctx := context.Background()

	done, err := d.Go(ctx, Save(recipe.Recipe{ID: recipe.ID(1), Name: "Soup"}))
	require.NoError(t, err)
	waitEntered(t, gw)

	assert.Equal(t, StatePending, d.State())
	assert.True(t, d.Pending())

	// Second dispatch is rejected, not queued
	_, err = d.Dispatch(ctx, Delete(1))
	require.Error(t, err)
	assert.True(t, IsBusy(err))
	assert.True(t, errors.Is(err, ErrBusy))

	_, err = d.Go(ctx, Duplicate(1))
	assert.True(t, IsBusy(err))

	assert.Equal(t, uint64(0), d.Version(), "rejection does not bump the version")
	assert.Equal(t, []string{"update:1"}, gw.Calls(), "rejected dispatch never reaches the gateway")

	close(gw.block)
	out := <-done
	require.NoError(t, out.Err)
	assert.Equal(t, uint64(1), out.Version)
	assert.Equal(t, StateResolved, d.State())

	// Slot is free again; the rejected delete was not queued
	gw.mu.Lock()
	gw.block = nil
	gw.mu.Unlock()
	_, err = d.Dispatch(ctx, Delete(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"update:1", "delete:1"}, gw.Calls())
}

func TestDispatch_ConcurrentCallersOnlyOneRuns(t *testing.T) {
	gw := newBlockingGateway()
	gw.entered = make(chan struct{}, 16)
	d := newTestDispatcher(gw)
	ctx := context.Background()

	const callers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		busy    int
		started = make(chan struct{})
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-started
			_, err := d.Dispatch(ctx, Duplicate(7))
			if IsBusy(err) {
				mu.Lock()
				busy++
				mu.Unlock()
			}
		}()
	}
	close(started)

	waitEntered(t, gw)
	// Give the remaining callers time to hit the busy slot
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return busy == callers-1
	}, 2*time.Second, 5*time.Millisecond)

	close(gw.block)
	wg.Wait()

	assert.Len(t, gw.Calls(), 1)
	assert.Equal(t, uint64(1), d.Version())
}

func TestDispatch_InvalidNeverReachesGateway(t *testing.T) {
	tests := []struct {
		name   string
		action Action
	}{
		{"add with empty name", Add(recipe.Recipe{Name: ""})},
		{"add carrying id", Add(recipe.Recipe{ID: recipe.ID(1), Name: "x"})},
		{"save without id", Save(recipe.Recipe{Name: "x"})},
		{"save with empty name", Save(recipe.Recipe{ID: recipe.ID(1)})},
		{"delete zero id", Delete(0)},
		{"duplicate negative id", Duplicate(-3)},
		{"zero action", Action{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{}
			d := newTestDispatcher(gw)

			_, err := d.Dispatch(context.Background(), tt.action)
			require.Error(t, err)
			assert.True(t, recipe.IsInvalid(err), "got %v", err)
			assert.Empty(t, gw.Calls())
			assert.Equal(t, StateIdle, d.State())
			assert.Equal(t, uint64(0), d.Version())
		})
	}
}

func TestDispatch_GatewayErrorPropagatesUnmodified(t *testing.T) {
	gwErr := &recipe.PersistenceError{Op: "delete", Err: errors.New("disk I/O error")}
	gw := &fakeGateway{err: gwErr}
	d := newTestDispatcher(gw)

	out, err := d.Dispatch(context.Background(), Delete(9))
	require.Error(t, err)
	assert.Same(t, gwErr, err)
	assert.Same(t, gwErr, out.Err)
	assert.False(t, out.OK())

	// Failed completions still bump the version so views re-fetch
	assert.Equal(t, uint64(1), d.Version())
	assert.Equal(t, StateResolved, d.State())
	assert.Equal(t, []string{"delete:9"}, gw.Calls(), "no automatic retry")
}

func TestSubscribe_Transitions(t *testing.T) {
	gw := &fakeGateway{}
	d := newTestDispatcher(gw, WithTokens(NewFixedGenerator("a", "b")))

	var events []Event
	cancel := d.Subscribe(func(ev Event) { events = append(events, ev) })

	_, err := d.Dispatch(context.Background(), Duplicate(2))
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, StatePending, events[0].State)
	assert.Equal(t, "a", events[0].Token)
	assert.Equal(t, uint64(0), events[0].Version)
	assert.Nil(t, events[0].Outcome)

	assert.Equal(t, StateResolved, events[1].State)
	assert.Equal(t, uint64(1), events[1].Version)
	require.NotNil(t, events[1].Outcome)
	assert.True(t, events[1].Outcome.OK())

	d.Reset()
	require.Len(t, events, 3)
	assert.Equal(t, StateIdle, events[2].State)

	cancel()
	_, err = d.Dispatch(context.Background(), Duplicate(2))
	require.NoError(t, err)
	assert.Len(t, events, 3, "cancelled subscriber receives nothing")
}

func TestReset(t *testing.T) {
	d := newTestDispatcher(&fakeGateway{})

	d.Reset() // no-op while idle
	assert.Equal(t, StateIdle, d.State())

	_, err := d.Dispatch(context.Background(), Delete(1))
	require.NoError(t, err)
	d.Reset()

	assert.Equal(t, StateIdle, d.State())
	_, ok := d.Last()
	assert.False(t, ok)
	assert.Equal(t, uint64(1), d.Version(), "reset keeps the version")
}

func TestWaitVersion(t *testing.T) {
	gw := newBlockingGateway()
	d := newTestDispatcher(gw)
	ctx := context.Background()

	_, err := d.Go(ctx, Delete(1))
	require.NoError(t, err)
	waitEntered(t, gw)

	got := make(chan uint64, 1)
	go func() {
		v, err := d.WaitVersion(ctx, 0)
		if err == nil {
			got <- v
		}
	}()

	close(gw.block)
	select {
	case v := <-got:
		assert.Equal(t, uint64(1), v)
	case <-time.After(2 * time.Second):
		t.Fatal("WaitVersion did not return after the version bumped")
	}

	// Already past: returns immediately
	v, err := d.WaitVersion(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)

	tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = d.WaitVersion(tctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type recordingObserver struct {
	mu       sync.Mutex
	started  []Kind
	finished []Kind
	failed   int
	rejected []Kind
}

func (o *recordingObserver) DispatchStarted(k Kind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, k)
}

func (o *recordingObserver) DispatchFinished(k Kind, err error, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = append(o.finished, k)
	if err != nil {
		o.failed++
	}
}

func (o *recordingObserver) DispatchRejected(k Kind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rejected = append(o.rejected, k)
}

func TestObserver(t *testing.T) {
	gw := newBlockingGateway()
	obs := &recordingObserver{}
	d := newTestDispatcher(gw, WithObserver(obs))
	ctx := context.Background()

	done, err := d.Go(ctx, Add(recipe.Recipe{Name: "x"}))
	require.NoError(t, err)
	waitEntered(t, gw)
	_, err = d.Dispatch(ctx, Delete(1))
	require.True(t, IsBusy(err))
	close(gw.block)
	<-done

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, []Kind{KindAdd}, obs.started)
	assert.Equal(t, []Kind{KindAdd}, obs.finished)
	assert.Equal(t, []Kind{KindDelete}, obs.rejected)
	assert.Equal(t, 0, obs.failed)
}

func TestWithCounter(t *testing.T) {
	d := newTestDispatcher(&fakeGateway{}, WithCounter(NewCounterAt(41)))
	out, err := d.Dispatch(context.Background(), Delete(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), out.Version)
}
