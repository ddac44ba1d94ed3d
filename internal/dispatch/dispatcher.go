package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/recipebox/internal/recipe"
)

// Gateway is the mutation half of the persistence gateway.
type Gateway interface {
	Create(ctx context.Context, r recipe.Recipe) (int64, error)
	Update(ctx context.Context, r recipe.Recipe) error
	Delete(ctx context.Context, id int64) error
	Duplicate(ctx context.Context, id int64) error
}

// State is the dispatcher slot state.
type State int

const (
	// StateIdle means no mutation has run since the last Reset.
	StateIdle State = iota
	// StatePending means a mutation is in flight.
	StatePending
	// StateResolved means the last mutation finished; see Last.
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Outcome is the stored result of a completed dispatch.
type Outcome struct {
	// Token correlates the dispatch with its log lines.
	Token string

	// Action is the descriptor that ran.
	Action Action

	// Err is the gateway error, unmodified. Nil on success.
	Err error

	// Version is the counter value assigned on completion.
	Version uint64

	// Elapsed is the time spent inside the gateway.
	Elapsed time.Duration
}

// OK reports whether the gateway call succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Event is delivered to subscribers on every state transition.
type Event struct {
	State   State
	Token   string
	Action  Action
	Version uint64

	// Outcome is set for StateResolved events only.
	Outcome *Outcome
}

// Observer receives dispatch lifecycle callbacks, e.g. for metrics.
type Observer interface {
	DispatchStarted(kind Kind)
	DispatchFinished(kind Kind, err error, elapsed time.Duration)
	DispatchRejected(kind Kind)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTokens sets the correlation token generator. Default: UUIDv7Generator.
func WithTokens(g TokenGenerator) Option {
	return func(d *Dispatcher) {
		d.tokens = g
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithObserver registers lifecycle callbacks.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		d.observer = o
	}
}

// WithCounter sets the version counter, e.g. to resume from a known version.
func WithCounter(c *Counter) Option {
	return func(d *Dispatcher) {
		d.version = c
	}
}

// Dispatcher is a single-slot mutation runner.
//
// Thread-safety model:
//   - Dispatch/Go: safe from any goroutine; at most one runs at a time,
//     others get ErrBusy
//   - State/Version/Last/Subscribe/WaitVersion: safe from any goroutine
//   - Subscribers are called synchronously from the dispatching goroutine,
//     outside the internal lock
type Dispatcher struct {
	gateway  Gateway
	tokens   TokenGenerator
	logger   *slog.Logger
	observer Observer
	version  *Counter

	mu      sync.Mutex
	state   State
	last    *Outcome
	subs    map[int]func(Event)
	nextSub int
	changed chan struct{} // closed and replaced on every version bump
}

// New creates an idle dispatcher over gw.
func New(gw Gateway, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		gateway: gw,
		tokens:  UUIDv7Generator{},
		logger:  slog.Default(),
		version: &Counter{},
		subs:    make(map[int]func(Event)),
		changed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs a and blocks until the gateway returns.
//
// Returns ErrBusy without side effects if another dispatch is pending, and a
// recipe.ErrInvalidRecipe error if a fails Validate. Otherwise the returned
// error is the gateway error (also held in Outcome.Err).
func (d *Dispatcher) Dispatch(ctx context.Context, a Action) (Outcome, error) {
	token, err := d.claim(a)
	if err != nil {
		return Outcome{}, err
	}
	out := d.run(ctx, token, a)
	return out, out.Err
}

// Go is the asynchronous form of Dispatch. The slot is claimed before Go
// returns, so ErrBusy and validation errors are reported synchronously. The
// outcome is delivered on the returned channel, which is buffered.
func (d *Dispatcher) Go(ctx context.Context, a Action) (<-chan Outcome, error) {
	token, err := d.claim(a)
	if err != nil {
		return nil, err
	}
	ch := make(chan Outcome, 1)
	go func() {
		ch <- d.run(ctx, token, a)
	}()
	return ch, nil
}

// claim validates a and moves the slot to Pending.
func (d *Dispatcher) claim(a Action) (string, error) {
	if err := a.Validate(); err != nil {
		d.logger.Debug("dispatch rejected: invalid action", "action", a.Kind(), "error", err)
		return "", err
	}

	d.mu.Lock()
	if d.state == StatePending {
		d.mu.Unlock()
		d.logger.Debug("dispatch rejected: busy", "action", a.Kind())
		if d.observer != nil {
			d.observer.DispatchRejected(a.Kind())
		}
		return "", fmt.Errorf("dispatch %s: %w", a.Kind(), ErrBusy)
	}
	d.state = StatePending
	token := d.tokens.Generate()
	subs := d.subscribersLocked()
	version := d.version.Current()
	d.mu.Unlock()

	d.logger.Debug("dispatch pending", "token", token, "action", a.String())
	if d.observer != nil {
		d.observer.DispatchStarted(a.Kind())
	}
	notify(subs, Event{State: StatePending, Token: token, Action: a, Version: version})
	return token, nil
}

// run invokes the gateway and resolves the slot.
func (d *Dispatcher) run(ctx context.Context, token string, a Action) Outcome {
	start := time.Now()
	err := d.invoke(ctx, a)
	elapsed := time.Since(start)

	d.mu.Lock()
	out := Outcome{
		Token:   token,
		Action:  a,
		Err:     err,
		Version: d.version.Next(),
		Elapsed: elapsed,
	}
	d.last = &out
	d.state = StateResolved
	close(d.changed)
	d.changed = make(chan struct{})
	subs := d.subscribersLocked()
	d.mu.Unlock()

	if err != nil {
		d.logger.Warn("dispatch failed", "token", token, "action", a.String(), "version", out.Version, "error", err)
	} else {
		d.logger.Info("dispatch resolved", "token", token, "action", a.String(), "version", out.Version, "elapsed", elapsed)
	}
	if d.observer != nil {
		d.observer.DispatchFinished(a.Kind(), err, elapsed)
	}

	ev := out
	notify(subs, Event{State: StateResolved, Token: token, Action: a, Version: out.Version, Outcome: &ev})
	return out
}

// invoke routes a to the matching gateway operation.
// The created id from Create is deliberately discarded.
func (d *Dispatcher) invoke(ctx context.Context, a Action) error {
	switch a.Kind() {
	case KindAdd:
		_, err := d.gateway.Create(ctx, a.Recipe())
		return err
	case KindSave:
		return d.gateway.Update(ctx, a.Recipe())
	case KindDelete:
		return d.gateway.Delete(ctx, a.ID())
	case KindDuplicate:
		return d.gateway.Duplicate(ctx, a.ID())
	default:
		// Unreachable: claim validates the kind
		return fmt.Errorf("unknown action %s", a.Kind())
	}
}

// State returns the current slot state.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Pending reports whether a mutation is in flight.
func (d *Dispatcher) Pending() bool {
	return d.State() == StatePending
}

// Version returns the current version counter value.
func (d *Dispatcher) Version() uint64 {
	return d.version.Current()
}

// Last returns the most recent outcome, if any dispatch has completed since
// the last Reset.
func (d *Dispatcher) Last() (Outcome, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.last == nil {
		return Outcome{}, false
	}
	return *d.last, true
}

// Reset acknowledges a resolved outcome and returns the slot to Idle.
// It has no effect while a dispatch is pending. The version is not reset.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	if d.state != StateResolved {
		d.mu.Unlock()
		return
	}
	d.state = StateIdle
	d.last = nil
	subs := d.subscribersLocked()
	version := d.version.Current()
	d.mu.Unlock()

	notify(subs, Event{State: StateIdle, Version: version})
}

// Subscribe registers fn for state transition events.
// The returned function removes the subscription.
func (d *Dispatcher) Subscribe(fn func(Event)) (cancel func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.subs, id)
	}
}

// WaitVersion blocks until the version exceeds after or ctx is done.
// Returns the version observed.
func (d *Dispatcher) WaitVersion(ctx context.Context, after uint64) (uint64, error) {
	for {
		d.mu.Lock()
		v := d.version.Current()
		ch := d.changed
		d.mu.Unlock()

		if v > after {
			return v, nil
		}
		select {
		case <-ctx.Done():
			return v, ctx.Err()
		case <-ch:
		}
	}
}

// subscribersLocked snapshots the subscriber set in registration order.
// Caller must hold d.mu.
func (d *Dispatcher) subscribersLocked() []func(Event) {
	if len(d.subs) == 0 {
		return nil
	}
	out := make([]func(Event), 0, len(d.subs))
	for id := 0; id < d.nextSub; id++ {
		if fn, ok := d.subs[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func notify(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}
