package datasource

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Status is the resolution state of a view.
type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "loading"
	}
}

// State is what a consumer observes: loading, ready(Data) or failed(Err).
type State struct {
	Status Status
	Data   *Dataset
	Err    error
}

// Settled reports whether the state is ready or failed.
func (s State) Settled() bool { return s.Status != StatusLoading }

// View binds resolutions to one consumer. Each Load restarts the state
// machine; a completion is applied only while the view is open and the
// completing load is still the latest one, so results that arrive after
// Close or after a newer Load are dropped.
type View struct {
	r        *Resolver
	onChange func(State)

	mu     sync.Mutex
	gen    uint64
	closed bool
	state  State
	done   chan struct{}
	cancel context.CancelFunc
}

// NewView creates a view. onChange, if non-nil, is called with every state
// the view enters, in order and while the view is locked: it must not call
// back into the view.
func (r *Resolver) NewView(onChange func(State)) *View {
	done := make(chan struct{})
	close(done)
	return &View{r: r, onChange: onChange, state: State{Status: StatusLoading}, done: done}
}

// Load starts resolving endpoint in the background and moves the view to
// StatusLoading. It is a no-op on a closed view.
func (v *View) Load(ctx context.Context, endpoint string) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	if v.cancel != nil {
		v.cancel()
	}
	v.gen++
	gen := v.gen
	ctx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	// Release anyone waiting on the superseded load; Wait follows the new one.
	closeOnce(v.done)
	v.done = make(chan struct{})
	v.state = State{Status: StatusLoading}
	v.emit(v.state)
	v.mu.Unlock()

	go func() {
		defer cancel()
		st := v.r.Fetch(ctx, endpoint)
		v.settle(gen, endpoint, st)
	}()
}

func (v *View) settle(gen uint64, endpoint string, st State) {
	v.mu.Lock()
	if v.closed || gen != v.gen {
		v.mu.Unlock()
		v.r.logger.Debug("dropping stale result", zap.String("endpoint", endpoint), zap.Stringer("status", st.Status))
		return
	}
	v.state = st
	v.emit(st)
	closeOnce(v.done)
	v.mu.Unlock()
}

func (v *View) emit(st State) {
	if v.onChange != nil {
		v.onChange(st)
	}
}

// State returns the current state.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Wait blocks until the latest load settles, the view is closed, or ctx is
// done, and returns the state at that point.
func (v *View) Wait(ctx context.Context) State {
	for {
		v.mu.Lock()
		done, closed, st, idle := v.done, v.closed, v.state, v.gen == 0
		v.mu.Unlock()
		if closed || idle || st.Settled() {
			return st
		}
		select {
		case <-done:
		case <-ctx.Done():
			return v.State()
		}
	}
}

// Close detaches the consumer. Any in-flight load is cancelled and its
// result, if it still arrives, is ignored.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	if v.cancel != nil {
		v.cancel()
	}
	closeOnce(v.done)
	v.mu.Unlock()
}

// closeOnce closes ch unless it is already closed. Callers hold v.mu.
func closeOnce(ch chan struct{}) {
	select {
	case <-ch:
	default:
		close(ch)
	}
}
