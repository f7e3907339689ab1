package view

import (
	"context"
	"errors"
	"sync"
	"time"

	"conduit/internal/apperr"
)

// ErrBusy is returned when a gesture arrives while the same gesture is still
// submitting. Nothing is sent in that case.
var ErrBusy = errors.New("submission already in flight")

type State int

const (
	Idle State = iota
	Submitting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// Action is the state machine behind one user gesture:
// Idle -> Submitting -> Idle. At most one run is in flight at a time.
type Action struct {
	key     string
	timeout time.Duration
	guard   Guard

	mu    sync.Mutex
	state State
}

// NewAction creates an action. guard may be nil; timeout 0 disables the deadline.
func NewAction(key string, timeout time.Duration, guard Guard) *Action {
	return &Action{key: key, timeout: timeout, guard: guard}
}

func (a *Action) Key() string {
	return a.key
}

func (a *Action) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Run executes fn unless the action is already submitting. fn gets a context
// bounded by the action timeout; running out of time is reported as
// apperr.ErrNetworkUnavailable.
func (a *Action) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	a.mu.Lock()
	if a.state == Submitting {
		a.mu.Unlock()
		return ErrBusy
	}
	a.state = Submitting
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.state = Idle
		a.mu.Unlock()
	}()

	if a.guard != nil {
		release, ok, err := a.guard.Acquire(ctx, a.key, a.lockTTL())
		if err != nil {
			return err
		}
		if !ok {
			return ErrBusy
		}
		defer release()
	}

	runCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	err := fn(runCtx)
	if err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, apperr.ErrNetworkUnavailable) {
		return &apperr.NetworkError{Op: a.key, Err: err}
	}
	return err
}

// lockTTL bounds how long a crashed process can hold a gesture lock.
func (a *Action) lockTTL() time.Duration {
	if a.timeout > 0 {
		return a.timeout + time.Second
	}
	return time.Minute
}
