// Package view holds the interaction rules every screen follows when it calls a
// repository: confirmation before destructive actions, one submission per gesture,
// synchronous error reporting, targeted refresh after a mutation, and form values
// that survive a failed submit.
package view

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"conduit/internal/apperr"
	"conduit/internal/model"

	"go.uber.org/zap"
)

// ErrDeclined is returned when the user answers no to a confirmation prompt.
var ErrDeclined = errors.New("declined by user")

const DefaultTimeout = 10 * time.Second

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Notifier reports outcomes to the user. Calls must complete before returning.
type Notifier interface {
	Success(format string, args ...any)
	Error(format string, args ...any)
}

// Guard serializes a gesture key, possibly across processes. ok is false when
// somebody else holds the key.
type Guard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// DraftStore keeps form values that the API did not accept.
type DraftStore interface {
	SaveDraft(ctx context.Context, d model.Draft) error
	GetDraft(ctx context.Context, key string) (*model.Draft, bool, error)
	DeleteDraft(ctx context.Context, key string) error
}

// Binding carries the collaborators shared by every view.
type Binding struct {
	confirmer Confirmer
	notifier  Notifier
	guard     Guard
	drafts    DraftStore
	timeout   time.Duration
	logger    *zap.Logger

	mu      sync.Mutex
	actions map[string]*Action
}

type Option func(*Binding)

func WithGuard(g Guard) Option {
	return func(b *Binding) { b.guard = g }
}

func WithDrafts(d DraftStore) Option {
	return func(b *Binding) { b.drafts = d }
}

func WithTimeout(d time.Duration) Option {
	return func(b *Binding) { b.timeout = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(b *Binding) { b.logger = l }
}

// NewBinding creates a binding. A nil confirmer declines every prompt and a nil
// notifier writes to the logger.
func NewBinding(confirmer Confirmer, notifier Notifier, opts ...Option) *Binding {
	if confirmer == nil {
		confirmer = ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil })
	}
	b := &Binding{
		confirmer: confirmer,
		notifier:  notifier,
		timeout:   DefaultTimeout,
		logger:    zap.NewNop(),
		actions:   make(map[string]*Action),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.guard == nil {
		b.guard = NewLocalGuard()
	}
	if b.notifier == nil {
		b.notifier = logNotifier{logger: b.logger}
	}
	return b
}

// Action returns the action for a gesture key, creating it on first use.
func (b *Binding) Action(key string) *Action {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.actions[key]
	if !ok {
		a = NewAction(key, b.timeout, b.guard)
		b.actions[key] = a
	}
	return a
}

// Timeout is the deadline applied to loads and submissions.
func (b *Binding) Timeout() time.Duration {
	return b.timeout
}

// mutation describes one mutating gesture.
type mutation struct {
	key     string
	confirm string
	run     func(ctx context.Context) error
	success string
	failure string
	// refresh re-fetches what the mutation changed. It also runs after a
	// NotFound, since the entity is gone either way.
	refresh func(ctx context.Context) error
}

func (b *Binding) mutate(ctx context.Context, m mutation) error {
	// A repeated gesture is a no-op: no second prompt, no second request.
	action := b.Action(m.key)
	if action.State() == Submitting {
		b.logger.Debug("gesture ignored while submitting", zap.String("gesture", m.key))
		return ErrBusy
	}

	if m.confirm != "" {
		ok, err := b.confirmer.Confirm(ctx, m.confirm)
		if err != nil {
			b.notifier.Error("%s: %s", m.failure, err)
			return fmt.Errorf("confirm: %w", err)
		}
		if !ok {
			b.logger.Debug("gesture declined", zap.String("gesture", m.key))
			return ErrDeclined
		}
	}

	err := action.Run(ctx, m.run)
	switch {
	case errors.Is(err, ErrBusy):
		b.logger.Debug("gesture ignored while submitting", zap.String("gesture", m.key))
		return err
	case err != nil:
		b.logger.Warn("gesture failed", zap.String("gesture", m.key), zap.Error(err))
		b.notifier.Error("%s: %s", m.failure, apperr.UserMessage(err))
		if errors.Is(err, apperr.ErrNotFound) && m.refresh != nil {
			b.refresh(ctx, m)
		}
		return err
	}

	if m.success != "" {
		b.notifier.Success("%s", m.success)
	}
	if m.refresh != nil {
		b.refresh(ctx, m)
	}
	return nil
}

// refresh failures do not undo a mutation that the server accepted; the user
// is told the screen may be stale.
func (b *Binding) refresh(ctx context.Context, m mutation) {
	if err := b.load(ctx, m.refresh); err != nil {
		b.logger.Warn("refresh failed", zap.String("gesture", m.key), zap.Error(err))
		b.notifier.Error("could not refresh: %s", apperr.UserMessage(err))
	}
}

// load runs a read with the binding timeout.
func (b *Binding) load(ctx context.Context, fn func(ctx context.Context) error) error {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	return fn(ctx)
}

type logNotifier struct {
	logger *zap.Logger
}

func (n logNotifier) Success(format string, args ...any) {
	n.logger.Info(fmt.Sprintf(format, args...))
}

func (n logNotifier) Error(format string, args ...any) {
	n.logger.Error(fmt.Sprintf(format, args...))
}

// LocalGuard serializes gesture keys inside one process.
type LocalGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalGuard() *LocalGuard {
	return &LocalGuard{held: make(map[string]struct{})}
}

func (g *LocalGuard) Acquire(_ context.Context, key string, _ time.Duration) (func(), bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.held[key]; busy {
		return nil, false, nil
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, true, nil
}

// ChainGuard takes every guard in order and releases them in reverse.
type ChainGuard []Guard

func (c ChainGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	releases := make([]func(), 0, len(c))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}

	for _, g := range c {
		release, ok, err := g.Acquire(ctx, key, ttl)
		if err != nil || !ok {
			releaseAll()
			return nil, ok, err
		}
		releases = append(releases, release)
	}
	return releaseAll, true, nil
}
