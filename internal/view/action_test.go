package view

import (
	"context"
	"errors"
	"testing"
	"time"

	"conduit/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestAction_SecondGestureWhileSubmittingIsIgnored(t *testing.T) {
	a := NewAction("comment:7", time.Second, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- a.Run(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	assert.Equal(t, Submitting, a.State())

	calls := 0
	err := a.Run(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, ErrBusy)
	assert.Zero(t, calls)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, Idle, a.State())
}

func TestAction_ReturnsToIdleAfterFailure(t *testing.T) {
	a := NewAction("article:new", time.Second, nil)
	boom := errors.New("boom")

	err := a.Run(context.Background(), func(context.Context) error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Idle, a.State())
}

func TestAction_TimeoutIsNetworkUnavailable(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	a := NewAction("article:new", 20*time.Millisecond, nil)
	err := a.Run(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	assert.ErrorIs(t, err, apperr.ErrNetworkUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Idle, a.State())
}

func TestAction_GuardHeldElsewhereIsBusy(t *testing.T) {
	guard := NewLocalGuard()
	release, ok, err := guard.Acquire(context.Background(), "article:delete:1", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	a := NewAction("article:delete:1", time.Second, guard)
	err = a.Run(context.Background(), func(context.Context) error {
		t.Fatal("must not run while the guard is held")
		return nil
	})
	assert.ErrorIs(t, err, ErrBusy)

	release()
	assert.NoError(t, a.Run(context.Background(), func(context.Context) error { return nil }))
}

func TestLocalGuard_ReleaseIsIdempotent(t *testing.T) {
	guard := NewLocalGuard()
	release, ok, _ := guard.Acquire(context.Background(), "k", time.Second)
	require.True(t, ok)

	release()
	second, ok, _ := guard.Acquire(context.Background(), "k", time.Second)
	require.True(t, ok)
	release()

	_, ok, _ = guard.Acquire(context.Background(), "k", time.Second)
	assert.False(t, ok, "a stale release must not free the new holder")
	second()
}

type stubGuard struct {
	ok       bool
	err      error
	released int
}

func (g *stubGuard) Acquire(context.Context, string, time.Duration) (func(), bool, error) {
	if g.err != nil || !g.ok {
		return nil, g.ok, g.err
	}
	return func() { g.released++ }, true, nil
}

func TestChainGuard(t *testing.T) {
	t.Run("all acquired", func(t *testing.T) {
		first, second := &stubGuard{ok: true}, &stubGuard{ok: true}
		release, ok, err := ChainGuard{first, second}.Acquire(context.Background(), "k", time.Second)
		require.NoError(t, err)
		require.True(t, ok)

		release()
		assert.Equal(t, 1, first.released)
		assert.Equal(t, 1, second.released)
	})

	t.Run("later guard busy releases earlier ones", func(t *testing.T) {
		first, second := &stubGuard{ok: true}, &stubGuard{ok: false}
		_, ok, err := ChainGuard{first, second}.Acquire(context.Background(), "k", time.Second)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 1, first.released)
	})

	t.Run("error propagates", func(t *testing.T) {
		first, second := &stubGuard{ok: true}, &stubGuard{err: errors.New("redis down")}
		_, _, err := ChainGuard{first, second}.Acquire(context.Background(), "k", time.Second)
		assert.EqualError(t, err, "redis down")
		assert.Equal(t, 1, first.released)
	})
}

func TestBinding_NilConfirmerDeclines(t *testing.T) {
	b := NewBinding(nil, nil)
	ran := false

	err := b.mutate(context.Background(), mutation{
		key:     "article:delete:1",
		confirm: "Delete?",
		run: func(context.Context) error {
			ran = true
			return nil
		},
	})

	assert.ErrorIs(t, err, ErrDeclined)
	assert.False(t, ran)
}

func TestBinding_RefreshFailureDoesNotFailMutation(t *testing.T) {
	notes := &recorder{}
	b := NewBinding(ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil }), notes)

	err := b.mutate(context.Background(), mutation{
		key:     "comment:7",
		run:     func(context.Context) error { return nil },
		success: "comment posted",
		refresh: func(context.Context) error {
			return &apperr.NetworkError{Op: "list comments", Err: errors.New("connection refused")}
		},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"comment posted"}, notes.Successes())
	assert.Equal(t, []string{"could not refresh: the server could not be reached"}, notes.Errors())
}
