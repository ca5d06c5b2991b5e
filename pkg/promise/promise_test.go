package promise_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/delaneyj/flowdom/pkg/promise"
	"github.com/delaneyj/flowdom/pkg/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallbacksRunOnMicrotask(t *testing.T) {
	q := scheduler.New()
	p, resolve, reject := promise.New[int](q)
	assert.Equal(t, promise.StatePending, p.State())

	var got []int
	p.Then(func(v int) { got = append(got, v) }, nil)
	resolve(1)
	resolve(2)
	reject(errors.New("late"))
	assert.Empty(t, got, "settlement never calls back synchronously")

	q.Drain()
	assert.Equal(t, []int{1}, got)
	assert.Equal(t, promise.StateFulfilled, p.State())

	p.Then(func(v int) { got = append(got, v*10) }, nil)
	assert.Len(t, got, 1)
	q.Drain()
	assert.Equal(t, []int{1, 10}, got)
}

func TestRejected(t *testing.T) {
	q := scheduler.New()
	boom := errors.New("boom")
	p := promise.Rejected[string](q, boom)

	var gotErr error
	p.Then(func(string) { t.Fatal("must not fulfil") }, func(err error) { gotErr = err })
	q.Drain()
	assert.ErrorIs(t, gotErr, boom)
	assert.Equal(t, promise.StateRejected, p.State())
	assert.Equal(t, "rejected", p.State().String())

	_, err := p.Result()
	assert.ErrorIs(t, err, boom)
}

func TestResolvedResult(t *testing.T) {
	q := scheduler.New()
	p := promise.Resolved(q, "ok")
	v, err := p.Result()
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestGoSettlesOnLoop(t *testing.T) {
	q := scheduler.New()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p := promise.Go(ctx, q, func(ctx context.Context) (int, error) {
		return 42, nil
	})

	got := 0
	p.Then(func(v int) { got = v }, nil)
	require.NoError(t, q.RunUntil(ctx, func() bool { return got != 0 }))
	assert.Equal(t, 42, got)
}
