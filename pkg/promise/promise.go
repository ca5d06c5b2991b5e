// Package promise provides settle-once values whose callbacks run on the
// host queue, never synchronously with the settlement.
package promise

import (
	"context"
	"fmt"
)

// Queue is the part of the host queue a promise needs.
type Queue interface {
	Microtask(fn func())
	Post(fn func())
}

type State uint8

const (
	StatePending State = iota
	StateFulfilled
	StateRejected
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFulfilled:
		return "fulfilled"
	case StateRejected:
		return "rejected"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

type callback[T any] struct {
	onValue func(T)
	onError func(error)
}

// Promise must only be settled and observed from the loop goroutine. Use Go
// to produce one from other goroutines.
type Promise[T any] struct {
	q     Queue
	state State
	value T
	err   error
	cbs   []callback[T]
}

// New returns a pending promise and its settle functions. Only the first
// settlement counts.
func New[T any](q Queue) (p *Promise[T], resolve func(T), reject func(error)) {
	p = &Promise[T]{q: q}
	return p, p.resolve, p.reject
}

func Resolved[T any](q Queue, v T) *Promise[T] {
	p, resolve, _ := New[T](q)
	resolve(v)
	return p
}

func Rejected[T any](q Queue, err error) *Promise[T] {
	p, _, reject := New[T](q)
	reject(err)
	return p
}

// Go runs fn on its own goroutine and settles the promise back on the loop.
func Go[T any](ctx context.Context, q Queue, fn func(ctx context.Context) (T, error)) *Promise[T] {
	p, resolve, reject := New[T](q)
	go func() {
		v, err := fn(ctx)
		q.Post(func() {
			if err != nil {
				reject(err)
				return
			}
			resolve(v)
		})
	}()
	return p
}

func (p *Promise[T]) State() State {
	return p.state
}

// Result returns the settled value or error. It is only meaningful once
// State is no longer StatePending.
func (p *Promise[T]) Result() (T, error) {
	return p.value, p.err
}

// Then registers settlement callbacks. Either may be nil. They run as a
// microtask, even when p is already settled.
func (p *Promise[T]) Then(onValue func(T), onError func(error)) {
	cb := callback[T]{onValue: onValue, onError: onError}
	if p.state == StatePending {
		p.cbs = append(p.cbs, cb)
		return
	}
	p.schedule(cb)
}

func (p *Promise[T]) schedule(cb callback[T]) {
	p.q.Microtask(func() {
		switch p.state {
		case StateFulfilled:
			if cb.onValue != nil {
				cb.onValue(p.value)
			}
		case StateRejected:
			if cb.onError != nil {
				cb.onError(p.err)
			}
		}
	})
}

func (p *Promise[T]) settle(state State, v T, err error) {
	if p.state != StatePending {
		return
	}
	p.state = state
	p.value = v
	p.err = err
	cbs := p.cbs
	p.cbs = nil
	for _, cb := range cbs {
		p.schedule(cb)
	}
}

func (p *Promise[T]) resolve(v T) {
	p.settle(StateFulfilled, v, nil)
}

func (p *Promise[T]) reject(err error) {
	var zero T
	p.settle(StateRejected, zero, err)
}
