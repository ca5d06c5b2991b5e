package render

import (
	"github.com/delaneyj/flowdom/pkg/dom"
	"github.com/delaneyj/flowdom/pkg/promise"
	"github.com/delaneyj/flowdom/pkg/reactive"
	"github.com/delaneyj/flowdom/pkg/scope"
)

// AwaitBlock renders the pending view of the latest promise, then its value
// or error. Only the most recently assigned promise may settle the view; a
// superseded one is dropped when it settles.
type AwaitBlock[T any] struct {
	*reactive.Reactive[dom.Node]

	rt      *Runtime
	source  reactive.Cell[*promise.Promise[T]]
	m       *scope.SingleManager
	pending func() dom.Node
	then    func(T) dom.Node
	catch   func(error) dom.Node
}

// Await starts an async block over a *promise.Promise[T] or a cell of them.
// A nil source, like a nil promise, stays pending.
func Await[T any](rt *Runtime, source any) *AwaitBlock[T] {
	if source == nil {
		source = (*promise.Promise[T])(nil)
	}
	placeholder := func() dom.Node { return rt.Doc.CreateComment(AwaitMarker) }
	b := &AwaitBlock[T]{
		rt:      rt,
		source:  reactive.Lift[*promise.Promise[T]](source),
		m:       scope.Single(rt.Scopes),
		pending: placeholder,
		then:    func(T) dom.Node { return placeholder() },
		catch:   func(error) dom.Node { return placeholder() },
	}
	b.Reactive = reactive.New(b.activate)
	return b
}

func (b *AwaitBlock[T]) Pending(fn func() dom.Node) *AwaitBlock[T] {
	b.pending = fn
	return b
}

func (b *AwaitBlock[T]) Then(fn func(v T) dom.Node) *AwaitBlock[T] {
	b.then = fn
	return b
}

func (b *AwaitBlock[T]) Catch(fn func(err error) dom.Node) *AwaitBlock[T] {
	b.catch = fn
	return b
}

func (b *AwaitBlock[T]) activate(emit reactive.Emit[dom.Node]) reactive.Teardown {
	var (
		current   *promise.Promise[T]
		isPending bool
	)

	unsub := b.source.Subscribe(func(p *promise.Promise[T]) {
		current = p
		if !isPending {
			isPending = true
			b.rt.renderSingle(emit, b.m, "await", b.pending)
		}
		if p == nil {
			return
		}

		p.Then(func(v T) {
			if current != p {
				b.rt.log.Debug().Msg("stale settlement dropped")
				return
			}
			isPending = false
			b.rt.renderSingle(emit, b.m, "await", func() dom.Node { return b.then(v) })
		}, func(err error) {
			if current != p {
				b.rt.log.Debug().Err(err).Msg("stale rejection dropped")
				return
			}
			isPending = false
			b.rt.log.Debug().Err(err).Msg("promise rejected")
			b.rt.renderSingle(emit, b.m, "await", func() dom.Node { return b.catch(err) })
		})
	})

	return func() {
		unsub()
		current = nil
		b.m.Reset()
	}
}
