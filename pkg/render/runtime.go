// Package render builds output trees from cells. Every builder and block
// runs against a Runtime, which carries the host queue, the current-scope
// stack and the render target.
package render

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/delaneyj/flowdom/pkg/dom"
	"github.com/delaneyj/flowdom/pkg/reactive"
	"github.com/delaneyj/flowdom/pkg/scheduler"
	"github.com/delaneyj/flowdom/pkg/scope"
)

// Runtime must only be used from the loop goroutine.
type Runtime struct {
	Queue  *scheduler.Queue
	Scopes *scope.Stack
	Doc    dom.Document

	log     zerolog.Logger
	metrics *Metrics
}

type Option func(*Runtime)

// WithLogger sets the logger used for render diagnostics. The default
// discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(rt *Runtime) {
		rt.log = l
	}
}

// WithMetrics records render, scope and patch counts on m.
func WithMetrics(m *Metrics) Option {
	return func(rt *Runtime) {
		rt.metrics = m
	}
}

// WithQueue shares an existing host queue instead of creating one.
func WithQueue(q *scheduler.Queue) Option {
	return func(rt *Runtime) {
		rt.Queue = q
	}
}

func New(doc dom.Document, opts ...Option) *Runtime {
	rt := &Runtime{
		Scopes: scope.NewStack(),
		Doc:    doc,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.Queue == nil {
		rt.Queue = scheduler.New()
	}
	if rt.metrics != nil {
		rt.Scopes.SetTracer(rt.metrics)
	}
	return rt
}

func (rt *Runtime) Logger() *zerolog.Logger {
	return &rt.log
}

func (rt *Runtime) Metrics() *Metrics {
	return rt.metrics
}

// Flush runs the host queue until it is empty.
func (rt *Runtime) Flush() int {
	return rt.Queue.Flush()
}

// current returns the innermost scope and panics outside of a render.
func (rt *Runtime) current(op string) *scope.Node {
	n, err := rt.Scopes.Current()
	if err != nil {
		panic(fmt.Errorf("render: %s: %w", op, err))
	}
	return n
}

// OnMount registers fn on the current scope. It panics outside of a render.
func (rt *Runtime) OnMount(fn func()) {
	rt.current("on mount").OnMount(fn)
}

// OnDestroy registers fn on the current scope. It panics outside of a render.
func (rt *Runtime) OnDestroy(fn func()) {
	rt.current("on destroy").OnDestroy(fn)
}

// react subscribes fn to c for the lifetime of the current scope, or forever
// when there is none.
func react[T any](rt *Runtime, c reactive.Cell[T], fn func(T)) {
	unsub := c.Subscribe(fn)
	if n, err := rt.Scopes.Current(); err == nil {
		n.OnDestroy(func() { unsub() })
	}
}

// Mount renders fn in a new scope, appends its output to target and runs
// the scope's mount hooks. Destroying the returned scope tears the whole
// subtree down and detaches the output.
func Mount(rt *Runtime, target dom.Container, fn func() dom.Node) *scope.Node {
	n := scope.Create(rt.Scopes, func(n *scope.Node) *scope.Node {
		out := rt.orPlaceholder(fn(), "mount")
		n.SetOutput(out)
		target.AppendChild(out)
		n.OnDestroy(func() { dom.Remove(out) })
		return n
	})
	rt.log.Debug().Uint64("scope", n.ID()).Msg("mounted")
	n.Mount()
	return n
}

func (rt *Runtime) orPlaceholder(n dom.Node, marker string) dom.Node {
	if n == nil {
		return rt.Doc.CreateComment(marker)
	}
	return n
}
