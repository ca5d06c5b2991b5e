package render

import (
	"github.com/delaneyj/flowdom/pkg/dom"
	"github.com/delaneyj/flowdom/pkg/reactive"
	"github.com/delaneyj/flowdom/pkg/scope"
)

const DynamicMarker = "dynamic"

// View renders a node. A nil View renders a placeholder.
type View func() dom.Node

// DynamicBlock swaps whole views. Every emission destroys the previous
// view's scope and renders the new one, even when the same view is emitted
// again, since functions cannot be compared.
type DynamicBlock struct {
	*reactive.Reactive[dom.Node]

	rt   *Runtime
	view reactive.Cell[View]
	m    *scope.SingleManager
}

// Dynamic starts a dynamic block over a View or a Cell[View].
func Dynamic(rt *Runtime, view any) *DynamicBlock {
	if fn, ok := view.(func() dom.Node); ok {
		view = View(fn)
	}
	b := &DynamicBlock{
		rt:   rt,
		view: reactive.Lift[View](view),
		m:    scope.Single(rt.Scopes),
	}
	b.Reactive = reactive.New(b.activate)
	return b
}

func (b *DynamicBlock) activate(emit reactive.Emit[dom.Node]) reactive.Teardown {
	unsub := b.view.Subscribe(func(v View) {
		if v == nil {
			v = func() dom.Node { return b.rt.Doc.CreateComment(DynamicMarker) }
		}
		b.rt.renderSingle(emit, b.m, "dynamic", v)
	})
	return func() {
		unsub()
		b.m.Reset()
	}
}
