// Package component gives renders an opaque callable shape: a component
// takes props and options and returns a handle that can be mounted and
// destroyed. Blocks that host components only ever go through that shape.
package component

import (
	"fmt"

	"github.com/delaneyj/flowdom/pkg/dom"
	"github.com/delaneyj/flowdom/pkg/reactive"
	"github.com/delaneyj/flowdom/pkg/render"
	"github.com/delaneyj/flowdom/pkg/scope"
)

const handleKey = "component.handle"

type Options struct {
	// Target, when set, receives the component's node right after setup.
	Target dom.Container
}

// Handle is one rendered component instance.
type Handle struct {
	name     string
	scope    *scope.Node
	node     dom.Node
	target   dom.Container
	handlers map[string]func(detail any)
}

func (h *Handle) Name() string {
	return h.name
}

func (h *Handle) Node() dom.Node {
	return h.node
}

func (h *Handle) Scope() *scope.Node {
	return h.scope
}

// Mount runs the component's mount hooks. Components mount themselves once
// setup returns, so this only matters for hooks added afterwards and is
// otherwise a no-op.
func (h *Handle) Mount() {
	h.scope.Mount()
}

// Destroy tears down the component's scope and detaches its node from the
// target it was appended to.
func (h *Handle) Destroy() {
	h.scope.Destroy()
	if h.target != nil && h.node.ParentNode() == h.target {
		h.target.RemoveChild(h.node)
	}
}

// On registers the handler for events the component emits under name,
// replacing any earlier one.
func (h *Handle) On(name string, fn func(detail any)) *Handle {
	h.handlers[name] = fn
	return h
}

// Component is the callable every host block invokes.
type Component[P any] func(props P, opts Options) *Handle

// Define turns setup into a Component. setup runs in the component's own
// scope and may return anything render.Runtime.Node accepts.
func Define[P any](rt *render.Runtime, name string, setup func(props P) any) Component[P] {
	return func(props P, opts Options) *Handle {
		h := scope.Create(rt.Scopes, func(n *scope.Node) *Handle {
			h := &Handle{
				name:     name,
				scope:    n,
				target:   opts.Target,
				handlers: map[string]func(any){},
			}
			n.Provide(handleKey, h)
			h.node = rt.Node(setup(props))
			n.SetOutput(h.node)
			return h
		})
		rt.Logger().Debug().Str("component", name).Uint64("scope", h.scope.ID()).Msg("component created")

		h.scope.Mount()
		if opts.Target != nil {
			opts.Target.AppendChild(h.node)
		}
		return h
	}
}

// Current returns the handle of the innermost component being rendered.
func Current(rt *render.Runtime) (*Handle, error) {
	v, err := rt.Scopes.Inject(handleKey)
	if err != nil {
		return nil, fmt.Errorf("component: %w", err)
	}
	return v.(*Handle), nil
}

// Emitter returns a function that delivers detail to the handler the
// component's user registered with On for name. The handler is looked up at
// emit time, so handlers added after setup are honoured. Emitter panics
// outside of a component render.
func Emitter[T any](rt *render.Runtime, name string) func(detail T) {
	h, err := Current(rt)
	if err != nil {
		panic(err)
	}
	return func(detail T) {
		if fn, ok := h.handlers[name]; ok {
			fn(detail)
		}
	}
}

// Prop lifts a prop that may be a plain T or a Cell[T].
func Prop[T any](v any) reactive.Cell[T] {
	return reactive.Lift[T](v)
}

// Dynamic renders whichever component comp currently holds with props. comp
// is a Component[P] or a Cell[Component[P]]; a nil component renders a
// placeholder.
func Dynamic[P any](rt *render.Runtime, comp any, props P) *render.DynamicBlock {
	view := func(c Component[P]) render.View {
		if c == nil {
			return nil
		}
		return func() dom.Node {
			return c(props, Options{}).Node()
		}
	}
	if c, ok := comp.(Component[P]); ok {
		return render.Dynamic(rt, view(c))
	}
	return render.Dynamic(rt, reactive.Map(reactive.Lift[Component[P]](comp), view))
}
