package render

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/delaneyj/flowdom/pkg/dom"
	"github.com/delaneyj/flowdom/pkg/reactive"
	"github.com/delaneyj/flowdom/pkg/reconcile"
)

var ErrNotRenderable = errors.New("render: value cannot be rendered as a child")

// EmptyMarker is the comment left where a child produced no nodes.
const EmptyMarker = "empty list"

// Noder is anything that renders to a single node, such as a component
// handle.
type Noder interface {
	Node() dom.Node
}

// Builder configures one element. Attribute, class and value bindings are
// applied immediately; bindings to cells live as long as the current scope.
type Builder struct {
	rt *Runtime
	el dom.Element
}

func El(rt *Runtime, tag string) *Builder {
	return &Builder{rt: rt, el: rt.Doc.CreateElement(tag)}
}

// Element returns the element without adding children.
func (b *Builder) Element() dom.Element {
	return b.el
}

// Attr sets name from a string or a Cell[string].
func (b *Builder) Attr(name string, v any) *Builder {
	if s, ok := v.(string); ok {
		b.el.SetAttr(name, s)
		return b
	}
	react(b.rt, reactive.Lift[string](v), func(s string) {
		b.el.SetAttr(name, s)
	})
	return b
}

// Class toggles token from a bool or a Cell[bool].
func (b *Builder) Class(token string, on any) *Builder {
	set := func(on bool) {
		if on {
			b.el.AddClass(token)
		} else {
			b.el.RemoveClass(token)
		}
	}
	if v, ok := on.(bool); ok {
		set(v)
		return b
	}
	react(b.rt, reactive.Lift[bool](on), set)
	return b
}

// Prop sets the bindable value from a string or a Cell[string].
func (b *Builder) Prop(v any) *Builder {
	if s, ok := v.(string); ok {
		b.el.SetValue(s)
		return b
	}
	react(b.rt, reactive.Lift[string](v), b.el.SetValue)
	return b
}

// On adds a listener that is removed again when the current scope is
// destroyed.
func (b *Builder) On(event string, l dom.Listener) *Builder {
	id := b.el.AddEventListener(event, l)
	if n, err := b.rt.Scopes.Current(); err == nil {
		n.OnDestroy(func() { b.el.RemoveEventListener(event, id) })
	}
	return b
}

// Bind keeps the bindable value and w in sync in both directions. Input
// events write the element's value back into w.
func (b *Builder) Bind(w *reactive.Writable[string]) *Builder {
	b.Prop(w)
	return b.On("input", func(dom.Event) {
		if v := b.el.Value(); v != w.Get() {
			w.Set(v)
		}
	})
}

// Use runs fn with the element, for anything the builder has no method for.
func (b *Builder) Use(fn func(el dom.Element)) *Builder {
	fn(b.el)
	return b
}

// Children appends children in order and returns the element. Each child is
// its own region: when a reactive child emits, only that region is patched.
//
// A child may be a dom.Node, a Noder, a string, an integer, a []dom.Node, a
// Cell of dom.Node, []dom.Node, string or int, a func() dom.Node, or a
// func() any whose result is one of these.
func (b *Builder) Children(children ...any) dom.Element {
	for _, child := range children {
		b.region(b.rt.lift(child))
	}
	return b.el
}

func (b *Builder) region(c reactive.Cell[[]dom.Node]) {
	var (
		prev        []dom.Node
		started     bool
		placeholder dom.Node
	)
	orPlaceholder := func(nodes []dom.Node) []dom.Node {
		if len(nodes) > 0 {
			return nodes
		}
		if placeholder == nil {
			placeholder = b.rt.Doc.CreateComment(EmptyMarker)
		}
		return []dom.Node{placeholder}
	}

	react(b.rt, c, func(nodes []dom.Node) {
		nodes = orPlaceholder(nodes)
		if !started {
			started = true
			for _, n := range nodes {
				b.el.AppendChild(n)
			}
			prev = nodes
			return
		}
		stats := reconcile.Patch(b.el, prev, nodes)
		b.rt.metrics.patched(stats)
		prev = nodes
	})

	// a child that has not emitted yet still holds its position
	if !started {
		started = true
		prev = orPlaceholder(nil)
		b.el.AppendChild(prev[0])
	}
}

func (rt *Runtime) lift(child any) reactive.Cell[[]dom.Node] {
	switch c := child.(type) {
	case nil:
		return reactive.Of[[]dom.Node](nil)
	case []dom.Node:
		return reactive.Of(c)
	case reactive.Cell[[]dom.Node]:
		return c
	case reactive.Cell[dom.Node]:
		return reactive.Map(c, func(n dom.Node) []dom.Node {
			if n == nil {
				return nil
			}
			return []dom.Node{n}
		})
	case func() any:
		return rt.lift(c())
	default:
		return reactive.Of([]dom.Node{rt.Node(child)})
	}
}

// Node resolves a single child value into a node. Cells of strings and ints
// become text nodes bound for the current scope's lifetime.
func (rt *Runtime) Node(v any) dom.Node {
	switch c := v.(type) {
	case dom.Node:
		return c
	case Noder:
		return rt.orPlaceholder(c.Node(), "component")
	case func() dom.Node:
		return rt.orPlaceholder(c(), "empty")
	case string, int, int64, uint64, fmt.Stringer,
		reactive.Cell[string], reactive.Cell[int]:
		return Text(rt, c)
	default:
		panic(fmt.Errorf("%w: %T", ErrNotRenderable, v))
	}
}

// Text creates a text node from a plain value, a Cell[string] or a
// Cell[int]. Cells keep the node's data current.
func Text(rt *Runtime, v any) dom.Text {
	switch c := v.(type) {
	case reactive.Cell[string]:
		return TextOf(rt, c, func(s string) string { return s })
	case reactive.Cell[int]:
		return TextOf(rt, c, strconv.Itoa)
	case string:
		return rt.Doc.CreateText(c)
	default:
		return rt.Doc.CreateText(fmt.Sprint(c))
	}
}

// TextOf creates a text node showing every emission of c through format.
func TextOf[T any](rt *Runtime, c reactive.Cell[T], format func(T) string) dom.Text {
	t := rt.Doc.CreateText("")
	react(rt, c, func(v T) {
		t.SetData(format(v))
	})
	return t
}

func Comment(rt *Runtime, marker string) dom.Comment {
	return rt.Doc.CreateComment(marker)
}
