package render

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/delaneyj/flowdom/pkg/dom"
	"github.com/delaneyj/flowdom/pkg/reactive"
	"github.com/delaneyj/flowdom/pkg/scope"
)

// KeyFunc resolves the identity of a list item. Keys must be comparable.
type KeyFunc[T any] func(item T, index int) any

// IndexKey keys items by position. Items that shift are treated as the item
// that used to be at their index, so their old nodes are reused as is. Use
// a real key for lists that reorder or splice.
func IndexKey[T any](_ T, index int) any {
	return index
}

type listEntry struct {
	node  dom.Node
	scope *scope.Node
}

// ForBlock renders one node per item, keyed. A key that survives an update
// keeps its node and scope untouched, even if the item under it changed.
type ForBlock[T any] struct {
	*reactive.Reactive[[]dom.Node]

	rt       *Runtime
	items    reactive.Cell[[]T]
	template func(item T, index int, items []T) dom.Node
	key      KeyFunc[T]
	empty    func() dom.Node
	m        *scope.ManyManager
	fallback *scope.SingleManager
}

// For starts a keyed list block over a []T or a Cell[[]T].
func For[T any](rt *Runtime, list any, template func(item T, index int, items []T) dom.Node) *ForBlock[T] {
	b := &ForBlock[T]{
		rt:       rt,
		items:    reactive.Lift[[]T](list),
		template: template,
		key:      IndexKey[T],
		m:        scope.Many(rt.Scopes),
		fallback: scope.Single(rt.Scopes),
	}
	b.Reactive = reactive.New(b.activate)
	return b
}

func (b *ForBlock[T]) Key(fn KeyFunc[T]) *ForBlock[T] {
	b.key = fn
	return b
}

// Empty sets what to render while the list has no items.
func (b *ForBlock[T]) Empty(fn func() dom.Node) *ForBlock[T] {
	b.empty = fn
	return b
}

func (b *ForBlock[T]) activate(emit reactive.Emit[[]dom.Node]) reactive.Teardown {
	entries := map[any]*listEntry{}
	var order []any

	unsub := b.items.Subscribe(func(items []T) {
		used := mapset.NewThreadUnsafeSet[any]()
		nodes := make([]dom.Node, 0, len(items))
		keys := make([]any, 0, len(items))
		var fresh []*scope.Node

		for i, item := range items {
			k := b.key(item, i)
			if used.Contains(k) {
				b.rt.log.Warn().Interface("key", k).Int("index", i).Msg("duplicate list key, item skipped")
				continue
			}
			used.Add(k)
			keys = append(keys, k)

			if e, ok := entries[k]; ok {
				nodes = append(nodes, e.node)
				continue
			}
			e := scope.Within(b.m, func(n *scope.Node) *listEntry {
				node := b.rt.orPlaceholder(b.template(item, i, items), "item")
				n.SetOutput(node)
				return &listEntry{node: node, scope: n}
			})
			// tracked in order right away so a template that panics later
			// in the pass cannot strand it
			entries[k] = e
			order = append(order, k)
			fresh = append(fresh, e.scope)
			nodes = append(nodes, e.node)
		}

		for _, k := range order {
			if used.Contains(k) {
				continue
			}
			if e, ok := entries[k]; ok {
				e.scope.Destroy()
				delete(entries, k)
			}
		}
		order = keys

		if len(nodes) == 0 && b.empty != nil {
			out := scope.Within(b.fallback, func(n *scope.Node) dom.Node {
				out := b.rt.orPlaceholder(b.empty(), EmptyMarker)
				n.SetOutput(out)
				return out
			})
			nodes = append(nodes, out)
			fresh = append(fresh, b.fallback.Current())
		} else {
			b.fallback.Reset()
		}

		b.rt.metrics.rendered("for")
		b.rt.log.Debug().Int("items", len(items)).Int("created", len(fresh)).Int("live", len(entries)).Msg("list rendered")

		emit(nodes)
		for _, n := range fresh {
			if n != nil {
				n.Mount()
			}
		}
	})

	return func() {
		unsub()
		for _, k := range order {
			if e, ok := entries[k]; ok {
				e.scope.Destroy()
			}
		}
		entries = map[any]*listEntry{}
		order = nil
		b.fallback.Reset()
	}
}
