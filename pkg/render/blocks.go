package render

import (
	"github.com/delaneyj/flowdom/pkg/dom"
	"github.com/delaneyj/flowdom/pkg/reactive"
	"github.com/delaneyj/flowdom/pkg/scope"
)

// Placeholder markers for blocks that have nothing to show.
const (
	IfMarker          = "if block"
	MissingCaseMarker = "switch case missing"
	AwaitMarker       = "await"
)

// renderSingle runs fn in a fresh child scope of m's captured scope, after
// destroying the previous one, emits the result and then mounts the scope.
func (rt *Runtime) renderSingle(emit reactive.Emit[dom.Node], m *scope.SingleManager, block string, fn func() dom.Node) {
	out := scope.Within(m, func(n *scope.Node) dom.Node {
		out := rt.orPlaceholder(fn(), block)
		n.SetOutput(out)
		return out
	})
	n := m.Current()
	rt.metrics.rendered(block)
	if n != nil {
		rt.log.Debug().Str("block", block).Uint64("scope", n.ID()).Msg("rendered")
	}

	emit(out)
	if n != nil {
		n.Mount()
	}
}

type branch struct {
	cond   reactive.Cell[bool]
	render func() dom.Node
}

// IfBlock renders the first branch whose condition holds. Branches must be
// added before the block is first subscribed.
type IfBlock struct {
	*reactive.Reactive[dom.Node]

	rt        *Runtime
	m         *scope.SingleManager
	branches  []branch
	otherwise func() dom.Node
}

// If starts a conditional block. cond is a bool or a Cell[bool].
func If(rt *Runtime, cond any, then func() dom.Node) *IfBlock {
	b := &IfBlock{
		rt:       rt,
		m:        scope.Single(rt.Scopes),
		branches: []branch{{cond: reactive.Lift[bool](cond), render: then}},
	}
	b.otherwise = func() dom.Node { return rt.Doc.CreateComment(IfMarker) }
	b.Reactive = reactive.New(b.activate)
	return b
}

func (b *IfBlock) ElseIf(cond any, then func() dom.Node) *IfBlock {
	b.branches = append(b.branches, branch{cond: reactive.Lift[bool](cond), render: then})
	return b
}

func (b *IfBlock) Else(fn func() dom.Node) *IfBlock {
	b.otherwise = fn
	return b
}

func (b *IfBlock) activate(emit reactive.Emit[dom.Node]) reactive.Teardown {
	conds := make([]reactive.Cell[bool], len(b.branches))
	for i, br := range b.branches {
		conds[i] = br.cond
	}

	// the winning index is compared, not the raw condition values
	winner := -2
	unsub := reactive.Combine(b.rt.Queue, conds...).Subscribe(func(vals []bool) {
		idx := -1
		for i, v := range vals {
			if v {
				idx = i
				break
			}
		}
		if idx == winner {
			return
		}

		render := b.otherwise
		if idx >= 0 {
			render = b.branches[idx].render
		}
		// a branch that panics leaves winner untouched so the next
		// emission retries it
		winner = -2
		b.rt.renderSingle(emit, b.m, "if", render)
		winner = idx
	})

	return func() {
		unsub()
		b.m.Reset()
	}
}

// SwitchBlock renders the case registered for the current value.
type SwitchBlock[T comparable] struct {
	*reactive.Reactive[dom.Node]

	rt       *Runtime
	value    reactive.Cell[T]
	m        *scope.SingleManager
	cases    map[T]func(T) dom.Node
	fallback func(T) dom.Node
}

// Switch starts a switch block over a T or a Cell[T].
func Switch[T comparable](rt *Runtime, value any) *SwitchBlock[T] {
	b := &SwitchBlock[T]{
		rt:    rt,
		value: reactive.Lift[T](value),
		m:     scope.Single(rt.Scopes),
		cases: map[T]func(T) dom.Node{},
	}
	b.Reactive = reactive.New(b.activate)
	return b
}

func (b *SwitchBlock[T]) Case(v T, fn func(T) dom.Node) *SwitchBlock[T] {
	b.cases[v] = fn
	return b
}

func (b *SwitchBlock[T]) Default(fn func(T) dom.Node) *SwitchBlock[T] {
	b.fallback = fn
	return b
}

func (b *SwitchBlock[T]) activate(emit reactive.Emit[dom.Node]) reactive.Teardown {
	unsub := b.value.Subscribe(func(v T) {
		tmpl, ok := b.cases[v]
		if !ok {
			tmpl = b.fallback
		}
		if tmpl == nil {
			b.rt.log.Warn().Interface("value", v).Msg("switch has no case and no default")
			tmpl = func(T) dom.Node { return b.rt.Doc.CreateComment(MissingCaseMarker) }
		}
		b.rt.renderSingle(emit, b.m, "switch", func() dom.Node { return tmpl(v) })
	})

	return func() {
		unsub()
		b.m.Reset()
	}
}
