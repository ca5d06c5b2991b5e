package render_test

import (
	"errors"
	"slices"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delaneyj/flowdom/pkg/dom"
	"github.com/delaneyj/flowdom/pkg/dom/memdom"
	"github.com/delaneyj/flowdom/pkg/promise"
	"github.com/delaneyj/flowdom/pkg/reactive"
	"github.com/delaneyj/flowdom/pkg/render"
	"github.com/delaneyj/flowdom/pkg/scope"
)

func setup(opts ...render.Option) (*render.Runtime, *memdom.Document, *memdom.Element) {
	doc := memdom.NewDocument()
	return render.New(doc, opts...), doc, doc.Element("main")
}

func panicErr(t *testing.T, fn func()) (err error) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, _ = r.(error)
	}()
	fn()
	return nil
}

func TestMountAndDestroy(t *testing.T) {
	rt, _, root := setup()

	mounted, destroyed := 0, 0
	n := render.Mount(rt, root, func() dom.Node {
		rt.OnMount(func() { mounted++ })
		rt.OnDestroy(func() { destroyed++ })
		return render.El(rt, "p").Children("hello ", 42)
	})

	assert.Equal(t, "<main><p>hello 42</p></main>", memdom.HTML(root))
	assert.Equal(t, 1, mounted)
	assert.Same(t, root.ChildNodes()[0], n.Output())

	n.Destroy()
	n.Destroy()
	assert.Equal(t, 1, destroyed)
	assert.Empty(t, root.ChildNodes())
	assert.Zero(t, rt.Scopes.Depth())
}

func TestScopedAPIsOutsideRender(t *testing.T) {
	rt, _, _ := setup()
	err := panicErr(t, func() { rt.OnDestroy(func() {}) })
	assert.ErrorIs(t, err, scope.ErrContextUnavailable)

	err = panicErr(t, func() { rt.Node(3.5) })
	assert.ErrorIs(t, err, render.ErrNotRenderable)
}

func TestElementBindings(t *testing.T) {
	rt, _, root := setup()

	title := reactive.NewWritable("first")
	active := reactive.NewWritable(false)
	name := reactive.NewWritable("ada")
	clicks := 0

	var input, button dom.Element
	n := render.Mount(rt, root, func() dom.Node {
		input = render.El(rt, "input").Bind(name).Element()
		button = render.El(rt, "button").
			Attr("title", title).
			Attr("type", "button").
			Class("active", active).
			On("click", func(dom.Event) { clicks++ }).
			Children(render.Text(rt, name))
		return render.El(rt, "form").Children(input, button)
	})

	assert.Equal(t, `<main><form><input><button title="first" type="button">ada</button></form></main>`, memdom.HTML(root))
	assert.Equal(t, "ada", input.Value())

	title.Set("second")
	active.Set(true)
	name.Set("grace")
	assert.Equal(t, `<button class="active" title="second" type="button">grace</button>`, memdom.HTML(button))
	assert.Equal(t, "grace", input.Value())

	input.(*memdom.Element).Input("linus")
	assert.Equal(t, "linus", name.Get())
	assert.Equal(t, "linus", memdom.TextContent(button))

	btn := button.(*memdom.Element)
	btn.Dispatch("click", nil)
	assert.Equal(t, 1, clicks)

	n.Destroy()
	assert.Zero(t, btn.Listeners("click"))
	assert.Zero(t, name.Subscribers())
	assert.Zero(t, title.Subscribers())

	title.Set("third")
	assert.Equal(t, "second", func() string { v, _ := btn.Attr("title"); return v }())
}

func TestLateChildKeepsPosition(t *testing.T) {
	rt, doc, root := setup()

	var push reactive.Emit[dom.Node]
	late := reactive.New(func(emit reactive.Emit[dom.Node]) reactive.Teardown {
		push = emit
		return nil
	})

	render.Mount(rt, root, func() dom.Node {
		return render.El(rt, "p").Children("a", late, "c")
	})
	assert.Equal(t, "<main><p>a<!--empty list-->c</p></main>", memdom.HTML(root))

	push(doc.CreateText("b"))
	assert.Equal(t, "<main><p>abc</p></main>", memdom.HTML(root))
}

func TestIfBlock(t *testing.T) {
	rt, _, root := setup()
	c := reactive.NewWritable(true)

	aRenders, aDestroyed, bRenders := 0, 0, 0
	n := render.Mount(rt, root, func() dom.Node {
		return render.El(rt, "div").Children(
			render.If(rt, c, func() dom.Node {
				aRenders++
				rt.OnDestroy(func() { aDestroyed++ })
				return render.Text(rt, "A")
			}).Else(func() dom.Node {
				bRenders++
				return render.Text(rt, "B")
			}),
		)
	})
	assert.Equal(t, "A", memdom.TextContent(root))

	c.Set(false)
	assert.Equal(t, "A", memdom.TextContent(root), "conditions settle at the microtask boundary")
	rt.Flush()
	assert.Equal(t, "B", memdom.TextContent(root))
	assert.Equal(t, 1, aDestroyed)

	c.Set(true)
	rt.Flush()
	assert.Equal(t, "A", memdom.TextContent(root))
	assert.Equal(t, 2, aRenders, "a fresh scope renders A again")
	assert.Equal(t, 1, aDestroyed)
	assert.Equal(t, 1, bRenders)

	// the same winner does not re-render
	c.Set(true)
	rt.Flush()
	assert.Equal(t, 2, aRenders)

	n.Destroy()
	assert.Equal(t, 2, aDestroyed)
	assert.Zero(t, c.Subscribers())
}

func TestIfElseIfCoalesces(t *testing.T) {
	rt, _, root := setup()
	a := reactive.NewWritable(false)
	b := reactive.NewWritable(true)

	var seen []string
	branch := func(label string) func() dom.Node {
		return func() dom.Node {
			seen = append(seen, label)
			return render.Text(rt, label)
		}
	}

	render.Mount(rt, root, func() dom.Node {
		return render.El(rt, "div").Children(
			render.If(rt, a, branch("a")).ElseIf(b, branch("b")),
		)
	})
	assert.Equal(t, "b", memdom.TextContent(root))

	a.Set(true)
	b.Set(false)
	rt.Flush()
	assert.Equal(t, []string{"b", "a"}, seen)

	a.Set(false)
	rt.Flush()
	assert.Equal(t, "<main><div><!--if block--></div></main>", memdom.HTML(root))
}

func TestSwitchBlock(t *testing.T) {
	rt, _, root := setup()
	v := reactive.NewWritable(3)

	destroyed := map[int]int{}
	caseView := func(n int) dom.Node {
		rt.OnDestroy(func() { destroyed[n]++ })
		return render.Text(rt, "case "+strconv.Itoa(n))
	}

	render.Mount(rt, root, func() dom.Node {
		return render.El(rt, "div").Children(
			render.Switch[int](rt, v).Case(1, caseView).Case(2, caseView),
		)
	})
	assert.Equal(t, "<main><div><!--switch case missing--></div></main>", memdom.HTML(root))

	v.Set(1)
	assert.Equal(t, "case 1", memdom.TextContent(root))
	v.Set(2)
	assert.Equal(t, "case 2", memdom.TextContent(root))
	assert.Equal(t, 1, destroyed[1])
}

func TestSwitchDefault(t *testing.T) {
	rt, _, root := setup()
	render.Mount(rt, root, func() dom.Node {
		return render.El(rt, "div").Children(
			render.Switch[string](rt, "x").
				Case("a", func(string) dom.Node { return render.Text(rt, "A") }).
				Default(func(v string) dom.Node { return render.Text(rt, "default "+v) }),
		)
	})
	assert.Equal(t, "default x", memdom.TextContent(root))
}

type item struct {
	ID    int
	Label string
}

func TestKeyedListReusesNodes(t *testing.T) {
	rt, _, root := setup()
	list := reactive.NewWritable([]item{{1, "one"}, {2, "two"}, {3, "three"}})

	calls := 0
	scopes := map[int]*scope.Node{}
	var ul dom.Element
	render.Mount(rt, root, func() dom.Node {
		ul = render.El(rt, "ul").Children(
			render.For(rt, list, func(it item, _ int, _ []item) dom.Node {
				calls++
				n, err := rt.Scopes.Current()
				require.NoError(t, err)
				scopes[it.ID] = n
				return render.El(rt, "li").Children(it.Label)
			}).Key(func(it item, _ int) any { return it.ID }),
		)
		return ul
	})
	before := slices.Clone(ul.ChildNodes())
	require.Len(t, before, 3)
	s1, s2 := scopes[1], scopes[2]

	list.Set([]item{{2, "changed"}, {1, "one"}, {3, "three"}})
	after := ul.ChildNodes()
	require.Len(t, after, 3)
	assert.Same(t, before[1], after[0])
	assert.Same(t, before[0], after[1])
	assert.Same(t, before[2], after[2])
	assert.Same(t, s1, scopes[1])
	assert.Same(t, s2, scopes[2])
	assert.Equal(t, 3, calls)
	assert.Equal(t, "twoonethree", memdom.TextContent(ul), "payload changes under a kept key are not reflected")

	list.Set([]item{{3, "three"}, {4, "four"}})
	assert.Equal(t, "threefour", memdom.TextContent(ul))
	assert.True(t, s1.Destroyed())
	assert.True(t, s2.Destroyed())
	assert.False(t, scopes[3].Destroyed())
	assert.Equal(t, 4, calls)

	list.Set(nil)
	assert.Equal(t, "<ul><!--empty list--></ul>", memdom.HTML(ul))
	assert.True(t, scopes[4].Destroyed())
}

func TestListEmptyTemplateAndDuplicates(t *testing.T) {
	rt, _, root := setup()
	list := reactive.NewWritable([]string{})

	render.Mount(rt, root, func() dom.Node {
		return render.El(rt, "ul").Children(
			render.For(rt, list, func(s string, _ int, _ []string) dom.Node {
				return render.El(rt, "li").Children(s)
			}).
				Key(func(s string, _ int) any { return s }).
				Empty(func() dom.Node { return render.Text(rt, "nothing") }),
		)
	})
	assert.Equal(t, "nothing", memdom.TextContent(root))

	list.Set([]string{"a", "b", "a"})
	assert.Equal(t, "<main><ul><li>a</li><li>b</li></ul></main>", memdom.HTML(root))

	list.Set([]string{})
	assert.Equal(t, "nothing", memdom.TextContent(root))
}

func TestIndexKeyReusesShiftedNodes(t *testing.T) {
	rt, _, root := setup()
	list := reactive.NewWritable([]string{"a", "b"})

	render.Mount(rt, root, func() dom.Node {
		return render.El(rt, "ul").Children(
			render.For(rt, list, func(s string, _ int, _ []string) dom.Node {
				return render.Text(rt, s)
			}),
		)
	})

	list.Set([]string{"z", "a", "b"})
	assert.Equal(t, "abb", memdom.TextContent(root), "index keys keep the nodes of the first two positions")
}

func TestPanickingBranchReachesCaller(t *testing.T) {
	rt, _, root := setup()
	c := reactive.NewWritable(false)
	v := reactive.NewWritable("ok")
	boom := errors.New("boom")

	fail := true
	aRenders := 0
	render.Mount(rt, root, func() dom.Node {
		return render.El(rt, "div").Children(
			render.If(rt, c, func() dom.Node {
				aRenders++
				if fail {
					panic(boom)
				}
				return render.Text(rt, "A")
			}).Else(func() dom.Node { return render.Text(rt, "B") }),
			render.Switch[string](rt, v).
				Case("bad", func(string) dom.Node { panic(boom) }).
				Default(func(s string) dom.Node { return render.Text(rt, s) }),
		)
	})
	assert.Equal(t, "Bok", memdom.TextContent(root))

	c.Set(true)
	err := panicErr(t, func() { rt.Flush() })
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, rt.Scopes.Depth())

	// the failed winner is retried, not treated as already rendered
	fail = false
	c.Set(true)
	rt.Flush()
	assert.Equal(t, 2, aRenders)
	assert.Equal(t, "Aok", memdom.TextContent(root))

	err = panicErr(t, func() { v.Set("bad") })
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, rt.Scopes.Depth())
	v.Set("fine")
	assert.Equal(t, "Afine", memdom.TextContent(root))
}

func TestPanickingTemplateDoesNotStrandItems(t *testing.T) {
	rt, _, root := setup()
	list := reactive.NewWritable([]int{1})
	boom := errors.New("boom")

	destroyed := map[int]int{}
	var ul dom.Element
	render.Mount(rt, root, func() dom.Node {
		ul = render.El(rt, "ul").Children(
			render.For(rt, list, func(n int, _ int, _ []int) dom.Node {
				if n == 3 {
					panic(boom)
				}
				rt.OnDestroy(func() { destroyed[n]++ })
				return render.Text(rt, strconv.Itoa(n))
			}).Key(func(n int, _ int) any { return n }),
		)
		return ul
	})

	err := panicErr(t, func() { list.Set([]int{1, 2, 3}) })
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, rt.Scopes.Depth())
	assert.Equal(t, "1", memdom.TextContent(ul), "an aborted pass emits nothing")

	list.Set([]int{1})
	assert.Equal(t, 1, destroyed[2], "an item created by the aborted pass is evicted")
	assert.Zero(t, destroyed[1])

	list.Set([]int{1, 4})
	assert.Equal(t, "14", memdom.TextContent(ul))
}

func TestAwaitNilSourceStaysPending(t *testing.T) {
	rt, _, root := setup()
	render.Mount(rt, root, func() dom.Node {
		return render.El(rt, "div").Children(
			render.Await[int](rt, nil).Pending(func() dom.Node { return render.Text(rt, "waiting") }),
		)
	})
	rt.Flush()
	assert.Equal(t, "waiting", memdom.TextContent(root))
}

func TestAwaitDropsStaleSettlement(t *testing.T) {
	rt, _, root := setup()
	p1, resolve1, _ := promise.New[string](rt.Queue)
	p2, resolve2, _ := promise.New[string](rt.Queue)
	src := reactive.NewWritable(p1)

	pendings, thens := 0, 0
	render.Mount(rt, root, func() dom.Node {
		return render.El(rt, "div").Children(
			render.Await[string](rt, src).
				Pending(func() dom.Node {
					pendings++
					return render.Text(rt, "loading")
				}).
				Then(func(v string) dom.Node {
					thens++
					return render.Text(rt, v)
				}),
		)
	})
	assert.Equal(t, "loading", memdom.TextContent(root))

	src.Set(p2)
	assert.Equal(t, 1, pendings, "already pending")

	resolve1("one")
	rt.Flush()
	assert.Equal(t, "loading", memdom.TextContent(root))
	assert.Zero(t, thens)

	resolve2("two")
	rt.Flush()
	assert.Equal(t, "two", memdom.TextContent(root))
	assert.Equal(t, 1, thens)

	// a new promise after settlement shows the pending view again
	p3, _, reject3 := promise.New[string](rt.Queue)
	src.Set(p3)
	assert.Equal(t, "loading", memdom.TextContent(root))
	assert.Equal(t, 2, pendings)
	reject3(errors.New("boom"))
	rt.Flush()
	assert.Equal(t, "<main><div><!--await--></div></main>", memdom.HTML(root))
}

func TestAwaitCatch(t *testing.T) {
	rt, _, root := setup()
	boom := errors.New("boom")

	var caught error
	render.Mount(rt, root, func() dom.Node {
		return render.El(rt, "div").Children(
			render.Await[int](rt, promise.Rejected[int](rt.Queue, boom)).
				Catch(func(err error) dom.Node {
					caught = err
					return render.Text(rt, "failed: "+err.Error())
				}),
		)
	})
	assert.Equal(t, "<main><div><!--await--></div></main>", memdom.HTML(root))

	rt.Flush()
	assert.ErrorIs(t, caught, boom)
	assert.Equal(t, "failed: boom", memdom.TextContent(root))
}

func TestAwaitDestroyedBeforeSettlement(t *testing.T) {
	rt, _, root := setup()
	p, resolve, _ := promise.New[string](rt.Queue)

	thens := 0
	n := render.Mount(rt, root, func() dom.Node {
		return render.El(rt, "div").Children(
			render.Await[string](rt, p).Then(func(v string) dom.Node {
				thens++
				return render.Text(rt, v)
			}),
		)
	})
	n.Destroy()
	resolve("late")
	rt.Flush()
	assert.Zero(t, thens)
}

func counter(t *testing.T, reg *prometheus.Registry, name, label string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetValue() == label {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	rt, _, root := setup(render.WithMetrics(render.NewMetrics(reg)))
	show := reactive.NewWritable(true)
	list := reactive.NewWritable([]string{"a", "b"})

	n := render.Mount(rt, root, func() dom.Node {
		return render.El(rt, "div").Children(
			render.If(rt, show, func() dom.Node { return render.Text(rt, "shown") }),
			render.For(rt, list, func(s string, _ int, _ []string) dom.Node { return render.Text(rt, s) }).
				Key(func(s string, _ int) any { return s }),
		)
	})
	show.Set(false)
	rt.Flush()
	list.Set([]string{"b", "a", "c"})

	assert.Equal(t, 2.0, counter(t, reg, "flowdom_block_renders_total", "if"))
	assert.Equal(t, 2.0, counter(t, reg, "flowdom_block_renders_total", "for"))
	assert.Positive(t, counter(t, reg, "flowdom_patch_operations_total", "insert"))

	n.Destroy()
	assert.Equal(t,
		counter(t, reg, "flowdom_scopes_total", "created"),
		counter(t, reg, "flowdom_scopes_total", "destroyed"),
	)
}
