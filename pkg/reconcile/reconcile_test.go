package reconcile_test

import (
	"math/rand"
	"testing"

	"github.com/delaneyj/flowdom/pkg/dom"
	"github.com/delaneyj/flowdom/pkg/dom/memdom"
	"github.com/delaneyj/flowdom/pkg/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	doc    *memdom.Document
	parent *memdom.Element
	nodes  map[string]dom.Node
}

func newFixture(names ...string) *fixture {
	doc := memdom.NewDocument()
	f := &fixture{doc: doc, parent: doc.Element("div"), nodes: map[string]dom.Node{}}
	for _, n := range names {
		f.nodes[n] = doc.CreateText(n)
	}
	return f
}

func (f *fixture) seq(names ...string) []dom.Node {
	out := make([]dom.Node, len(names))
	for i, n := range names {
		node, ok := f.nodes[n]
		if !ok {
			node = f.doc.CreateText(n)
			f.nodes[n] = node
		}
		out[i] = node
	}
	return out
}

func (f *fixture) mount(names ...string) []dom.Node {
	s := f.seq(names...)
	for _, n := range s {
		f.parent.AppendChild(n)
	}
	f.doc.ResetStats()
	return s
}

func (f *fixture) text() string {
	return memdom.TextContent(f.parent)
}

func TestRotateKeepsInstances(t *testing.T) {
	f := newFixture("a", "b", "c")
	old := f.mount("a", "b", "c")
	next := f.seq("c", "a", "b")

	stats := reconcile.Patch(f.parent, old, next)
	assert.Equal(t, "cab", f.text())
	assert.Equal(t, next, f.parent.ChildNodes())
	assert.LessOrEqual(t, stats.Total(), 2)
	assert.Zero(t, f.doc.Stats().Created, "no node recreated")
}

func TestCommonWorkloads(t *testing.T) {
	tests := []struct {
		name     string
		old, new []string
		want     reconcile.Stats
	}{
		{"identity", []string{"a", "b"}, []string{"a", "b"}, reconcile.Stats{}},
		{"append", []string{"a", "b"}, []string{"a", "b", "c"}, reconcile.Stats{Inserts: 1}},
		{"prepend", []string{"a", "b"}, []string{"z", "a", "b"}, reconcile.Stats{Inserts: 1}},
		{"insert middle", []string{"a", "c"}, []string{"a", "b", "c"}, reconcile.Stats{Inserts: 1}},
		{"remove middle", []string{"a", "b", "c"}, []string{"a", "c"}, reconcile.Stats{Removes: 1}},
		{"remove head", []string{"a", "b", "c"}, []string{"b", "c"}, reconcile.Stats{Removes: 1}},
		{"remove tail", []string{"a", "b", "c"}, []string{"a", "b"}, reconcile.Stats{Removes: 1}},
		{"swap", []string{"1", "2", "3"}, []string{"2", "1", "3"}, reconcile.Stats{Replaces: 1, Inserts: 1}},
		{"clear", []string{"a", "b"}, []string{}, reconcile.Stats{Removes: 2}},
		{"full replace", []string{"a", "b"}, []string{"x", "y"}, reconcile.Stats{Inserts: 2, Removes: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(append(tt.old, tt.new...)...)
			old := f.mount(tt.old...)
			next := f.seq(tt.new...)

			stats := reconcile.Patch(f.parent, old, next)
			assert.Equal(t, tt.want, stats)
			if len(next) == 0 {
				assert.Empty(t, f.parent.ChildNodes())
			} else {
				assert.Equal(t, next, f.parent.ChildNodes())
			}
		})
	}
}

func TestEmptyOldAppendsToParent(t *testing.T) {
	f := newFixture("a", "b")
	stats := reconcile.Patch(f.parent, nil, f.seq("a", "b"))
	assert.Equal(t, "ab", f.text())
	assert.Equal(t, 2, stats.Inserts)
}

func TestRunInsideSiblings(t *testing.T) {
	f := newFixture("head", "a", "b", "c", "tail")
	f.mount("head", "a", "b", "c", "tail")
	old := f.seq("a", "b", "c")

	reconcile.Patch(f.parent, old, f.seq("c", "x", "a"))
	assert.Equal(t, "headcxatail", f.text())

	reconcile.Patch(f.parent, f.seq("c", "x", "a"), f.seq("y"))
	assert.Equal(t, "headytail", f.text())
}

func TestRandomPermutations(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	pool := make([]string, 12)
	for i := range pool {
		pool[i] = string(rune('a' + i))
	}

	for iter := 0; iter < 500; iter++ {
		f := newFixture(pool...)

		pick := func() []string {
			perm := r.Perm(len(pool))
			n := r.Intn(len(pool) + 1)
			out := make([]string, n)
			for i := 0; i < n; i++ {
				out[i] = pool[perm[i]]
			}
			return out
		}
		oldNames, newNames := pick(), pick()

		f.parent.AppendChild(f.doc.CreateComment("head"))
		old := f.mount(oldNames...)
		f.parent.AppendChild(f.doc.CreateComment("tail"))
		next := f.seq(newNames...)

		if len(old) == 0 {
			continue
		}
		created := f.doc.Stats().Created
		stats := reconcile.Patch(f.parent, old, next)

		children := f.parent.ChildNodes()
		require.Len(t, children, len(next)+2, "old=%v new=%v", oldNames, newNames)
		assert.Equal(t, dom.KindComment, children[0].Kind())
		assert.Equal(t, dom.KindComment, children[len(children)-1].Kind())
		for k, n := range next {
			assert.Same(t, n, children[k+1], "old=%v new=%v", oldNames, newNames)
		}
		assert.LessOrEqual(t, stats.Total(), len(old)+len(next))
		assert.Equal(t, created, f.doc.Stats().Created)
	}
}
