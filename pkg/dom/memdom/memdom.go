// Package memdom is an in-memory render target. It implements the dom
// interfaces with plain slices, counts every structural operation so tests
// and benchmarks can assert on patch cost, and serialises trees to HTML.
package memdom

import (
	"errors"
	"fmt"
	"slices"

	"github.com/delaneyj/flowdom/pkg/dom"
)

var (
	ErrNotChild    = errors.New("memdom: node is not a child of this element")
	ErrForeignNode = errors.New("memdom: node was not created by memdom")
)

// Stats counts structural operations performed on a document's nodes.
type Stats struct {
	Created  int
	Appends  int
	Inserts  int
	Removes  int
	Replaces int
}

// Structural is the number of operations that changed the tree shape.
func (s Stats) Structural() int {
	return s.Appends + s.Inserts + s.Removes + s.Replaces
}

// Document creates memdom nodes and accumulates their Stats.
type Document struct {
	stats Stats
}

func NewDocument() *Document {
	return &Document{}
}

func (d *Document) Stats() Stats {
	return d.stats
}

func (d *Document) ResetStats() {
	d.stats = Stats{}
}

func (d *Document) CreateElement(tag string) dom.Element {
	return d.Element(tag)
}

// Element is CreateElement returning the concrete type.
func (d *Document) Element(tag string) *Element {
	d.stats.Created++
	return &Element{base: base{doc: d}, tag: tag}
}

func (d *Document) CreateText(data string) dom.Text {
	d.stats.Created++
	return &Text{base: base{doc: d}, data: data}
}

func (d *Document) CreateComment(marker string) dom.Comment {
	d.stats.Created++
	return &Comment{base: base{doc: d}, data: marker}
}

type node interface {
	dom.Node
	self() *base
}

type base struct {
	doc    *Document
	parent *Element
}

func (b *base) self() *base {
	return b
}

func (b *base) ParentNode() dom.Container {
	if b.parent == nil {
		return nil
	}
	return b.parent
}

func asNode(n dom.Node) node {
	mn, ok := n.(node)
	if !ok {
		panic(fmt.Errorf("%w: %T", ErrForeignNode, n))
	}
	return mn
}

func nextSibling(b *base, n dom.Node) dom.Node {
	if b.parent == nil {
		return nil
	}
	i := b.parent.indexOf(n)
	if i < 0 || i+1 >= len(b.parent.children) {
		return nil
	}
	return b.parent.children[i+1]
}

type Text struct {
	base
	data string
}

func (t *Text) Kind() dom.Kind { return dom.KindText }
func (t *Text) NextSibling() dom.Node { return nextSibling(&t.base, t) }
func (t *Text) Data() string { return t.data }
func (t *Text) SetData(s string) { t.data = s }

type Comment struct {
	base
	data string
}

func (c *Comment) Kind() dom.Kind { return dom.KindComment }
func (c *Comment) NextSibling() dom.Node { return nextSibling(&c.base, c) }
func (c *Comment) Data() string { return c.data }

type listener struct {
	id dom.ListenerID
	fn dom.Listener
}

type Element struct {
	base
	tag      string
	children []dom.Node

	attrs     map[string]string
	attrOrder []string
	classes   []string

	listeners    map[string][]listener
	nextListener dom.ListenerID

	value string
}

func (e *Element) Kind() dom.Kind { return dom.KindElement }
func (e *Element) NextSibling() dom.Node { return nextSibling(&e.base, e) }
func (e *Element) Tag() string { return e.tag }

func (e *Element) ChildNodes() []dom.Node {
	return slices.Clone(e.children)
}

func (e *Element) indexOf(n dom.Node) int {
	for i, c := range e.children {
		if c == n {
			return i
		}
	}
	return -1
}

// detach removes n from its current parent without counting an operation.
func detach(n node) {
	b := n.self()
	if b.parent == nil {
		return
	}
	p := b.parent
	if i := p.indexOf(n); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	b.parent = nil
}

func (e *Element) AppendChild(child dom.Node) {
	c := asNode(child)
	detach(c)
	e.children = append(e.children, child)
	c.self().parent = e
	e.doc.stats.Appends++
}

func (e *Element) InsertBefore(child, anchor dom.Node) {
	if anchor == nil {
		e.AppendChild(child)
		return
	}
	if child == anchor {
		return
	}
	c := asNode(child)
	detach(c)
	i := e.indexOf(anchor)
	if i < 0 {
		panic(fmt.Errorf("insert before: %w", ErrNotChild))
	}
	e.children = slices.Insert(e.children, i, child)
	c.self().parent = e
	e.doc.stats.Inserts++
}

func (e *Element) RemoveChild(child dom.Node) {
	i := e.indexOf(child)
	if i < 0 {
		panic(fmt.Errorf("remove: %w", ErrNotChild))
	}
	e.children = slices.Delete(e.children, i, i+1)
	asNode(child).self().parent = nil
	e.doc.stats.Removes++
}

func (e *Element) ReplaceChild(child, old dom.Node) {
	if child == old {
		return
	}
	c := asNode(child)
	detach(c)
	i := e.indexOf(old)
	if i < 0 {
		panic(fmt.Errorf("replace: %w", ErrNotChild))
	}
	e.children[i] = child
	c.self().parent = e
	asNode(old).self().parent = nil
	e.doc.stats.Replaces++
}

func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

func (e *Element) SetAttr(name, value string) {
	if e.attrs == nil {
		e.attrs = map[string]string{}
	}
	if _, ok := e.attrs[name]; !ok {
		e.attrOrder = append(e.attrOrder, name)
	}
	e.attrs[name] = value
}

func (e *Element) RemoveAttr(name string) {
	if _, ok := e.attrs[name]; !ok {
		return
	}
	delete(e.attrs, name)
	if i := slices.Index(e.attrOrder, name); i >= 0 {
		e.attrOrder = slices.Delete(e.attrOrder, i, i+1)
	}
}

func (e *Element) HasClass(token string) bool {
	return slices.Contains(e.classes, token)
}

func (e *Element) AddClass(token string) {
	if !e.HasClass(token) {
		e.classes = append(e.classes, token)
	}
}

func (e *Element) RemoveClass(token string) {
	if i := slices.Index(e.classes, token); i >= 0 {
		e.classes = slices.Delete(e.classes, i, i+1)
	}
}

// Classes returns the class tokens in insertion order.
func (e *Element) Classes() []string {
	return slices.Clone(e.classes)
}

func (e *Element) AddEventListener(event string, l dom.Listener) dom.ListenerID {
	if e.listeners == nil {
		e.listeners = map[string][]listener{}
	}
	e.nextListener++
	e.listeners[event] = append(e.listeners[event], listener{id: e.nextListener, fn: l})
	return e.nextListener
}

func (e *Element) RemoveEventListener(event string, id dom.ListenerID) {
	ls := e.listeners[event]
	for i, l := range ls {
		if l.id == id {
			e.listeners[event] = slices.Delete(ls, i, i+1)
			return
		}
	}
}

// Listeners is the number of listeners registered for event.
func (e *Element) Listeners(event string) int {
	return len(e.listeners[event])
}

// Dispatch calls the listeners of event in registration order.
func (e *Element) Dispatch(event string, data any) {
	ls := slices.Clone(e.listeners[event])
	ev := dom.Event{Type: event, Target: e, Data: data}
	for _, l := range ls {
		l.fn(ev)
	}
}

func (e *Element) Value() string { return e.value }
func (e *Element) SetValue(v string) { e.value = v }

// Input simulates a user edit: the value changes, then "input" fires.
func (e *Element) Input(v string) {
	e.value = v
	e.Dispatch("input", v)
}
