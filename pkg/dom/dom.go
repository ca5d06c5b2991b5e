// Package dom is the boundary between the reactive core and whatever holds
// the rendered output. The core only ever talks to these interfaces; a
// browser bridge, a terminal renderer or the in-memory memdom package can
// sit behind them.
package dom

// Kind is the kind of an output node.
type Kind uint8

const (
	KindElement Kind = iota + 1
	KindText
	KindComment
)

func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindText:
		return "text"
	case KindComment:
		return "comment"
	default:
		return "unknown"
	}
}

// Node is any output node. Implementations compare nodes by identity, so
// they must be pointer types.
type Node interface {
	Kind() Kind
	ParentNode() Container
	NextSibling() Node
}

// Container holds an ordered list of child nodes. Inserting a node that
// already has a parent moves it.
type Container interface {
	ChildNodes() []Node
	AppendChild(child Node)
	// InsertBefore inserts child before anchor, or appends when anchor is nil.
	InsertBefore(child, anchor Node)
	RemoveChild(child Node)
	// ReplaceChild puts child where old is and detaches old.
	ReplaceChild(child, old Node)
}

// Listener receives events dispatched on an element.
type Listener func(ev Event)

// ListenerID identifies a registered listener for removal.
type ListenerID uint64

// Event is a dispatched event.
type Event struct {
	Type   string
	Target Element
	Data   any
}

// Element is an element node.
type Element interface {
	Node
	Container

	Tag() string

	Attr(name string) (string, bool)
	SetAttr(name, value string)
	RemoveAttr(name string)

	HasClass(token string) bool
	AddClass(token string)
	RemoveClass(token string)

	AddEventListener(event string, l Listener) ListenerID
	RemoveEventListener(event string, id ListenerID)

	// Value and SetValue are the bindable value used for two way binding.
	Value() string
	SetValue(v string)
}

// Text is a text node.
type Text interface {
	Node
	Data() string
	SetData(s string)
}

// Comment is a comment node, used as a placeholder.
type Comment interface {
	Node
	Data() string
}

// Document creates output nodes. It is the render target factory.
type Document interface {
	CreateElement(tag string) Element
	CreateText(data string) Text
	CreateComment(marker string) Comment
}

// Remove detaches n from its parent, if it has one.
func Remove(n Node) {
	if p := n.ParentNode(); p != nil {
		p.RemoveChild(n)
	}
}

// InsertAfter inserts n right after ref in ref's parent.
func InsertAfter(ref, n Node) {
	p := ref.ParentNode()
	if p == nil {
		return
	}
	p.InsertBefore(n, ref.NextSibling())
}
