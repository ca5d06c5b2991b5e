package memdom

import (
	"bytes"
	"io"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/delaneyj/flowdom/pkg/dom"
	"github.com/valyala/quicktemplate"
)

// WriteHTML serialises nodes to w. Text and attribute values are escaped.
func WriteHTML(w io.Writer, nodes ...dom.Node) {
	qw := quicktemplate.AcquireWriter(w)
	defer quicktemplate.ReleaseWriter(qw)
	for _, n := range nodes {
		streamNode(qw, n)
	}
}

// HTML returns nodes serialised as a string.
func HTML(nodes ...dom.Node) string {
	var buf bytes.Buffer
	WriteHTML(&buf, nodes...)
	return buf.String()
}

// InnerHTML serialises the children of c.
func InnerHTML(c dom.Container) string {
	return HTML(c.ChildNodes()...)
}

// Fingerprint hashes the serialised form of nodes. Two trees with the same
// fingerprint render the same HTML.
func Fingerprint(nodes ...dom.Node) uint64 {
	d := xxhash.New()
	WriteHTML(d, nodes...)
	return d.Sum64()
}

// TextContent concatenates the text nodes under n.
func TextContent(n dom.Node) string {
	var sb strings.Builder
	textContent(&sb, n)
	return sb.String()
}

func textContent(sb *strings.Builder, n dom.Node) {
	switch n := n.(type) {
	case dom.Text:
		sb.WriteString(n.Data())
	case dom.Container:
		for _, c := range n.ChildNodes() {
			textContent(sb, c)
		}
	}
}

func streamNode(qw *quicktemplate.Writer, n dom.Node) {
	switch n := n.(type) {
	case dom.Text:
		qw.E().S(n.Data())
	case dom.Comment:
		qw.N().S("<!--")
		qw.E().S(n.Data())
		qw.N().S("-->")
	case *Element:
		streamElement(qw, n)
	case dom.Element:
		qw.N().S("<")
		qw.N().S(n.Tag())
		qw.N().S(">")
		for _, c := range n.ChildNodes() {
			streamNode(qw, c)
		}
		streamClose(qw, n.Tag())
	}
}

func streamElement(qw *quicktemplate.Writer, e *Element) {
	qw.N().S("<")
	qw.N().S(e.tag)
	if len(e.classes) > 0 {
		streamAttr(qw, "class", strings.Join(e.classes, " "))
	}
	for _, name := range e.attrOrder {
		if name == "class" && len(e.classes) > 0 {
			continue
		}
		streamAttr(qw, name, e.attrs[name])
	}
	qw.N().S(">")
	for _, c := range e.children {
		streamNode(qw, c)
	}
	streamClose(qw, e.tag)
}

func streamAttr(qw *quicktemplate.Writer, name, value string) {
	qw.N().S(" ")
	qw.N().S(name)
	qw.N().S(`="`)
	qw.E().S(value)
	qw.N().S(`"`)
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

func streamClose(qw *quicktemplate.Writer, tag string) {
	if voidElements[tag] {
		return
	}
	qw.N().S("</")
	qw.N().S(tag)
	qw.N().S(">")
}
