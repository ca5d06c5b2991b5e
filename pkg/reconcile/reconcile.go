// Package reconcile patches one ordered run of sibling nodes into another,
// reusing every node the two runs share.
package reconcile

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/delaneyj/flowdom/pkg/dom"
)

// Stats counts the structural operations a Patch performed.
type Stats struct {
	Inserts  int
	Removes  int
	Replaces int
}

func (s Stats) Total() int {
	return s.Inserts + s.Removes + s.Replaces
}

func (s *Stats) Add(o Stats) {
	s.Inserts += o.Inserts
	s.Removes += o.Removes
	s.Replaces += o.Replaces
}

// Patch turns the live run old, a contiguous sequence of parent's children,
// into next. Both runs are scanned from the tail inward:
//
//   - the same node under both cursors is kept as is
//   - a new node the old run doesn't hold is inserted in front of the last
//     placed node
//   - an old node the new run doesn't hold is removed
//   - otherwise both nodes exist on the other side but in different places,
//     and the old node is replaced by the new one; the old node will be
//     inserted again when the new cursor reaches it
//
// Only when old is empty does the position of the run need parent: new
// nodes are then appended to it.
func Patch(parent dom.Container, old, next []dom.Node) Stats {
	var stats Stats

	oldLeft := mapset.NewThreadUnsafeSet[dom.Node](old...)
	newLeft := mapset.NewThreadUnsafeSet[dom.Node](next...)

	// placed is the document-order successor of the next node to place
	var placed dom.Node
	place := func(n, cursor dom.Node) {
		switch {
		case placed != nil:
			placed.ParentNode().InsertBefore(n, placed)
		case cursor != nil:
			dom.InsertAfter(cursor, n)
		default:
			parent.AppendChild(n)
		}
		stats.Inserts++
	}

	i, j := len(old)-1, len(next)-1
	for i >= 0 || j >= 0 {
		// old nodes already moved into place are no longer part of the run
		if i >= 0 && !oldLeft.Contains(old[i]) {
			i--
			continue
		}

		switch {
		case j < 0:
			o := old[i]
			if !newLeft.Contains(o) {
				dom.Remove(o)
				stats.Removes++
			}
			oldLeft.Remove(o)
			i--

		case i < 0:
			n := next[j]
			place(n, nil)
			newLeft.Remove(n)
			placed = n
			j--

		case old[i] == next[j]:
			n := next[j]
			oldLeft.Remove(n)
			newLeft.Remove(n)
			placed = n
			i--
			j--

		case !oldLeft.Contains(next[j]):
			n := next[j]
			place(n, old[i])
			newLeft.Remove(n)
			placed = n
			j--

		case !newLeft.Contains(old[i]):
			o := old[i]
			dom.Remove(o)
			stats.Removes++
			oldLeft.Remove(o)
			i--

		default:
			o, n := old[i], next[j]
			o.ParentNode().ReplaceChild(n, o)
			stats.Replaces++
			oldLeft.Remove(n)
			oldLeft.Remove(o)
			newLeft.Remove(n)
			placed = n
			i--
			j--
		}
	}

	return stats
}
