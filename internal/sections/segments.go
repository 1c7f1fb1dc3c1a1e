// Package sections partitions a skeleton into maximal unbranched chains and
// derives one compartment geometry per chain, together with the location of
// every skeleton node inside those compartments.
package sections

import "github.com/nvandessel/cable/internal/skeleton"

// Segment is a maximal unbranched chain of skeleton nodes, stored
// parent->child. Nodes[0] is the proximal node: a root or a branch point.
type Segment struct {
	Nodes []int64

	// OwnsProximal is true when the proximal node is mapped into this
	// segment. Only the first segment leaving a root owns it; a branch point
	// already belongs to the segment that ends at it.
	OwnsProximal bool
}

// Proximal returns the first node of the segment.
func (s Segment) Proximal() int64 {
	return s.Nodes[0]
}

// Distal returns the last node of the segment: a leaf or a branch point.
func (s Segment) Distal() int64 {
	return s.Nodes[len(s.Nodes)-1]
}

// Segments decomposes the skeleton into maximal unbranched chains. The order
// is deterministic: roots in load order, then depth-first with children in
// load order, so every segment comes after the segment owning its proximal
// node. Nodes unreachable from a root are not visited.
//
// A root with several children starts one segment per child. Only the first
// owns the root; Build hangs the others off that first segment at position 0
// instead of leaving them unconnected, so each root yields one connected tree
// and the root keeps a single location.
func Segments(s *skeleton.Skeleton) []Segment {
	type start struct {
		proximal int64
		first    int64
		owns     bool
	}

	var segs []Segment
	for _, root := range s.Roots() {
		kids := s.Children(root)
		if len(kids) == 0 {
			segs = append(segs, Segment{Nodes: []int64{root}, OwnsProximal: true})
			continue
		}

		stack := make([]start, 0, len(kids))
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, start{proximal: root, first: kids[i], owns: i == 0})
		}

		for len(stack) > 0 {
			st := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			chain := []int64{st.proximal, st.first}
			cur := st.first
			for s.NumChildren(cur) == 1 {
				cur = s.Children(cur)[0]
				chain = append(chain, cur)
			}
			segs = append(segs, Segment{Nodes: chain, OwnsProximal: st.owns})

			next := s.Children(cur)
			for i := len(next) - 1; i >= 0; i-- {
				stack = append(stack, start{proximal: cur, first: next[i]})
			}
		}
	}
	return segs
}
