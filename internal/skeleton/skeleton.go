// Package skeleton defines the rooted tree of 3D nodes that a compartment
// model is built from, together with its structural validation and an SWC
// reader.
package skeleton

import (
	"fmt"
	"math"
)

// NoParent is the parent id of a root node.
const NoParent int64 = -1

// Node is a single skeleton point. Radius must be positive for a skeleton to
// validate.
type Node struct {
	ID       int64   `json:"id"`
	ParentID int64   `json:"parent_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Radius   float64 `json:"radius"`
	Type     int     `json:"type,omitempty"` // SWC structure identifier, informational
}

// IsRoot returns true if the node has no parent.
func (n Node) IsRoot() bool {
	return n.ParentID < 0
}

// Skeleton is an immutable set of nodes forming one or more rooted trees.
// Nodes keep their load order, which fixes the order of roots and children.
type Skeleton struct {
	nodes    []Node
	index    map[int64]int
	children map[int64][]int64
	roots    []int64
	units    string
}

// New creates a skeleton from nodes. The slice is copied. Duplicate ids are
// rejected; every other structural check is left to Validate.
func New(nodes []Node, units string) (*Skeleton, error) {
	s := &Skeleton{
		nodes:    make([]Node, len(nodes)),
		index:    make(map[int64]int, len(nodes)),
		children: make(map[int64][]int64),
		units:    units,
	}
	copy(s.nodes, nodes)

	for i, n := range s.nodes {
		if _, dup := s.index[n.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate node id %d", ErrMalformed, n.ID)
		}
		s.index[n.ID] = i
	}

	for _, n := range s.nodes {
		if n.IsRoot() {
			s.roots = append(s.roots, n.ID)
			continue
		}
		s.children[n.ParentID] = append(s.children[n.ParentID], n.ID)
	}

	return s, nil
}

// Units returns the unit tag the skeleton was loaded with.
func (s *Skeleton) Units() string {
	return s.units
}

// Len returns the number of nodes.
func (s *Skeleton) Len() int {
	return len(s.nodes)
}

// Nodes returns a copy of all nodes in load order.
func (s *Skeleton) Nodes() []Node {
	out := make([]Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// IDs returns all node ids in load order.
func (s *Skeleton) IDs() []int64 {
	ids := make([]int64, len(s.nodes))
	for i, n := range s.nodes {
		ids[i] = n.ID
	}
	return ids
}

// Node returns the node with the given id.
func (s *Skeleton) Node(id int64) (Node, bool) {
	i, ok := s.index[id]
	if !ok {
		return Node{}, false
	}
	return s.nodes[i], true
}

// Has returns true if a node with the given id exists.
func (s *Skeleton) Has(id int64) bool {
	_, ok := s.index[id]
	return ok
}

// Roots returns the ids of all parentless nodes in load order.
func (s *Skeleton) Roots() []int64 {
	out := make([]int64, len(s.roots))
	copy(out, s.roots)
	return out
}

// IsRoot returns true if id names a root node.
func (s *Skeleton) IsRoot(id int64) bool {
	n, ok := s.Node(id)
	return ok && n.IsRoot()
}

// Children returns the ids of the direct children of id in load order.
func (s *Skeleton) Children(id int64) []int64 {
	c := s.children[id]
	out := make([]int64, len(c))
	copy(out, c)
	return out
}

// NumChildren returns the number of direct children of id.
func (s *Skeleton) NumChildren(id int64) int {
	return len(s.children[id])
}

// Parent returns the parent id of id and whether id has one.
func (s *Skeleton) Parent(id int64) (int64, bool) {
	n, ok := s.Node(id)
	if !ok || n.IsRoot() {
		return NoParent, false
	}
	return n.ParentID, true
}

// EdgeWeight returns the Euclidean distance between two nodes. It returns 0
// if either node is unknown.
func (s *Skeleton) EdgeWeight(a, b int64) float64 {
	na, ok := s.Node(a)
	if !ok {
		return 0
	}
	nb, ok := s.Node(b)
	if !ok {
		return 0
	}
	dx, dy, dz := na.X-nb.X, na.Y-nb.Y, na.Z-nb.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Copy returns a deep copy that shares no memory with s.
func (s *Skeleton) Copy() *Skeleton {
	c, err := New(s.nodes, s.units)
	if err != nil {
		// s was built by New, so its ids are already unique.
		panic(fmt.Sprintf("skeleton: copy of valid skeleton failed: %v", err))
	}
	return c
}
