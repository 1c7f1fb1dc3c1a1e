package skeleton

import (
	"math"
	"testing"
)

// chain returns root(1) -> 2 -> ... -> n with unit spacing along x.
func chain(n int) []Node {
	nodes := make([]Node, n)
	for i := range nodes {
		nodes[i] = Node{ID: int64(i + 1), ParentID: int64(i), X: float64(i), Radius: 1}
	}
	nodes[0].ParentID = NoParent
	return nodes
}

func TestNew_Adjacency(t *testing.T) {
	s, err := New([]Node{
		{ID: 10, ParentID: NoParent, Radius: 1},
		{ID: 20, ParentID: 10, X: 3, Y: 4, Radius: 1},
		{ID: 30, ParentID: 10, Z: 2, Radius: 1},
		{ID: 40, ParentID: 20, Radius: 1},
	}, "um")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if s.Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Len())
	}
	if roots := s.Roots(); len(roots) != 1 || roots[0] != 10 {
		t.Errorf("Roots() = %v, want [10]", roots)
	}
	if got := s.Children(10); len(got) != 2 || got[0] != 20 || got[1] != 30 {
		t.Errorf("Children(10) = %v, want [20 30]", got)
	}
	if s.NumChildren(40) != 0 {
		t.Errorf("NumChildren(40) = %d, want 0", s.NumChildren(40))
	}
	if p, ok := s.Parent(40); !ok || p != 20 {
		t.Errorf("Parent(40) = %d, %v; want 20, true", p, ok)
	}
	if _, ok := s.Parent(10); ok {
		t.Error("Parent(root) should report no parent")
	}
	if w := s.EdgeWeight(20, 10); w != 5 {
		t.Errorf("EdgeWeight(20, 10) = %v, want 5", w)
	}
	if w := s.EdgeWeight(99, 10); w != 0 {
		t.Errorf("EdgeWeight(unknown) = %v, want 0", w)
	}
	if s.Units() != "um" {
		t.Errorf("Units() = %q, want um", s.Units())
	}
}

func TestNew_DuplicateID(t *testing.T) {
	_, err := New([]Node{
		{ID: 1, ParentID: NoParent, Radius: 1},
		{ID: 1, ParentID: NoParent, Radius: 1},
	}, "")
	if err == nil {
		t.Fatal("expected error for duplicate ids")
	}
}

func TestCopy_Independent(t *testing.T) {
	nodes := chain(3)
	s, err := New(nodes, "um")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Mutating the caller's slice must not leak into the skeleton.
	nodes[1].Radius = 99
	if n, _ := s.Node(2); n.Radius != 1 {
		t.Errorf("skeleton shares memory with input slice: radius = %v", n.Radius)
	}

	c := s.Copy()
	got := c.Nodes()
	got[0].Radius = 42
	if n, _ := c.Node(1); n.Radius != 1 {
		t.Errorf("Nodes() exposes internal storage: radius = %v", n.Radius)
	}
	if c.Len() != s.Len() || c.Units() != s.Units() {
		t.Errorf("Copy() = %d nodes %q, want %d nodes %q", c.Len(), c.Units(), s.Len(), s.Units())
	}
}

func TestEdgeWeight_Euclidean(t *testing.T) {
	s, _ := New([]Node{
		{ID: 1, ParentID: NoParent, Radius: 1},
		{ID: 2, ParentID: 1, X: 1, Y: 1, Z: 1, Radius: 1},
	}, "")
	if w := s.EdgeWeight(2, 1); math.Abs(w-math.Sqrt(3)) > 1e-12 {
		t.Errorf("EdgeWeight = %v, want sqrt(3)", w)
	}
}
