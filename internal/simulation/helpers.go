package simulation

import (
	"math/rand"

	"github.com/nvandessel/cable/internal/skeleton"
)

// root is shorthand for a root node.
func root(id int64, x, y, z, r float64) skeleton.Node {
	return skeleton.Node{ID: id, ParentID: skeleton.NoParent, X: x, Y: y, Z: z, Radius: r}
}

// child is shorthand for a non-root node.
func child(id, parent int64, x, y, z, r float64) skeleton.Node {
	return skeleton.Node{ID: id, ParentID: parent, X: x, Y: y, Z: z, Radius: r}
}

// Linear returns an unbranched chain of n nodes along x with unit spacing
// and unit radius. Node ids run 1..n from the root.
func Linear(n int) []skeleton.Node {
	nodes := make([]skeleton.Node, 0, n)
	for i := 1; i <= n; i++ {
		if i == 1 {
			nodes = append(nodes, root(1, 0, 0, 0, 1))
			continue
		}
		nodes = append(nodes, child(int64(i), int64(i-1), float64(i-1), 0, 0, 1))
	}
	return nodes
}

// YShape returns root(1) -> branch(2) -> {leaf 3, leaf 4} with unit edges.
func YShape() []skeleton.Node {
	return []skeleton.Node{
		root(1, 0, 0, 0, 1),
		child(2, 1, 1, 0, 0, 1),
		child(3, 2, 2, 1, 0, 0.5),
		child(4, 2, 2, -1, 0, 0.5),
	}
}

// RootFork returns a root with two children that each continue for one
// more node: 1 -> {2 -> 3, 4 -> 5}.
func RootFork() []skeleton.Node {
	return []skeleton.Node{
		root(1, 0, 0, 0, 2),
		child(2, 1, 1, 0, 0, 1),
		child(3, 2, 2, 0, 0, 1),
		child(4, 1, -1, 0, 0, 1),
		child(5, 4, -2, 0, 0, 1),
	}
}

// Fragments returns two disconnected trees: a 3-node line rooted at 1 and
// a Y rooted at 10.
func Fragments() []skeleton.Node {
	return []skeleton.Node{
		root(1, 0, 0, 0, 1),
		child(2, 1, 1, 0, 0, 1),
		child(3, 2, 2, 0, 0, 1),
		root(10, 0, 10, 0, 1),
		child(11, 10, 0, 11, 0, 1),
		child(12, 11, 1, 12, 0, 1),
		child(13, 11, -1, 12, 0, 1),
	}
}

// Collapsed returns a 3-node chain whose nodes share one point, so every
// edge weight is zero.
func Collapsed() []skeleton.Node {
	return []skeleton.Node{
		root(1, 5, 5, 5, 1),
		child(2, 1, 5, 5, 5, 1),
		child(3, 2, 5, 5, 5, 1),
	}
}

// RandomTree returns a tree of n nodes where each node attaches to a random
// earlier node, placed one unit away in a random direction. The same seed
// yields the same tree.
func RandomTree(seed int64, n int) []skeleton.Node {
	rng := rand.New(rand.NewSource(seed))
	nodes := make([]skeleton.Node, 0, n)
	nodes = append(nodes, root(1, 0, 0, 0, 0.5+rng.Float64()))
	for i := 2; i <= n; i++ {
		p := nodes[rng.Intn(len(nodes))]
		nodes = append(nodes, child(int64(i), p.ID,
			p.X+rng.NormFloat64(), p.Y+rng.NormFloat64(), p.Z+rng.NormFloat64(),
			0.1+rng.Float64()))
	}
	return nodes
}

// CountChains returns the number of maximal unbranched chains by counting
// the edges that leave a root or a branch point, plus one per childless
// root. It is computed independently of the section builder.
func CountChains(nodes []skeleton.Node) int {
	children := make(map[int64]int)
	for _, n := range nodes {
		if !n.IsRoot() {
			children[n.ParentID]++
		}
	}
	count := 0
	for _, n := range nodes {
		k := children[n.ID]
		switch {
		case n.IsRoot() && k == 0:
			count++
		case n.IsRoot() || k >= 2:
			count += k
		}
	}
	return count
}
