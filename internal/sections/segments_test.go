package sections_test

import (
	"testing"

	"github.com/nvandessel/cable/internal/sections"
	"github.com/nvandessel/cable/internal/simulation"
)

func TestSegments(t *testing.T) {
	segs := sections.Segments(mustSkeleton(t, simulation.YShape()))
	want := []struct {
		nodes []int64
		owns  bool
	}{
		{[]int64{1, 2}, true},
		{[]int64{2, 3}, false},
		{[]int64{2, 4}, false},
	}
	if len(segs) != len(want) {
		t.Fatalf("segments = %d, want %d", len(segs), len(want))
	}
	for i, w := range want {
		got := segs[i]
		if len(got.Nodes) != len(w.nodes) || got.OwnsProximal != w.owns {
			t.Errorf("segment %d = %+v, want %v owns=%v", i, got, w.nodes, w.owns)
			continue
		}
		for k := range w.nodes {
			if got.Nodes[k] != w.nodes[k] {
				t.Errorf("segment %d = %v, want %v", i, got.Nodes, w.nodes)
				break
			}
		}
	}
	if segs[0].Proximal() != 1 || segs[0].Distal() != 2 {
		t.Errorf("Proximal/Distal = %d/%d, want 1/2", segs[0].Proximal(), segs[0].Distal())
	}
}

func TestSegments_RootForkOwnedOnce(t *testing.T) {
	segs := sections.Segments(mustSkeleton(t, simulation.RootFork()))
	if len(segs) != 2 {
		t.Fatalf("segments = %d, want 2", len(segs))
	}
	for i, want := range []bool{true, false} {
		if segs[i].Proximal() != 1 {
			t.Errorf("segment %d starts at %d, want root 1", i, segs[i].Proximal())
		}
		if segs[i].OwnsProximal != want {
			t.Errorf("segment %d OwnsProximal = %v, want %v", i, segs[i].OwnsProximal, want)
		}
	}
}

func TestSegments_EveryEdgeOnce(t *testing.T) {
	nodes := simulation.RandomTree(11, 200)
	segs := sections.Segments(mustSkeleton(t, nodes))

	type edge struct{ parent, child int64 }
	seen := make(map[edge]int)
	for _, seg := range segs {
		for k := 1; k < len(seg.Nodes); k++ {
			seen[edge{seg.Nodes[k-1], seg.Nodes[k]}]++
		}
	}
	for _, n := range nodes {
		if n.IsRoot() {
			continue
		}
		if c := seen[edge{n.ParentID, n.ID}]; c != 1 {
			t.Errorf("edge %d->%d covered %d times", n.ParentID, n.ID, c)
		}
	}
	if len(segs) != simulation.CountChains(nodes) {
		t.Errorf("segments = %d, want %d", len(segs), simulation.CountChains(nodes))
	}
}
