package simulation

import (
	"math"
	"testing"

	"github.com/nvandessel/cable/internal/model"
	"github.com/nvandessel/cable/internal/sections"
)

// AssertInvariants runs every structural assertion on the result's model.
func AssertInvariants(t *testing.T, result Result) {
	t.Helper()
	AssertCoverage(t, result)
	AssertBounds(t, result)
	AssertParity(t, result)
	AssertAcyclic(t, result)
	AssertSectionCount(t, result, CountChains(result.Skeleton.Nodes()))
}

// AssertCoverage asserts that the location map's key set equals the
// skeleton's node ids.
func AssertCoverage(t *testing.T, result Result) {
	t.Helper()
	locs := result.Model.Locations()
	ids := result.Skeleton.IDs()
	if len(locs) != len(ids) {
		t.Errorf("AssertCoverage: %d locations for %d nodes", len(locs), len(ids))
	}
	for _, id := range ids {
		if _, ok := locs[id]; !ok {
			t.Errorf("AssertCoverage: node %d has no location", id)
		}
	}
}

// AssertBounds asserts that every position lies in [0, 1] and every
// location points at an existing section.
func AssertBounds(t *testing.T, result Result) {
	t.Helper()
	n := len(result.Model.Sections())
	for id, loc := range result.Model.Locations() {
		if math.IsNaN(loc.Pos) || loc.Pos < 0 || loc.Pos > 1 {
			t.Errorf("AssertBounds: node %d at position %v", id, loc.Pos)
		}
		if loc.Section < 0 || loc.Section >= n {
			t.Errorf("AssertBounds: node %d in section %d of %d", id, loc.Section, n)
		}
	}
	for _, g := range result.Model.Sections() {
		if g.ParentPos < 0 || g.ParentPos > 1 {
			t.Errorf("AssertBounds: section %d connects at %v", g.Index, g.ParentPos)
		}
	}
}

// AssertParity asserts that every section has an odd subdivision count.
func AssertParity(t *testing.T, result Result) {
	t.Helper()
	for _, g := range result.Model.Sections() {
		if g.NSeg < 1 || g.NSeg%2 == 0 {
			t.Errorf("AssertParity: section %d has nseg %d", g.Index, g.NSeg)
		}
	}
}

// AssertAcyclic asserts that every parent index is lower than its child's,
// which rules out cycles in the section tree.
func AssertAcyclic(t *testing.T, result Result) {
	t.Helper()
	for _, g := range result.Model.Sections() {
		if g.Parent == sections.NoParent {
			continue
		}
		if g.Parent >= g.Index {
			t.Errorf("AssertAcyclic: section %d has parent %d", g.Index, g.Parent)
		}
	}
}

// AssertSectionCount asserts the number of sections.
func AssertSectionCount(t *testing.T, result Result, want int) {
	t.Helper()
	if got := len(result.Model.Sections()); got != want {
		t.Errorf("AssertSectionCount: %d sections, want %d", got, want)
	}
}

// AssertEngineMirrors asserts that the engine holds one section per model
// section with the same geometry and connectivity.
func AssertEngineMirrors(t *testing.T, result Result) {
	t.Helper()
	if result.Engine == nil {
		t.Fatal("AssertEngineMirrors: result has no in-memory engine")
	}
	for _, g := range result.Model.Sections() {
		h, err := result.Model.Handle(g.Index)
		if err != nil {
			t.Errorf("AssertEngineMirrors: %v", err)
			continue
		}
		sec, ok := result.Engine.Section(h)
		if !ok {
			t.Errorf("AssertEngineMirrors: section %d missing from engine", g.Index)
			continue
		}
		if sec.Name != g.Name || sec.Length != g.Length || sec.Diameter != g.Diameter || sec.NSeg != g.NSeg {
			t.Errorf("AssertEngineMirrors: section %d engine=%s/%v/%v/%d model=%s/%v/%v/%d",
				g.Index, sec.Name, sec.Length, sec.Diameter, sec.NSeg, g.Name, g.Length, g.Diameter, g.NSeg)
		}
		if g.IsRoot() {
			if sec.Parent != -1 {
				t.Errorf("AssertEngineMirrors: root section %d connected to %d", g.Index, sec.Parent)
			}
			continue
		}
		ph, _ := result.Model.Handle(g.Parent)
		if sec.Parent != ph || sec.ParentPos != g.ParentPos {
			t.Errorf("AssertEngineMirrors: section %d connected to %d@%v, want %d@%v",
				g.Index, sec.Parent, sec.ParentPos, ph, g.ParentPos)
		}
	}
}

// AssertTraceLengths asserts that every recorder holds one sample per time
// point.
func AssertTraceLengths(t *testing.T, result Result) {
	t.Helper()
	n := len(result.Model.Time())
	for _, rec := range result.Model.Records() {
		if got := len(rec.Values()); got != n {
			t.Errorf("AssertTraceLengths: recorder %s has %d samples, time has %d", rec.Key(), got, n)
		}
	}
}

// AssertState asserts the model's lifecycle phase.
func AssertState(t *testing.T, result Result, want model.State) {
	t.Helper()
	if got := result.Model.State(); got != want {
		t.Errorf("AssertState: state %s, want %s", got, want)
	}
}
