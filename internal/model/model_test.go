package model_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/nvandessel/cable/internal/model"
	"github.com/nvandessel/cable/internal/sections"
	"github.com/nvandessel/cable/internal/simulation"
	"github.com/nvandessel/cable/internal/skeleton"
	"github.com/nvandessel/cable/internal/solver"
)

func newModel(t *testing.T, nodes []skeleton.Node) (*model.Model, *solver.MemoryEngine) {
	t.Helper()
	s, err := skeleton.New(nodes, "um")
	if err != nil {
		t.Fatalf("skeleton.New() error = %v", err)
	}
	eng := solver.NewMemoryEngine(0)
	m, err := model.New(s, solver.NewContext(eng), model.DefaultConfig())
	if err != nil {
		t.Fatalf("model.New() error = %v", err)
	}
	return m, eng
}

func TestNew_LinearScenario(t *testing.T) {
	m, eng := newModel(t, simulation.Linear(3))

	secs := m.Sections()
	if len(secs) != 1 {
		t.Fatalf("sections = %d, want 1", len(secs))
	}
	g := secs[0]
	if g.Length != 2 || g.Diameter != 2 || g.NSeg != 3 {
		t.Errorf("geometry = L%v d%v nseg%d, want L2 d2 nseg3", g.Length, g.Diameter, g.NSeg)
	}
	if g.Name != "segment_0" {
		t.Errorf("name = %q, want segment_0", g.Name)
	}

	want := map[int64]float64{1: 0, 2: 0.5, 3: 1}
	for id, pos := range want {
		loc, err := m.Locate(id)
		if err != nil {
			t.Fatalf("Locate(%d) error = %v", id, err)
		}
		if loc.Section != 0 || math.Abs(loc.Pos-pos) > 1e-12 {
			t.Errorf("Locate(%d) = %+v, want section 0 pos %v", id, loc, pos)
		}
	}

	if eng.Sections() != 1 {
		t.Errorf("engine sections = %d, want 1", eng.Sections())
	}
	if m.State() != model.Built {
		t.Errorf("State() = %s, want built", m.State())
	}
	if m.Ra() != 35.4 || m.Cm() != 1 {
		t.Errorf("Ra, Cm = %v, %v; want defaults", m.Ra(), m.Cm())
	}
}

func TestNew_YShapeScenario(t *testing.T) {
	m, eng := newModel(t, simulation.YShape())

	secs := m.Sections()
	if len(secs) != 3 {
		t.Fatalf("sections = %d, want 3", len(secs))
	}
	for _, g := range secs[1:] {
		if g.Parent != 0 || g.ParentPos != 1 {
			t.Errorf("section %d connects to %d@%v, want 0@1", g.Index, g.Parent, g.ParentPos)
		}
		h, _ := m.Handle(g.Index)
		ph, _ := m.Handle(0)
		sec, _ := eng.Section(h)
		if sec.Parent != ph || sec.ParentPos != 1 {
			t.Errorf("engine section %d connects to %d@%v", g.Index, sec.Parent, sec.ParentPos)
		}
	}

	branch, _ := m.Locate(2)
	if branch.Section != 0 || branch.Pos != 1 {
		t.Errorf("branch point at %+v, want section 0 pos 1", branch)
	}
}

func TestNew_CopiesSkeleton(t *testing.T) {
	nodes := simulation.Linear(3)
	s, _ := skeleton.New(nodes, "um")
	m, err := model.New(s, solver.NewContext(solver.NewMemoryEngine(0)), model.DefaultConfig())
	if err != nil {
		t.Fatalf("model.New() error = %v", err)
	}

	nodes[2].X = 100
	if m.Skeleton().Len() != 3 {
		t.Error("model skeleton changed size")
	}
	n, _ := m.Skeleton().Node(3)
	if n.X != 2 {
		t.Errorf("model skeleton node 3 at x=%v, want 2", n.X)
	}
}

func TestNew_Errors(t *testing.T) {
	ctx := solver.NewContext(solver.NewMemoryEngine(0))
	bad, _ := skeleton.New([]skeleton.Node{
		{ID: 1, ParentID: -1, Radius: 1},
		{ID: 2, ParentID: 1, X: 1, Radius: 0},
	}, "um")
	good, _ := skeleton.New(simulation.Linear(2), "um")

	tests := []struct {
		name string
		s    *skeleton.Skeleton
		cfg  model.Config
		want error
	}{
		{"zero radius", bad, model.DefaultConfig(), skeleton.ErrInvalidRadius},
		{"zero resolution", good, model.Config{}, sections.ErrResolution},
		{"negative Ra", good, model.Config{Resolution: 1, Ra: -1}, solver.ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := model.New(tt.s, ctx, tt.cfg); !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := model.New(nil, ctx, model.DefaultConfig()); err == nil {
		t.Error("New(nil skeleton) should fail")
	}
	if _, err := model.New(good, nil, model.DefaultConfig()); err == nil {
		t.Error("New(nil context) should fail")
	}
}

// flakyEngine fails the n-th call to SetGeometry or Connect.
type flakyEngine struct {
	*solver.MemoryEngine
	failGeometryAt, failConnectAt int
	geometryCalls, connectCalls   int
}

var errEngine = errors.New("engine refused")

func (e *flakyEngine) SetGeometry(id solver.SectionID, length, diameter float64, nseg int) error {
	e.geometryCalls++
	if e.geometryCalls == e.failGeometryAt {
		return errEngine
	}
	return e.MemoryEngine.SetGeometry(id, length, diameter, nseg)
}

func (e *flakyEngine) Connect(child, parent solver.SectionID, pos float64) error {
	e.connectCalls++
	if e.connectCalls == e.failConnectAt {
		return errEngine
	}
	return e.MemoryEngine.Connect(child, parent, pos)
}

func TestNew_FailedBuildReleasesSections(t *testing.T) {
	tests := []struct {
		name string
		eng  *flakyEngine
	}{
		{"geometry of second section", &flakyEngine{failGeometryAt: 2}},
		{"second connection", &flakyEngine{failConnectAt: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.eng.MemoryEngine = solver.NewMemoryEngine(0)
			s, err := skeleton.New(simulation.YShape(), "um")
			if err != nil {
				t.Fatalf("skeleton.New() error = %v", err)
			}
			ctx := solver.NewContext(tt.eng)

			if _, err := model.New(s, ctx, model.DefaultConfig()); !errors.Is(err, errEngine) {
				t.Fatalf("model.New() error = %v, want %v", err, errEngine)
			}
			if n := tt.eng.Sections(); n != 0 {
				t.Errorf("engine holds %d sections after a failed build, want 0", n)
			}
			if ctx.Models() != 0 {
				t.Errorf("context has %d models attached, want 0", ctx.Models())
			}
		})
	}
}

func TestNew_Warnings(t *testing.T) {
	s, _ := skeleton.New(simulation.Fragments(), "nm")
	m, err := model.New(s, solver.NewContext(solver.NewMemoryEngine(0)), model.DefaultConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	kinds := map[skeleton.WarningKind]bool{}
	for _, w := range m.Warnings() {
		kinds[w.Kind] = true
	}
	if !kinds[skeleton.WarnUnits] || !kinds[skeleton.WarnMultipleRoots] {
		t.Errorf("warnings = %+v, want units and multiple-roots", m.Warnings())
	}
	if len(m.Sections()) != 4 {
		t.Errorf("sections = %d, want 4", len(m.Sections()))
	}
}

func TestResolve(t *testing.T) {
	m, _ := newModel(t, simulation.YShape())

	locs, err := m.Resolve(4, 1, 3)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if locs[0].Section != 2 || locs[1].Section != 0 || locs[2].Section != 1 {
		t.Errorf("Resolve() = %+v", locs)
	}

	_, err = m.Resolve(1, 99, 3, 100)
	var lookup *model.LookupError
	if !errors.As(err, &lookup) {
		t.Fatalf("Resolve() error = %v, want *LookupError", err)
	}
	if len(lookup.IDs) != 2 || lookup.IDs[0] != 99 || lookup.IDs[1] != 100 {
		t.Errorf("LookupError.IDs = %v, want [99 100]", lookup.IDs)
	}
	if !errors.Is(err, model.ErrUnknownNode) {
		t.Error("LookupError should wrap ErrUnknownNode")
	}
}

func TestBiophysics(t *testing.T) {
	m, eng := newModel(t, simulation.YShape())

	if err := m.SetRa(266.1); err != nil {
		t.Fatalf("SetRa() error = %v", err)
	}
	if err := m.SetCm(0.8); err != nil {
		t.Fatalf("SetCm() error = %v", err)
	}
	for i := range m.Sections() {
		h, _ := m.Handle(i)
		ra, cm, _ := eng.Biophysics(h)
		if ra != 266.1 || cm != 0.8 {
			t.Errorf("section %d Ra, Cm = %v, %v", i, ra, cm)
		}
	}

	if err := m.SetRa(0); !errors.Is(err, solver.ErrInvalidParameter) {
		t.Errorf("SetRa(0) error = %v", err)
	}
	if m.Ra() != 266.1 {
		t.Errorf("Ra() = %v after rejected set", m.Ra())
	}
}

func TestString(t *testing.T) {
	m, _ := newModel(t, simulation.YShape())
	_ = m.AddVoltageRecord([]int64{1}, "soma")
	_ = m.InjectCurrentPulse([]int64{3, 4}, 1, 1, 0.1)

	got := m.String()
	want := "CompartmentModel<sections=3;stimuli=2;synapses=0;records=1>"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if !strings.HasPrefix(model.ReleaseNotice{Requested: 3, Confirmed: 1}.String(), "released 1 of 3") {
		t.Error("partial ReleaseNotice should say how many were released")
	}
}
