package solver

import (
	"errors"
	"math"
	"testing"
)

func TestMemoryEngine_SectionLifecycle(t *testing.T) {
	e := NewMemoryEngine(0.1)

	root := e.CreateSection("segment_0")
	child := e.CreateSection("segment_1")

	if err := e.SetGeometry(root, 10, 2, 5); err != nil {
		t.Fatalf("SetGeometry() error = %v", err)
	}
	if err := e.SetBiophysics(root, 100, 0.8); err != nil {
		t.Fatalf("SetBiophysics() error = %v", err)
	}
	if err := e.Connect(child, root, 1); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	sec, ok := e.Section(root)
	if !ok {
		t.Fatal("root section missing")
	}
	if sec.Length != 10 || sec.Diameter != 2 || sec.NSeg != 5 {
		t.Errorf("geometry = %v/%v/%d, want 10/2/5", sec.Length, sec.Diameter, sec.NSeg)
	}
	ra, cm, err := e.Biophysics(root)
	if err != nil || ra != 100 || cm != 0.8 {
		t.Errorf("Biophysics() = %v, %v, %v; want 100, 0.8, nil", ra, cm, err)
	}

	csec, _ := e.Section(child)
	if csec.Parent != root || csec.ParentPos != 1 {
		t.Errorf("child parent = %d@%v, want %d@1", csec.Parent, csec.ParentPos, root)
	}
	if e.Sections() != 2 {
		t.Errorf("Sections() = %d, want 2", e.Sections())
	}
}

func TestMemoryEngine_Errors(t *testing.T) {
	e := NewMemoryEngine(0)
	s := e.CreateSection("a")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unknown section geometry", e.SetGeometry(99, 1, 1, 1), ErrUnknownSection},
		{"zero nseg", e.SetGeometry(s, 1, 1, 0), ErrInvalidParameter},
		{"negative Ra", e.SetBiophysics(s, -1, 1), ErrInvalidParameter},
		{"self connect", e.Connect(s, s, 0.5), ErrInvalidParameter},
		{"position out of range", e.Connect(s, e.CreateSection("b"), 1.5), ErrInvalidParameter},
		{"remove absent mechanism", e.RemoveMechanism(s, "hh"), ErrUnknownMechanism},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("error = %v, want %v", tt.err, tt.want)
			}
		})
	}
}

func TestMemoryEngine_DefaultDt(t *testing.T) {
	if dt := NewMemoryEngine(-1).Dt(); dt != 0.025 {
		t.Errorf("Dt() = %v, want 0.025", dt)
	}
}

func TestMemoryEngine_MechanismPerSubdivision(t *testing.T) {
	e := NewMemoryEngine(0)
	s := e.CreateSection("a")
	if err := e.SetGeometry(s, 5, 1, 3); err != nil {
		t.Fatalf("SetGeometry() error = %v", err)
	}

	if err := e.InsertMechanism(s, Passive{G: 1e-4, E: -65}); err != nil {
		t.Fatalf("InsertMechanism() error = %v", err)
	}
	if !e.HasMechanism(s, "pas") {
		t.Fatal("expected pas to be present")
	}

	sec, _ := e.Section(s)
	segs := sec.Mechanisms["pas"]
	if len(segs) != 3 {
		t.Fatalf("pas applied to %d subdivisions, want 3", len(segs))
	}
	for i, seg := range segs {
		if seg["g"] != 1e-4 || seg["e"] != -65 {
			t.Errorf("subdivision %d = %v", i, seg)
		}
	}

	// Growing nseg carries parameters into new subdivisions.
	if err := e.SetGeometry(s, 5, 1, 5); err != nil {
		t.Fatalf("SetGeometry() error = %v", err)
	}
	sec, _ = e.Section(s)
	if got := sec.Mechanisms["pas"]; len(got) != 5 || got[4]["g"] != 1e-4 {
		t.Errorf("after resize pas = %v", got)
	}

	if err := e.RemoveMechanism(s, "pas"); err != nil {
		t.Fatalf("RemoveMechanism() error = %v", err)
	}
	if e.HasMechanism(s, "pas") {
		t.Error("pas should be gone")
	}
}

func TestMemoryEngine_PointProcesses(t *testing.T) {
	e := NewMemoryEngine(0)
	s := e.CreateSection("a")

	clamp, err := e.NewPointProcess(Site{Section: s, Pos: 0.5}, IClamp{Delay: 5, Dur: 1, Amp: 0.1})
	if err != nil {
		t.Fatalf("NewPointProcess() error = %v", err)
	}
	p, ok := e.Point(clamp)
	if !ok || p.Kind != KindIClamp || p.Site == nil || p.Site.Pos != 0.5 {
		t.Errorf("Point(clamp) = %+v", p)
	}

	gen, err := e.NewSpikeGenerator(DefaultNetStim())
	if err != nil {
		t.Fatalf("NewSpikeGenerator() error = %v", err)
	}
	syn, err := e.NewPointProcess(Site{Section: s, Pos: 1}, DefaultExp2Syn())
	if err != nil {
		t.Fatalf("NewPointProcess(Exp2Syn) error = %v", err)
	}
	conn, err := e.NewConnector(gen, syn, DefaultNetCon())
	if err != nil {
		t.Fatalf("NewConnector() error = %v", err)
	}
	cp, _ := e.Point(conn)
	if cp.Source != gen || cp.Target != syn {
		t.Errorf("connector links %d->%d, want %d->%d", cp.Source, cp.Target, gen, syn)
	}

	if _, err := e.NewConnector(gen, 999, DefaultNetCon()); !errors.Is(err, ErrUnknownPoint) {
		t.Errorf("NewConnector(unknown) error = %v, want ErrUnknownPoint", err)
	}
	if _, err := e.NewPointProcess(Site{Section: 42}, IClamp{}); !errors.Is(err, ErrUnknownSection) {
		t.Errorf("NewPointProcess(unknown section) error = %v, want ErrUnknownSection", err)
	}
	if _, err := e.NewPointProcess(Site{Section: s}, IClamp{Dur: -1}); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("NewPointProcess(bad params) error = %v, want ErrInvalidParameter", err)
	}
	if e.Points() != 4 {
		t.Errorf("Points() = %d, want 4", e.Points())
	}
}

func TestMemoryEngine_RunSamples(t *testing.T) {
	e := NewMemoryEngine(0.5)
	s := e.CreateSection("a")

	v, err := e.Record(Site{Section: s, Pos: 0.5}, "_ref_v")
	if err != nil {
		t.Fatalf("Record(v) error = %v", err)
	}
	i, err := e.Record(Site{Section: s, Pos: 0.5}, "i")
	if err != nil {
		t.Fatalf("Record(i) error = %v", err)
	}
	if v.Len() != 0 {
		t.Errorf("trace has %d samples before any run", v.Len())
	}

	e.Init(-70)
	e.Advance(5)

	times := e.Time().Values()
	if len(times) != 11 {
		t.Fatalf("time trace has %d samples, want 11", len(times))
	}
	if times[0] != 0 || math.Abs(times[10]-5) > 1e-12 {
		t.Errorf("time spans %v..%v, want 0..5", times[0], times[10])
	}
	if v.Len() != 11 || i.Len() != 11 {
		t.Errorf("recorder lengths = %d, %d; want 11", v.Len(), i.Len())
	}
	if last, _ := v.Last(); last != -70 {
		t.Errorf("v = %v, want -70", last)
	}
	if last, _ := i.Last(); last != 0 {
		t.Errorf("i = %v, want 0", last)
	}

	// Reinitializing resets everything.
	e.Init(-60)
	if e.Time().Len() != 1 || v.Len() != 1 {
		t.Errorf("after Init lengths = %d, %d; want 1, 1", e.Time().Len(), v.Len())
	}

	if _, err := e.Record(Site{Section: s}, "bogus"); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Record(bogus) error = %v, want ErrInvalidParameter", err)
	}
}

func TestMemoryEngine_AdvanceIgnoresUnreachableTargets(t *testing.T) {
	e := NewMemoryEngine(1)
	e.Init(-65)
	e.Advance(3)

	for _, tstop := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -10, 2} {
		e.Advance(tstop)
		if n := e.Time().Len(); n != 4 {
			t.Errorf("Advance(%v) left %d samples, want 4", tstop, n)
		}
	}
}

func TestMemoryEngine_Release(t *testing.T) {
	e := NewMemoryEngine(0)
	free := e.CreateSection("free")
	held := e.CreateSection("held")
	child := e.CreateSection("child")
	if err := e.Connect(child, free, 1); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if _, err := e.NewPointProcess(Site{Section: held, Pos: 0.5}, IClamp{Dur: 1}); err != nil {
		t.Fatalf("NewPointProcess() error = %v", err)
	}

	if !e.Release(free) {
		t.Error("Release(free) = false, want true")
	}
	if e.Release(held) {
		t.Error("Release(held) = true, want false while a point process sits on it")
	}
	if csec, _ := e.Section(child); csec.Parent != -1 {
		t.Errorf("child still connected to released parent %d", csec.Parent)
	}
	if !e.Release(free) {
		t.Error("releasing an already released section should report true")
	}
	if e.Sections() != 2 {
		t.Errorf("Sections() = %d, want 2", e.Sections())
	}
}
