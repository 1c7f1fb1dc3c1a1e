package model_test

import (
	"errors"
	"testing"

	"github.com/nvandessel/cable/internal/model"
	"github.com/nvandessel/cable/internal/simulation"
	"github.com/nvandessel/cable/internal/solver"
)

func TestInsertMechanism_AllSections(t *testing.T) {
	m, eng := newModel(t, simulation.YShape())

	if err := m.InsertMechanism(solver.Passive{G: 0.001, E: -65}, nil); err != nil {
		t.Fatalf("InsertMechanism() error = %v", err)
	}
	for _, g := range m.Sections() {
		h, _ := m.Handle(g.Index)
		sec, _ := eng.Section(h)
		segs := sec.Mechanisms["pas"]
		if len(segs) != g.NSeg {
			t.Errorf("section %d: pas on %d subdivisions, want %d", g.Index, len(segs), g.NSeg)
		}
		for _, seg := range segs {
			if seg["g"] != 0.001 || seg["e"] != -65 {
				t.Errorf("section %d: pas = %v", g.Index, seg)
			}
		}
	}

	// Removing a mechanism no section has is a no-op.
	if err := m.RemoveMechanism("hh", nil); err != nil {
		t.Errorf("RemoveMechanism(hh) error = %v", err)
	}
	if err := m.RemoveMechanism("pas", nil); err != nil {
		t.Fatalf("RemoveMechanism(pas) error = %v", err)
	}
	if has, _ := m.HasMechanism(0, "pas"); has {
		t.Error("pas still present after removal")
	}
}

func TestInsertMechanism_Subset(t *testing.T) {
	m, _ := newModel(t, simulation.YShape())

	if err := m.InsertMechanism(solver.DefaultHH(), []int{1}); err != nil {
		t.Fatalf("InsertMechanism() error = %v", err)
	}
	for i, want := range []bool{false, true, false} {
		if has, _ := m.HasMechanism(i, "hh"); has != want {
			t.Errorf("section %d has hh = %v, want %v", i, has, want)
		}
	}

	// Sections without hh are skipped.
	if err := m.RemoveMechanism("hh", []int{0, 1, 2}); err != nil {
		t.Errorf("RemoveMechanism() error = %v", err)
	}
	if has, _ := m.HasMechanism(1, "hh"); has {
		t.Error("hh still on section 1")
	}
}

func TestInsertMechanism_Errors(t *testing.T) {
	m, _ := newModel(t, simulation.YShape())

	if err := m.InsertMechanism(solver.Passive{G: 1}, []int{0, 3}); !errors.Is(err, model.ErrSectionIndex) {
		t.Errorf("index 3 error = %v, want ErrSectionIndex", err)
	}
	if has, _ := m.HasMechanism(0, "pas"); has {
		t.Error("section 0 mutated by a call that failed on a later index")
	}
	if err := m.RemoveMechanism("pas", []int{-1}); !errors.Is(err, model.ErrSectionIndex) {
		t.Errorf("index -1 error = %v, want ErrSectionIndex", err)
	}

	bad := solver.Generic{MechName: "pas", Values: map[string]float64{"gbar": 1}}
	if err := m.InsertMechanism(bad, nil); !errors.Is(err, solver.ErrUnknownParameter) {
		t.Errorf("unknown parameter error = %v, want ErrUnknownParameter", err)
	}
	if _, err := m.HasMechanism(9, "pas"); !errors.Is(err, model.ErrSectionIndex) {
		t.Errorf("HasMechanism(9) error = %v, want ErrSectionIndex", err)
	}
	if err := m.InsertMechanism(nil, nil); !errors.Is(err, solver.ErrUnknownMechanism) {
		t.Errorf("nil mechanism error = %v, want ErrUnknownMechanism", err)
	}
}

func TestApplyProjectionNeuron(t *testing.T) {
	m, eng := newModel(t, simulation.YShape())

	if err := model.ApplyProjectionNeuron(m, true); err != nil {
		t.Fatalf("ApplyProjectionNeuron() error = %v", err)
	}
	if m.Ra() != model.ProjectionNeuronRa || m.Cm() != model.ProjectionNeuronCm {
		t.Errorf("Ra, Cm = %v, %v", m.Ra(), m.Cm())
	}
	h, _ := m.Handle(2)
	sec, _ := eng.Section(h)
	if sec.Mechanisms["pas"][0]["e"] != -60 {
		t.Errorf("pas = %v", sec.Mechanisms["pas"])
	}
	if _, ok := sec.Mechanisms["hh"]; !ok {
		t.Error("active preset should insert hh")
	}
}
