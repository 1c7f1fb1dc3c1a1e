package model

import (
	"fmt"

	"github.com/nvandessel/cable/internal/solver"
)

// AddSynapticInput drives one Exp2Syn synapse per target node from a single
// shared spike generator. Each synapse is appended to the node's synapse
// list; the connector and the generator are appended to its stimulus list.
func (m *Model) AddSynapticInput(where []int64, spikes solver.NetStim, syn solver.Exp2Syn, conn solver.NetCon) error {
	for _, p := range []solver.PointParams{spikes, syn, conn} {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%s: %w", p.Kind(), err)
		}
	}
	targets, err := m.targets(where)
	if err != nil {
		return err
	}

	gen, err := m.engine.NewSpikeGenerator(spikes)
	if err != nil {
		return fmt.Errorf("creating spike generator: %w", err)
	}
	for _, t := range targets {
		synID, err := m.engine.NewPointProcess(t.site, syn)
		if err != nil {
			return fmt.Errorf("node %d: %w", t.node, err)
		}
		connID, err := m.engine.NewConnector(gen, synID, conn)
		if err != nil {
			return fmt.Errorf("node %d: %w", t.node, err)
		}
		m.synapses.Append(t.node, Probe{Node: t.node, Kind: solver.KindExp2Syn, Point: synID, Location: t.loc})
		m.stimuli.Append(t.node,
			Probe{Node: t.node, Kind: solver.KindNetCon, Point: connID},
			Probe{Node: t.node, Kind: solver.KindNetStim, Point: gen},
		)
	}

	m.instrumented("synaptic input", len(targets))
	return nil
}

// InjectCurrentPulse adds a current clamp to every target node.
func (m *Model) InjectCurrentPulse(where []int64, start, duration, current float64) error {
	return m.AddStimulus(where, solver.IClamp{Delay: start, Dur: duration, Amp: current})
}

// AddSynapticCurrent adds an alpha-function synaptic conductance to every
// target node.
func (m *Model) AddSynapticCurrent(where []int64, start, tau, reversal, gmax float64) error {
	return m.AddStimulus(where, solver.AlphaSynapse{Onset: start, Tau: tau, E: reversal, GMax: gmax})
}

// AddStimulus places one located point process per target node and appends
// it to the node's stimulus list.
func (m *Model) AddStimulus(where []int64, p solver.PointParams) error {
	switch p.Kind() {
	case solver.KindNetStim, solver.KindNetCon:
		return fmt.Errorf("%w: %s is not a located point process", solver.ErrInvalidParameter, p.Kind())
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%s: %w", p.Kind(), err)
	}
	targets, err := m.targets(where)
	if err != nil {
		return err
	}

	for _, t := range targets {
		id, err := m.engine.NewPointProcess(t.site, p)
		if err != nil {
			return fmt.Errorf("node %d: %w", t.node, err)
		}
		m.stimuli.Append(t.node, Probe{Node: t.node, Kind: p.Kind(), Point: id, Location: t.loc})
	}

	m.instrumented(string(p.Kind()), len(targets))
	return nil
}

// AddVoltageRecord records membrane potential at every target node.
func (m *Model) AddVoltageRecord(where []int64, label string) error {
	return m.AddRecord(where, "v", label)
}

// AddCurrentRecord records membrane current at every target node.
func (m *Model) AddCurrentRecord(where []int64, label string) error {
	return m.AddRecord(where, "i", label)
}

// AddRecord records variable at every target node. A leading "_ref_" on
// variable is ignored.
//
// With a label, each recorder is stored under that label and replaces
// whatever was there, so of several targets only the last one stays
// reachable. Without a label, recorders are appended under their node id and
// nothing is replaced.
func (m *Model) AddRecord(where []int64, variable, label string) error {
	name := solver.NormalizeVariable(variable)
	if !solver.IsVariable(name) {
		return &VariableError{Name: variable}
	}
	targets, err := m.targets(where)
	if err != nil {
		return err
	}

	for _, t := range targets {
		trace, err := m.engine.Record(t.site, name)
		if err != nil {
			return fmt.Errorf("node %d: %w", t.node, err)
		}
		rec := Recorder{Node: t.node, Label: label, Variable: name, Location: t.loc, Trace: trace}
		if label == "" {
			m.byNode.Append(t.node, rec)
			continue
		}
		if m.labeled.Put(label, rec) {
			m.logger.Debug("record replaced", "label", label, "node", t.node)
		}
	}

	m.instrumented("record "+name, len(targets))
	return nil
}

func (m *Model) instrumented(what string, n int) {
	m.state = Instrumented
	m.logger.Debug("instrumentation added", "kind", what, "targets", n)
}

// Stimuli returns a snapshot of the stimulus lists by node.
func (m *Model) Stimuli() map[int64][]Probe {
	return m.stimuli.Snapshot()
}

// Synapses returns a snapshot of the synapse lists by node.
func (m *Model) Synapses() map[int64][]Probe {
	return m.synapses.Snapshot()
}

// Records returns every recorder: labeled ones first in label order of
// first use, then node-keyed ones in node order of first use.
func (m *Model) Records() []Recorder {
	var out []Recorder
	for _, label := range m.labeled.Labels() {
		rec, _ := m.labeled.Get(label)
		out = append(out, rec)
	}
	for _, id := range m.byNode.Keys() {
		out = append(out, m.byNode.Get(id)...)
	}
	return out
}

// Record returns the recorder stored under label.
func (m *Model) Record(label string) (Recorder, bool) {
	return m.labeled.Get(label)
}

// NodeRecords returns the unlabeled recorders of a node.
func (m *Model) NodeRecords(id int64) []Recorder {
	return m.byNode.Get(id)
}

// Labels returns record labels in order of first use.
func (m *Model) Labels() []string {
	return m.labeled.Labels()
}

// ClearRecords forgets every recorder.
func (m *Model) ClearRecords() {
	m.labeled.Reset()
	m.byNode.Reset()
}

// ClearStimuli forgets every stimulus.
func (m *Model) ClearStimuli() {
	m.stimuli.Reset()
}

// ClearSynapses forgets every synapse.
func (m *Model) ClearSynapses() {
	m.synapses.Reset()
}
