// Package model builds a multi-compartment model from a skeleton on top of a
// solver engine. It resolves skeleton nodes to section locations, keeps the
// registries of attached stimuli, synapses and recorders, and drives runs
// through a shared solver.Context.
package model

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"github.com/nvandessel/cable/internal/constants"
	"github.com/nvandessel/cable/internal/logging"
	"github.com/nvandessel/cable/internal/sections"
	"github.com/nvandessel/cable/internal/skeleton"
	"github.com/nvandessel/cable/internal/solver"
)

// State is the lifecycle phase of a model.
type State int

const (
	Unbuilt State = iota
	Built
	Instrumented
	Simulated
	Cleared
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Unbuilt:
		return "unbuilt"
	case Built:
		return "built"
	case Instrumented:
		return "instrumented"
	case Simulated:
		return "simulated"
	case Cleared:
		return "cleared"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config holds the construction parameters of a model.
type Config struct {
	// Resolution is the approximate subdivision length [um]. Must be > 0.
	Resolution float64

	// Ra is the axial resistance [Ohm*cm] set on every section.
	// Zero selects constants.DefaultRa.
	Ra float64

	// Cm is the membrane capacitance [uF/cm^2] set on every section.
	// Zero selects constants.DefaultCm.
	Cm float64

	// Logger receives validation warnings and build summaries. May be nil.
	Logger *slog.Logger

	// Journal receives build, run and clear events. May be nil.
	Journal *logging.RunJournal
}

// DefaultConfig returns a Config with default resolution and biophysics.
func DefaultConfig() Config {
	return Config{
		Resolution: constants.DefaultResolution,
		Ra:         constants.DefaultRa,
		Cm:         constants.DefaultCm,
	}
}

// ReleaseNotice reports the outcome of Clear. The engine may keep sections
// alive after the model drops them, so Confirmed can be lower than
// Requested. A shortfall is not an error.
type ReleaseNotice struct {
	Requested int
	Confirmed int
}

// Complete reports whether the engine confirmed every release.
func (n ReleaseNotice) Complete() bool {
	return n.Confirmed == n.Requested
}

// String implements fmt.Stringer.
func (n ReleaseNotice) String() string {
	if n.Complete() {
		return fmt.Sprintf("released %d sections", n.Confirmed)
	}
	return fmt.Sprintf("released %d of %d sections; the engine still holds %d",
		n.Confirmed, n.Requested, n.Requested-n.Confirmed)
}

// Model is a compartment model built from one skeleton. It is not safe for
// concurrent use, and neither is running another model on the same Context.
type Model struct {
	id       string
	skel     *skeleton.Skeleton
	cfg      Config
	ctx      *solver.Context
	engine   solver.Engine
	logger   *slog.Logger
	warnings []skeleton.Warning

	layout  sections.Layout
	handles []solver.SectionID // arena: index i holds section i
	ra, cm  float64
	state   State

	stimuli  *NodeList[Probe]
	synapses *NodeList[Probe]
	labeled  *Labeled[Recorder]
	byNode   *NodeList[Recorder]
}

// New validates a copy of s, builds its sections on the context's engine
// and attaches the model to ctx. Later changes to s do not affect the model.
func New(s *skeleton.Skeleton, ctx *solver.Context, cfg Config) (*Model, error) {
	if s == nil {
		return nil, errors.New("model: nil skeleton")
	}
	if ctx == nil {
		return nil, errors.New("model: nil solver context")
	}
	if cfg.Ra == 0 {
		cfg.Ra = constants.DefaultRa
	}
	if cfg.Cm == 0 {
		cfg.Cm = constants.DefaultCm
	}
	if err := checkBiophysics("Ra", cfg.Ra); err != nil {
		return nil, err
	}
	if err := checkBiophysics("Cm", cfg.Cm); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	m := &Model{
		id:       id,
		skel:     s.Copy(),
		cfg:      cfg,
		ctx:      ctx,
		engine:   ctx.Engine(),
		logger:   logging.OrDiscard(cfg.Logger).With("model", id),
		ra:       cfg.Ra,
		cm:       cfg.Cm,
		state:    Unbuilt,
		stimuli:  NewNodeList[Probe](),
		synapses: NewNodeList[Probe](),
		labeled:  NewLabeled[Recorder](),
		byNode:   NewNodeList[Recorder](),
	}

	warnings, err := skeleton.Validate(m.skel, m.logger)
	if err != nil {
		return nil, fmt.Errorf("validating skeleton: %w", err)
	}
	m.warnings = warnings

	if err := m.build(); err != nil {
		return nil, err
	}
	return m, nil
}

// build derives the layout and creates one engine section per geometry.
func (m *Model) build() error {
	layout, err := sections.Build(m.skel, m.cfg.Resolution, m.logger)
	if err != nil {
		return fmt.Errorf("building sections: %w", err)
	}

	handles := make([]solver.SectionID, 0, len(layout.Sections))
	// fail releases the sections created so far.
	fail := func(err error) error {
		for i := len(handles) - 1; i >= 0; i-- {
			m.engine.Release(handles[i])
		}
		return err
	}

	for _, g := range layout.Sections {
		id := m.engine.CreateSection(g.Name)
		handles = append(handles, id)
		if err := m.engine.SetGeometry(id, g.Length, g.Diameter, g.NSeg); err != nil {
			return fail(fmt.Errorf("section %s: %w", g.Name, err))
		}
		if err := m.engine.SetBiophysics(id, m.ra, m.cm); err != nil {
			return fail(fmt.Errorf("section %s: %w", g.Name, err))
		}
	}
	for _, g := range layout.Sections {
		if g.IsRoot() {
			continue
		}
		if err := m.engine.Connect(handles[g.Index], handles[g.Parent], g.ParentPos); err != nil {
			return fail(fmt.Errorf("connecting %s: %w", g.Name, err))
		}
	}

	m.layout = layout
	m.handles = handles
	m.state = Built
	m.ctx.Attach()

	m.logger.Info("model built",
		"nodes", m.skel.Len(),
		"sections", len(layout.Sections),
		"fragments", len(layout.RootSections()),
		"warnings", len(m.warnings))
	m.cfg.Journal.Event("build",
		"model", m.id,
		"nodes", m.skel.Len(),
		"sections", len(layout.Sections),
		"resolution", m.cfg.Resolution,
	)
	return nil
}

// Rebuild regenerates sections from the model's own skeleton copy. A model
// that was not cleared is cleared first; instrumentation does not survive.
func (m *Model) Rebuild() error {
	if m.state != Cleared {
		m.Clear()
	}
	return m.build()
}

// ID returns the random identifier that tags the model's log and journal
// events. It survives Rebuild.
func (m *Model) ID() string {
	return m.id
}

// State returns the lifecycle phase.
func (m *Model) State() State {
	return m.state
}

// Warnings returns the non-fatal findings of skeleton validation.
func (m *Model) Warnings() []skeleton.Warning {
	return append([]skeleton.Warning(nil), m.warnings...)
}

// Skeleton returns a copy of the skeleton the model was built from.
func (m *Model) Skeleton() *skeleton.Skeleton {
	return m.skel.Copy()
}

// Resolution returns the subdivision resolution.
func (m *Model) Resolution() float64 {
	return m.cfg.Resolution
}

// Sections returns the section geometries in index order. Empty after Clear.
func (m *Model) Sections() []sections.Geometry {
	return append([]sections.Geometry(nil), m.layout.Sections...)
}

// Locations returns a copy of the node location map. Empty after Clear.
func (m *Model) Locations() map[int64]sections.Location {
	out := make(map[int64]sections.Location, len(m.layout.Locations))
	for id, loc := range m.layout.Locations {
		out[id] = loc
	}
	return out
}

// Handle returns the engine handle of section i.
func (m *Model) Handle(i int) (solver.SectionID, error) {
	if m.state == Cleared {
		return 0, ErrCleared
	}
	if i < 0 || i >= len(m.handles) {
		return 0, fmt.Errorf("%w: %d (model has %d sections)", ErrSectionIndex, i, len(m.handles))
	}
	return m.handles[i], nil
}

// Context returns the solver context the model is attached to.
func (m *Model) Context() *solver.Context {
	return m.ctx
}

// String summarizes the model.
func (m *Model) String() string {
	return fmt.Sprintf("CompartmentModel<sections=%d;stimuli=%d;synapses=%d;records=%d>",
		len(m.handles), len(m.stimuli.Keys()), len(m.synapses.Keys()),
		m.labeled.Len()+len(m.byNode.Keys()))
}

// SetRa sets the axial resistance of every section.
func (m *Model) SetRa(ra float64) error {
	if err := checkBiophysics("Ra", ra); err != nil {
		return err
	}
	if err := m.setBiophysics(ra, m.cm); err != nil {
		return err
	}
	m.ra = ra
	return nil
}

// SetCm sets the membrane capacitance of every section.
func (m *Model) SetCm(cm float64) error {
	if err := checkBiophysics("Cm", cm); err != nil {
		return err
	}
	if err := m.setBiophysics(m.ra, cm); err != nil {
		return err
	}
	m.cm = cm
	return nil
}

// Ra returns the axial resistance shared by all sections [Ohm*cm].
func (m *Model) Ra() float64 {
	return m.ra
}

// Cm returns the membrane capacitance shared by all sections [uF/cm^2].
func (m *Model) Cm() float64 {
	return m.cm
}

func (m *Model) setBiophysics(ra, cm float64) error {
	if m.state == Cleared {
		return ErrCleared
	}
	for i, h := range m.handles {
		if err := m.engine.SetBiophysics(h, ra, cm); err != nil {
			return fmt.Errorf("section %d: %w", i, err)
		}
	}
	return nil
}

func checkBiophysics(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fmt.Errorf("%w: %s must be positive and finite, got %v", solver.ErrInvalidParameter, name, v)
	}
	return nil
}
