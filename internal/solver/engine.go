// Package solver defines the boundary to the simulation engine that owns
// compartments, point processes, recorders and the integration clock.
// The compartment model drives an Engine; it never integrates anything
// itself. MemoryEngine is a bookkeeping implementation for tests and dry runs.
package solver

import "errors"

var (
	// ErrUnknownSection is returned for section handles the engine does not hold.
	ErrUnknownSection = errors.New("unknown section")

	// ErrUnknownPoint is returned for point process handles the engine does not hold.
	ErrUnknownPoint = errors.New("unknown point process")
)

// SectionID is an engine-side compartment handle.
type SectionID int

// PointID is an engine-side point process handle.
type PointID int

// Site is a normalized position on a section.
type Site struct {
	Section SectionID
	Pos     float64
}

// Engine is the set of capabilities the compartment model consumes from a
// simulation engine. Implementations need not be safe for concurrent use by
// multiple callers; the model assumes one logical caller at a time.
type Engine interface {
	// CreateSection creates a named compartment with engine defaults.
	CreateSection(name string) SectionID

	// SetGeometry sets length [um], diameter [um] and subdivision count.
	SetGeometry(id SectionID, length, diameter float64, nseg int) error

	// SetBiophysics sets axial resistance [Ohm*cm] and membrane capacitance [uF/cm^2].
	SetBiophysics(id SectionID, ra, cm float64) error

	// Biophysics returns axial resistance and membrane capacitance.
	Biophysics(id SectionID) (ra, cm float64, err error)

	// Connect attaches child's proximal end to parent at pos.
	Connect(child, parent SectionID, pos float64) error

	// InsertMechanism inserts m into every subdivision of the section and
	// sets its parameters there.
	InsertMechanism(id SectionID, m Mechanism) error

	// HasMechanism reports whether the named mechanism is present.
	HasMechanism(id SectionID, name string) bool

	// RemoveMechanism removes the named mechanism from the section.
	RemoveMechanism(id SectionID, name string) error

	// NewPointProcess creates a located point process.
	NewPointProcess(at Site, p PointParams) (PointID, error)

	// NewSpikeGenerator creates an artificial spike source.
	NewSpikeGenerator(p NetStim) (PointID, error)

	// NewConnector links a spike source to a target point process.
	NewConnector(src, dst PointID, p NetCon) (PointID, error)

	// Record binds a trace to a state variable at a site.
	Record(at Site, variable string) (*Trace, error)

	// Init resets the clock, every recorder and every state variable.
	Init(vInit float64)

	// Advance integrates until the clock reaches tstop.
	Advance(tstop float64)

	// Time returns the engine's time trace.
	Time() *Trace

	// Release asks the engine to drop a section. It returns false when the
	// engine still holds references to it and keeps it alive.
	Release(id SectionID) bool

	// Sections returns the number of sections the engine currently holds.
	Sections() int
}
